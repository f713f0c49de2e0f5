package curriculum

import "time"

// Category is the fixed task taxonomy.
type Category string

const (
	CategoryUIComponents            Category = "ui_components"
	CategoryDataVisualization       Category = "data_visualization"
	CategoryInteractiveApps         Category = "interactive_apps"
	CategoryAlgorithms              Category = "algorithms"
	CategoryFullStack               Category = "full_stack"
	CategoryPerformanceOptimization Category = "performance_optimization"
	CategoryResearch                Category = "research"
)

// Difficulty is the ordered 1-5 task difficulty scale.
type Difficulty int

const (
	DifficultyBeginner Difficulty = iota + 1
	DifficultyIntermediate
	DifficultyAdvanced
	DifficultyExpert
	DifficultyResearch
)

func (d Difficulty) String() string {
	switch d {
	case DifficultyBeginner:
		return "beginner"
	case DifficultyIntermediate:
		return "intermediate"
	case DifficultyAdvanced:
		return "advanced"
	case DifficultyExpert:
		return "expert"
	case DifficultyResearch:
		return "research"
	default:
		return "unknown"
	}
}

// SuccessCriteria holds the bar a solution must clear for a task.
type SuccessCriteria struct {
	QualityScore float64 `json:"quality_score"` // minimum acceptable score
	TimeLimit    int     `json:"time_limit"`    // minutes
}

// Task is one entry in the static curriculum catalog. The catalog is defined
// at system start and immutable thereafter.
type Task struct {
	ID                 string          `json:"id"`
	Description        string          `json:"description"`
	Category           Category        `json:"category"`
	Difficulty         Difficulty      `json:"difficulty"`
	Prerequisites      []string        `json:"prerequisites"`
	SuccessCriteria    SuccessCriteria `json:"success_criteria"`
	LearningObjectives []string        `json:"learning_objectives"`
	EstimatedTime      int             `json:"estimated_time"` // minutes
}

// Mastery tracks progress on a single task. Created on first attempt,
// updated on every subsequent attempt, never deleted.
type Mastery struct {
	TaskID          string    `json:"task_id"`
	Attempts        int       `json:"attempts"`
	Successes       int       `json:"successes"`
	BestScore       float64   `json:"best_score"`
	AverageScore    float64   `json:"average_score"` // EMA, alpha 0.3
	MasteryAchieved bool      `json:"mastery_achieved"`
	LastAttempt     time.Time `json:"last_attempt"`
}

// Outcome is one recent task result fed to the adaptive suggester.
type Outcome struct {
	Success      bool
	QualityScore float64
}

// DefaultCurriculum returns the built-in progression from beginner UI work
// through research-level tooling.
func DefaultCurriculum() []Task {
	return []Task{
		{
			ID:                 "simple_button",
			Description:        "Create a simple button with hover effects",
			Category:           CategoryUIComponents,
			Difficulty:         DifficultyBeginner,
			SuccessCriteria:    SuccessCriteria{QualityScore: 70, TimeLimit: 30},
			LearningObjectives: []string{"Basic HTML structure", "CSS styling", "Hover effects"},
			EstimatedTime:      5,
		},
		{
			ID:                 "basic_form",
			Description:        "Create a contact form with validation",
			Category:           CategoryUIComponents,
			Difficulty:         DifficultyBeginner,
			Prerequisites:      []string{"simple_button"},
			SuccessCriteria:    SuccessCriteria{QualityScore: 75, TimeLimit: 45},
			LearningObjectives: []string{"Form elements", "Input validation", "Event handling"},
			EstimatedTime:      10,
		},
		{
			ID:                 "todo_list",
			Description:        "Build a todo list with add/remove functionality",
			Category:           CategoryInteractiveApps,
			Difficulty:         DifficultyIntermediate,
			Prerequisites:      []string{"basic_form"},
			SuccessCriteria:    SuccessCriteria{QualityScore: 80, TimeLimit: 60},
			LearningObjectives: []string{"DOM manipulation", "Local storage", "Array operations"},
			EstimatedTime:      15,
		},
		{
			ID:                 "data_table",
			Description:        "Create a sortable, filterable data table",
			Category:           CategoryDataVisualization,
			Difficulty:         DifficultyIntermediate,
			Prerequisites:      []string{"todo_list"},
			SuccessCriteria:    SuccessCriteria{QualityScore: 80, TimeLimit: 90},
			LearningObjectives: []string{"Table manipulation", "Sorting algorithms", "Filtering"},
			EstimatedTime:      20,
		},
		{
			ID:                 "chart_dashboard",
			Description:        "Build a dashboard with interactive charts",
			Category:           CategoryDataVisualization,
			Difficulty:         DifficultyAdvanced,
			Prerequisites:      []string{"data_table"},
			SuccessCriteria:    SuccessCriteria{QualityScore: 85, TimeLimit: 120},
			LearningObjectives: []string{"Chart libraries", "Data processing", "Responsive design"},
			EstimatedTime:      30,
		},
		{
			ID:                 "real_time_chat",
			Description:        "Create a real-time chat application",
			Category:           CategoryFullStack,
			Difficulty:         DifficultyAdvanced,
			Prerequisites:      []string{"chart_dashboard"},
			SuccessCriteria:    SuccessCriteria{QualityScore: 85, TimeLimit: 180},
			LearningObjectives: []string{"WebSockets", "Real-time updates", "Message handling"},
			EstimatedTime:      45,
		},
		{
			ID:                 "game_engine",
			Description:        "Build a simple 2D game engine with physics",
			Category:           CategoryAlgorithms,
			Difficulty:         DifficultyExpert,
			Prerequisites:      []string{"real_time_chat"},
			SuccessCriteria:    SuccessCriteria{QualityScore: 90, TimeLimit: 240},
			LearningObjectives: []string{"Game loops", "Physics simulation", "Performance optimization"},
			EstimatedTime:      60,
		},
		{
			ID:                 "ai_code_assistant",
			Description:        "Create an AI-powered code completion tool",
			Category:           CategoryResearch,
			Difficulty:         DifficultyResearch,
			Prerequisites:      []string{"game_engine"},
			SuccessCriteria:    SuccessCriteria{QualityScore: 95, TimeLimit: 300},
			LearningObjectives: []string{"AI integration", "Code analysis", "Advanced algorithms"},
			EstimatedTime:      90,
		},
	}
}
