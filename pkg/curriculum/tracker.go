package curriculum

import (
	"sort"
	"sync"
	"time"

	"github.com/nihalnihalani/SelfCoding/pkg/errors"
)

const (
	// Mastery requires an 80% success rate with the EMA quality above 75,
	// over at least three attempts.
	masteryThreshold   = 0.8
	masteryScoreFloor  = 75.0
	masteryMinAttempts = 3

	// EMA blend weight for average score updates.
	emaAlpha = 0.3

	// Rolling window consulted by the adaptive suggester.
	adaptiveWindow = 5
)

// SuggestionKind classifies what the adaptive suggester recommends.
type SuggestionKind string

const (
	SuggestAdvance  SuggestionKind = "advance"  // performing well, take the next harder task
	SuggestReview   SuggestionKind = "review"   // struggling, revisit an easier task
	SuggestContinue SuggestionKind = "continue" // normal curriculum progression
)

// Suggestion is the adaptive suggester's output.
type Suggestion struct {
	Kind SuggestionKind
	Task Task
}

// Tracker maintains the static task DAG and per-task mastery records.
type Tracker struct {
	mu         sync.Mutex
	catalog    map[string]Task
	order      []string // catalog iteration order, as defined
	mastery    map[string]*Mastery
	focusAreas []Category
	now        func() time.Time
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithClock overrides the time source.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		t.now = now
	}
}

// NewTracker builds a tracker over a static catalog. Duplicate ids, dangling
// prerequisites and prerequisite cycles are configuration errors.
func NewTracker(tasks []Task, opts ...TrackerOption) (*Tracker, error) {
	t := &Tracker{
		catalog: make(map[string]Task, len(tasks)),
		mastery: make(map[string]*Mastery),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}

	for _, task := range tasks {
		if _, exists := t.catalog[task.ID]; exists {
			return nil, errors.WithFields(
				errors.New(errors.ValidationFailed, "duplicate curriculum task id"),
				errors.Fields{"task_id": task.ID})
		}
		t.catalog[task.ID] = task
		t.order = append(t.order, task.ID)
	}

	for _, task := range tasks {
		for _, prereq := range task.Prerequisites {
			if _, ok := t.catalog[prereq]; !ok {
				return nil, errors.WithFields(
					errors.New(errors.ValidationFailed, "prerequisite references unknown task"),
					errors.Fields{"task_id": task.ID, "prerequisite": prereq})
			}
		}
	}

	if err := t.checkAcyclic(); err != nil {
		return nil, err
	}
	return t, nil
}

// checkAcyclic runs a three-color DFS over the prerequisite graph.
func (t *Tracker) checkAcyclic() error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(t.catalog))

	var visit func(id string) error
	visit = func(id string) error {
		switch color[id] {
		case gray:
			return errors.WithFields(
				errors.New(errors.ValidationFailed, "prerequisite cycle in curriculum"),
				errors.Fields{"task_id": id})
		case black:
			return nil
		}
		color[id] = gray
		for _, prereq := range t.catalog[id].Prerequisites {
			if err := visit(prereq); err != nil {
				return err
			}
		}
		color[id] = black
		return nil
	}

	for id := range t.catalog {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}

// Task looks up a catalog entry.
func (t *Tracker) Task(taskID string) (Task, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	task, ok := t.catalog[taskID]
	return task, ok
}

// IsMastered reports whether a task meets all mastery criteria. Absence of a
// mastery record means not mastered.
func (t *Tracker) IsMastered(taskID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.isMasteredLocked(taskID)
}

func (t *Tracker) isMasteredLocked(taskID string) bool {
	mastery, ok := t.mastery[taskID]
	if !ok || mastery.Attempts == 0 {
		return false
	}

	successRate := float64(mastery.Successes) / float64(mastery.Attempts)
	return successRate >= masteryThreshold &&
		mastery.AverageScore >= masteryScoreFloor &&
		mastery.Attempts >= masteryMinAttempts
}

// RecordAttempt updates the mastery record for a task. An unknown task id is
// an invariant violation and is rejected immediately.
func (t *Tracker) RecordAttempt(taskID string, success bool, qualityScore float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.catalog[taskID]; !ok {
		return errors.WithFields(
			errors.New(errors.TaskNotFound, "task id not in curriculum catalog"),
			errors.Fields{"task_id": taskID})
	}

	mastery, ok := t.mastery[taskID]
	if !ok {
		mastery = &Mastery{TaskID: taskID}
		t.mastery[taskID] = mastery
	}

	mastery.Attempts++
	if success {
		mastery.Successes++
	}
	if qualityScore > mastery.BestScore {
		mastery.BestScore = qualityScore
	}

	// First attempt seeds the EMA exactly; later attempts blend.
	if mastery.Attempts == 1 {
		mastery.AverageScore = qualityScore
	} else {
		mastery.AverageScore = emaAlpha*qualityScore + (1-emaAlpha)*mastery.AverageScore
	}

	mastery.LastAttempt = t.now()
	mastery.MasteryAchieved = t.isMasteredLocked(taskID)

	t.updateFocusAreasLocked()
	return nil
}

// Mastery returns a copy of the mastery record for a task.
func (t *Tracker) Mastery(taskID string) (Mastery, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	mastery, ok := t.mastery[taskID]
	if !ok {
		return Mastery{}, false
	}
	return *mastery, true
}

// NextRecommended returns up to maxTasks unmastered tasks whose prerequisites
// are all mastered, ordered by difficulty then estimated time.
func (t *Tracker) NextRecommended(maxTasks int) []Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nextRecommendedLocked(maxTasks)
}

func (t *Tracker) nextRecommendedLocked(maxTasks int) []Task {
	var available []Task
	for _, id := range t.order {
		task := t.catalog[id]
		if t.isMasteredLocked(id) {
			continue
		}

		ready := true
		for _, prereq := range task.Prerequisites {
			if !t.isMasteredLocked(prereq) {
				ready = false
				break
			}
		}
		if ready {
			available = append(available, task)
		}
	}

	sort.SliceStable(available, func(i, j int) bool {
		if available[i].Difficulty != available[j].Difficulty {
			return available[i].Difficulty < available[j].Difficulty
		}
		return available[i].EstimatedTime < available[j].EstimatedTime
	})

	if maxTasks >= 0 && len(available) > maxTasks {
		available = available[:maxTasks]
	}
	return available
}

// CurrentDifficulty is the maximum difficulty among mastered tasks, or the
// lowest difficulty defined in the catalog when nothing is mastered.
func (t *Tracker) CurrentDifficulty() Difficulty {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currentDifficultyLocked()
}

func (t *Tracker) currentDifficultyLocked() Difficulty {
	maxMastered := Difficulty(0)
	for id := range t.mastery {
		if t.isMasteredLocked(id) {
			if d := t.catalog[id].Difficulty; d > maxMastered {
				maxMastered = d
			}
		}
	}
	if maxMastered > 0 {
		return maxMastered
	}

	lowest := Difficulty(0)
	for _, task := range t.catalog {
		if lowest == 0 || task.Difficulty < lowest {
			lowest = task.Difficulty
		}
	}
	if lowest == 0 {
		lowest = DifficultyBeginner
	}
	return lowest
}

// AdaptiveSuggestion picks the next task from the most recent outcomes:
// advance when performing well, review an easier task when struggling,
// otherwise continue normal progression. The second return is false when the
// curriculum has nothing left to offer.
func (t *Tracker) AdaptiveSuggestion(recent []Outcome) (Suggestion, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(recent) == 0 {
		for _, id := range t.order {
			task := t.catalog[id]
			if task.Difficulty == DifficultyBeginner && len(task.Prerequisites) == 0 {
				return Suggestion{Kind: SuggestContinue, Task: task}, true
			}
		}
		return Suggestion{}, false
	}

	if len(recent) > adaptiveWindow {
		recent = recent[len(recent)-adaptiveWindow:]
	}

	successes := 0
	totalQuality := 0.0
	for _, outcome := range recent {
		if outcome.Success {
			successes++
		}
		totalQuality += outcome.QualityScore
	}
	successRate := float64(successes) / float64(len(recent))
	avgQuality := totalQuality / float64(len(recent))

	switch {
	case successRate > 0.8 && avgQuality > 80:
		if next := t.nextRecommendedLocked(1); len(next) > 0 {
			return Suggestion{Kind: SuggestAdvance, Task: next[0]}, true
		}
	case successRate < 0.4 || avgQuality < 60:
		current := t.currentDifficultyLocked()
		if current > DifficultyBeginner {
			for _, id := range t.order {
				task := t.catalog[id]
				if task.Difficulty == current-1 && !t.isMasteredLocked(id) {
					return Suggestion{Kind: SuggestReview, Task: task}, true
				}
			}
		}
	}

	if next := t.nextRecommendedLocked(1); len(next) > 0 {
		return Suggestion{Kind: SuggestContinue, Task: next[0]}, true
	}
	return Suggestion{}, false
}

// PersonalizedPlan selects recommended tasks fitting a time budget, stopping
// once 80% of the budget is committed.
func (t *Tracker) PersonalizedPlan(timeBudgetMinutes int) []Task {
	t.mu.Lock()
	defer t.mu.Unlock()

	recommended := t.nextRecommendedLocked(10)

	var selected []Task
	total := 0
	for _, task := range recommended {
		if total+task.EstimatedTime <= timeBudgetMinutes {
			selected = append(selected, task)
			total += task.EstimatedTime
		}
		if float64(total) >= float64(timeBudgetMinutes)*0.8 {
			break
		}
	}
	return selected
}

// FocusAreas returns the categories currently needing attention.
func (t *Tracker) FocusAreas() []Category {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Category(nil), t.focusAreas...)
}

// updateFocusAreasLocked recomputes focus areas: categories with repeated
// unmastered attempts first, otherwise the categories at the next difficulty
// level above the highest mastered one.
func (t *Tracker) updateFocusAreasLocked() {
	t.focusAreas = t.focusAreas[:0]
	seen := make(map[Category]bool)

	for _, id := range t.order {
		mastery, ok := t.mastery[id]
		if !ok {
			continue
		}
		if mastery.Attempts >= masteryMinAttempts && !mastery.MasteryAchieved {
			category := t.catalog[id].Category
			if !seen[category] {
				seen[category] = true
				t.focusAreas = append(t.focusAreas, category)
			}
		}
	}
	if len(t.focusAreas) > 0 {
		return
	}

	maxMastered := Difficulty(0)
	for id := range t.mastery {
		if t.isMasteredLocked(id) {
			if d := t.catalog[id].Difficulty; d > maxMastered {
				maxMastered = d
			}
		}
	}
	if maxMastered == 0 || maxMastered >= DifficultyResearch {
		return
	}

	next := maxMastered + 1
	for _, id := range t.order {
		task := t.catalog[id]
		if task.Difficulty == next && !seen[task.Category] {
			seen[task.Category] = true
			t.focusAreas = append(t.focusAreas, task.Category)
		}
	}
}
