package engine

import "strings"

// Domain keyword tables. First matching domain wins; ordering goes from the
// most specific vocabulary to the most generic.
var domainKeywords = []struct {
	domain   string
	keywords []string
}{
	{"data_visualization", []string{"chart", "graph", "dashboard", "visualiz", "plot", "table"}},
	{"research", []string{"ai ", "ai-", "machine learning", "code assistant", "completion", "research"}},
	{"performance_optimization", []string{"optimize", "performance", "profil", "benchmark"}},
	{"algorithms", []string{"algorithm", "sort", "search", "physics", "engine", "simulation"}},
	{"full_stack", []string{"chat", "server", "api", "database", "auth", "websocket", "full stack"}},
	{"ui_components", []string{"button", "form", "component", "hover", "css", "layout", "modal", "navbar"}},
	{"interactive_apps", []string{"todo", "app", "interactive", "game"}},
}

var hardKeywords = []string{
	"real-time", "real time", "engine", "physics", "distributed", "concurrent",
	"optimization", "ai-powered", "machine learning", "advanced", "scalable",
}

var easyKeywords = []string{"simple", "basic", "small", "minimal"}

// CategorizeDomain maps a task description onto the curriculum's category
// taxonomy with keyword heuristics; unrecognized tasks land in "general".
func CategorizeDomain(task string) string {
	lowered := strings.ToLower(task)
	for _, entry := range domainKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(lowered, keyword) {
				return entry.domain
			}
		}
	}
	return "general"
}

// EstimateComplexity scores a task description into [0.05, 1.0] from keyword
// and length heuristics. It is intentionally rough; the meta-learner only
// needs a relative signal.
func EstimateComplexity(task string) float64 {
	lowered := strings.ToLower(task)
	complexity := 0.25

	for _, keyword := range hardKeywords {
		if strings.Contains(lowered, keyword) {
			complexity += 0.15
		}
	}
	for _, keyword := range easyKeywords {
		if strings.Contains(lowered, keyword) {
			complexity -= 0.05
		}
	}

	// Longer task statements tend to carry more requirements.
	lengthBonus := float64(len(strings.Fields(task))) / 100
	if lengthBonus > 0.2 {
		lengthBonus = 0.2
	}
	complexity += lengthBonus

	if complexity > 1.0 {
		complexity = 1.0
	}
	if complexity < 0.05 {
		complexity = 0.05
	}
	return complexity
}
