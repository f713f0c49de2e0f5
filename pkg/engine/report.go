package engine

import (
	"github.com/nihalnihalani/SelfCoding/pkg/curriculum"
	"github.com/nihalnihalani/SelfCoding/pkg/memory"
	"github.com/nihalnihalani/SelfCoding/pkg/reflexion"
	"github.com/nihalnihalani/SelfCoding/pkg/strategy"
)

// Report is the consolidated learning report exposed to the caller.
type Report struct {
	CyclesCompleted   int                       `json:"improvement_cycles_completed"`
	MemoryStats       memory.Stats              `json:"memory_stats"`
	Knowledge         memory.Knowledge          `json:"consolidated_knowledge"`
	CurriculumStats   curriculum.Analytics      `json:"curriculum_stats"`
	StrategyInsights  strategy.Insights         `json:"strategy_stats"`
	Efficiency        strategy.EfficiencyReport `json:"learning_efficiency"`
	ReflectionSummary reflexion.Summary         `json:"reflection_summary"`
	Recommendations   []string                  `json:"recommendations"`
}

// Report assembles statistics from every learning component plus
// recommendations for where to push next.
func (e *Engine) Report() Report {
	e.mu.Lock()
	defer e.mu.Unlock()

	report := Report{
		CyclesCompleted:   e.cycles,
		MemoryStats:       e.memory.Stats(),
		Knowledge:         e.memory.ConsolidatedKnowledge(),
		CurriculumStats:   e.tracker.Analytics(),
		StrategyInsights:  e.selector.MetaInsights(),
		Efficiency:        e.selector.LearningEfficiency(),
		ReflectionSummary: e.analyzer.ReflectionSummary(),
	}
	report.Recommendations = e.recommendationsLocked(report)
	return report
}

// recommendationsLocked derives improvement advice from the assembled stats.
func (e *Engine) recommendationsLocked(report Report) []string {
	var recs []string

	if trend := report.Knowledge.PerformanceTrend; trend != nil && trend.Trend == "declining" {
		recs = append(recs, "Consider adjusting learning parameters")
		recs = append(recs, "Review recent reflections for recurring issues")
	}

	if report.MemoryStats.PerformanceRecords > 0 && report.MemoryStats.SuccessRate < 0.7 {
		recs = append(recs, "Success rate below 70% - increase validation rigor")
	}

	if report.MemoryStats.ReflectiveInsights < 5 {
		recs = append(recs, "Insufficient reflective insights - increase reflection depth")
	}

	recs = append(recs, report.StrategyInsights.Recommendations...)

	if len(recs) == 0 {
		recs = []string{"System performing well - continue current strategy"}
	}
	return recs
}
