package reflexion

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nihalnihalani/SelfCoding/pkg/llm"
	"github.com/nihalnihalani/SelfCoding/pkg/logging"
	"github.com/nihalnihalani/SelfCoding/pkg/memory"
)

// InsightType classifies an analyzer insight.
type InsightType string

const (
	InsightPerformance          InsightType = "performance"
	InsightErrorAnalysis        InsightType = "error_analysis"
	InsightPatternDiscovery     InsightType = "pattern_discovery"
	InsightStrategyOptimization InsightType = "strategy_optimization"
	InsightMetaLearning         InsightType = "meta_learning"
)

// Insight is one confidence-weighted finding from a deep reflection pass.
type Insight struct {
	Type            InsightType `json:"type"`
	Content         string      `json:"content"`
	Confidence      float64     `json:"confidence"`
	Evidence        []string    `json:"evidence"`
	ActionableSteps []string    `json:"actionable_steps"`
	Timestamp       time.Time   `json:"timestamp"`
	ImpactScore     float64     `json:"impact_score"`
}

// PerformanceData describes the outcome being reflected on.
type PerformanceData struct {
	QualityScore float64
	TimeTaken    float64 // seconds
	Success      bool
	Error        string
	Approach     string
}

const (
	// insightConfidenceThreshold filters which insights are kept and stored.
	insightConfidenceThreshold = 0.7

	// metaReflectionMinCycles gates meta-learning reflection until the
	// analyzer has enough of its own history to judge.
	metaReflectionMinCycles = 5

	analyzerReflectionImportance = 0.9
)

// Analyzer conducts multi-level reflection: tactical (immediate performance),
// strategic (trajectory patterns), meta (the reflection process itself), plus
// causal and counterfactual analysis through the external capability. The
// external analyses are best effort; their failures are logged and swallowed.
type Analyzer struct {
	mu         sync.Mutex
	memory     *memory.TieredMemory
	client     llm.CapabilityClient
	history    []Insight
	metaCycles int
	now        func() time.Time
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithAnalyzerClock overrides the time source.
func WithAnalyzerClock(now func() time.Time) AnalyzerOption {
	return func(a *Analyzer) {
		a.now = now
	}
}

// NewAnalyzer wires an analyzer over a memory store and a capability client.
func NewAnalyzer(mem *memory.TieredMemory, client llm.CapabilityClient, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		memory: mem,
		client: client,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// DeepReflection runs every reflection level, filters the findings by
// confidence, stores the survivors as high-importance reflections and returns
// them.
func (a *Analyzer) DeepReflection(ctx context.Context, taskContext map[string]interface{}, perf PerformanceData) []Insight {
	a.mu.Lock()
	defer a.mu.Unlock()

	var insights []Insight
	insights = append(insights, a.tacticalInsights(perf)...)
	insights = append(insights, a.strategicInsights()...)
	if a.metaCycles > metaReflectionMinCycles {
		insights = append(insights, a.metaInsightsLocked()...)
	}
	insights = append(insights, a.causalInsights(ctx, taskContext, perf)...)
	insights = append(insights, a.counterfactualInsights(ctx, taskContext, perf)...)

	var kept []Insight
	for _, insight := range insights {
		if insight.Confidence >= insightConfidenceThreshold {
			kept = append(kept, insight)
		}
	}

	for _, insight := range kept {
		a.memory.AddReflection(memory.Content{
			"type":             string(insight.Type),
			"content":          insight.Content,
			"confidence":       insight.Confidence,
			"evidence":         insight.Evidence,
			"actionable_steps": insight.ActionableSteps,
			"impact_score":     insight.ImpactScore,
		}, analyzerReflectionImportance)
	}

	a.history = append(a.history, kept...)
	a.metaCycles++
	return kept
}

// tacticalInsights reacts to the immediate outcome.
func (a *Analyzer) tacticalInsights(perf PerformanceData) []Insight {
	var insights []Insight

	if perf.QualityScore < 70 && perf.Success {
		insights = append(insights, Insight{
			Type:       InsightPerformance,
			Content:    fmt.Sprintf("Code generated successfully but quality score (%.0f) below optimal threshold", perf.QualityScore),
			Confidence: 0.8,
			Evidence: []string{
				fmt.Sprintf("Quality score: %.0f/100", perf.QualityScore),
				fmt.Sprintf("Success: %v", perf.Success),
			},
			ActionableSteps: []string{
				"Increase code review rigor",
				"Add more specific quality criteria to prompts",
				"Implement iterative refinement",
			},
			Timestamp:   a.now(),
			ImpactScore: 0.7,
		})
	}

	if perf.TimeTaken > 30 {
		insights = append(insights, Insight{
			Type:       InsightPerformance,
			Content:    fmt.Sprintf("Generation took %.1fs - investigating efficiency bottlenecks", perf.TimeTaken),
			Confidence: 0.9,
			Evidence: []string{
				fmt.Sprintf("Time taken: %.1fs", perf.TimeTaken),
				"Expected: <20s",
			},
			ActionableSteps: []string{
				"Optimize prompt length",
				"Use more efficient model routing",
				"Implement response caching",
			},
			Timestamp:   a.now(),
			ImpactScore: 0.6,
		})
	}

	return insights
}

// strategicInsights looks for trends across the recent performance history.
func (a *Analyzer) strategicInsights() []Insight {
	history := a.memory.PerformanceHistory()
	if len(history) < 10 {
		return nil
	}
	recent := history[len(history)-10:]

	var scores []float64
	for _, record := range recent {
		if record.QualityScore > 0 {
			scores = append(scores, record.QualityScore)
		}
	}
	if len(scores) < 5 {
		return nil
	}

	recentAvg := avg(scores[len(scores)-3:])
	olderAvg := avg(scores[:3])

	switch {
	case recentAvg > olderAvg+5:
		return []Insight{{
			Type:       InsightPatternDiscovery,
			Content:    fmt.Sprintf("Quality improving: %.1f -> %.1f. Learning is effective.", olderAvg, recentAvg),
			Confidence: 0.85,
			Evidence: []string{
				fmt.Sprintf("Recent avg: %.1f", recentAvg),
				fmt.Sprintf("Earlier avg: %.1f", olderAvg),
			},
			ActionableSteps: []string{
				"Continue current learning strategy",
				"Identify specific patterns driving improvement",
				"Increase pattern reuse frequency",
			},
			Timestamp:   a.now(),
			ImpactScore: 0.8,
		}}
	case recentAvg < olderAvg-5:
		return []Insight{{
			Type:       InsightErrorAnalysis,
			Content:    fmt.Sprintf("Quality declining: %.1f -> %.1f. Need strategy adjustment.", olderAvg, recentAvg),
			Confidence: 0.9,
			Evidence: []string{
				fmt.Sprintf("Recent avg: %.1f", recentAvg),
				fmt.Sprintf("Earlier avg: %.1f", olderAvg),
			},
			ActionableSteps: []string{
				"Review recent changes in approach",
				"Increase validation rigor",
				"Revert to previously successful patterns",
			},
			Timestamp:   a.now(),
			ImpactScore: 0.9,
		}}
	}
	return nil
}

// metaInsightsLocked judges how effective the reflection process itself has
// been. Caller holds the lock.
func (a *Analyzer) metaInsightsLocked() []Insight {
	if len(a.history) < 10 {
		return nil
	}

	actionable, highImpact := 0, 0
	for _, insight := range a.history {
		if len(insight.ActionableSteps) > 0 {
			actionable++
		}
		if insight.ImpactScore > 0.7 {
			highImpact++
		}
	}
	if actionable == 0 {
		return nil
	}
	effectiveness := float64(highImpact) / float64(actionable)

	switch {
	case effectiveness > 0.7:
		return []Insight{{
			Type:       InsightMetaLearning,
			Content:    fmt.Sprintf("Reflection process highly effective (%.0f%% high-impact insights)", effectiveness*100),
			Confidence: 0.8,
			Evidence: []string{
				fmt.Sprintf("High-impact insights: %d", highImpact),
				fmt.Sprintf("Total actionable: %d", actionable),
			},
			ActionableSteps: []string{
				"Maintain current reflection depth",
				"Focus on similar insight types",
				"Increase reflection frequency",
			},
			Timestamp:   a.now(),
			ImpactScore: 0.8,
		}}
	case effectiveness < 0.3:
		return []Insight{{
			Type:       InsightMetaLearning,
			Content:    fmt.Sprintf("Reflection process needs improvement (%.0f%% effectiveness)", effectiveness*100),
			Confidence: 0.9,
			Evidence:   []string{fmt.Sprintf("Low effectiveness: %.0f%%", effectiveness*100)},
			ActionableSteps: []string{
				"Increase insight confidence thresholds",
				"Focus on more specific, actionable insights",
				"Validate insights against actual outcomes",
			},
			Timestamp:   a.now(),
			ImpactScore: 0.9,
		}}
	}
	return nil
}

// causalInsights asks the external capability why the current performance
// level happened. Best effort: failures are logged, never propagated.
func (a *Analyzer) causalInsights(ctx context.Context, taskContext map[string]interface{}, perf PerformanceData) []Insight {
	history := a.memory.PerformanceHistory()
	if len(history) > 5 {
		history = history[len(history)-5:]
	}

	contextJSON, _ := json.MarshalIndent(taskContext, "", "  ")
	historyJSON, _ := json.MarshalIndent(history, "", "  ")

	prompt := fmt.Sprintf(`Analyze the causal relationships in this coding agent performance:

TASK CONTEXT:
%s

PERFORMANCE DATA:
quality_score: %.1f, time_taken: %.1fs, success: %v

RECENT HISTORY:
%s

Identify:
1. What specific factors likely CAUSED the current performance level?
2. Which actions had the strongest causal impact?
3. What are the key causal chains?

Return JSON:
{
  "primary_causes": ["cause 1", "cause 2"],
  "causal_chains": [["action", "intermediate_effect", "final_outcome"]],
  "confidence": 0.0,
  "evidence": ["evidence 1", "evidence 2"]
}`, contextJSON, perf.QualityScore, perf.TimeTaken, perf.Success, historyJSON)

	payload, err := a.client.Analyze(ctx, prompt)
	if err != nil {
		logging.GetLogger().Warn(ctx, "causal analysis failed: %v", err)
		return nil
	}

	confidence := floatValue(payload["confidence"])
	causes := stringSlice(payload["primary_causes"])
	if confidence <= 0.6 || len(causes) == 0 {
		return nil
	}

	return []Insight{{
		Type:       InsightErrorAnalysis,
		Content:    "Causal analysis: " + strings.Join(causes, ", "),
		Confidence: confidence,
		Evidence:   stringSlice(payload["evidence"]),
		ActionableSteps: []string{
			"Address primary cause: " + causes[0],
			"Monitor causal chain effects",
			"Test causal hypotheses in next generation",
		},
		Timestamp:   a.now(),
		ImpactScore: 0.8,
	}}
}

// counterfactualInsights asks what alternative approach might have succeeded
// after a failure. Best effort, like causalInsights.
func (a *Analyzer) counterfactualInsights(ctx context.Context, taskContext map[string]interface{}, perf PerformanceData) []Insight {
	if perf.Success {
		return nil
	}

	description, _ := taskContext["description"].(string)
	approach := perf.Approach
	if approach == "" {
		approach = "standard"
	}

	prompt := fmt.Sprintf(`Analyze counterfactual scenarios for this failed coding task:

TASK: %s
APPROACH USED: %s
FAILURE REASON: %s

What alternative approaches might have succeeded? Consider:
1. Different prompting strategies
2. Alternative model routing
3. Different validation approaches
4. Modified generation parameters

Return JSON:
{
  "counterfactuals": [
    {
      "alternative_approach": "description",
      "likely_outcome": "success/failure",
      "confidence": 0.0,
      "reasoning": "why this might work"
    }
  ],
  "most_promising": "approach name"
}`, description, approach, perf.Error)

	payload, err := a.client.Analyze(ctx, prompt)
	if err != nil {
		logging.GetLogger().Warn(ctx, "counterfactual analysis failed: %v", err)
		return nil
	}

	mostPromising, _ := payload["most_promising"].(string)
	if mostPromising == "" {
		return nil
	}

	return []Insight{{
		Type:       InsightStrategyOptimization,
		Content:    "Counterfactual analysis suggests trying: " + mostPromising,
		Confidence: 0.7,
		Evidence: []string{
			"Current approach failed: " + approach,
			"Alternative identified: " + mostPromising,
		},
		ActionableSteps: []string{
			"Implement " + mostPromising + " approach",
			"A/B test against current approach",
			"Monitor comparative performance",
		},
		Timestamp:   a.now(),
		ImpactScore: 0.8,
	}}
}

// Summary aggregates the analyzer's reflection history.
type Summary struct {
	Status           string              `json:"status"` // ok | no_reflections
	TotalReflections int                 `json:"total_reflections"`
	InsightsByType   map[InsightType]int `json:"insights_by_type,omitempty"`
	AvgConfidence    float64             `json:"average_confidence"`
	AvgImpact        float64             `json:"average_impact"`
	RecentConfidence float64             `json:"recent_confidence_trend"`
	MetaCycles       int                 `json:"meta_learning_cycles"`
	RecentInsights   []Insight           `json:"most_recent_insights,omitempty"`
}

// ReflectionSummary reports accumulated reflection statistics.
func (a *Analyzer) ReflectionSummary() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.history) == 0 {
		return Summary{Status: "no_reflections", MetaCycles: a.metaCycles}
	}

	summary := Summary{
		Status:         "ok",
		InsightsByType: make(map[InsightType]int),
		MetaCycles:     a.metaCycles,
	}
	summary.TotalReflections = len(a.history)

	var confidences, impacts []float64
	for _, insight := range a.history {
		summary.InsightsByType[insight.Type]++
		confidences = append(confidences, insight.Confidence)
		impacts = append(impacts, insight.ImpactScore)
	}
	summary.AvgConfidence = avg(confidences)
	summary.AvgImpact = avg(impacts)

	recent := a.history
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	var recentConfidences []float64
	for _, insight := range recent {
		recentConfidences = append(recentConfidences, insight.Confidence)
	}
	summary.RecentConfidence = avg(recentConfidences)
	summary.RecentInsights = append([]Insight(nil), recent...)

	return summary
}

func avg(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// floatValue coerces a JSON-decoded numeric value.
func floatValue(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	}
	return 0
}

// stringSlice coerces a JSON-decoded array of strings.
func stringSlice(v interface{}) []string {
	switch items := v.(type) {
	case []string:
		return items
	case []interface{}:
		var out []string
		for _, item := range items {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
