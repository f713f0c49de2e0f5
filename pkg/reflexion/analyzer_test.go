package reflexion

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nihalnihalani/SelfCoding/internal/testutil"
	"github.com/nihalnihalani/SelfCoding/pkg/errors"
	"github.com/nihalnihalani/SelfCoding/pkg/memory"
)

func newTestAnalyzer(mem *memory.TieredMemory, client *testutil.ScriptedClient) *Analyzer {
	return NewAnalyzer(mem, client, WithAnalyzerClock(func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}))
}

func TestTacticalInsights(t *testing.T) {
	t.Run("low quality success flagged", func(t *testing.T) {
		mem := memory.NewTieredMemory()
		analyzer := newTestAnalyzer(mem, &testutil.ScriptedClient{})

		insights := analyzer.DeepReflection(context.Background(), nil, PerformanceData{
			QualityScore: 65,
			Success:      true,
		})

		require.Len(t, insights, 1)
		assert.Equal(t, InsightPerformance, insights[0].Type)
		assert.GreaterOrEqual(t, insights[0].Confidence, 0.7)
		assert.NotEmpty(t, insights[0].ActionableSteps)

		// Kept insights land in the reflective tier.
		assert.Equal(t, 1, mem.Stats().ReflectiveInsights)
	})

	t.Run("slow generation flagged", func(t *testing.T) {
		mem := memory.NewTieredMemory()
		analyzer := newTestAnalyzer(mem, &testutil.ScriptedClient{})

		insights := analyzer.DeepReflection(context.Background(), nil, PerformanceData{
			QualityScore: 85,
			TimeTaken:    45,
			Success:      true,
		})

		require.Len(t, insights, 1)
		assert.Contains(t, insights[0].Content, "45.0s")
	})

	t.Run("healthy outcome produces nothing", func(t *testing.T) {
		mem := memory.NewTieredMemory()
		analyzer := newTestAnalyzer(mem, &testutil.ScriptedClient{})

		insights := analyzer.DeepReflection(context.Background(), nil, PerformanceData{
			QualityScore: 90,
			TimeTaken:    10,
			Success:      true,
		})
		assert.Empty(t, insights)
	})
}

func TestStrategicInsights(t *testing.T) {
	t.Run("improving trajectory discovered", func(t *testing.T) {
		mem := memory.NewTieredMemory()
		scores := []float64{60, 62, 61, 70, 72, 75, 80, 85, 88, 90}
		for _, s := range scores {
			mem.AddPerformanceRecord(memory.PerformanceRecord{Task: "t", Success: true, QualityScore: s})
		}
		analyzer := newTestAnalyzer(mem, &testutil.ScriptedClient{})

		insights := analyzer.DeepReflection(context.Background(), nil, PerformanceData{
			QualityScore: 90, Success: true,
		})

		require.Len(t, insights, 1)
		assert.Equal(t, InsightPatternDiscovery, insights[0].Type)
		assert.Contains(t, insights[0].Content, "improving")
	})

	t.Run("declining trajectory flagged for adjustment", func(t *testing.T) {
		mem := memory.NewTieredMemory()
		scores := []float64{90, 88, 91, 85, 80, 75, 70, 62, 60, 58}
		for _, s := range scores {
			mem.AddPerformanceRecord(memory.PerformanceRecord{Task: "t", Success: true, QualityScore: s})
		}
		analyzer := newTestAnalyzer(mem, &testutil.ScriptedClient{})

		insights := analyzer.DeepReflection(context.Background(), nil, PerformanceData{
			QualityScore: 90, Success: true,
		})

		require.Len(t, insights, 1)
		assert.Equal(t, InsightErrorAnalysis, insights[0].Type)
	})
}

func TestCausalInsights(t *testing.T) {
	t.Run("confident causal analysis becomes an insight", func(t *testing.T) {
		mem := memory.NewTieredMemory()
		client := &testutil.ScriptedClient{
			AnalyzeFn: func(prompt string) (map[string]interface{}, error) {
				return map[string]interface{}{
					"primary_causes": []interface{}{"vague prompt", "missing validation"},
					"confidence":     0.85,
					"evidence":       []interface{}{"score variance across iterations"},
				}, nil
			},
		}
		analyzer := newTestAnalyzer(mem, client)

		insights := analyzer.DeepReflection(context.Background(),
			map[string]interface{}{"description": "todo list"},
			PerformanceData{QualityScore: 85, Success: true})

		require.Len(t, insights, 1)
		assert.Equal(t, InsightErrorAnalysis, insights[0].Type)
		assert.Contains(t, insights[0].Content, "vague prompt")
		assert.Contains(t, insights[0].ActionableSteps[0], "vague prompt")
	})

	t.Run("low confidence analysis discarded", func(t *testing.T) {
		mem := memory.NewTieredMemory()
		client := &testutil.ScriptedClient{
			AnalyzeFn: func(prompt string) (map[string]interface{}, error) {
				return map[string]interface{}{
					"primary_causes": []interface{}{"maybe the prompt"},
					"confidence":     0.4,
				}, nil
			},
		}
		analyzer := newTestAnalyzer(mem, client)

		insights := analyzer.DeepReflection(context.Background(), nil,
			PerformanceData{QualityScore: 85, Success: true})
		assert.Empty(t, insights)
	})

	t.Run("analysis failure is swallowed", func(t *testing.T) {
		mem := memory.NewTieredMemory()
		client := &testutil.ScriptedClient{
			AnalyzeFn: func(prompt string) (map[string]interface{}, error) {
				return nil, errors.New(errors.CapabilityUnavailable, "service down")
			},
		}
		analyzer := newTestAnalyzer(mem, client)

		insights := analyzer.DeepReflection(context.Background(), nil,
			PerformanceData{QualityScore: 65, Success: true})

		// The tactical insight survives; the causal failure never propagates.
		require.Len(t, insights, 1)
		assert.Equal(t, InsightPerformance, insights[0].Type)
	})
}

func TestCounterfactualInsights(t *testing.T) {
	t.Run("failure triggers counterfactual analysis", func(t *testing.T) {
		mem := memory.NewTieredMemory()
		client := &testutil.ScriptedClient{
			AnalyzeFn: func(prompt string) (map[string]interface{}, error) {
				return map[string]interface{}{
					"most_promising": "incremental DOM updates",
				}, nil
			},
		}
		analyzer := newTestAnalyzer(mem, client)

		insights := analyzer.DeepReflection(context.Background(),
			map[string]interface{}{"description": "real time chat"},
			PerformanceData{QualityScore: 40, Success: false, Error: "render loop stalls"})

		var found bool
		for _, insight := range insights {
			if insight.Type == InsightStrategyOptimization {
				found = true
				assert.Contains(t, insight.Content, "incremental DOM updates")
			}
		}
		assert.True(t, found)
	})

	t.Run("success skips counterfactuals", func(t *testing.T) {
		mem := memory.NewTieredMemory()
		called := false
		client := &testutil.ScriptedClient{
			AnalyzeFn: func(prompt string) (map[string]interface{}, error) {
				called = true
				return map[string]interface{}{"most_promising": "anything"}, nil
			},
		}
		analyzer := newTestAnalyzer(mem, client)

		analyzer.DeepReflection(context.Background(), nil,
			PerformanceData{QualityScore: 90, Success: true})
		// Only the causal pass calls Analyze on success.
		assert.True(t, called)
	})
}

func TestReflectionSummary(t *testing.T) {
	t.Run("empty history", func(t *testing.T) {
		analyzer := newTestAnalyzer(memory.NewTieredMemory(), &testutil.ScriptedClient{})
		assert.Equal(t, "no_reflections", analyzer.ReflectionSummary().Status)
	})

	t.Run("aggregates by type", func(t *testing.T) {
		mem := memory.NewTieredMemory()
		analyzer := newTestAnalyzer(mem, &testutil.ScriptedClient{})

		for i := 0; i < 3; i++ {
			analyzer.DeepReflection(context.Background(), nil, PerformanceData{
				QualityScore: 60, Success: true,
			})
		}

		summary := analyzer.ReflectionSummary()
		require.Equal(t, "ok", summary.Status)
		assert.Equal(t, 3, summary.TotalReflections)
		assert.Equal(t, 3, summary.InsightsByType[InsightPerformance])
		assert.InDelta(t, 0.8, summary.AvgConfidence, 1e-9)
		assert.Equal(t, 3, summary.MetaCycles)
		assert.Len(t, summary.RecentInsights, 3)
	})
}
