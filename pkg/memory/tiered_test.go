package memory

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedClock returns a controllable time source.
func fixedClock(start time.Time) (func() time.Time, func(time.Duration)) {
	current := start
	now := func() time.Time { return current }
	advance := func(d time.Duration) { current = current.Add(d) }
	return now, advance
}

func TestShortTermEviction(t *testing.T) {
	m := NewTieredMemory()

	for i := 0; i < 15; i++ {
		m.AddShortTerm(Content{"description": fmt.Sprintf("item %d", i)}, 0.5)
	}

	stats := m.Stats()
	assert.Equal(t, 10, stats.ShortTermCount)
}

func TestMidTermCapacityAndOldestFirstEviction(t *testing.T) {
	m := NewTieredMemory()

	for i := 0; i < 60; i++ {
		m.AddEpisode(Content{"description": fmt.Sprintf("episode %d", i)}, 0.5)
	}

	stats := m.Stats()
	require.Equal(t, 50, stats.MidTermCount)

	// The ten oldest episodes were evicted; episode 10 is now the oldest.
	hits := m.RetrieveRelevant("episode", 50)
	require.Len(t, hits, 50)
	descriptions := make(map[string]bool, len(hits))
	for _, hit := range hits {
		descriptions[hit.Content.stringField("description")] = true
	}
	assert.False(t, descriptions["episode 9"])
	assert.True(t, descriptions["episode 10"])
	assert.Equal(t, "episode 10", hits[0].Content.stringField("description"))
}

func TestEpisodeConsolidation(t *testing.T) {
	t.Run("high importance success becomes exactly one pattern", func(t *testing.T) {
		m := NewTieredMemory()

		m.AddEpisode(Content{
			"description":   "Create a simple button",
			"approach":      "plain HTML with CSS transitions",
			"quality_score": 92.0,
			"success":       true,
		}, 0.85)

		patterns := m.SuccessfulPatterns()
		require.Len(t, patterns, 1)
		assert.Equal(t, "plain HTML with CSS transitions", patterns[0].Approach)
		assert.Equal(t, 92.0, patterns[0].QualityScore)
		assert.Empty(t, m.FailedPatterns())

		// The mid-term copy persists (copied, never moved).
		assert.Equal(t, 1, m.Stats().MidTermCount)
	})

	t.Run("high importance failure becomes a failure record", func(t *testing.T) {
		m := NewTieredMemory()

		m.AddEpisode(Content{
			"description": "Build a dashboard",
			"error":       "syntax error in script.js",
			"success":     false,
		}, 0.9)

		failures := m.FailedPatterns()
		require.Len(t, failures, 1)
		assert.Equal(t, "syntax error in script.js", failures[0].Error)
		assert.Empty(t, m.SuccessfulPatterns())
	})

	t.Run("importance at or below threshold is not consolidated", func(t *testing.T) {
		m := NewTieredMemory()
		m.AddEpisode(Content{"success": true, "description": "x"}, 0.8)
		assert.Empty(t, m.SuccessfulPatterns())
	})
}

func TestRetrieveRelevant(t *testing.T) {
	m := NewTieredMemory()

	m.AddShortTerm(Content{"description": "button with hover effects"}, 0.4)
	m.AddEpisode(Content{"description": "sortable table widget"}, 0.9)
	m.AddReflection(Content{"insight": "hover transitions need vendor prefixes"}, 0.95)

	t.Run("ranked by importance times retention", func(t *testing.T) {
		results := m.RetrieveRelevant("hover", 5)
		require.Len(t, results, 2)
		assert.Equal(t, TypeReflection, results[0].Type)
		assert.Equal(t, TypeShortTerm, results[1].Type)
	})

	t.Run("topK truncates", func(t *testing.T) {
		results := m.RetrieveRelevant("hover", 1)
		assert.Len(t, results, 1)
	})

	t.Run("no match returns empty", func(t *testing.T) {
		assert.Empty(t, m.RetrieveRelevant("websocket", 5))
	})
}

func TestAccessBoostsRetention(t *testing.T) {
	now, advance := fixedClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	m := NewTieredMemory(WithClock(now))

	entry := m.AddEpisode(Content{"description": "form validation"}, 0.6)

	// Decay for a while, then confirm access restores some strength.
	advance(10 * time.Hour)
	m.ApplyForgettingCurve()
	decayed := entry.RetentionStrength
	require.Less(t, decayed, 1.0)

	m.RetrieveRelevant("validation", 1)
	assert.InDelta(t, decayed+0.1, entry.RetentionStrength, 1e-9)
	assert.Equal(t, 1, entry.AccessCount)
}

func TestForgettingCurve(t *testing.T) {
	t.Run("idempotent at the same instant", func(t *testing.T) {
		now, advance := fixedClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
		m := NewTieredMemory(WithClock(now))

		entry := m.AddEpisode(Content{"description": "chat app"}, 0.6)
		advance(5 * time.Hour)

		m.ApplyForgettingCurve()
		first := entry.RetentionStrength

		// No time passes; retention must not re-decay.
		m.ApplyForgettingCurve()
		assert.Equal(t, first, entry.RetentionStrength)
	})

	t.Run("decay composes across repeated passes", func(t *testing.T) {
		start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

		nowA, advanceA := fixedClock(start)
		single := NewTieredMemory(WithClock(nowA))
		once := single.AddEpisode(Content{"description": "chat app"}, 0.6)
		advanceA(5 * time.Hour)
		single.ApplyForgettingCurve()

		nowB, advanceB := fixedClock(start)
		split := NewTieredMemory(WithClock(nowB))
		twice := split.AddEpisode(Content{"description": "chat app"}, 0.6)
		advanceB(2 * time.Hour)
		split.ApplyForgettingCurve()
		advanceB(3 * time.Hour)
		split.ApplyForgettingCurve()

		// e^{-2r}·e^{-3r} = e^{-5r}: two passes over a split interval equal
		// one pass over the whole of it.
		assert.InDelta(t, once.RetentionStrength, twice.RetentionStrength, 1e-12)
	})

	t.Run("important memories decay slower", func(t *testing.T) {
		now, advance := fixedClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
		m := NewTieredMemory(WithClock(now))

		low := m.AddEpisode(Content{"description": "a"}, 0.2)
		high := m.AddEpisode(Content{"description": "b"}, 0.9)
		advance(8 * time.Hour)

		m.ApplyForgettingCurve()
		assert.Greater(t, high.RetentionStrength, low.RetentionStrength)
	})

	t.Run("faded unimportant entries are evicted", func(t *testing.T) {
		now, advance := fixedClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
		m := NewTieredMemory(WithClock(now))

		m.AddEpisode(Content{"description": "throwaway"}, 0.1)
		m.AddEpisode(Content{"description": "keeper"}, 0.9)

		// 0.1 importance decays at rate 0.09/h; ~26h drives retention below 0.1.
		advance(48 * time.Hour)
		m.ApplyForgettingCurve()

		stats := m.Stats()
		assert.Equal(t, 1, stats.MidTermCount)
	})

	t.Run("important entries retained regardless of decay", func(t *testing.T) {
		now, advance := fixedClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
		m := NewTieredMemory(WithClock(now))

		// Importance 0.5 is at the retention floor's boundary: never evicted.
		m.AddEpisode(Content{"description": "boundary"}, 0.5)
		advance(1000 * time.Hour)
		m.ApplyForgettingCurve()

		assert.Equal(t, 1, m.Stats().MidTermCount)
	})
}

func TestPerformanceTrajectory(t *testing.T) {
	t.Run("no trend insight below five records", func(t *testing.T) {
		m := NewTieredMemory()
		for i := 0; i < 4; i++ {
			m.AddPerformanceRecord(PerformanceRecord{Task: "t", Success: true, QualityScore: 80})
		}
		assert.Equal(t, 0, m.Stats().ReflectiveInsights)
	})

	t.Run("improving trend recorded as reflection", func(t *testing.T) {
		m := NewTieredMemory()
		scores := []float64{60, 65, 70, 85, 90}
		for _, s := range scores {
			m.AddPerformanceRecord(PerformanceRecord{Task: "t", Success: true, QualityScore: s})
		}

		knowledge := m.ConsolidatedKnowledge()
		require.NotNil(t, knowledge.PerformanceTrend)
		assert.Equal(t, "improving", knowledge.PerformanceTrend.Trend)
		assert.InDelta(t, (70.0+85+90)/3, knowledge.PerformanceTrend.AvgRecentScore, 1e-9)
		assert.InDelta(t, (60.0+65+70)/3, knowledge.PerformanceTrend.AvgOlderScore, 1e-9)
		assert.Equal(t, 1.0, knowledge.PerformanceTrend.SuccessRate)

		assert.GreaterOrEqual(t, m.Stats().ReflectiveInsights, 1)
	})

	t.Run("declining trend", func(t *testing.T) {
		m := NewTieredMemory()
		scores := []float64{90, 88, 85, 60, 55}
		for i, s := range scores {
			m.AddPerformanceRecord(PerformanceRecord{Task: "t", Success: i < 3, QualityScore: s})
		}

		trend := m.ConsolidatedKnowledge().PerformanceTrend
		require.NotNil(t, trend)
		assert.Equal(t, "declining", trend.Trend)
		assert.InDelta(t, 0.6, trend.SuccessRate, 1e-9)
	})
}

func TestStats(t *testing.T) {
	m := NewTieredMemory()
	m.AddShortTerm(Content{"description": "a"}, 0.5)
	m.AddEpisode(Content{"description": "b", "success": true}, 0.9)
	m.AddReflection(Content{"insight": "c"}, 0.9)
	m.AddPerformanceRecord(PerformanceRecord{Task: "t", Success: true, QualityScore: 80})
	m.AddPerformanceRecord(PerformanceRecord{Task: "t", Success: false, QualityScore: 40})

	stats := m.Stats()
	assert.Equal(t, 1, stats.ShortTermCount)
	assert.Equal(t, 1, stats.MidTermCount)
	assert.Equal(t, 1, stats.LongTermPatterns)
	assert.Equal(t, 1, stats.ReflectiveInsights)
	assert.Equal(t, 2, stats.PerformanceRecords)
	assert.InDelta(t, 0.5, stats.SuccessRate, 1e-9)
}

func TestLongTermCap(t *testing.T) {
	m := NewTieredMemory(WithLongTermCap(3))
	for i := 0; i < 5; i++ {
		m.AddEpisode(Content{
			"description": fmt.Sprintf("pattern %d", i),
			"success":     true,
		}, 0.9)
	}

	patterns := m.SuccessfulPatterns()
	require.Len(t, patterns, 3)
	assert.Equal(t, "pattern 2", patterns[0].Description)
	assert.Equal(t, "pattern 4", patterns[2].Description)
}
