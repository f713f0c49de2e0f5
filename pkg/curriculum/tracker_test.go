package curriculum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nihalnihalani/SelfCoding/pkg/errors"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	tracker, err := NewTracker(DefaultCurriculum())
	require.NoError(t, err)
	return tracker
}

// master drives a task to mastery: three successful high-quality attempts.
func master(t *testing.T, tracker *Tracker, taskID string) {
	t.Helper()
	for i := 0; i < 3; i++ {
		require.NoError(t, tracker.RecordAttempt(taskID, true, 90))
	}
	require.True(t, tracker.IsMastered(taskID))
}

func TestNewTrackerValidation(t *testing.T) {
	t.Run("default curriculum is valid", func(t *testing.T) {
		_, err := NewTracker(DefaultCurriculum())
		assert.NoError(t, err)
	})

	t.Run("duplicate id rejected", func(t *testing.T) {
		_, err := NewTracker([]Task{
			{ID: "a", Difficulty: DifficultyBeginner},
			{ID: "a", Difficulty: DifficultyBeginner},
		})
		require.Error(t, err)
		assert.Equal(t, errors.ValidationFailed, errors.Code(err))
	})

	t.Run("dangling prerequisite rejected", func(t *testing.T) {
		_, err := NewTracker([]Task{
			{ID: "a", Difficulty: DifficultyBeginner, Prerequisites: []string{"ghost"}},
		})
		assert.Error(t, err)
	})

	t.Run("prerequisite cycle rejected", func(t *testing.T) {
		_, err := NewTracker([]Task{
			{ID: "a", Difficulty: DifficultyBeginner, Prerequisites: []string{"b"}},
			{ID: "b", Difficulty: DifficultyBeginner, Prerequisites: []string{"a"}},
		})
		require.Error(t, err)
		assert.Equal(t, errors.ValidationFailed, errors.Code(err))
	})
}

func TestRecordAttempt(t *testing.T) {
	t.Run("unknown task id is an invariant violation", func(t *testing.T) {
		tracker := newTestTracker(t)
		err := tracker.RecordAttempt("nonexistent", true, 90)
		require.Error(t, err)
		assert.Equal(t, errors.TaskNotFound, errors.Code(err))
	})

	t.Run("first attempt seeds EMA exactly", func(t *testing.T) {
		tracker := newTestTracker(t)
		require.NoError(t, tracker.RecordAttempt("simple_button", true, 80))

		mastery, ok := tracker.Mastery("simple_button")
		require.True(t, ok)
		assert.Equal(t, 80.0, mastery.AverageScore)
		assert.Equal(t, 80.0, mastery.BestScore)
		assert.Equal(t, 1, mastery.Attempts)
	})

	t.Run("EMA after 80 then 60 is 74.0", func(t *testing.T) {
		tracker := newTestTracker(t)
		require.NoError(t, tracker.RecordAttempt("simple_button", true, 80))
		require.NoError(t, tracker.RecordAttempt("simple_button", false, 60))

		mastery, _ := tracker.Mastery("simple_button")
		assert.InDelta(t, 74.0, mastery.AverageScore, 1e-9)
		assert.Equal(t, 80.0, mastery.BestScore, "best score keeps the max")
	})
}

func TestIsMastered(t *testing.T) {
	t.Run("no record means not mastered", func(t *testing.T) {
		tracker := newTestTracker(t)
		assert.False(t, tracker.IsMastered("simple_button"))
	})

	t.Run("two perfect attempts are not enough", func(t *testing.T) {
		tracker := newTestTracker(t)
		require.NoError(t, tracker.RecordAttempt("simple_button", true, 100))
		require.NoError(t, tracker.RecordAttempt("simple_button", true, 100))
		assert.False(t, tracker.IsMastered("simple_button"))
	})

	t.Run("three strong attempts achieve mastery", func(t *testing.T) {
		tracker := newTestTracker(t)
		master(t, tracker, "simple_button")
	})

	t.Run("low quality blocks mastery despite successes", func(t *testing.T) {
		tracker := newTestTracker(t)
		for i := 0; i < 4; i++ {
			require.NoError(t, tracker.RecordAttempt("simple_button", true, 65))
		}
		assert.False(t, tracker.IsMastered("simple_button"))
	})

	t.Run("low success rate blocks mastery despite quality", func(t *testing.T) {
		tracker := newTestTracker(t)
		require.NoError(t, tracker.RecordAttempt("simple_button", true, 95))
		require.NoError(t, tracker.RecordAttempt("simple_button", false, 95))
		require.NoError(t, tracker.RecordAttempt("simple_button", false, 95))
		assert.False(t, tracker.IsMastered("simple_button"))
	})
}

func TestNextRecommended(t *testing.T) {
	t.Run("only prerequisite-free tasks at the start", func(t *testing.T) {
		tracker := newTestTracker(t)
		next := tracker.NextRecommended(3)
		require.Len(t, next, 1)
		assert.Equal(t, "simple_button", next[0].ID)
	})

	t.Run("never returns a task with unmastered prerequisites", func(t *testing.T) {
		tracker := newTestTracker(t)
		master(t, tracker, "simple_button")

		for _, task := range tracker.NextRecommended(10) {
			for _, prereq := range task.Prerequisites {
				assert.True(t, tracker.IsMastered(prereq),
					"task %s recommended with unmastered prerequisite %s", task.ID, prereq)
			}
		}
	})

	t.Run("mastered tasks are excluded", func(t *testing.T) {
		tracker := newTestTracker(t)
		master(t, tracker, "simple_button")

		for _, task := range tracker.NextRecommended(10) {
			assert.NotEqual(t, "simple_button", task.ID)
		}
	})

	t.Run("sorted by difficulty then estimated time", func(t *testing.T) {
		tracker, err := NewTracker([]Task{
			{ID: "slow_easy", Difficulty: DifficultyBeginner, EstimatedTime: 30},
			{ID: "fast_easy", Difficulty: DifficultyBeginner, EstimatedTime: 5},
			{ID: "hard", Difficulty: DifficultyAdvanced, EstimatedTime: 1},
		})
		require.NoError(t, err)

		next := tracker.NextRecommended(3)
		require.Len(t, next, 3)
		assert.Equal(t, "fast_easy", next[0].ID)
		assert.Equal(t, "slow_easy", next[1].ID)
		assert.Equal(t, "hard", next[2].ID)
	})
}

func TestCurrentDifficulty(t *testing.T) {
	tracker := newTestTracker(t)
	assert.Equal(t, DifficultyBeginner, tracker.CurrentDifficulty())

	master(t, tracker, "simple_button")
	master(t, tracker, "basic_form")
	master(t, tracker, "todo_list")
	assert.Equal(t, DifficultyIntermediate, tracker.CurrentDifficulty())
}

func TestAdaptiveSuggestion(t *testing.T) {
	t.Run("empty history starts at the beginning", func(t *testing.T) {
		tracker := newTestTracker(t)
		suggestion, ok := tracker.AdaptiveSuggestion(nil)
		require.True(t, ok)
		assert.Equal(t, SuggestContinue, suggestion.Kind)
		assert.Equal(t, "simple_button", suggestion.Task.ID)
	})

	t.Run("strong recent performance advances", func(t *testing.T) {
		tracker := newTestTracker(t)
		outcomes := []Outcome{
			{Success: true, QualityScore: 90},
			{Success: true, QualityScore: 88},
			{Success: true, QualityScore: 92},
			{Success: true, QualityScore: 85},
			{Success: true, QualityScore: 91},
		}
		suggestion, ok := tracker.AdaptiveSuggestion(outcomes)
		require.True(t, ok)
		assert.Equal(t, SuggestAdvance, suggestion.Kind)
	})

	t.Run("struggling suggests review one level down", func(t *testing.T) {
		tracker := newTestTracker(t)
		master(t, tracker, "simple_button")
		master(t, tracker, "basic_form")
		master(t, tracker, "todo_list") // current difficulty: intermediate

		outcomes := []Outcome{
			{Success: false, QualityScore: 40},
			{Success: false, QualityScore: 50},
			{Success: false, QualityScore: 45},
			{Success: true, QualityScore: 55},
			{Success: false, QualityScore: 42},
		}
		suggestion, ok := tracker.AdaptiveSuggestion(outcomes)
		require.True(t, ok)
		assert.Equal(t, SuggestReview, suggestion.Kind)
		assert.Equal(t, DifficultyBeginner, suggestion.Task.Difficulty)
		assert.False(t, tracker.IsMastered(suggestion.Task.ID))
	})

	t.Run("middling performance continues normally", func(t *testing.T) {
		tracker := newTestTracker(t)
		outcomes := []Outcome{
			{Success: true, QualityScore: 70},
			{Success: false, QualityScore: 65},
			{Success: true, QualityScore: 72},
		}
		suggestion, ok := tracker.AdaptiveSuggestion(outcomes)
		require.True(t, ok)
		assert.Equal(t, SuggestContinue, suggestion.Kind)
	})
}

func TestPersonalizedPlan(t *testing.T) {
	tracker, err := NewTracker([]Task{
		{ID: "a", Difficulty: DifficultyBeginner, EstimatedTime: 5},
		{ID: "b", Difficulty: DifficultyBeginner, EstimatedTime: 10},
		{ID: "c", Difficulty: DifficultyIntermediate, EstimatedTime: 50},
	})
	require.NoError(t, err)

	plan := tracker.PersonalizedPlan(20)
	require.Len(t, plan, 2)
	assert.Equal(t, "a", plan[0].ID)
	assert.Equal(t, "b", plan[1].ID)
}

func TestAnalytics(t *testing.T) {
	tracker := newTestTracker(t)
	master(t, tracker, "simple_button")
	require.NoError(t, tracker.RecordAttempt("basic_form", false, 50))

	analytics := tracker.Analytics()
	assert.Equal(t, 2, analytics.TotalTasksAttempted)
	assert.Equal(t, 1, analytics.MasteredTasks)
	assert.InDelta(t, 0.5, analytics.MasteryRate, 1e-9)
	assert.InDelta(t, 0.75, analytics.OverallSuccessRate, 1e-9) // 3 of 4 attempts
	assert.Equal(t, "beginner", analytics.CurrentDifficulty)

	perf, ok := analytics.CategoryPerformance[CategoryUIComponents]
	require.True(t, ok)
	assert.Equal(t, 4, perf.Attempts)
	assert.Equal(t, 2, perf.TotalTasks)
	assert.Equal(t, 1, perf.MasteredTasks)
}
