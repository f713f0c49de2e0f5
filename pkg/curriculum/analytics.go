package curriculum

// CategoryPerformance aggregates mastery records within one category.
type CategoryPerformance struct {
	Attempts      int     `json:"attempts"`
	Successes     int     `json:"successes"`
	SuccessRate   float64 `json:"success_rate"`
	AvgQuality    float64 `json:"avg_quality"`
	MasteredTasks int     `json:"mastered_tasks"`
	TotalTasks    int     `json:"total_tasks"`
	MasteryRate   float64 `json:"mastery_rate"`
}

// Analytics is a comprehensive snapshot of curriculum progress.
type Analytics struct {
	TotalTasksAttempted     int                              `json:"total_tasks_attempted"`
	MasteredTasks           int                              `json:"mastered_tasks"`
	MasteryRate             float64                          `json:"mastery_rate"`
	OverallSuccessRate      float64                          `json:"overall_success_rate"`
	CurrentDifficulty       string                           `json:"current_difficulty"`
	FocusAreas              []Category                       `json:"focus_areas"`
	LearningVelocityPerWeek float64                          `json:"learning_velocity_per_week"`
	CategoryPerformance     map[Category]CategoryPerformance `json:"category_performance"`
	NextRecommended         []Task                           `json:"next_recommended"`
}

// Analytics computes curriculum-wide progress statistics.
func (t *Tracker) Analytics() Analytics {
	t.mu.Lock()
	defer t.mu.Unlock()

	analytics := Analytics{
		CurrentDifficulty:   t.currentDifficultyLocked().String(),
		FocusAreas:          append([]Category(nil), t.focusAreas...),
		CategoryPerformance: make(map[Category]CategoryPerformance),
		NextRecommended:     t.nextRecommendedLocked(3),
	}

	if len(t.mastery) == 0 {
		return analytics
	}

	totalAttempts := 0
	totalSuccesses := 0
	for id, mastery := range t.mastery {
		analytics.TotalTasksAttempted++
		totalAttempts += mastery.Attempts
		totalSuccesses += mastery.Successes
		if mastery.MasteryAchieved {
			analytics.MasteredTasks++
		}

		category := t.catalog[id].Category
		perf := analytics.CategoryPerformance[category]
		perf.Attempts += mastery.Attempts
		perf.Successes += mastery.Successes
		perf.AvgQuality += mastery.AverageScore
		perf.TotalTasks++
		if mastery.MasteryAchieved {
			perf.MasteredTasks++
		}
		analytics.CategoryPerformance[category] = perf
	}

	for category, perf := range analytics.CategoryPerformance {
		if perf.Attempts > 0 {
			perf.SuccessRate = float64(perf.Successes) / float64(perf.Attempts)
		}
		if perf.TotalTasks > 0 {
			perf.AvgQuality /= float64(perf.TotalTasks)
			perf.MasteryRate = float64(perf.MasteredTasks) / float64(perf.TotalTasks)
		}
		analytics.CategoryPerformance[category] = perf
	}

	analytics.MasteryRate = float64(analytics.MasteredTasks) / float64(analytics.TotalTasksAttempted)
	if totalAttempts > 0 {
		analytics.OverallSuccessRate = float64(totalSuccesses) / float64(totalAttempts)
	}

	// Learning velocity: mastered tasks per week since the earliest attempt.
	var earliest = t.now()
	for _, mastery := range t.mastery {
		if mastery.LastAttempt.Before(earliest) {
			earliest = mastery.LastAttempt
		}
	}
	weeks := t.now().Sub(earliest).Hours() / (24 * 7)
	if weeks < 1 {
		weeks = 1
	}
	analytics.LearningVelocityPerWeek = float64(analytics.MasteredTasks) / weeks

	return analytics
}
