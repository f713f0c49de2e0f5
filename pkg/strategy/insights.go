package strategy

import "fmt"

// StrategyPerformance summarizes one strategy across all domains.
type StrategyPerformance struct {
	SuccessRate float64 `json:"success_rate"`
	AvgQuality  float64 `json:"avg_quality"`
	UsageCount  int     `json:"usage_count"`
}

// Trajectory compares recent outcome quality to early outcome quality.
type Trajectory struct {
	RecentAvgQuality float64 `json:"recent_avg_quality"`
	EarlyAvgQuality  float64 `json:"early_avg_quality"`
	Improvement      float64 `json:"improvement"`
}

// DomainMastery summarizes accumulated ability in one domain.
type DomainMastery struct {
	SuccessRate     float64 `json:"success_rate"`
	AvgQuality      float64 `json:"avg_quality"`
	ExperienceCount int     `json:"experience_count"`
	MasteryLevel    string  `json:"mastery_level"` // expert | proficient | learning
}

// Insights is the meta-level view of how learning itself is going.
type Insights struct {
	Status              string                           `json:"status"` // ok | insufficient_data
	StrategyPerformance map[Strategy]StrategyPerformance `json:"strategy_performance,omitempty"`
	LearningTrajectory  Trajectory                       `json:"learning_trajectory"`
	DomainMastery       map[string]DomainMastery         `json:"domain_mastery,omitempty"`
	AdaptiveParameters  Parameters                       `json:"adaptive_parameters"`
	Recommendations     []string                         `json:"recommendations,omitempty"`
}

// MetaInsights analyzes the learning process itself: per-strategy
// performance, the quality trajectory, per-domain mastery and
// recommendations. Requires at least ten recorded experiences.
func (s *Selector) MetaInsights() Insights {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.experiences) < adaptMinHistory {
		return Insights{Status: "insufficient_data", AdaptiveParameters: s.parametersLocked()}
	}

	insights := Insights{
		Status:              "ok",
		StrategyPerformance: make(map[Strategy]StrategyPerformance),
		DomainMastery:       make(map[string]DomainMastery),
		AdaptiveParameters:  s.parametersLocked(),
	}

	for _, strat := range All() {
		var total, wins int
		var qualities []float64
		for _, exp := range s.experiences {
			if exp.Strategy != strat {
				continue
			}
			total++
			if exp.Success {
				wins++
				qualities = append(qualities, exp.Quality)
			}
		}
		if total == 0 {
			continue
		}
		insights.StrategyPerformance[strat] = StrategyPerformance{
			SuccessRate: float64(wins) / float64(total),
			AvgQuality:  mean(qualities),
			UsageCount:  total,
		}
	}

	insights.LearningTrajectory = s.trajectoryLocked()

	for _, domain := range s.domainsLocked() {
		var total, wins int
		var qualities []float64
		for _, exp := range s.experiences {
			if exp.Domain != domain {
				continue
			}
			total++
			if exp.Success {
				wins++
				qualities = append(qualities, exp.Quality)
			}
		}
		successRate := float64(wins) / float64(total)
		avgQuality := mean(qualities)

		level := "learning"
		switch {
		case successRate > 0.8 && avgQuality > 85:
			level = "expert"
		case successRate > 0.6 && avgQuality > 70:
			level = "proficient"
		}

		insights.DomainMastery[domain] = DomainMastery{
			SuccessRate:     successRate,
			AvgQuality:      avgQuality,
			ExperienceCount: total,
			MasteryLevel:    level,
		}
	}

	insights.Recommendations = s.recommendationsLocked(insights)
	return insights
}

func (s *Selector) trajectoryLocked() Trajectory {
	var recent, early []float64
	n := len(s.experiences)

	start := n - 10
	if start < 0 {
		start = 0
	}
	for _, exp := range s.experiences[start:] {
		if exp.Success {
			recent = append(recent, exp.Quality)
		}
	}

	end := 10
	if end > n {
		end = n
	}
	for _, exp := range s.experiences[:end] {
		if exp.Success {
			early = append(early, exp.Quality)
		}
	}

	t := Trajectory{
		RecentAvgQuality: mean(recent),
		EarlyAvgQuality:  mean(early),
	}
	if len(recent) > 0 && len(early) > 0 {
		t.Improvement = t.RecentAvgQuality - t.EarlyAvgQuality
	}
	return t
}

func (s *Selector) domainsLocked() []string {
	seen := make(map[string]bool)
	var domains []string
	for _, exp := range s.experiences {
		if !seen[exp.Domain] {
			seen[exp.Domain] = true
			domains = append(domains, exp.Domain)
		}
	}
	return domains
}

func (s *Selector) recommendationsLocked(insights Insights) []string {
	var recs []string

	for _, strat := range All() {
		perf, ok := insights.StrategyPerformance[strat]
		if ok && perf.SuccessRate < 0.4 && perf.UsageCount > 5 {
			recs = append(recs, fmt.Sprintf(
				"Strategy '%s' showing low success rate - consider parameter tuning", strat))
		}
	}

	if insights.LearningTrajectory.Improvement < 0 {
		recs = append(recs,
			"Learning trajectory declining - consider curriculum adjustment or strategy review")
	}

	minCount, maxCount := 0, 0
	for _, mastery := range insights.DomainMastery {
		if minCount == 0 || mastery.ExperienceCount < minCount {
			minCount = mastery.ExperienceCount
		}
		if mastery.ExperienceCount > maxCount {
			maxCount = mastery.ExperienceCount
		}
	}
	if len(insights.DomainMastery) > 1 && maxCount > 3*minCount {
		recs = append(recs,
			"Unbalanced domain experience - consider more diverse task selection")
	}

	return recs
}

// EfficiencyReport summarizes learning efficiency over all experiences.
type EfficiencyReport struct {
	Status                string               `json:"status"` // ok | no_data
	TotalTimeMinutes      float64              `json:"total_learning_time_minutes"`
	SuccessfulTimeMinutes float64              `json:"successful_time_minutes"`
	TimeEfficiency        float64              `json:"time_efficiency"`
	VelocityPerHour       float64              `json:"learning_velocity_per_hour"`
	QualityProgression    []float64            `json:"quality_progression,omitempty"`
	StrategyEfficiency    map[Strategy]float64 `json:"strategy_efficiency,omitempty"`
	Parameters            Parameters           `json:"current_parameters"`
	Recorded              int                  `json:"recorded_experiences"`
}

// LearningEfficiency computes time spent versus quality gained, per strategy
// and overall.
func (s *Selector) LearningEfficiency() EfficiencyReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.experiences) == 0 {
		return EfficiencyReport{Status: "no_data", Parameters: s.parametersLocked()}
	}

	report := EfficiencyReport{
		Status:             "ok",
		StrategyEfficiency: make(map[Strategy]float64),
		Parameters:         s.parametersLocked(),
		Recorded:           len(s.experiences),
	}

	var progression []float64
	for _, exp := range s.experiences {
		report.TotalTimeMinutes += exp.TimeTaken
		if exp.Success {
			report.SuccessfulTimeMinutes += exp.TimeTaken
			progression = append(progression, exp.Quality)
		}
	}
	if report.TotalTimeMinutes > 0 {
		report.TimeEfficiency = report.SuccessfulTimeMinutes / report.TotalTimeMinutes
	}

	if len(progression) > 1 && report.TotalTimeMinutes > 0 {
		improvement := progression[len(progression)-1] - progression[0]
		report.VelocityPerHour = improvement / (report.TotalTimeMinutes / 60)
	}

	if len(progression) > 10 {
		progression = progression[len(progression)-10:]
	}
	report.QualityProgression = progression

	for _, strat := range All() {
		var timeSum float64
		var count int
		var qualities []float64
		for _, exp := range s.experiences {
			if exp.Strategy != strat {
				continue
			}
			count++
			timeSum += exp.TimeTaken
			if exp.Success {
				qualities = append(qualities, exp.Quality)
			}
		}
		if count == 0 {
			continue
		}
		avgTime := timeSum / float64(count)
		if avgTime > 0 && len(qualities) > 0 {
			report.StrategyEfficiency[strat] = mean(qualities) / avgTime
		} else {
			report.StrategyEfficiency[strat] = 0
		}
	}

	return report
}
