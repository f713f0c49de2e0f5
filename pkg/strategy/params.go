package strategy

import "sort"

// generateParametersLocked builds the strategy-specific guidance payload
// handed to the caller alongside the chosen strategy.
func (s *Selector) generateParametersLocked(strat Strategy, task TaskContext) map[string]any {
	params := map[string]any{"strategy": string(strat)}

	switch strat {
	case Imitation:
		depth := "medium"
		if task.Complexity > 0.7 {
			depth = "high"
		}
		params["focus_on_patterns"] = true
		params["example_analysis_depth"] = depth
		params["pattern_extraction_enabled"] = true

	case Exploration:
		alternatives := int(task.TimeBudgetMinutes / 30)
		if alternatives < 2 {
			alternatives = 2
		}
		risk := "medium"
		if task.TimeBudgetMinutes > 90 {
			risk = "high"
		}
		params["creativity_boost"] = true
		params["alternative_approaches"] = alternatives
		params["risk_tolerance"] = risk

	case Refinement:
		if best, ok := s.bestInDomainLocked(task.Domain); ok {
			focus := "speed"
			if task.Complexity > 0.6 {
				focus = "quality"
			}
			params["base_approach"] = best.Approach
			params["refinement_focus"] = focus
			params["incremental_improvements"] = true
		}

	case Transfer:
		similar := s.similarDomainsLocked(task.Domain, 3)
		if len(similar) > 0 {
			var patterns []TransferPattern
			for _, domain := range similar {
				if len(patterns) == 2 {
					break
				}
				if best, ok := s.bestInDomainLocked(domain); ok {
					patterns = append(patterns, TransferPattern{
						SourceDomain: domain,
						Approach:     best.Approach,
						Quality:      best.Quality,
					})
				}
			}
			params["transfer_patterns"] = patterns
			params["adaptation_required"] = true
			params["cross_domain_mapping"] = true
		}

	case Composition:
		params["composition_sources"] = s.diverseSuccessesLocked(3)
		params["synthesis_required"] = true
		params["novelty_emphasis"] = true
	}

	return params
}

// bestInDomainLocked returns the highest-quality successful experience in a
// domain.
func (s *Selector) bestInDomainLocked(domain string) (Experience, bool) {
	var best Experience
	found := false
	for _, exp := range s.experiences {
		if exp.Domain != domain || !exp.Success {
			continue
		}
		if !found || exp.Quality > best.Quality {
			best = exp
			found = true
		}
	}
	return best, found
}

// diverseSuccessesLocked picks the top successful approaches across distinct
// domains, best quality first.
func (s *Selector) diverseSuccessesLocked(limit int) []CompositionSource {
	byQuality := append([]Experience(nil), s.experiences...)
	sort.SliceStable(byQuality, func(i, j int) bool {
		return byQuality[i].Quality > byQuality[j].Quality
	})

	var sources []CompositionSource
	seen := make(map[string]bool)
	for _, exp := range byQuality {
		if len(sources) == limit {
			break
		}
		if !exp.Success || seen[exp.Domain] {
			continue
		}
		seen[exp.Domain] = true
		sources = append(sources, CompositionSource{
			Domain:   exp.Domain,
			Approach: exp.Approach,
			Quality:  exp.Quality,
		})
	}
	return sources
}
