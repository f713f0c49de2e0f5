// Package strategy implements the meta-learning layer: it records how well
// each learning strategy worked in each task domain and recommends the
// strategy to use next via confidence-weighted scoring with an epsilon-greedy
// exploration override.
package strategy

import "time"

// Strategy is the closed set of learning strategies. Adding a member requires
// updating every scoring and parameter-generation switch.
type Strategy string

const (
	Imitation   Strategy = "imitation"   // learn from examples
	Exploration Strategy = "exploration" // try new approaches
	Refinement  Strategy = "refinement"  // improve existing solutions
	Transfer    Strategy = "transfer"    // apply knowledge from other domains
	Composition Strategy = "composition" // combine multiple patterns
)

// All returns every strategy in a fixed order.
func All() []Strategy {
	return []Strategy{Imitation, Exploration, Refinement, Transfer, Composition}
}

// Valid reports whether s is a member of the enumeration.
func (s Strategy) Valid() bool {
	switch s {
	case Imitation, Exploration, Refinement, Transfer, Composition:
		return true
	}
	return false
}

// Experience is one recorded (strategy, domain, outcome) data point.
type Experience struct {
	Strategy   Strategy       `json:"strategy"`
	Domain     string         `json:"domain"`
	Complexity float64        `json:"complexity"` // 0..1
	Approach   string         `json:"approach"`
	Quality    float64        `json:"quality"`    // 0..100
	TimeTaken  float64        `json:"time_taken"` // minutes
	Success    bool           `json:"success"`
	Timestamp  time.Time      `json:"timestamp"`
	Context    map[string]any `json:"context,omitempty"`
}

// Effectiveness summarizes all experiences for one (strategy, domain) key.
// It is recomputed from scratch from matching history on every record, never
// merged incrementally.
type Effectiveness struct {
	Strategy    Strategy  `json:"strategy"`
	Domain      string    `json:"domain"`
	SuccessRate float64   `json:"success_rate"`
	AvgQuality  float64   `json:"avg_quality"` // mean over successful outcomes
	AvgTime     float64   `json:"avg_time"`
	SampleSize  int       `json:"sample_size"`
	Confidence  float64   `json:"confidence"` // 0..1
	LastUpdated time.Time `json:"last_updated"`
}

// Parameters are the selector's adaptive global knobs.
type Parameters struct {
	ExplorationRate     float64 `json:"exploration_rate"`
	TransferThreshold   float64 `json:"transfer_threshold"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	MinSamples          int     `json:"min_samples_for_confidence"`
}

// TransferPattern is a successful approach borrowed from a similar domain.
type TransferPattern struct {
	SourceDomain string  `json:"source_domain"`
	Approach     string  `json:"approach"`
	Quality      float64 `json:"quality"`
}

// CompositionSource is one of the diverse approaches fed to composition.
type CompositionSource struct {
	Domain   string  `json:"domain"`
	Approach string  `json:"approach"`
	Quality  float64 `json:"quality"`
}
