package strategy

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/nihalnihalani/SelfCoding/pkg/logging"
)

const (
	// experienceCap bounds the experience ring; oldest entries are evicted
	// silently once full.
	experienceCap = 1000

	// neutralScore is the base score for a (strategy, domain) key with no
	// recorded history.
	neutralScore = 0.5

	// adaptMinHistory gates parameter adaptation until enough outcomes exist.
	adaptMinHistory = 10

	// adaptWindow is how many recent experiences drive parameter adaptation.
	adaptWindow = 20
)

type effectivenessKey struct {
	strategy Strategy
	domain   string
}

// Selector owns the experience log and recommends learning strategies.
type Selector struct {
	mu            sync.Mutex
	experiences   []Experience
	effectiveness map[effectivenessKey]Effectiveness
	similarities  map[string]map[string]float64

	explorationRate     float64
	transferThreshold   float64
	confidenceThreshold float64
	minSamples          int

	rng *rand.Rand
	now func() time.Time
}

// Option configures a Selector.
type Option func(*Selector)

// WithRand overrides the randomness source used by epsilon-greedy selection.
func WithRand(rng *rand.Rand) Option {
	return func(s *Selector) {
		s.rng = rng
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Selector) {
		s.now = now
	}
}

// WithExplorationRate seeds the initial epsilon.
func WithExplorationRate(rate float64) Option {
	return func(s *Selector) {
		s.explorationRate = rate
	}
}

// WithTransferThreshold seeds the initial domain-similarity floor.
func WithTransferThreshold(threshold float64) Option {
	return func(s *Selector) {
		s.transferThreshold = threshold
	}
}

// WithMinSamples sets the sample count at which confidence saturates.
func WithMinSamples(n int) Option {
	return func(s *Selector) {
		s.minSamples = n
	}
}

// NewSelector builds a Selector with neutral defaults.
func NewSelector(opts ...Option) *Selector {
	s := &Selector{
		effectiveness:       make(map[effectivenessKey]Effectiveness),
		similarities:        make(map[string]map[string]float64),
		explorationRate:     0.3,
		transferThreshold:   0.7,
		confidenceThreshold: 0.8,
		minSamples:          5,
		rng:                 rand.New(rand.NewSource(time.Now().UnixNano())),
		now:                 time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TaskContext describes the task a strategy is being chosen for.
type TaskContext struct {
	Domain            string
	Complexity        float64 // 0..1
	AvailableExamples int
	TimeBudgetMinutes float64
}

// Recommend scores every strategy for the task, applies the epsilon-greedy
// exploration override and returns the chosen strategy with its
// strategy-specific parameters.
func (s *Selector) Recommend(task TaskContext) (Strategy, map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	scores := s.scoreStrategiesLocked(task)

	var selected Strategy
	if s.rng.Float64() < s.explorationRate {
		all := All()
		selected = all[s.rng.Intn(len(all))]
		logging.GetLogger().Debug(context.Background(), "exploration override selected strategy %s", selected)
	} else {
		selected = argmax(scores)
	}

	return selected, s.generateParametersLocked(selected, task)
}

// scoreStrategiesLocked blends historical effectiveness with task-shape
// heuristics. Every branch mirrors the strategy's intent: imitation wants
// examples, exploration wants slack, refinement wants domain history,
// transfer wants similar domains, composition wants diversity.
func (s *Selector) scoreStrategiesLocked(task TaskContext) map[Strategy]float64 {
	scores := make(map[Strategy]float64, len(All()))

	for _, strat := range All() {
		base := s.baseScoreLocked(strat, task.Domain)

		var score float64
		switch strat {
		case Imitation:
			score = base *
				(1 + 0.3*math.Min(float64(task.AvailableExamples)/5, 1)) *
				(1 + 0.2*task.Complexity)

		case Exploration:
			score = base *
				(1 + 0.3*(1-task.Complexity)) *
				(1 + 0.2*math.Min(task.TimeBudgetMinutes/120, 1))

		case Refinement:
			domainExperience := 0
			for _, exp := range s.experiences {
				if exp.Domain == task.Domain {
					domainExperience++
				}
			}
			score = base * (1 + 0.4*math.Min(float64(domainExperience)/10, 1))

		case Transfer:
			transferPotential := 0.0
			for _, similar := range s.similarDomainsLocked(task.Domain, 3) {
				transferPotential += s.similarities[task.Domain][similar]
			}
			score = base * (1 + 0.5*math.Min(transferPotential, 1))

		case Composition:
			domains := make(map[string]bool)
			for _, exp := range s.experiences {
				domains[exp.Domain] = true
			}
			diversity := float64(len(domains)) / 10
			score = base *
				(1 + 0.3*task.Complexity) *
				(1 + 0.3*math.Min(diversity, 1))
		}

		scores[strat] = score
	}
	return scores
}

// baseScoreLocked is the confidence-weighted blend of success rate (60%) and
// normalized quality (40%) for a key, or neutral 0.5 without history.
func (s *Selector) baseScoreLocked(strat Strategy, domain string) float64 {
	eff, ok := s.effectiveness[effectivenessKey{strat, domain}]
	if !ok {
		return neutralScore
	}
	return (eff.SuccessRate*0.6 + eff.AvgQuality/100*0.4) * eff.Confidence
}

// argmax picks the highest-scoring strategy, breaking ties by the fixed
// enumeration order.
func argmax(scores map[Strategy]float64) Strategy {
	best := All()[0]
	for _, strat := range All() {
		if scores[strat] > scores[best] {
			best = strat
		}
	}
	return best
}

// RecordOutcome appends a Learning Experience, recomputes the effectiveness
// record for its (strategy, domain) key from all matching history, and adapts
// the global exploration and transfer parameters from recent outcomes.
func (s *Selector) RecordOutcome(exp Experience) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if exp.Timestamp.IsZero() {
		exp.Timestamp = s.now()
	}

	s.experiences = append(s.experiences, exp)
	if len(s.experiences) > experienceCap {
		s.experiences = s.experiences[len(s.experiences)-experienceCap:]
	}

	s.recomputeEffectivenessLocked(exp.Strategy, exp.Domain)
	s.adaptParametersLocked()
}

func (s *Selector) recomputeEffectivenessLocked(strat Strategy, domain string) {
	var (
		relevant      int
		successes     int
		timeSum       float64
		goodQualities []float64
	)
	for _, exp := range s.experiences {
		if exp.Strategy != strat || exp.Domain != domain {
			continue
		}
		relevant++
		timeSum += exp.TimeTaken
		if exp.Success {
			successes++
			goodQualities = append(goodQualities, exp.Quality)
		}
	}
	if relevant == 0 {
		return
	}

	confidence := math.Min(1, float64(relevant)/float64(s.minSamples))
	if relevant > 1 {
		confidence *= math.Max(0.1, 1-stddev(goodQualities)/100)
	}

	s.effectiveness[effectivenessKey{strat, domain}] = Effectiveness{
		Strategy:    strat,
		Domain:      domain,
		SuccessRate: float64(successes) / float64(relevant),
		AvgQuality:  mean(goodQualities),
		AvgTime:     timeSum / float64(relevant),
		SampleSize:  relevant,
		Confidence:  confidence,
		LastUpdated: s.now(),
	}
}

// adaptParametersLocked drifts exploration_rate and transfer_threshold from
// the last 20 outcomes once at least 10 exist.
func (s *Selector) adaptParametersLocked() {
	if len(s.experiences) < adaptMinHistory {
		return
	}
	recent := s.experiences
	if len(recent) > adaptWindow {
		recent = recent[len(recent)-adaptWindow:]
	}

	explorationTotal, explorationWins := 0, 0
	transferTotal, transferWins := 0, 0
	for _, exp := range recent {
		switch exp.Strategy {
		case Exploration:
			explorationTotal++
			if exp.Success {
				explorationWins++
			}
		case Transfer:
			transferTotal++
			if exp.Success {
				transferWins++
			}
		}
	}

	if explorationTotal > 0 {
		rate := float64(explorationWins) / float64(explorationTotal)
		switch {
		case rate > 0.7:
			s.explorationRate = math.Min(0.5, s.explorationRate*1.1)
		case rate < 0.3:
			s.explorationRate = math.Max(0.1, s.explorationRate*0.9)
		}
	}

	if transferTotal > 0 {
		rate := float64(transferWins) / float64(transferTotal)
		switch {
		case rate > 0.8:
			s.transferThreshold = math.Max(0.5, s.transferThreshold*0.95)
		case rate < 0.4:
			s.transferThreshold = math.Min(0.9, s.transferThreshold*1.05)
		}
	}
}

// SetDomainSimilarities replaces the advisory domain-similarity matrix. The
// matrix is produced externally; absence degrades transfer scoring to
// neutral rather than failing.
func (s *Selector) SetDomainSimilarities(similarities map[string]map[string]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.similarities = make(map[string]map[string]float64, len(similarities))
	for domain, row := range similarities {
		copied := make(map[string]float64, len(row))
		for other, score := range row {
			copied[other] = score
		}
		s.similarities[domain] = copied
	}
}

// similarDomainsLocked returns up to topK domains whose similarity to the
// target exceeds the adaptive transfer threshold, most similar first.
func (s *Selector) similarDomainsLocked(domain string, topK int) []string {
	row, ok := s.similarities[domain]
	if !ok {
		return nil
	}

	type candidate struct {
		domain string
		score  float64
	}
	candidates := make([]candidate, 0, len(row))
	for other, score := range row {
		candidates = append(candidates, candidate{other, score})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].domain < candidates[j].domain
	})

	var result []string
	for _, c := range candidates {
		if len(result) == topK {
			break
		}
		if c.score > s.transferThreshold {
			result = append(result, c.domain)
		}
	}
	return result
}

// Confidence reports the confidence for a (strategy, domain) key; zero when
// the key has no recorded samples.
func (s *Selector) Confidence(strat Strategy, domain string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	eff, ok := s.effectiveness[effectivenessKey{strat, domain}]
	if !ok {
		return 0
	}
	return eff.Confidence
}

// DomainProfile summarizes one domain's recorded experiences for external
// similarity analysis.
type DomainProfile struct {
	SuccessfulApproaches []string
	SuccessRate          float64
}

// DomainProfiles groups the experience log by domain: up to three successful
// approaches plus the domain's own success rate.
func (s *Selector) DomainProfiles() map[string]DomainProfile {
	s.mu.Lock()
	defer s.mu.Unlock()

	type tally struct {
		approaches []string
		successes  int
		total      int
	}
	tallies := make(map[string]*tally)
	for _, exp := range s.experiences {
		t := tallies[exp.Domain]
		if t == nil {
			t = &tally{}
			tallies[exp.Domain] = t
		}
		t.total++
		if exp.Success {
			t.successes++
			if exp.Approach != "" && len(t.approaches) < 3 {
				t.approaches = append(t.approaches, exp.Approach)
			}
		}
	}

	profiles := make(map[string]DomainProfile, len(tallies))
	for domain, t := range tallies {
		profiles[domain] = DomainProfile{
			SuccessfulApproaches: t.approaches,
			SuccessRate:          float64(t.successes) / float64(t.total),
		}
	}
	return profiles
}

// EffectivenessFor returns the effectiveness record for a key.
func (s *Selector) EffectivenessFor(strat Strategy, domain string) (Effectiveness, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	eff, ok := s.effectiveness[effectivenessKey{strat, domain}]
	return eff, ok
}

// Parameters returns the current adaptive parameter values.
func (s *Selector) Parameters() Parameters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.parametersLocked()
}

func (s *Selector) parametersLocked() Parameters {
	return Parameters{
		ExplorationRate:     s.explorationRate,
		TransferThreshold:   s.transferThreshold,
		ConfidenceThreshold: s.confidenceThreshold,
		MinSamples:          s.minSamples,
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev is the population standard deviation.
func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(len(values)))
}
