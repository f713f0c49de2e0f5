package memory

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	shortTermCapacity = 10
	midTermCapacity   = 50

	// Long-term lists are capped so month-long runs do not grow without
	// bound; oldest records are evicted first. Zero disables the cap.
	defaultLongTermCap = 500
)

// PerformanceRecord is one point on the append-only performance trajectory.
type PerformanceRecord struct {
	Task         string    `json:"task"`
	Success      bool      `json:"success"`
	QualityScore float64   `json:"quality_score"`
	Timestamp    time.Time `json:"timestamp"`
}

// PatternRecord is a consolidated successful pattern in long-term memory.
type PatternRecord struct {
	Description  string    `json:"description"`
	Approach     string    `json:"approach"`
	QualityScore float64   `json:"quality_score"`
	Timestamp    time.Time `json:"timestamp"`
}

// FailureRecord is a consolidated failure in long-term memory.
type FailureRecord struct {
	Description       string    `json:"description"`
	Error             string    `json:"error"`
	AttemptedSolution string    `json:"attempted_solution"`
	Timestamp         time.Time `json:"timestamp"`
}

// TrendInsight summarizes the recent performance trajectory.
type TrendInsight struct {
	Trend          string  `json:"trend"` // "improving" or "declining"
	AvgRecentScore float64 `json:"avg_recent_score"`
	AvgOlderScore  float64 `json:"avg_older_score"`
	Delta          float64 `json:"delta"`
	SuccessRate    float64 `json:"success_rate"`
}

// Retrieved is a relevance-ranked view of a memory entry returned by
// RetrieveRelevant.
type Retrieved struct {
	Content    Content `json:"content"`
	Importance float64 `json:"importance"`
	Retention  float64 `json:"retention"`
	Type       Type    `json:"type"`
}

// Knowledge is a snapshot of consolidated long-term state.
type Knowledge struct {
	SuccessfulPatternCount int           `json:"successful_patterns_count"`
	FailedPatternCount     int           `json:"failed_patterns_count"`
	LearnedRules           []Content     `json:"learned_rules"`
	RecentInsights         []Content     `json:"recent_insights"`
	PerformanceTrend       *TrendInsight `json:"performance_trend,omitempty"`
}

// Stats reports tier occupancy and overall success rate.
type Stats struct {
	ShortTermCount     int     `json:"short_term_count"`
	MidTermCount       int     `json:"mid_term_count"`
	LongTermPatterns   int     `json:"long_term_patterns"`
	ReflectiveInsights int     `json:"reflective_insights"`
	PerformanceRecords int     `json:"performance_records"`
	SuccessRate        float64 `json:"success_rate"`
}

// TieredMemory is a multi-tier memory store inspired by human cognition:
// a bounded short-term working buffer, a bounded decayable mid-term episodic
// buffer, unbounded-by-default long-term consolidated knowledge, and a
// reflective tier of meta-insights. All operations are pure in-memory
// mutations guarded by a single coarse lock.
type TieredMemory struct {
	mu sync.Mutex

	shortTerm []*Entry
	midTerm   []*Entry

	successfulPatterns []PatternRecord
	failedPatterns     []FailureRecord
	learnedRules       []Content

	reflective []*Entry

	performance []PerformanceRecord

	longTermCap int
	now         func() time.Time
}

// Option configures a TieredMemory.
type Option func(*TieredMemory)

// WithClock overrides the time source. Used by decay tests.
func WithClock(now func() time.Time) Option {
	return func(m *TieredMemory) {
		m.now = now
	}
}

// WithLongTermCap sets the per-list long-term cap. Zero disables capping.
func WithLongTermCap(n int) Option {
	return func(m *TieredMemory) {
		m.longTermCap = n
	}
}

// NewTieredMemory creates an empty store.
func NewTieredMemory(opts ...Option) *TieredMemory {
	m := &TieredMemory{
		longTermCap: defaultLongTermCap,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddShortTerm inserts into the short-term ring buffer, evicting the oldest
// entry when full.
func (m *TieredMemory) AddShortTerm(content Content, importance float64) *Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := newEntry(content, TypeShortTerm, importance, m.now())
	m.shortTerm = appendBounded(m.shortTerm, entry, shortTermCapacity)
	return entry
}

// AddEpisode inserts into the mid-term ring buffer. Episodes with importance
// above 0.8 are additionally consolidated into long-term memory; the mid-term
// copy persists.
func (m *TieredMemory) AddEpisode(content Content, importance float64) *Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := newEntry(content, TypeEpisode, importance, m.now())
	m.midTerm = appendBounded(m.midTerm, entry, midTermCapacity)

	if importance > 0.8 {
		m.consolidate(entry)
	}
	return entry
}

// AddReflection appends to the reflective tier (unbounded).
func (m *TieredMemory) AddReflection(content Content, importance float64) *Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addReflectionLocked(content, importance)
}

func (m *TieredMemory) addReflectionLocked(content Content, importance float64) *Entry {
	entry := newEntry(content, TypeReflection, importance, m.now())
	m.reflective = append(m.reflective, entry)
	return entry
}

// AddLearnedRule appends a rule to long-term memory.
func (m *TieredMemory) AddLearnedRule(rule Content) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.learnedRules = append(m.learnedRules, rule)
	if m.longTermCap > 0 && len(m.learnedRules) > m.longTermCap {
		m.learnedRules = m.learnedRules[len(m.learnedRules)-m.longTermCap:]
	}
}

// AddPerformanceRecord appends to the performance trajectory. Once the
// trajectory has at least five records, a trend insight is derived and stored
// as a high-importance reflection.
func (m *TieredMemory) AddPerformanceRecord(record PerformanceRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record.Timestamp = m.now()
	m.performance = append(m.performance, record)

	if len(m.performance) >= 5 {
		if insight := m.analyzeTrajectoryLocked(); insight != nil {
			m.addReflectionLocked(Content{
				"type":     "performance_analysis",
				"insights": insight,
			}, 0.95)
		}
	}
}

// consolidate extracts a pattern or failure record from a high-importance
// episode. Caller holds the lock.
func (m *TieredMemory) consolidate(entry *Entry) {
	content := entry.Content

	if content.boolField("success") {
		m.successfulPatterns = append(m.successfulPatterns, PatternRecord{
			Description:  content.stringField("description"),
			Approach:     content.stringField("approach"),
			QualityScore: content.floatField("quality_score"),
			Timestamp:    entry.CreatedAt,
		})
		if m.longTermCap > 0 && len(m.successfulPatterns) > m.longTermCap {
			m.successfulPatterns = m.successfulPatterns[len(m.successfulPatterns)-m.longTermCap:]
		}
	} else {
		m.failedPatterns = append(m.failedPatterns, FailureRecord{
			Description:       content.stringField("description"),
			Error:             content.stringField("error"),
			AttemptedSolution: content.stringField("attempted_solution"),
			Timestamp:         entry.CreatedAt,
		})
		if m.longTermCap > 0 && len(m.failedPatterns) > m.longTermCap {
			m.failedPatterns = m.failedPatterns[len(m.failedPatterns)-m.longTermCap:]
		}
	}
}

// RetrieveRelevant scans the short-term, mid-term and reflective tiers for
// entries whose serialized content matches any query token, marks matches as
// accessed, and returns the topK ranked by importance x retention.
func (m *TieredMemory) RetrieveRelevant(query string, topK int) []Retrieved {
	m.mu.Lock()
	defer m.mu.Unlock()

	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 || topK <= 0 {
		return nil
	}

	now := m.now()
	var relevant []Retrieved

	scan := func(entries []*Entry) {
		for _, entry := range entries {
			serialized, err := json.Marshal(entry.Content)
			if err != nil {
				continue
			}
			haystack := strings.ToLower(string(serialized))
			for _, token := range tokens {
				if strings.Contains(haystack, token) {
					entry.access(now)
					relevant = append(relevant, Retrieved{
						Content:    entry.Content,
						Importance: entry.Importance,
						Retention:  entry.RetentionStrength,
						Type:       entry.Type,
					})
					break
				}
			}
		}
	}

	scan(m.shortTerm)
	scan(m.midTerm)
	scan(m.reflective)

	sort.SliceStable(relevant, func(i, j int) bool {
		return relevant[i].Importance*relevant[i].Retention > relevant[j].Importance*relevant[j].Retention
	})

	if len(relevant) > topK {
		relevant = relevant[:topK]
	}
	return relevant
}

// ApplyForgettingCurve decays mid-term entries by elapsed time since last
// access and evicts those that have both faded and were unimportant. This is
// lazy, pull-based decay: it only runs when invoked.
func (m *TieredMemory) ApplyForgettingCurve() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	kept := m.midTerm[:0]
	for _, entry := range m.midTerm {
		retention := entry.decay(now)

		if retention < 0.1 && entry.Importance < 0.5 {
			continue
		}
		kept = append(kept, entry)
	}
	m.midTerm = kept
}

// ConsolidatedKnowledge snapshots long-term state: pattern counts, learned
// rules, the five most recent reflective insights, and the current trend.
func (m *TieredMemory) ConsolidatedKnowledge() Knowledge {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := Knowledge{
		SuccessfulPatternCount: len(m.successfulPatterns),
		FailedPatternCount:     len(m.failedPatterns),
		LearnedRules:           append([]Content(nil), m.learnedRules...),
		PerformanceTrend:       m.analyzeTrajectoryLocked(),
	}

	start := len(m.reflective) - 5
	if start < 0 {
		start = 0
	}
	for _, entry := range m.reflective[start:] {
		k.RecentInsights = append(k.RecentInsights, entry.Content)
	}
	return k
}

// SuccessfulPatterns returns a copy of the consolidated success patterns.
func (m *TieredMemory) SuccessfulPatterns() []PatternRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PatternRecord(nil), m.successfulPatterns...)
}

// FailedPatterns returns a copy of the consolidated failure records.
func (m *TieredMemory) FailedPatterns() []FailureRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]FailureRecord(nil), m.failedPatterns...)
}

// PerformanceHistory returns a copy of the performance trajectory.
func (m *TieredMemory) PerformanceHistory() []PerformanceRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PerformanceRecord(nil), m.performance...)
}

// Stats reports current tier occupancy.
func (m *TieredMemory) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := Stats{
		ShortTermCount:     len(m.shortTerm),
		MidTermCount:       len(m.midTerm),
		LongTermPatterns:   len(m.successfulPatterns),
		ReflectiveInsights: len(m.reflective),
		PerformanceRecords: len(m.performance),
	}

	if len(m.performance) > 0 {
		successes := 0
		for _, record := range m.performance {
			if record.Success {
				successes++
			}
		}
		stats.SuccessRate = float64(successes) / float64(len(m.performance))
	}
	return stats
}

// analyzeTrajectoryLocked compares the mean of the three most recent quality
// scores against the mean of the earliest three within the last-10 window.
// Caller holds the lock.
func (m *TieredMemory) analyzeTrajectoryLocked() *TrendInsight {
	start := len(m.performance) - 10
	if start < 0 {
		start = 0
	}
	window := m.performance[start:]
	if len(window) == 0 {
		return nil
	}

	var scores []float64
	for _, record := range window {
		if record.QualityScore > 0 {
			scores = append(scores, record.QualityScore)
		}
	}
	if len(scores) < 3 {
		return nil
	}

	avgRecent := mean(scores[len(scores)-3:])
	avgOlder := mean(scores[:3])

	trend := "declining"
	if avgRecent > avgOlder {
		trend = "improving"
	}

	successes := 0
	for _, record := range window {
		if record.Success {
			successes++
		}
	}

	return &TrendInsight{
		Trend:          trend,
		AvgRecentScore: avgRecent,
		AvgOlderScore:  avgOlder,
		Delta:          avgRecent - avgOlder,
		SuccessRate:    float64(successes) / float64(len(window)),
	}
}

func appendBounded(entries []*Entry, entry *Entry, capacity int) []*Entry {
	entries = append(entries, entry)
	if len(entries) > capacity {
		entries = entries[len(entries)-capacity:]
	}
	return entries
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
