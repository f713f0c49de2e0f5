package memory

import (
	"math"
	"time"
)

// Type tags which tier an entry was created for.
type Type string

const (
	TypeShortTerm  Type = "short_term"
	TypeEpisode    Type = "episode"
	TypeReflection Type = "reflection"
)

// Content is an arbitrary structured record stored in memory. Well-known keys
// ("success", "description", "approach", "quality_score", "error") drive
// long-term consolidation.
type Content map[string]interface{}

// Entry represents a single memory entry with metadata. Importance is
// immutable after creation; only retention strength changes over the entry's
// lifetime.
type Entry struct {
	Content           Content
	Type              Type
	Importance        float64
	CreatedAt         time.Time
	AccessCount       int
	LastAccessed      time.Time
	RetentionStrength float64
}

func newEntry(content Content, memType Type, importance float64, now time.Time) *Entry {
	return &Entry{
		Content:           content,
		Type:              memType,
		Importance:        importance,
		CreatedAt:         now,
		LastAccessed:      now,
		RetentionStrength: 1.0,
	}
}

// access records a retrieval. Retrieval strengthens the memory (spaced
// repetition), capped at 1.0.
func (e *Entry) access(now time.Time) {
	e.AccessCount++
	e.LastAccessed = now
	e.RetentionStrength = math.Min(1.0, e.RetentionStrength+0.1)
}

// decay applies the Ebbinghaus forgetting curve for the time elapsed since
// the entry was last touched, then advances the reference so repeated passes
// compose over real elapsed time instead of re-applying it. Important
// memories decay slower.
func (e *Entry) decay(now time.Time) float64 {
	hoursPassed := now.Sub(e.LastAccessed).Hours()
	decayRate := 0.1 * (1.0 - e.Importance)
	e.RetentionStrength *= math.Exp(-hoursPassed * decayRate)
	e.LastAccessed = now
	return e.RetentionStrength
}

func (c Content) stringField(key string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return ""
}

func (c Content) floatField(key string) float64 {
	switch v := c[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func (c Content) boolField(key string) bool {
	if v, ok := c[key].(bool); ok {
		return v
	}
	return false
}
