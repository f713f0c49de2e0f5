package llm

import (
	"github.com/nihalnihalani/SelfCoding/pkg/errors"
)

// Verdict is the evaluator's categorical judgment of a solution. It doubles as
// the early-exit signal for the reflexion loop.
type Verdict string

const (
	VerdictPass             Verdict = "pass"
	VerdictNeedsImprovement Verdict = "needs_improvement"
	VerdictFail             Verdict = "fail"
)

// Valid reports whether the verdict is one of the known values.
func (v Verdict) Valid() bool {
	switch v {
	case VerdictPass, VerdictNeedsImprovement, VerdictFail:
		return true
	}
	return false
}

// Solution is a candidate answer to a coding task produced by the external
// capability.
type Solution struct {
	Files    map[string]string      `json:"files"`
	Approach string                 `json:"approach"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Evaluation is the structured score the external capability assigns to a
// solution. OverallScore is on a 0-100 scale.
type Evaluation struct {
	OverallScore  float64  `json:"overall_score"`
	Correctness   float64  `json:"correctness"`
	Completeness  float64  `json:"completeness"`
	Quality       float64  `json:"quality"`
	BestPractices float64  `json:"best_practices"`
	Issues        []string `json:"issues"`
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	Verdict       Verdict  `json:"verdict"`
	Feedback      string   `json:"feedback"`
}

// Validate rejects evaluations the loop cannot act on. A malformed evaluation
// must abort the iteration rather than contribute a guessed score.
func (e *Evaluation) Validate() error {
	if !e.Verdict.Valid() {
		return errors.WithFields(
			errors.New(errors.InvalidResponse, "evaluation verdict is not pass/needs_improvement/fail"),
			errors.Fields{"verdict": string(e.Verdict)})
	}
	if e.OverallScore < 0 || e.OverallScore > 100 {
		return errors.WithFields(
			errors.New(errors.InvalidResponse, "evaluation score outside 0-100"),
			errors.Fields{"score": e.OverallScore})
	}
	return nil
}

// Reflection captures what the external capability learned from an evaluation.
type Reflection struct {
	KeyLearnings        []string `json:"key_learnings"`
	ActionItems         []string `json:"action_items"`
	PatternsToRemember  []string `json:"patterns_to_remember"`
	PatternsToAvoid     []string `json:"patterns_to_avoid"`
	ImprovementStrategy string   `json:"improvement_strategy"`
	MetaInsight         string   `json:"meta_insight"`
}

// MemoryExcerpt is the slice of stored experience handed to Propose as
// grounding context.
type MemoryExcerpt struct {
	Type       string                 `json:"type"`
	Content    map[string]interface{} `json:"content"`
	Importance float64                `json:"importance"`
}
