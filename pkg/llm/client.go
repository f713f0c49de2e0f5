package llm

import (
	"context"
)

// CapabilityClient is the boundary to the external large-language-model
// service. The core consumes these opaque capabilities and never inspects how
// they are produced. Implementations must carry their own timeouts and must
// not retry internally; a failed call aborts the current iteration.
type CapabilityClient interface {
	// Propose generates a candidate solution for a task, seeded with relevant
	// memory excerpts.
	Propose(ctx context.Context, task string, taskContext map[string]interface{}, memories []MemoryExcerpt) (*Solution, error)

	// Evaluate scores a solution against the task.
	Evaluate(ctx context.Context, task string, solution *Solution) (*Evaluation, error)

	// Reflect explains an evaluation, producing learnings and an improvement
	// strategy.
	Reflect(ctx context.Context, task string, solution *Solution, evaluation *Evaluation) (*Reflection, error)

	// Improve revises a solution using the previous evaluation and reflection.
	Improve(ctx context.Context, task string, solution *Solution, evaluation *Evaluation, reflection *Reflection) (*Solution, error)

	// Analyze runs a free-form analysis prompt and returns the parsed JSON
	// payload. Used by best-effort analytics (causal, counterfactual, domain
	// similarity); callers are expected to swallow failures.
	Analyze(ctx context.Context, prompt string) (map[string]interface{}, error)
}
