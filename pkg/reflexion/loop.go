// Package reflexion implements the bounded generate-evaluate-reflect-improve
// cycle for a single task, and the advanced multi-level reflection analyzer.
package reflexion

import (
	"context"

	"github.com/nihalnihalani/SelfCoding/pkg/errors"
	"github.com/nihalnihalani/SelfCoding/pkg/llm"
	"github.com/nihalnihalani/SelfCoding/pkg/logging"
	"github.com/nihalnihalani/SelfCoding/pkg/memory"
)

const (
	defaultMaxIterations = 3
	defaultTargetScore   = 95.0
	defaultSuccessScore  = 80.0

	// Episodes from strong iterations are stored more prominently.
	episodeImportanceHigh = 0.8
	episodeImportanceLow  = 0.6
	episodeScoreSplit     = 80.0

	// Reflections always land near the top of retrieval ranking.
	reflectionImportance = 0.95

	// How many memory excerpts seed the initial proposal.
	proposalMemoryCount = 3
)

// IterationRecord is one row of the iteration log.
type IterationRecord struct {
	Iteration int         `json:"iteration"`
	Score     float64     `json:"score"`
	Verdict   llm.Verdict `json:"verdict"`
	Approach  string      `json:"approach"`
	Issues    int         `json:"issues"`
}

// Result is the outcome of one full reflexion run.
type Result struct {
	Task           string            `json:"task"`
	BestSolution   *llm.Solution     `json:"best_solution,omitempty"`
	BestEvaluation *llm.Evaluation   `json:"best_evaluation,omitempty"`
	BestScore      float64           `json:"best_score"`
	Iterations     []IterationRecord `json:"iteration_log"`
	EarlyExit      bool              `json:"early_exit"`
	Success        bool              `json:"success"`
	Knowledge      memory.Knowledge  `json:"consolidated_knowledge"`
}

// Loop drives the bounded refinement cycle against the external capability.
type Loop struct {
	client        llm.CapabilityClient
	memory        *memory.TieredMemory
	maxIterations int
	targetScore   float64
	successScore  float64
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithMaxIterations bounds the refinement cycle.
func WithMaxIterations(n int) LoopOption {
	return func(l *Loop) {
		if n > 0 {
			l.maxIterations = n
		}
	}
}

// WithTargetScore sets the early-exit score.
func WithTargetScore(score float64) LoopOption {
	return func(l *Loop) {
		l.targetScore = score
	}
}

// WithSuccessScore sets the floor for counting the run as a success.
func WithSuccessScore(score float64) LoopOption {
	return func(l *Loop) {
		l.successScore = score
	}
}

// NewLoop wires a reflexion loop over a capability client and a memory store.
func NewLoop(client llm.CapabilityClient, mem *memory.TieredMemory, opts ...LoopOption) *Loop {
	l := &Loop{
		client:        client,
		memory:        mem,
		maxIterations: defaultMaxIterations,
		targetScore:   defaultTargetScore,
		successScore:  defaultSuccessScore,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run executes up to maxIterations refinement rounds for the task. Each round
// evaluates the current solution, stores a reflection and an episode, and
// improves the solution unless an exit condition fires. Capability failures
// abort the run: malformed responses surface immediately, while
// timeout/unavailable failures additionally contribute a failure performance
// record. The returned Result is valid (partial) even when err is non-nil.
func (l *Loop) Run(ctx context.Context, task string, taskContext map[string]interface{}) (*Result, error) {
	logger := logging.GetLogger()
	result := &Result{Task: task}

	solution, err := l.client.Propose(ctx, task, taskContext, l.recallForTask(task))
	if err != nil {
		return result, l.abort(ctx, result, err, "proposal failed")
	}

	for iteration := 1; iteration <= l.maxIterations; iteration++ {
		evaluation, err := l.client.Evaluate(ctx, task, solution)
		if err != nil {
			return result, l.abort(ctx, result, err, "evaluation failed")
		}
		if err := evaluation.Validate(); err != nil {
			return result, l.abort(ctx, result, err, "evaluation rejected")
		}

		reflection, err := l.client.Reflect(ctx, task, solution, evaluation)
		if err != nil {
			return result, l.abort(ctx, result, err, "reflection failed")
		}
		l.storeIteration(task, iteration, solution, evaluation, reflection)

		result.Iterations = append(result.Iterations, IterationRecord{
			Iteration: iteration,
			Score:     evaluation.OverallScore,
			Verdict:   evaluation.Verdict,
			Approach:  solution.Approach,
			Issues:    len(evaluation.Issues),
		})

		// Ties keep the earliest best.
		if result.BestSolution == nil || evaluation.OverallScore > result.BestScore {
			result.BestSolution = solution
			result.BestEvaluation = evaluation
			result.BestScore = evaluation.OverallScore
		}

		logger.Info(ctx, "iteration %d scored %.1f (%s)", iteration, evaluation.OverallScore, evaluation.Verdict)

		if evaluation.OverallScore >= l.targetScore || evaluation.Verdict == llm.VerdictPass {
			result.EarlyExit = iteration < l.maxIterations
			break
		}
		if iteration == l.maxIterations {
			break
		}

		// Cancellation is honored between iterations, never mid-call.
		if err := errors.CheckContext(ctx, "reflexion loop"); err != nil {
			return result, l.abort(ctx, result, err, "canceled between iterations")
		}

		solution, err = l.client.Improve(ctx, task, solution, evaluation, reflection)
		if err != nil {
			return result, l.abort(ctx, result, err, "improvement failed")
		}
	}

	result.Success = result.BestScore >= l.successScore
	l.memory.AddPerformanceRecord(memory.PerformanceRecord{
		Task:         task,
		Success:      result.Success,
		QualityScore: result.BestScore,
	})
	result.Knowledge = l.memory.ConsolidatedKnowledge()
	return result, nil
}

// recallForTask pulls the most relevant stored experience for the proposal.
func (l *Loop) recallForTask(task string) []llm.MemoryExcerpt {
	retrieved := l.memory.RetrieveRelevant(task, proposalMemoryCount)
	excerpts := make([]llm.MemoryExcerpt, 0, len(retrieved))
	for _, r := range retrieved {
		excerpts = append(excerpts, llm.MemoryExcerpt{
			Type:       string(r.Type),
			Content:    r.Content,
			Importance: r.Importance,
		})
	}
	return excerpts
}

// storeIteration persists the iteration's reflection and episode.
func (l *Loop) storeIteration(task string, iteration int, solution *llm.Solution, evaluation *llm.Evaluation, reflection *llm.Reflection) {
	l.memory.AddReflection(memory.Content{
		"task":                 task,
		"iteration":            iteration,
		"key_learnings":        reflection.KeyLearnings,
		"action_items":         reflection.ActionItems,
		"patterns_to_remember": reflection.PatternsToRemember,
		"patterns_to_avoid":    reflection.PatternsToAvoid,
		"improvement_strategy": reflection.ImprovementStrategy,
		"meta_insight":         reflection.MetaInsight,
	}, reflectionImportance)

	importance := episodeImportanceLow
	if evaluation.OverallScore >= episodeScoreSplit {
		importance = episodeImportanceHigh
	}
	l.memory.AddEpisode(memory.Content{
		"description":   task,
		"approach":      solution.Approach,
		"quality_score": evaluation.OverallScore,
		"success":       evaluation.OverallScore >= episodeScoreSplit,
		"verdict":       string(evaluation.Verdict),
		"iteration":     iteration,
		"feedback":      evaluation.Feedback,
	}, importance)
}

// abort classifies a capability failure and finalizes the partial result.
// Unavailable/timeout failures count as a failed attempt on the performance
// trajectory; malformed responses surface without one.
func (l *Loop) abort(ctx context.Context, result *Result, cause error, message string) error {
	logging.GetLogger().Error(ctx, "%s: %v", message, cause)

	switch errors.Code(cause) {
	case errors.Timeout, errors.CapabilityUnavailable:
		l.memory.AddPerformanceRecord(memory.PerformanceRecord{
			Task:         result.Task,
			Success:      false,
			QualityScore: result.BestScore,
		})
	}

	result.Success = false
	result.Knowledge = l.memory.ConsolidatedKnowledge()
	return errors.Wrap(cause, errors.IterationFailed, message)
}
