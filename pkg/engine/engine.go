// Package engine wires the memory store, curriculum tracker, strategy
// selector and reflexion loop into the top-level self-improvement controller.
package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/nihalnihalani/SelfCoding/pkg/config"
	"github.com/nihalnihalani/SelfCoding/pkg/curriculum"
	"github.com/nihalnihalani/SelfCoding/pkg/llm"
	"github.com/nihalnihalani/SelfCoding/pkg/logging"
	"github.com/nihalnihalani/SelfCoding/pkg/memory"
	"github.com/nihalnihalani/SelfCoding/pkg/reflexion"
	"github.com/nihalnihalani/SelfCoding/pkg/strategy"
)

// advancedReflectionEvery controls how often the deep multi-level reflection
// pass runs.
const advancedReflectionEvery = 5

const defaultTimeBudgetMinutes = 60

// Engine is the self-improvement controller. One cycle runs a task through
// the reflexion loop and feeds the outcome back into every learning
// component. Cycles are serialized by a single coarse mutex; the only
// concurrency is the detached background analysis pool.
type Engine struct {
	mu sync.Mutex

	cfg      *config.Config
	client   llm.CapabilityClient
	memory   *memory.TieredMemory
	tracker  *curriculum.Tracker
	selector *strategy.Selector
	loop     *reflexion.Loop
	analyzer *reflexion.Analyzer

	catalog      []curriculum.Task
	strategyOpts []strategy.Option
	cycles       int
	domains      map[string]bool

	background *pool.Pool
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithCurriculum replaces the built-in task catalog.
func WithCurriculum(tasks []curriculum.Task) Option {
	return func(e *Engine) {
		e.catalog = tasks
	}
}

// WithStrategyOptions forwards options to the strategy selector, mainly to
// seed deterministic randomness in tests.
func WithStrategyOptions(opts ...strategy.Option) Option {
	return func(e *Engine) {
		e.strategyOpts = opts
	}
}

// New builds an engine from configuration and a capability client. Catalog
// validation failures (duplicate ids, dangling or cyclic prerequisites)
// surface as construction errors.
func New(cfg *config.Config, client llm.CapabilityClient, opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:     cfg,
		client:  client,
		catalog: curriculum.DefaultCurriculum(),
		domains: make(map[string]bool),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	tracker, err := curriculum.NewTracker(e.catalog)
	if err != nil {
		return nil, err
	}
	e.tracker = tracker

	e.memory = memory.NewTieredMemory(memory.WithLongTermCap(cfg.Memory.LongTermCap))

	selectorOpts := append([]strategy.Option{
		strategy.WithExplorationRate(cfg.Strategy.ExplorationRate),
		strategy.WithTransferThreshold(cfg.Strategy.TransferThreshold),
		strategy.WithMinSamples(cfg.Strategy.MinSamples),
	}, e.strategyOpts...)
	e.selector = strategy.NewSelector(selectorOpts...)

	e.loop = reflexion.NewLoop(client, e.memory,
		reflexion.WithMaxIterations(cfg.Reflexion.MaxIterations),
		reflexion.WithTargetScore(cfg.Reflexion.TargetScore),
		reflexion.WithSuccessScore(cfg.Reflexion.SuccessScore),
	)
	e.analyzer = reflexion.NewAnalyzer(e.memory, client)

	e.background = pool.New().WithMaxGoroutines(1)
	return e, nil
}

// CycleResult is the consolidated outcome of one self-improvement cycle. It
// is returned even on partial failure; Err carries the failure while Success
// reports whether the attempt cleared the quality floor.
type CycleResult struct {
	CycleID        string                 `json:"cycle_id"`
	Task           string                 `json:"task"`
	Domain         string                 `json:"domain"`
	Complexity     float64                `json:"complexity"`
	Strategy       strategy.Strategy      `json:"strategy"`
	StrategyParams map[string]interface{} `json:"strategy_params"`
	Reflexion      *reflexion.Result      `json:"reflexion"`
	BestScore      float64                `json:"best_score"`
	Success        bool                   `json:"success"`
	Err            string                 `json:"error,omitempty"`
	Insights       []reflexion.Insight    `json:"insights,omitempty"`
	Duration       time.Duration          `json:"duration"`
}

// RunCycle executes one full self-improvement cycle for a task: categorize,
// pick a strategy, attach curriculum context, run the reflexion loop, then
// feed the outcome back into memory, curriculum and the meta-learner.
// Capability failures are reported inside the result; only invariant
// violations escape as errors.
func (e *Engine) RunCycle(ctx context.Context, task string, taskContext map[string]interface{}) (*CycleResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	logger := logging.GetLogger()
	started := e.now()

	cycleID := uuid.New().String()
	ctx = logging.WithCycleID(ctx, cycleID)

	domain := CategorizeDomain(task)
	complexity := EstimateComplexity(task)
	e.domains[domain] = true

	matched, hasTask := e.matchCurriculumTask(task)
	if hasTask {
		ctx = logging.WithTaskID(ctx, matched.ID)
	}
	timeBudget := float64(defaultTimeBudgetMinutes)
	if hasTask && matched.EstimatedTime > 0 {
		timeBudget = float64(matched.EstimatedTime)
	}

	strat, params := e.selector.Recommend(strategy.TaskContext{
		Domain:            domain,
		Complexity:        complexity,
		AvailableExamples: len(e.memory.SuccessfulPatterns()),
		TimeBudgetMinutes: timeBudget,
	})
	logger.Info(ctx, "cycle for %q: domain=%s complexity=%.2f strategy=%s", task, domain, complexity, strat)

	merged := make(map[string]interface{}, len(taskContext)+4)
	for k, v := range taskContext {
		merged[k] = v
	}
	merged["description"] = task
	merged["learning_strategy"] = params
	merged["current_difficulty"] = e.tracker.CurrentDifficulty().String()
	if hasTask {
		merged["curriculum_task"] = matched.ID
		merged["success_criteria"] = matched.SuccessCriteria
	}

	result := &CycleResult{
		CycleID:        cycleID,
		Task:           task,
		Domain:         domain,
		Complexity:     complexity,
		Strategy:       strat,
		StrategyParams: params,
	}

	loopResult, loopErr := e.loop.Run(ctx, task, merged)
	result.Reflexion = loopResult
	result.BestScore = loopResult.BestScore
	result.Success = loopResult.Success
	if loopErr != nil {
		result.Err = loopErr.Error()
	}

	duration := e.now().Sub(started)
	result.Duration = duration

	if hasTask {
		if err := e.tracker.RecordAttempt(matched.ID, result.Success, result.BestScore); err != nil {
			return result, err
		}
	}

	approach := ""
	if loopResult.BestSolution != nil {
		approach = loopResult.BestSolution.Approach
	}
	e.selector.RecordOutcome(strategy.Experience{
		Strategy:   strat,
		Domain:     domain,
		Complexity: complexity,
		Approach:   approach,
		Quality:    result.BestScore,
		TimeTaken:  duration.Minutes(),
		Success:    result.Success,
		Timestamp:  e.now(),
	})

	e.memory.ApplyForgettingCurve()

	e.cycles++
	if e.cycles%advancedReflectionEvery == 0 {
		result.Insights = e.analyzer.DeepReflection(ctx, merged, reflexion.PerformanceData{
			QualityScore: result.BestScore,
			TimeTaken:    duration.Seconds(),
			Success:      result.Success,
			Error:        result.Err,
			Approach:     approach,
		})
	}

	e.scheduleSimilarityAnalysis()
	return result, nil
}

// matchCurriculumTask resolves a task string against the catalog by id or
// case-insensitive description.
func (e *Engine) matchCurriculumTask(task string) (curriculum.Task, bool) {
	for _, entry := range e.catalog {
		if entry.ID == task || strings.EqualFold(entry.Description, task) {
			return entry, true
		}
	}
	return curriculum.Task{}, false
}

// Close waits for detached background work to drain.
func (e *Engine) Close() {
	e.background.Wait()
}
