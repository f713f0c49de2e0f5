package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/nihalnihalani/SelfCoding/pkg/errors"
	"github.com/nihalnihalani/SelfCoding/pkg/logging"
)

const (
	defaultMaxTokens = 8192
	defaultTimeout   = 120 * time.Second

	// How much of each solution file is shown to the evaluator.
	fileExcerptLimit = 500
)

// AnthropicClient implements CapabilityClient on top of Anthropic's models.
type AnthropicClient struct {
	client    *anthropic.Client
	model     anthropic.Model
	maxTokens int
	timeout   time.Duration
}

var _ CapabilityClient = (*AnthropicClient)(nil)

// AnthropicOption configures an AnthropicClient.
type AnthropicOption func(*AnthropicClient)

// WithTimeout sets the per-call timeout. Calls are never retried internally.
func WithTimeout(d time.Duration) AnthropicOption {
	return func(a *AnthropicClient) {
		a.timeout = d
	}
}

// WithMaxTokens caps the completion size per call.
func WithMaxTokens(n int) AnthropicOption {
	return func(a *AnthropicClient) {
		a.maxTokens = n
	}
}

// NewAnthropicClient creates a capability client backed by the Anthropic API.
func NewAnthropicClient(apiKey string, model string, opts ...AnthropicOption) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, errors.New(errors.InvalidInput, "API key is required")
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	a := &AnthropicClient{
		client:    &client,
		model:     anthropic.Model(model),
		maxTokens: defaultMaxTokens,
		timeout:   defaultTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// generate performs a single completion call with the client's timeout.
func (a *AnthropicClient) generate(ctx context.Context, prompt string) (string, error) {
	logger := logging.GetLogger()

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	message, err := a.client.Messages.New(callCtx, anthropic.MessageNewParams{
		Model: a.model,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(prompt),
			),
		},
		MaxTokens: int64(a.maxTokens),
	})
	if err != nil {
		code := errors.CapabilityUnavailable
		if callCtx.Err() == context.DeadlineExceeded {
			code = errors.Timeout
		}
		return "", errors.WithFields(
			errors.Wrap(err, code, "capability call failed"),
			errors.Fields{"model": string(a.model)})
	}

	if message == nil || len(message.Content) == 0 {
		return "", errors.New(errors.CapabilityUnavailable, "received empty content from Anthropic API")
	}

	var responseText string
	if block := message.Content[0]; block.Type == "text" {
		responseText = block.Text
	}

	logger.Debug(ctx, "capability response: %d prompt tokens, %d completion tokens",
		message.Usage.InputTokens, message.Usage.OutputTokens)

	return responseText, nil
}

// Propose implements CapabilityClient.
func (a *AnthropicClient) Propose(ctx context.Context, task string, taskContext map[string]interface{}, memories []MemoryExcerpt) (*Solution, error) {
	var b strings.Builder

	b.WriteString("You are an expert web developer. Generate complete, production-ready code.\n\n")
	fmt.Fprintf(&b, "TASK: %s\n", task)

	if len(taskContext) > 0 {
		ctxJSON, _ := json.MarshalIndent(taskContext, "", "  ")
		fmt.Fprintf(&b, "\nCONTEXT:\n%s\n", ctxJSON)
	}

	if len(memories) > 0 {
		b.WriteString("\nRELEVANT PAST EXPERIENCE:\n")
		for i, mem := range memories {
			memJSON, _ := json.Marshal(mem.Content)
			fmt.Fprintf(&b, "\nExperience %d (%s, importance %.2f):\n%s\n",
				i+1, mem.Type, mem.Importance, Truncate(string(memJSON), 300))
		}
	}

	b.WriteString(`
Return ONLY valid JSON in this format:
{
  "files": {"index.html": "<complete HTML>", "styles.css": "<complete CSS>", "script.js": "<complete JavaScript>"},
  "approach": "<one-paragraph description of the approach taken>",
  "metadata": {"tech_stack": ["..."], "features": ["..."]}
}

IMPORTANT: Return ONLY the JSON, no additional text.`)

	raw, err := a.generate(ctx, b.String())
	if err != nil {
		return nil, err
	}

	var solution Solution
	if err := DecodeResponse(raw, &solution); err != nil {
		return nil, errors.WithFields(err, errors.Fields{"step": "propose"})
	}
	return &solution, nil
}

// Evaluate implements CapabilityClient.
func (a *AnthropicClient) Evaluate(ctx context.Context, task string, solution *Solution) (*Evaluation, error) {
	var b strings.Builder

	b.WriteString("You are an expert code reviewer. Analyze code for quality, security, and best practices.\n\n")
	fmt.Fprintf(&b, "TASK: %s\n\nAPPROACH: %s\n\nCODE:\n", task, solution.Approach)
	for name, content := range solution.Files {
		fmt.Fprintf(&b, "File: %s\n%s\n\n", name, Truncate(content, fileExcerptLimit))
	}

	b.WriteString(`Analyze:
1. Correctness relative to the task
2. Completeness of the implementation
3. Code quality (structure, readability)
4. Best practices adherence

Return JSON:
{
  "overall_score": 0-100,
  "correctness": 0-100,
  "completeness": 0-100,
  "quality": 0-100,
  "best_practices": 0-100,
  "issues": ["..."],
  "strengths": ["..."],
  "weaknesses": ["..."],
  "verdict": "pass" | "needs_improvement" | "fail",
  "feedback": "Overall assessment"
}`)

	raw, err := a.generate(ctx, b.String())
	if err != nil {
		return nil, err
	}

	var evaluation Evaluation
	if err := DecodeResponse(raw, &evaluation); err != nil {
		return nil, errors.WithFields(err, errors.Fields{"step": "evaluate"})
	}
	if err := evaluation.Validate(); err != nil {
		return nil, errors.WithFields(err, errors.Fields{"step": "evaluate", "raw": Truncate(raw, rawPayloadLimit)})
	}
	return &evaluation, nil
}

// Reflect implements CapabilityClient.
func (a *AnthropicClient) Reflect(ctx context.Context, task string, solution *Solution, evaluation *Evaluation) (*Reflection, error) {
	evalJSON, _ := json.MarshalIndent(evaluation, "", "  ")

	prompt := fmt.Sprintf(`You are a coding agent reflecting on your own performance.

TASK: %s

APPROACH TAKEN: %s

EVALUATION RECEIVED:
%s

Reflect on this outcome. What worked, what did not, and what should change next iteration?

Return JSON:
{
  "key_learnings": ["..."],
  "action_items": ["..."],
  "patterns_to_remember": ["..."],
  "patterns_to_avoid": ["..."],
  "improvement_strategy": "concrete strategy for the next attempt",
  "meta_insight": "one higher-level insight about the learning process"
}`, task, solution.Approach, evalJSON)

	raw, err := a.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var reflection Reflection
	if err := DecodeResponse(raw, &reflection); err != nil {
		return nil, errors.WithFields(err, errors.Fields{"step": "reflect"})
	}
	return &reflection, nil
}

// Improve implements CapabilityClient.
func (a *AnthropicClient) Improve(ctx context.Context, task string, solution *Solution, evaluation *Evaluation, reflection *Reflection) (*Solution, error) {
	var b strings.Builder

	b.WriteString("You are an expert web developer improving a previous solution.\n\n")
	fmt.Fprintf(&b, "TASK: %s\n\nPREVIOUS APPROACH: %s\n\nPREVIOUS FILES:\n", task, solution.Approach)
	for name, content := range solution.Files {
		fmt.Fprintf(&b, "File: %s\n%s\n\n", name, content)
	}

	evalJSON, _ := json.MarshalIndent(evaluation, "", "  ")
	fmt.Fprintf(&b, "EVALUATION:\n%s\n\n", evalJSON)
	fmt.Fprintf(&b, "IMPROVEMENT STRATEGY: %s\n", reflection.ImprovementStrategy)
	if len(reflection.ActionItems) > 0 {
		fmt.Fprintf(&b, "ACTION ITEMS: %s\n", strings.Join(reflection.ActionItems, "; "))
	}

	b.WriteString(`
Produce an improved solution addressing the issues above.

Return ONLY valid JSON in this format:
{
  "files": {"...": "..."},
  "approach": "<description of the improved approach>",
  "metadata": {}
}`)

	raw, err := a.generate(ctx, b.String())
	if err != nil {
		return nil, err
	}

	var improved Solution
	if err := DecodeResponse(raw, &improved); err != nil {
		return nil, errors.WithFields(err, errors.Fields{"step": "improve"})
	}
	return &improved, nil
}

// Analyze implements CapabilityClient.
func (a *AnthropicClient) Analyze(ctx context.Context, prompt string) (map[string]interface{}, error) {
	raw, err := a.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return ParseJSONMap(raw)
}
