// Package testutil provides shared test doubles for the capability boundary.
package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/nihalnihalani/SelfCoding/pkg/llm"
)

// MockCapabilityClient is a testify mock of llm.CapabilityClient.
type MockCapabilityClient struct {
	mock.Mock
}

var _ llm.CapabilityClient = (*MockCapabilityClient)(nil)

func (m *MockCapabilityClient) Propose(ctx context.Context, task string, taskContext map[string]interface{}, memories []llm.MemoryExcerpt) (*llm.Solution, error) {
	args := m.Called(ctx, task, taskContext, memories)
	if sol := args.Get(0); sol != nil {
		return sol.(*llm.Solution), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCapabilityClient) Evaluate(ctx context.Context, task string, solution *llm.Solution) (*llm.Evaluation, error) {
	args := m.Called(ctx, task, solution)
	if eval := args.Get(0); eval != nil {
		return eval.(*llm.Evaluation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCapabilityClient) Reflect(ctx context.Context, task string, solution *llm.Solution, evaluation *llm.Evaluation) (*llm.Reflection, error) {
	args := m.Called(ctx, task, solution, evaluation)
	if refl := args.Get(0); refl != nil {
		return refl.(*llm.Reflection), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCapabilityClient) Improve(ctx context.Context, task string, solution *llm.Solution, evaluation *llm.Evaluation, reflection *llm.Reflection) (*llm.Solution, error) {
	args := m.Called(ctx, task, solution, evaluation, reflection)
	if sol := args.Get(0); sol != nil {
		return sol.(*llm.Solution), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCapabilityClient) Analyze(ctx context.Context, prompt string) (map[string]interface{}, error) {
	args := m.Called(ctx, prompt)
	if payload := args.Get(0); payload != nil {
		return payload.(map[string]interface{}), args.Error(1)
	}
	return nil, args.Error(1)
}

// ScriptedClient is a deterministic CapabilityClient returning canned values
// in order. Zero-value fields fall back to sensible defaults so tests only
// script what they assert on.
type ScriptedClient struct {
	Solutions   []*llm.Solution
	Evaluations []*llm.Evaluation
	Reflections []*llm.Reflection
	AnalyzeFn   func(prompt string) (map[string]interface{}, error)

	ProposeCalls  int
	EvaluateCalls int
	ReflectCalls  int
	ImproveCalls  int
}

var _ llm.CapabilityClient = (*ScriptedClient)(nil)

func (s *ScriptedClient) nextSolution() *llm.Solution {
	i := s.ProposeCalls + s.ImproveCalls - 1
	if i < len(s.Solutions) {
		return s.Solutions[i]
	}
	return &llm.Solution{Approach: "scripted", Files: map[string]string{"index.html": "<html></html>"}}
}

func (s *ScriptedClient) Propose(ctx context.Context, task string, taskContext map[string]interface{}, memories []llm.MemoryExcerpt) (*llm.Solution, error) {
	s.ProposeCalls++
	return s.nextSolution(), nil
}

func (s *ScriptedClient) Evaluate(ctx context.Context, task string, solution *llm.Solution) (*llm.Evaluation, error) {
	s.EvaluateCalls++
	if i := s.EvaluateCalls - 1; i < len(s.Evaluations) {
		return s.Evaluations[i], nil
	}
	return &llm.Evaluation{OverallScore: 90, Verdict: llm.VerdictPass, Feedback: "scripted"}, nil
}

func (s *ScriptedClient) Reflect(ctx context.Context, task string, solution *llm.Solution, evaluation *llm.Evaluation) (*llm.Reflection, error) {
	s.ReflectCalls++
	if i := s.ReflectCalls - 1; i < len(s.Reflections) {
		return s.Reflections[i], nil
	}
	return &llm.Reflection{
		KeyLearnings:        []string{"scripted learning"},
		ImprovementStrategy: "keep going",
	}, nil
}

func (s *ScriptedClient) Improve(ctx context.Context, task string, solution *llm.Solution, evaluation *llm.Evaluation, reflection *llm.Reflection) (*llm.Solution, error) {
	s.ImproveCalls++
	return s.nextSolution(), nil
}

func (s *ScriptedClient) Analyze(ctx context.Context, prompt string) (map[string]interface{}, error) {
	if s.AnalyzeFn != nil {
		return s.AnalyzeFn(prompt)
	}
	return map[string]interface{}{}, nil
}
