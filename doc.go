// Package selfcoding implements a self-improving coding agent: an agent that
// attempts coding tasks, evaluates and critiques its own output, and feeds
// every outcome back into persistent learning state so that later attempts
// get better.
//
// The system is organized around four learning components, wired together by
// the engine package:
//
//   - Tiered memory (pkg/memory): working, episodic and long-term stores with
//     exponential decay, promotion of important episodes, and consolidation
//     into lessons, successful patterns and a performance trend.
//
//   - Reflexion loop (pkg/reflexion): the generate-evaluate-reflect-improve
//     cycle that drives each attempt, plus a multi-level analyzer producing
//     tactical, strategic, meta, causal and counterfactual insights.
//
//   - Curriculum (pkg/curriculum): a prerequisite-gated task catalog with
//     mastery tracking, adaptive difficulty and personalized learning plans.
//
//   - Strategy selection (pkg/strategy): an epsilon-greedy meta-learner that
//     scores imitation, exploration, refinement, transfer and composition
//     strategies against accumulated experience.
//
// All external model calls go through the llm.CapabilityClient interface;
// pkg/llm provides the Anthropic-backed implementation and an in-memory
// response cache.
//
// Simple example:
//
//	import (
//	    "context"
//	    "log"
//
//	    "github.com/nihalnihalani/SelfCoding/pkg/config"
//	    "github.com/nihalnihalani/SelfCoding/pkg/engine"
//	    "github.com/nihalnihalani/SelfCoding/pkg/llm"
//	)
//
//	func main() {
//	    cfg := config.Default()
//	    client, err := llm.NewAnthropicClient("your-api-key", cfg.LLM.ModelID)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    eng, err := engine.New(cfg, client)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer eng.Close()
//
//	    result, err := eng.RunCycle(context.Background(),
//	        "Create a simple button with hover effects", nil)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    log.Printf("strategy=%s score=%.0f success=%v",
//	        result.Strategy, result.BestScore, result.Success)
//	}
//
// The cmd/selfcoding command wraps the same flow behind a small CLI.
package selfcoding
