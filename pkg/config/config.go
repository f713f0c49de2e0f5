package config

import "time"

// Config is the complete configuration for the self-improvement engine.
type Config struct {
	// LLM holds the Anthropic client settings.
	LLM LLMConfig `yaml:"llm" validate:"required"`

	// Memory holds tiered memory capacities.
	Memory MemoryConfig `yaml:"memory,omitempty" validate:"omitempty"`

	// Reflexion holds iteration limits and score thresholds.
	Reflexion ReflexionConfig `yaml:"reflexion,omitempty" validate:"omitempty"`

	// Strategy holds meta-learning seeds for the strategy selector.
	Strategy StrategyConfig `yaml:"strategy,omitempty" validate:"omitempty"`

	// Logging configuration.
	Logging LoggingConfig `yaml:"logging,omitempty" validate:"omitempty"`
}

// LLMConfig holds settings for the external capability client.
type LLMConfig struct {
	// Model ID, e.g. claude-sonnet-4-20250514.
	ModelID string `yaml:"model_id" validate:"required"`

	// API key; falls back to ANTHROPIC_API_KEY when empty.
	APIKey string `yaml:"api_key,omitempty"`

	// MaxTokens per response.
	MaxTokens int `yaml:"max_tokens,omitempty" validate:"omitempty,min=1,max=200000"`

	// Timeout per capability call.
	Timeout time.Duration `yaml:"timeout,omitempty" validate:"omitempty,min=1s"`

	// CacheEnabled turns on the response cache for propose/evaluate calls.
	CacheEnabled bool `yaml:"cache_enabled,omitempty"`

	// CacheMaxCost is the response cache budget in bytes.
	CacheMaxCost int64 `yaml:"cache_max_cost,omitempty" validate:"omitempty,min=0"`
}

// MemoryConfig holds tiered memory capacities.
type MemoryConfig struct {
	// LongTermCap bounds each long-term list; 0 means unbounded.
	LongTermCap int `yaml:"long_term_cap,omitempty" validate:"omitempty,min=0"`
}

// ReflexionConfig bounds the generate-evaluate-reflect-improve loop.
type ReflexionConfig struct {
	// MaxIterations per task.
	MaxIterations int `yaml:"max_iterations,omitempty" validate:"omitempty,min=1,max=10"`

	// TargetScore triggers early exit.
	TargetScore float64 `yaml:"target_score,omitempty" validate:"omitempty,min=0,max=100"`

	// SuccessScore is the floor for counting a cycle as a success.
	SuccessScore float64 `yaml:"success_score,omitempty" validate:"omitempty,min=0,max=100"`
}

// StrategyConfig seeds the meta-learner's adaptive parameters.
type StrategyConfig struct {
	// ExplorationRate is the initial epsilon for strategy selection.
	ExplorationRate float64 `yaml:"exploration_rate,omitempty" validate:"omitempty,min=0,max=1"`

	// TransferThreshold is the initial domain-similarity floor for transfer.
	TransferThreshold float64 `yaml:"transfer_threshold,omitempty" validate:"omitempty,min=0,max=1"`

	// MinSamples before effectiveness confidence saturates.
	MinSamples int `yaml:"min_samples,omitempty" validate:"omitempty,min=1"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error, fatal.
	Level string `yaml:"level,omitempty" validate:"omitempty,oneof=debug info warn error fatal"`

	// File receives JSON log lines when set.
	File string `yaml:"file,omitempty"`
}

// Default returns the configuration used when no file is provided.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			ModelID:      "claude-sonnet-4-20250514",
			MaxTokens:    8192,
			Timeout:      120 * time.Second,
			CacheEnabled: true,
			CacheMaxCost: 64 << 20,
		},
		Memory: MemoryConfig{
			LongTermCap: 500,
		},
		Reflexion: ReflexionConfig{
			MaxIterations: 3,
			TargetScore:   95,
			SuccessScore:  80,
		},
		Strategy: StrategyConfig{
			ExplorationRate:   0.3,
			TransferThreshold: 0.7,
			MinSamples:        5,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// applyDefaults fills zero-valued fields from Default so partial YAML files
// only need to name what they change.
func (c *Config) applyDefaults() {
	d := Default()
	if c.LLM.ModelID == "" {
		c.LLM.ModelID = d.LLM.ModelID
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = d.LLM.MaxTokens
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = d.LLM.Timeout
	}
	if c.LLM.CacheMaxCost == 0 {
		c.LLM.CacheMaxCost = d.LLM.CacheMaxCost
	}
	if c.Memory.LongTermCap == 0 {
		c.Memory.LongTermCap = d.Memory.LongTermCap
	}
	if c.Reflexion.MaxIterations == 0 {
		c.Reflexion.MaxIterations = d.Reflexion.MaxIterations
	}
	if c.Reflexion.TargetScore == 0 {
		c.Reflexion.TargetScore = d.Reflexion.TargetScore
	}
	if c.Reflexion.SuccessScore == 0 {
		c.Reflexion.SuccessScore = d.Reflexion.SuccessScore
	}
	if c.Strategy.ExplorationRate == 0 {
		c.Strategy.ExplorationRate = d.Strategy.ExplorationRate
	}
	if c.Strategy.TransferThreshold == 0 {
		c.Strategy.TransferThreshold = d.Strategy.TransferThreshold
	}
	if c.Strategy.MinSamples == 0 {
		c.Strategy.MinSamples = d.Strategy.MinSamples
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
}
