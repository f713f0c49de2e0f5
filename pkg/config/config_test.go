package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nihalnihalani/SelfCoding/pkg/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))

	assert.Equal(t, 3, cfg.Reflexion.MaxIterations)
	assert.Equal(t, 95.0, cfg.Reflexion.TargetScore)
	assert.Equal(t, 80.0, cfg.Reflexion.SuccessScore)
	assert.Equal(t, 0.3, cfg.Strategy.ExplorationRate)
	assert.Equal(t, 500, cfg.Memory.LongTermCap)
	assert.Equal(t, 120*time.Second, cfg.LLM.Timeout)
}

func TestParse(t *testing.T) {
	t.Run("partial file inherits defaults", func(t *testing.T) {
		cfg, err := Parse([]byte(`
llm:
  model_id: claude-haiku-4
reflexion:
  max_iterations: 5
`))
		require.NoError(t, err)
		assert.Equal(t, "claude-haiku-4", cfg.LLM.ModelID)
		assert.Equal(t, 5, cfg.Reflexion.MaxIterations)
		assert.Equal(t, 95.0, cfg.Reflexion.TargetScore)
		assert.Equal(t, "info", cfg.Logging.Level)
	})

	t.Run("malformed YAML rejected", func(t *testing.T) {
		_, err := Parse([]byte("llm: ["))
		require.Error(t, err)
		assert.Equal(t, errors.InvalidInput, errors.Code(err))
	})

	t.Run("out-of-range field rejected", func(t *testing.T) {
		_, err := Parse([]byte(`
llm:
  model_id: claude-haiku-4
reflexion:
  max_iterations: 99
`))
		require.Error(t, err)
		assert.Equal(t, errors.ValidationFailed, errors.Code(err))
	})

	t.Run("invalid log level rejected", func(t *testing.T) {
		_, err := Parse([]byte(`
llm:
  model_id: claude-haiku-4
logging:
  level: verbose
`))
		require.Error(t, err)
		assert.Equal(t, errors.ValidationFailed, errors.Code(err))
	})

	t.Run("success score above target rejected", func(t *testing.T) {
		_, err := Parse([]byte(`
llm:
  model_id: claude-haiku-4
reflexion:
  target_score: 85
  success_score: 90
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "success_score")
	})
}

func TestLoad(t *testing.T) {
	t.Run("round trip through a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
llm:
  model_id: claude-sonnet-4-20250514
  max_tokens: 4096
strategy:
  exploration_rate: 0.3
`), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 4096, cfg.LLM.MaxTokens)
		assert.Equal(t, 0.3, cfg.Strategy.ExplorationRate)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		assert.Equal(t, errors.InvalidInput, errors.Code(err))
	})
}
