package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nihalnihalani/SelfCoding/pkg/errors"
)

func TestStripFences(t *testing.T) {
	t.Run("json fence", func(t *testing.T) {
		raw := "Here you go:\n```json\n{\"a\": 1}\n```\nanything after"
		assert.Equal(t, `{"a": 1}`, StripFences(raw))
	})

	t.Run("bare fence", func(t *testing.T) {
		raw := "```\n{\"a\": 1}\n```"
		assert.Equal(t, `{"a": 1}`, StripFences(raw))
	})

	t.Run("no fence", func(t *testing.T) {
		assert.Equal(t, `{"a": 1}`, StripFences("  {\"a\": 1}\n"))
	})
}

func TestDecodeResponse(t *testing.T) {
	t.Run("valid fenced solution", func(t *testing.T) {
		raw := "```json\n{\"files\": {\"index.html\": \"<html></html>\"}, \"approach\": \"static page\"}\n```"
		var solution Solution
		require.NoError(t, DecodeResponse(raw, &solution))
		assert.Equal(t, "static page", solution.Approach)
		assert.Contains(t, solution.Files, "index.html")
	})

	t.Run("invalid payload is a hard failure", func(t *testing.T) {
		var solution Solution
		err := DecodeResponse("I could not produce JSON, sorry.", &solution)
		require.Error(t, err)

		var e *errors.Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, errors.InvalidResponse, e.Code())
		assert.Contains(t, e.Fields(), "raw")
	})

	t.Run("raw payload is truncated", func(t *testing.T) {
		long := make([]byte, 1000)
		for i := range long {
			long[i] = 'x'
		}
		var out map[string]interface{}
		err := DecodeResponse(string(long), &out)
		require.Error(t, err)

		var e *errors.Error
		require.ErrorAs(t, err, &e)
		raw, ok := e.Fields()["raw"].(string)
		require.True(t, ok)
		assert.LessOrEqual(t, len(raw), rawPayloadLimit+3)
	})
}

func TestEvaluationValidate(t *testing.T) {
	t.Run("accepts known verdicts", func(t *testing.T) {
		for _, v := range []Verdict{VerdictPass, VerdictNeedsImprovement, VerdictFail} {
			eval := &Evaluation{OverallScore: 80, Verdict: v}
			assert.NoError(t, eval.Validate())
		}
	})

	t.Run("rejects unknown verdict", func(t *testing.T) {
		eval := &Evaluation{OverallScore: 80, Verdict: "excellent"}
		err := eval.Validate()
		require.Error(t, err)
		assert.Equal(t, errors.InvalidResponse, errors.Code(err))
	})

	t.Run("rejects out-of-range score", func(t *testing.T) {
		eval := &Evaluation{OverallScore: 120, Verdict: VerdictPass}
		assert.Error(t, eval.Validate())
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "abcde...", Truncate("abcdefgh", 5))
}
