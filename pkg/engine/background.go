package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nihalnihalani/SelfCoding/pkg/logging"
)

// scheduleSimilarityAnalysis queues a detached domain-similarity pass. The
// pass asks the external capability to score similarity between observed
// domains and feeds the matrix into the strategy selector. It must never
// gate or fail the caller: errors are logged and swallowed. Caller holds the
// engine lock.
func (e *Engine) scheduleSimilarityAnalysis() {
	if len(e.domains) < 2 {
		return
	}

	characteristics := e.domainCharacteristicsLocked()

	e.background.Go(func() {
		ctx := context.Background()
		logger := logging.GetLogger()

		payloadJSON, err := json.MarshalIndent(characteristics, "", "  ")
		if err != nil {
			logger.Warn(ctx, "similarity analysis skipped: %v", err)
			return
		}

		prompt := fmt.Sprintf(`Analyze similarity between these coding domains:

DOMAINS AND CHARACTERISTICS:
%s

For each pair of domains, assess similarity (0.0-1.0) based on:
1. Technical approaches used
2. Problem complexity patterns
3. Success patterns
4. Transferable skills

Return JSON:
{
  "similarities": {
    "domain1": {"domain2": 0.8, "domain3": 0.3}
  }
}`, payloadJSON)

		payload, err := e.client.Analyze(ctx, prompt)
		if err != nil {
			logger.Warn(ctx, "domain similarity analysis failed: %v", err)
			return
		}

		similarities := parseSimilarities(payload["similarities"])
		if len(similarities) == 0 {
			logger.Warn(ctx, "domain similarity analysis returned no usable matrix")
			return
		}
		e.selector.SetDomainSimilarities(similarities)
		logger.Debug(ctx, "domain similarity matrix updated for %d domains", len(similarities))
	})
}

// domainCharacteristicsLocked summarizes each observed domain for the
// similarity prompt. The selector's experience log carries the domain on
// every outcome, so approaches and success rates are genuinely per-domain.
func (e *Engine) domainCharacteristicsLocked() map[string]interface{} {
	characteristics := make(map[string]interface{}, len(e.domains))
	profiles := e.selector.DomainProfiles()

	for domain := range e.domains {
		profile := profiles[domain]
		characteristics[domain] = map[string]interface{}{
			"successful_approaches": profile.SuccessfulApproaches,
			"success_rate":          profile.SuccessRate,
		}
	}
	return characteristics
}

// parseSimilarities coerces the JSON-decoded similarity matrix.
func parseSimilarities(v interface{}) map[string]map[string]float64 {
	outer, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}

	matrix := make(map[string]map[string]float64, len(outer))
	for domain, rowValue := range outer {
		row, ok := rowValue.(map[string]interface{})
		if !ok {
			continue
		}
		scores := make(map[string]float64, len(row))
		for other, scoreValue := range row {
			if score, ok := scoreValue.(float64); ok {
				scores[other] = score
			}
		}
		if len(scores) > 0 {
			matrix[domain] = scores
		}
	}
	return matrix
}
