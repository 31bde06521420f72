package oracle

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"qiankun/internal/logging"
)

// Consult walks the candidate list in priority order and returns the
// first successful response body. There is no partial consumption and
// no retry of an individual candidate; a candidate either answers with
// a success status or the next one is tried. When every candidate
// fails, the last failure and the tried list are carried in the error.
func Consult(ctx context.Context, a Attempter, models []string, prompt string) (string, error) {
	log := logging.For(logging.CategoryOracle)

	var lastErr error
	for _, model := range models {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%w: %w", ErrAllCandidatesFailed, err)
		}

		text, err := a.Attempt(ctx, model, prompt)
		if err == nil {
			log.Debug("candidate answered", zap.String("model", model), zap.Int("response_len", len(text)))
			return text, nil
		}
		lastErr = err
		log.Warn("candidate failed", zap.String("model", model), zap.Error(err))
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no candidate models configured")
	}
	return "", fmt.Errorf("%w (tried %v): %w", ErrAllCandidatesFailed, models, lastErr)
}
