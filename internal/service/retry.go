package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-ledger-service/internal/core/domain"
	"wallet-ledger-service/pkg/apperror"
)

const (
	defaultMaxAttempts    = 3
	defaultRetryBaseDelay = 100 * time.Millisecond
)

// RetryPolicy bounds how the engine re-runs units of work that failed on an
// optimistic version conflict.
type RetryPolicy struct {
	// MaxAttempts is the total number of executions, first try included.
	MaxAttempts int
	// BaseDelay is multiplied by the attempt number between retries.
	BaseDelay time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = defaultRetryBaseDelay
	}
	return p
}

// withConflictRetry re-executes fn from scratch while it fails with the
// version-conflict sentinel, waiting BaseDelay * attempt between attempts.
// Business errors propagate on first occurrence; exhausting the attempt
// budget surfaces as ConcurrencyExhausted.
func (s *WalletServiceImpl) withConflictRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= s.retry.MaxAttempts; attempt++ {
		err = fn(ctx)
		if err == nil || !errors.Is(err, domain.ErrVersionConflict) {
			return err
		}
		if attempt == s.retry.MaxAttempts {
			break
		}

		s.log.Warn().
			Str("operation", op).
			Int("attempt", attempt).
			Int("max_attempts", s.retry.MaxAttempts).
			Msg("optimistic lock conflict, retrying")

		select {
		case <-ctx.Done():
			return apperror.InternalError(fmt.Errorf("%s aborted during retry wait: %w", op, ctx.Err()))
		case <-time.After(s.retry.BaseDelay * time.Duration(attempt)):
		}
	}

	s.log.Error().
		Str("operation", op).
		Int("max_attempts", s.retry.MaxAttempts).
		Msg("optimistic lock retries exhausted")

	return apperror.ErrConcurrencyExhausted(err)
}
