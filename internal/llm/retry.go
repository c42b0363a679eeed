package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/abhisek/lessonkit/internal/logger"
)

type retrying struct {
	inner   Provider
	cfg     RetryConfig
	timeout time.Duration
	log     *logger.Logger
}

// WithRetry retries transient failures with jittered exponential backoff.
// timeout, when positive, bounds the whole call including waits.
func WithRetry(p Provider, cfg RetryConfig, timeout time.Duration, log *logger.Logger) Provider {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &retrying{inner: p, cfg: cfg, timeout: timeout, log: log}
}

func (r *retrying) Generate(ctx context.Context, req Request) (*Response, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var (
		err            error
		retriedInvalid bool
	)
	for attempt := 0; attempt < r.cfg.MaxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err == nil {
				err = ctxErr
			}
			return nil, err
		}

		var resp *Response
		resp, err = r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !retryable(err, &retriedInvalid) || attempt == r.cfg.MaxAttempts-1 {
			return nil, err
		}

		wait := r.delay(attempt, err)
		r.log.Debug("retrying LLM call", "attempt", attempt+1, "wait", wait.String(), "error", err)
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	return nil, err
}

func (r *retrying) Name() string    { return r.inner.Name() }
func (r *retrying) ModelID() string { return r.inner.ModelID() }

// retryable reports whether err is worth another attempt. Invalid output
// gets a single retry.
func retryable(err error, retriedInvalid *bool) bool {
	var (
		maxTok   *ErrMaxTokensExceeded
		rejected *ErrRejected
		invalid  *ErrInvalidResponse
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.As(err, &maxTok), errors.As(err, &rejected):
		return false
	case errors.As(err, &invalid):
		if *retriedInvalid {
			return false
		}
		*retriedInvalid = true
		return true
	default:
		return true
	}
}

// delay is the wait before the next attempt: the provider's Retry-After
// when given, else exponential backoff with ±20% jitter.
func (r *retrying) delay(attempt int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}
	mult := r.cfg.Multiplier
	if mult < 1 {
		mult = 1
	}
	wait := float64(r.cfg.InitialWait) * math.Pow(mult, float64(attempt))
	if r.cfg.MaxWait > 0 {
		wait = math.Min(wait, float64(r.cfg.MaxWait))
	}
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	return time.Duration(math.Max(wait, 0))
}
