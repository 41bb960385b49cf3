// Package poller waits for the verifier to report a presentation result.
package poller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"talentmatch/internal/platform/tracer"
	vmetrics "talentmatch/internal/verification/metrics"
	"talentmatch/internal/verification/models"
	"talentmatch/internal/verification/verifier"
)

const (
	DefaultInterval    = time.Second
	DefaultMaxAttempts = 300
	DefaultTimeout     = 5 * time.Minute
)

// errNotYetVerified keeps the loop going; it never leaves this package.
var errNotYetVerified = errors.New("verification not completed yet")

// ResultReader reads verification results from the verifier.
type ResultReader interface {
	Result(ctx context.Context, txID models.TransactionID) (models.Result, error)
	Reverify(ctx context.Context, txID models.TransactionID) (models.Result, error)
}

// Config bounds a poll loop. MaxAttempts <= 0 disables the attempt cap; the
// wall-clock Timeout always applies.
type Config struct {
	Interval    time.Duration
	MaxAttempts int
	Timeout     time.Duration
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Poller polls one transaction at a time per call. It holds no per-attempt
// state, so one Poller serves every session.
type Poller struct {
	reader  ResultReader
	cfg     Config
	logger  *slog.Logger
	metrics *vmetrics.Metrics
	tracer  tracer.Tracer
}

// Option configures the Poller.
type Option func(*Poller)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Poller) {
		p.logger = logger
	}
}

func WithMetrics(m *vmetrics.Metrics) Option {
	return func(p *Poller) {
		p.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(p *Poller) {
		p.tracer = t
	}
}

// New creates a Poller.
func New(reader ResultReader, cfg Config, opts ...Option) *Poller {
	p := &Poller{
		reader: reader,
		cfg:    cfg.withDefaults(),
		logger: slog.New(slog.DiscardHandler),
		tracer: tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Config returns the effective poll bounds.
func (p *Poller) Config() Config {
	return p.cfg
}

// PollUntilVerified queries the result endpoint every Interval until the
// verifier reports success for txID.
//
// Errors:
//   - ctx.Err() when the caller cancels;
//   - models.ErrPollFatal when the verifier rejects the poll;
//   - models.ErrVerificationTimeout when attempts or Timeout run out. The last
//     transient error, if any, is wrapped.
func (p *Poller) PollUntilVerified(ctx context.Context, txID models.TransactionID) (_ models.Result, err error) {
	ctx, span := p.tracer.Start(ctx, tracer.SpanPollLoop, tracer.String(tracer.AttrTransactionID, txID.String()))
	defer func() { span.End(err) }()

	pollCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	var (
		result   models.Result
		attempts int
		lastErr  error
	)
	operation := func() error {
		attempts++
		p.metrics.IncrementPollAttempts()

		res, err := p.reader.Result(pollCtx, txID)
		if err != nil {
			if pollCtx.Err() != nil {
				return backoff.Permanent(pollCtx.Err())
			}
			if !verifier.IsRetryable(err) {
				return backoff.Permanent(models.NewFailure(models.FailurePollFatal, txID, err))
			}
			category := string(verifier.CategoryOf(err))
			lastErr = models.NewFailure(models.FailurePollTransient, txID, err)
			p.metrics.IncrementPollTransient(category)
			span.AddEvent(tracer.EventPollTransient, tracer.String(tracer.AttrErrorCategory, category))
			p.logger.WarnContext(ctx, "verification poll failed, retrying",
				"transaction_id", txID,
				"attempt", attempts,
				"category", category,
				"error", err,
			)
			return lastErr
		}

		if res.TransactionID != txID {
			lastErr = models.NewFailure(models.FailureStaleResponse, res.TransactionID, nil)
			p.metrics.IncrementStale()
			span.AddEvent(tracer.EventPollStale, tracer.String(tracer.AttrTransactionID, res.TransactionID.String()))
			p.logger.WarnContext(ctx, "discarding result for another transaction",
				"transaction_id", txID,
				"response_transaction_id", res.TransactionID,
			)
			return lastErr
		}

		if !res.Verified {
			return errNotYetVerified
		}
		result = res
		return nil
	}

	var b backoff.BackOff = backoff.NewConstantBackOff(p.cfg.Interval)
	if p.cfg.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(p.cfg.MaxAttempts-1))
	}
	err = backoff.Retry(operation, backoff.WithContext(b, pollCtx))
	span.SetAttributes(tracer.Int(tracer.AttrAttempts, attempts))

	switch {
	case err == nil:
		p.logger.InfoContext(ctx, "verification result received",
			"transaction_id", txID,
			"attempts", attempts,
		)
		return result, nil
	case ctx.Err() != nil:
		return models.Result{}, ctx.Err()
	case errors.Is(err, models.ErrPollFatal):
		p.logger.ErrorContext(ctx, "verification poll rejected",
			"transaction_id", txID,
			"attempts", attempts,
			"error", err,
		)
		return models.Result{}, err
	default:
		cause := lastErr
		if cause == nil {
			cause = pollCtx.Err()
		}
		p.logger.WarnContext(ctx, "verification poll budget exhausted",
			"transaction_id", txID,
			"attempts", attempts,
			"timeout", p.cfg.Timeout,
		)
		return models.Result{}, models.NewFailure(models.FailureTimeout, txID, cause)
	}
}

// Query performs one re-verification read of txID. A result that is not
// verified is returned without error; the caller decides what it means.
func (p *Poller) Query(ctx context.Context, txID models.TransactionID) (models.Result, error) {
	p.metrics.IncrementPollAttempts()

	res, err := p.reader.Reverify(ctx, txID)
	if err != nil {
		if ctx.Err() != nil {
			return models.Result{}, ctx.Err()
		}
		kind := models.FailurePollFatal
		if verifier.IsRetryable(err) {
			kind = models.FailurePollTransient
		}
		p.logger.WarnContext(ctx, "re-verification query failed",
			"transaction_id", txID,
			"kind", kind,
			"error", err,
		)
		return models.Result{}, models.NewFailure(kind, txID, err)
	}
	if res.TransactionID != txID {
		p.metrics.IncrementStale()
		return models.Result{}, models.NewFailure(models.FailureStaleResponse, res.TransactionID, nil)
	}
	return res, nil
}
