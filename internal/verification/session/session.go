// Package session drives one verification attempt at a time per UI slot:
// it asks the verifier for a proof request, runs the poll loop and hands the
// verified result to a consumer exactly once.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	vmetrics "talentmatch/internal/verification/metrics"
	"talentmatch/internal/verification/models"
	"talentmatch/pkg/domain"
	dErrors "talentmatch/pkg/domain-errors"
)

const subscriberBuffer = 32

// ErrClosed is returned by Begin once the session has been closed.
var ErrClosed = dErrors.New(dErrors.CodeConflict, "verification session closed")

// Initiator creates proof requests.
type Initiator interface {
	CreateRequest(ctx context.Context, ref string, txID models.TransactionID) (models.Request, error)
}

// Poller waits for a transaction to be verified.
type Poller interface {
	PollUntilVerified(ctx context.Context, txID models.TransactionID) (models.Result, error)
}

// ResultConsumer receives the result of a verified attempt. A returned error
// is recorded on the session as a result delivery failure. Consumers must not
// call Begin or Reset on the session delivering to them.
type ResultConsumer func(ctx context.Context, result models.Result) error

// FailureConsumer receives initiation failures, timeouts, fatal poll errors
// and result delivery failures.
type FailureConsumer func(ctx context.Context, err error)

// Transition is emitted to subscribers on every state change.
type Transition struct {
	Slot          domain.SlotID
	From          models.State
	To            models.State
	TransactionID models.TransactionID
	Generation    uint64
	At            time.Time
}

// Snapshot is a point-in-time copy of the session.
type Snapshot struct {
	Slot          domain.SlotID
	State         models.State
	TransactionID models.TransactionID
	Generation    uint64
	Request       *models.Request
	Result        *models.Result
	Err           error
	// DeliveryErr is set when the attempt verified but the result consumer
	// failed. State stays verified.
	DeliveryErr error
	UpdatedAt   time.Time
}

// Session is the verification state machine of one slot. All methods are
// safe for concurrent use.
type Session struct {
	slot      domain.SlotID
	ref       string
	initiator Initiator
	poller    Poller
	logger    *slog.Logger
	metrics   *vmetrics.Metrics
	now       func() time.Time
	onResult  ResultConsumer
	onFailure FailureConsumer

	base      context.Context
	closeBase context.CancelFunc

	mu          sync.Mutex
	state       models.State
	generation  uint64
	txID        models.TransactionID
	request     *models.Request
	result      *models.Result
	err         error
	deliveryErr error
	startedAt   time.Time
	updatedAt   time.Time
	cancelPoll  context.CancelFunc
	subscribers map[int]chan Transition
	nextSubID   int
	closed      bool
	polls       sync.WaitGroup

	// deliveries is held by Reset and Begin so a reset never interleaves
	// with a consumer call already past its generation check.
	deliveries sync.Mutex
}

// Option configures a Session.
type Option func(*Session)

// WithRef sets the verifier policy reference. Defaults to the demo policy.
func WithRef(ref string) Option {
	return func(s *Session) {
		if ref != "" {
			s.ref = ref
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

func WithMetrics(m *vmetrics.Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// WithResultConsumer registers the default consumer of verified results.
func WithResultConsumer(fn ResultConsumer) Option {
	return func(s *Session) {
		s.onResult = fn
	}
}

// WithFailureConsumer registers the consumer of terminal failures.
func WithFailureConsumer(fn FailureConsumer) Option {
	return func(s *Session) {
		s.onFailure = fn
	}
}

// AttemptOption customizes a single Begin call.
type AttemptOption func(*attempt)

type attempt struct {
	onResult ResultConsumer
}

// OnResult overrides the result consumer for one attempt only.
func OnResult(fn ResultConsumer) AttemptOption {
	return func(a *attempt) {
		a.onResult = fn
	}
}

// New creates an idle session.
func New(slot domain.SlotID, initiator Initiator, poller Poller, opts ...Option) *Session {
	s := &Session{
		slot:        slot,
		ref:         models.DemoVerifierRef,
		initiator:   initiator,
		poller:      poller,
		logger:      slog.New(slog.DiscardHandler),
		now:         time.Now,
		state:       models.StateIdle,
		subscribers: make(map[int]chan Transition),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("slot", slot.String())
	s.base, s.closeBase = context.WithCancel(context.Background())
	s.updatedAt = s.now()
	return s
}

// Slot returns the slot the session belongs to.
func (s *Session) Slot() domain.SlotID {
	return s.slot
}

// Begin starts a new attempt, cancelling any attempt in flight. On success
// the session is pending and the poll loop runs in the background, detached
// from ctx. On initiation failure the session stays idle and the returned
// error matches models.ErrRequestInitiationFailed.
func (s *Session) Begin(ctx context.Context, opts ...AttemptOption) (models.Request, error) {
	a := attempt{onResult: s.onResult}
	for _, opt := range opts {
		opt(&a)
	}

	s.deliveries.Lock()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.deliveries.Unlock()
		return models.Request{}, ErrClosed
	}
	s.resetLocked()
	gen := s.generation
	s.mu.Unlock()
	s.deliveries.Unlock()

	txID := models.NewTransactionID()
	req, err := s.initiator.CreateRequest(ctx, s.ref, txID)

	s.mu.Lock()
	if s.generation != gen || s.closed {
		s.mu.Unlock()
		s.metrics.IncrementStale()
		s.logger.WarnContext(ctx, "discarding superseded proof request",
			"transaction_id", txID,
			"generation", gen,
		)
		return models.Request{}, models.NewFailure(models.FailureStaleResponse, txID, err)
	}

	if err != nil {
		failure := models.NewFailure(models.FailureRequestInitiation, txID, err)
		s.err = failure
		s.updatedAt = s.now()
		onFailure := s.onFailure
		s.mu.Unlock()

		s.metrics.IncrementOutcome(vmetrics.OutcomeInitiationFailed)
		s.logger.ErrorContext(ctx, "verification request initiation failed",
			"transaction_id", txID,
			"error", err,
		)
		if onFailure != nil {
			onFailure(ctx, failure)
		}
		return models.Request{}, failure
	}

	if !req.TransactionID.IsNil() {
		txID = req.TransactionID
	}
	req.TransactionID = txID
	s.txID = txID
	s.request = &req
	s.startedAt = s.now()
	s.transitionLocked(models.StateRequested)

	pollCtx, cancel := context.WithCancel(s.base)
	s.cancelPoll = cancel
	s.transitionLocked(models.StatePending)
	s.polls.Add(1)
	s.mu.Unlock()

	s.metrics.IncrementStarted()
	s.logger.InfoContext(ctx, "verification started",
		"transaction_id", txID,
		"generation", gen,
		"ref", s.ref,
	)

	go s.run(pollCtx, cancel, gen, txID, a)
	return req, nil
}

func (s *Session) run(ctx context.Context, cancel context.CancelFunc, gen uint64, txID models.TransactionID, a attempt) {
	defer s.polls.Done()
	defer cancel()

	res, err := s.poller.PollUntilVerified(ctx, txID)

	s.mu.Lock()
	if s.generation != gen || s.txID != txID || s.closed {
		s.mu.Unlock()
		if err == nil {
			s.metrics.IncrementStale()
			s.logger.Warn("discarding late verification result",
				"transaction_id", txID,
				"generation", gen,
			)
		}
		return
	}
	if err == nil && res.TransactionID != txID {
		// The poller filters foreign IDs; this guards a misbehaving Poller.
		err = models.NewFailure(models.FailureStaleResponse, res.TransactionID, nil)
	}

	s.cancelPoll = nil
	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.mu.Unlock()
			return
		}
		s.err = err
		s.transitionLocked(models.StateFailed)
		onFailure := s.onFailure
		s.mu.Unlock()

		s.metrics.IncrementOutcome(vmetrics.OutcomeFailed)
		s.logger.Warn("verification failed",
			"transaction_id", txID,
			"error", err,
		)
		if onFailure != nil {
			onFailure(ctx, err)
		}
		return
	}

	owned := res.Clone()
	s.result = &owned
	elapsed := s.now().Sub(s.startedAt)
	s.transitionLocked(models.StateVerified)
	s.mu.Unlock()

	s.metrics.IncrementOutcome(vmetrics.OutcomeVerified)
	s.metrics.ObserveTimeToVerify(elapsed)
	s.logger.Info("verification completed",
		"transaction_id", txID,
		"elapsed", elapsed,
	)
	if a.onResult != nil {
		s.deliver(ctx, gen, txID, res.Clone(), a.onResult)
	}
}

// deliver hands res to consume unless the attempt was reset or replaced
// since it verified. A consumer error is recorded on the session and passed
// to the failure consumer.
func (s *Session) deliver(ctx context.Context, gen uint64, txID models.TransactionID, res models.Result, consume ResultConsumer) {
	s.deliveries.Lock()
	defer s.deliveries.Unlock()

	if !s.isCurrent(gen, txID) {
		s.metrics.IncrementStale()
		s.logger.Warn("skipping result delivery for superseded attempt",
			"transaction_id", txID,
			"generation", gen,
		)
		return
	}

	err := consume(ctx, res)
	if err == nil {
		return
	}

	failure := models.NewFailure(models.FailureResultDelivery, txID, err)
	s.mu.Lock()
	current := s.generation == gen && s.txID == txID && !s.closed
	if current {
		s.deliveryErr = failure
		s.updatedAt = s.now()
	}
	onFailure := s.onFailure
	s.mu.Unlock()

	s.metrics.IncrementOutcome(vmetrics.OutcomeDeliveryFailed)
	s.logger.Error("verification result delivery failed",
		"transaction_id", txID,
		"error", err,
	)
	if current && onFailure != nil {
		onFailure(ctx, failure)
	}
}

func (s *Session) isCurrent(gen uint64, txID models.TransactionID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation == gen && s.txID == txID && !s.closed
}

// Reset cancels the current attempt and returns the session to idle.
func (s *Session) Reset() {
	s.deliveries.Lock()
	defer s.deliveries.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// Close resets the session, stops its poll loop and closes subscriber
// channels. It waits for the poll goroutine to exit. Close is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.resetLocked()
	s.closed = true
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
	s.mu.Unlock()

	s.closeBase()
	s.polls.Wait()
}

// Done is closed once the session has been closed.
func (s *Session) Done() <-chan struct{} {
	return s.base.Done()
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Slot:          s.slot,
		State:         s.state,
		TransactionID: s.txID,
		Generation:    s.generation,
		Err:           s.err,
		DeliveryErr:   s.deliveryErr,
		UpdatedAt:     s.updatedAt,
	}
	if s.request != nil {
		req := *s.request
		snap.Request = &req
	}
	if s.result != nil {
		res := s.result.Clone()
		snap.Result = &res
	}
	return snap
}

// Subscribe returns a channel receiving every transition in order, and a
// function that stops the subscription. Transitions are dropped for
// subscribers that fall behind by more than the channel buffer.
func (s *Session) Subscribe() (<-chan Transition, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Transition, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subscribers[id]; ok {
				close(c)
				delete(s.subscribers, id)
			}
		})
	}
}

// resetLocked bumps the generation so any in-flight work becomes stale.
func (s *Session) resetLocked() {
	if s.cancelPoll != nil {
		s.cancelPoll()
		s.cancelPoll = nil
	}
	s.generation++
	if s.state.IsActive() {
		s.metrics.IncrementOutcome(vmetrics.OutcomeCanceled)
	}
	if s.state != models.StateIdle {
		s.transitionLocked(models.StateIdle)
	}
	s.txID = ""
	s.request = nil
	s.result = nil
	s.err = nil
	s.deliveryErr = nil
	s.startedAt = time.Time{}
	s.updatedAt = s.now()
}

func (s *Session) transitionLocked(to models.State) {
	from := s.state
	if !from.CanTransitionTo(to) {
		s.logger.Error("illegal verification state transition",
			"from", from,
			"to", to,
			"transaction_id", s.txID,
		)
		return
	}
	s.state = to
	s.updatedAt = s.now()

	t := Transition{
		Slot:          s.slot,
		From:          from,
		To:            to,
		TransactionID: s.txID,
		Generation:    s.generation,
		At:            s.updatedAt,
	}
	for _, ch := range s.subscribers {
		select {
		case ch <- t:
		default:
			s.logger.Warn("dropping transition for slow subscriber", "to", to)
		}
	}
}
