package session

//go:generate mockgen -source=session.go -destination=mocks/mocks.go -package=mocks Initiator,Poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	vmetrics "talentmatch/internal/verification/metrics"
	"talentmatch/internal/verification/models"
	"talentmatch/internal/verification/poller"
	"talentmatch/internal/verification/session/mocks"
	"talentmatch/internal/verification/verifier"
	"talentmatch/internal/verification/verifiertest"
)

const slot = "candidate-form"

type SessionSuite struct {
	suite.Suite
	ctx       context.Context
	ctrl      *gomock.Controller
	initiator *mocks.MockInitiator
	poller    *mocks.MockPoller
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func (s *SessionSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.initiator = mocks.NewMockInitiator(s.ctrl)
	s.poller = mocks.NewMockPoller(s.ctrl)
}

func echoRequest(_ context.Context, _ string, txID models.TransactionID) (models.Request, error) {
	return models.Request{TransactionID: txID, QRCodeImage: "iVBORw0KGgo="}, nil
}

func waitForState(t *testing.T, sess *Session, want models.State) Snapshot {
	t.Helper()
	var snap Snapshot
	require.Eventually(t, func() bool {
		snap = sess.Snapshot()
		return snap.State == want
	}, 2*time.Second, 5*time.Millisecond, "session never reached %s", want)
	return snap
}

func collect(ch <-chan Transition, n int, timeout time.Duration) []Transition {
	var out []Transition
	deadline := time.After(timeout)
	for len(out) < n {
		select {
		case t, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, t)
		case <-deadline:
			return out
		}
	}
	return out
}

func fastPoller(srv *verifiertest.Server, timeout time.Duration) *poller.Poller {
	client := verifier.New(srv.URL, "vp-secret", time.Second)
	return poller.New(client, poller.Config{Interval: 2 * time.Millisecond, MaxAttempts: 100, Timeout: timeout})
}

func (s *SessionSuite) TestStateOrder() {
	srv := verifiertest.New()
	defer srv.Close()
	srv.Script(verifiertest.Reply{}, verifiertest.Reply{VerifyResult: true, Data: verifiertest.StudentID()})

	client := verifier.New(srv.URL, "vp-secret", time.Second)
	sess := New(slot, client, fastPoller(srv, 2*time.Second))
	defer sess.Close()

	events, stop := sess.Subscribe()
	defer stop()

	req, err := sess.Begin(s.ctx)
	s.Require().NoError(err)

	got := collect(events, 3, 2*time.Second)
	s.Require().Len(got, 3)
	s.Equal([]models.State{models.StateIdle, models.StateRequested, models.StatePending},
		[]models.State{got[0].From, got[1].From, got[2].From})
	s.Equal([]models.State{models.StateRequested, models.StatePending, models.StateVerified},
		[]models.State{got[0].To, got[1].To, got[2].To})
	for _, tr := range got {
		s.Equal(req.TransactionID, tr.TransactionID)
	}

	snap := sess.Snapshot()
	s.Equal(models.StateVerified, snap.State)
	s.Require().NotNil(snap.Result)
	s.Equal(req.TransactionID, snap.Result.TransactionID)
}

func (s *SessionSuite) TestDemoScenarioDeliversResultOnce() {
	srv := verifiertest.New()
	defer srv.Close()
	srv.Script(
		verifiertest.Reply{},
		verifiertest.Reply{},
		verifiertest.Reply{},
		verifiertest.Reply{VerifyResult: true, Description: "verified", Data: verifiertest.StudentID()},
	)
	srv.SetFallback(verifiertest.Reply{VerifyResult: true, Data: verifiertest.StudentID()})
	srv.SetAssignTransactionID("T1")

	var (
		mu      sync.Mutex
		results []models.Result
	)
	consumer := func(_ context.Context, r models.Result) error {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, r)
		return nil
	}

	client := verifier.New(srv.URL, "vp-secret", time.Second)
	sess := New(slot, client, fastPoller(srv, 2*time.Second), WithResultConsumer(consumer))
	defer sess.Close()

	req, err := sess.Begin(s.ctx)
	s.Require().NoError(err)
	s.Equal(models.TransactionID("T1"), req.TransactionID)
	snap := waitForState(s.T(), sess, models.StateVerified)
	s.Equal(models.TransactionID("T1"), snap.TransactionID)
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	s.Require().Len(results, 1)
	s.Equal(models.TransactionID("T1"), results[0].TransactionID)
	s.True(results[0].Verified)
	claim, ok := results[0].Claim("school")
	s.Require().True(ok)
	s.Equal("National Taiwan University", claim.Value)
	s.Equal(models.DemoVerifierRef, srv.LastRef())
	s.Equal(4, srv.ResultCalls())
}

func (s *SessionSuite) TestSecondBeginDiscardsLateResponse() {
	reg := prometheus.NewRegistry()
	m := vmetrics.New(reg)
	release := make(chan struct{})

	var (
		mu      sync.Mutex
		firstTx models.TransactionID
	)
	s.initiator.EXPECT().CreateRequest(gomock.Any(), models.DemoVerifierRef, gomock.Any()).DoAndReturn(
		func(ctx context.Context, ref string, txID models.TransactionID) (models.Request, error) {
			mu.Lock()
			if firstTx.IsNil() {
				firstTx = txID
			}
			mu.Unlock()
			return echoRequest(ctx, ref, txID)
		}).Times(2)
	s.poller.EXPECT().PollUntilVerified(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, txID models.TransactionID) (models.Result, error) {
			mu.Lock()
			late := txID == firstTx
			mu.Unlock()
			if late {
				// Ignores cancellation to simulate a response already in flight.
				<-release
			}
			return models.Result{TransactionID: txID, Verified: true}, nil
		}).Times(2)

	var firstCalls, secondCalls atomic.Int32
	sess := New(slot, s.initiator, s.poller, WithMetrics(m))
	defer sess.Close()

	first, err := sess.Begin(s.ctx, OnResult(func(context.Context, models.Result) error {
		firstCalls.Add(1)
		return nil
	}))
	s.Require().NoError(err)
	second, err := sess.Begin(s.ctx, OnResult(func(context.Context, models.Result) error {
		secondCalls.Add(1)
		return nil
	}))
	s.Require().NoError(err)
	s.NotEqual(first.TransactionID, second.TransactionID)

	snap := waitForState(s.T(), sess, models.StateVerified)
	close(release)
	s.Require().Eventually(func() bool {
		return testutil.ToFloat64(m.StaleResponses) == 1
	}, 2*time.Second, 5*time.Millisecond)

	after := sess.Snapshot()
	s.Equal(snap.Generation, after.Generation)
	s.Equal(second.TransactionID, after.TransactionID)
	s.Require().NotNil(after.Result)
	s.Equal(second.TransactionID, after.Result.TransactionID)
	s.Equal(int32(0), firstCalls.Load())
	s.Equal(int32(1), secondCalls.Load())
}

func (s *SessionSuite) TestConsumerErrorIsRecorded() {
	reg := prometheus.NewRegistry()
	m := vmetrics.New(reg)
	s.initiator.EXPECT().CreateRequest(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(echoRequest)
	s.poller.EXPECT().PollUntilVerified(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, txID models.TransactionID) (models.Result, error) {
			return models.Result{TransactionID: txID, Verified: true}, nil
		})

	failures := make(chan error, 1)
	sess := New(slot, s.initiator, s.poller,
		WithMetrics(m),
		WithResultConsumer(func(context.Context, models.Result) error { return errors.New("resume deleted") }),
		WithFailureConsumer(func(_ context.Context, err error) { failures <- err }))
	defer sess.Close()

	req, err := sess.Begin(s.ctx)
	s.Require().NoError(err)

	var snap Snapshot
	s.Require().Eventually(func() bool {
		snap = sess.Snapshot()
		return snap.DeliveryErr != nil
	}, 2*time.Second, 5*time.Millisecond)

	s.Equal(models.StateVerified, snap.State)
	s.NoError(snap.Err)
	s.Require().NotNil(snap.Result)
	s.ErrorIs(snap.DeliveryErr, models.ErrResultDelivery)
	s.ErrorContains(snap.DeliveryErr, "resume deleted")
	s.Equal(float64(1), testutil.ToFloat64(m.VerificationOutcomes.WithLabelValues(vmetrics.OutcomeDeliveryFailed)))

	select {
	case err := <-failures:
		s.ErrorIs(err, models.ErrResultDelivery)
	case <-time.After(time.Second):
		s.Fail("failure consumer not invoked")
	}

	sess.Reset()
	s.Nil(sess.Snapshot().DeliveryErr)
	s.NotEqual(req.TransactionID, sess.Snapshot().TransactionID)
}

func (s *SessionSuite) TestSupersededAttemptIsNotDelivered() {
	reg := prometheus.NewRegistry()
	m := vmetrics.New(reg)
	sess := New(slot, s.initiator, s.poller, WithMetrics(m))
	defer sess.Close()

	var calls atomic.Int32
	consume := func(context.Context, models.Result) error {
		calls.Add(1)
		return nil
	}

	// Generation 7 never existed on this session, as after a Reset.
	sess.deliver(s.ctx, 7, "T1", models.Result{TransactionID: "T1", Verified: true}, consume)

	s.Equal(int32(0), calls.Load())
	s.Equal(float64(1), testutil.ToFloat64(m.StaleResponses))
}

func (s *SessionSuite) TestResetWaitsForDelivery() {
	s.initiator.EXPECT().CreateRequest(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(echoRequest)
	s.poller.EXPECT().PollUntilVerified(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, txID models.TransactionID) (models.Result, error) {
			return models.Result{TransactionID: txID, Verified: true}, nil
		})

	started := make(chan struct{})
	release := make(chan struct{})
	sess := New(slot, s.initiator, s.poller,
		WithResultConsumer(func(context.Context, models.Result) error {
			close(started)
			<-release
			return nil
		}))
	defer sess.Close()

	_, err := sess.Begin(s.ctx)
	s.Require().NoError(err)
	<-started

	reset := make(chan struct{})
	go func() {
		sess.Reset()
		close(reset)
	}()

	select {
	case <-reset:
		s.Fail("reset interleaved with an in-progress delivery")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-reset:
	case <-time.After(time.Second):
		s.Fail("reset never completed")
	}
	s.Equal(models.StateIdle, sess.Snapshot().State)
}

func (s *SessionSuite) TestUltraShortTimeoutFails() {
	srv := verifiertest.New()
	defer srv.Close()
	srv.SetFallback(verifiertest.Reply{VerifyResult: false})

	failures := make(chan error, 1)
	client := verifier.New(srv.URL, "vp-secret", time.Second)
	sess := New(slot, client, fastPoller(srv, 30*time.Millisecond),
		WithFailureConsumer(func(_ context.Context, err error) { failures <- err }))
	defer sess.Close()

	start := time.Now()
	_, err := sess.Begin(s.ctx)
	s.Require().NoError(err)

	snap := waitForState(s.T(), sess, models.StateFailed)
	s.Less(time.Since(start), time.Second)
	s.ErrorIs(snap.Err, models.ErrVerificationTimeout)
	s.Nil(snap.Result)

	select {
	case err := <-failures:
		s.ErrorIs(err, models.ErrVerificationTimeout)
	case <-time.After(time.Second):
		s.Fail("failure consumer not invoked")
	}
}

func (s *SessionSuite) TestFatalPollErrorFails() {
	s.initiator.EXPECT().CreateRequest(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(echoRequest)
	s.poller.EXPECT().PollUntilVerified(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, txID models.TransactionID) (models.Result, error) {
			return models.Result{}, models.NewFailure(models.FailurePollFatal, txID, errors.New("401"))
		})

	sess := New(slot, s.initiator, s.poller)
	defer sess.Close()

	_, err := sess.Begin(s.ctx)
	s.Require().NoError(err)
	snap := waitForState(s.T(), sess, models.StateFailed)
	s.ErrorIs(snap.Err, models.ErrPollFatal)
}

func (s *SessionSuite) TestInitiationFailureStaysIdle() {
	upstream := verifier.NewError(verifier.ErrorProviderOutage, verifier.OpCreateRequest, "503", nil)
	s.initiator.EXPECT().CreateRequest(gomock.Any(), "custom_ref", gomock.Any()).Return(models.Request{}, upstream)

	var surfaced error
	sess := New(slot, s.initiator, s.poller,
		WithRef("custom_ref"),
		WithFailureConsumer(func(_ context.Context, err error) { surfaced = err }))
	defer sess.Close()

	events, stop := sess.Subscribe()
	defer stop()

	_, err := sess.Begin(s.ctx)
	s.Require().Error(err)
	s.ErrorIs(err, models.ErrRequestInitiationFailed)
	s.ErrorIs(surfaced, models.ErrRequestInitiationFailed)
	s.Equal(verifier.ErrorProviderOutage, verifier.CategoryOf(err))

	snap := sess.Snapshot()
	s.Equal(models.StateIdle, snap.State)
	s.ErrorIs(snap.Err, models.ErrRequestInitiationFailed)
	s.Nil(snap.Request)
	s.Empty(collect(events, 1, 20*time.Millisecond))
}

func (s *SessionSuite) TestResetCancelsPoll() {
	s.initiator.EXPECT().CreateRequest(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(echoRequest)
	canceled := make(chan struct{})
	s.poller.EXPECT().PollUntilVerified(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ models.TransactionID) (models.Result, error) {
			<-ctx.Done()
			close(canceled)
			return models.Result{}, ctx.Err()
		})

	sess := New(slot, s.initiator, s.poller)
	defer sess.Close()

	_, err := sess.Begin(s.ctx)
	s.Require().NoError(err)
	s.Equal(models.StatePending, sess.Snapshot().State)

	sess.Reset()
	select {
	case <-canceled:
	case <-time.After(time.Second):
		s.Fail("poll loop not cancelled")
	}

	snap := sess.Snapshot()
	s.Equal(models.StateIdle, snap.State)
	s.True(snap.TransactionID.IsNil())
	s.Nil(snap.Err)
}

func (s *SessionSuite) TestBeginDetachedFromCallerContext() {
	s.initiator.EXPECT().CreateRequest(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(echoRequest)
	s.poller.EXPECT().PollUntilVerified(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, txID models.TransactionID) (models.Result, error) {
			time.Sleep(10 * time.Millisecond)
			if err := ctx.Err(); err != nil {
				return models.Result{}, err
			}
			return models.Result{TransactionID: txID, Verified: true}, nil
		})

	sess := New(slot, s.initiator, s.poller)
	defer sess.Close()

	ctx, cancel := context.WithCancel(s.ctx)
	_, err := sess.Begin(ctx)
	s.Require().NoError(err)
	cancel()

	waitForState(s.T(), sess, models.StateVerified)
}

func (s *SessionSuite) TestClose() {
	sess := New(slot, s.initiator, s.poller)
	events, _ := sess.Subscribe()

	sess.Close()
	sess.Close()

	_, open := <-events
	s.False(open)
	_, err := sess.Begin(s.ctx)
	s.ErrorIs(err, ErrClosed)
}
