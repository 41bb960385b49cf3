// Package verifier talks to the wallet verifier service: it creates
// presentation requests and reads their asynchronous results.
package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"talentmatch/internal/platform/tracer"
	"talentmatch/internal/verification/models"
)

const (
	// AccessTokenHeader carries the server-side verifier credential.
	AccessTokenHeader = "Access-Token"

	qrcodePath = "/oidvp/qrcode"
	resultPath = "/oidvp/result"

	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 4 << 20
)

// Operation names used in errors and logs.
const (
	OpCreateRequest = "create_request"
	OpResult        = "result"
	OpReverify      = "reverify"
)

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the verifier over HTTP.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  HTTPDoer
	tracer      tracer.Tracer
	now         func() time.Time
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// WithTracer sets the tracer used for outbound spans.
func WithTracer(t tracer.Tracer) Option {
	return func(c *Client) {
		c.tracer = t
	}
}

// WithClock overrides the clock used for CheckedAt/CreatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New creates a verifier client. A zero timeout falls back to 10s.
func New(baseURL, accessToken string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: timeout},
		tracer:      tracer.NewNoop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateRequest asks the verifier for a scannable request bound to txID.
// If the verifier assigns its own transaction ID, the returned Request carries
// the server's ID and callers must use it from then on.
func (c *Client) CreateRequest(ctx context.Context, ref string, txID models.TransactionID) (_ models.Request, err error) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanVerifierCreateRequest,
		tracer.String(tracer.AttrVerifierRef, ref),
		tracer.String(tracer.AttrTransactionID, txID.String()),
	)
	defer func() { span.End(err) }()

	q := url.Values{}
	q.Set("ref", ref)
	q.Set("transactionId", txID.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+qrcodePath+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return models.Request{}, NewError(ErrorInternal, OpCreateRequest, "failed to create request", err)
	}

	var body qrcodeResponse
	if err := c.do(ctx, OpCreateRequest, req, &body); err != nil {
		return models.Request{}, err
	}
	if body.QRCodeImage == "" {
		return models.Request{}, NewError(ErrorContractMismatch, OpCreateRequest, "response has no qrcodeImage", nil)
	}

	confirmed := txID
	if body.TransactionID != "" {
		confirmed = models.TransactionID(body.TransactionID)
	}
	span.SetAttributes(tracer.String(tracer.AttrTransactionID, confirmed.String()))

	return models.Request{
		TransactionID: confirmed,
		QRCodeImage:   body.QRCodeImage,
		CreatedAt:     c.now(),
	}, nil
}

// Result reads the current verification result for txID.
func (c *Client) Result(ctx context.Context, txID models.TransactionID) (_ models.Result, err error) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanVerifierResult,
		tracer.String(tracer.AttrTransactionID, txID.String()),
	)
	defer func() { span.End(err) }()

	q := url.Values{}
	q.Set("transactionId", txID.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+resultPath+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return models.Result{}, NewError(ErrorInternal, OpResult, "failed to create request", err)
	}

	var body resultResponse
	if err := c.do(ctx, OpResult, req, &body); err != nil {
		return models.Result{}, err
	}
	span.SetAttributes(tracer.Bool(tracer.AttrVerified, body.VerifyResult))
	return body.toResult(txID, c.now()), nil
}

// Reverify re-reads a stored transaction through the POST variant of the
// result endpoint.
func (c *Client) Reverify(ctx context.Context, txID models.TransactionID) (_ models.Result, err error) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanVerifierReverify,
		tracer.String(tracer.AttrTransactionID, txID.String()),
	)
	defer func() { span.End(err) }()

	payload, err := json.Marshal(resultRequest{TransactionID: txID.String()})
	if err != nil {
		return models.Result{}, NewError(ErrorInternal, OpReverify, "failed to marshal request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+resultPath, bytes.NewReader(payload))
	if err != nil {
		return models.Result{}, NewError(ErrorInternal, OpReverify, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var body resultResponse
	if err := c.do(ctx, OpReverify, req, &body); err != nil {
		return models.Result{}, err
	}
	span.SetAttributes(tracer.Bool(tracer.AttrVerified, body.VerifyResult))
	return body.toResult(txID, c.now()), nil
}

// Health checks that the verifier answers at all. Any HTTP response counts;
// only transport failures make it unhealthy.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+qrcodePath, http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(ctx, "health", err)
	}
	_ = resp.Body.Close()
	return nil
}

func (c *Client) do(ctx context.Context, op string, req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		req.Header.Set(AccessTokenHeader, c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(ctx, op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return NewError(ErrorProviderOutage, op, "failed to read response body", err)
	}

	if err := classifyStatus(op, resp.StatusCode, body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return NewError(ErrorContractMismatch, op, "failed to parse response", err)
	}
	return nil
}

func classifyTransportError(ctx context.Context, op string, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return NewError(ErrorCanceled, op, "request canceled", ctx.Err())
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return NewError(ErrorTimeout, op, "request timeout", err)
	}
	return NewError(ErrorProviderOutage, op, "failed to execute request", err)
}

func classifyStatus(op string, status int, body []byte) error {
	switch status {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return newStatusError(ErrorAuthentication, op, status, fmt.Sprintf("authentication failed: %d", status))
	case http.StatusNotFound:
		return newStatusError(ErrorNotFound, op, status, "transaction not found")
	case http.StatusBadRequest:
		msg := "bad request"
		var errResp errorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Message != "" {
			msg = errResp.Message
		}
		return newStatusError(ErrorBadData, op, status, msg)
	case http.StatusTooManyRequests:
		return newStatusError(ErrorRateLimited, op, status, "rate limited")
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return newStatusError(ErrorTimeout, op, status, fmt.Sprintf("upstream timeout: %d", status))
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return newStatusError(ErrorProviderOutage, op, status, fmt.Sprintf("verifier unavailable: %d", status))
	default:
		return newStatusError(ErrorInternal, op, status, fmt.Sprintf("unexpected status code: %d", status))
	}
}
