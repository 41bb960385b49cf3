// Package client sends credential offers to the wallet issuer sandbox.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"talentmatch/internal/issuance/models"
	"talentmatch/internal/platform/middleware"
	"talentmatch/internal/platform/tracer"
	dErrors "talentmatch/pkg/domain-errors"
)

const (
	// AccessTokenHeader carries the issuer credential.
	AccessTokenHeader = "Access-Token"

	DefaultPath = "/api/qrcode/data"

	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 4 << 20
)

// Client posts issuance payloads with bounded retries on 5xx and
// connection failures.
type Client struct {
	baseURL     string
	path        string
	accessToken string
	http        *retryablehttp.Client
	tracer      tracer.Tracer
}

// Option configures the Client.
type Option func(*Client)

// WithTracer sets the tracer used for outbound spans.
func WithTracer(t tracer.Tracer) Option {
	return func(c *Client) {
		c.tracer = t
	}
}

// WithLogger routes retry logs through logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.http.Logger = logger
	}
}

// WithRetryWait bounds the wait between retries.
func WithRetryWait(minWait, maxWait time.Duration) Option {
	return func(c *Client) {
		c.http.RetryWaitMin = minWait
		c.http.RetryWaitMax = maxWait
	}
}

// New creates an issuer client. An empty path falls back to DefaultPath.
func New(baseURL, path, accessToken string, timeout time.Duration, maxRetries int, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if path == "" {
		path = DefaultPath
	}
	if maxRetries < 0 {
		maxRetries = 0
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient.Timeout = timeout
	rc.RetryMax = maxRetries
	rc.Logger = nil
	// Hand the last response back instead of a generic "giving up" error so
	// the status can be classified.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		path:        "/" + strings.TrimLeft(path, "/"),
		accessToken: accessToken,
		http:        rc,
		tracer:      tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Issue submits req and returns the offer the wallet should scan.
func (c *Client) Issue(ctx context.Context, req models.Request) (_ models.Offer, err error) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanIssuerIssue)
	defer func() { span.End(err) }()

	payload, err := json.Marshal(req)
	if err != nil {
		return models.Offer{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to marshal issuance request")
	}
	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.path, bytes.NewReader(payload))
	if err != nil {
		return models.Offer{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create issuance request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		httpReq.Header.Set(AccessTokenHeader, c.accessToken)
	}
	if id := middleware.GetRequestID(ctx); id != "" {
		httpReq.Header.Set(middleware.RequestIDHeader, id)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return models.Offer{}, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(tracer.Int(tracer.AttrHTTPStatus, resp.StatusCode))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return models.Offer{}, dErrors.Wrap(err, dErrors.CodeUpstream, "failed to read issuer response")
	}
	if err := classifyStatus(resp.StatusCode, body); err != nil {
		return models.Offer{}, err
	}

	var offer models.Offer
	if err := json.Unmarshal(body, &offer); err != nil {
		return models.Offer{}, dErrors.Wrap(err, dErrors.CodeUpstream, "issuer returned malformed response")
	}
	if offer.QRCode == "" && offer.DeepLink == "" {
		return models.Offer{}, dErrors.New(dErrors.CodeUpstream, "issuer response has neither qrCode nor deepLink")
	}
	if offer.TransactionID != "" {
		span.SetAttributes(tracer.String(tracer.AttrTransactionID, offer.TransactionID))
	}
	return offer, nil
}

func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "issuance canceled")
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "issuer request timed out")
	}
	return dErrors.Wrap(err, dErrors.CodeUpstream, "issuer unreachable")
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func classifyStatus(status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status >= 400 && status < 500:
		msg := fmt.Sprintf("issuer rejected request: %d", status)
		var er errorResponse
		if json.Unmarshal(body, &er) == nil && er.Message != "" {
			msg = "issuer rejected request: " + er.Message
		}
		return dErrors.New(dErrors.CodeUpstreamDenied, msg)
	default:
		return dErrors.New(dErrors.CodeUpstream, fmt.Sprintf("issuer unavailable: %d", status))
	}
}
