package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talentmatch/internal/issuance/models"
	"talentmatch/internal/platform/middleware"
	dErrors "talentmatch/pkg/domain-errors"
)

func sampleRequest() models.Request {
	return models.Request{
		VCUID:        "00000000_demovc",
		IssuanceDate: "20250901",
		ExpiredDate:  "20260901",
		Fields:       []models.Field{{Key: "name", Content: "Mei-Li Lin"}},
	}
}

func newTestClient(url string, retries int) *Client {
	return New(url, "", "vc-token", time.Second, retries, WithRetryWait(time.Millisecond, 2*time.Millisecond))
}

func TestIssue(t *testing.T) {
	t.Run("posts payload with access token", func(t *testing.T) {
		var got models.Request
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, DefaultPath, r.URL.Path)
			assert.Equal(t, "vc-token", r.Header.Get(AccessTokenHeader))
			assert.Equal(t, "req-1", r.Header.Get(middleware.RequestIDHeader))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_, _ = w.Write([]byte(`{"transactionId":"tx-9","qrCode":"data:image/png;base64,AAAA","deepLink":"wallet://offer"}`))
		}))
		defer srv.Close()

		ctx := middleware.WithRequestID(context.Background(), "req-1")
		offer, err := newTestClient(srv.URL, 0).Issue(ctx, sampleRequest())
		require.NoError(t, err)

		assert.Equal(t, "tx-9", offer.TransactionID)
		assert.Equal(t, "wallet://offer", offer.DeepLink)
		assert.Equal(t, sampleRequest(), got)
	})

	t.Run("retries server errors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`{"transactionId":"tx-2","qrCode":"AAAA"}`))
		}))
		defer srv.Close()

		offer, err := newTestClient(srv.URL, 2).Issue(context.Background(), sampleRequest())
		require.NoError(t, err)
		assert.Equal(t, "tx-2", offer.TransactionID)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("exhausted retries surface upstream failure", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL, 1).Issue(context.Background(), sampleRequest())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUpstream))
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("client errors are denied without retry", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":"400","message":"unknown vcUid"}`))
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL, 3).Issue(context.Background(), sampleRequest())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUpstreamDenied))
		assert.Contains(t, err.Error(), "unknown vcUid")
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("empty offer is a contract failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"transactionId":"tx-3"}`))
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL, 0).Issue(context.Background(), sampleRequest())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUpstream))
	})

	t.Run("custom path", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/issuer/offer", r.URL.Path)
			_, _ = w.Write([]byte(`{"qrCode":"AAAA"}`))
		}))
		defer srv.Close()

		c := New(srv.URL+"/", "issuer/offer", "", time.Second, 0)
		_, err := c.Issue(context.Background(), sampleRequest())
		require.NoError(t, err)
	})

	t.Run("unreachable issuer", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := newTestClient(url, 0).Issue(context.Background(), sampleRequest())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUpstream))
	})
}
