package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "talentmatch/pkg/domain-errors"
)

type issueRequest struct {
	Name       string `json:"name"`
	normalized bool
}

func (r *issueRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.normalized = true
}

func (r *issueRequest) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.Name == "taken" {
		return dErrors.New(dErrors.CodeConflict, "name already used")
	}
	return nil
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func decode(body string) (*issueRequest, bool, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req, ok := DecodeJSON[issueRequest](context.Background(), w, r, discard, "req-1")
	return req, ok, w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestDecodeJSON(t *testing.T) {
	t.Run("decodes and normalizes", func(t *testing.T) {
		req, ok, _ := decode(`{"name":"  Alice "}`)
		require.True(t, ok)
		assert.Equal(t, "Alice", req.Name)
		assert.True(t, req.normalized)
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		_, ok, w := decode(`{"name":`)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "bad_request", errorCode(t, w))
	})

	t.Run("plain validation errors become validation_error", func(t *testing.T) {
		_, ok, w := decode(`{"name":"   "}`)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "validation_error", errorCode(t, w))
	})

	t.Run("domain errors keep their code", func(t *testing.T) {
		_, ok, w := decode(`{"name":"taken"}`)
		assert.False(t, ok)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", dErrors.New(dErrors.CodeNotFound, "missing"), http.StatusNotFound, "not_found"},
		{"timeout", dErrors.New(dErrors.CodeTimeout, "slow"), http.StatusGatewayTimeout, "verification_timeout"},
		{"upstream", dErrors.New(dErrors.CodeUpstream, "down"), http.StatusBadGateway, "upstream_failure"},
		{"wrapped", dErrors.Wrap(errors.New("io"), dErrors.CodeConflict, "busy"), http.StatusConflict, "conflict"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
			assert.NotContains(t, w.Body.String(), "boom")
		})
	}
}
