package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Issuer

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"talentmatch/internal/issuance/handler/mocks"
	"talentmatch/internal/issuance/models"
	dErrors "talentmatch/pkg/domain-errors"
	"talentmatch/pkg/platform/httputil"
)

func setup(t *testing.T) (*mocks.MockIssuer, chi.Router) {
	ctrl := gomock.NewController(t)
	issuer := mocks.NewMockIssuer(ctrl)
	r := chi.NewRouter()
	New(issuer, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return issuer, r
}

func post(r chi.Router, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(body)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, &buf))
	return w
}

var validBody = IssueRequest{
	VCUID:        "00000000_demovc",
	IssuanceDate: "2025-09-01",
	ExpiredDate:  "2026-09-01",
	Fields: []FieldRequest{
		{Key: "name", Content: "Mei-Li Lin"},
		{Key: "graduationDate", Content: "2024-06-30"},
	},
}

func TestHandleIssue(t *testing.T) {
	t.Run("sends normalized payload", func(t *testing.T) {
		issuer, r := setup(t)
		issuer.EXPECT().Issue(gomock.Any(), models.Request{
			VCUID:        "00000000_demovc",
			IssuanceDate: "20250901",
			ExpiredDate:  "20260901",
			Fields: []models.Field{
				{Key: "name", Content: "Mei-Li Lin"},
				{Key: "graduationDate", Content: "20240630"},
			},
		}).Return(models.Offer{TransactionID: "tx-1", QRCode: "AAAA", DeepLink: "wallet://x"}, nil)

		w := post(r, "/credentials/issue", validBody)
		require.Equal(t, http.StatusCreated, w.Code)

		var resp OfferResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, OfferResponse{TransactionID: "tx-1", QRCode: "AAAA", DeepLink: "wallet://x"}, resp)
	})

	t.Run("invalid input never reaches issuer", func(t *testing.T) {
		_, r := setup(t)
		body := validBody
		body.VCUID = ""

		w := post(r, "/credentials/issue", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("issuer rejection maps to bad gateway", func(t *testing.T) {
		issuer, r := setup(t)
		issuer.EXPECT().Issue(gomock.Any(), gomock.Any()).
			Return(models.Offer{}, dErrors.New(dErrors.CodeUpstreamDenied, "issuer rejected request: 400"))

		w := post(r, "/credentials/issue", validBody)
		assert.Equal(t, http.StatusBadGateway, w.Code)

		var resp httputil.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "upstream_denied", resp.Error)
	})
}

func TestHandlePreview(t *testing.T) {
	_, r := setup(t)

	w := post(r, "/credentials/preview", validBody)
	require.Equal(t, http.StatusOK, w.Code)

	var payload models.Request
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, "20250901", payload.IssuanceDate)
	assert.Equal(t, "20240630", payload.Fields[1].Content)
}
