// Package handler exposes credential issuance over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"talentmatch/internal/issuance/models"
	"talentmatch/internal/platform/middleware"
	"talentmatch/pkg/platform/httputil"
)

// Issuer sends a normalized payload to the wallet issuer.
type Issuer interface {
	Issue(ctx context.Context, req models.Request) (models.Offer, error)
}

type FieldRequest struct {
	Key     string `json:"ename"`
	Content string `json:"content"`
}

type IssueRequest struct {
	VCUID        string         `json:"vc_uid"`
	IssuanceDate string         `json:"issuance_date"`
	ExpiredDate  string         `json:"expired_date"`
	Fields       []FieldRequest `json:"fields"`
}

func (r *IssueRequest) Normalize() {
	r.VCUID = strings.TrimSpace(r.VCUID)
	r.IssuanceDate = strings.TrimSpace(r.IssuanceDate)
	r.ExpiredDate = strings.TrimSpace(r.ExpiredDate)
}

func (r *IssueRequest) toModel() (models.Request, error) {
	fields := make([]models.Field, 0, len(r.Fields))
	for _, f := range r.Fields {
		fields = append(fields, models.Field{Key: f.Key, Content: f.Content})
	}
	return models.NewRequest(r.VCUID, r.IssuanceDate, r.ExpiredDate, fields)
}

type OfferResponse struct {
	TransactionID string `json:"transaction_id,omitempty"`
	QRCode        string `json:"qr_code,omitempty"`
	DeepLink      string `json:"deep_link,omitempty"`
}

// Handler serves /credentials.
type Handler struct {
	issuer Issuer
	logger *slog.Logger
}

func New(issuer Issuer, logger *slog.Logger) *Handler {
	return &Handler{issuer: issuer, logger: logger}
}

// Register registers the issuance routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/credentials/issue", h.handleIssue)
	r.Post("/credentials/preview", h.handlePreview)
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	req, ok := httputil.DecodeJSON[IssueRequest](ctx, w, r, h.logger, requestID)
	if !ok {
		return
	}
	payload, err := req.toModel()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	offer, err := h.issuer.Issue(ctx, payload)
	if err != nil {
		h.logger.ErrorContext(ctx, "credential issuance failed",
			"request_id", requestID,
			"vc_uid", payload.VCUID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "credential offer created",
		"request_id", requestID,
		"vc_uid", payload.VCUID,
		"transaction_id", offer.TransactionID,
	)
	httputil.WriteJSON(w, http.StatusCreated, OfferResponse{
		TransactionID: offer.TransactionID,
		QRCode:        offer.QRCode,
		DeepLink:      offer.DeepLink,
	})
}

// handlePreview returns the payload that would be sent, without sending it.
func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeJSON[IssueRequest](ctx, w, r, h.logger, middleware.GetRequestID(ctx))
	if !ok {
		return
	}
	payload, err := req.toModel()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, payload)
}
