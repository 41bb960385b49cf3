// Package handler exposes verification sessions over HTTP: begin an
// attempt, read its state, fetch the QR image and reset.
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"talentmatch/internal/platform/middleware"
	"talentmatch/internal/verification/models"
	"talentmatch/internal/verification/session"
	"talentmatch/pkg/domain"
	dErrors "talentmatch/pkg/domain-errors"
	"talentmatch/pkg/platform/httputil"
)

// Sessions resolves the session of a slot.
type Sessions interface {
	Get(slot domain.SlotID) *session.Session
	Lookup(slot domain.SlotID) (*session.Session, bool)
}

// ResumeAttacher receives verified results for a résumé.
type ResumeAttacher interface {
	Exists(ctx context.Context, id domain.ResumeID) bool
	AttachVerification(ctx context.Context, id domain.ResumeID, result models.Result) error
}

// Handler serves /verifications.
type Handler struct {
	sessions Sessions
	resumes  ResumeAttacher
	logger   *slog.Logger
}

// New creates a Handler. resumes may be nil, in which case résumé binding
// is rejected.
func New(sessions Sessions, resumes ResumeAttacher, logger *slog.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		resumes:  resumes,
		logger:   logger,
	}
}

// Register registers the verification routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verifications/{slot}", h.handleBegin)
	r.Get("/verifications/{slot}", h.handleStatus)
	r.Get("/verifications/{slot}/qrcode", h.handleQRCode)
	r.Delete("/verifications/{slot}", h.handleReset)
}

func (h *Handler) handleBegin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	slot, err := domain.ParseSlotID(chi.URLParam(r, "slot"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var opts []session.AttemptOption
	var resumeID domain.ResumeID
	if raw := r.URL.Query().Get("resume_id"); raw != "" {
		if h.resumes == nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "resume binding is not available"))
			return
		}
		resumeID, err = domain.ParseResumeID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		if !h.resumes.Exists(ctx, resumeID) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "resume not found"))
			return
		}
		opts = append(opts, session.OnResult(h.attachTo(resumeID)))
	}

	req, err := h.sessions.Get(slot).Begin(ctx, opts...)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to begin verification",
			"request_id", requestID,
			"slot", slot,
			"error", err,
		)
		httputil.WriteError(w, models.ToDomainError(err))
		return
	}

	resp := BeginResponse{
		Slot:          slot.String(),
		TransactionID: req.TransactionID.String(),
		State:         models.StatePending.String(),
		QRCodeImage:   req.QRCodeImage,
	}
	if !resumeID.IsNil() {
		resp.ResumeID = resumeID.String()
	}
	httputil.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) attachTo(id domain.ResumeID) session.ResultConsumer {
	return func(ctx context.Context, result models.Result) error {
		if err := h.resumes.AttachVerification(ctx, id, result); err != nil {
			h.logger.ErrorContext(ctx, "failed to attach verification to resume",
				"resume_id", id,
				"transaction_id", result.TransactionID,
				"error", err,
			)
			return fmt.Errorf("attach to resume %s: %w", id, err)
		}
		return nil
	}
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newStatusResponse(sess.Snapshot()))
}

func (h *Handler) handleQRCode(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	snap := sess.Snapshot()
	if snap.Request == nil || snap.State.IsTerminal() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no outstanding proof request"))
		return
	}

	contentType, img, err := models.DecodeQRCodeImage(snap.Request.QRCodeImage)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "verifier returned an undecodable QR image",
			"request_id", middleware.GetRequestID(r.Context()),
			"transaction_id", snap.TransactionID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUpstream, "invalid QR image from verifier"))
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	sess.Reset()
	h.logger.InfoContext(r.Context(), "verification reset",
		"request_id", middleware.GetRequestID(r.Context()),
		"slot", sess.Slot(),
	)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	slot, err := domain.ParseSlotID(chi.URLParam(r, "slot"))
	if err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}
	sess, ok := h.sessions.Lookup(slot)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no verification for slot"))
		return nil, false
	}
	return sess, true
}
