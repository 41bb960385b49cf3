package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"talentmatch/internal/platform/middleware"
	"talentmatch/internal/resume/models"
	"talentmatch/internal/resume/service"
	vhandler "talentmatch/internal/verification/handler"
	"talentmatch/pkg/domain"
	"talentmatch/pkg/platform/httputil"
)

// Service defines the résumé operations the handler needs.
type Service interface {
	Create(ctx context.Context, req service.CreateRequest) (models.Resume, error)
	Get(ctx context.Context, id domain.ResumeID) (models.Resume, error)
	List(ctx context.Context, filter models.Filter) ([]models.Resume, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, id domain.ResumeID, u models.Update) (models.Resume, error)
	Delete(ctx context.Context, id domain.ResumeID) error
	Clear(ctx context.Context) error
	Reverify(ctx context.Context, id domain.ResumeID) (models.ReverifyOutcome, error)
}

// Handler serves /resumes.
type Handler struct {
	resumes Service
	logger  *slog.Logger
}

func New(resumes Service, logger *slog.Logger) *Handler {
	return &Handler{resumes: resumes, logger: logger}
}

// Register registers the résumé routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/resumes", h.handleList)
	r.Post("/resumes", h.handleCreate)
	r.Delete("/resumes", h.handleClear)
	r.Get("/resumes/{id}", h.handleGet)
	r.Patch("/resumes/{id}", h.handleUpdate)
	r.Delete("/resumes/{id}", h.handleDelete)
	r.Post("/resumes/{id}/reverify", h.handleReverify)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter := models.Filter{
		Query: r.URL.Query().Get("q"),
		Role:  r.URL.Query().Get("role"),
	}
	resumes, err := h.resumes.List(ctx, filter)
	if err != nil {
		h.fail(ctx, w, "failed to list resumes", err)
		return
	}
	total, err := h.resumes.Count(ctx)
	if err != nil {
		h.fail(ctx, w, "failed to count resumes", err)
		return
	}

	resp := ListResponse{Resumes: make([]ResumeResponse, 0, len(resumes)), Count: len(resumes), Total: total}
	for _, rs := range resumes {
		resp.Resumes = append(resp.Resumes, toResponse(rs))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeJSON[CreateResumeRequest](ctx, w, r, h.logger, middleware.GetRequestID(ctx))
	if !ok {
		return
	}
	created, err := h.resumes.Create(ctx, req.toService())
	if err != nil {
		h.fail(ctx, w, "failed to create resume", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseResumeID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	found, err := h.resumes.Get(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to get resume", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(found))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseResumeID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeJSON[UpdateResumeRequest](ctx, w, r, h.logger, middleware.GetRequestID(ctx))
	if !ok {
		return
	}
	updated, err := h.resumes.Update(ctx, id, req.toModel())
	if err != nil {
		h.fail(ctx, w, "failed to update resume", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseResumeID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.resumes.Delete(ctx, id); err != nil {
		h.fail(ctx, w, "failed to delete resume", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.resumes.Clear(ctx); err != nil {
		h.fail(ctx, w, "failed to clear resumes", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleReverify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseResumeID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out, err := h.resumes.Reverify(ctx, id)
	if err != nil {
		h.fail(ctx, w, "failed to re-verify resume", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ReverifyResponse{
		Status: string(out.Status),
		Result: vhandler.NewResultResponse(out.Result),
		Resume: toResponse(out.Resume),
	})
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"request_id", middleware.GetRequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
