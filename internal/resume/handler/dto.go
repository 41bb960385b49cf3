package handler

import (
	"strings"
	"time"

	"talentmatch/internal/resume/models"
	"talentmatch/internal/resume/service"
	vhandler "talentmatch/internal/verification/handler"
	pstrings "talentmatch/pkg/platform/strings"
	"talentmatch/pkg/validation"
)

type CreateResumeRequest struct {
	Name        string              `json:"name" validate:"notblank,max=100"`
	Email       string              `json:"email" validate:"omitempty,email,max=255"`
	Phone       string              `json:"phone" validate:"max=32"`
	DesiredRole string              `json:"desired_role" validate:"max=100"`
	Summary     string              `json:"summary" validate:"max=4000"`
	Experience  []models.Experience `json:"experience" validate:"max=50"`
	Education   []models.Education  `json:"education" validate:"max=20"`
	Skills      []string            `json:"skills" validate:"max=50,dive,max=60"`
}

func (r *CreateResumeRequest) Normalize() {
	r.Name = pstrings.Collapse(r.Name)
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
	r.Phone = strings.TrimSpace(r.Phone)
	r.DesiredRole = pstrings.Collapse(r.DesiredRole)
	r.Skills = pstrings.CompactFold(r.Skills)
}

func (r *CreateResumeRequest) Validate() error {
	return validation.Validate(r)
}

func (r *CreateResumeRequest) toService() service.CreateRequest {
	return service.CreateRequest{
		Name:        r.Name,
		Email:       r.Email,
		Phone:       r.Phone,
		DesiredRole: r.DesiredRole,
		Summary:     r.Summary,
		Experience:  r.Experience,
		Education:   r.Education,
		Skills:      r.Skills,
	}
}

type UpdateResumeRequest struct {
	Name        *string             `json:"name" validate:"omitempty,min=1,max=100"`
	Email       *string             `json:"email" validate:"omitempty,email,max=255"`
	Phone       *string             `json:"phone" validate:"omitempty,max=32"`
	DesiredRole *string             `json:"desired_role" validate:"omitempty,max=100"`
	Summary     *string             `json:"summary" validate:"omitempty,max=4000"`
	Experience  []models.Experience `json:"experience" validate:"max=50"`
	Education   []models.Education  `json:"education" validate:"max=20"`
	Skills      []string            `json:"skills" validate:"max=50,dive,max=60"`
}

func (r *UpdateResumeRequest) Normalize() {
	r.Name = pstrings.CollapsePtr(r.Name)
	if r.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*r.Email))
		r.Email = &email
	}
	if r.Phone != nil {
		phone := strings.TrimSpace(*r.Phone)
		r.Phone = &phone
	}
	r.DesiredRole = pstrings.CollapsePtr(r.DesiredRole)
	r.Skills = pstrings.CompactFold(r.Skills)
}

func (r *UpdateResumeRequest) Validate() error {
	return validation.Validate(r)
}

func (r *UpdateResumeRequest) toModel() models.Update {
	return models.Update{
		Name:        r.Name,
		Email:       r.Email,
		Phone:       r.Phone,
		DesiredRole: r.DesiredRole,
		Summary:     r.Summary,
		Experience:  r.Experience,
		Education:   r.Education,
		Skills:      r.Skills,
	}
}

type ResumeResponse struct {
	ID            string                   `json:"id"`
	Name          string                   `json:"name"`
	Email         string                   `json:"email"`
	Phone         string                   `json:"phone"`
	DesiredRole   string                   `json:"desired_role"`
	Summary       string                   `json:"summary"`
	Experience    []models.Experience      `json:"experience"`
	Education     []models.Education       `json:"education"`
	Skills        []string                 `json:"skills"`
	TransactionID string                   `json:"transaction_id,omitempty"`
	Verification  *vhandler.ResultResponse `json:"verification,omitempty"`
	Verified      bool                     `json:"verified"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

type ListResponse struct {
	Resumes []ResumeResponse `json:"resumes"`
	Count   int              `json:"count"`
	Total   int              `json:"total"`
}

type ReverifyResponse struct {
	Status string                   `json:"status"`
	Result *vhandler.ResultResponse `json:"result"`
	Resume ResumeResponse           `json:"resume"`
}

func toResponse(r models.Resume) ResumeResponse {
	resp := ResumeResponse{
		ID:            r.ID.String(),
		Name:          r.Name,
		Email:         r.Email,
		Phone:         r.Phone,
		DesiredRole:   r.DesiredRole,
		Summary:       r.Summary,
		Experience:    nonNil(r.Experience),
		Education:     nonNil(r.Education),
		Skills:        nonNil(r.Skills),
		TransactionID: r.TransactionID.String(),
		Verified:      r.IsVerified(),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.Verification != nil {
		resp.Verification = vhandler.NewResultResponse(*r.Verification)
	}
	return resp
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
