package models

import (
	"slices"
	"strings"
	"time"

	vmodels "talentmatch/internal/verification/models"
	"talentmatch/pkg/domain"
)

// Experience is one job on a résumé.
type Experience struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
}

// Education is one degree on a résumé.
type Education struct {
	ID       string `json:"id"`
	Degree   string `json:"degree"`
	School   string `json:"school"`
	Duration string `json:"duration"`
}

// Resume is a candidate record. Verification is the result attached by the
// last successful verification of TransactionID; it is replaced wholesale on
// re-verification and never edited in place.
type Resume struct {
	ID            domain.ResumeID
	Name          string
	Email         string
	Phone         string
	DesiredRole   string
	Summary       string
	Experience    []Experience
	Education     []Education
	Skills        []string
	TransactionID vmodels.TransactionID
	Verification  *vmodels.Result
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Clone returns a deep copy.
func (r Resume) Clone() Resume {
	out := r
	out.Experience = slices.Clone(r.Experience)
	out.Education = slices.Clone(r.Education)
	out.Skills = slices.Clone(r.Skills)
	if r.Verification != nil {
		v := r.Verification.Clone()
		out.Verification = &v
	}
	return out
}

// IsVerified reports whether a verified result is attached.
func (r Resume) IsVerified() bool {
	return r.Verification != nil && r.Verification.Verified
}

// HasRole matches role case-insensitively as a substring of DesiredRole.
func (r Resume) HasRole(role string) bool {
	return strings.Contains(strings.ToLower(r.DesiredRole), strings.ToLower(role))
}

// Matches reports whether query occurs in the name, role, summary or any
// skill, ignoring case.
func (r Resume) Matches(query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(r.Name), q) ||
		strings.Contains(strings.ToLower(r.DesiredRole), q) ||
		strings.Contains(strings.ToLower(r.Summary), q) {
		return true
	}
	return slices.ContainsFunc(r.Skills, func(skill string) bool {
		return strings.Contains(strings.ToLower(skill), q)
	})
}

// Filter narrows a listing. Empty fields match everything.
type Filter struct {
	Query string
	Role  string
}

func (f Filter) Match(r Resume) bool {
	if f.Role != "" && !r.HasRole(f.Role) {
		return false
	}
	if f.Query != "" && !r.Matches(f.Query) {
		return false
	}
	return true
}

// Update is a partial update. Nil fields are left untouched.
type Update struct {
	Name        *string
	Email       *string
	Phone       *string
	DesiredRole *string
	Summary     *string
	Experience  []Experience
	Education   []Education
	Skills      []string
}

// Apply copies the set fields onto r.
func (u Update) Apply(r *Resume) {
	if u.Name != nil {
		r.Name = *u.Name
	}
	if u.Email != nil {
		r.Email = *u.Email
	}
	if u.Phone != nil {
		r.Phone = *u.Phone
	}
	if u.DesiredRole != nil {
		r.DesiredRole = *u.DesiredRole
	}
	if u.Summary != nil {
		r.Summary = *u.Summary
	}
	if u.Experience != nil {
		r.Experience = slices.Clone(u.Experience)
	}
	if u.Education != nil {
		r.Education = slices.Clone(u.Education)
	}
	if u.Skills != nil {
		r.Skills = slices.Clone(u.Skills)
	}
}

// ReverifyStatus is the outcome of a single re-verification query.
type ReverifyStatus string

const (
	ReverifyVerified ReverifyStatus = "verified"
	ReverifyFailed   ReverifyStatus = "failed"
)

// ReverifyOutcome carries the verifier's answer and the résumé after it was
// applied. A failed outcome leaves Resume.Verification untouched.
type ReverifyOutcome struct {
	Status ReverifyStatus
	Resume Resume
	Result vmodels.Result
}
