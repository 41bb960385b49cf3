package testutil

import (
	"time"

	resumemodels "talentmatch/internal/resume/models"
	vmodels "talentmatch/internal/verification/models"
	"talentmatch/pkg/domain"
)

// ResumeBuilder provides a fluent interface for building test résumés.
type ResumeBuilder struct {
	resume resumemodels.Resume
}

// NewResumeBuilder starts from an unverified candidate with sensible defaults.
func NewResumeBuilder() *ResumeBuilder {
	now := time.Now()
	return &ResumeBuilder{
		resume: resumemodels.Resume{
			ID:          domain.NewResumeID(),
			Name:        "Test Candidate",
			Email:       "candidate@example.com",
			DesiredRole: "Backend Engineer",
			Skills:      []string{"Go"},
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
}

func (b *ResumeBuilder) WithID(id domain.ResumeID) *ResumeBuilder {
	b.resume.ID = id
	return b
}

func (b *ResumeBuilder) WithName(name string) *ResumeBuilder {
	b.resume.Name = name
	return b
}

func (b *ResumeBuilder) WithRole(role string) *ResumeBuilder {
	b.resume.DesiredRole = role
	return b
}

func (b *ResumeBuilder) WithSkills(skills ...string) *ResumeBuilder {
	b.resume.Skills = skills
	return b
}

// Verified attaches a verified StudentID result for txID.
func (b *ResumeBuilder) Verified(txID vmodels.TransactionID) *ResumeBuilder {
	result := VerifiedResult(txID, "success")
	b.resume.TransactionID = txID
	b.resume.Verification = &result
	return b
}

func (b *ResumeBuilder) Build() resumemodels.Resume {
	return b.resume.Clone()
}

// VerifiedResult is the demo wallet's answer: one StudentID credential with
// a school claim.
func VerifiedResult(txID vmodels.TransactionID, description string) vmodels.Result {
	return vmodels.Result{
		TransactionID: txID,
		Verified:      true,
		Description:   description,
		Credentials: []vmodels.Credential{{
			CredentialType: "StudentID",
			Claims: []vmodels.Claim{
				{FieldKey: "school", DisplayName: "School", Value: "National Taiwan University"},
			},
		}},
		CheckedAt: time.Now(),
	}
}
