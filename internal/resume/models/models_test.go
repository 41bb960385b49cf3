package models

import (
	"testing"

	"github.com/stretchr/testify/assert"

	vmodels "talentmatch/internal/verification/models"
)

func sample() Resume {
	return Resume{
		Name:        "Mei-Li Lin",
		DesiredRole: "Senior Frontend Engineer",
		Summary:     "Five years building React applications.",
		Skills:      []string{"React", "TypeScript"},
	}
}

func TestMatches(t *testing.T) {
	r := sample()
	assert.True(t, r.Matches("mei-li"))
	assert.True(t, r.Matches("FRONTEND"))
	assert.True(t, r.Matches("react applications"))
	assert.True(t, r.Matches("typescript"))
	assert.False(t, r.Matches("figma"))
}

func TestFilter(t *testing.T) {
	r := sample()
	assert.True(t, Filter{}.Match(r))
	assert.True(t, Filter{Role: "frontend", Query: "react"}.Match(r))
	assert.False(t, Filter{Role: "designer", Query: "react"}.Match(r))
}

func TestUpdateApply(t *testing.T) {
	r := sample()
	role := "Staff Engineer"
	Update{DesiredRole: &role, Skills: []string{"Go"}}.Apply(&r)

	assert.Equal(t, "Staff Engineer", r.DesiredRole)
	assert.Equal(t, []string{"Go"}, r.Skills)
	assert.Equal(t, "Mei-Li Lin", r.Name)
}

func TestCloneIsDeep(t *testing.T) {
	r := sample()
	r.Verification = &vmodels.Result{
		TransactionID: "tx",
		Verified:      true,
		Credentials:   []vmodels.Credential{{CredentialType: "StudentID", Claims: []vmodels.Claim{{FieldKey: "school", Value: "NTU"}}}},
	}

	c := r.Clone()
	c.Skills[0] = "Vue"
	c.Verification.Credentials[0].Claims[0].Value = "NCKU"

	assert.Equal(t, "React", r.Skills[0])
	assert.Equal(t, "NTU", r.Verification.Credentials[0].Claims[0].Value)
	assert.True(t, r.IsVerified())
}
