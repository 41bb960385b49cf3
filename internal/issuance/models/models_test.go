package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "talentmatch/pkg/domain-errors"
)

func TestNewRequest(t *testing.T) {
	t.Run("normalizes dates and date-like fields", func(t *testing.T) {
		req, err := NewRequest(" 00000000_demovc ", "2025-09-01", "20260901", []Field{
			{Key: "name", Content: "Mei-Li Lin"},
			{Key: "birthDate", Content: "1996-04-12"},
			{Key: "company", Content: "Tech-Infinite"},
		})
		require.NoError(t, err)

		assert.Equal(t, "00000000_demovc", req.VCUID)
		assert.Equal(t, "20250901", req.IssuanceDate)
		assert.Equal(t, "20260901", req.ExpiredDate)
		assert.Equal(t, []Field{
			{Key: "name", Content: "Mei-Li Lin"},
			{Key: "birthDate", Content: "19960412"},
			{Key: "company", Content: "Tech-Infinite"},
		}, req.Fields)
	})

	tests := []struct {
		name     string
		vcUID    string
		issued   string
		expires  string
		fields   []Field
		contains string
	}{
		{"missing vc uid", "", "2025-01-01", "2025-12-31", nil, "vc_uid"},
		{"missing issuance date", "vc", "", "2025-12-31", nil, "issuance_date"},
		{"bad expiry", "vc", "2025-01-01", "2025-13-01", nil, "expired_date"},
		{"expiry before issuance", "vc", "2025-06-01", "2025-01-01", nil, "precede"},
		{"empty field key", "vc", "2025-01-01", "2025-12-31", []Field{{Key: " ", Content: "x"}}, "field key"},
		{"too many fields", "vc", "2025-01-01", "2025-12-31", make([]Field, 31), "too many fields"},
		{"long content", "vc", "2025-01-01", "2025-12-31", []Field{{Key: "bio", Content: strings.Repeat("x", 513)}}, "field content"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRequest(tt.vcUID, tt.issued, tt.expires, tt.fields)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}
