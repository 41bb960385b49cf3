// Package validation holds size limits enforced at trust boundaries.
package validation

import (
	"fmt"

	dErrors "talentmatch/pkg/domain-errors"
)

// MaxBodySize caps JSON request bodies (64 KB). Résumés with long
// experience lists are the largest payload.
const MaxBodySize = 64 * 1024

// Credential issuance limits.
const (
	MaxCredentialFields        = 30
	MaxCredentialKeyLength     = 64
	MaxCredentialContentLength = 512
	MaxCredentialVCUIDLength   = 100
)

// CheckSliceCount fails when count exceeds max.
func CheckSliceCount(fieldName string, count, max int) error {
	if count > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("too many %s: max %d allowed", fieldName, max))
	}
	return nil
}

// CheckStringLength fails when value is longer than max bytes.
func CheckStringLength(fieldName, value string, max int) error {
	if len(value) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
	}
	return nil
}
