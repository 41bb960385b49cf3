// Package domain provides type-safe identifiers shared across packages.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "talentmatch/pkg/domain-errors"
)

// ResumeID identifies a résumé record.
type ResumeID uuid.UUID

// SlotID names a UI slot owning one verification session (e.g. "candidate-form"
// or "resume-<id>"). Starting a new attempt in a slot replaces the previous one.
type SlotID string

const maxSlotIDLength = 64

// NewResumeID generates a random résumé ID.
func NewResumeID() ResumeID {
	return ResumeID(uuid.New())
}

// ParseResumeID validates a résumé ID at trust boundaries.
func ParseResumeID(s string) (ResumeID, error) {
	if s == "" {
		return ResumeID{}, dErrors.New(dErrors.CodeInvalidInput, "resume ID cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return ResumeID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid resume ID format")
	}
	return ResumeID(id), nil
}

// ParseSlotID accepts short identifiers made of letters, digits, '-' and '_'.
func ParseSlotID(s string) (SlotID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "slot cannot be empty")
	}
	if len(s) > maxSlotIDLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "slot is too long")
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return "", dErrors.New(dErrors.CodeInvalidInput, "slot contains invalid characters")
		}
	}
	return SlotID(s), nil
}

// ResumeSlot returns the slot used by the detail view of a résumé.
func ResumeSlot(id ResumeID) SlotID {
	return SlotID("resume-" + id.String())
}

func (id ResumeID) String() string { return uuid.UUID(id).String() }
func (id SlotID) String() string   { return string(id) }

func (id ResumeID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id SlotID) IsNil() bool   { return id == "" }
