package models

import (
	"math/rand/v2"
	"strings"
	"sync/atomic"
	"time"

	dErrors "talentmatch/pkg/domain-errors"
)

// TransactionID correlates a verification request with its eventual result.
type TransactionID string

const (
	transactionIDTemplate = "xxxxxxxx-xxxx-4xxx-yxxx-xxxxxxxxxxxx"
	hexDigits             = "0123456789abcdef"
)

var transactionSeq atomic.Uint64

// NewTransactionID returns a random-form (version 4, variant 8-b) identifier.
// Nibbles are drawn from the nanosecond clock mixed with a pseudo-random fill;
// unique enough for a session, not suitable as a secret.
func NewTransactionID() TransactionID {
	d := uint64(time.Now().UnixNano()) + transactionSeq.Add(1)
	buf := []byte(transactionIDTemplate)
	for i, c := range buf {
		if c != 'x' && c != 'y' {
			continue
		}
		r := (d + rand.Uint64N(16)) % 16
		d /= 16
		if c == 'y' {
			r = r&0x3 | 0x8
		}
		buf[i] = hexDigits[r]
	}
	return TransactionID(buf)
}

// ParseTransactionID validates the 8-4-4-4-12 hex grouping. Version and variant
// nibbles are not enforced: the verifier may hand back IDs it minted itself.
func ParseTransactionID(s string) (TransactionID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "transaction ID cannot be empty")
	}
	if !isCanonicalHexGrouping(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid transaction ID format")
	}
	return TransactionID(strings.ToLower(s)), nil
}

func isCanonicalHexGrouping(s string) bool {
	if len(s) != len(transactionIDTemplate) {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if transactionIDTemplate[i] == '-' {
			if c != '-' {
				return false
			}
			continue
		}
		if !strings.ContainsRune(hexDigits+"ABCDEF", rune(c)) {
			return false
		}
	}
	return true
}

func (id TransactionID) String() string { return string(id) }
func (id TransactionID) IsNil() bool    { return id == "" }
