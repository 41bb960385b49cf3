package models

import (
	"slices"
	"time"
)

// DemoVerifierRef is the verification policy the demo wallet sandbox exposes.
const DemoVerifierRef = "00000000_demovp"

// Request is a scannable proof request bound to one transaction.
type Request struct {
	TransactionID TransactionID
	// QRCodeImage is the renderable payload returned by the verifier,
	// typically a data URI or bare base64 PNG.
	QRCodeImage string
	CreatedAt   time.Time
}

// Claim is one attested attribute.
type Claim struct {
	FieldKey    string
	DisplayName string
	Value       string
}

// Credential bundles the claims of one wallet-issued credential type.
type Credential struct {
	CredentialType string
	Claims         []Claim
}

// Result is the terminal artifact of a verification attempt.
type Result struct {
	TransactionID TransactionID
	Verified      bool
	Description   string
	Credentials   []Credential
	CheckedAt     time.Time
}

// Clone returns a deep copy so callers holding an attached result can't
// mutate the copy owned by a session or a résumé.
func (r Result) Clone() Result {
	out := r
	out.Credentials = make([]Credential, len(r.Credentials))
	for i, c := range r.Credentials {
		out.Credentials[i] = Credential{
			CredentialType: c.CredentialType,
			Claims:         slices.Clone(c.Claims),
		}
	}
	return out
}

// Claim looks up a claim by field key across all credentials, first match wins.
func (r Result) Claim(fieldKey string) (Claim, bool) {
	for _, c := range r.Credentials {
		for _, claim := range c.Claims {
			if claim.FieldKey == fieldKey {
				return claim, true
			}
		}
	}
	return Claim{}, false
}
