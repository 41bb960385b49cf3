package handler

import (
	"time"

	"talentmatch/internal/verification/models"
	"talentmatch/internal/verification/session"
)

type BeginResponse struct {
	Slot          string `json:"slot"`
	TransactionID string `json:"transaction_id"`
	State         string `json:"state"`
	QRCodeImage   string `json:"qrcode_image"`
	ResumeID      string `json:"resume_id,omitempty"`
}

type ClaimResponse struct {
	FieldKey    string `json:"ename"`
	DisplayName string `json:"cname"`
	Value       string `json:"value"`
}

type CredentialResponse struct {
	CredentialType string          `json:"credential_type"`
	Claims         []ClaimResponse `json:"claims"`
}

// ResultResponse is the JSON form of a verification result, shared with the
// résumé API.
type ResultResponse struct {
	TransactionID string               `json:"transaction_id"`
	Verified      bool                 `json:"verified"`
	Description   string               `json:"description,omitempty"`
	Credentials   []CredentialResponse `json:"credentials"`
	CheckedAt     *time.Time           `json:"checked_at,omitempty"`
}

type FailureResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type StatusResponse struct {
	Slot          string           `json:"slot"`
	State         string           `json:"state"`
	TransactionID string           `json:"transaction_id,omitempty"`
	Generation    uint64           `json:"generation"`
	QRCodeImage   string           `json:"qrcode_image,omitempty"`
	Result        *ResultResponse  `json:"result,omitempty"`
	Failure       *FailureResponse `json:"failure,omitempty"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// NewResultResponse converts a result for JSON output.
func NewResultResponse(r models.Result) *ResultResponse {
	out := &ResultResponse{
		TransactionID: r.TransactionID.String(),
		Verified:      r.Verified,
		Description:   r.Description,
		Credentials:   make([]CredentialResponse, 0, len(r.Credentials)),
	}
	if !r.CheckedAt.IsZero() {
		checked := r.CheckedAt
		out.CheckedAt = &checked
	}
	for _, c := range r.Credentials {
		cred := CredentialResponse{
			CredentialType: c.CredentialType,
			Claims:         make([]ClaimResponse, 0, len(c.Claims)),
		}
		for _, claim := range c.Claims {
			cred.Claims = append(cred.Claims, ClaimResponse{
				FieldKey:    claim.FieldKey,
				DisplayName: claim.DisplayName,
				Value:       claim.Value,
			})
		}
		out.Credentials = append(out.Credentials, cred)
	}
	return out
}

func newStatusResponse(snap session.Snapshot) StatusResponse {
	resp := StatusResponse{
		Slot:          snap.Slot.String(),
		State:         snap.State.String(),
		TransactionID: snap.TransactionID.String(),
		Generation:    snap.Generation,
		UpdatedAt:     snap.UpdatedAt,
	}
	if snap.Request != nil && !snap.State.IsTerminal() {
		resp.QRCodeImage = snap.Request.QRCodeImage
	}
	if snap.Result != nil {
		resp.Result = NewResultResponse(*snap.Result)
	}
	if err := snapshotFailure(snap); err != nil {
		kind, ok := models.FailureKindOf(err)
		if !ok {
			kind = models.FailurePollFatal
		}
		resp.Failure = &FailureResponse{Kind: string(kind), Message: err.Error()}
	}
	return resp
}

// snapshotFailure picks the failure to report: an attempt failure, or a
// verified attempt whose result could not be delivered.
func snapshotFailure(snap session.Snapshot) error {
	if snap.Err != nil {
		return snap.Err
	}
	return snap.DeliveryErr
}
