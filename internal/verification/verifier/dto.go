package verifier

import (
	"time"

	"talentmatch/internal/verification/models"
)

// qrcodeResponse is the body of GET /oidvp/qrcode.
type qrcodeResponse struct {
	QRCodeImage   string `json:"qrcodeImage"`
	TransactionID string `json:"transactionId"`
}

// resultRequest is the body of POST /oidvp/result.
type resultRequest struct {
	TransactionID string `json:"transactionId"`
}

// resultResponse is the body of GET and POST /oidvp/result.
type resultResponse struct {
	VerifyResult      bool            `json:"verifyResult"`
	ResultDescription string          `json:"resultDescription"`
	TransactionID     string          `json:"transactionId"`
	Data              []credentialDTO `json:"data"`
}

type credentialDTO struct {
	CredentialType string     `json:"credentialType"`
	Claims         []claimDTO `json:"claims"`
}

type claimDTO struct {
	Ename string `json:"ename"`
	Cname string `json:"cname"`
	Value string `json:"value"`
}

// errorResponse is what the sandbox returns alongside 4xx codes.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (r resultResponse) toResult(fallback models.TransactionID, checkedAt time.Time) models.Result {
	txID := models.TransactionID(r.TransactionID)
	if txID == "" {
		txID = fallback
	}
	creds := make([]models.Credential, 0, len(r.Data))
	for _, c := range r.Data {
		claims := make([]models.Claim, 0, len(c.Claims))
		for _, cl := range c.Claims {
			claims = append(claims, models.Claim{
				FieldKey:    cl.Ename,
				DisplayName: cl.Cname,
				Value:       cl.Value,
			})
		}
		creds = append(creds, models.Credential{
			CredentialType: c.CredentialType,
			Claims:         claims,
		})
	}
	return models.Result{
		TransactionID: txID,
		Verified:      r.VerifyResult,
		Description:   r.ResultDescription,
		Credentials:   creds,
		CheckedAt:     checkedAt,
	}
}
