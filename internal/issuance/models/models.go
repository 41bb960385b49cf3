// Package models holds the credential issuance payload sent to the issuer.
package models

import (
	"strings"
	"time"

	dErrors "talentmatch/pkg/domain-errors"
	"talentmatch/pkg/platform/validation"
)

const dateLayout = "20060102"

// Field is one custom credential attribute.
type Field struct {
	Key     string `json:"ename"`
	Content string `json:"content"`
}

// Request is the issuer wire payload. Dates are yyyymmdd.
type Request struct {
	VCUID        string  `json:"vcUid"`
	IssuanceDate string  `json:"issuanceDate"`
	ExpiredDate  string  `json:"expiredDate"`
	Fields       []Field `json:"fields"`
}

// Offer is the issuer's answer: a credential offer the wallet can scan.
type Offer struct {
	TransactionID string `json:"transactionId"`
	QRCode        string `json:"qrCode"`
	DeepLink      string `json:"deepLink"`
}

// NewRequest normalizes form input into an issuer payload. Dates may be
// given as yyyy-mm-dd or yyyymmdd; fields whose key mentions "date" get
// their dashes stripped the same way.
func NewRequest(vcUID, issuanceDate, expiredDate string, fields []Field) (Request, error) {
	vcUID = strings.TrimSpace(vcUID)
	if vcUID == "" {
		return Request{}, dErrors.New(dErrors.CodeValidation, "vc_uid is required")
	}
	if err := validation.CheckStringLength("vc_uid", vcUID, validation.MaxCredentialVCUIDLength); err != nil {
		return Request{}, err
	}
	if err := validation.CheckSliceCount("fields", len(fields), validation.MaxCredentialFields); err != nil {
		return Request{}, err
	}

	issued, err := normalizeDate("issuance_date", issuanceDate)
	if err != nil {
		return Request{}, err
	}
	expires, err := normalizeDate("expired_date", expiredDate)
	if err != nil {
		return Request{}, err
	}
	// yyyymmdd compares chronologically as a string.
	if expires < issued {
		return Request{}, dErrors.New(dErrors.CodeValidation, "expired_date must not precede issuance_date")
	}

	out := Request{
		VCUID:        vcUID,
		IssuanceDate: issued,
		ExpiredDate:  expires,
		Fields:       make([]Field, 0, len(fields)),
	}
	for _, f := range fields {
		key := strings.TrimSpace(f.Key)
		if key == "" {
			return Request{}, dErrors.New(dErrors.CodeValidation, "field key cannot be empty")
		}
		if err := validation.CheckStringLength("field key", key, validation.MaxCredentialKeyLength); err != nil {
			return Request{}, err
		}
		if err := validation.CheckStringLength("field content", f.Content, validation.MaxCredentialContentLength); err != nil {
			return Request{}, err
		}
		content := f.Content
		if strings.Contains(strings.ToLower(key), "date") {
			content = strings.ReplaceAll(content, "-", "")
		}
		out.Fields = append(out.Fields, Field{Key: key, Content: content})
	}
	return out, nil
}

func normalizeDate(name, raw string) (string, error) {
	d := strings.ReplaceAll(strings.TrimSpace(raw), "-", "")
	if d == "" {
		return "", dErrors.New(dErrors.CodeValidation, name+" is required")
	}
	if _, err := time.Parse(dateLayout, d); err != nil {
		return "", dErrors.New(dErrors.CodeValidation, name+" must be a date (yyyy-mm-dd)")
	}
	return d, nil
}
