package main

import (
	"encoding/json"
	"fmt"
	"io"

	"talentmatch/internal/verification/models"
)

type claimOutput struct {
	Key   string `json:"ename"`
	Name  string `json:"cname"`
	Value string `json:"value"`
}

type credentialOutput struct {
	Type   string        `json:"credential_type"`
	Claims []claimOutput `json:"claims"`
}

type resultOutput struct {
	TransactionID string             `json:"transaction_id"`
	Verified      bool               `json:"verified"`
	Description   string             `json:"description,omitempty"`
	Credentials   []credentialOutput `json:"credentials"`
}

func newResultOutput(r models.Result) resultOutput {
	out := resultOutput{
		TransactionID: r.TransactionID.String(),
		Verified:      r.Verified,
		Description:   r.Description,
		Credentials:   make([]credentialOutput, 0, len(r.Credentials)),
	}
	for _, c := range r.Credentials {
		co := credentialOutput{Type: c.CredentialType, Claims: make([]claimOutput, 0, len(c.Claims))}
		for _, cl := range c.Claims {
			co.Claims = append(co.Claims, claimOutput{Key: cl.FieldKey, Name: cl.DisplayName, Value: cl.Value})
		}
		out.Credentials = append(out.Credentials, co)
	}
	return out
}

func printResult(w io.Writer, format string, r models.Result) error {
	out := newResultOutput(r)
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	status := "NOT VERIFIED"
	if out.Verified {
		status = "VERIFIED"
	}
	fmt.Fprintf(w, "%s  transaction %s\n", status, out.TransactionID)
	if out.Description != "" {
		fmt.Fprintf(w, "  %s\n", out.Description)
	}
	for _, c := range out.Credentials {
		fmt.Fprintf(w, "  %s\n", c.Type)
		for _, cl := range c.Claims {
			name := cl.Name
			if name == "" {
				name = cl.Key
			}
			fmt.Fprintf(w, "    %s: %s\n", name, cl.Value)
		}
	}
	return nil
}
