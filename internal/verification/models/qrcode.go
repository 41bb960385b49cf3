package models

import (
	"encoding/base64"
	"strings"

	dErrors "talentmatch/pkg/domain-errors"
)

// DecodeQRCodeImage decodes a verifier qrcodeImage, given either as a data
// URI or as bare base64. The content type defaults to image/png.
func DecodeQRCodeImage(raw string) (contentType string, img []byte, err error) {
	contentType = "image/png"
	payload := raw
	if rest, ok := strings.CutPrefix(raw, "data:"); ok {
		meta, data, found := strings.Cut(rest, ",")
		if !found {
			return "", nil, dErrors.New(dErrors.CodeUpstream, "malformed data URI")
		}
		if mediaType, _, _ := strings.Cut(meta, ";"); mediaType != "" {
			contentType = mediaType
		}
		payload = data
	}
	img, err = base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return "", nil, err
	}
	return contentType, img, nil
}
