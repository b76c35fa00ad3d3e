// dataurl.go - Data URL handling for captured images

package processor

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DataURL is a decoded "data:<mime>;base64,<payload>" image
type DataURL struct {
	MIMEType string
	Data     []byte
}

// ParseDataURL decodes a base64 data URL. Non-base64 data URLs are rejected.
func ParseDataURL(s string) (*DataURL, error) {
	if !strings.HasPrefix(s, "data:") {
		return nil, fmt.Errorf("not a data URL")
	}

	comma := strings.IndexByte(s, ',')
	if comma < 0 {
		return nil, fmt.Errorf("data URL has no payload")
	}

	meta := s[len("data:"):comma]
	params := strings.Split(meta, ";")
	if params[len(params)-1] != "base64" {
		return nil, fmt.Errorf("data URL is not base64 encoded")
	}

	data, err := base64.StdEncoding.DecodeString(s[comma+1:])
	if err != nil {
		return nil, fmt.Errorf("failed to decode data URL payload: %w", err)
	}

	mimeType := params[0]
	if mimeType == "" || mimeType == "base64" {
		mimeType = mimetype.Detect(data).String()
	}

	return &DataURL{MIMEType: mimeType, Data: data}, nil
}

// String renders the data URL form
func (d *DataURL) String() string {
	return BuildDataURL(d.MIMEType, d.Data)
}

// BuildDataURL encodes data as a base64 data URL
func BuildDataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DataURLFromUpload sniffs the content type of an uploaded file and wraps it as a data URL.
// Only image content is accepted.
func DataURLFromUpload(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty upload")
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", fmt.Errorf("unsupported upload type %s", mtype.String())
	}

	return BuildDataURL(mtype.String(), data), nil
}
