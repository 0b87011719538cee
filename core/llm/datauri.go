package llm

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// decodeDataURL splits a base64 data URL into its MIME type and raw bytes.
// Format: data:[<mediatype>][;base64],<data>
func decodeDataURL(dataURL string) (string, []byte, error) {
	after, found := strings.CutPrefix(dataURL, "data:")
	if !found {
		return "", nil, fmt.Errorf("not a data URL")
	}

	prefix, payload, hasComma := strings.Cut(after, ",")
	if !hasComma {
		return "", nil, fmt.Errorf("invalid data URL: no comma separator")
	}

	mimeType, _, hasBase64 := strings.Cut(prefix, ";base64")
	if !hasBase64 {
		return "", nil, fmt.Errorf("only base64 data URLs are supported")
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("base64 decode failed: %w", err)
	}

	return mimeType, data, nil
}
