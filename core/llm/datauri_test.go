package llm

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDataURL(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("image-bytes"))

	mimeType, data, err := decodeDataURL("data:image/jpeg;base64," + payload)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mimeType)
	assert.Equal(t, []byte("image-bytes"), data)

	// Missing media type falls back to the generic one.
	mimeType, _, err = decodeDataURL("data:;base64," + payload)
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", mimeType)
}

func TestDecodeDataURLErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "not a data URL", in: "https://example.com/a.png"},
		{name: "no comma", in: "data:image/png;base64"},
		{name: "not base64 encoded", in: "data:text/plain,hello"},
		{name: "invalid base64", in: "data:image/png;base64,!!!"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := decodeDataURL(tc.in)
			assert.Error(t, err)
		})
	}
}
