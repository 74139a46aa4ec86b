package httptransport

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DecodeImageField accepts either a bare base64 string or a full
// "data:<mime>;base64,<payload>" URL and returns the raw bytes plus the
// declared mime type (empty when the input carried none).
func DecodeImageField(value string) ([]byte, string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, "", fmt.Errorf("image is required")
	}

	mime := ""
	if strings.HasPrefix(value, "data:") {
		comma := strings.Index(value, ",")
		if comma < 0 {
			return nil, "", fmt.Errorf("malformed data URL")
		}
		header := value[len("data:"):comma]
		if i := strings.Index(header, ";"); i >= 0 {
			header = header[:i]
		}
		mime = header
		value = value[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64 image data: %w", err)
	}

	return data, mime, nil
}
