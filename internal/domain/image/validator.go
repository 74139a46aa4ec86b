package image

import (
	"fmt"
	"net/http"
	"strings"

	"stitchsense-server-go/internal/platform/errors"
)

// Payload is an uploaded image ready to hand to a provider adapter.
type Payload struct {
	Data     []byte
	MimeType string
}

var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
}

// Validate checks the uploaded bytes and returns a normalized payload.
// The mime type is sniffed from content; the declared type is only used
// when sniffing is inconclusive.
func Validate(data []byte, declaredMime string, maxSize int64) (*Payload, error) {
	if len(data) == 0 {
		return nil, errors.New(errors.KindValidation, "image.validate", "image is required")
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return nil, errors.New(errors.KindValidation, "image.validate",
			fmt.Sprintf("image exceeds maximum size of %d bytes", maxSize))
	}

	mime := sniffMime(data)
	if mime == "" {
		mime = normalizeMime(declaredMime)
	}
	if !allowedMimeTypes[mime] {
		return nil, errors.New(errors.KindValidation, "image.validate",
			fmt.Sprintf("unsupported image type %q", mime))
	}

	return &Payload{Data: data, MimeType: mime}, nil
}

func sniffMime(data []byte) string {
	detected := http.DetectContentType(data)
	if strings.HasPrefix(detected, "image/") {
		return detected
	}
	return ""
}

func normalizeMime(mime string) string {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	if mime == "image/jpg" {
		return "image/jpeg"
	}
	return mime
}
