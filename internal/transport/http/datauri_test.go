package httptransport

import (
	"bytes"
	"encoding/base64"
	"testing"
)

func TestDecodeImageFieldDataURL(t *testing.T) {
	raw := []byte{0x89, 0x50, 0x4E, 0x47}
	value := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)

	data, mime, err := DecodeImageField(value)
	if err != nil {
		t.Fatalf("DecodeImageField: %v", err)
	}
	if !bytes.Equal(data, raw) {
		t.Errorf("data = %v, want %v", data, raw)
	}
	if mime != "image/png" {
		t.Errorf("mime = %q, want image/png", mime)
	}
}

func TestDecodeImageFieldBareBase64(t *testing.T) {
	raw := []byte("hello")
	data, mime, err := DecodeImageField(base64.StdEncoding.EncodeToString(raw))
	if err != nil {
		t.Fatalf("DecodeImageField: %v", err)
	}
	if !bytes.Equal(data, raw) {
		t.Errorf("data = %q, want %q", data, raw)
	}
	if mime != "" {
		t.Errorf("mime = %q, want empty", mime)
	}
}

func TestDecodeImageFieldRejectsBadInput(t *testing.T) {
	cases := []struct {
		name  string
		value string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"malformed data URL", "data:image/png;base64"},
		{"invalid base64", "data:image/png;base64,!!!"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := DecodeImageField(tc.value); err == nil {
				t.Errorf("DecodeImageField(%q) succeeded, want error", tc.value)
			}
		})
	}
}
