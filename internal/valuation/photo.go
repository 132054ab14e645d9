package valuation

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/webp"
)

// MaxPhotoBytes is the largest decoded photo accepted for estimation (10MB).
const MaxPhotoBytes = 10 * 1024 * 1024

// formatMIMETypes maps image.DecodeConfig format names to MIME types.
var formatMIMETypes = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// Photo is decoded image data together with its MIME type.
type Photo struct {
	MIMEType string
	Data     []byte
}

// NewPhoto validates raw image bytes. The declared MIME type is only checked
// for being an image type; the stored type is the one detected from the data.
func NewPhoto(data []byte, declaredMIME string) (*Photo, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: photo is empty", ErrInvalidRequest)
	}
	if len(data) > MaxPhotoBytes {
		return nil, fmt.Errorf("%w: photo is %d bytes, limit is %d", ErrInvalidRequest, len(data), MaxPhotoBytes)
	}
	if declaredMIME != "" && !strings.HasPrefix(strings.ToLower(declaredMIME), "image/") {
		return nil, fmt.Errorf("%w: expected image/*, got %s", ErrInvalidRequest, declaredMIME)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: unsupported image: %v", ErrInvalidRequest, err)
	}
	mimeType, ok := formatMIMETypes[format]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported image format %s", ErrInvalidRequest, format)
	}

	return &Photo{MIMEType: mimeType, Data: data}, nil
}

// ParseDataURI decodes encoded image data of the form
// data:<mimetype>;base64,<encoded_data>.
func ParseDataURI(uri string) (*Photo, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, fmt.Errorf("%w: photo is empty", ErrInvalidRequest)
	}
	if !strings.HasPrefix(strings.ToLower(uri), "data:") {
		return nil, fmt.Errorf("%w: photo must be a data URI", ErrInvalidRequest)
	}

	comma := strings.IndexByte(uri, ',')
	if comma < 0 {
		return nil, fmt.Errorf("%w: data URI has no payload", ErrInvalidRequest)
	}
	meta := uri[len("data:"):comma]
	payload := uri[comma+1:]

	mimeType, params, _ := strings.Cut(meta, ";")
	if !strings.Contains(strings.ToLower(params), "base64") {
		return nil, fmt.Errorf("%w: data URI must use base64 encoding", ErrInvalidRequest)
	}

	data, err := decodeBase64(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: bad base64 payload: %v", ErrInvalidRequest, err)
	}

	return NewPhoto(data, mimeType)
}

// decodeBase64 accepts standard and URL-safe alphabets, padded or not.
func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.RawURLEncoding,
	}
	var firstErr error
	for _, enc := range encodings {
		b, err := enc.DecodeString(s)
		if err == nil {
			return b, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

// DataURI returns the photo as encoded image data.
func (p *Photo) DataURI() string {
	return "data:" + p.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}
