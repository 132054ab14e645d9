package valuation

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func TestNewPhoto(t *testing.T) {
	pngData := testPNG(t)

	tests := []struct {
		name     string
		data     []byte
		mime     string
		wantMIME string
		wantErr  bool
	}{
		{name: "png with declared type", data: pngData, mime: "image/png", wantMIME: "image/png"},
		{name: "png without declared type", data: pngData, wantMIME: "image/png"},
		{name: "detected type wins over declared", data: testJPEG(t), mime: "image/png", wantMIME: "image/jpeg"},
		{name: "empty data", data: nil, wantErr: true},
		{name: "not an image", data: []byte("hello world"), wantErr: true},
		{name: "non-image declared type", data: pngData, mime: "application/pdf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			photo, err := NewPhoto(tt.data, tt.mime)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidRequest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMIME, photo.MIMEType)
		})
	}
}

func TestNewPhoto_TooLarge(t *testing.T) {
	_, err := NewPhoto(make([]byte, MaxPhotoBytes+1), "image/png")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestParseDataURI_RoundTrip(t *testing.T) {
	pngData := testPNG(t)
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngData)

	photo, err := ParseDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, "image/png", photo.MIMEType)
	assert.Equal(t, pngData, photo.Data)
	assert.Equal(t, uri, photo.DataURI())
}

func TestParseDataURI_AcceptsURLSafeAndUnpadded(t *testing.T) {
	pngData := testPNG(t)

	for _, enc := range []*base64.Encoding{base64.URLEncoding, base64.RawStdEncoding, base64.RawURLEncoding} {
		photo, err := ParseDataURI("data:image/png;base64," + enc.EncodeToString(pngData))
		require.NoError(t, err)
		assert.Equal(t, pngData, photo.Data)
	}
}

func TestParseDataURI_Invalid(t *testing.T) {
	pngB64 := base64.StdEncoding.EncodeToString(testPNG(t))

	tests := []struct {
		name string
		uri  string
	}{
		{"empty", ""},
		{"plain base64 without prefix", pngB64},
		{"missing comma", "data:image/png;base64"},
		{"not base64 encoded", "data:image/png," + pngB64},
		{"garbage payload", "data:image/png;base64,!!!not-base64!!!"},
		{"payload is not an image", "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("text"))},
		{"non image mime", "data:text/plain;base64," + pngB64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDataURI(tt.uri)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestFormatUSD(t *testing.T) {
	assert.Equal(t, "$42.50", FormatUSD(42.5))
	assert.Equal(t, "$0.00", FormatUSD(0))
	assert.Equal(t, "$1234.57", FormatUSD(1234.567))
}
