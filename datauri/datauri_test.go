package datauri

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

func TestEncodeDecode(t *testing.T) {
	uri := Encode("image/png", pngMagic)
	assert.Equal(t, "data:image/png;base64,iVBORw0KGgo=", uri)

	mime, data, err := Decode(uri)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, pngMagic, data)
}

func TestDecodeRejectsNonDataURIs(t *testing.T) {
	for _, input := range []string{
		"",
		"iVBORw0KGgo=",
		"https://example.com/logo.png",
		"data:image/png,plain",
	} {
		_, _, err := Decode(input)
		assert.ErrorIs(t, err, ErrNotDataURI, input)
	}
}

func TestDecodeInvalidPayload(t *testing.T) {
	_, _, err := Decode("data:image/png;base64,@@@")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotDataURI)
}

func TestDetectImageMIME(t *testing.T) {
	assert.Equal(t, "image/png", DetectImageMIME("logo.png", pngMagic))
	assert.Equal(t, "image/svg+xml", DetectImageMIME("icon.SVG", []byte("anything")))
	assert.Equal(t, "image/svg+xml", DetectImageMIME("icon", []byte(`<?xml version="1.0"?><svg></svg>`)))
	assert.Equal(t, "image/jpeg", DetectImageMIME("logo", []byte{0xFF, 0xD8, 0xFF, 0xE0}))
}

func TestFontMIME(t *testing.T) {
	tests := map[string][2]string{
		"Manrope-VariableFont_wght.ttf": {"font/ttf", "truetype"},
		"font.OTF":                      {"font/otf", "opentype"},
		"font.woff2":                    {"font/woff2", "woff2"},
		"font.woff":                     {"font/woff", "woff"},
	}
	for path, want := range tests {
		mime, format := FontMIME(path)
		assert.Equal(t, want[0], mime, path)
		assert.Equal(t, want[1], format, path)
	}
}
