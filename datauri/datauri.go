package datauri

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
)

// ErrNotDataURI is returned when a string is not a base64 encoded data URI
var ErrNotDataURI = errors.New("not a base64 data URI")

const base64Marker = ";base64,"

// Encode returns data as a base64 data URI with the given MIME type
func Encode(mime string, data []byte) string {
	return "data:" + mime + base64Marker + base64.StdEncoding.EncodeToString(data)
}

// Decode splits a base64 data URI into its MIME type and payload
func Decode(uri string) (string, []byte, error) {
	if !strings.HasPrefix(uri, "data:") {
		return "", nil, ErrNotDataURI
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok || !strings.HasSuffix(header+",", base64Marker) {
		return "", nil, ErrNotDataURI
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode data URI payload: %w", err)
	}
	return strings.TrimSuffix(header, ";base64"), data, nil
}

// DetectImageMIME returns the MIME type of an image asset. SVG is recognised by
// extension or by an <svg root, everything else is sniffed from content.
func DetectImageMIME(path string, data []byte) string {
	if strings.EqualFold(filepath.Ext(path), ".svg") || looksLikeSVG(data) {
		return "image/svg+xml"
	}
	return http.DetectContentType(data)
}

func looksLikeSVG(data []byte) bool {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	s := strings.TrimSpace(string(head))
	return strings.HasPrefix(s, "<svg") ||
		(strings.HasPrefix(s, "<?xml") && strings.Contains(s, "<svg"))
}

// FontMIME returns the MIME type and the CSS format() name for a font file
func FontMIME(path string) (mime, format string) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".otf":
		return "font/otf", "opentype"
	case ".woff":
		return "font/woff", "woff"
	case ".woff2":
		return "font/woff2", "woff2"
	default:
		return "font/ttf", "truetype"
	}
}
