package imagesource

import (
	"encoding/base64"
	"fmt"
	"path"
	"strings"
)

// dataURLPrefix is the required header of an inline image payload:
// "data:<type>/<subtype>;base64,<data>".
const dataURLPrefix = "data:"

// EncodeDataURL creates a data: URI from bytes and MIME type.
func EncodeDataURL(data []byte, mimeType string) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// parseDataURL splits an inline payload into MIME type and decoded bytes.
// Only the exact "data:<mime>;base64,<data>" shape is accepted.
func parseDataURL(dataURL string) (mimeType string, data []byte, err error) {
	if !strings.HasPrefix(dataURL, dataURLPrefix) {
		return "", nil, fmt.Errorf("missing %q prefix", dataURLPrefix)
	}
	rest := dataURL[len(dataURLPrefix):]

	header, encoded, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("missing %q separator", ",")
	}
	mimeType, enc, ok := strings.Cut(header, ";")
	if !ok || enc != "base64" {
		return "", nil, fmt.Errorf("expected base64 encoding marker, got %q", header)
	}

	data, err = base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", nil, fmt.Errorf("decode payload: %w", err)
	}
	return mimeType, data, nil
}

// extFromURL derives a file extension from the trailing path segment of a
// source URL, with the query string stripped. Defaults to "jpg".
func extFromURL(rawURL string) string {
	trimmed := rawURL
	if idx := strings.IndexByte(trimmed, '?'); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	ext := strings.TrimPrefix(path.Ext(path.Base(trimmed)), ".")
	if ext == "" {
		return "jpg"
	}
	return strings.ToLower(ext)
}

// extFromMIME derives a file extension from the subtype of a declared MIME
// type ("image/png" → "png"). Defaults to "png".
func extFromMIME(mimeType string) string {
	_, subtype, ok := strings.Cut(mimeType, "/")
	if !ok || subtype == "" {
		return "png"
	}
	return strings.ToLower(subtype)
}
