package storage

import (
	"bytes"
	"mime"
	"net/http"
	"path"
	"strings"
)

// DetectContentType returns provided if set, else the type implied by the
// key's extension, else the sniffed type of head, else
// application/octet-stream.
func DetectContentType(provided, key string, head []byte) string {
	if provided != "" {
		return provided
	}

	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(key))); ct != "" {
		return ct
	}

	if len(head) > 0 {
		if len(head) > 512 {
			head = head[:512]
		}
		return http.DetectContentType(head)
	}

	return "application/octet-stream"
}

// AllowedImageTypes are the photo formats accepted from a library.
var AllowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/heic": true,
	"image/heif": true,
}

// IsAllowedImageType reports whether a MIME type, with or without parameters,
// is an accepted photo format.
func IsAllowedImageType(contentType string) bool {
	return AllowedImageTypes[baseType(contentType)]
}

// SniffImageType inspects the first bytes of data and returns its image MIME
// type. HEIC is recognised by its ftyp box, which net/http does not sniff.
func SniffImageType(data []byte) string {
	if len(data) >= 12 && bytes.Equal(data[4:8], []byte("ftyp")) {
		switch string(data[8:12]) {
		case "heic", "heix", "hevc", "hevx":
			return "image/heic"
		case "mif1", "msf1":
			return "image/heif"
		}
	}
	return baseType(DetectContentType("", "", data))
}

func baseType(contentType string) string {
	t, _, _ := strings.Cut(contentType, ";")
	return strings.TrimSpace(strings.ToLower(t))
}
