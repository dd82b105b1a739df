package platform

import (
	"net/url"
	"strings"
)

// NormalizeObjectKey cleans a blob path: forward slashes, no leading slash,
// no empty segments.
func NormalizeObjectKey(key string) string {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	key = strings.TrimPrefix(key, "/")
	for strings.Contains(key, "//") {
		key = strings.ReplaceAll(key, "//", "/")
	}
	return key
}

// EncodeObjectKey path-escapes each segment of a normalized key.
func EncodeObjectKey(key string) string {
	key = NormalizeObjectKey(key)
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
