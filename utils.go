package storefront

import (
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

const (
	maxSeedLength = 50
	defaultSeed   = "asset"
)

// SanitizeSeed turns free text into the legible part of a storage key. It
// lower-cases the input, maps spaces and underscores to hyphens, strips every
// character outside [a-z0-9-] and truncates to 50 characters. Text that
// sanitizes to nothing yields "asset".
func SanitizeSeed(seed string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(seed) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == ' ' || r == '_':
			b.WriteRune('-')
		}
		if b.Len() >= maxSeedLength {
			break
		}
	}

	s := strings.Trim(b.String(), "-")
	if len(s) > maxSeedLength {
		s = s[:maxSeedLength]
	}
	if s == "" {
		return defaultSeed
	}
	return s
}

// NewAssetKey builds "<sanitized-seed>-<unix millis>-<random>".
func NewAssetKey(seed string, now time.Time) string {
	return fmt.Sprintf("%s-%d-%d", SanitizeSeed(seed), now.UnixMilli(), rand.IntN(1_000_000_000))
}

var allowedImageTypes = map[string]string{
	"image/jpeg":  "image/jpeg",
	"image/jpg":   "image/jpeg",
	"image/pjpeg": "image/jpeg",
	"image/png":   "image/png",
	"image/gif":   "image/gif",
	"image/webp":  "image/webp",
}

// NormalizeImageType returns the canonical form of an allowed image content
// type and false for anything else.
func NormalizeImageType(contentType string) (string, bool) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	canonical, ok := allowedImageTypes[ct]
	return canonical, ok
}

// ExtensionFor picks the file extension for a stored asset, preferring the
// content type and falling back to the original filename.
func ExtensionFor(contentType, filename string) string {
	if ct, ok := NormalizeImageType(contentType); ok {
		if m := mimetype.Lookup(ct); m != nil && m.Extension() != "" {
			return m.Extension()
		}
	}
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		return ext
	}
	return ".bin"
}

// EscapeLikePattern escapes special LIKE characters (%, _, \) to prevent SQL injection.
func EscapeLikePattern(pattern string) string {
	pattern = strings.ReplaceAll(pattern, `\`, `\\`)
	pattern = strings.ReplaceAll(pattern, `%`, `\%`)
	pattern = strings.ReplaceAll(pattern, `_`, `\_`)
	return pattern
}
