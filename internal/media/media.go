// Package media stores uploaded product images and returns their public URLs.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// ErrUnsupportedType is returned for uploads that are not images.
var ErrUnsupportedType = errors.New("unsupported image type")

// Store persists an uploaded object under name and returns its public URL.
type Store interface {
	Put(ctx context.Context, name, contentType string, body io.Reader) (string, error)
}

// allowedTypes maps accepted image content types to their file extension.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ExtensionFor returns the file extension for an accepted image content type.
func ExtensionFor(contentType string) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	ext, ok := allowedTypes[ct]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	return ext, nil
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ObjectName builds a collision-resistant object name of the form
// <unix millis>_<sanitised original name>. Whitespace and path separators in
// the original name become underscores and the extension is forced to ext.
func ObjectName(original, ext string, now time.Time) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = unsafeNameChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		base = "image"
	}
	return fmt.Sprintf("%d_%s%s", now.UnixMilli(), base, ext)
}
