// Package media stores uploaded images and hands back their public URLs.
package media

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// ErrUnsupportedType is returned for uploads that are not images.
var ErrUnsupportedType = errors.New("unsupported media type")

// Uploader accepts a file and returns a durable public URL for it.
type Uploader interface {
	Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error)
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// objectKey builds a collision-free key under prefix. The extension follows
// the content type, not the client-supplied name.
func objectKey(prefix, name, contentType string) (string, error) {
	ext, ok := extensions[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", errors.Wrapf(ErrUnsupportedType, "%q", contentType)
	}

	base := strings.TrimSuffix(path.Base(strings.ReplaceAll(name, "\\", "/")), path.Ext(name))
	base = slug(base)
	if base == "" {
		base = "upload"
	}
	return path.Join(prefix, uuid.NewString()+"-"+base+ext), nil
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if len(out) > 48 {
		out = strings.TrimSuffix(out[:48], "-")
	}
	return out
}

func publicURL(base, key string) string {
	return strings.TrimSuffix(base, "/") + "/" + key
}
