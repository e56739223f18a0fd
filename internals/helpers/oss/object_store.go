// file: internals/helpers/oss/object_store.go
package helper

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
)

var (
	ErrObjectNotFound     = errors.New("object not found")
	ErrPresignUnsupported = errors.New("object store cannot presign uploads")
)

/*
ObjectStore is the port the engine uses for binary attachments.
Keys are weak references: nothing on the store side knows about the records pointing at them.
*/
type ObjectStore interface {
	PutObject(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	GetObject(ctx context.Context, key string) (io.ReadCloser, error)
	DeleteObject(ctx context.Context, key string) error
	// DeleteObjects is best-effort; a non-nil error means some keys may remain.
	DeleteObjects(ctx context.Context, keys []string) error
}

// Presigner is implemented by stores that can hand out direct upload URLs.
type Presigner interface {
	SignUploadURL(key, contentType string, ttl time.Duration) (string, error)
}

/* =======================================================================
   Key utils
======================================================================= */

// BuildObjectKey returns "<dir>/<slug>_<ts>_<rand><ext>".
func BuildObjectKey(dir, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	ts := time.Now().UTC().Format("20060102_150405")

	key := fmt.Sprintf("%s_%s_%s%s", slugify(base), ts, randHex(3), ext)
	if dir = strings.Trim(dir, "/"); dir != "" {
		key = dir + "/" + key
	}
	return key
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	r := strings.NewReplacer(" ", "-", "_", "-", "—", "-", "–", "-")
	s = r.Replace(s)
	s = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return -1
	}, s)
	if s == "" {
		return "file"
	}
	return s
}

func randHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
