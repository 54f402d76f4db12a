package storage

import (
	"context"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Object describes an upload request.
type Object struct {
	Folder      string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// FileStore persists binary assets and resolves their public URLs from canonical keys.
type FileStore interface {
	Upload(ctx context.Context, obj Object) (string, error)
	Delete(ctx context.Context, key string)
	URL(key string) string
	KeyFromURL(raw string) string
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// NewKey builds folder/<uuid>-<sanitised name>.
func NewKey(folder, filename string) string {
	name := unsafeChars.ReplaceAllString(path.Base(filename), "_")
	if name == "" || name == "." || name == "_" {
		name = "file"
	}
	key := uuid.NewString() + "-" + name
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return key
	}
	return folder + "/" + key
}

// keyFromURL recovers an object key from a URL produced under either the storage
// endpoint or the public base. The bucket path segment anchors the key when present;
// otherwise the last two segments (folder/object) are used.
func keyFromURL(raw, bucket string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, segment := range segments {
		if segment == bucket && i+1 < len(segments) {
			return strings.Join(segments[i+1:], "/")
		}
	}
	if len(segments) >= 2 {
		return strings.Join(segments[len(segments)-2:], "/")
	}
	return ""
}
