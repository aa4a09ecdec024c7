package blob

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
)

// FSStore keeps uploaded files under a directory and serves them from baseURL.
type FSStore struct {
	dir     string
	baseURL string
}

func NewFSStore(dir, baseURL string) (*FSStore, error) {
	if dir == "" {
		dir = "./data/uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &FSStore{dir: dir, baseURL: baseURL}, nil
}

// Put writes content at key and returns its URL. Keys are slash separated
// and may not leave the store directory.
func (s *FSStore) Put(ctx context.Context, key string, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean := path.Clean(key)
	if clean == "." || !filepath.IsLocal(filepath.FromSlash(key)) {
		return "", errors.New("invalid blob key")
	}
	dst := filepath.Join(s.dir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create blob parent: %w", err)
	}
	if err := os.WriteFile(dst, content, 0o644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	return s.url(clean)
}

func (s *FSStore) url(key string) (string, error) {
	if s.baseURL == "" {
		u := url.URL{Scheme: "file", Path: filepath.ToSlash(filepath.Join(s.dir, key))}
		return u.String(), nil
	}
	return url.JoinPath(s.baseURL, key)
}
