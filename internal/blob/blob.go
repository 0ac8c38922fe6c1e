// Package blob stores uploaded attachment files on local disk and maps them
// to the public URLs recorded in attachment rows.
package blob

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const DefaultMaxBytes int64 = 20 * 1024 * 1024

// Store writes files under root and serves them under baseURL + "/files/".
type Store struct {
	root     string
	baseURL  string
	maxBytes int64
}

func New(root, baseURL string, maxBytes int64) (*Store, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &Store{root: root, baseURL: strings.TrimRight(baseURL, "/"), maxBytes: maxBytes}, nil
}

// Dir is the directory to serve under /files/.
func (s *Store) Dir() string { return s.root }

// Upload saves the file under a fresh id directory and returns its public
// URL. The reader is capped at the configured size limit.
func (s *Store) Upload(filename string, r io.Reader) (string, error) {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "attachment"
	}
	id := uuid.NewString()
	dir := filepath.Join(s.root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	dest := filepath.Join(dir, name)
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}
	defer func() { _ = out.Close() }()

	n, err := io.Copy(out, io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		_ = os.RemoveAll(dir)
		return "", err
	}
	if n > s.maxBytes {
		_ = os.RemoveAll(dir)
		return "", fmt.Errorf("file too large (limit %d bytes)", s.maxBytes)
	}
	return s.baseURL + "/files/" + id + "/" + name, nil
}

// PathFromURL maps a URL produced by Upload back to the on-disk path. Foreign
// URLs (link attachments, other hosts) report ok=false.
func (s *Store) PathFromURL(u string) (string, bool) {
	prefix := s.baseURL + "/files/"
	if !strings.HasPrefix(u, prefix) {
		return "", false
	}
	rel := strings.TrimPrefix(u, prefix)
	if rel == "" || strings.Contains(rel, "..") {
		return "", false
	}
	return filepath.Join(s.root, filepath.FromSlash(rel)), true
}

// Remove deletes the backing files for the given URLs, best effort: every
// path is attempted and the errors are joined. URLs that do not belong to
// this store are skipped.
func (s *Store) Remove(urls []string) error {
	var errs []error
	for _, u := range urls {
		path, ok := s.PathFromURL(u)
		if !ok {
			continue
		}
		if err := os.RemoveAll(filepath.Dir(path)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
