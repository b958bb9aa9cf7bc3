// Package storage implements the local file store backing project
// documents, import temp files and export artifacts. Callers address files
// by relative keys ("documents/xyz.pdf"); keys never escape the root.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store is a file store on a local directory.
type Store struct {
	root string
}

// New returns a store rooted at path, creating it if needed.
func New(root string) (*Store, error) {
	if root == "" {
		root = "storage"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Store{root: root}, nil
}

// sanitizeKey forbids path traversal and absolute paths.
func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid key contains '..'")
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid absolute key")
	}
	return filepath.ToSlash(filepath.Clean(key)), nil
}

// Path returns the absolute filesystem path for a key.
func (s *Store) Path(key string) string {
	clean, err := sanitizeKey(key)
	if err != nil {
		return filepath.Join(s.root, "invalid")
	}
	return filepath.Join(s.root, filepath.FromSlash(clean))
}

// Put writes the reader's content under dir/name and returns the key.
func (s *Store) Put(dir, name string, r io.Reader) (string, error) {
	key, err := sanitizeKey(dir + "/" + name)
	if err != nil {
		return "", err
	}
	full := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(full)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		os.Remove(full)
		return "", err
	}
	return key, nil
}

// Open opens the file stored under key.
func (s *Store) Open(key string) (*os.File, error) {
	clean, err := sanitizeKey(key)
	if err != nil {
		return nil, err
	}
	return os.Open(filepath.Join(s.root, filepath.FromSlash(clean)))
}

// Delete removes the file stored under key. Deleting a missing key is an error.
func (s *Store) Delete(key string) error {
	clean, err := sanitizeKey(key)
	if err != nil {
		return err
	}
	return os.Remove(filepath.Join(s.root, filepath.FromSlash(clean)))
}

// Exists reports whether a file is stored under key.
func (s *Store) Exists(key string) bool {
	clean, err := sanitizeKey(key)
	if err != nil {
		return false
	}
	_, err = os.Stat(filepath.Join(s.root, filepath.FromSlash(clean)))
	return err == nil
}

// Sweep deletes files under dir older than maxAge and returns how many were
// removed. Used by the maintenance cron for leftover imports and old exports.
func (s *Store) Sweep(dir string, maxAge time.Duration) (int, error) {
	clean, err := sanitizeKey(dir)
	if err != nil {
		return 0, err
	}
	base := filepath.Join(s.root, filepath.FromSlash(clean))
	entries, err := os.ReadDir(base)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(base, e.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
