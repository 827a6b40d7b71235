// Package storage persists uploaded files under the configured media
// directory. References returned by Store are relative paths like
// "products/5f1c....png" and resolve through the /media/* route.
package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrBadReference = errors.New("bad media reference")

type MediaStore struct {
	root string
}

func NewMediaStore(root string) (*MediaStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &MediaStore{root: abs}, nil
}

// Store writes the upload under <root>/<namespace>/<uuid><ext> and returns
// the relative reference. A failed write leaves no partial file behind.
func (s *MediaStore) Store(fh *multipart.FileHeader, namespace string) (string, error) {
	if fh == nil {
		return "", errors.New("no file")
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	ref := filepath.ToSlash(filepath.Join(namespace, uuid.NewString()+ext))

	full, err := s.fullPath(ref)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", ref, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(full)
		return "", fmt.Errorf("write %s: %w", ref, err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(full)
		return "", err
	}
	return ref, nil
}

func (s *MediaStore) Delete(ref string) error {
	full, err := s.fullPath(ref)
	if err != nil {
		return err
	}
	return os.Remove(full)
}

func (s *MediaStore) Exists(ref string) bool {
	full, err := s.fullPath(ref)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return err == nil
}

func (s *MediaStore) URLFor(ref string) string {
	return "/media/" + ref
}

// fullPath joins ref under the root, rejecting traversal attempts the same
// way the /media route guards request paths.
func (s *MediaStore) fullPath(ref string) (string, error) {
	if ref == "" || strings.Contains(ref, "..") || strings.Contains(ref, "\x00") {
		return "", ErrBadReference
	}
	clean := filepath.Clean(filepath.FromSlash(ref))
	if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
		return "", ErrBadReference
	}
	return filepath.Join(s.root, clean), nil
}
