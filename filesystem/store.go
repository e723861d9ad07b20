// Package filesystem provides the local filesystem storage backend for siack.
// Objects are written to <root>/<category>/<uuid>.<ext> using a temp file and
// rename so readers never observe a partial write.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dakgu/siack"
	"github.com/google/uuid"
)

// Store provides local filesystem storage operations. It is safe for
// concurrent use.
type Store struct {
	root         *os.Root
	dir          string
	confineReads bool
}

// Option configures a Store.
type Option func(*Store)

// WithConfinedReads rejects reads of paths outside the upload root.
// Without it Read accepts any path the process can open.
func WithConfinedReads(confine bool) Option {
	return func(s *Store) {
		s.confineReads = confine
	}
}

// NewFileStorage creates a Store writing below root. Paths in returned
// StorageResults are absolute.
func NewFileStorage(root *os.Root, opts ...Option) (*Store, error) {
	dir, err := filepath.Abs(root.Name())
	if err != nil {
		return nil, fmt.Errorf("new file storage: %w", err)
	}

	s := &Store{root: root, dir: dir}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Open creates dir if needed and returns a Store rooted at it.
func Open(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, siack.StorageErrorf("open", dir, siack.ErrConfiguration, "upload path is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, siack.NewStorageError("open", dir, siack.ErrConfiguration, err)
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, siack.NewStorageError("open", dir, siack.ErrConfiguration, err)
	}
	return NewFileStorage(root, opts...)
}

// Dir returns the absolute upload root.
func (s *Store) Dir() string {
	return s.dir
}

// Close releases the root directory handle.
func (s *Store) Close() error {
	return s.root.Close()
}

// Read returns the whole file at path. Relative paths resolve against the
// upload root. A missing file returns a *siack.StorageError of kind
// siack.ErrNotFound; other failures are siack.ErrIOFailure.
func (s *Store) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		data []byte
		err  error
	)
	if s.confineReads {
		rel, ok := s.relative(path)
		if !ok {
			return nil, siack.StorageErrorf("read", path, siack.ErrNotFound, "outside upload root")
		}
		data, err = s.root.ReadFile(rel)
	} else {
		data, err = os.ReadFile(s.absolute(path))
	}

	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, siack.NewStorageError("read", path, siack.ErrNotFound, err)
		}
		return nil, siack.NewStorageError("read", path, siack.ErrIOFailure, err)
	}

	return data, nil
}

// Write atomically stores content under its category directory and returns
// the generated descriptor. Unsupported extensions fail before anything is
// written. The category directory is created if missing.
func (s *Store) Write(ctx context.Context, content []byte, extension string) (siack.StorageResult, error) {
	if err := ctx.Err(); err != nil {
		return siack.StorageResult{}, err
	}

	category, ext, err := siack.ClassifyExtension(extension)
	if err != nil {
		return siack.StorageResult{}, err
	}

	storedName := siack.NewStoredName(ext)
	rel := filepath.Join(category, storedName)
	fullPath := filepath.Join(s.dir, rel)

	if err := s.root.MkdirAll(category, 0o755); err != nil {
		return siack.StorageResult{}, siack.NewStorageError("write", fullPath, siack.ErrIOFailure, fmt.Errorf("could not create category directory: %w", err))
	}

	tmpFile := filepath.Join(category, tmpFileName())
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return siack.StorageResult{}, siack.NewStorageError("write", fullPath, siack.ErrIOFailure, fmt.Errorf("could not open temp file: %w", createErr))
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	if _, err := t.Write(content); err != nil {
		return siack.StorageResult{}, siack.NewStorageError("write", fullPath, siack.ErrIOFailure, fmt.Errorf("could not write file contents: %w", err))
	}

	if err := t.Sync(); err != nil {
		return siack.StorageResult{}, siack.NewStorageError("write", fullPath, siack.ErrIOFailure, fmt.Errorf("could not sync written file: %w", err))
	}

	if err := t.Close(); err != nil {
		return siack.StorageResult{}, siack.NewStorageError("write", fullPath, siack.ErrIOFailure, fmt.Errorf("could not close written file: %w", err))
	}

	if err := s.root.Rename(tmpFile, rel); err != nil {
		return siack.StorageResult{}, siack.NewStorageError("write", fullPath, siack.ErrIOFailure, fmt.Errorf("failed to rename file: %w", err))
	}

	success = true
	slog.Info("stored object", "backend", "local", "path", fullPath, "bytes", len(content))

	return siack.StorageResult{
		StoredName: storedName,
		FullPath:   fullPath,
		Category:   category,
		Extension:  ext,
	}, nil
}

// Remove deletes an object below the upload root.
func (s *Store) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rel, ok := s.relative(path)
	if !ok {
		return siack.StorageErrorf("remove", path, siack.ErrNotFound, "outside upload root")
	}

	if err := s.root.Remove(rel); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return siack.NewStorageError("remove", path, siack.ErrNotFound, err)
		}
		return siack.NewStorageError("remove", path, siack.ErrIOFailure, err)
	}
	return nil
}

func (s *Store) absolute(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(s.dir, path)
}

// relative maps path onto the upload root. ok is false when it points outside.
func (s *Store) relative(path string) (string, bool) {
	rel, err := filepath.Rel(s.dir, s.absolute(path))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

func tmpFileName() string {
	return fmt.Sprintf(".t%s", uuid.New().String())
}
