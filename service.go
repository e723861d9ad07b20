package siack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// UploadRequest is a file submitted by an authenticated user.
type UploadRequest struct {
	OriginalName string
	ContentType  string
	Content      []byte
}

// FileService stores uploaded content through the active Storage backend and
// records its metadata.
type FileService struct {
	files          FileRepo
	users          UserRepo
	storage        Storage
	cleanupTimeout time.Duration
}

// ServiceConfig holds configuration options for FileService.
type ServiceConfig struct {
	CleanupTimeout time.Duration // Timeout for removing orphaned objects (default: 30s)
}

func NewFileService(files FileRepo, users UserRepo, storage Storage, cfg ServiceConfig) *FileService {
	cleanupTimeout := cfg.CleanupTimeout
	if cleanupTimeout <= 0 {
		cleanupTimeout = 30 * time.Second
	}
	return &FileService{
		files:          files,
		users:          users,
		storage:        storage,
		cleanupTimeout: cleanupTimeout,
	}
}

// Upload writes req.Content for the principal and persists its FileRecord.
//
// The method performs the following steps:
//  1. Requires a principal (ErrUnauthenticated) and non-empty content (ErrInvalidInput)
//  2. Resolves the owner from the principal's subject
//  3. Writes the content; an unsupported extension fails before any bytes are stored
//  4. Creates the metadata record
//  5. On metadata failure, removes the stored object when the backend supports it
//
// Removal uses a background context bounded by the cleanup timeout so it
// completes even if ctx has been cancelled.
func (s *FileService) Upload(ctx context.Context, principal *Principal, req UploadRequest) (FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return FileRecord{}, fmt.Errorf("upload: %w", err)
	}

	if principal == nil || principal.Subject == "" {
		return FileRecord{}, fmt.Errorf("upload: %w", ErrUnauthenticated)
	}

	if len(req.Content) == 0 {
		return FileRecord{}, fmt.Errorf("upload: %w: file is empty", ErrInvalidInput)
	}

	owner, err := s.users.GetByUsername(ctx, principal.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return FileRecord{}, fmt.Errorf("upload: %w: unknown user %s", ErrInvalidInput, principal.Subject)
		}
		return FileRecord{}, fmt.Errorf("upload: %w", err)
	}

	originalName := CleanOriginalName(req.OriginalName)

	result, err := s.storage.Write(ctx, req.Content, ExtensionOf(originalName))
	if err != nil {
		return FileRecord{}, fmt.Errorf("upload %s: %w", originalName, err)
	}

	rec, err := s.files.Create(ctx, FileRecord{
		OwnerID:      owner.ID,
		OriginalName: originalName,
		StoredName:   result.StoredName,
		Path:         result.FullPath,
		Category:     result.Category,
		Extension:    result.Extension,
		Size:         int64(len(req.Content)),
		ContentType:  req.ContentType,
	})
	if err != nil {
		return FileRecord{}, s.cleanupOrphan(result.FullPath, fmt.Errorf("upload %s: save metadata: %w", originalName, err))
	}

	slog.Info("file uploaded", "owner", owner.Username, "path", rec.Path, "size", rec.Size)

	return rec, nil
}

func (s *FileService) cleanupOrphan(path string, cause error) error {
	remover, ok := s.storage.(Remover)
	if !ok {
		slog.Warn("stored object left without metadata", "path", path)
		return cause
	}

	cleanupCtx, cancel := context.WithTimeout(context.Background(), s.cleanupTimeout)
	defer cancel()

	if err := remover.Remove(cleanupCtx, path); err != nil {
		return fmt.Errorf("%w (cleanup failed: %w)", cause, err)
	}
	return cause
}

// Read returns the content stored at path.
func (s *FileService) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	if !IsValidReadPath(path) {
		return nil, fmt.Errorf("read %q: %w", path, ErrInvalidInput)
	}

	content, err := s.storage.Read(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return content, nil
}

// Get returns a record owned by the principal. Records of other users are
// reported as ErrNotFound.
func (s *FileService) Get(ctx context.Context, principal *Principal, id string) (FileRecord, error) {
	owner, err := s.owner(ctx, principal)
	if err != nil {
		return FileRecord{}, fmt.Errorf("get file: %w", err)
	}

	fileID, err := parseID(id)
	if err != nil {
		return FileRecord{}, fmt.Errorf("get file: %w", err)
	}

	rec, err := s.files.Get(ctx, fileID)
	if err != nil {
		return FileRecord{}, fmt.Errorf("get file: %w", err)
	}

	if rec.OwnerID != owner.ID {
		return FileRecord{}, fmt.Errorf("get file: %w", ErrNotFound)
	}

	return rec, nil
}

// List returns the principal's records, newest first.
func (s *FileService) List(ctx context.Context, principal *Principal, limit int, cursor string) (ListResult, error) {
	owner, err := s.owner(ctx, principal)
	if err != nil {
		return ListResult{}, fmt.Errorf("list files: %w", err)
	}

	result, err := s.files.List(ctx, ListQuery{OwnerID: owner.ID, Limit: ClampLimit(limit), Cursor: cursor})
	if err != nil {
		return ListResult{}, fmt.Errorf("list files: %w", err)
	}
	return result, nil
}

func (s *FileService) owner(ctx context.Context, principal *Principal) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	if principal == nil || principal.Subject == "" {
		return User{}, ErrUnauthenticated
	}
	u, err := s.users.GetByUsername(ctx, principal.Subject)
	if errors.Is(err, ErrNotFound) {
		return User{}, fmt.Errorf("%w: unknown user %s", ErrUnauthenticated, principal.Subject)
	}
	return u, err
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id %q", ErrInvalidInput, s)
	}
	return id, nil
}
