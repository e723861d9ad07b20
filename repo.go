package siack

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileRepo persists metadata of uploaded files.
// Implementations must be safe for concurrent use.
type FileRepo interface {
	// Create inserts a new record. ID and timestamps are assigned by the
	// repository when zero.
	Create(ctx context.Context, rec FileRecord) (FileRecord, error)

	// Get returns the record with the given ID or ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (FileRecord, error)

	// List returns records owned by q.OwnerID, newest first, paginated by
	// an opaque cursor.
	List(ctx context.Context, q ListQuery) (ListResult, error)
}

// UserRepo persists registered accounts.
type UserRepo interface {
	// Create inserts a user. A duplicate username, email or nickname
	// returns ErrConflict.
	Create(ctx context.Context, u User) (User, error)

	// GetByUsername returns the user or ErrNotFound.
	GetByUsername(ctx context.Context, username string) (User, error)

	// GetByEmail returns the user or ErrNotFound.
	GetByEmail(ctx context.Context, email string) (User, error)

	// GetByNickname returns the user or ErrNotFound.
	GetByNickname(ctx context.Context, nickname string) (User, error)

	// UpdateNickname sets the nickname of username and returns the updated
	// user. An unknown user returns ErrNotFound and a taken nickname ErrConflict.
	UpdateNickname(ctx context.Context, username, nickname string) (User, error)
}

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// ClampLimit normalizes a requested page size.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return min(limit, MaxListLimit)
}

// Cursor represents pagination cursor data for list operations.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// EncodeCursor encodes cursor data to a base64 string for pagination.
func EncodeCursor(createdAt time.Time, id uuid.UUID) string {
	data := createdAt.UTC().Format(time.RFC3339Nano) + "|" + id.String()
	return base64.URLEncoding.EncodeToString([]byte(data))
}

// DecodeCursor decodes a pagination cursor string back to cursor data.
// An empty string decodes to the zero Cursor.
func DecodeCursor(cursor string) (Cursor, error) {
	if cursor == "" {
		return Cursor{}, nil
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: invalid encoding: %w", ErrInvalidInput)
	}

	ts, rawID, ok := strings.Cut(string(decoded), "|")
	if !ok {
		return Cursor{}, fmt.Errorf("decode cursor: invalid format: %w", ErrInvalidInput)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: invalid timestamp: %w", ErrInvalidInput)
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: invalid id: %w", ErrInvalidInput)
	}

	return Cursor{CreatedAt: createdAt, ID: id}, nil
}
