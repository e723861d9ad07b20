package siack

import (
	"fmt"
	"regexp"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Principal is the authenticated identity attached to a request.
// It is produced only by a successful token verification.
type Principal struct {
	Subject     string
	Authorities []string
}

// HasAuthority reports whether the principal carries the given authority.
func (p Principal) HasAuthority(authority string) bool {
	return slices.Contains(p.Authorities, authority)
}

// StorageResult describes an object persisted by a successful Storage.Write.
type StorageResult struct {
	StoredName string `json:"stored_name"`
	FullPath   string `json:"full_path"`
	Category   string `json:"category"`
	Extension  string `json:"extension"`
}

// FileRecord is the persisted metadata of an uploaded file.
type FileRecord struct {
	ID           uuid.UUID `json:"id"`
	OwnerID      uuid.UUID `json:"owner_id"`
	OriginalName string    `json:"original_name"`
	StoredName   string    `json:"stored_name"`
	Path         string    `json:"path"`
	Category     string    `json:"category"`
	Extension    string    `json:"extension"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// User is a registered account.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Email        string    `json:"email"`
	Nickname     string    `json:"nickname"`
	Authorities  []string  `json:"authorities"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ListQuery struct {
	OwnerID uuid.UUID
	Limit   int
	Cursor  string
}

type ListResult struct {
	Items      []FileRecord `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// BackendType names a storage backend implementation.
type BackendType string

const (
	BackendLocal  BackendType = "local"
	BackendRemote BackendType = "remote"
)

func (b BackendType) IsValid() bool {
	switch b {
	case BackendLocal, BackendRemote:
		return true
	default:
		return false
	}
}

func ParseBackendType(s string) (BackendType, error) {
	b := BackendType(s)
	if !b.IsValid() {
		return "", fmt.Errorf("invalid storage backend: %s (valid backends: local, remote): %w", s, ErrConfiguration)
	}
	return b, nil
}

// Tables holds configurable table names for metadata storage.
// This allows multi-tenant deployments to use different table names.
type Tables struct {
	Files string `mapstructure:"files"`
	Users string `mapstructure:"users"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set, valid and distinct.
func (t Tables) Validate() error {
	named := []struct{ kind, name string }{{"files", t.Files}, {"users", t.Users}}
	for _, n := range named {
		if n.name == "" {
			return fmt.Errorf("validate tables: %w: %s table name cannot be empty", ErrInvalidInput, n.kind)
		}
		if !IsValidTableName(n.name) {
			return fmt.Errorf("validate tables: %w: invalid %s table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", ErrInvalidInput, n.kind, n.name)
		}
	}

	if t.Files == t.Users {
		return fmt.Errorf("validate tables: %w: files and users tables must differ", ErrInvalidInput)
	}

	return nil
}
