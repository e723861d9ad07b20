package clientcli

import (
	"time"

	"github.com/google/uuid"
)

// UploadOptions configures an upload operation.
type UploadOptions struct {
	LocalPath   string
	ContentType string // optional, auto-detect if empty
	Recursive   bool
}

// UploadResult represents the result of uploading a single file.
type UploadResult struct {
	LocalPath    string    `json:"local_path"`
	ID           uuid.UUID `json:"id"`
	OriginalName string    `json:"original_name"`
	Path         string    `json:"path"`
	Category     string    `json:"category"`
	ContentType  string    `json:"content_type"`
	Size         int64     `json:"size"`
	CreatedAt    time.Time `json:"created_at"`
	Err          error     `json:"-"` // nil on success
}

// ReadOptions configures a read operation.
type ReadOptions struct {
	Path      string
	LocalPath string // empty = base name of Path, "-" = return content to caller
}

// ReadResult represents the result of reading a stored file.
type ReadResult struct {
	Path      string `json:"path"`
	LocalPath string `json:"local_path"`
	Size      int64  `json:"size"`
}

// ListOptions configures a list operation.
type ListOptions struct {
	Limit  int
	Cursor string
	All    bool // auto-paginate through all results
}

// ListResult contains paginated list results.
type ListResult struct {
	Items      []FileInfo `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// FileInfo represents the metadata of one uploaded file.
type FileInfo struct {
	ID           uuid.UUID `json:"id"`
	OriginalName string    `json:"original_name"`
	Path         string    `json:"path"`
	Category     string    `json:"category"`
	Extension    string    `json:"extension"`
	ContentType  string    `json:"content_type"`
	Size         int64     `json:"size"`
	CreatedAt    time.Time `json:"created_at"`
}

// RegisterOptions holds the fields of a new account.
type RegisterOptions struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

// Account is a registered user as returned by the server.
type Account struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Nickname    string    `json:"nickname"`
	Authorities []string  `json:"authorities"`
	CreatedAt   time.Time `json:"created_at"`
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	Username  string `json:"username"`
	Nickname  string `json:"nickname"`
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

// serverFile mirrors the file record JSON returned by the server.
type serverFile struct {
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

func (f serverFile) info() FileInfo {
	return FileInfo{
		ID:           f.ID,
		OriginalName: f.OriginalName,
		Path:         f.Path,
		Category:     f.Category,
		Extension:    f.Extension,
		ContentType:  f.ContentType,
		Size:         f.Size,
		CreatedAt:    f.CreatedAt,
	}
}

// serverListResult mirrors the JSON response from the server for list operations.
type serverListResult struct {
	Items      []serverFile `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// serverReadResult mirrors GET /v1/files/read. Content arrives base64 encoded.
type serverReadResult struct {
	Content []byte `json:"content"`
}

// serverError mirrors the JSON error body.
type serverError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
