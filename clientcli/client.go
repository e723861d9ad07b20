package clientcli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultListLimit is the page size requested when ListOptions.Limit is unset.
	DefaultListLimit = 100
)

// Client performs operations against a siack server.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a new Client with the given config and options.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	cfg = cfg.WithDefaults()

	c := &Client{
		config: &Config{
			Endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
			Token:    cfg.Token,
		},
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Register creates an account. No token is required.
func (c *Client) Register(ctx context.Context, opts RegisterOptions) (*Account, error) {
	var account Account
	if _, err := c.doJSON(ctx, http.MethodPost, "/v1/user/register", opts, false, http.StatusCreated, &account); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return &account, nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if username == "" || password == "" {
		return nil, ErrCredentialsRequired
	}

	body := map[string]string{"username": username, "password": password}

	var result LoginResult
	header, err := c.doJSON(ctx, http.MethodPost, "/v1/user/login", body, false, http.StatusOK, &result)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if result.Token == "" {
		result.Token = strings.TrimPrefix(header.Get("Authorization"), "Bearer ")
	}
	if result.Token == "" {
		return nil, errors.New("login: server returned no token")
	}

	return &result, nil
}

// Profile returns the account the configured token belongs to.
func (c *Client) Profile(ctx context.Context) (*Account, error) {
	if err := c.config.ValidateWithAuth(); err != nil {
		return nil, err
	}

	var account Account
	if _, err := c.doJSON(ctx, http.MethodGet, "/v1/userinfo", nil, true, http.StatusOK, &account); err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	return &account, nil
}

// UpdateNickname changes the caller's nickname. A nickname held by another
// user returns ErrConflict.
func (c *Client) UpdateNickname(ctx context.Context, nickname string) (*Account, error) {
	if err := c.config.ValidateWithAuth(); err != nil {
		return nil, err
	}

	body := map[string]string{"nickname": nickname}

	var account Account
	if _, err := c.doJSON(ctx, http.MethodPost, "/v1/userinfo/modify", body, true, http.StatusOK, &account); err != nil {
		return nil, fmt.Errorf("update nickname: %w", err)
	}
	return &account, nil
}

// Upload uploads file(s) to the server.
// For recursive uploads, walks the directory and uploads every regular file;
// per-file failures are reported in the results.
func (c *Client) Upload(ctx context.Context, opts UploadOptions) ([]UploadResult, error) {
	if opts.LocalPath == "" {
		return nil, fmt.Errorf("upload: %w", ErrEmptyPath)
	}
	if opts.Recursive {
		return c.uploadRecursive(ctx, opts)
	}
	result, err := c.uploadSingle(ctx, opts.LocalPath, opts.ContentType)
	if err != nil {
		return nil, err
	}
	return []UploadResult{result}, nil
}

// uploadRecursive walks a directory and uploads all files.
func (c *Client) uploadRecursive(ctx context.Context, opts UploadOptions) ([]UploadResult, error) {
	info, err := os.Stat(opts.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("stat local path: %w", err)
	}

	if !info.IsDir() {
		result, uploadErr := c.uploadSingle(ctx, opts.LocalPath, opts.ContentType)
		if uploadErr != nil {
			return nil, uploadErr
		}
		return []UploadResult{result}, nil
	}

	var results []UploadResult

	walkErr := filepath.WalkDir(opts.LocalPath, func(path string, d fs.DirEntry, fileErr error) error {
		if fileErr != nil {
			return fileErr
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if !d.Type().IsRegular() {
			return nil
		}

		result, uploadErr := c.uploadSingle(ctx, path, "")
		if uploadErr != nil {
			result = UploadResult{
				LocalPath: path,
				Err:       uploadErr,
			}
		}
		results = append(results, result)
		return nil
	})

	if walkErr != nil {
		return results, fmt.Errorf("walk directory: %w", walkErr)
	}

	return results, nil
}

// uploadSingle sends one file as the "file" part of a multipart form.
// The body is streamed through a pipe.
func (c *Client) uploadSingle(ctx context.Context, localPath, contentType string) (UploadResult, error) {
	if err := c.config.ValidateWithAuth(); err != nil {
		return UploadResult{}, err
	}

	file, err := os.Open(localPath) //#nosec G304 -- localPath is user-provided input
	if err != nil {
		return UploadResult{}, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if contentType == "" {
		contentType = detectContentType(localPath)
	}

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	go func() {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
			"name":     "file",
			"filename": filepath.Base(localPath),
		}))
		header.Set("Content-Type", contentType)

		part, partErr := form.CreatePart(header)
		if partErr != nil {
			_ = pw.CloseWithError(partErr)
			return
		}
		if _, copyErr := io.Copy(part, file); copyErr != nil {
			_ = pw.CloseWithError(copyErr)
			return
		}
		_ = pw.CloseWithError(form.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint+"/v1/files/write", pr)
	if err != nil {
		_ = pr.Close()
		return UploadResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	c.authorize(req)

	var rec serverFile
	if _, err := c.do(req, http.StatusCreated, &rec); err != nil {
		_ = pr.Close()
		return UploadResult{}, err
	}

	return UploadResult{
		LocalPath:    localPath,
		ID:           rec.ID,
		OriginalName: rec.OriginalName,
		Path:         rec.Path,
		Category:     rec.Category,
		ContentType:  rec.ContentType,
		Size:         rec.Size,
		CreatedAt:    rec.CreatedAt,
	}, nil
}

// Read fetches a stored file by its storage path.
// If opts.LocalPath is "-", the content is returned to the caller and nothing
// is written. Otherwise the content is written to the file and the returned
// slice is nil.
func (c *Client) Read(ctx context.Context, opts ReadOptions) (*ReadResult, []byte, error) {
	if opts.Path == "" {
		return nil, nil, fmt.Errorf("read: %w", ErrEmptyPath)
	}
	if err := c.config.ValidateWithAuth(); err != nil {
		return nil, nil, err
	}

	query := url.Values{}
	query.Set("path", opts.Path)

	var body serverReadResult
	if _, err := c.doJSON(ctx, http.MethodGet, "/v1/files/read?"+query.Encode(), nil, true, http.StatusOK, &body); err != nil {
		return nil, nil, fmt.Errorf("read: %w", err)
	}

	result := &ReadResult{
		Path: opts.Path,
		Size: int64(len(body.Content)),
	}

	if opts.LocalPath == "-" {
		result.LocalPath = "-"
		return result, body.Content, nil
	}

	localPath := opts.LocalPath
	if localPath == "" {
		localPath = filepath.Base(filepath.FromSlash(opts.Path))
	}
	result.LocalPath = localPath

	dir := filepath.Dir(localPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("create directory: %w", err)
		}
	}

	if err := os.WriteFile(localPath, body.Content, 0o600); err != nil {
		return nil, nil, fmt.Errorf("write file: %w", err)
	}

	return result, nil, nil
}

// Get returns the metadata of one of the caller's files.
func (c *Client) Get(ctx context.Context, id string) (*FileInfo, error) {
	if id == "" {
		return nil, fmt.Errorf("get: %w", ErrEmptyPath)
	}
	if err := c.config.ValidateWithAuth(); err != nil {
		return nil, err
	}

	var rec serverFile
	if _, err := c.doJSON(ctx, http.MethodGet, "/v1/files/"+url.PathEscape(id), nil, true, http.StatusOK, &rec); err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}

	info := rec.info()
	return &info, nil
}

// List lists the caller's files, newest first.
// If opts.All is true, paginates through all results.
func (c *Client) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	if err := c.config.ValidateWithAuth(); err != nil {
		return nil, err
	}
	if opts.All {
		return c.listAll(ctx, opts)
	}
	return c.listPage(ctx, opts)
}

// listPage fetches a single page of results.
func (c *Client) listPage(ctx context.Context, opts ListOptions) (*ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if opts.Cursor != "" {
		query.Set("cursor", opts.Cursor)
	}

	var page serverListResult
	if _, err := c.doJSON(ctx, http.MethodGet, "/v1/files?"+query.Encode(), nil, true, http.StatusOK, &page); err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}

	items := make([]FileInfo, len(page.Items))
	for i, item := range page.Items {
		items[i] = item.info()
	}

	return &ListResult{
		Items:      items,
		NextCursor: page.NextCursor,
	}, nil
}

// listAll fetches all pages of results.
func (c *Client) listAll(ctx context.Context, opts ListOptions) (*ListResult, error) {
	var allItems []FileInfo
	cursor := opts.Cursor

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := c.listPage(ctx, ListOptions{Limit: opts.Limit, Cursor: cursor})
		if err != nil {
			return nil, err
		}

		allItems = append(allItems, page.Items...)

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	return &ListResult{Items: allItems}, nil
}

// TotalSize calculates the total size of all items in bytes.
func (r *ListResult) TotalSize() int64 {
	var total int64
	for _, item := range r.Items {
		total += item.Size
	}
	return total
}

func (c *Client) authorize(req *http.Request) {
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}
}

// doJSON sends in (if non-nil) as a JSON body and decodes the response into out.
func (c *Client) doJSON(ctx context.Context, method, path string, in any, auth bool, want int, out any) (http.Header, error) {
	body := io.Reader(http.NoBody)
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.Endpoint+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		c.authorize(req)
	}

	return c.do(req, want, out)
}

func (c *Client) do(req *http.Request, want int, out any) (http.Header, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != want {
		return nil, parseServerError(resp.StatusCode, body)
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return nil, fmt.Errorf("parse response: %w", err)
		}
	}

	return resp.Header, nil
}

// detectContentType returns MIME type based on file extension.
func detectContentType(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return "application/octet-stream"
	}

	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		return "application/octet-stream"
	}

	return mimeType
}

// parseServerError builds an APIError, decoding the JSON error body when present.
func parseServerError(statusCode int, body []byte) error {
	apiErr := &APIError{
		StatusCode: statusCode,
		Body:       string(body),
	}

	var se serverError
	if json.Unmarshal(body, &se) == nil {
		apiErr.Code = se.Error
		apiErr.Message = se.Message
	}

	return apiErr
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return "server error: " + strconv.Itoa(e.StatusCode) + " " + e.Code + ": " + e.Message
	}
	return "server error: " + strconv.Itoa(e.StatusCode) + " - " + e.Body
}

// Is reports whether target matches this error.
// It matches if target is an *APIError with the same StatusCode.
func (e *APIError) Is(target error) bool {
	var t *APIError
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return t.StatusCode == e.StatusCode
}

// IsNotFound returns true if the error is a 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Sentinel errors for common API error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrBadRequest is returned for rejected input, such as an unsupported file type (400).
	ErrBadRequest = &APIError{StatusCode: http.StatusBadRequest}

	// ErrNotFound is returned when the requested resource does not exist (404).
	ErrNotFound = &APIError{StatusCode: http.StatusNotFound}

	// ErrUnauthorized is returned when the token is missing, invalid or expired,
	// or when login credentials are wrong (401).
	ErrUnauthorized = &APIError{StatusCode: http.StatusUnauthorized}

	// ErrForbidden is returned when the request is not permitted (403).
	ErrForbidden = &APIError{StatusCode: http.StatusForbidden}

	// ErrConflict is returned when a username or email is already taken (409).
	ErrConflict = &APIError{StatusCode: http.StatusConflict}
)
