package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/dakgu/siack"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// maxJSONBody bounds register and login request bodies.
const maxJSONBody = 1 << 20

type FileService interface {
	Upload(ctx context.Context, principal *siack.Principal, req siack.UploadRequest) (siack.FileRecord, error)
	Read(ctx context.Context, path string) ([]byte, error)
	Get(ctx context.Context, principal *siack.Principal, id string) (siack.FileRecord, error)
	List(ctx context.Context, principal *siack.Principal, limit int, cursor string) (siack.ListResult, error)
}

type UserService interface {
	Register(ctx context.Context, req siack.RegisterRequest) (siack.User, error)
	Login(ctx context.Context, username, password string) (siack.LoginResult, error)
	UsernameAvailable(ctx context.Context, username string) (bool, error)
	EmailAvailable(ctx context.Context, email string) (bool, error)
	NicknameAvailable(ctx context.Context, nickname string) (bool, error)
	Profile(ctx context.Context, principal *siack.Principal) (siack.User, error)
	UpdateProfile(ctx context.Context, principal *siack.Principal, req siack.UpdateProfileRequest) (siack.User, error)
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" validate:"min=0"`
}

type HandlerConfig struct {
	CORS CORSConfig
	// MaxUploadSize caps the request body of POST /v1/files/write. Zero
	// disables the limit.
	MaxUploadSize int64
}

// Handler provides the HTTP API for accounts and files.
type Handler struct {
	config   HandlerConfig
	verifier TokenVerifier
	files    FileService
	users    UserService
}

// NewHandler creates a new Handler. verifier backs the authentication gate
// applied to every route.
func NewHandler(config *HandlerConfig, verifier TokenVerifier, files FileService, users UserService) *Handler {
	return &Handler{
		config:   *config,
		verifier: verifier,
		files:    files,
		users:    users,
	}
}

// ReadResponse carries file content; encoding/json renders it as base64.
type ReadResponse struct {
	Content []byte `json:"content"`
}

// LoginRequest is the body of POST /v1/user/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AvailabilityResponse answers the check-username, check-email and
// check-nickname routes.
type AvailabilityResponse struct {
	Available bool `json:"available"`
}

// Router returns an http.Handler with all routes configured.
// Account routes are public. Profile and file routes require an
// authenticated principal.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Use(AuthenticationGate(h.verifier))
	r.NotFound(handleNotFound)
	r.MethodNotAllowed(handleMethodNotAllowed)

	r.Route("/v1/user", func(r chi.Router) {
		r.Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)
		r.Get("/check-username", h.handleCheckUsername)
		r.Get("/check-email", h.handleCheckEmail)
		r.Get("/check-nickname", h.handleCheckNickname)
	})

	r.Route("/v1/userinfo", func(r chi.Router) {
		r.Use(RequirePrincipal)
		r.Get("/", h.handleProfile)
		r.Post("/modify", h.handleUpdateProfile)
	})

	r.Route("/v1/files", func(r chi.Router) {
		r.Use(RequirePrincipal)
		r.Get("/", h.handleList)
		r.Post("/write", h.handleWrite)
		r.With(ReadPathValidation).Get("/read", h.handleRead)
		r.Get("/{id}", h.handleGet)
	})

	return r
}

func principal(r *http.Request) *siack.Principal {
	p, ok := siack.PrincipalFromContext(r.Context())
	if !ok {
		return nil
	}
	return &p
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req siack.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		HandleError(w, err)
		return
	}

	user, err := h.users.Register(r.Context(), req)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, user)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		HandleError(w, err)
		return
	}

	result, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		// Unknown users and wrong passwords are indistinguishable to clients.
		if errors.Is(err, siack.ErrNotFound) {
			err = fmt.Errorf("%w: %w", siack.ErrUnauthenticated, err)
		}
		HandleError(w, err)
		return
	}

	w.Header().Set("Authorization", "Bearer "+result.Token)
	_ = WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleCheckUsername(w http.ResponseWriter, r *http.Request) {
	ok, err := h.users.UsernameAvailable(r.Context(), r.URL.Query().Get("username"))
	if err != nil {
		HandleError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, AvailabilityResponse{Available: ok})
}

func (h *Handler) handleCheckEmail(w http.ResponseWriter, r *http.Request) {
	ok, err := h.users.EmailAvailable(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		HandleError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, AvailabilityResponse{Available: ok})
}

func (h *Handler) handleCheckNickname(w http.ResponseWriter, r *http.Request) {
	ok, err := h.users.NicknameAvailable(r.Context(), r.URL.Query().Get("nickname"))
	if err != nil {
		HandleError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, AvailabilityResponse{Available: ok})
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Profile(r.Context(), principal(r))
	if err != nil {
		HandleError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req siack.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		HandleError(w, err)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), principal(r), req)
	if err != nil {
		HandleError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) handleWrite(w http.ResponseWriter, r *http.Request) {
	if h.config.MaxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			err = ErrMissingFile
		} else if !isMaxBytes(err) {
			err = fmt.Errorf("%w: %w", siack.ErrInvalidInput, err)
		}
		HandleError(w, err)
		return
	}
	defer func() { _ = file.Close() }()
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	content, err := io.ReadAll(file)
	if err != nil {
		HandleError(w, err)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(content)
	}

	rec, err := h.files.Upload(r.Context(), principal(r), siack.UploadRequest{
		OriginalName: header.Filename,
		ContentType:  contentType,
		Content:      content,
	})
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleRead(w http.ResponseWriter, r *http.Request) {
	content, err := h.files.Read(r.Context(), r.URL.Query().Get("path"))
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, ReadResponse{Content: content})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_input", "Invalid limit")
			return
		}
		limit = parsed
	}

	result, err := h.files.List(r.Context(), principal(r), limit, r.URL.Query().Get("cursor"))
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := h.files.Get(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, rec)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if isMaxBytes(err) {
			return err
		}
		return fmt.Errorf("%w: malformed JSON body: %w", siack.ErrInvalidInput, err)
	}
	return nil
}

func isMaxBytes(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge)
}
