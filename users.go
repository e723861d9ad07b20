package siack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// DefaultAuthority is granted to every registered user.
const DefaultAuthority = "ROLE_USER"

// dummyHash keeps Login timing independent of whether the user exists.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// RegisterRequest holds the fields accepted at sign-up.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,username"`
	Password string `json:"password" validate:"required,password"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Nickname string `json:"nickname" validate:"required,nickname"`
}

// UpdateProfileRequest holds the profile fields a user may change.
type UpdateProfileRequest struct {
	Nickname string `json:"nickname" validate:"required,nickname"`
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string `json:"token"`
	Username  string `json:"username"`
	Nickname  string `json:"nickname"`
	ExpiresIn int64  `json:"expires_in"`
}

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_@]{2,48}[a-zA-Z0-9]$`)
	usernameRun   = regexp.MustCompile(`[_.@]{2,}`)
	passwordRegex = regexp.MustCompile(`^[a-zA-Z0-9!@#$%^&*()_+\-=\[\]{};':"|,.<>/?~]{8,72}$`)
	nicknameRegex = regexp.MustCompile(`^[a-zA-Z0-9가-힣_]{2,30}$`)
)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return usernameRegex.MatchString(s) && !usernameRun.MatchString(s)
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return passwordRegex.MatchString(s) &&
			strings.IndexFunc(s, unicode.IsLower) >= 0 &&
			strings.IndexFunc(s, unicode.IsDigit) >= 0
	})
	_ = v.RegisterValidation("nickname", func(fl validator.FieldLevel) bool {
		return nicknameRegex.MatchString(fl.Field().String())
	})
	return v
}

// UserService registers accounts and exchanges credentials for tokens.
type UserService struct {
	users      UserRepo
	tokens     *TokenAuthenticator
	validate   *validator.Validate
	bcryptCost int
}

// NewUserService creates a UserService. A bcryptCost of zero selects bcrypt.DefaultCost.
func NewUserService(users UserRepo, tokens *TokenAuthenticator, bcryptCost int) *UserService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{
		users:      users,
		tokens:     tokens,
		validate:   newValidator(),
		bcryptCost: bcryptCost,
	}
}

// Register validates req, hashes the password and stores the user.
// A taken username, email or nickname returns ErrConflict.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Nickname = strings.TrimSpace(req.Nickname)

	if err := s.validate.Struct(req); err != nil {
		return User{}, fmt.Errorf("register: %w: %s", ErrInvalidInput, describeValidation(err))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return User{}, fmt.Errorf("register: hash password: %w", err)
	}

	u, err := s.users.Create(ctx, User{
		Username:     req.Username,
		PasswordHash: string(hash),
		Email:        req.Email,
		Nickname:     req.Nickname,
		Authorities:  []string{DefaultAuthority},
	})
	if err != nil {
		return User{}, fmt.Errorf("register %s: %w", req.Username, err)
	}

	slog.Info("user registered", "username", u.Username)
	return u, nil
}

// Login verifies the password and issues a token carrying the user's authorities.
// An unknown user returns ErrNotFound and a wrong password ErrUnauthenticated.
func (s *UserService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	if username == "" || password == "" {
		return LoginResult{}, fmt.Errorf("login: %w: username and password required", ErrInvalidInput)
	}

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		}
		return LoginResult{}, fmt.Errorf("login %s: %w", username, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, fmt.Errorf("login %s: %w", username, ErrUnauthenticated)
	}

	authorities := u.Authorities
	if len(authorities) == 0 {
		authorities = []string{DefaultAuthority}
	}

	token, err := s.tokens.Issue(u.Username, authorities)
	if err != nil {
		return LoginResult{}, fmt.Errorf("login %s: %w", username, err)
	}

	return LoginResult{
		Token:     token,
		Username:  u.Username,
		Nickname:  u.Nickname,
		ExpiresIn: int64(s.tokens.TTL().Seconds()),
	}, nil
}

// UsernameAvailable reports whether username is well formed and not taken.
func (s *UserService) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	username = strings.TrimSpace(username)
	if err := s.validate.Var(username, "required,username"); err != nil {
		return false, fmt.Errorf("check username: %w: invalid username", ErrInvalidInput)
	}
	return available(s.users.GetByUsername(ctx, username))
}

// EmailAvailable reports whether email is well formed and not taken.
func (s *UserService) EmailAvailable(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.validate.Var(email, "required,email,max=254"); err != nil {
		return false, fmt.Errorf("check email: %w: invalid email", ErrInvalidInput)
	}
	return available(s.users.GetByEmail(ctx, email))
}

// NicknameAvailable reports whether nickname is well formed and not taken.
func (s *UserService) NicknameAvailable(ctx context.Context, nickname string) (bool, error) {
	nickname = strings.TrimSpace(nickname)
	if err := s.validate.Var(nickname, "required,nickname"); err != nil {
		return false, fmt.Errorf("check nickname: %w: invalid nickname", ErrInvalidInput)
	}
	return available(s.users.GetByNickname(ctx, nickname))
}

// Profile returns the account behind principal.
func (s *UserService) Profile(ctx context.Context, principal *Principal) (User, error) {
	if principal == nil {
		return User{}, fmt.Errorf("profile: %w", ErrUnauthenticated)
	}

	u, err := s.users.GetByUsername(ctx, principal.Subject)
	if err != nil {
		return User{}, fmt.Errorf("profile %s: %w", principal.Subject, err)
	}
	return u, nil
}

// UpdateProfile changes the nickname of the account behind principal.
// A nickname held by another user returns ErrConflict.
func (s *UserService) UpdateProfile(ctx context.Context, principal *Principal, req UpdateProfileRequest) (User, error) {
	if principal == nil {
		return User{}, fmt.Errorf("update profile: %w", ErrUnauthenticated)
	}

	req.Nickname = strings.TrimSpace(req.Nickname)
	if err := s.validate.Struct(req); err != nil {
		return User{}, fmt.Errorf("update profile: %w: %s", ErrInvalidInput, describeValidation(err))
	}

	u, err := s.users.UpdateNickname(ctx, principal.Subject, req.Nickname)
	if err != nil {
		return User{}, fmt.Errorf("update profile %s: %w", principal.Subject, err)
	}

	slog.Info("profile updated", "username", u.Username)
	return u, nil
}

func available(_ User, err error) (bool, error) {
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, ErrNotFound):
		return true, nil
	default:
		return false, fmt.Errorf("check availability: %w", err)
	}
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field())+" ("+fe.Tag()+")")
	}
	return "invalid " + strings.Join(fields, ", ")
}
