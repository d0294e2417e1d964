package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/James-CPE/API-NCD/internal/platform/auth"
)

var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

type Service struct {
	repo        Repository
	issuer      *auth.TokenIssuer
	allowLegacy bool
	logger      zerolog.Logger
	now         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLegacyPasswords accepts plaintext stored passwords and upgrades them to
// bcrypt on the next successful login.
func WithLegacyPasswords(allow bool) Option {
	return func(s *Service) { s.allowLegacy = allow }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(repo Repository, issuer *auth.TokenIssuer, opts ...Option) *Service {
	s := &Service{repo: repo, issuer: issuer, logger: zerolog.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login verifies the credentials and issues a bearer token. Unknown users and
// wrong passwords fail with the same error after the same amount of bcrypt
// work.
func (s *Service) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	username := strings.TrimSpace(creds.Username)
	if username == "" || creds.Password == "" {
		return nil, ErrMissingCredentials
	}

	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			auth.BurnPasswordCheck(creds.Password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	legacy, err := auth.CheckPassword(u.Password, creds.Password, s.allowLegacy)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if legacy {
		s.upgradePassword(ctx, u, creds.Password)
	}

	roles := auth.ResolveRoles(u.Username, u.Role)
	token, exp, err := s.issuer.Issue(auth.Principal{
		Username: u.Username,
		Hospital: u.HospitalCode(),
		Roles:    roles,
	})
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &LoginResult{User: *u, Roles: roles, Token: token, ExpiresAt: exp}, nil
}

// upgradePassword replaces a plaintext password with its bcrypt hash. A
// failure is logged and does not fail the login.
func (s *Service) upgradePassword(ctx context.Context, u *User, password string) {
	hash, err := auth.HashPassword(password)
	if err == nil {
		err = s.repo.UpdatePassword(ctx, u.ID, hash)
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("username", u.Username).Msg("failed to rehash legacy password")
		return
	}
	u.Password = hash
	s.logger.Info().Str("username", u.Username).Msg("rehashed legacy password")
}

func (s *Service) ListUsers(ctx context.Context) ([]*User, error) {
	return s.repo.List(ctx)
}

// CreateUser stores a new account with a bcrypt-hashed password.
func (s *Service) CreateUser(ctx context.Context, u *User, password string) error {
	u.Username = strings.TrimSpace(u.Username)
	if u.Username == "" || password == "" {
		return ErrMissingCredentials
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hash
	if u.Role == "" {
		u.Role = "user"
	}
	now := s.now()
	u.CreatedAt = now
	u.UpdatedAt = now
	return s.repo.Create(ctx, u)
}

// SetPassword replaces the password of username.
func (s *Service) SetPassword(ctx context.Context, username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return ErrMissingCredentials
	}
	u, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, u.ID, hash)
}
