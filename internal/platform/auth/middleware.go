package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	principalKey contextKey = "principal"
)

// RoleAdmin is the role that sees every hospital's records.
const RoleAdmin = "admin"

// Principal is the authenticated caller attached to a request.
type Principal struct {
	Username string
	Hospital string
	Roles    []string
}

// IsAdmin reports whether the principal holds the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && HasRole(p.Roles, RoleAdmin)
}

type Claims struct {
	jwt.RegisteredClaims
	Hospital string   `json:"hospital,omitempty"`
	Roles    []string `json:"roles"`
}

// TokenIssuer signs and verifies HS256 login tokens.
type TokenIssuer struct {
	key    []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewTokenIssuer creates an issuer whose tokens live for ttl.
func NewTokenIssuer(key []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{key: key, ttl: ttl, issuer: "ncd-api", now: time.Now}
}

// Issue returns a signed token for p and its expiry.
func (t *TokenIssuer) Issue(p Principal) (string, time.Time, error) {
	if len(t.key) == 0 {
		return "", time.Time{}, errors.New("token signing key is empty")
	}
	now := t.now()
	exp := now.Add(t.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Username,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Hospital: p.Hospital,
		Roles:    p.Roles,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse verifies tokenStr and returns the principal it carries.
func (t *TokenIssuer) Parse(tokenStr string) (*Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return t.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token")
	}
	return &Principal{Username: claims.Subject, Hospital: claims.Hospital, Roles: claims.Roles}, nil
}

// PrincipalConfig configures PrincipalMiddleware.
type PrincipalConfig struct {
	Issuer  *TokenIssuer
	Skipper func(c echo.Context) bool
}

// PrincipalMiddleware attaches the caller's Principal when a bearer token is
// present. Requests without an Authorization header continue anonymously; a
// malformed or invalid token is rejected with 401.
func PrincipalMiddleware(cfg PrincipalConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return next(c)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			p, err := cfg.Issuer.Parse(strings.TrimSpace(parts[1]))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set("principal", p.Username)
			c.SetRequest(c.Request().WithContext(WithPrincipal(c.Request().Context(), p)))
			return next(c)
		}
	}
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the request principal, or nil for anonymous callers.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}

func RolesFromContext(ctx context.Context) []string {
	if p := PrincipalFromContext(ctx); p != nil {
		return p.Roles
	}
	return nil
}
