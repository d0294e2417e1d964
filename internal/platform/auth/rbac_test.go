package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func runRequireRole(t *testing.T, p *Principal, roles ...string) error {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	ctx := context.Background()
	if p != nil {
		ctx = WithPrincipal(ctx, p)
	}
	c := e.NewContext(req.WithContext(ctx), httptest.NewRecorder())

	h := RequireRole(roles...)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	return h(c)
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		p        *Principal
		roles    []string
		wantCode int
	}{
		{"anonymous", nil, []string{"user"}, http.StatusUnauthorized},
		{"matching role", &Principal{Username: "hosp01", Roles: []string{"user"}}, []string{"user"}, 0},
		{"admin passes", &Principal{Username: "admin", Roles: []string{"admin"}}, []string{"auditor"}, 0},
		{"missing role", &Principal{Username: "hosp01", Roles: []string{"user"}}, []string{"auditor"}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runRequireRole(t, tt.p, tt.roles...)
			if tt.wantCode == 0 {
				if err != nil {
					t.Fatalf("expected pass, got %v", err)
				}
				return
			}
			httpErr, ok := err.(*echo.HTTPError)
			if !ok {
				t.Fatalf("expected echo.HTTPError, got %T", err)
			}
			if httpErr.Code != tt.wantCode {
				t.Errorf("expected %d, got %d", tt.wantCode, httpErr.Code)
			}
		})
	}
}

func TestResolveRoles(t *testing.T) {
	tests := []struct {
		username string
		stored   string
		want     []string
	}{
		{"hosp01", "user", []string{"user"}},
		{"admin", "user", []string{"user", "admin"}},
		{"ADMIN", "", []string{"admin"}},
		{"Admin", "admin", []string{"admin"}},
		{"hosp02", "", []string{"user"}},
		{"hosp03", " Admin ", []string{"admin"}},
	}
	for _, tt := range tests {
		got := ResolveRoles(tt.username, tt.stored)
		if len(got) != len(tt.want) {
			t.Errorf("ResolveRoles(%q, %q) = %v, want %v", tt.username, tt.stored, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("ResolveRoles(%q, %q) = %v, want %v", tt.username, tt.stored, got, tt.want)
			}
		}
	}
}

func TestPrincipal_IsAdminNil(t *testing.T) {
	var p *Principal
	if p.IsAdmin() {
		t.Error("nil principal must not be admin")
	}
}
