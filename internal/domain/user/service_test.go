package user

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/James-CPE/API-NCD/internal/platform/auth"
)

// -- Mock User Repository --

type mockUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]*User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Username]; ok {
		return ErrConflict
	}
	m.nextID++
	u.ID = m.nextID
	cp := *u
	m.users[u.Username] = &cp
	return nil
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) List(_ context.Context) ([]*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*User{}
	for _, u := range m.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			u.Password = hash
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockUserRepo) stored(username string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[username].Password
}

var testSigningKey = []byte("user-service-test-signing-key")

func newTestService(t *testing.T, opts ...Option) (*Service, *mockUserRepo, *auth.TokenIssuer) {
	t.Helper()
	repo := newMockUserRepo()
	issuer := auth.NewTokenIssuer(testSigningKey, time.Hour)
	svc := NewService(repo, issuer, opts...)

	hosp := "10669"
	require.NoError(t, svc.CreateUser(context.Background(), &User{Username: "10669", Hospital: &hosp}, "hosp-pass"))
	require.NoError(t, svc.CreateUser(context.Background(), &User{Username: "Admin"}, "admin-pass"))
	return svc, repo, issuer
}

func TestService_Login(t *testing.T) {
	svc, _, issuer := newTestService(t)

	res, err := svc.Login(context.Background(), Credentials{Username: " 10669 ", Password: "hosp-pass"})
	require.NoError(t, err)
	assert.Equal(t, "10669", res.Username)
	assert.Equal(t, []string{"user"}, res.Roles)
	assert.NotEmpty(t, res.Token)
	assert.False(t, res.ExpiresAt.IsZero())

	p, err := issuer.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "10669", p.Username)
	assert.Equal(t, "10669", p.Hospital)
	assert.False(t, p.IsAdmin())
}

func TestService_Login_AdminByUsername(t *testing.T) {
	svc, _, issuer := newTestService(t)

	res, err := svc.Login(context.Background(), Credentials{Username: "Admin", Password: "admin-pass"})
	require.NoError(t, err)
	assert.Contains(t, res.Roles, auth.RoleAdmin)

	p, err := issuer.Parse(res.Token)
	require.NoError(t, err)
	assert.True(t, p.IsAdmin())
}

func TestService_Login_Failures(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, Credentials{Username: "", Password: "x"})
	assert.ErrorIs(t, err, ErrMissingCredentials)
	_, err = svc.Login(ctx, Credentials{Username: "10669"})
	assert.ErrorIs(t, err, ErrMissingCredentials)

	_, wrongPass := svc.Login(ctx, Credentials{Username: "10669", Password: "nope"})
	_, unknown := svc.Login(ctx, Credentials{Username: "ghost", Password: "nope"})
	assert.ErrorIs(t, wrongPass, ErrInvalidCredentials)
	assert.Equal(t, wrongPass, unknown, "unknown user and wrong password must be indistinguishable")
}

func TestService_Login_LegacyPassword(t *testing.T) {
	ctx := context.Background()

	svc, repo, _ := newTestService(t)
	repo.users["legacy"] = &User{ID: 99, Username: "legacy", Password: "plain", Role: "user"}
	_, err := svc.Login(ctx, Credentials{Username: "legacy", Password: "plain"})
	assert.ErrorIs(t, err, ErrInvalidCredentials, "plaintext rejected unless enabled")

	svc, repo, _ = newTestService(t, WithLegacyPasswords(true))
	repo.users["legacy"] = &User{ID: 99, Username: "legacy", Password: "plain", Role: "user"}
	_, err = svc.Login(ctx, Credentials{Username: "legacy", Password: "plain"})
	require.NoError(t, err)
	assert.True(t, auth.IsHashed(repo.stored("legacy")), "password upgraded to bcrypt")

	_, err = svc.Login(ctx, Credentials{Username: "legacy", Password: "plain"})
	require.NoError(t, err, "login still works against the new hash")
}

func TestService_CreateUserAndSetPassword(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	err := svc.CreateUser(ctx, &User{Username: "10669"}, "again")
	assert.ErrorIs(t, err, ErrConflict)

	require.NoError(t, svc.SetPassword(ctx, "10669", "rotated"))
	assert.True(t, auth.IsHashed(repo.stored("10669")))
	_, err = svc.Login(ctx, Credentials{Username: "10669", Password: "rotated"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.SetPassword(ctx, "ghost", "x"), ErrNotFound)
}

func TestService_ListUsers(t *testing.T) {
	svc, _, _ := newTestService(t)
	users, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "10669", users[0].Username)
	assert.Equal(t, "Admin", users[1].Username)
}
