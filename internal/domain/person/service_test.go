package person

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/James-CPE/API-NCD/internal/platform/auth"
	"github.com/James-CPE/API-NCD/pkg/nullable"
)

// -- Mock Person Repository --

type mockPersonRepo struct {
	mu      sync.Mutex
	nextID  int64
	persons map[int64]*Person
}

func newMockPersonRepo() *mockPersonRepo {
	return &mockPersonRepo{persons: make(map[int64]*Person)}
}

func (m *mockPersonRepo) Create(_ context.Context, p *Person) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.persons {
		if existing.CID == p.CID {
			return ErrConflict
		}
	}
	m.nextID++
	p.ID = m.nextID
	cp := *p
	m.persons[p.ID] = &cp
	return nil
}

func (m *mockPersonRepo) GetByID(_ context.Context, id int64) (*Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.persons[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockPersonRepo) GetByCID(_ context.Context, cid string) (*Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.persons {
		if p.CID == cid {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockPersonRepo) CIDOwner(ctx context.Context, cid string) (int64, error) {
	p, err := m.GetByCID(ctx, cid)
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}

func (m *mockPersonRepo) Update(_ context.Context, p *Person) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.persons[p.ID]
	if !ok {
		return ErrNotFound
	}
	if p.Status == nil {
		p.Status = existing.Status
	}
	p.CreatedAt = existing.CreatedAt
	cp := *p
	m.persons[p.ID] = &cp
	return nil
}

func (m *mockPersonRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.persons[id]; !ok {
		return ErrNotFound
	}
	delete(m.persons, id)
	return nil
}

func (m *mockPersonRepo) List(_ context.Context, scope Scope) ([]*Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := []*Person{}
	for _, p := range m.persons {
		if scope.All() || (p.Hospital != nil && *p.Hospital == scope.Hospital) {
			cp := *p
			items = append(items, &cp)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (m *mockPersonRepo) UpdateStatus(_ context.Context, cid, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.persons {
		if p.CID == cid {
			p.Status = &status
			return nil
		}
	}
	return ErrNotFound
}

var fixedNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestService() (*Service, *mockPersonRepo) {
	repo := newMockPersonRepo()
	svc := NewService(repo)
	svc.now = func() time.Time { return fixedNow }
	return svc, repo
}

func strPtr(s string) *string { return &s }

func TestService_CreatePerson(t *testing.T) {
	svc, _ := newTestService()

	p := &Person{CID: " 1103700012345 ", Fullname: "สมชาย ใจดี", BirthYear: nullable.IntOf(2510)}
	if err := svc.CreatePerson(context.Background(), p); err != nil {
		t.Fatalf("CreatePerson: %v", err)
	}
	if p.ID == 0 {
		t.Error("expected ID to be assigned")
	}
	if p.CID != "1103700012345" {
		t.Errorf("expected trimmed cid, got %q", p.CID)
	}
	// 2025 + 543 - 2510
	if !p.Age.Valid || p.Age.Int64 != 58 {
		t.Errorf("expected age 58, got %+v", p.Age)
	}
	if p.Status == nil || *p.Status != DefaultStatus {
		t.Errorf("expected default status, got %v", p.Status)
	}
	if !p.CreatedAt.Equal(fixedNow) || !p.UpdatedAt.Equal(fixedNow) {
		t.Errorf("expected timestamps at %s, got %s/%s", fixedNow, p.CreatedAt, p.UpdatedAt)
	}
}

func TestService_CreatePerson_NoBirthYear(t *testing.T) {
	svc, _ := newTestService()
	p := &Person{CID: "1", Fullname: "A"}
	if err := svc.CreatePerson(context.Background(), p); err != nil {
		t.Fatalf("CreatePerson: %v", err)
	}
	if p.Age.Valid {
		t.Errorf("expected null age, got %d", p.Age.Int64)
	}
}

func TestService_CreatePerson_RequiredFields(t *testing.T) {
	svc, _ := newTestService()
	for _, p := range []*Person{
		{CID: "", Fullname: "A"},
		{CID: "1", Fullname: "  "},
		{},
	} {
		err := svc.CreatePerson(context.Background(), p)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
		if err != nil && err.Error() != msgRequired {
			t.Errorf("unexpected message %q", err.Error())
		}
	}
}

func TestService_CreatePerson_InvalidStatus(t *testing.T) {
	svc, _ := newTestService()
	err := svc.CreatePerson(context.Background(), &Person{CID: "1", Fullname: "A", Status: strPtr("cured")})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestService_CreatePerson_DuplicateCID(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	first := &Person{CID: "1103700012345", Fullname: "First"}
	if err := svc.CreatePerson(ctx, first); err != nil {
		t.Fatalf("CreatePerson: %v", err)
	}
	err := svc.CreatePerson(ctx, &Person{CID: "1103700012345", Fullname: "Second"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	stored, _ := repo.GetByID(ctx, first.ID)
	if stored.Fullname != "First" {
		t.Errorf("existing row changed: %q", stored.Fullname)
	}
	if len(repo.persons) != 1 {
		t.Errorf("expected 1 row, got %d", len(repo.persons))
	}
}

func TestService_UpdatePerson(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	p := &Person{CID: "1", Fullname: "A", Status: strPtr(StatusAddMedication)}
	_ = svc.CreatePerson(ctx, p)

	svc.now = func() time.Time { return fixedNow.Add(time.Hour) }
	upd := &Person{CID: "1", Fullname: "B", BirthYear: nullable.IntOf(2500)}
	if err := svc.UpdatePerson(ctx, p.ID, upd); err != nil {
		t.Fatalf("UpdatePerson: %v", err)
	}

	stored, _ := repo.GetByID(ctx, p.ID)
	if stored.Fullname != "B" {
		t.Errorf("expected fullname B, got %s", stored.Fullname)
	}
	if stored.Status == nil || *stored.Status != StatusAddMedication {
		t.Errorf("omitted status must keep stored value, got %v", stored.Status)
	}
	if stored.Age.Int64 != 68 {
		t.Errorf("expected recomputed age 68, got %d", stored.Age.Int64)
	}
	if !stored.UpdatedAt.Equal(fixedNow.Add(time.Hour)) {
		t.Errorf("expected updated_at to move, got %s", stored.UpdatedAt)
	}
}

func TestService_UpdatePerson_CIDOwnedByOther(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	a := &Person{CID: "1", Fullname: "A"}
	b := &Person{CID: "2", Fullname: "B"}
	_ = svc.CreatePerson(ctx, a)
	_ = svc.CreatePerson(ctx, b)

	if err := svc.UpdatePerson(ctx, b.ID, &Person{CID: "1", Fullname: "B"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := svc.UpdatePerson(ctx, a.ID, &Person{CID: "1", Fullname: "A2"}); err != nil {
		t.Fatalf("keeping own cid must succeed, got %v", err)
	}
}

func TestService_UpdatePerson_NotFound(t *testing.T) {
	svc, _ := newTestService()
	err := svc.UpdatePerson(context.Background(), 999, &Person{CID: "9", Fullname: "X"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_DeletePerson_NotFound(t *testing.T) {
	svc, _ := newTestService()
	if err := svc.DeletePerson(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_GetPerson_EmptyCID(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.GetPerson(context.Background(), " "); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestResolveScope(t *testing.T) {
	tests := []struct {
		name   string
		p      *auth.Principal
		legacy string
		want   Scope
	}{
		{"admin principal", &auth.Principal{Username: "admin", Roles: []string{"admin"}}, "hosp01", Scope{}},
		{"hospital principal", &auth.Principal{Username: "hosp01", Hospital: "hosp01", Roles: []string{"user"}}, "", Scope{Hospital: "hosp01"}},
		{"principal ignores legacy param", &auth.Principal{Username: "hosp01", Hospital: "hosp01", Roles: []string{"user"}}, "admin", Scope{Hospital: "hosp01"}},
		{"principal without hospital uses username", &auth.Principal{Username: "hosp02", Roles: []string{"user"}}, "", Scope{Hospital: "hosp02"}},
		{"anonymous empty", nil, "", Scope{}},
		{"anonymous admin", nil, "Admin", Scope{}},
		{"anonymous hospital", nil, "hosp03", Scope{Hospital: "hosp03"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveScope(tt.p, tt.legacy); got != tt.want {
				t.Errorf("ResolveScope() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
