package person

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/James-CPE/API-NCD/internal/platform/auth"
)

// ValidationError carries a client-facing message and matches ErrValidation.
type ValidationError struct{ Message string }

func (e *ValidationError) Error() string        { return e.Message }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

const msgRequired = "CID and Fullname are required"

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) validate(p *Person) error {
	p.CID = strings.TrimSpace(p.CID)
	p.Fullname = strings.TrimSpace(p.Fullname)
	if p.CID == "" || p.Fullname == "" {
		return &ValidationError{Message: msgRequired}
	}
	if p.Status != nil && *p.Status == "" {
		p.Status = nil
	}
	if p.Status != nil && !ValidStatus(*p.Status) {
		return &ValidationError{Message: fmt.Sprintf("invalid status: %s", *p.Status)}
	}
	return nil
}

// CreatePerson registers a new patient. The cid must be unused; age is
// derived from birth_year and status defaults to DefaultStatus.
func (s *Service) CreatePerson(ctx context.Context, p *Person) error {
	if err := s.validate(p); err != nil {
		return err
	}
	if _, err := s.repo.CIDOwner(ctx, p.CID); err == nil {
		return ErrConflict
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	now := s.now()
	p.Age = AgeAt(p.BirthYear, now)
	if p.Status == nil {
		status := DefaultStatus
		p.Status = &status
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return s.repo.Create(ctx, p)
}

func (s *Service) GetPerson(ctx context.Context, cid string) (*Person, error) {
	cid = strings.TrimSpace(cid)
	if cid == "" {
		return nil, &ValidationError{Message: "CID is required"}
	}
	return s.repo.GetByCID(ctx, cid)
}

// UpdatePerson replaces every editable column of person id. A cid held by a
// different row is a conflict; an omitted status keeps the stored one.
func (s *Service) UpdatePerson(ctx context.Context, id int64, p *Person) error {
	if err := s.validate(p); err != nil {
		return err
	}
	owner, err := s.repo.CIDOwner(ctx, p.CID)
	switch {
	case err == nil && owner != id:
		return ErrConflict
	case err != nil && !errors.Is(err, ErrNotFound):
		return err
	}

	now := s.now()
	p.ID = id
	p.Age = AgeAt(p.BirthYear, now)
	p.UpdatedAt = now
	return s.repo.Update(ctx, p)
}

func (s *Service) DeletePerson(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListPersons(ctx context.Context, scope Scope) ([]*Person, error) {
	return s.repo.List(ctx, scope)
}

// ResolveScope decides which hospital a list request may see. Admin
// principals see everything and other principals their own hospital.
// Anonymous callers fall back to the legacy query value, where "" or
// "admin" means every hospital.
func ResolveScope(p *auth.Principal, legacy string) Scope {
	if p != nil {
		if p.IsAdmin() {
			return Scope{}
		}
		hospital := p.Hospital
		if hospital == "" {
			hospital = p.Username
		}
		return Scope{Hospital: hospital}
	}
	legacy = strings.TrimSpace(legacy)
	if legacy == "" || strings.EqualFold(legacy, auth.RoleAdmin) {
		return Scope{}
	}
	return Scope{Hospital: legacy}
}
