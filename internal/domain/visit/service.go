package visit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/James-CPE/API-NCD/internal/domain/person"
	"github.com/James-CPE/API-NCD/internal/platform/db"
	"github.com/James-CPE/API-NCD/pkg/nullable"
)

// ValidationError carries a client-facing message.
type ValidationError struct{ Message string }

func (e *ValidationError) Error() string { return e.Message }

type Service struct {
	repo    Repository
	persons PersonStore
	tx      db.TxRunner
	now     func() time.Time
}

func NewService(repo Repository, persons PersonStore, tx db.TxRunner) *Service {
	return &Service{repo: repo, persons: persons, tx: tx, now: time.Now}
}

// normalize validates v and fills the derived fields shared by create and
// update.
func (s *Service) normalize(v *Visit) error {
	v.PersonCID = strings.TrimSpace(v.PersonCID)
	if v.PersonCID == "" {
		return &ValidationError{Message: "person_cid is required"}
	}
	if v.Status != nil && strings.TrimSpace(*v.Status) == "" {
		v.Status = nil
	}
	if v.Status != nil && !person.ValidStatus(*v.Status) {
		return &ValidationError{Message: fmt.Sprintf("invalid status: %s", *v.Status)}
	}
	v.BMI = BMI(v.Weight, v.Height)
	if err := checkRanges(v); err != nil {
		return err
	}
	v.Medications = v.Medications.Normalize()
	return nil
}

// checkRanges rejects measurements that would overflow their t_visits
// column. Limits follow the NUMERIC(p,2) and INTEGER column types.
func checkRanges(v *Visit) error {
	floats := []struct {
		name  string
		value nullable.Float
		limit float64
	}{
		{"weight", v.Weight, 1e4},
		{"height", v.Height, 1e4},
		{"bmi", v.BMI, 1e4},
		{"waist", v.Waist, 1e4},
		{"fbs", v.FBS, 1e5},
		{"hba1c", v.HbA1c, 1e3},
		{"ldl", v.LDL, 1e5},
		{"egfr", v.EGFR, 1e5},
	}
	for _, f := range floats {
		if f.value.Valid && math.Abs(round2(f.value.Float64)) >= f.limit {
			return &ValidationError{Message: f.name + " out of range: " + strconv.FormatFloat(f.value.Float64, 'f', -1, 64)}
		}
	}
	ints := []struct {
		name  string
		value nullable.Int
	}{
		{"bp_sys", v.BPSys},
		{"bp_dia", v.BPDia},
		{"pulse", v.Pulse},
	}
	for _, f := range ints {
		if f.value.Valid && (f.value.Int64 > math.MaxInt32 || f.value.Int64 < math.MinInt32) {
			return &ValidationError{Message: fmt.Sprintf("%s out of range: %d", f.name, f.value.Int64)}
		}
	}
	return nil
}

// CreateVisit stores v and, when it carries a status, copies that status to
// the person in the same transaction.
func (s *Service) CreateVisit(ctx context.Context, v *Visit) error {
	if err := s.normalize(v); err != nil {
		return err
	}
	now := s.now()
	v.CreatedAt = now
	v.UpdatedAt = now

	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.persons.CIDOwner(ctx, v.PersonCID); err != nil {
			if errors.Is(err, person.ErrNotFound) {
				return ErrPersonNotFound
			}
			return err
		}
		if err := s.repo.Create(ctx, v); err != nil {
			return err
		}
		if v.Status == nil {
			return nil
		}
		if err := s.persons.UpdateStatus(ctx, v.PersonCID, *v.Status); err != nil {
			if errors.Is(err, person.ErrNotFound) {
				return ErrPersonNotFound
			}
			return fmt.Errorf("cascade status: %w", err)
		}
		return nil
	})
}

// UpdateVisit replaces visit id. It does not touch the person's status.
func (s *Service) UpdateVisit(ctx context.Context, id int64, v *Visit) error {
	if err := s.normalize(v); err != nil {
		return err
	}
	v.ID = id
	v.UpdatedAt = s.now()
	return s.repo.Update(ctx, v)
}

func (s *Service) DeleteVisit(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListVisits(ctx context.Context, cid string) ([]*Row, error) {
	return s.repo.ListByPerson(ctx, strings.TrimSpace(cid))
}

func (s *Service) LatestMedication(ctx context.Context, cid string) (*Visit, error) {
	return s.repo.LatestWithMedication(ctx, strings.TrimSpace(cid))
}
