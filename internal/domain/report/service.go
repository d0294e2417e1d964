package report

import (
	"context"
	"time"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Dashboard returns the status breakdown over every person. The buckets
// always add up to Total.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	d, err := s.repo.Dashboard(ctx)
	if err != nil {
		return nil, err
	}
	d.settle(d.Total)
	return d, nil
}

// HospitalSummary returns one breakdown per hospital, recomputed on every
// call.
func (s *Service) HospitalSummary(ctx context.Context) ([]*HospitalRow, error) {
	rows, err := s.repo.ByHospital(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		r.settle(r.Patients)
	}
	return rows, nil
}

// ExportHospitals renders HospitalSummary as an XLSX workbook.
func (s *Service) ExportHospitals(ctx context.Context) ([]byte, error) {
	rows, err := s.HospitalSummary(ctx)
	if err != nil {
		return nil, err
	}
	return HospitalWorkbook(rows, s.now())
}
