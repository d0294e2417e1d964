package report

import "context"

// Repository reads aggregates over t_persons. Implementations fill the known
// buckets and the totals; Other is derived by the service.
type Repository interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
	ByHospital(ctx context.Context) ([]*HospitalRow, error)
}
