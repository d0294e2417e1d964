package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/James-CPE/API-NCD/internal/domain/person"
	"github.com/James-CPE/API-NCD/internal/platform/db"
)

type reportRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &reportRepoPG{pool: pool} }

func (r *reportRepoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

// bucketColumns renders one COUNT(*) FILTER column per known status, in
// person.StatusBuckets order, with the labels as bind parameters. A NULL
// status counts as follow-up.
func bucketColumns() (string, []interface{}) {
	cols := make([]string, 0, len(person.StatusBuckets))
	args := make([]interface{}, 0, len(person.StatusBuckets))
	for i, b := range person.StatusBuckets {
		cond := fmt.Sprintf("p.status = $%d", i+1)
		if b.Label == person.StatusFollowUp {
			cond = fmt.Sprintf("(p.status = $%d OR p.status IS NULL)", i+1)
		}
		cols = append(cols, fmt.Sprintf("COUNT(*) FILTER (WHERE %s)", cond))
		args = append(args, b.Label)
	}
	return strings.Join(cols, ", "), args
}

// bucketDest returns scan targets matching bucketColumns.
func bucketDest(c *StatusCounts) []interface{} {
	dest := make([]interface{}, 0, len(person.StatusBuckets))
	for _, b := range person.StatusBuckets {
		dest = append(dest, c.field(b.Bucket))
	}
	return dest
}

func (r *reportRepoPG) Dashboard(ctx context.Context) (*Dashboard, error) {
	cols, args := bucketColumns()
	var d Dashboard
	dest := append([]interface{}{&d.Total}, bucketDest(&d.StatusCounts)...)
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*), `+cols+` FROM t_persons p`, args...).Scan(dest...)
	if err != nil {
		return nil, fmt.Errorf("dashboard counts: %w", err)
	}
	return &d, nil
}

func (r *reportRepoPG) ByHospital(ctx context.Context) ([]*HospitalRow, error) {
	cols, args := bucketColumns()
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT COALESCE(p.hospital, ''), h.hosp_name2, COUNT(*), `+cols+`
		FROM t_persons p
		LEFT JOIN t_hospitals h ON h.hosp_name = COALESCE(p.hospital, '')
		GROUP BY COALESCE(p.hospital, ''), h.hosp_name2
		ORDER BY 1`, args...)
	if err != nil {
		return nil, fmt.Errorf("hospital counts: %w", err)
	}
	defer rows.Close()

	items := []*HospitalRow{}
	for rows.Next() {
		var h HospitalRow
		dest := append([]interface{}{&h.HospName, &h.HospName2, &h.Patients}, bucketDest(&h.StatusCounts)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		items = append(items, &h)
	}
	return items, rows.Err()
}
