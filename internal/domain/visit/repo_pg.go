package visit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/James-CPE/API-NCD/internal/platform/db"
)

type visitRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &visitRepoPG{pool: pool}
}

func (r *visitRepoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

const visitCols = `v.id, v.person_cid, v.visit_date, v.weight, v.height, v.bmi, v.waist,
	v.bp_sys, v.bp_dia, v.pulse, v.fbs, v.hba1c, v.ldl, v.egfr,
	v.status, v.visit_note, v.next_appointment, v.medications, v.created_at, v.updated_at`

func visitDest(v *Visit) []interface{} {
	return []interface{}{&v.ID, &v.PersonCID, &v.VisitDate, &v.Weight, &v.Height, &v.BMI, &v.Waist,
		&v.BPSys, &v.BPDia, &v.Pulse, &v.FBS, &v.HbA1c, &v.LDL, &v.EGFR,
		&v.Status, &v.VisitNote, &v.NextAppointment, &v.Medications, &v.CreatedAt, &v.UpdatedAt}
}

func (r *visitRepoPG) Create(ctx context.Context, v *Visit) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO t_visits (person_cid, visit_date, weight, height, bmi, waist,
			bp_sys, bp_dia, pulse, fbs, hba1c, ldl, egfr,
			status, visit_note, next_appointment, medications, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$18)
		RETURNING id`,
		v.PersonCID, v.VisitDate, v.Weight, v.Height, v.BMI, v.Waist,
		v.BPSys, v.BPDia, v.Pulse, v.FBS, v.HbA1c, v.LDL, v.EGFR,
		v.Status, v.VisitNote, v.NextAppointment, v.Medications, v.CreatedAt,
	).Scan(&v.ID)
	if err != nil {
		switch {
		case db.IsForeignKeyViolation(err):
			return ErrPersonNotFound
		case db.IsNumericOutOfRange(err):
			return ErrOutOfRange
		}
		return fmt.Errorf("insert visit: %w", err)
	}
	v.UpdatedAt = v.CreatedAt
	return nil
}

func (r *visitRepoPG) Update(ctx context.Context, v *Visit) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE t_visits SET person_cid=$2, visit_date=$3, weight=$4, height=$5, bmi=$6, waist=$7,
			bp_sys=$8, bp_dia=$9, pulse=$10, fbs=$11, hba1c=$12, ldl=$13, egfr=$14,
			status=$15, visit_note=$16, next_appointment=$17, medications=$18, updated_at=$19
		WHERE id = $1
		RETURNING created_at`,
		v.ID, v.PersonCID, v.VisitDate, v.Weight, v.Height, v.BMI, v.Waist,
		v.BPSys, v.BPDia, v.Pulse, v.FBS, v.HbA1c, v.LDL, v.EGFR,
		v.Status, v.VisitNote, v.NextAppointment, v.Medications, v.UpdatedAt,
	).Scan(&v.CreatedAt)
	if err != nil {
		switch {
		case db.IsNoRows(err):
			return ErrNotFound
		case db.IsForeignKeyViolation(err):
			return ErrPersonNotFound
		case db.IsNumericOutOfRange(err):
			return ErrOutOfRange
		}
		return fmt.Errorf("update visit %d: %w", v.ID, err)
	}
	return nil
}

func (r *visitRepoPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM t_visits WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete visit %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *visitRepoPG) ListByPerson(ctx context.Context, cid string) ([]*Row, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+visitCols+`, p.gender, p.fullname, p.age
		FROM t_visits v
		JOIN t_persons p ON p.cid = v.person_cid
		WHERE v.person_cid = $1
		ORDER BY v.visit_date ASC NULLS LAST, v.id ASC`, cid)
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	defer rows.Close()

	items := []*Row{}
	for rows.Next() {
		var row Row
		dest := append(visitDest(&row.Visit), &row.Gender, &row.Fullname, &row.Age)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		row.VisitStatus = row.Status
		row.BloodSugar = row.FBS
		items = append(items, &row)
	}
	return items, rows.Err()
}

func (r *visitRepoPG) LatestWithMedication(ctx context.Context, cid string) (*Visit, error) {
	var v Visit
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT `+visitCols+`
		FROM t_visits v
		WHERE v.person_cid = $1 AND jsonb_array_length(v.medications) > 0
		ORDER BY v.id DESC
		LIMIT 1`, cid).Scan(visitDest(&v)...)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNoMedication
		}
		return nil, fmt.Errorf("latest medication: %w", err)
	}
	return &v, nil
}
