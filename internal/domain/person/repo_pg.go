package person

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/James-CPE/API-NCD/internal/platform/db"
)

type personRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &personRepoPG{pool: pool}
}

func (r *personRepoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

const personCols = `id, cid, fullname, gender, birth_day, birth_month, birth_year,
	occupation, tel, house_no, moo, village, subdistrict, district, province,
	ht, dlp, ckd, mi, stroke, copd, asthma,
	disease_other, medical_his, cigarette, cigarette_volume, alcohol, alcohol_volume,
	person_note, startdate, hospital, age, status, created_at, updated_at`

func (r *personRepoPG) scanRow(row pgx.Row) (*Person, error) {
	var p Person
	err := row.Scan(&p.ID, &p.CID, &p.Fullname, &p.Gender, &p.BirthDay, &p.BirthMonth, &p.BirthYear,
		&p.Occupation, &p.Tel, &p.HouseNo, &p.Moo, &p.Village, &p.Subdistrict, &p.District, &p.Province,
		&p.HT, &p.DLP, &p.CKD, &p.MI, &p.Stroke, &p.COPD, &p.Asthma,
		&p.DiseaseOther, &p.MedicalHis, &p.Cigarette, &p.CigaretteVolume, &p.Alcohol, &p.AlcoholVolume,
		&p.PersonNote, &p.StartDate, &p.Hospital, &p.Age, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *personRepoPG) Create(ctx context.Context, p *Person) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO t_persons (cid, fullname, gender, birth_day, birth_month, birth_year,
			occupation, tel, house_no, moo, village, subdistrict, district, province,
			ht, dlp, ckd, mi, stroke, copd, asthma,
			disease_other, medical_his, cigarette, cigarette_volume, alcohol, alcohol_volume,
			person_note, startdate, hospital, age, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,
			$22,$23,$24,$25,$26,$27,$28,$29,$30,$31,$32,$33,$33)
		RETURNING id`,
		p.CID, p.Fullname, p.Gender, p.BirthDay, p.BirthMonth, p.BirthYear,
		p.Occupation, p.Tel, p.HouseNo, p.Moo, p.Village, p.Subdistrict, p.District, p.Province,
		p.HT, p.DLP, p.CKD, p.MI, p.Stroke, p.COPD, p.Asthma,
		p.DiseaseOther, p.MedicalHis, p.Cigarette, p.CigaretteVolume, p.Alcohol, p.AlcoholVolume,
		p.PersonNote, p.StartDate, p.Hospital, p.Age, p.Status, p.CreatedAt,
	).Scan(&p.ID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert person: %w", err)
	}
	p.UpdatedAt = p.CreatedAt
	return nil
}

func (r *personRepoPG) GetByID(ctx context.Context, id int64) (*Person, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+personCols+` FROM t_persons WHERE id = $1`, id))
}

func (r *personRepoPG) GetByCID(ctx context.Context, cid string) (*Person, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+personCols+` FROM t_persons WHERE cid = $1`, cid))
}

func (r *personRepoPG) CIDOwner(ctx context.Context, cid string) (int64, error) {
	var id int64
	err := r.conn(ctx).QueryRow(ctx, `SELECT id FROM t_persons WHERE cid = $1`, cid).Scan(&id)
	if err != nil {
		if db.IsNoRows(err) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("lookup cid: %w", err)
	}
	return id, nil
}

func (r *personRepoPG) Update(ctx context.Context, p *Person) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE t_persons SET cid=$2, fullname=$3, gender=$4, birth_day=$5, birth_month=$6, birth_year=$7,
			occupation=$8, tel=$9, house_no=$10, moo=$11, village=$12, subdistrict=$13, district=$14, province=$15,
			ht=$16, dlp=$17, ckd=$18, mi=$19, stroke=$20, copd=$21, asthma=$22,
			disease_other=$23, medical_his=$24, cigarette=$25, cigarette_volume=$26, alcohol=$27, alcohol_volume=$28,
			person_note=$29, startdate=$30, hospital=$31, age=$32, status=COALESCE($33, status), updated_at=$34
		WHERE id = $1
		RETURNING status, created_at`,
		p.ID, p.CID, p.Fullname, p.Gender, p.BirthDay, p.BirthMonth, p.BirthYear,
		p.Occupation, p.Tel, p.HouseNo, p.Moo, p.Village, p.Subdistrict, p.District, p.Province,
		p.HT, p.DLP, p.CKD, p.MI, p.Stroke, p.COPD, p.Asthma,
		p.DiseaseOther, p.MedicalHis, p.Cigarette, p.CigaretteVolume, p.Alcohol, p.AlcoholVolume,
		p.PersonNote, p.StartDate, p.Hospital, p.Age, p.Status, p.UpdatedAt,
	).Scan(&p.Status, &p.CreatedAt)
	if err != nil {
		switch {
		case db.IsNoRows(err):
			return ErrNotFound
		case db.IsUniqueViolation(err):
			return ErrConflict
		}
		return fmt.Errorf("update person %d: %w", p.ID, err)
	}
	return nil
}

func (r *personRepoPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM t_persons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete person %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *personRepoPG) List(ctx context.Context, scope Scope) ([]*Person, error) {
	query := `SELECT ` + personCols + ` FROM t_persons`
	var args []interface{}
	if !scope.All() {
		query += ` WHERE hospital = $1`
		args = append(args, scope.Hospital)
	}
	query += ` ORDER BY id`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}
	defer rows.Close()
	items := []*Person{}
	for rows.Next() {
		p, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *personRepoPG) UpdateStatus(ctx context.Context, cid, status string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE t_persons SET status = $2, updated_at = NOW() WHERE cid = $1`, cid, status)
	if err != nil {
		return fmt.Errorf("update person status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
