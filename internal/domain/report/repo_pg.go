package report

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labms/report-service/pkg/pagination"
)

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns a Repository backed by Postgres.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const cols = `id, file_number, patient_tr_id, technician, diagnosis_title,
	diagnosis_details, report_date, photo_path, deleted, created_at, updated_at`

func scan(row pgx.Row) (*Report, error) {
	var r Report
	err := row.Scan(&r.ID, &r.FileNumber, &r.PatientTRID, &r.Technician,
		&r.DiagnosisTitle, &r.DiagnosisDetails, &r.Date, &r.PhotoPath,
		&r.Deleted, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *repoPG) Create(ctx context.Context, rep *Report) error {
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO report (id, file_number, patient_tr_id, technician,
			diagnosis_title, diagnosis_details, report_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		rep.ID, rep.FileNumber, rep.PatientTRID, rep.Technician,
		rep.DiagnosisTitle, rep.DiagnosisDetails, rep.Date)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	return scan(r.pool.QueryRow(ctx, `SELECT `+cols+` FROM report WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, rep *Report) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE report SET file_number=$2, diagnosis_title=$3, diagnosis_details=$4,
			report_date=$5, photo_path=$6, deleted=$7, updated_at=NOW()
		WHERE id = $1`,
		rep.ID, rep.FileNumber, rep.DiagnosisTitle, rep.DiagnosisDetails,
		rep.Date, rep.PhotoPath, rep.Deleted)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// buildWhere composes the filter into a WHERE clause with numbered args.
func buildWhere(f Filter) (string, []interface{}) {
	conds := []string{"deleted = $1"}
	args := []interface{}{f.Deleted}

	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.FileNumber != "" {
		add("file_number = $%d", f.FileNumber)
	}
	if f.PatientTRID != "" {
		add("patient_tr_id = $%d", f.PatientTRID)
	}
	if f.Technician != "" {
		add("technician = $%d", f.Technician)
	}
	if f.DiagnosisTitle != "" {
		add("diagnosis_title ILIKE $%d", "%"+f.DiagnosisTitle+"%")
	}
	if f.DiagnosisDetails != "" {
		add("diagnosis_details ILIKE $%d", "%"+f.DiagnosisDetails+"%")
	}
	if !f.From.IsZero() {
		add("report_date >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("report_date <= $%d", f.To)
	}
	if f.HasPhoto != nil {
		if *f.HasPhoto {
			conds = append(conds, "photo_path IS NOT NULL")
		} else {
			conds = append(conds, "photo_path IS NULL")
		}
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}

func (r *repoPG) Search(ctx context.Context, f Filter, pg pagination.Params) ([]*Report, int, error) {
	where, args := buildWhere(f)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM report `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := pg.OrderSQL()
	if order == "" {
		order = "ORDER BY report_date DESC"
	}
	query := fmt.Sprintf(`SELECT %s FROM report %s %s %s`, cols, where, order, pg.SQL())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Report
	for rows.Next() {
		rep, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rep)
	}
	return items, total, rows.Err()
}
