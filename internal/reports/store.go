package reports

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"dronewatch/internal/auth"
)

// Store is the persistence boundary for reports and violations.
type Store interface {
	CreateReport(ctx context.Context, payload *ReportPayload, uploadedBy int64) (int64, error)
	ListViolations(ctx context.Context, f Filter) ([]Violation, error)
	GetKPIs(ctx context.Context, droneID, date string) (*KPIs, error)
	GetFilterOptions(ctx context.Context) (*FilterOptions, error)
	GetReport(ctx context.Context, id int64) (*Report, error)
	DeleteReport(ctx context.Context, id int64) error
}

type PGStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

var _ Store = (*PGStore)(nil)

// CreateReport inserts the report row and all its violations in a single
// transaction; a failed violation insert rolls the report back too.
func (s *PGStore) CreateReport(ctx context.Context, payload *ReportPayload, uploadedBy int64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var reportID int64
	const insertReport = `
		INSERT INTO reports (drone_id, date, location, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	if err := tx.QueryRowContext(ctx, insertReport,
		payload.DroneID, payload.Date, payload.Location, uploadedBy, time.Now().UTC(),
	).Scan(&reportID); err != nil {
		return 0, err
	}

	const insertViolation = `
		INSERT INTO violations (report_id, violation_id, type, timestamp, latitude, longitude, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, v := range payload.Violations {
		if _, err := tx.ExecContext(ctx, insertViolation,
			reportID, v.ID, v.Type, v.Timestamp, v.Latitude, v.Longitude, v.ImageURL, time.Now().UTC(),
		); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return reportID, nil
}

func (s *PGStore) ListViolations(ctx context.Context, f Filter) ([]Violation, error) {
	clauses := []string{"1=1"}
	args := []interface{}{}
	argIdx := 1

	if f.DroneID != "" {
		clauses = append(clauses, "r.drone_id = $"+strconv.Itoa(argIdx))
		args = append(args, f.DroneID)
		argIdx++
	}
	if f.Date != "" {
		clauses = append(clauses, "r.date = $"+strconv.Itoa(argIdx))
		args = append(args, f.Date)
		argIdx++
	}
	if f.Type != "" {
		clauses = append(clauses, "v.type = $"+strconv.Itoa(argIdx))
		args = append(args, f.Type)
		argIdx++
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}

	query := `
		SELECT v.violation_id, v.type, v.timestamp::text,
		       v.latitude, v.longitude, v.image_url,
		       r.drone_id, to_char(r.date, 'YYYY-MM-DD'), r.location, v.created_at
		FROM violations v
		JOIN reports r ON v.report_id = r.id
		WHERE ` + strings.Join(clauses, " AND ") + `
		ORDER BY r.date DESC, v.timestamp DESC
		LIMIT ` + strconv.Itoa(limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Violation
	for rows.Next() {
		var v Violation
		if err := rows.Scan(&v.ViolationID, &v.Type, &v.Timestamp,
			&v.Latitude, &v.Longitude, &v.ImageURL,
			&v.DroneID, &v.Date, &v.Location, &v.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

func kpiWhere(droneID, date string) (string, []interface{}) {
	clauses := []string{"1=1"}
	args := []interface{}{}
	argIdx := 1
	if droneID != "" {
		clauses = append(clauses, "r.drone_id = $"+strconv.Itoa(argIdx))
		args = append(args, droneID)
		argIdx++
	}
	if date != "" {
		clauses = append(clauses, "r.date = $"+strconv.Itoa(argIdx))
		args = append(args, date)
		argIdx++
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func (s *PGStore) groupCounts(ctx context.Context, keyExpr, where, order string, args []interface{}) ([]GroupCount, error) {
	query := `
		SELECT ` + keyExpr + ` AS key, COUNT(*) AS count
		FROM violations v
		JOIN reports r ON v.report_id = r.id
		` + where + `
		GROUP BY key
		ORDER BY ` + order

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []GroupCount
	for rows.Next() {
		var g GroupCount
		if err := rows.Scan(&g.Key, &g.Count); err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	return result, rows.Err()
}

func (s *PGStore) GetKPIs(ctx context.Context, droneID, date string) (*KPIs, error) {
	where, args := kpiWhere(droneID, date)

	kpis := &KPIs{}
	totalQuery := `
		SELECT COUNT(*)
		FROM violations v
		JOIN reports r ON v.report_id = r.id
		` + where
	if err := s.db.QueryRowContext(ctx, totalQuery, args...).Scan(&kpis.Total); err != nil {
		return nil, err
	}

	var err error
	if kpis.ByType, err = s.groupCounts(ctx, "v.type", where, "count DESC", args); err != nil {
		return nil, err
	}
	if kpis.ByDrone, err = s.groupCounts(ctx, "r.drone_id", where, "count DESC", args); err != nil {
		return nil, err
	}
	if kpis.ByLocation, err = s.groupCounts(ctx, "r.location", where, "count DESC", args); err != nil {
		return nil, err
	}
	if kpis.OverTime, err = s.groupCounts(ctx, "to_char(r.date, 'YYYY-MM-DD')", where, "key", args); err != nil {
		return nil, err
	}
	return kpis, nil
}

func (s *PGStore) distinct(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

func (s *PGStore) GetFilterOptions(ctx context.Context) (*FilterOptions, error) {
	droneIDs, err := s.distinct(ctx, `SELECT DISTINCT drone_id FROM reports ORDER BY drone_id`)
	if err != nil {
		return nil, err
	}
	dates, err := s.distinct(ctx, `SELECT DISTINCT to_char(date, 'YYYY-MM-DD') FROM reports ORDER BY 1 DESC`)
	if err != nil {
		return nil, err
	}
	types, err := s.distinct(ctx, `SELECT DISTINCT type FROM violations ORDER BY type`)
	if err != nil {
		return nil, err
	}
	return &FilterOptions{DroneIDs: droneIDs, Dates: dates, Types: types}, nil
}

func (s *PGStore) GetReport(ctx context.Context, id int64) (*Report, error) {
	const q = `
		SELECT id, drone_id, to_char(date, 'YYYY-MM-DD'), location, COALESCE(uploaded_by, 0), created_at
		FROM reports WHERE id = $1
	`
	r := &Report{}
	if err := s.db.QueryRowContext(ctx, q, id).Scan(
		&r.ID, &r.DroneID, &r.Date, &r.Location, &r.UploadedBy, &r.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrNotFound
		}
		return nil, err
	}

	const vq = `
		SELECT violation_id, type, timestamp::text, latitude, longitude, image_url, created_at
		FROM violations WHERE report_id = $1 ORDER BY timestamp
	`
	rows, err := s.db.QueryContext(ctx, vq, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var v Violation
		if err := rows.Scan(&v.ViolationID, &v.Type, &v.Timestamp,
			&v.Latitude, &v.Longitude, &v.ImageURL, &v.CreatedAt); err != nil {
			return nil, err
		}
		r.Violations = append(r.Violations, v)
	}
	return r, rows.Err()
}

func (s *PGStore) CountReports(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports`).Scan(&n)
	return n, err
}

func (s *PGStore) CountViolations(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM violations`).Scan(&n)
	return n, err
}

// DeleteReport removes a report; violations go with it via cascade.
func (s *PGStore) DeleteReport(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return auth.ErrNotFound
	}
	return nil
}
