package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	_ "github.com/lib/pq"

	domain "github.com/bryanwahyu/docsense/internal/domain/incidents"
)

type IncidentRepository struct{ db *sql.DB }

func NewIncidentRepository(db *sql.DB) *IncidentRepository { return &IncidentRepository{db: db} }

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		return nil, err
	}
	return db, nil
}

// Insert insert/update Incident record
func (r *IncidentRepository) Insert(ctx context.Context, inc *domain.Incident) error {
	const q = `
INSERT INTO doc_incidents
(id, ts, filename, filetype, filesize, sensitivity_level, overall_score,
 top_categories, departments_affected, status, doc_hash)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO UPDATE SET
 sensitivity_level = EXCLUDED.sensitivity_level,
 overall_score = EXCLUDED.overall_score,
 top_categories = EXCLUDED.top_categories,
 departments_affected = EXCLUDED.departments_affected,
 status = EXCLUDED.status;`

	cats, err := json.Marshal(inc.TopCategories)
	if err != nil {
		return err
	}
	depts, err := json.Marshal(inc.DepartmentsAffected)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, q,
		inc.ID, inc.Timestamp,
		stringOrUnknown(inc.Filename), stringOrUnknown(inc.Filetype), stringOrUnknown(inc.Filesize),
		inc.Level, inc.OverallScore,
		string(cats), string(depts),
		inc.Status, inc.Hash,
	)
	return err
}

func (r *IncidentRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM doc_incidents WHERE id=$1;`, id)
	return err
}

func (r *IncidentRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM doc_incidents;`)
	return err
}

// Prune drops everything beyond the newest keep rows
func (r *IncidentRepository) Prune(ctx context.Context, keep int) error {
	const q = `
DELETE FROM doc_incidents
WHERE seq NOT IN (
  SELECT seq FROM doc_incidents ORDER BY seq DESC LIMIT $1
);`
	_, err := r.db.ExecContext(ctx, q, keep)
	return err
}

// Load newest-first, capped at limit
func (r *IncidentRepository) Load(ctx context.Context, limit int) ([]*domain.Incident, error) {
	if limit <= 0 {
		limit = domain.MaxRetained
	}
	const q = `
SELECT id, ts, filename, filetype, filesize, sensitivity_level, overall_score,
       top_categories, departments_affected, status, doc_hash
FROM doc_incidents
ORDER BY seq DESC LIMIT $1;`

	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Incident
	for rows.Next() {
		var inc domain.Incident
		var cats, depts string
		if err := rows.Scan(
			&inc.ID, &inc.Timestamp, &inc.Filename, &inc.Filetype, &inc.Filesize,
			&inc.Level, &inc.OverallScore, &cats, &depts, &inc.Status, &inc.Hash,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(cats), &inc.TopCategories); err != nil {
			inc.TopCategories = []string{}
		}
		if err := json.Unmarshal([]byte(depts), &inc.DepartmentsAffected); err != nil {
			inc.DepartmentsAffected = []string{}
		}
		out = append(out, &inc)
	}
	return out, rows.Err()
}

func stringOrUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}
