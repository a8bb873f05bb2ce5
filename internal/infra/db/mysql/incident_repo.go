package mysql

import (
	"context"
	"database/sql"
	"encoding/json"

	domain "github.com/bryanwahyu/docsense/internal/domain/incidents"
)

type IncidentRepository struct {
	db *sql.DB
}

func NewIncidentRepository(db *sql.DB) *IncidentRepository {
	return &IncidentRepository{db: db}
}

// Insert insert/update Incident record
func (r *IncidentRepository) Insert(ctx context.Context, inc *domain.Incident) error {
	const q = `
INSERT INTO doc_incidents
(id, ts, filename, filetype, filesize, sensitivity_level, overall_score,
 top_categories, departments_affected, status, doc_hash)
VALUES (?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 sensitivity_level=VALUES(sensitivity_level),
 overall_score=VALUES(overall_score),
 top_categories=VALUES(top_categories),
 departments_affected=VALUES(departments_affected),
 status=VALUES(status);
`
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

// Delete by ID; unknown id is a no-op
func (r *IncidentRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM doc_incidents WHERE id=?;`, id)
	return err
}

func (r *IncidentRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM doc_incidents;`)
	return err
}

// Prune drops everything beyond the newest `keep` rows
func (r *IncidentRepository) Prune(ctx context.Context, keep int) error {
	const q = `
DELETE FROM doc_incidents
WHERE seq NOT IN (
  SELECT seq FROM (
    SELECT seq FROM doc_incidents ORDER BY seq DESC LIMIT ?
  ) latest
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
ORDER BY seq DESC LIMIT ?;
`
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
