// internal/store/reports.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"research-pipeline/internal/common/database"
	"research-pipeline/internal/entity"
)

// ReportRecord is one archived run outcome.
type ReportRecord struct {
	RunID       string
	CompanyName string
	Domain      string
	ReportTitle string
	Content     string
	Placeholder bool
	GeneratedAt time.Time
	Trail       json.RawMessage
}

// ReportStore archives completed reports in Postgres.
type ReportStore struct {
	db *database.PostgresClient
}

func NewReportStore(db *database.PostgresClient) *ReportStore {
	return &ReportStore{db: db}
}

// Migrate creates the reports table if it does not exist.
func (s *ReportStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS reports (
			run_id       TEXT PRIMARY KEY,
			company_name TEXT NOT NULL,
			domain       TEXT NOT NULL,
			report_title TEXT NOT NULL,
			content      TEXT NOT NULL,
			placeholder  BOOLEAN NOT NULL,
			generated_at TIMESTAMPTZ NOT NULL,
			trail        JSONB
		)`)
	if err != nil {
		return fmt.Errorf("migrate reports table: %w", err)
	}
	return nil
}

// Save archives one completed run.
func (s *ReportStore) Save(ctx context.Context, runID, companyName, domain string, report *entity.FinalReport, trail json.RawMessage) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO reports (run_id, company_name, domain, report_title, content, placeholder, generated_at, trail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (run_id) DO NOTHING`,
		runID, companyName, domain, report.ReportTitle, report.Content, report.Placeholder, report.GeneratedAt, trail,
	)
	if err != nil {
		return fmt.Errorf("save report %s: %w", runID, err)
	}
	return nil
}

// Get loads one archived report by run id.
func (s *ReportStore) Get(ctx context.Context, runID string) (*ReportRecord, error) {
	row := s.db.QueryRow(ctx, `
		SELECT run_id, company_name, domain, report_title, content, placeholder, generated_at, trail
		FROM reports WHERE run_id = $1`, runID)

	var rec ReportRecord
	var trail sql.NullString
	err := row.Scan(&rec.RunID, &rec.CompanyName, &rec.Domain, &rec.ReportTitle, &rec.Content, &rec.Placeholder, &rec.GeneratedAt, &trail)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("report %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("load report %s: %w", runID, err)
	}
	if trail.Valid {
		rec.Trail = json.RawMessage(trail.String)
	}
	return &rec, nil
}

// ListByCompany returns the archived reports for a company, newest first.
func (s *ReportStore) ListByCompany(ctx context.Context, companyName string, limit int) ([]ReportRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(ctx, `
		SELECT run_id, company_name, domain, report_title, content, placeholder, generated_at
		FROM reports WHERE company_name = $1
		ORDER BY generated_at DESC LIMIT $2`, companyName, limit)
	if err != nil {
		return nil, fmt.Errorf("list reports for %s: %w", companyName, err)
	}
	defer rows.Close()

	var out []ReportRecord
	for rows.Next() {
		var rec ReportRecord
		if err := rows.Scan(&rec.RunID, &rec.CompanyName, &rec.Domain, &rec.ReportTitle, &rec.Content, &rec.Placeholder, &rec.GeneratedAt); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
