// internal/store/reports_test.go
package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-pipeline/internal/common/database"
	"research-pipeline/internal/entity"
)

func testStore(t *testing.T) (*ReportStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewReportStore(&database.PostgresClient{DB: db}), mock
}

func sampleReport() *entity.FinalReport {
	return &entity.FinalReport{
		ReportTitle: "Market Research Report: Acme Robotics",
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Content:     "# Report",
		Placeholder: true,
	}
}

func TestReportStore_Save(t *testing.T) {
	store, mock := testStore(t)
	report := sampleReport()
	trail := json.RawMessage(`[{"stage":"CompanyResearch"}]`)

	mock.ExpectExec("INSERT INTO reports").
		WithArgs("run-1", "Acme Robotics", "warehouse automation",
			report.ReportTitle, report.Content, report.Placeholder, report.GeneratedAt, trail).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Save(context.Background(), "run-1", "Acme Robotics", "warehouse automation", report, trail)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportStore_Get(t *testing.T) {
	store, mock := testStore(t)
	generated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{
		"run_id", "company_name", "domain", "report_title", "content", "placeholder", "generated_at", "trail",
	}).AddRow("run-1", "Acme Robotics", "warehouse automation", "Title", "# Report", true, generated, `[]`)

	mock.ExpectQuery("SELECT (.+) FROM reports WHERE run_id").
		WithArgs("run-1").
		WillReturnRows(rows)

	rec, err := store.Get(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme Robotics", rec.CompanyName)
	assert.Equal(t, "warehouse automation", rec.Domain)
	assert.True(t, rec.Placeholder)
	assert.Equal(t, json.RawMessage(`[]`), rec.Trail)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportStore_GetNotFound(t *testing.T) {
	store, mock := testStore(t)

	mock.ExpectQuery("SELECT (.+) FROM reports WHERE run_id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{
			"run_id", "company_name", "domain", "report_title", "content", "placeholder", "generated_at", "trail",
		}))

	_, err := store.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestReportStore_ListByCompany(t *testing.T) {
	store, mock := testStore(t)
	generated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{
		"run_id", "company_name", "domain", "report_title", "content", "placeholder", "generated_at",
	}).
		AddRow("run-2", "Acme Robotics", "agritech", "Title 2", "# R2", true, generated).
		AddRow("run-1", "Acme Robotics", "warehouse automation", "Title 1", "# R1", true, generated.Add(-time.Hour))

	mock.ExpectQuery("SELECT (.+) FROM reports WHERE company_name").
		WithArgs("Acme Robotics", 20).
		WillReturnRows(rows)

	recs, err := store.ListByCompany(context.Background(), "Acme Robotics", 0)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "run-2", recs[0].RunID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportStore_Migrate(t *testing.T) {
	store, mock := testStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS reports").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
