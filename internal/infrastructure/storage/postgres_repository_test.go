package storage

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CEQAScanner/internal/domain"
)

func sampleRow(url string) domain.ProjectRow {
	posted := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	return domain.Flatten(domain.ProjectRecord{
		SourceURL:       url,
		Title:           "Fontana Logistics Center",
		DocumentType:    "NOD",
		City:            "Fontana",
		County:          "San Bernardino",
		DatePosted:      &posted,
		IsRelevant:      true,
		RelevanceScore:  0.3,
		MatchedKeywords: []string{"logistics center"},
		DocumentURLs:    []string{"https://ceqanet.opr.ca.gov/doc.pdf"},
	}, domain.StatusApproved, posted)
}

func anyArgs(first string) []driver.Value {
	args := make([]driver.Value, len(domain.Columns))
	args[0] = first
	for i := 1; i < len(args); i++ {
		args[i] = sqlmock.AnyArg()
	}
	return args
}

func TestPostgresRepositoryUpsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db, "warehouse_projects")
	url := "https://ceqanet.opr.ca.gov/Project/2024030001"

	mock.ExpectExec(`INSERT INTO "warehouse_projects" \(source_url,title,.*\) VALUES \(\$1,\$2,.*\) ON CONFLICT \(source_url\) DO UPDATE SET title = EXCLUDED\.title, .*scrape_date = EXCLUDED\.scrape_date`).
		WithArgs(anyArgs(url)...).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Upsert(context.Background(), sampleRow(url)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryUpsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db, "warehouse_projects")
	url := "https://ceqanet.opr.ca.gov/Project/2024030002"
	boom := errors.New("connection reset")

	mock.ExpectExec(`INSERT INTO "warehouse_projects"`).
		WithArgs(anyArgs(url)...).
		WillReturnError(boom)

	err = repo.Upsert(context.Background(), sampleRow(url))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), url)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryWithoutDatabase(t *testing.T) {
	repo := NewPostgresRepository(nil, "warehouse_projects")
	assert.ErrorIs(t, repo.Upsert(context.Background(), sampleRow("u")), ErrNoDatabase)
	assert.ErrorIs(t, repo.EnsureSchema(context.Background()), ErrNoDatabase)
}

func TestPostgresRepositoryEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "warehouse_projects"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewPostgresRepository(db, "warehouse_projects")
	require.NoError(t, repo.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConflictClauseCoversEveryColumn(t *testing.T) {
	clause := conflictClause()
	for _, col := range domain.Columns {
		if col == domain.ConflictKey {
			assert.NotContains(t, clause, "source_url = EXCLUDED")
			continue
		}
		assert.Contains(t, clause, col+" = EXCLUDED."+col)
	}
}
