package docsource

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/akolanti/GoRAG/internal/domain/ragModel"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockSource(t *testing.T) (*PostgresSource, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresSource(sqlx.NewDb(db, "sqlmock")), mock
}

func TestGetApprovedDocument(t *testing.T) {
	source, mock := newMockSource(t)
	updated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "title", "country", "text", "file_path", "updated_at"}).
		AddRow(int64(7), "Tax guide", "FR", "Standard VAT is 20%.", "", updated)
	mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = \\$1 AND status = \\$2").
		WithArgs(int64(7), "approved").
		WillReturnRows(rows)

	doc, err := source.GetApprovedDocument(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), doc.Id)
	assert.Equal(t, "Tax guide", doc.Title)
	assert.Equal(t, "Standard VAT is 20%.", doc.Text)
	assert.True(t, updated.Equal(doc.UpdatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetApprovedDocument_NotFound(t *testing.T) {
	source, mock := newMockSource(t)
	mock.ExpectQuery("SELECT (.+) FROM documents").
		WithArgs(int64(99), "approved").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "country", "text", "file_path", "updated_at"}))

	_, err := source.GetApprovedDocument(context.Background(), 99)
	assert.ErrorIs(t, err, ragModel.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetApprovedDocument_DatabaseDown(t *testing.T) {
	source, mock := newMockSource(t)
	mock.ExpectQuery("SELECT (.+) FROM documents").
		WillReturnError(errors.New("connection refused"))

	_, err := source.GetApprovedDocument(context.Background(), 1)
	assert.ErrorIs(t, err, ragModel.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, ragModel.ErrNotFound)
}

func TestListApprovedDocuments(t *testing.T) {
	source, mock := newMockSource(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, updated_at FROM documents WHERE status = \\$1 ORDER BY id").
		WithArgs("approved").
		WillReturnRows(sqlmock.NewRows([]string{"id", "updated_at"}).
			AddRow(int64(1), now).
			AddRow(int64(2), now.Add(-time.Hour)))

	docs, err := source.ListApprovedDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, int64(2), docs[1].Id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListApprovedDocuments_Empty(t *testing.T) {
	source, mock := newMockSource(t)
	mock.ExpectQuery("SELECT id, updated_at FROM documents").
		WillReturnRows(sqlmock.NewRows([]string{"id", "updated_at"}))

	docs, err := source.ListApprovedDocuments(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestUnconfigured(t *testing.T) {
	source := Unconfigured{Reason: "no DSN"}

	_, err := source.GetApprovedDocument(context.Background(), 1)
	assert.ErrorIs(t, err, ragModel.ErrStoreUnavailable)
	_, err = source.ListApprovedDocuments(context.Background())
	assert.ErrorIs(t, err, ragModel.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "no DSN")
}
