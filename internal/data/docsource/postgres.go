package docsource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/commonModels"
	"github.com/akolanti/GoRAG/internal/domain/ragModel"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const (
	approvedStatus = "approved"

	getApprovedQuery = `SELECT id, COALESCE(title, '') AS title, COALESCE(country, '') AS country,
		COALESCE(extracted_text, '') AS text, COALESCE(file_path, '') AS file_path, updated_at
		FROM documents WHERE id = $1 AND status = $2`

	listApprovedQuery = `SELECT id, updated_at FROM documents WHERE status = $1 ORDER BY id`
)

// PostgresSource reads approved documents from the platform database.
// It never writes.
type PostgresSource struct {
	db     *sqlx.DB
	logger *logger_i.Logger
}

func NewPostgresSource(db *sqlx.DB) *PostgresSource {
	return &PostgresSource{db: db, logger: logger_i.NewLogger("document_source")}
}

// Open connects with lib/pq and pings the database.
func Open(ctx context.Context, dsn string) (*PostgresSource, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open document source: %w", ragModel.ErrStoreUnavailable, err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, config.DocumentSourceTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping document source: %w", ragModel.ErrStoreUnavailable, err)
	}
	return NewPostgresSource(db), nil
}

func (p *PostgresSource) Close() error {
	return p.db.Close()
}

func (p *PostgresSource) GetApprovedDocument(ctx context.Context, documentId int64) (commonModels.SourceDocument, error) {
	var doc commonModels.SourceDocument
	err := p.db.GetContext(ctx, &doc, getApprovedQuery, documentId, approvedStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return doc, fmt.Errorf("document %d: %w", documentId, ragModel.ErrNotFound)
	}
	if err != nil {
		p.logger.WithContext(ctx).Error("failed to load document", "documentId", documentId, "error", err)
		return doc, fmt.Errorf("%w: load document %d: %w", ragModel.ErrStoreUnavailable, documentId, err)
	}
	return doc, nil
}

func (p *PostgresSource) ListApprovedDocuments(ctx context.Context) ([]commonModels.SourceDocumentInfo, error) {
	docs := []commonModels.SourceDocumentInfo{}
	if err := p.db.SelectContext(ctx, &docs, listApprovedQuery, approvedStatus); err != nil {
		p.logger.WithContext(ctx).Error("failed to list documents", "error", err)
		return nil, fmt.Errorf("%w: list documents: %w", ragModel.ErrStoreUnavailable, err)
	}
	return docs, nil
}
