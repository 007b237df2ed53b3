package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"CEQAScanner/internal/domain"
	"CEQAScanner/internal/ports"
)

var errNoRepository = errors.New("record repository is not configured")

// SaveResult lists source URLs by outcome, in batch order.
type SaveResult struct {
	Saved  []string
	Failed []string
}

// Gateway upserts records one at a time so a single failure never aborts the batch.
type Gateway struct {
	repo     ports.RecordRepository
	statuses domain.StatusTable
	now      func() time.Time
	logger   *slog.Logger
}

// NewGateway wires a repository and the document-type status table.
func NewGateway(repo ports.RecordRepository, statuses domain.StatusTable, log *slog.Logger) *Gateway {
	return &Gateway{repo: repo, statuses: statuses, now: time.Now, logger: log}
}

// SaveBatch flattens and upserts every record independently.
func (g *Gateway) SaveBatch(ctx context.Context, records []domain.ProjectRecord) SaveResult {
	var result SaveResult
	g.info("saving projects", "count", len(records))

	for _, rec := range records {
		if err := g.save(ctx, rec); err != nil {
			g.error("save project failed", "source_url", rec.SourceURL, "title", rec.Title, "error", err)
			result.Failed = append(result.Failed, rec.SourceURL)
			continue
		}
		if rec.IsRelevant {
			g.info("saved relevant project", "source_url", rec.SourceURL, "title", rec.Title)
		}
		result.Saved = append(result.Saved, rec.SourceURL)
	}

	return result
}

func (g *Gateway) save(ctx context.Context, rec domain.ProjectRecord) error {
	if g.repo == nil {
		return errNoRepository
	}
	status := g.statuses.Lookup(rec.DocumentType)
	return g.repo.Upsert(ctx, domain.Flatten(rec, status, g.now()))
}

func (g *Gateway) info(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Info(msg, args...)
	}
}

func (g *Gateway) error(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Error(msg, args...)
	}
}
