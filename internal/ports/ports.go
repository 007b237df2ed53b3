package ports

import (
	"context"
	"time"

	"CEQAScanner/internal/domain"
)

// PageSource delivers raw project pages; navigation, pacing and retries live behind it.
type PageSource interface {
	ProjectLinks(ctx context.Context) ([]string, error)
	FetchPage(ctx context.Context, url string) (domain.RawPage, error)
}

// RecordRepository upserts flattened project rows keyed by source URL.
// An upsert replaces every column of an existing row.
type RecordRepository interface {
	Upsert(ctx context.Context, row domain.ProjectRow) error
}

// Geocoder resolves an address to coordinates or reports absence with nil.
type Geocoder interface {
	Locate(ctx context.Context, address, city, county string) *domain.Coordinates
}

// Notifier streams run summaries to Telegram or other channels.
type Notifier interface {
	PublishSummary(ctx context.Context, summary string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

// FieldExtractor recovers raw field strings from a project page.
type FieldExtractor interface {
	Parse(page domain.RawPage) (domain.ExtractedFields, error)
}

// LocationResolver maps free text to a (city, county) pair; misses are empty strings.
type LocationResolver interface {
	Resolve(location string) (city, county string)
}

// Classifier scores a project's title and description.
type Classifier interface {
	ClassifyProject(title, description string) domain.Classification
}
