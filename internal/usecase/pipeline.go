package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"CEQAScanner/internal/dates"
	"CEQAScanner/internal/domain"
	"CEQAScanner/internal/ports"
)

var errNoExtractor = errors.New("field extractor is not configured")

// detachedSaveTimeout bounds persisting an interrupted run.
const detachedSaveTimeout = 30 * time.Second

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source      ports.PageSource
	Extractor   ports.FieldExtractor
	Resolver    ports.LocationResolver
	Classifier  ports.Classifier
	Geocoder    ports.Geocoder
	Gateway     *Gateway
	Notifier    ports.Notifier
	DateLayouts []string
	MaxProjects int
	Logger      *slog.Logger
}

// Pipeline implements the project-ingestion workflow.
type Pipeline struct {
	source      ports.PageSource
	extractor   ports.FieldExtractor
	resolver    ports.LocationResolver
	classifier  ports.Classifier
	geocoder    ports.Geocoder
	gateway     *Gateway
	notifier    ports.Notifier
	layouts     []string
	maxProjects int
	logger      *slog.Logger
}

// Report summarises one batch.
type Report struct {
	Processed int
	Relevant  int
	Saved     []string
	Failed    []string
	Skipped   []string
}

// SuccessRatio is relevant over processed, zero for an empty batch.
func (r Report) SuccessRatio() float64 {
	if r.Processed == 0 {
		return 0
	}
	return float64(r.Relevant) / float64(r.Processed)
}

// Message renders the run summary published to the notifier.
func (r Report) Message() string {
	return fmt.Sprintf("CEQA scan complete\nProjects processed: %d\nWarehouse projects found: %d\nSuccess rate: %.1f%%\nSaved: %d, failed: %d, skipped: %d",
		r.Processed,
		r.Relevant,
		r.SuccessRatio()*100,
		len(r.Saved),
		len(r.Failed),
		len(r.Skipped))
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	log := deps.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	layouts := deps.DateLayouts
	if len(layouts) == 0 {
		layouts = dates.DefaultLayouts
	}
	return &Pipeline{
		source:      deps.Source,
		extractor:   deps.Extractor,
		resolver:    deps.Resolver,
		classifier:  deps.Classifier,
		geocoder:    deps.Geocoder,
		gateway:     deps.Gateway,
		notifier:    deps.Notifier,
		layouts:     layouts,
		maxProjects: deps.MaxProjects,
		logger:      log,
	}
}

// ProcessPage turns one raw page into an assembled record. Only a page the
// extractor cannot parse is an error; every other miss leaves a field empty.
func (p *Pipeline) ProcessPage(ctx context.Context, page domain.RawPage) (domain.ProjectRecord, error) {
	if p.extractor == nil {
		return domain.ProjectRecord{}, errNoExtractor
	}

	fields, err := p.extractor.Parse(page)
	if err != nil {
		return domain.ProjectRecord{}, fmt.Errorf("extract %s: %w", page.SourceURL, err)
	}

	var city, county string
	if p.resolver != nil {
		city, county = p.resolver.Resolve(fields.Location)
	}

	var class domain.Classification
	if p.classifier != nil {
		class = p.classifier.ClassifyProject(fields.Title, fields.Description)
	}

	var coords *domain.Coordinates
	if p.geocoder != nil {
		coords = p.geocoder.Locate(ctx, fields.Location, city, county)
	}

	return Assemble(AssemblyInput{
		SourceURL:       page.SourceURL,
		Fields:          fields,
		City:            city,
		County:          county,
		DatePosted:      dates.ParsePtr(fields.DatePosted, p.layouts),
		CommentDeadline: dates.ParsePtr(fields.CommentDeadline, p.layouts),
		Classification:  class,
		Location:        coords,
	}), nil
}

// ProcessBatch processes pages sequentially, skipping bad ones, then persists
// every assembled record.
func (p *Pipeline) ProcessBatch(ctx context.Context, pages []domain.RawPage) Report {
	var (
		records []domain.ProjectRecord
		skipped []string
	)
	for i, page := range pages {
		p.logger.Info("processing project", "index", i+1, "total", len(pages), "source_url", page.SourceURL)
		rec, err := p.ProcessPage(ctx, page)
		if err != nil {
			p.logger.Warn("skip project page", "source_url", page.SourceURL, "error", err)
			skipped = append(skipped, page.SourceURL)
			continue
		}
		records = append(records, rec)
	}

	return p.persist(ctx, records, skipped)
}

// Run drives one full scan: collect links, fetch and process each page, then
// persist and publish the summary. Only a failure to list projects aborts.
// When ctx is cancelled mid-scan the projects processed so far are still saved
// and reported, and the cancellation error is returned with the report.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	if p.source == nil {
		return Report{}, errors.New("page source is not configured")
	}

	links, err := p.source.ProjectLinks(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("collect project links: %w", err)
	}
	if p.maxProjects > 0 && len(links) > p.maxProjects {
		links = links[:p.maxProjects]
	}
	p.logger.Info("collected project links", "count", len(links))

	var (
		records []domain.ProjectRecord
		skipped []string
		stopErr error
	)
	for i, link := range links {
		if stopErr = ctx.Err(); stopErr != nil {
			break
		}
		p.logger.Info("processing project", "index", i+1, "total", len(links), "source_url", link)

		page, err := p.source.FetchPage(ctx, link)
		if err != nil {
			if stopErr = ctx.Err(); stopErr != nil {
				break
			}
			p.logger.Warn("fetch project page failed", "source_url", link, "error", err)
			skipped = append(skipped, link)
			continue
		}

		rec, err := p.ProcessPage(ctx, page)
		if err != nil {
			p.logger.Warn("skip project page", "source_url", link, "error", err)
			skipped = append(skipped, link)
			continue
		}
		records = append(records, rec)
	}

	if stopErr != nil {
		p.logger.Warn("scan interrupted, saving processed projects", "processed", len(records), "remaining", len(links)-len(records)-len(skipped), "error", stopErr)
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), detachedSaveTimeout)
		defer cancel()
		ctx = saveCtx
	}

	report := p.persist(ctx, records, skipped)
	p.publish(ctx, report)
	return report, stopErr
}

func (p *Pipeline) persist(ctx context.Context, records []domain.ProjectRecord, skipped []string) Report {
	report := Report{Processed: len(records), Skipped: skipped}
	for _, rec := range records {
		if rec.IsRelevant {
			report.Relevant++
		}
	}

	if p.gateway != nil && len(records) > 0 {
		saved := p.gateway.SaveBatch(ctx, records)
		report.Saved = saved.Saved
		report.Failed = saved.Failed
	}

	p.logger.Info("scan summary",
		"processed", report.Processed,
		"relevant", report.Relevant,
		"success_ratio", report.SuccessRatio(),
		"saved", len(report.Saved),
		"failed", len(report.Failed),
		"skipped", len(report.Skipped))

	return report
}

func (p *Pipeline) publish(ctx context.Context, report Report) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.PublishSummary(ctx, report.Message()); err != nil {
		p.logger.Warn("publish summary failed", "error", err)
	}
}
