package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"

	"github.com/gocolly/colly/v2"

	"CEQAScanner/internal/config"
	"CEQAScanner/internal/domain"
	"CEQAScanner/internal/infrastructure/parser"
	"CEQAScanner/internal/ports"
)

const defaultMaxResultPages = 25

var errEmptyResponse = errors.New("empty response")

// CEQAnetSource walks CEQAnet search results and fetches project pages.
// Requests share one colly backend so the page delay applies across calls.
type CEQAnetSource struct {
	collector *colly.Collector
	searchURL string
	maxPages  int
	logger    *slog.Logger
}

var _ ports.PageSource = (*CEQAnetSource)(nil)

// NewCEQAnetSource builds the collector from the source configuration.
func NewCEQAnetSource(cfg config.SourceConfig, log *slog.Logger) (*CEQAnetSource, error) {
	search, err := searchURL(cfg)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	opts := []colly.CollectorOption{colly.AllowURLRevisit()}
	if cfg.UserAgent != "" {
		opts = append(opts, colly.UserAgent(cfg.UserAgent))
	}
	c := colly.NewCollector(opts...)
	if cfg.RequestTimeout > 0 {
		c.SetRequestTimeout(cfg.RequestTimeout)
	}
	if err := c.Limit(&colly.LimitRule{DomainGlob: "*", Parallelism: 1, Delay: cfg.PageDelay}); err != nil {
		return nil, fmt.Errorf("source: set limit: %w", err)
	}

	return &CEQAnetSource{
		collector: c,
		searchURL: search,
		maxPages:  defaultMaxResultPages,
		logger:    log,
	}, nil
}

// ProjectLinks returns detail page URLs across every results page, in order and
// without duplicates.
func (s *CEQAnetSource) ProjectLinks(ctx context.Context) ([]string, error) {
	var (
		links   []string
		seen    = map[string]bool{}
		visited = map[string]bool{}
	)

	next := s.searchURL
	for page := 1; next != "" && page <= s.maxPages; page++ {
		if visited[next] {
			break
		}
		visited[next] = true

		body, finalURL, err := s.fetch(ctx, next)
		if err != nil {
			if page == 1 {
				return nil, fmt.Errorf("load search results: %w", err)
			}
			s.logger.Warn("results page failed, stopping pagination", "url", next, "error", err)
			break
		}

		results, err := parser.ParseResultsPage(body, finalURL)
		if err != nil {
			return links, err
		}
		for _, link := range results.ProjectURLs {
			if !seen[link] {
				seen[link] = true
				links = append(links, link)
			}
		}
		s.logger.Debug("results page parsed", "page", page, "links", len(results.ProjectURLs))
		next = results.NextURL
	}

	return links, nil
}

// FetchPage downloads one project detail page.
func (s *CEQAnetSource) FetchPage(ctx context.Context, pageURL string) (domain.RawPage, error) {
	body, _, err := s.fetch(ctx, pageURL)
	if err != nil {
		return domain.RawPage{}, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	return domain.RawPage{SourceURL: pageURL, HTML: body}, nil
}

func (s *CEQAnetSource) fetch(ctx context.Context, pageURL string) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	c := s.collector.Clone()

	var (
		body     []byte
		finalURL string
		fetchErr error
	)
	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})
	c.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
		finalURL = r.Request.URL.String()
	})
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = err
	})

	if err := c.Visit(pageURL); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, "", ctxErr
		}
		return nil, "", err
	}
	if fetchErr != nil {
		return nil, "", fetchErr
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, "", ctxErr
	}
	if len(body) == 0 {
		return nil, "", errEmptyResponse
	}

	return body, finalURL, nil
}

// searchURL adds the configured filters to the search URL's query.
func searchURL(cfg config.SourceConfig) (string, error) {
	if cfg.SearchURL == "" {
		return "", errors.New("source: search url is required")
	}
	u, err := url.Parse(cfg.SearchURL)
	if err != nil {
		return "", fmt.Errorf("source: invalid search url: %w", err)
	}
	if len(cfg.SearchQuery) == 0 {
		return u.String(), nil
	}

	keys := make([]string, 0, len(cfg.SearchQuery))
	for k := range cfg.SearchQuery {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	q := u.Query()
	for _, k := range keys {
		for _, v := range cfg.SearchQuery[k] {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
