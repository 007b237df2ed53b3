package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"CEQAScanner/internal/domain"
	"CEQAScanner/internal/infrastructure/storage"
)

type fakeSource struct {
	links   []string
	pages   map[string]string
	linkErr error
	onFetch func(url string)

	mu      sync.Mutex
	fetched []string
}

func (f *fakeSource) ProjectLinks(context.Context) ([]string, error) {
	if f.linkErr != nil {
		return nil, f.linkErr
	}
	return append([]string(nil), f.links...), nil
}

func (f *fakeSource) FetchPage(_ context.Context, url string) (domain.RawPage, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, url)
	f.mu.Unlock()

	if f.onFetch != nil {
		f.onFetch(url)
	}

	body, ok := f.pages[url]
	if !ok {
		return domain.RawPage{}, fmt.Errorf("fetch %s: 404", url)
	}
	return domain.RawPage{SourceURL: url, HTML: []byte(body)}, nil
}

type fakeGeocoder struct {
	coords    *domain.Coordinates
	addresses []string
}

func (f *fakeGeocoder) Locate(_ context.Context, address, city, county string) *domain.Coordinates {
	if address == "" {
		return nil
	}
	f.addresses = append(f.addresses, address)
	if f.coords == nil {
		return nil
	}
	c := *f.coords
	return &c
}

type fakeNotifier struct {
	messages []string
	err      error
}

func (f *fakeNotifier) PublishSummary(_ context.Context, summary string) error {
	f.messages = append(f.messages, summary)
	return f.err
}

// flakyRepository fails for the listed source URLs and stores everything else.
type flakyRepository struct {
	*storage.MemoryRepository
	failFor map[string]bool
}

func (f *flakyRepository) Upsert(ctx context.Context, row domain.ProjectRow) error {
	if f.failFor[row.SourceURL()] {
		return errors.New("constraint violation")
	}
	return f.MemoryRepository.Upsert(ctx, row)
}

func projectHTML(title, location, docType, description, posted string) string {
	return fmt.Sprintf(`<html><body>
<dl>
  <dt>Project Title</dt><dd>%s</dd>
  <dt>Lead Agency</dt><dd>City of Fontana</dd>
  <dt>Location</dt><dd>%s</dd>
  <dt>Document Type</dt><dd>%s</dd>
  <dt>Project Description</dt><dd>%s</dd>
  <dt>Date Posted</dt><dd>%s</dd>
</dl>
<a href="/Project/files/notice.pdf">Notice</a>
</body></html>`, title, location, docType, description, posted)
}
