package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"CEQAScanner/internal/config"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/Search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `<html><body>
				<a href="/Project/2024020002">Second</a>
				<a href="/Project/2024020003">Third</a>
				<ul class="pagination"><li class="disabled"><a href="#">Next</a></li></ul>
			</body></html>`)
			return
		}
		fmt.Fprint(w, `<html><body>
			<a href="/Project/2024020001">First</a>
			<a href="/Project/2024020002">Second</a>
			<a href="/Search?page=2">Next</a>
		</body></html>`)
	})
	mux.HandleFunc("/Project/2024020001", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "test-agent" {
			http.Error(w, "bad agent "+got, http.StatusForbidden)
			return
		}
		fmt.Fprint(w, `<html><body><h1>Fontana Warehouse</h1></body></html>`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestSource(t *testing.T, srv *httptest.Server) *CEQAnetSource {
	t.Helper()

	src, err := NewCEQAnetSource(config.SourceConfig{
		SearchURL:      srv.URL + "/Search",
		UserAgent:      "test-agent",
		RequestTimeout: 5 * time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("NewCEQAnetSource: %v", err)
	}
	return src
}

func TestProjectLinksFollowsPagination(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	src := newTestSource(t, srv)

	links, err := src.ProjectLinks(context.Background())
	if err != nil {
		t.Fatalf("ProjectLinks: %v", err)
	}

	want := []string{
		srv.URL + "/Project/2024020001",
		srv.URL + "/Project/2024020002",
		srv.URL + "/Project/2024020003",
	}
	if len(links) != len(want) {
		t.Fatalf("expected %d links, got %d: %v", len(want), len(links), links)
	}
	for i := range want {
		if links[i] != want[i] {
			t.Fatalf("link %d: expected %s, got %s", i, want[i], links[i])
		}
	}
}

func TestFetchPageReturnsBody(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	src := newTestSource(t, srv)

	url := srv.URL + "/Project/2024020001"
	page, err := src.FetchPage(context.Background(), url)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if page.SourceURL != url {
		t.Fatalf("unexpected source url %s", page.SourceURL)
	}
	if !strings.Contains(string(page.HTML), "Fontana Warehouse") {
		t.Fatalf("unexpected body %s", page.HTML)
	}
}

func TestFetchPageNotFound(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	src := newTestSource(t, srv)

	if _, err := src.FetchPage(context.Background(), srv.URL+"/Project/missing"); err == nil {
		t.Fatal("expected error for missing page")
	}
}

func TestFetchPageCancelledContext(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	src := newTestSource(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := src.FetchPage(ctx, srv.URL+"/Project/2024020001"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestProjectLinksFailsWhenSearchUnavailable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	src := newTestSource(t, srv)
	if _, err := src.ProjectLinks(context.Background()); err == nil {
		t.Fatal("expected error when the search page is missing")
	}
}

func TestNewCEQAnetSourceRequiresSearchURL(t *testing.T) {
	t.Parallel()

	if _, err := NewCEQAnetSource(config.SourceConfig{}, nil); err == nil {
		t.Fatal("expected error without search url")
	}
}

func TestProjectLinksSendsSearchFilters(t *testing.T) {
	t.Parallel()

	queries := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case queries <- r.URL.RawQuery:
		default:
		}
		fmt.Fprint(w, `<html><body><a href="/Project/2024020001">First</a></body></html>`)
	}))
	defer srv.Close()

	src, err := NewCEQAnetSource(config.SourceConfig{
		SearchURL: srv.URL + "/Search/Advanced?Page=1",
		SearchQuery: map[string][]string{
			"DocumentTypeIds": {"NOP", "NOD"},
			"CountyIds":       {"36", "33"},
		},
	}, nil)
	if err != nil {
		t.Fatalf("NewCEQAnetSource: %v", err)
	}

	if _, err := src.ProjectLinks(context.Background()); err != nil {
		t.Fatalf("ProjectLinks: %v", err)
	}

	got := <-queries
	want := "CountyIds=36&CountyIds=33&DocumentTypeIds=NOP&DocumentTypeIds=NOD&Page=1"
	if got != want {
		t.Fatalf("unexpected query:\n got %s\nwant %s", got, want)
	}
}

func TestSearchURLWithoutFilters(t *testing.T) {
	t.Parallel()

	got, err := searchURL(config.SourceConfig{SearchURL: "https://ceqanet.lci.ca.gov/Search/Advanced"})
	if err != nil {
		t.Fatalf("searchURL: %v", err)
	}
	if got != "https://ceqanet.lci.ca.gov/Search/Advanced" {
		t.Fatalf("unexpected url %s", got)
	}
}
