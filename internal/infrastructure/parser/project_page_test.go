package parser

import (
	"strings"
	"testing"

	"CEQAScanner/internal/domain"
)

const detailPage = `
<html>
<body>
  <h1>Sierra Avenue Logistics Center</h1>
  <dl>
    <dt>Lead Agency</dt><dd>City of Fontana</dd>
    <dt>Document Type</dt><dd>NOD</dd>
  </dl>
  <table>
    <tr><th>Location</th><td>123 Main St, Fontana, CA</td></tr>
    <tr><th>Project Type</th><td>Industrial</td></tr>
    <tr><th>Date Posted</th><td>03/15/2024</td></tr>
  </table>
  <p>CEQA Status: Complete</p>
  <div class="label">Project Description</div>
  <div>New Fulfillment Center and Distribution Facility with truck yard.</div>
  <ul>
    <li><a href="/Project/2024030001/Attachment/1.PDF">Notice</a></li>
    <li><a href="https://files.example.gov/eir.pdf">EIR</a></li>
    <li><a href="/Project/2024030001/map.html">Map</a></li>
  </ul>
</body>
</html>`

func TestParseProjectPage(t *testing.T) {
	t.Parallel()

	p := NewProjectPageParser(nil, nil)
	fields, err := p.Parse(domain.RawPage{
		SourceURL: "https://ceqanet.lci.ca.gov/Project/2024030001",
		HTML:      []byte(detailPage),
	})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	checks := map[string][2]string{
		"title":        {fields.Title, "Sierra Avenue Logistics Center"},
		"lead agency":  {fields.LeadAgency, "City of Fontana"},
		"document":     {fields.DocumentType, "NOD"},
		"location":     {fields.Location, "123 Main St, Fontana, CA"},
		"project type": {fields.ProjectType, "Industrial"},
		"date posted":  {fields.DatePosted, "03/15/2024"},
		"ceqa status":  {fields.CEQAStatus, "Complete"},
		"description":  {fields.Description, "New Fulfillment Center and Distribution Facility with truck yard."},
		"deadline":     {fields.CommentDeadline, ""},
	}
	for name, pair := range checks {
		if pair[0] != pair[1] {
			t.Fatalf("unexpected %s: got %q want %q", name, pair[0], pair[1])
		}
	}

	wantDocs := []string{
		"https://ceqanet.lci.ca.gov/Project/2024030001/Attachment/1.PDF",
		"https://files.example.gov/eir.pdf",
	}
	if strings.Join(fields.DocumentURLs, " ") != strings.Join(wantDocs, " ") {
		t.Fatalf("unexpected document urls: %v", fields.DocumentURLs)
	}
}

func TestParseProjectPageLabelledTitleWins(t *testing.T) {
	t.Parallel()

	p := NewProjectPageParser(nil, nil)
	fields, err := p.Parse(domain.RawPage{
		SourceURL: "https://ceqanet.lci.ca.gov/Project/1",
		HTML:      []byte(`<h1>Header</h1><dl><dt>Project Title</dt><dd>Cactus Warehouse</dd></dl>`),
	})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if fields.Title != "Cactus Warehouse" {
		t.Fatalf("unexpected title: %q", fields.Title)
	}
}

func TestParseEmptyPageYieldsEmptyFields(t *testing.T) {
	t.Parallel()

	p := NewProjectPageParser(nil, nil)
	fields, err := p.Parse(domain.RawPage{SourceURL: "https://ceqanet.lci.ca.gov/Project/3"})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if fields.Title != "" || fields.LeadAgency != "" || fields.Location != "" || len(fields.DocumentURLs) != 0 {
		t.Fatalf("expected empty fields, got %+v", fields)
	}
}

func TestParseResultsPage(t *testing.T) {
	t.Parallel()

	body := `
	<div class="search-results">
	  <a href="/Project/2024010001">Yard A</a>
	  <a href="/Project/2024010002">Yard B</a>
	  <a href="/Search/Help">Help</a>
	</div>
	<ul class="pagination"><li><a href="/Search/Results?page=2">Next</a></li></ul>`

	page, err := ParseResultsPage([]byte(body), "https://ceqanet.lci.ca.gov/Search/Results?page=1")
	if err != nil {
		t.Fatalf("ParseResultsPage returned error: %v", err)
	}

	want := []string{
		"https://ceqanet.lci.ca.gov/Project/2024010001",
		"https://ceqanet.lci.ca.gov/Project/2024010002",
	}
	if strings.Join(page.ProjectURLs, " ") != strings.Join(want, " ") {
		t.Fatalf("unexpected project urls: %v", page.ProjectURLs)
	}
	if page.NextURL != "https://ceqanet.lci.ca.gov/Search/Results?page=2" {
		t.Fatalf("unexpected next url: %q", page.NextURL)
	}
}

func TestParseResultsPageDisabledNext(t *testing.T) {
	t.Parallel()

	body := `<ul><li class="disabled"><a href="/Search/Results?page=9">Next</a></li></ul>`

	page, err := ParseResultsPage([]byte(body), "https://ceqanet.lci.ca.gov/Search/Results?page=8")
	if err != nil {
		t.Fatalf("ParseResultsPage returned error: %v", err)
	}
	if page.NextURL != "" {
		t.Fatalf("expected no next url, got %q", page.NextURL)
	}
}
