package parser

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"CEQAScanner/internal/domain"
	"CEQAScanner/internal/scanner"
)

// Labels used on CEQAnet project detail pages.
const (
	LabelTitle           = "Project Title"
	LabelLeadAgency      = "Lead Agency"
	LabelLocation        = "Location"
	LabelDescription     = "Project Description"
	LabelProjectType     = "Project Type"
	LabelDocumentType    = "Document Type"
	LabelCEQAStatus      = "CEQA Status"
	LabelDatePosted      = "Date Posted"
	LabelCommentDeadline = "Comment Deadline"
)

var pdfExpr = regexp.MustCompile(`(?i)\.pdf$`)

// ProjectPageParser recovers project fields from detail page markup.
type ProjectPageParser struct {
	chain  *scanner.Chain
	logger *slog.Logger
}

// NewProjectPageParser wires an extraction chain; a nil chain uses scanner.DefaultChain.
func NewProjectPageParser(chain *scanner.Chain, log *slog.Logger) *ProjectPageParser {
	if chain == nil {
		chain = scanner.DefaultChain()
	}
	return &ProjectPageParser{chain: chain, logger: log}
}

// Parse reads the page markup and extracts every known field.
func (p *ProjectPageParser) Parse(page domain.RawPage) (domain.ExtractedFields, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.HTML))
	if err != nil {
		return domain.ExtractedFields{}, fmt.Errorf("parse document %s: %w", page.SourceURL, err)
	}
	return p.ParseDocument(doc, page.SourceURL), nil
}

// ParseDocument extracts fields from an already parsed document.
func (p *ProjectPageParser) ParseDocument(doc *goquery.Document, sourceURL string) domain.ExtractedFields {
	fields := domain.ExtractedFields{
		Title:           p.field(doc, LabelTitle),
		LeadAgency:      p.field(doc, LabelLeadAgency),
		Location:        p.field(doc, LabelLocation),
		Description:     p.field(doc, LabelDescription),
		ProjectType:     p.field(doc, LabelProjectType),
		DocumentType:    p.field(doc, LabelDocumentType),
		CEQAStatus:      p.field(doc, LabelCEQAStatus),
		DatePosted:      p.field(doc, LabelDatePosted),
		CommentDeadline: p.field(doc, LabelCommentDeadline),
		DocumentURLs:    documentURLs(doc, sourceURL),
	}

	if fields.Title == "" {
		fields.Title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	return fields
}

func (p *ProjectPageParser) field(doc *goquery.Document, label string) string {
	res, ok := p.chain.Extract(doc, label)
	if !ok {
		p.debug("field not found", "label", label)
		return ""
	}
	p.debug("field extracted", "label", label, "strategy", res.Strategy)
	return res.Value
}

func (p *ProjectPageParser) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

// documentURLs collects attachment links ending in .pdf, resolved against the page URL.
func documentURLs(doc *goquery.Document, pageURL string) []string {
	base, _ := url.Parse(pageURL)

	var urls []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" || !pdfExpr.MatchString(href) {
			return
		}
		if abs := resolve(base, href); abs != "" {
			urls = append(urls, abs)
		}
	})
	return urls
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil || ref.IsAbs() {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
