package parser

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ResultsPage is one page of CEQAnet search results.
type ResultsPage struct {
	ProjectURLs []string
	NextURL     string
}

// ParseResultsPage extracts project detail links and the pagination target.
func ParseResultsPage(body []byte, pageURL string) (ResultsPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ResultsPage{}, fmt.Errorf("parse results %s: %w", pageURL, err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return ResultsPage{}, fmt.Errorf("invalid results url %s: %w", pageURL, err)
	}

	var page ResultsPage
	doc.Find(`a[href*="/Project/"]`).Each(func(_ int, a *goquery.Selection) {
		if abs := resolve(base, a.AttrOr("href", "")); abs != "" {
			page.ProjectURLs = append(page.ProjectURLs, abs)
		}
	})

	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if strings.TrimSpace(a.Text()) != "Next" {
			return true
		}
		if disabled(a) || disabled(a.Parent()) {
			return false
		}
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href != "" && href != "#" {
			page.NextURL = resolve(base, href)
		}
		return false
	})

	return page, nil
}

func disabled(s *goquery.Selection) bool {
	return strings.Contains(s.AttrOr("class", ""), "disabled")
}
