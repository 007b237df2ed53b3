package domain

import "time"

// RawPage is one project detail page as delivered by the page source.
type RawPage struct {
	SourceURL string
	HTML      []byte
}

// ExtractedFields holds the raw strings recovered from a detail page.
// An empty string means the label was not found.
type ExtractedFields struct {
	Title           string
	LeadAgency      string
	Location        string
	Description     string
	ProjectType     string
	DocumentType    string
	CEQAStatus      string
	DatePosted      string
	CommentDeadline string
	DocumentURLs    []string
}

// Coordinates is a resolved geographic point.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Classification is the relevance decision for one project.
type Classification struct {
	IsRelevant      bool
	Score           float64
	MatchedKeywords []string
}

// ProjectRecord is the assembled, terminal view of one project page.
// Records are passed by value and never modified after assembly.
type ProjectRecord struct {
	SourceURL string

	Title        string
	LeadAgency   string
	Address      string
	Description  string
	ProjectType  string
	DocumentType string
	CEQAStatus   string

	City   string
	County string

	DatePosted      *time.Time
	CommentDeadline *time.Time

	Location *Coordinates

	IsRelevant      bool
	RelevanceScore  float64
	MatchedKeywords []string

	DocumentURLs []string
}
