package domain

import "time"

const dateLayout = "2006-01-02"

// ConflictKey is the column used as the upsert identity.
const ConflictKey = "source_url"

// Columns lists every persisted column in storage order.
var Columns = []string{
	"source_url",
	"title",
	"lead_agency",
	"city",
	"county",
	"address",
	"latitude",
	"longitude",
	"project_description",
	"project_type",
	"document_type",
	"ceqa_status",
	"display_status",
	"date_posted",
	"comment_deadline",
	"document_urls",
	"is_relevant",
	"relevance_score",
	"matched_keywords",
	"scrape_date",
}

// ProjectRow is a record flattened to plain key/values. Every column in
// Columns is present; absent optionals hold nil.
type ProjectRow map[string]any

// SourceURL returns the identity of the row.
func (r ProjectRow) SourceURL() string {
	v, _ := r[ConflictKey].(string)
	return v
}

// Flatten converts a record into the storage row.
func Flatten(rec ProjectRecord, status DisplayStatus, scrapedOn time.Time) ProjectRow {
	row := ProjectRow{
		"source_url":          rec.SourceURL,
		"title":               rec.Title,
		"lead_agency":         rec.LeadAgency,
		"city":                rec.City,
		"county":              rec.County,
		"address":             rec.Address,
		"latitude":            nil,
		"longitude":           nil,
		"project_description": rec.Description,
		"project_type":        rec.ProjectType,
		"document_type":       rec.DocumentType,
		"ceqa_status":         rec.CEQAStatus,
		"display_status":      string(status),
		"date_posted":         formatDate(rec.DatePosted),
		"comment_deadline":    formatDate(rec.CommentDeadline),
		"document_urls":       nonNil(rec.DocumentURLs),
		"is_relevant":         rec.IsRelevant,
		"relevance_score":     rec.RelevanceScore,
		"matched_keywords":    nonNil(rec.MatchedKeywords),
		"scrape_date":         scrapedOn.Format(dateLayout),
	}

	if rec.Location != nil {
		row["latitude"] = rec.Location.Latitude
		row["longitude"] = rec.Location.Longitude
	}

	return row
}

func formatDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(dateLayout)
}

func nonNil(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}
