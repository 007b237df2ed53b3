package usecase

import (
	"time"

	"CEQAScanner/internal/domain"
)

// AssemblyInput gathers every upstream result for one page.
type AssemblyInput struct {
	SourceURL       string
	Fields          domain.ExtractedFields
	City            string
	County          string
	DatePosted      *time.Time
	CommentDeadline *time.Time
	Classification  domain.Classification
	Location        *domain.Coordinates
}

// Assemble composes the record without recomputing anything. Slices and
// pointers are copied so the record does not alias its inputs.
func Assemble(in AssemblyInput) domain.ProjectRecord {
	return domain.ProjectRecord{
		SourceURL:       in.SourceURL,
		Title:           in.Fields.Title,
		LeadAgency:      in.Fields.LeadAgency,
		Address:         in.Fields.Location,
		Description:     in.Fields.Description,
		ProjectType:     in.Fields.ProjectType,
		DocumentType:    in.Fields.DocumentType,
		CEQAStatus:      in.Fields.CEQAStatus,
		City:            in.City,
		County:          in.County,
		DatePosted:      copyTime(in.DatePosted),
		CommentDeadline: copyTime(in.CommentDeadline),
		Location:        copyCoordinates(in.Location),
		IsRelevant:      in.Classification.IsRelevant,
		RelevanceScore:  in.Classification.Score,
		MatchedKeywords: copyStrings(in.Classification.MatchedKeywords),
		DocumentURLs:    copyStrings(in.Fields.DocumentURLs),
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyCoordinates(c *domain.Coordinates) *domain.Coordinates {
	if c == nil {
		return nil
	}
	v := *c
	return &v
}

func copyStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
