package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenAbsentOptionalsAreNil(t *testing.T) {
	t.Parallel()

	rec := ProjectRecord{SourceURL: "https://ceqanet.lci.ca.gov/Project/1", Title: "Yard"}
	row := Flatten(rec, StatusProposal, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))

	require.Len(t, row, len(Columns))
	for _, col := range Columns {
		_, ok := row[col]
		assert.True(t, ok, "column %s missing", col)
	}

	assert.Nil(t, row["latitude"])
	assert.Nil(t, row["longitude"])
	assert.Nil(t, row["date_posted"])
	assert.Nil(t, row["comment_deadline"])
	assert.Equal(t, []string{}, row["document_urls"])
	assert.Equal(t, []string{}, row["matched_keywords"])
	assert.Equal(t, "2024-05-01", row["scrape_date"])
	assert.Equal(t, "https://ceqanet.lci.ca.gov/Project/1", row.SourceURL())
}

func TestFlattenPresentOptionals(t *testing.T) {
	t.Parallel()

	posted := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	rec := ProjectRecord{
		SourceURL:       "https://ceqanet.lci.ca.gov/Project/2",
		DatePosted:      &posted,
		Location:        &Coordinates{Latitude: 34.09, Longitude: -117.43},
		IsRelevant:      true,
		RelevanceScore:  0.6,
		MatchedKeywords: []string{"warehouse", "freight"},
	}
	row := Flatten(rec, StatusApproved, posted)

	assert.Equal(t, "2024-03-15", row["date_posted"])
	assert.Equal(t, 34.09, row["latitude"])
	assert.Equal(t, -117.43, row["longitude"])
	assert.Equal(t, "Approved", row["display_status"])
	assert.Equal(t, true, row["is_relevant"])
	assert.Equal(t, []string{"warehouse", "freight"}, row["matched_keywords"])
}
