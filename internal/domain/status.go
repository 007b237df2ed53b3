package domain

import "strings"

// DisplayStatus is the coarse lifecycle label shown to users.
type DisplayStatus string

const (
	StatusProposal    DisplayStatus = "Proposal"
	StatusUnderReview DisplayStatus = "Under Review"
	StatusApproved    DisplayStatus = "Approved"
)

// StatusTable maps raw CEQA document-type codes to display statuses.
type StatusTable struct {
	mapping  map[string]DisplayStatus
	fallback DisplayStatus
}

// NewStatusTable copies mapping; unmapped codes resolve to fallback.
func NewStatusTable(mapping map[string]DisplayStatus, fallback DisplayStatus) StatusTable {
	copied := make(map[string]DisplayStatus, len(mapping))
	for code, status := range mapping {
		copied[code] = status
	}
	return StatusTable{mapping: copied, fallback: fallback}
}

// DefaultStatusTable returns the CEQA document-type table.
func DefaultStatusTable() StatusTable {
	return NewStatusTable(map[string]DisplayStatus{
		"NOP":    StatusProposal,
		"IS/MND": StatusUnderReview,
		"DEIR":   StatusUnderReview,
		"NOD":    StatusApproved,
		"FEIR":   StatusApproved,
	}, StatusProposal)
}

// Lookup returns the display status for a document-type code.
func (t StatusTable) Lookup(documentType string) DisplayStatus {
	if status, ok := t.mapping[strings.TrimSpace(documentType)]; ok {
		return status
	}
	if t.fallback == "" {
		return StatusProposal
	}
	return t.fallback
}
