package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/aquila-docs/aquila/constants"
)

// DataModule represents an S1000D data module for data transfer between layers.
//
// A verbatim ("00") and simplified ("01") variant generated from the same
// source document share every field except InfoVariant, Content and STEScore.
type DataModule struct {
	DMC              string                     `json:"dmc"`
	Title            string                     `json:"title"`
	DMType           constants.DMType           `json:"dm_type"`
	InfoVariant      string                     `json:"info_variant"` // "00" verbatim, "01" simplified
	Content          string                     `json:"content"`
	HTMLContent      string                     `json:"html_content,omitempty"`
	XMLContent       string                     `json:"xml_content,omitempty"`
	SourceDocumentID uuid.UUID                  `json:"source_document_id"`
	Applicability    map[string]bool            `json:"applicability,omitempty"`
	ICNRefs          []string                   `json:"icn_refs,omitempty"`
	DMRefs           []string                   `json:"dm_refs,omitempty"`
	ValidationStatus constants.ValidationStatus `json:"validation_status"`
	ValidationErrors []string                   `json:"validation_errors,omitempty"`
	STEScore         float64                    `json:"ste_score,omitempty"` // only meaningful for variant "01"
	ProcessingLogs   []LogEntry                 `json:"processing_logs,omitempty"`
	CreatedAt        time.Time                  `json:"created_at"`
	UpdatedAt        time.Time                  `json:"updated_at"`
}
