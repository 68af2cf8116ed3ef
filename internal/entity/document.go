package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/aquila-docs/aquila/constants"
)

// LogEntry is one timestamped processing log line.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// Document represents an uploaded source document for data transfer between layers.
// Content is immutable once stored; only the processing status and logs change.
type Document struct {
	ID               uuid.UUID                  `json:"id"`
	Filename         string                     `json:"filename"`
	MimeType         string                     `json:"mime_type"`
	FileSize         int                        `json:"file_size"`
	SHA256Hash       string                     `json:"sha256_hash"`
	StoragePath      string                     `json:"storage_path"`
	ProcessingStatus constants.ProcessingStatus `json:"processing_status"`
	ProcessingLogs   []LogEntry                 `json:"processing_logs,omitempty"`
	CreatedAt        time.Time                  `json:"created_at"`
	UpdatedAt        time.Time                  `json:"updated_at"`
}
