package entity

import "time"

// Hotspot is a labelled clickable region within an illustration.
type Hotspot struct {
	ID          string  `json:"id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Description string  `json:"description"`
}

// ICN represents an illustration control number record.
// ICNs are shared by reference; no single data module owns one.
type ICN struct {
	ICNID          string    `json:"icn_id"` // "ICN-" prefixed, unique
	Filename       string    `json:"filename"`
	FilePath       string    `json:"file_path"`
	SHA256Hash     string    `json:"sha256_hash"`
	MimeType       string    `json:"mime_type"`
	Width          int       `json:"width"`
	Height         int       `json:"height"`
	Caption        string    `json:"caption,omitempty"`
	Objects        []string  `json:"objects,omitempty"`
	Hotspots       []Hotspot `json:"hotspots,omitempty"`
	SourcePage     int       `json:"source_page"` // page or slide index where extracted
	SecurityClass  string    `json:"security_class"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
