package constants

// ProcessingStatus is the canonical lifecycle status for a document.
type ProcessingStatus string

// Stable values (store these exact strings in DB).
const (
	ProcessingPending   ProcessingStatus = "pending"    // uploaded, not yet picked up
	ProcessingRunning   ProcessingStatus = "processing" // pipeline in progress
	ProcessingCompleted ProcessingStatus = "completed"  // terminal success (possibly partial)
	ProcessingFailed    ProcessingStatus = "failed"     // terminal failure
)

// ValidationStatus is the BREX validation LED for a data module.
type ValidationStatus string

const (
	ValidationGreen ValidationStatus = "green" // validated, no findings
	ValidationAmber ValidationStatus = "amber" // warnings only
	ValidationRed   ValidationStatus = "red"   // at least one hard failure
	ValidationBlue  ValidationStatus = "blue"  // never validated
)

// Info variants for data module content.
const (
	VariantVerbatim   = "00"
	VariantSimplified = "01"
)

// PublicationStatus is the lifecycle status for a publication module.
type PublicationStatus string

const (
	PublicationDraft     PublicationStatus = "draft"
	PublicationPublished PublicationStatus = "published"
)
