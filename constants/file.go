package constants

import "strings"

// Format identifies a supported source document format.
type Format string

const (
	PDF   Format = "PDF"
	DOCX  Format = "DOCX"
	PPTX  Format = "PPTX"
	XLSX  Format = "XLSX"
	TXT   Format = "TXT"
	IMAGE Format = "IMAGE"
)

// Formats holds the allowed values for the format field on documents.
var Formats = []string{"PDF", "DOCX", "PPTX", "XLSX", "TXT", "IMAGE"}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat resolves a file extension to a Format, or "" if unsupported.
func MapExtToFormat(ext string) Format {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "docx":
		return DOCX
	case "pptx":
		return PPTX
	case "xlsx":
		return XLSX
	case "txt", "text", "md":
		return TXT
	case "png", "jpg", "jpeg", "gif":
		return IMAGE
	default:
		return ""
	}
}

// MapMIMEToFormat resolves a MIME type to a Format, or "" if unsupported.
func MapMIMEToFormat(mime string) Format {
	switch {
	case mime == "application/pdf":
		return PDF
	case mime == "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return DOCX
	case mime == "application/vnd.openxmlformats-officedocument.presentationml.presentation":
		return PPTX
	case mime == "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return XLSX
	case strings.HasPrefix(mime, "text/"):
		return TXT
	case strings.HasPrefix(mime, "image/"):
		return IMAGE
	default:
		return ""
	}
}
