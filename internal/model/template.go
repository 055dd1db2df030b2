package model

import "time"

// FileType identifies the format of a template file and drives rendering
// engine dispatch.
type FileType string

const (
	FileTypeHTML FileType = "html"
	FileTypeDOCX FileType = "docx"
	FileTypePDF  FileType = "pdf"
)

// IsValid reports whether the file type is one the system can render.
func (t FileType) IsValid() bool {
	switch t {
	case FileTypeHTML, FileTypeDOCX, FileTypePDF:
		return true
	}
	return false
}

// MimeType returns the MIME type associated with the file type.
func (t FileType) MimeType() string {
	switch t {
	case FileTypeHTML:
		return "text/html"
	case FileTypeDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FileTypePDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// PlaceholderType classifies the value expected at a substitution point.
type PlaceholderType string

const (
	PlaceholderText   PlaceholderType = "text"
	PlaceholderNumber PlaceholderType = "number"
	PlaceholderDate   PlaceholderType = "date"
	PlaceholderImage  PlaceholderType = "image"
	PlaceholderTable  PlaceholderType = "table"
)

// Placeholder describes a named substitution point within a template.
type Placeholder struct {
	Name        string          `json:"name"`
	Type        PlaceholderType `json:"type"`
	Required    bool            `json:"required"`
	Description string          `json:"description,omitempty"`
}

// Template is a reusable document skeleton with named placeholders,
// versioned over time. CurrentVersion always equals the highest version
// number recorded for the template, and FilePath points at that version's
// stored object.
type Template struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Category       string         `json:"category"`
	Description    string         `json:"description,omitempty"`
	CurrentVersion int            `json:"current_version"`
	FilePath       string         `json:"file_path"`
	Placeholders   []Placeholder  `json:"placeholders"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	FileType       FileType       `json:"file_type"`
	IsActive       bool           `json:"is_active"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	CreatedBy      string         `json:"created_by"`
}

// TemplateVersion is an immutable snapshot of a template's content at a
// given version. A new upload always creates a new version row.
type TemplateVersion struct {
	ID            string    `json:"id"`
	TemplateID    string    `json:"template_id"`
	Version       int       `json:"version"`
	FilePath      string    `json:"file_path"`
	FileHash      string    `json:"file_hash"`
	Description   string    `json:"description,omitempty"`
	ChangeSummary string    `json:"change_summary,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	CreatedBy     string    `json:"created_by"`
}
