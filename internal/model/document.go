package model

import "time"

// DocumentStatus tracks the linear document lifecycle:
// generated -> archived -> deleted. Deleted is terminal.
type DocumentStatus string

const (
	StatusGenerated DocumentStatus = "generated"
	StatusArchived  DocumentStatus = "archived"
	StatusDeleted   DocumentStatus = "deleted"
)

// AccessLevel classifies document sensitivity. Each level grants access to
// itself and the roles above it in the fixed role ordering.
type AccessLevel string

const (
	AccessPublic       AccessLevel = "public"
	AccessInternal     AccessLevel = "internal"
	AccessConfidential AccessLevel = "confidential"
	AccessSecret       AccessLevel = "secret"
)

// IsValid reports whether the access level is a known classification.
func (l AccessLevel) IsValid() bool {
	switch l {
	case AccessPublic, AccessInternal, AccessConfidential, AccessSecret:
		return true
	}
	return false
}

// Reserved metadata keys on Document.Metadata.
const (
	MetaKeyTags      = "tags"
	MetaKeyWatermark = "watermark"
	// MetaKeyDegraded is set to true when a post-processing stage fell
	// back to unmodified bytes instead of failing the generation.
	MetaKeyDegraded = "postprocessing_degraded"
)

// Document is the metadata record for a generated file.
// This is a pure domain model with no database-specific dependencies or tags.
// Once a document reaches StatusGenerated its FilePath, FileHash and
// FileSize never change; regeneration produces a new Document linked
// through ParentDocumentID.
type Document struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	TemplateID       string         `json:"template_id"`
	TemplateVersion  int            `json:"template_version"`
	DocType          string         `json:"doc_type"`
	Status           DocumentStatus `json:"status"`
	AccessLevel      AccessLevel    `json:"access_level"`
	FilePath         string         `json:"file_path"`
	FileHash         string         `json:"file_hash"`
	FileSize         int64          `json:"file_size"`
	MimeType         string         `json:"mime_type"`
	InputData        string         `json:"input_data,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	Version          int            `json:"version"`
	ParentDocumentID *string        `json:"parent_document_id,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	ArchivedAt       *time.Time     `json:"archived_at,omitempty"`
	CreatedBy        string         `json:"created_by"`
	UpdatedBy        *string        `json:"updated_by,omitempty"`
	IsEncrypted      bool           `json:"is_encrypted"`
	EncryptionKeyID  *string        `json:"encryption_key_id,omitempty"`
	IsReadonly       bool           `json:"is_readonly"`
	RetentionDays    *int           `json:"retention_days,omitempty"`
}
