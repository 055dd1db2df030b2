package model

import "time"

// AccessAction is the operation attempted on a document.
type AccessAction string

const (
	ActionView     AccessAction = "view"
	ActionDownload AccessAction = "download"
	ActionEdit     AccessAction = "edit"
	ActionDelete   AccessAction = "delete"
	ActionExport   AccessAction = "export"
)

// AccessStatus is the outcome of an access attempt.
type AccessStatus string

const (
	AccessSuccess AccessStatus = "success"
	AccessFailed  AccessStatus = "failed"
	AccessDenied  AccessStatus = "denied"
)

// DocumentAccessLog is one append-only audit record of a document access
// attempt and its outcome. Rows are never updated or deleted.
type DocumentAccessLog struct {
	ID         string       `json:"id"`
	DocumentID string       `json:"document_id"`
	UserID     string       `json:"user_id"`
	Action     AccessAction `json:"action"`
	IPAddress  string       `json:"ip_address,omitempty"`
	UserAgent  string       `json:"user_agent,omitempty"`
	Status     AccessStatus `json:"status"`
	Reason     string       `json:"reason,omitempty"`
	AccessedAt time.Time    `json:"accessed_at"`
}
