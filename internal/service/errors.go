package service

import "errors"

var (
	ErrIDRequired      = errors.New("id is required")
	ErrNameRequired    = errors.New("name is required")
	ErrContentRequired = errors.New("content is required")

	ErrTemplateNotFound = errors.New("template not found")
	ErrDocumentNotFound = errors.New("document not found")

	ErrInvalidAccessLevel = errors.New("invalid access level")

	// ErrMissingPlaceholder is returned when a required placeholder has no
	// value in the generation data.
	ErrMissingPlaceholder = errors.New("missing required placeholder")
)
