package repository

import "errors"

// Package repository contains data access layer abstractions.
// Implementations can live in subpackages (e.g., postgres) inside this directory.

// Sentinel errors shared by all repository implementations.
var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("repository: not found")

	// ErrVersionConflict is returned by compare-and-swap updates when the
	// expected version no longer matches the stored row. Callers retry
	// with a fresh read.
	ErrVersionConflict = errors.New("repository: version conflict")
)

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
