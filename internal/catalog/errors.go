package catalog

import "errors"

var (
	// ErrNotFound is returned when a requested document blob does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicateName rejects a create or rename whose target already exists.
	ErrDuplicateName = errors.New("document name already exists")
	// ErrInvalidName rejects names with path separators, which would nest
	// blobs below the document directory and break per-document routing.
	ErrInvalidName = errors.New("invalid document name")
	// ErrInvalidFormat rejects content that fails structural validation.
	ErrInvalidFormat = errors.New("not a valid wiki document")
	// ErrTemplateUnreadable is returned when the requested template cannot be read.
	ErrTemplateUnreadable = errors.New("template unreadable")
	// ErrStorage wraps persistence-boundary failures.
	ErrStorage = errors.New("storage failure")
	// ErrCancelled is returned when the confirmation collaborator declines.
	ErrCancelled = errors.New("operation cancelled")
)
