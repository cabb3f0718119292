package domain

import "errors"

// Domain errors (no external dependencies).
var (
	ErrNotFound               = errors.New("resource not found")
	ErrInvalidInput           = errors.New("invalid input")
	ErrConflict               = errors.New("conflict with current state")
	ErrExtractionInProgress   = errors.New("an extraction pass is already running for this quote")
	ErrNoSources              = errors.New("no sources supplied")
	ErrProviderNotConfigured  = errors.New("extraction provider not configured")
	ErrPersistenceUnavailable = errors.New("persistence store not configured")
	ErrExportUnavailable      = errors.New("document export not configured")
)
