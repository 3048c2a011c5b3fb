package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound         = errors.New("entity not found")
	ErrAlreadyExists    = errors.New("entity already exists")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrValidation       = errors.New("insufficient input")
	ErrExtraction       = errors.New("extraction failed")
	ErrExtractionParse  = errors.New("extraction result not parseable")
	ErrModelCall        = errors.New("model call failed")
	ErrBusy             = errors.New("a response is already in flight")
	ErrNoActiveBot      = errors.New("no chatbot selected")
	ErrAINotInitialized = errors.New("ai client not initialized")
)
