package entity

import "errors"

// Domain errors for the knowledge store and related aggregates.
var (
	ErrBlobNotFound    = errors.New("state blob not found")
	ErrInvalidPayload  = errors.New("invalid payload")
	ErrPayloadTooNew   = errors.New("payload schema version newer than supported")
	ErrInvalidIdentity = errors.New("invalid word identity")
	ErrInvalidOutcome  = errors.New("invalid answer outcome")
	ErrStoreNotLoaded  = errors.New("knowledge store not loaded")
	ErrUnknownCategory = errors.New("unknown category")
	ErrUnknownStorage  = errors.New("unknown storage driver")
)
