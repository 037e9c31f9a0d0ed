package domain

import "errors"

var (
	// ErrBadInput signals a malformed request (missing field, bad parameter).
	ErrBadInput = errors.New("bad input")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrStoreUnavailable signals that the document store cannot be reached.
	ErrStoreUnavailable = errors.New("document store unavailable")
	// ErrStoreWrite signals that the document store rejected a write.
	ErrStoreWrite = errors.New("document store write failed")
	// ErrGenerationUnavailable signals a chat-completion provider failure.
	ErrGenerationUnavailable = errors.New("generation unavailable")
	// ErrRateLimited signals a local rate limit hit.
	ErrRateLimited = errors.New("rate limited")
)
