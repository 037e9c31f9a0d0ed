package ragdex

import "github.com/kailas-cloud/ragdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrBadInput              = domain.ErrBadInput
	ErrDocumentNotFound      = domain.ErrDocumentNotFound
	ErrStoreUnavailable      = domain.ErrStoreUnavailable
	ErrStoreWrite            = domain.ErrStoreWrite
	ErrGenerationUnavailable = domain.ErrGenerationUnavailable
)
