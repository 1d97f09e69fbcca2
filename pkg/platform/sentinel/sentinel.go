package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into coded domain errors.
//
// These represent factual states about stored records:
// - ErrNotFound: record does not exist in the store
// - ErrDuplicate: a uniqueness constraint rejected the write
// - ErrInvalidState: conditional write lost because the record changed underneath
// - ErrUnavailable: storage temporarily unreachable; retried at the boundary
//
// For validation failures (bad input, missing fields), use pkg/domain-errors
// directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicate    = errors.New("duplicate")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
