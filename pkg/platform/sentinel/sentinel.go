package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and gateway clients return
// these (optionally wrapped) so services can translate them into coded domain
// errors at the boundary.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in the store
// - ErrConflict: write collided with a concurrent update
// - ErrAlreadyReleased: milestone funds were already moved on the ledger
// - ErrInvalidState: entity in the wrong lifecycle state for the operation
// - ErrUnavailable: store or ledger node temporarily unreachable
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrAlreadyReleased = errors.New("already released")
	ErrInvalidState    = errors.New("invalid state")
	ErrUnavailable     = errors.New("unavailable")
)
