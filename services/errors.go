package services

import "errors"

// Sentinel errors shared by the domain services. Controllers map these to
// HTTP statuses with errors.Is, so services must wrap rather than replace
// them when adding detail.
var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrConnectionNotFound = errors.New("connection not found")
	ErrInvalidInvite      = errors.New("invite code not recognized")
	ErrDuplicateVote      = errors.New("vote already cast")
	ErrRoomNotJoinable    = errors.New("room is not accepting members")
	ErrRoomFull           = errors.New("room is at capacity")
	ErrRoomNotActive      = errors.New("room is not in active voting")
	ErrNotMember          = errors.New("user is not an active room member")
	ErrNotHost            = errors.New("operation restricted to the room host")
	ErrFiltersImmutable   = errors.New("room filters cannot be changed once set")
	ErrTooManyCategories  = errors.New("too many genre filters")
	ErrInvalidInput       = errors.New("invalid input")

	// ErrUnavailable is the terminal form of a transient store failure:
	// the retry budget ran out and the caller should try again later.
	ErrUnavailable = errors.New("storage temporarily unavailable")

	// ErrSchemaMismatch marks a fatal disagreement between the code and
	// the table definition (bad key shape, missing table). Retrying is
	// pointless; the deployment is broken.
	ErrSchemaMismatch = errors.New("storage schema mismatch")

	// ErrItemNotFound is the store-level miss. Services translate it into
	// the domain sentinel that fits the lookup.
	ErrItemNotFound = errors.New("item not found")
)
