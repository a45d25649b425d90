package models

// ✅ Room Statuses
const (
	RoomStatusWaiting = "WAITING"
	RoomStatusActive  = "ACTIVE"
	RoomStatusMatched = "MATCHED"
	RoomStatusClosed  = "CLOSED"
)

// ✅ Member Roles
const (
	RoleHost   = "HOST"
	RoleMember = "MEMBER"
)

// ✅ Vote Types
const (
	VoteTypeLike    = "LIKE"
	VoteTypeDislike = "DISLIKE"
	VoteTypeSkip    = "SKIP"
)

// ✅ Connection Statuses
const (
	ConnectionStatusConnecting   = "CONNECTING"
	ConnectionStatusConnected    = "CONNECTED"
	ConnectionStatusInRoom       = "IN_ROOM"
	ConnectionStatusDisconnected = "DISCONNECTED"
)

// ✅ Media Types
const (
	MediaTypeMovie = "MOVIE"
	MediaTypeTV    = "TV"
)

// ✅ Room Event Kinds (realtime presence channel)
const (
	RoomEventJoin       = "join"
	RoomEventLeave      = "leave"
	RoomEventConnect    = "connect"
	RoomEventDisconnect = "disconnect"
)

// MaxGenreFilters caps the number of category filters a room may carry.
const MaxGenreFilters = 3
