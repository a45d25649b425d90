package models

// MatchEvent is ephemeral — it exists only as the matchFound payload. One
// message goes to the whole room; LikingParticipants is a field, so each
// client decides for itself whether to render the full-screen celebration.
type MatchEvent struct {
	RoomID              string   `json:"roomId"`
	MovieID             string   `json:"movieId"`
	MovieTitle          string   `json:"movieTitle"`
	LikingParticipants  []string `json:"likingParticipants"`
	AllParticipants     []string `json:"allParticipants"`
	VoteCount           int      `json:"voteCount"`
	RequiredVotes       int      `json:"requiredVotes"`
	Timestamp           string   `json:"timestamp"`
}

// VoteUpdateEvent carries per-item vote progress to a room's subscribers.
type VoteUpdateEvent struct {
	RoomID        string `json:"roomId"`
	MovieID       string `json:"movieId"`
	VoterID       string `json:"voterId"`
	Likes         int    `json:"likes"`
	Dislikes      int    `json:"dislikes"`
	Skips         int    `json:"skips"`
	RequiredVotes int    `json:"requiredVotes"`
}

// RoomEvent is the discriminated membership/presence event. Kind is one of
// the RoomEvent* constants; no sentinel movie ids are involved.
type RoomEvent struct {
	Kind      string `json:"kind"`
	RoomID    string `json:"roomId"`
	UserID    string `json:"userId"`
	Timestamp string `json:"timestamp"`
}
