package models

import "fmt"

// Vote is keyed (roomId#movieId, userId). A row is written at most once per
// triple — the write path enforces immutability with a conditional put.
type Vote struct {
	RoomMovieID string `dynamodbav:"roomMovieId" json:"-"`    // ✅ Partition Key: "<roomId>#<movieId>"
	UserID      string `dynamodbav:"userId" json:"userId"`    // ✅ Sort Key
	RoomID      string `dynamodbav:"roomId" json:"roomId"`    // ✅ Used in GSI
	MovieID     string `dynamodbav:"movieId" json:"movieId"`
	VoteType    string `dynamodbav:"voteType" json:"voteType"` // LIKE, DISLIKE, SKIP
	CreatedAt   string `dynamodbav:"createdAt" json:"createdAt"`
}

// VoteKey builds the composite partition key for a (room, movie) pair.
func VoteKey(roomID, movieID string) string {
	return fmt.Sprintf("%s#%s", roomID, movieID)
}

// RoomMatch records a resolved consensus for one (room, movie) pair. The
// conditional put on this row is the exactly-once guard for match triggers.
type RoomMatch struct {
	RoomID        string   `dynamodbav:"roomId" json:"roomId"`   // ✅ Partition Key
	MovieID       string   `dynamodbav:"movieId" json:"movieId"` // ✅ Sort Key
	MovieTitle    string   `dynamodbav:"movieTitle,omitempty" json:"movieTitle,omitempty"`
	VoteCount     int      `dynamodbav:"voteCount" json:"voteCount"`
	RequiredVotes int      `dynamodbav:"requiredVotes" json:"requiredVotes"`
	LikedBy       []string `dynamodbav:"likedBy,omitempty" json:"likedBy,omitempty"`
	MatchedAt     string   `dynamodbav:"matchedAt" json:"matchedAt"`
}

// VoteTally is the per-item result returned to the voter.
type VoteTally struct {
	RoomID        string `json:"roomId"`
	MovieID       string `json:"movieId"`
	Likes         int    `json:"likes"`
	Dislikes      int    `json:"dislikes"`
	Skips         int    `json:"skips"`
	RequiredVotes int    `json:"requiredVotes"`
	Matched       bool   `json:"matched"`
}

// ✅ Define table names for votes and resolved matches
const (
	VotesTable       = "Votes"
	RoomMatchesTable = "RoomMatches"
)

// ✅ Define GSI Name (Used to list all votes cast in a room)
const VotesRoomIndex = "roomId-index"
