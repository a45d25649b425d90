package models

// RoomMember is keyed (roomId, userId). Leaving a room soft-deactivates the
// row; rejoining reactivates it, so the table keeps full membership history.
type RoomMember struct {
	RoomID     string `dynamodbav:"roomId" json:"roomId"`   // ✅ Partition Key
	UserID     string `dynamodbav:"userId" json:"userId"`   // ✅ Sort Key
	Role       string `dynamodbav:"role" json:"role"`       // HOST, MEMBER
	IsActive   bool   `dynamodbav:"isActive" json:"isActive"`
	JoinedAt   string `dynamodbav:"joinedAt" json:"joinedAt"`
	LastSeenAt string `dynamodbav:"lastSeenAt,omitempty" json:"lastSeenAt,omitempty"`
}

// ✅ Define table name for room members
const RoomMembersTable = "RoomMembers"

// ✅ Define GSI Name (userId HASH, joinedAt RANGE — powers room history)
const UserHistoryIndex = "UserHistoryIndex"
