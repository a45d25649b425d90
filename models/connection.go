package models

// Connection tracks one realtime subscriber. A connectionId is generated
// once and never reassigned to a different user.
//
// State machine: CONNECTING → CONNECTED → IN_ROOM → CONNECTED → DISCONNECTED.
type Connection struct {
	ConnectionID string `dynamodbav:"connectionId" json:"connectionId"` // ✅ Partition Key
	UserID       string `dynamodbav:"userId" json:"userId"`
	RoomID       string `dynamodbav:"roomId,omitempty" json:"roomId,omitempty"` // ✅ Used in GSI
	Status       string `dynamodbav:"status" json:"status"`
	IsActive     bool   `dynamodbav:"isActive" json:"isActive"`
	ConnectedAt  string `dynamodbav:"connectedAt" json:"connectedAt"`
	LastPingAt   string `dynamodbav:"lastPingAt,omitempty" json:"lastPingAt,omitempty"`
}

// ✅ Define table name for connections
const ConnectionsTable = "Connections"

// ✅ Define GSI Name (Used to list a room's live subscribers)
const ConnectionsRoomIndex = "roomId-index"
