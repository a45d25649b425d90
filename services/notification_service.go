package services

import (
	"log"

	"trinity_server/models"
)

// Publisher is the pub/sub boundary: one logical message to every current
// subscriber of a room channel. The production implementation broadcasts
// over socket.io.
type Publisher interface {
	Publish(roomID, event string, payload interface{}) error
}

// Realtime event names.
const (
	EventMatchFound = "matchFound"
	EventVoteUpdate = "voteUpdate"
	EventRoomEvent  = "roomEvent"
)

// NotificationService fans out room events. Notification is a best-effort
// side channel, never the source of truth: a failed publish is logged and
// swallowed so it can never roll back a vote or a match-count increment.
type NotificationService struct {
	Publisher Publisher
}

// PublishMatchFound emits exactly one message for the whole room. The
// payload carries likingParticipants as a field — clients in that list
// render the full-screen celebration, everyone else renders the plain
// match banner. The audience split is a field, not two messages.
func (s *NotificationService) PublishMatchFound(event models.MatchEvent) {
	if s == nil || s.Publisher == nil {
		return
	}
	if err := s.Publisher.Publish(event.RoomID, EventMatchFound, event); err != nil {
		log.Printf("⚠️ Failed to publish matchFound for room %s: %v", event.RoomID, err)
		return
	}
	log.Printf("🎉 Match published for room %s: %s (%d/%d)", event.RoomID, event.MovieTitle, event.VoteCount, event.RequiredVotes)
}

// PublishVoteUpdate emits item-level vote progress to the room's
// subscribers. VoterID lets clients suppress the echo for the voter.
func (s *NotificationService) PublishVoteUpdate(event models.VoteUpdateEvent) {
	if s == nil || s.Publisher == nil {
		return
	}
	if err := s.Publisher.Publish(event.RoomID, EventVoteUpdate, event); err != nil {
		log.Printf("⚠️ Failed to publish voteUpdate for room %s: %v", event.RoomID, err)
	}
}

// PublishRoomEvent emits a discriminated membership/presence event
// (join, leave, connect, disconnect) on the room channel.
func (s *NotificationService) PublishRoomEvent(event models.RoomEvent) {
	if s == nil || s.Publisher == nil {
		return
	}
	if err := s.Publisher.Publish(event.RoomID, EventRoomEvent, event); err != nil {
		log.Printf("⚠️ Failed to publish %s event for room %s: %v", event.Kind, event.RoomID, err)
	}
}
