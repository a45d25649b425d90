package socket

import (
	"fmt"

	socketio "github.com/googollee/go-socket.io"
)

// Broadcaster adapts the Socket.IO server to the services.Publisher
// boundary: one logical event fans out to every current subscriber of the
// room channel.
type Broadcaster struct {
	Server *socketio.Server
}

// Publish broadcasts one event to a room channel. A room with no
// subscribers is reported as an error so the notifier can log it; the
// notifier never propagates it further.
func (b *Broadcaster) Publish(roomID, event string, payload interface{}) error {
	if ok := b.Server.BroadcastToRoom("/", roomID, event, payload); !ok {
		return fmt.Errorf("no subscribers for room %s", roomID)
	}
	return nil
}
