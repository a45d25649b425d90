package socket

import (
	"context"
	"log"

	"trinity_server/services"

	socketio "github.com/googollee/go-socket.io"
)

// NewSocketServer initializes the Socket.IO server and wires its lifecycle
// events into the connection registry. Clients register with their userId
// (and optionally a roomId), then join/leave room channels; every handler
// writes through the registry so the durable connection state matches what
// the socket layer sees.
func NewSocketServer(connections *services.ConnectionService) *socketio.Server {
	server := socketio.NewServer(nil)

	server.OnConnect("/", func(c socketio.Conn) error {
		log.Println("✅ Socket connected:", c.ID())
		return nil
	})

	// register binds the socket to a user and creates the durable
	// connection record. The registry-issued connectionId is kept in the
	// socket context for the rest of the session.
	server.OnEvent("/", "register", func(c socketio.Conn, data map[string]string) {
		userID := data["userId"]
		if userID == "" {
			log.Println("❌ Invalid userId in register request")
			return
		}
		conn, err := connections.Connect(context.Background(), userID, data["roomId"])
		if err != nil {
			log.Printf("❌ Failed to register connection for user %s: %v", userID, err)
			return
		}
		c.SetContext(conn.ConnectionID)
		if conn.RoomID != "" {
			c.Join(conn.RoomID)
		}
		c.Emit("registered", conn)
	})

	server.OnEvent("/", "join", func(c socketio.Conn, data map[string]string) {
		roomID := data["roomId"]
		if roomID == "" {
			log.Println("❌ Invalid roomId in join request")
			return
		}
		connectionID, _ := c.Context().(string)
		if connectionID != "" {
			if _, err := connections.JoinRoom(context.Background(), connectionID, roomID); err != nil {
				log.Printf("❌ Failed to attach connection %s to room %s: %v", connectionID, roomID, err)
				return
			}
		}
		log.Printf("👥 Socket %s joined room %s", c.ID(), roomID)
		c.Join(roomID)
	})

	server.OnEvent("/", "leave", func(c socketio.Conn, data map[string]string) {
		roomID := data["roomId"]
		connectionID, _ := c.Context().(string)
		if connectionID != "" {
			if _, err := connections.LeaveRoom(context.Background(), connectionID); err != nil {
				log.Printf("❌ Failed to detach connection %s: %v", connectionID, err)
			}
		}
		if roomID != "" {
			c.Leave(roomID)
		}
	})

	server.OnEvent("/", "ping", func(c socketio.Conn) {
		connectionID, _ := c.Context().(string)
		if connectionID == "" {
			return
		}
		if _, err := connections.Ping(context.Background(), connectionID); err != nil {
			log.Printf("⚠️ Ping failed for connection %s: %v", connectionID, err)
		}
	})

	server.OnError("/", func(c socketio.Conn, e error) {
		log.Println("❌ Socket error:", e)
	})

	server.OnDisconnect("/", func(c socketio.Conn, reason string) {
		connectionID, _ := c.Context().(string)
		if connectionID != "" {
			if _, err := connections.Disconnect(context.Background(), connectionID); err != nil {
				log.Printf("⚠️ Failed to deactivate connection %s: %v", connectionID, err)
			}
		}
		log.Println("❌ Socket disconnected:", c.ID(), reason)
	})

	return server
}
