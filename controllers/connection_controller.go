package controllers

import (
	"net/http"

	"trinity_server/services"
)

// ConnectionController struct
type ConnectionController struct {
	ConnectionService *services.ConnectionService
}

// NewConnectionController initializes the controller
func NewConnectionController(service *services.ConnectionService) *ConnectionController {
	return &ConnectionController{ConnectionService: service}
}

// HandleConnect - Register a realtime subscriber
func (c *ConnectionController) HandleConnect(w http.ResponseWriter, r *http.Request) {
	var request struct {
		UserID string `json:"userId"`
		RoomID string `json:"roomId,omitempty"`
	}
	if !decodeBody(w, r, &request) {
		return
	}

	conn, err := c.ConnectionService.Connect(r.Context(), request.UserID, request.RoomID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, conn)
}

// HandleDisconnect - Deactivate a connection (idempotent)
func (c *ConnectionController) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	var request struct {
		ConnectionID string `json:"connectionId"`
	}
	if !decodeBody(w, r, &request) {
		return
	}

	ok, err := c.ConnectionService.Disconnect(r.Context(), request.ConnectionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"disconnected": ok})
}

// HandleJoinRoom - Attach a connection to a room channel
func (c *ConnectionController) HandleJoinRoom(w http.ResponseWriter, r *http.Request) {
	var request struct {
		ConnectionID string `json:"connectionId"`
		RoomID       string `json:"roomId"`
	}
	if !decodeBody(w, r, &request) {
		return
	}

	ok, err := c.ConnectionService.JoinRoom(r.Context(), request.ConnectionID, request.RoomID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"joined": ok})
}

// HandleLeaveRoom - Detach a connection from its room channel
func (c *ConnectionController) HandleLeaveRoom(w http.ResponseWriter, r *http.Request) {
	var request struct {
		ConnectionID string `json:"connectionId"`
	}
	if !decodeBody(w, r, &request) {
		return
	}

	ok, err := c.ConnectionService.LeaveRoom(r.Context(), request.ConnectionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"left": ok})
}

// HandlePing - Refresh a connection's lastPingAt
func (c *ConnectionController) HandlePing(w http.ResponseWriter, r *http.Request) {
	var request struct {
		ConnectionID string `json:"connectionId"`
	}
	if !decodeBody(w, r, &request) {
		return
	}

	ok, err := c.ConnectionService.Ping(r.Context(), request.ConnectionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"alive": ok})
}

// HandleGetActiveConnections - List active subscribers, optionally per room
func (c *ConnectionController) HandleGetActiveConnections(w http.ResponseWriter, r *http.Request) {
	var request struct {
		RoomID string `json:"roomId,omitempty"`
	}
	if !decodeBody(w, r, &request) {
		return
	}

	connections, err := c.ConnectionService.GetActiveConnections(r.Context(), request.RoomID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, connections)
}
