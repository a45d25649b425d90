package controllers

import (
	"log"
	"net/http"

	"trinity_server/services"
)

// RoomController struct
type RoomController struct {
	RoomService *services.RoomService
}

// NewRoomController initializes the controller
func NewRoomController(service *services.RoomService) *RoomController {
	return &RoomController{RoomService: service}
}

// HandleCreateRoom - Create a room, optionally with a content filter
func (c *RoomController) HandleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var request struct {
		HostID string `json:"hostId"`
		services.CreateRoomInput
	}
	if !decodeBody(w, r, &request) {
		return
	}

	log.Printf("🏠 Creating room %q for host %s", request.Name, request.HostID)
	room, err := c.RoomService.CreateRoom(r.Context(), request.HostID, request.CreateRoomInput)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

// HandleJoinRoom - Join a WAITING room by id
func (c *RoomController) HandleJoinRoom(w http.ResponseWriter, r *http.Request) {
	var request struct {
		UserID string `json:"userId"`
		RoomID string `json:"roomId"`
	}
	if !decodeBody(w, r, &request) {
		return
	}

	room, err := c.RoomService.JoinRoom(r.Context(), request.UserID, request.RoomID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// HandleJoinRoomByInvite - Resolve an invite code and join
func (c *RoomController) HandleJoinRoomByInvite(w http.ResponseWriter, r *http.Request) {
	var request struct {
		UserID     string `json:"userId"`
		InviteCode string `json:"inviteCode"`
	}
	if !decodeBody(w, r, &request) {
		return
	}

	room, err := c.RoomService.JoinRoomByInvite(r.Context(), request.UserID, request.InviteCode)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// HandleLeaveRoom - Soft-deactivate a membership
func (c *RoomController) HandleLeaveRoom(w http.ResponseWriter, r *http.Request) {
	var request struct {
		UserID string `json:"userId"`
		RoomID string `json:"roomId"`
	}
	if !decodeBody(w, r, &request) {
		return
	}

	if err := c.RoomService.LeaveRoom(r.Context(), request.UserID, request.RoomID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"left": true})
}

// HandleStartRoom - Host starts voting (WAITING → ACTIVE)
func (c *RoomController) HandleStartRoom(w http.ResponseWriter, r *http.Request) {
	var request struct {
		HostID string `json:"hostId"`
		RoomID string `json:"roomId"`
	}
	if !decodeBody(w, r, &request) {
		return
	}

	room, err := c.RoomService.StartRoom(r.Context(), request.HostID, request.RoomID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// HandleCloseRoom - Host closes the room (terminal)
func (c *RoomController) HandleCloseRoom(w http.ResponseWriter, r *http.Request) {
	var request struct {
		HostID string `json:"hostId"`
		RoomID string `json:"roomId"`
	}
	if !decodeBody(w, r, &request) {
		return
	}

	room, err := c.RoomService.CloseRoom(r.Context(), request.HostID, request.RoomID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// HandleGetRoom - Fetch one room; caller must be an active member
func (c *RoomController) HandleGetRoom(w http.ResponseWriter, r *http.Request) {
	var request struct {
		UserID string `json:"userId"`
		RoomID string `json:"roomId"`
	}
	if !decodeBody(w, r, &request) {
		return
	}

	room, err := c.RoomService.GetRoom(r.Context(), request.UserID, request.RoomID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// HandleGetMyHistory - Rooms the user has ever joined, newest first
func (c *RoomController) HandleGetMyHistory(w http.ResponseWriter, r *http.Request) {
	var request struct {
		UserID string `json:"userId"`
	}
	if !decodeBody(w, r, &request) {
		return
	}

	log.Printf("🔍 Fetching room history for user: %s", request.UserID)
	rooms, err := c.RoomService.GetMyHistory(r.Context(), request.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

// HandleUpdateRoomFilters - Immutable once set; host-only
func (c *RoomController) HandleUpdateRoomFilters(w http.ResponseWriter, r *http.Request) {
	var request struct {
		UserID    string   `json:"userId"`
		RoomID    string   `json:"roomId"`
		MediaType string   `json:"mediaType"`
		GenreIDs  []string `json:"genreIds"`
	}
	if !decodeBody(w, r, &request) {
		return
	}

	room, err := c.RoomService.UpdateRoomFilters(r.Context(), request.UserID, request.RoomID, request.MediaType, request.GenreIDs)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// HandleRefreshContentPool - Host replaces an exhausted pool
func (c *RoomController) HandleRefreshContentPool(w http.ResponseWriter, r *http.Request) {
	var request struct {
		UserID string `json:"userId"`
		RoomID string `json:"roomId"`
	}
	if !decodeBody(w, r, &request) {
		return
	}

	room, err := c.RoomService.RefreshContentPool(r.Context(), request.UserID, request.RoomID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}
