package controllers

import (
	"log"
	"net/http"

	"trinity_server/services"
)

// VoteController struct
type VoteController struct {
	VoteService *services.VoteService
}

// NewVoteController initializes the controller
func NewVoteController(service *services.VoteService) *VoteController {
	return &VoteController{VoteService: service}
}

// HandleRecordVote - Cast a vote and return the per-item tally
func (c *VoteController) HandleRecordVote(w http.ResponseWriter, r *http.Request) {
	var request struct {
		RoomID     string `json:"roomId"`
		UserID     string `json:"userId"`
		MovieID    string `json:"movieId"`
		MovieTitle string `json:"movieTitle,omitempty"`
		VoteType   string `json:"voteType"`
	}
	if !decodeBody(w, r, &request) {
		return
	}

	log.Printf("🗳️ Vote %s by %s on %s in room %s", request.VoteType, request.UserID, request.MovieID, request.RoomID)
	tally, err := c.VoteService.RecordVote(r.Context(), request.RoomID, request.UserID, request.MovieID, request.MovieTitle, request.VoteType)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tally)
}

// HandleListRoomVotes - List every vote cast in a room (active members only)
func (c *VoteController) HandleListRoomVotes(w http.ResponseWriter, r *http.Request) {
	var request struct {
		RoomID string `json:"roomId"`
		UserID string `json:"userId"`
	}
	if !decodeBody(w, r, &request) {
		return
	}

	votes, err := c.VoteService.ListRoomVotes(r.Context(), request.RoomID, request.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, votes)
}
