package routes

import (
	"trinity_server/controllers"
	"trinity_server/services"

	"github.com/gorilla/mux"
)

func RegisterVoteRoutes(r *mux.Router, voteService *services.VoteService) {
	controller := controllers.NewVoteController(voteService)

	voteRouter := r.PathPrefix("/api/votes").Subrouter()
	voteRouter.HandleFunc("/record", controller.HandleRecordVote).Methods("POST")
	voteRouter.HandleFunc("/room", controller.HandleListRoomVotes).Methods("POST")
}
