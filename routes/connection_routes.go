package routes

import (
	"trinity_server/controllers"
	"trinity_server/services"

	"github.com/gorilla/mux"
)

func RegisterConnectionRoutes(r *mux.Router, connectionService *services.ConnectionService) {
	controller := controllers.NewConnectionController(connectionService)

	connectionRouter := r.PathPrefix("/api/connections").Subrouter()
	connectionRouter.HandleFunc("/connect", controller.HandleConnect).Methods("POST")
	connectionRouter.HandleFunc("/disconnect", controller.HandleDisconnect).Methods("POST")
	connectionRouter.HandleFunc("/join", controller.HandleJoinRoom).Methods("POST")
	connectionRouter.HandleFunc("/leave", controller.HandleLeaveRoom).Methods("POST")
	connectionRouter.HandleFunc("/ping", controller.HandlePing).Methods("POST")
	connectionRouter.HandleFunc("/active", controller.HandleGetActiveConnections).Methods("POST")
}
