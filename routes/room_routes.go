package routes

import (
	"trinity_server/controllers"
	"trinity_server/services"

	"github.com/gorilla/mux"
)

func RegisterRoomRoutes(r *mux.Router, roomService *services.RoomService) {
	controller := controllers.NewRoomController(roomService)

	roomRouter := r.PathPrefix("/api/rooms").Subrouter()
	roomRouter.HandleFunc("/create", controller.HandleCreateRoom).Methods("POST")
	roomRouter.HandleFunc("/join", controller.HandleJoinRoom).Methods("POST")
	roomRouter.HandleFunc("/join-by-invite", controller.HandleJoinRoomByInvite).Methods("POST")
	roomRouter.HandleFunc("/leave", controller.HandleLeaveRoom).Methods("POST")
	roomRouter.HandleFunc("/start", controller.HandleStartRoom).Methods("POST")
	roomRouter.HandleFunc("/close", controller.HandleCloseRoom).Methods("POST")
	roomRouter.HandleFunc("/get", controller.HandleGetRoom).Methods("POST")
	roomRouter.HandleFunc("/history", controller.HandleGetMyHistory).Methods("POST")
	roomRouter.HandleFunc("/update-filters", controller.HandleUpdateRoomFilters).Methods("POST")
	roomRouter.HandleFunc("/refresh-pool", controller.HandleRefreshContentPool).Methods("POST")
}
