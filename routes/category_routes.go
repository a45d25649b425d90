package routes

import (
	"trinity_server/controllers"
	"trinity_server/services"

	"github.com/gorilla/mux"
)

func RegisterCategoryRoutes(r *mux.Router, pool *services.ContentPoolService) {
	controller := controllers.NewCategoryController(pool)

	r.HandleFunc("/api/categories", controller.HandleGetCategories).Methods("GET")
}
