package controllers

import (
	"net/http"

	"trinity_server/models"
	"trinity_server/services"
)

// CategoryController struct
type CategoryController struct {
	Pool *services.ContentPoolService
}

// NewCategoryController initializes the controller
func NewCategoryController(pool *services.ContentPoolService) *CategoryController {
	return &CategoryController{Pool: pool}
}

// HandleGetCategories - List selectable content filters for a media type
func (c *CategoryController) HandleGetCategories(w http.ResponseWriter, r *http.Request) {
	mediaType := r.URL.Query().Get("mediaType")
	if mediaType == "" {
		mediaType = models.MediaTypeMovie
	}

	categories, err := c.Pool.Categories(r.Context(), mediaType)
	if err != nil {
		http.Error(w, `{"error": "Failed to fetch categories"}`, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}
