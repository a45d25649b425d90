package models

// ContentItem is a normalized, presentation-ready catalog entry. ID is
// always the bare numeric form ("550"), never the legacy prefixed one.
type ContentItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Overview    string   `json:"overview,omitempty"`
	PosterURL   string   `json:"posterUrl"`
	ReleaseYear string   `json:"releaseYear"`
	Rating      float64  `json:"rating"`
	GenreIDs    []string `json:"genreIds,omitempty"`
}

// Category is one selectable content filter (a TMDB genre).
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
