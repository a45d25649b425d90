package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"trinity_server/models"
)

// TMDBService implements CatalogClient against the TMDB REST API.
type TMDBService struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

var _ CatalogClient = (*TMDBService)(nil)

// NewTMDBService reads its configuration from the environment.
func NewTMDBService() *TMDBService {
	baseURL := os.Getenv("TMDB_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.themoviedb.org/3"
	}
	return &TMDBService{
		APIKey:     os.Getenv("TMDB_API_KEY"),
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// minCatalogRating filters out low-quality discover results.
const minCatalogRating = "5.0"

type tmdbDiscoverResponse struct {
	Results []struct {
		ID           int     `json:"id"`
		Title        string  `json:"title"`
		Name         string  `json:"name"` // TV uses "name"
		Overview     string  `json:"overview"`
		PosterPath   string  `json:"poster_path"`
		ReleaseDate  string  `json:"release_date"`
		FirstAirDate string  `json:"first_air_date"`
		VoteAverage  float64 `json:"vote_average"`
		GenreIDs     []int   `json:"genre_ids"`
	} `json:"results"`
}

type tmdbGenreResponse struct {
	Genres []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`
}

// Discover returns one page of popular titles matching the genre filters.
func (s *TMDBService) Discover(ctx context.Context, mediaType string, genreIDs []string, page int) ([]models.ContentItem, error) {
	params := url.Values{}
	params.Set("api_key", s.APIKey)
	params.Set("sort_by", "popularity.desc")
	params.Set("vote_average.gte", minCatalogRating)
	params.Set("page", strconv.Itoa(page))
	if len(genreIDs) > 0 {
		params.Set("with_genres", strings.Join(genreIDs, ","))
	}

	endpoint := fmt.Sprintf("%s/discover/%s?%s", s.BaseURL, tmdbPathFor(mediaType), params.Encode())

	var response tmdbDiscoverResponse
	if err := s.getJSON(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	items := make([]models.ContentItem, 0, len(response.Results))
	for _, result := range response.Results {
		title := result.Title
		if title == "" {
			title = result.Name
		}
		date := result.ReleaseDate
		if date == "" {
			date = result.FirstAirDate
		}
		year := ""
		if len(date) >= 4 {
			year = date[:4]
		}
		posterURL := ""
		if result.PosterPath != "" {
			posterURL = posterBaseURL + result.PosterPath
		}
		genres := make([]string, 0, len(result.GenreIDs))
		for _, id := range result.GenreIDs {
			genres = append(genres, strconv.Itoa(id))
		}
		items = append(items, models.ContentItem{
			ID:          strconv.Itoa(result.ID),
			Title:       title,
			Overview:    result.Overview,
			PosterURL:   posterURL,
			ReleaseYear: year,
			Rating:      result.VoteAverage,
			GenreIDs:    genres,
		})
	}
	return items, nil
}

// ListCategories returns the genre list for a media type.
func (s *TMDBService) ListCategories(ctx context.Context, mediaType string) ([]models.Category, error) {
	params := url.Values{}
	params.Set("api_key", s.APIKey)
	endpoint := fmt.Sprintf("%s/genre/%s/list?%s", s.BaseURL, tmdbPathFor(mediaType), params.Encode())

	var response tmdbGenreResponse
	if err := s.getJSON(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	categories := make([]models.Category, 0, len(response.Genres))
	for _, genre := range response.Genres {
		categories = append(categories, models.Category{
			ID:   strconv.Itoa(genre.ID),
			Name: genre.Name,
		})
	}
	return categories, nil
}

func (s *TMDBService) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build TMDB request: %w", err)
	}

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("TMDB request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("TMDB returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode TMDB response: %w", err)
	}
	return nil
}

func tmdbPathFor(mediaType string) string {
	if mediaType == models.MediaTypeTV {
		return "tv"
	}
	return "movie"
}
