package services

import (
	"context"
	"log"
	"strings"

	"trinity_server/models"
)

// CatalogClient is the external content-catalog boundary. Discover returns
// one page of candidates; ListCategories returns the selectable filters.
type CatalogClient interface {
	Discover(ctx context.Context, mediaType string, genreIDs []string, page int) ([]models.ContentItem, error)
	ListCategories(ctx context.Context, mediaType string) ([]models.Category, error)
}

// ContentPoolService builds a room's candidate pool: it over-fetches from
// the catalog to absorb exclusions, drops everything the room has already
// seen, dedupes, and caps the result.
type ContentPoolService struct {
	Catalog CatalogClient
}

const (
	overFetchFactor  = 2
	minOverFetch     = 50
	discoverPageSize = 20 // TMDB page size
)

// NormalizeContentID maps the two historical id encodings onto one form:
// the legacy prefixed "tmdb_550" and the bare "550" are the same item.
func NormalizeContentID(id string) string {
	id = strings.TrimSpace(id)
	id = strings.TrimPrefix(id, "tmdb_")
	return id
}

// Fetch returns up to limit presentation-ready items whose normalized ids do
// not appear in excludeIDs. Upstream failure degrades to a curated fallback
// pool — the pool is never empty when a caller expects content, and no error
// reaches room creation.
func (s *ContentPoolService) Fetch(ctx context.Context, mediaType string, genreIDs []string, limit int, excludeIDs []string) []models.ContentItem {
	if limit <= 0 {
		return nil
	}

	excluded := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[NormalizeContentID(id)] = true
	}

	target := overFetchFactor * limit
	if target < minOverFetch {
		target = minOverFetch
	}
	pages := (target + discoverPageSize - 1) / discoverPageSize

	var candidates []models.ContentItem
	for page := 1; page <= pages; page++ {
		items, err := s.Catalog.Discover(ctx, mediaType, genreIDs, page)
		if err != nil {
			if page == 1 {
				log.Printf("⚠️ Catalog unavailable, using fallback pool: %v", err)
				return s.fallback(excluded, limit)
			}
			log.Printf("⚠️ Catalog page %d failed, continuing with %d candidates: %v", page, len(candidates), err)
			break
		}
		candidates = append(candidates, items...)
		if len(items) < discoverPageSize {
			break // last page
		}
	}

	pool := s.filterPool(candidates, excluded, limit)
	if len(pool) == 0 {
		log.Printf("⚠️ Catalog returned no usable items, using fallback pool")
		return s.fallback(excluded, limit)
	}
	return pool
}

// fallback serves the curated pool. When every curated item is excluded a
// repeat beats an empty pool, so the exclusions are waived as a last resort.
func (s *ContentPoolService) fallback(excluded map[string]bool, limit int) []models.ContentItem {
	pool := s.filterPool(fallbackPool(), excluded, limit)
	if len(pool) == 0 {
		log.Printf("⚠️ Every fallback item excluded, serving curated pool unfiltered")
		pool = s.filterPool(fallbackPool(), nil, limit)
	}
	return pool
}

// Categories returns the selectable filters for a media type.
func (s *ContentPoolService) Categories(ctx context.Context, mediaType string) ([]models.Category, error) {
	return s.Catalog.ListCategories(ctx, mediaType)
}

func (s *ContentPoolService) filterPool(items []models.ContentItem, excluded map[string]bool, limit int) []models.ContentItem {
	seen := make(map[string]bool, len(items))
	pool := make([]models.ContentItem, 0, limit)
	for _, item := range items {
		id := NormalizeContentID(item.ID)
		if id == "" || excluded[id] || seen[id] {
			continue
		}
		seen[id] = true
		item.ID = id
		pool = append(pool, item)
		if len(pool) == limit {
			break
		}
	}
	return pool
}

const posterBaseURL = "https://image.tmdb.org/t/p/w500"

// fallbackPool is the curated set served when the catalog is degraded.
func fallbackPool() []models.ContentItem {
	return []models.ContentItem{
		{ID: "550", Title: "Fight Club", ReleaseYear: "1999", Rating: 8.4, PosterURL: posterBaseURL + "/pB8BM7pdSp6B6Ih7QZ4DrQ3PmJK.jpg", GenreIDs: []string{"18"}},
		{ID: "13", Title: "Forrest Gump", ReleaseYear: "1994", Rating: 8.5, PosterURL: posterBaseURL + "/arw2vcBveWOVZr6pxd9XTd1TdQa.jpg", GenreIDs: []string{"35", "18", "10749"}},
		{ID: "278", Title: "The Shawshank Redemption", ReleaseYear: "1994", Rating: 9.3, PosterURL: posterBaseURL + "/q6y0Go1tsGEsmtFryDOJo3dEmqu.jpg", GenreIDs: []string{"18"}},
		{ID: "238", Title: "The Godfather", ReleaseYear: "1972", Rating: 9.2, PosterURL: posterBaseURL + "/3bhkrj58Vtu7enYsRolD1fZdja1.jpg", GenreIDs: []string{"18", "80"}},
		{ID: "424", Title: "Schindler's List", ReleaseYear: "1993", Rating: 9.0, PosterURL: posterBaseURL + "/sF1U4EUQS8YHUYjNl3pMGNIQyr0.jpg", GenreIDs: []string{"18", "36", "10752"}},
	}
}
