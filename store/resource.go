package store

import (
	"time"
)

// RatingSummary holds the aggregated rating breakdown for a resource.
// Scores are on a 0-5 scale.
type RatingSummary struct {
	Quality   float64 `json:"quality"`   // content quality
	Usability float64 `json:"usability"` // ease of use
	Visual    float64 `json:"visual"`    // visual appeal
	Count     int     `json:"count"`     // number of ratings
}

// Average returns the mean of the three rating facets.
func (r RatingSummary) Average() float64 {
	return (r.Quality + r.Usability + r.Visual) / 3
}

// Resource is a curated design resource in the catalog.
// The retrieval pipeline treats resources as read-only.
type Resource struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	URL           string        `json:"url"`
	Description   string        `json:"description"` // markdown
	CategoryID    string        `json:"categoryId"`
	Tags          []string      `json:"tags"`
	Rating        RatingSummary `json:"rating"`
	CuratorNote   string        `json:"curatorNote"` // markdown
	IsFeatured    bool          `json:"isFeatured"`
	CreatedTs     int64         `json:"createdTs"`
	ViewCount     int64         `json:"viewCount"`
	FavoriteCount int64         `json:"favoriteCount"`
}

// CreatedAt returns the creation time of the resource.
func (r *Resource) CreatedAt() time.Time {
	return time.Unix(r.CreatedTs, 0)
}

// FindResource is the filter for listing resources.
type FindResource struct {
	ID         *string
	CategoryID *string
	Featured   *bool
	MinRating  *float64
	Limit      *int
}

// UpdateResource holds partial updates for a resource.
type UpdateResource struct {
	ID            string
	Name          *string
	URL           *string
	Description   *string
	CategoryID    *string
	Tags          []string
	CuratorNote   *string
	IsFeatured    *bool
	ViewCount     *int64
	FavoriteCount *int64
}

// DeleteResource identifies a resource to delete.
type DeleteResource struct {
	ID string
}
