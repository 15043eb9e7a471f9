// Package feed serves an RSS feed of the newest catalog resources.
package feed

import (
	"net/http"
	"sort"

	"github.com/gorilla/feeds"
	"github.com/labstack/echo/v4"

	"github.com/atelierhq/atelier/internal/profile"
	"github.com/atelierhq/atelier/store"
)

const maxFeedItems = 20

// FeedService generates the public resource feed.
type FeedService struct {
	Profile *profile.Profile
	Store   *store.Store
}

// NewFeedService creates a feed service.
func NewFeedService(profile *profile.Profile, store *store.Store) *FeedService {
	return &FeedService{
		Profile: profile,
		Store:   store,
	}
}

// RegisterRoutes registers the feed routes with the given Echo instance.
func (s *FeedService) RegisterRoutes(echoServer *echo.Echo) {
	echoServer.GET("/feeds/resources.rss", s.GetResourcesFeed)
}

// GetResourcesFeed returns the newest resources as RSS.
// GET /feeds/resources.rss
func (s *FeedService) GetResourcesFeed(c echo.Context) error {
	ctx := c.Request().Context()

	resources, err := s.Store.ListResources(ctx, &store.FindResource{})
	if err != nil {
		return c.String(http.StatusInternalServerError, "failed to load resources")
	}
	sort.Slice(resources, func(i, j int) bool {
		return resources[i].CreatedTs > resources[j].CreatedTs
	})
	if len(resources) > maxFeedItems {
		resources = resources[:maxFeedItems]
	}

	baseURL := s.Profile.InstanceURL
	feed := &feeds.Feed{
		Title:       "Atelier 设计资源",
		Link:        &feeds.Link{Href: baseURL},
		Description: "最新收录的设计资源",
	}
	feed.Items = make([]*feeds.Item, 0, len(resources))
	for _, resource := range resources {
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          resource.ID,
			Title:       resource.Name,
			Link:        &feeds.Link{Href: resource.URL},
			Description: resource.Description,
			Created:     resource.CreatedAt(),
		})
	}

	rss, err := feed.ToRss()
	if err != nil {
		return c.String(http.StatusInternalServerError, "failed to render feed")
	}
	return c.Blob(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(rss))
}
