package apiv1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/atelierhq/atelier/store"
)

const maxListPageSize = 100

// ListResourcesResponse represents the catalog listing.
type ListResourcesResponse struct {
	Resources []*store.Resource `json:"resources"`
}

// ListResources returns catalog resources with optional filters.
// GET /api/v1/resources?category=...&featured=true&minRating=4.0&limit=20
func (s *APIV1Service) ListResources(c echo.Context) error {
	find := &store.FindResource{}

	if category := c.QueryParam("category"); category != "" {
		find.CategoryID = &category
	}
	if featured := c.QueryParam("featured"); featured == "true" {
		t := true
		find.Featured = &t
	}
	if raw := c.QueryParam("minRating"); raw != "" {
		minRating, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid minRating"})
		}
		find.MinRating = &minRating
	}
	limit := maxListPageSize
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid limit"})
		}
		if parsed < limit {
			limit = parsed
		}
	}
	find.Limit = &limit

	resources, err := s.Store.ListResources(c.Request().Context(), find)
	if err != nil {
		s.logger.Error("failed to list resources", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list resources"})
	}
	if resources == nil {
		resources = []*store.Resource{}
	}
	return c.JSON(http.StatusOK, ListResourcesResponse{Resources: resources})
}
