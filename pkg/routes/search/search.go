package search

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	searchrepo "github.com/Ramsey-B/clover/internal/repositories/search"
	"github.com/Ramsey-B/clover/pkg/stores"
)

// Handler serves price search endpoints
type Handler struct {
	prices *searchrepo.Repository
}

// NewHandler creates a new search handler
func NewHandler(prices *searchrepo.Repository) *Handler {
	return &Handler{prices: prices}
}

// Register registers search routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.Search)
}

// Search queries the denormalized price view
func (h *Handler) Search(c echo.Context) error {
	ctx := c.Request().Context()

	var params searchrepo.SearchParams
	if err := c.Bind(&params); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}

	if params.Store != "" {
		if _, err := stores.Parse(params.Store); err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "unknown store")
		}
	}

	rows, err := h.prices.Search(ctx, params)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, rows)
}
