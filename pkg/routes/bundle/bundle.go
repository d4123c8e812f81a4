package bundle

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	bundlerepo "github.com/Ramsey-B/clover/internal/repositories/bundle"
)

// Handler serves bundle endpoints
type Handler struct {
	bundles *bundlerepo.Repository
}

// NewHandler creates a new bundle handler
func NewHandler(bundles *bundlerepo.Repository) *Handler {
	return &Handler{bundles: bundles}
}

// Register registers bundle routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("/fanatical", h.ListFanatical)
	g.GET("/steam", h.ListSteam)
	g.GET("/indiegala", h.ListIndiegala)
}

// ListFanatical lists the most recently imported fanatical bundles
func (h *Handler) ListFanatical(c echo.Context) error {
	rows, err := h.bundles.ListFanatical(c.Request().Context(), queryLimit(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rows)
}

// ListSteam lists the most recently imported steam bundles
func (h *Handler) ListSteam(c echo.Context) error {
	rows, err := h.bundles.ListSteam(c.Request().Context(), queryLimit(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rows)
}

// ListIndiegala lists the most recently imported indiegala bundles
func (h *Handler) ListIndiegala(c echo.Context) error {
	rows, err := h.bundles.ListIndiegala(c.Request().Context(), queryLimit(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rows)
}

func queryLimit(c echo.Context) int {
	raw := c.QueryParam("limit")
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
