package game

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	gamerepo "github.com/Ramsey-B/clover/internal/repositories/game"
	"github.com/Ramsey-B/clover/internal/repositories/ledger"
	"github.com/Ramsey-B/clover/internal/repositories/search"
	"github.com/Ramsey-B/clover/pkg/graph"
	"github.com/Ramsey-B/clover/pkg/stores"
)

// Handler serves game catalog endpoints
type Handler struct {
	games   *gamerepo.Repository
	ledgers *ledger.Repository
	prices  *search.Repository
	catalog *graph.CatalogService
}

// NewHandler creates a new game handler. catalog may be nil when the graph
// mirror is disabled.
func NewHandler(games *gamerepo.Repository, ledgers *ledger.Repository, prices *search.Repository, catalog *graph.CatalogService) *Handler {
	return &Handler{
		games:   games,
		ledgers: ledgers,
		prices:  prices,
		catalog: catalog,
	}
}

// Register registers game routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.ListGames)
	g.GET("/:id", h.GetGame)
	g.GET("/:id/prices", h.GetGamePrices)
	g.GET("/:id/history/:store", h.GetGameHistory)
	g.GET("/:id/stores", h.GetGameStores)
}

// ListGames lists games in the catalog
func (h *Handler) ListGames(c echo.Context) error {
	ctx := c.Request().Context()

	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)

	games, err := h.games.List(ctx, limit, offset)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, games)
}

// GetGame gets a game by ID
func (h *Handler) GetGame(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid game id")
	}

	g, err := h.games.GetByID(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, g)
}

// GetGamePrices gets the latest price on every store listing a game
func (h *Handler) GetGamePrices(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid game id")
	}

	rows, err := h.prices.PricesForGame(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, rows)
}

// GetGameHistory gets the recorded price history for a game on one store
func (h *Handler) GetGameHistory(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid game id")
	}

	store, err := stores.Parse(c.Param("store"))
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "unknown store")
	}

	limit := queryInt(c, "limit", 100)

	rows, err := h.ledgers.History(ctx, store, id, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, rows)
}

// GetGameStores gets the store listings for a game from the graph mirror
func (h *Handler) GetGameStores(c echo.Context) error {
	ctx := c.Request().Context()

	if h.catalog == nil {
		return httperror.NewHTTPError(http.StatusServiceUnavailable, "graph mirror is not enabled")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid game id")
	}

	listings, err := h.catalog.StoresForGame(ctx, id.String())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, listings)
}

func queryInt(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
