package admin

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/bundles"
	"github.com/Ramsey-B/clover/pkg/importer"
	"github.com/Ramsey-B/clover/pkg/metadata"
	"github.com/Ramsey-B/clover/pkg/search"
)

var validate = validator.New()

// Handler serves import and rebuild trigger endpoints
type Handler struct {
	importer *importer.Importer
	metadata *metadata.Service
	bundles  *bundles.Service
	search   *search.Service
}

// NewHandler creates a new admin handler
func NewHandler(imp *importer.Importer, meta *metadata.Service, bun *bundles.Service, srch *search.Service) *Handler {
	return &Handler{
		importer: imp,
		metadata: meta,
		bundles:  bun,
		search:   srch,
	}
}

// Register registers admin routes
func (h *Handler) Register(g *echo.Group) {
	g.POST("/import", h.RunImport)
	g.POST("/search/rebuild", h.RebuildSearch)
}

// ImportRequest selects which import tasks to run
type ImportRequest struct {
	Tasks []string `json:"tasks" validate:"required,min=1,dive,oneof=names metadata prices bundles search"`
}

// ImportResponse reports which tasks ran
type ImportResponse struct {
	Completed []string `json:"completed"`
}

// RunImport runs the requested import tasks in order
func (h *Handler) RunImport(c echo.Context) error {
	ctx := c.Request().Context()

	var req ImportRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	resp := ImportResponse{Completed: make([]string, 0, len(req.Tasks))}
	for _, task := range req.Tasks {
		var err error
		switch task {
		case "names":
			if err = h.metadata.UpdateSteamMap(ctx); err == nil {
				err = h.metadata.UpsertNames(ctx)
			}
		case "metadata":
			err = h.metadata.ImportAppInfo(ctx)
		case "prices":
			err = h.importer.ImportAll(ctx)
		case "bundles":
			err = h.bundles.ImportAll(ctx)
		case "search":
			err = h.search.Rebuild(ctx)
		}
		if err != nil {
			return err
		}
		resp.Completed = append(resp.Completed, task)
	}

	return c.JSON(http.StatusOK, resp)
}

// RebuildSearch rebuilds the denormalized price view
func (h *Handler) RebuildSearch(c echo.Context) error {
	if err := h.search.Rebuild(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "rebuilt"})
}
