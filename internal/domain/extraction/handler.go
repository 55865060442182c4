package extraction

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ehr/nhsextract/pkg/pagination"
)

// Handler exposes the extraction service over HTTP.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers extraction endpoints on the provided route group.
//
//	POST /api/v1/patients/$extract         - Extract patients from request body sources
//	GET  /api/v1/patients/$extract/sample  - Extract patients from the built-in sample
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/patients/$extract", h.Extract)
	g.GET("/patients/$extract/sample", h.ExtractSample)
}

// extractResponse is a page of reconciled patients plus run metadata.
type extractResponse struct {
	*pagination.Response
	RunID       string   `json:"run_id"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}

// Extract handles POST /api/v1/patients/$extract. The body is a JSON object
// with "narrative" and "records" text fields; results are paged with
// _count/_offset.
func (h *Handler) Extract(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		if he, ok := err.(*echo.HTTPError); ok {
			return he
		}
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "failed to read request body",
		})
	}

	if len(body) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "request body is empty",
		})
	}

	var src Sources
	if err := json.Unmarshal(body, &src); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid JSON: " + err.Error(),
		})
	}

	return h.respond(c, src)
}

// ExtractSample handles GET /api/v1/patients/$extract/sample.
func (h *Handler) ExtractSample(c echo.Context) error {
	return h.respond(c, SampleSources)
}

func (h *Handler) respond(c echo.Context, src Sources) error {
	res, err := h.svc.Extract(c.Request().Context(), src)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "extraction cancelled")
	}

	p := pagination.FromContext(c)
	page := pagination.Page(res.Records, p)

	return c.JSON(http.StatusOK, extractResponse{
		Response:    pagination.NewResponse(page, len(res.Records), p.Limit, p.Offset),
		RunID:       res.RunID.String(),
		Diagnostics: res.Diagnostics,
	})
}
