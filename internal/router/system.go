package router

import (
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/biblia/internal/handler"
)

// registerSystemRoutes registers the endpoints outside the API: health,
// the docs UI and the static files it loads.
func registerSystemRoutes(r *echo.Echo, h *handler.Handlers) {
	r.GET("/status", h.Health.CheckHealth)

	r.Static("/static", handler.StaticDir)

	r.GET("/docs", h.OpenAPI.ServeOpenAPIUI)
}
