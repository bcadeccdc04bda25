package handler

import (
	"github.com/deppfellow/biblia/internal/server"
	"github.com/deppfellow/biblia/internal/service"
)

// Handlers groups every HTTP handler so the router receives one value.
type Handlers struct {
	Health    *HealthHandler
	OpenAPI   *OpenAPIHandler
	Scripture *ScriptureHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:    NewHealthHandler(s),
		OpenAPI:   NewOpenAPIHandler(s),
		Scripture: NewScriptureHandler(s, services.Scripture),
	}
}
