package service

import (
	"github.com/deppfellow/biblia/internal/repository"
	"github.com/deppfellow/biblia/internal/server"
)

type Services struct {
	Scripture *ScriptureService
}

func NewServices(s *server.Server, repos *repository.Repositories) *Services {
	return &Services{
		Scripture: NewScriptureService(s.Logger, repos.Scripture),
	}
}
