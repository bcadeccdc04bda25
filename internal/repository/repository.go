// Package repository handles all interactions with the database.
//
// It contains the SQL statements and the methods that run them,
// abstracting SQL logic away from the service layer. Every method
// is a read; the corpus is written by an external loader.
package repository

import (
	"github.com/deppfellow/biblia/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Scripture *ScriptureRepository
}

// NewRepositories constructs the repository container from the shared
// application dependencies (database pool, logger, observability config).
func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		Scripture: NewScriptureRepository(s.DB, s.Logger, s.Config.Observability.Logging.SlowQueryThreshold),
	}
}
