package main

import (
	"fmt"
	"os"

	"github.com/deppfellow/biblia/internal/config"
	"github.com/deppfellow/biblia/internal/database"
	"github.com/deppfellow/biblia/internal/logger"
	"github.com/deppfellow/biblia/internal/repository"
	"github.com/deppfellow/biblia/internal/service"
)

// app is the wiring shared by the query commands: New Relic, a pool and
// the scripture service, all logging to stderr.
type app struct {
	loggerService *logger.LoggerService
	db            *database.Database
	scripture     *service.ScriptureService
}

func newApp() (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	loggerService := logger.NewLoggerService(cfg.Observability)
	log := logger.NewLoggerWithWriter(cfg.Observability, loggerService, os.Stderr)

	db, err := database.New(cfg, &log, loggerService)
	if err != nil {
		loggerService.Shutdown()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	repo := repository.NewScriptureRepository(db, &log, cfg.Observability.Logging.SlowQueryThreshold)

	return &app{
		loggerService: loggerService,
		db:            db,
		scripture:     service.NewScriptureService(&log, repo),
	}, nil
}

func (a *app) Close() {
	_ = a.db.Close()
	a.loggerService.Shutdown()
}
