package app

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/klokku/klokku-scheduler/internal/config"
	"github.com/klokku/klokku-scheduler/internal/database"
	log "github.com/sirupsen/logrus"
)

// Application wires configuration, local storage, router, and server lifecycle.
type Application struct {
	cfg    config.Application
	db     *sql.DB
	deps   *Dependencies
	router *mux.Router
	srv    *http.Server
}

// NewApplication constructs the full HTTP application, ready to Run().
func NewApplication() (*Application, error) {
	cfg, err := config.Load("./config/application.yaml")
	if err != nil {
		return nil, err
	}

	db, err := database.Open(cfg.Storage)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return newApplication(cfg, db), nil
}

func newApplication(cfg config.Application, db *sql.DB) *Application {
	r := mux.NewRouter()

	deps := BuildDependencies(db, cfg)

	SetupMiddleware(r)

	RegisterRoutes(r, deps)

	srv := &http.Server{
		Handler:      withCORS(cfg, r),
		Addr:         cfg.Listen,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Application{cfg: cfg, db: db, deps: deps, router: r, srv: srv}
}

// Run loads the appointment list and then serves HTTP until the server stops.
func (a *Application) Run() error {
	defer func() {
		if err := a.db.Close(); err != nil {
			log.Errorf("failed to close local storage: %v", err)
		}
	}()

	// A failed initial load is already notified; the widget can refresh later.
	if err := a.deps.SchedulerView.Load(context.Background()); err != nil {
		log.Warnf("Initial appointment load failed: %v", err)
	}

	log.Infof("Starting server on %s", a.srv.Addr)
	return a.srv.ListenAndServe()
}
