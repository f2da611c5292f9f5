package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"panelnorm/internal/config"
	"panelnorm/internal/geocode"
	"panelnorm/internal/jobs"
	"panelnorm/ports"
)

// App represents the HTTP application
type App struct {
	router  *chi.Mux
	cfg     *config.Config
	manager *jobs.Manager
	repo    ports.JobRepository
	lookup  geocode.LookupTable
	remote  ports.RemoteGeocoder
}

// NewApp creates a new HTTP application around the job manager
func NewApp(cfg *config.Config, manager *jobs.Manager, repo ports.JobRepository, lookup geocode.LookupTable, remote ports.RemoteGeocoder) *App {
	app := &App{
		router:  chi.NewRouter(),
		cfg:     cfg,
		manager: manager,
		repo:    repo,
		lookup:  lookup,
		remote:  remote,
	}
	app.setupMiddleware()
	app.setupRoutes()
	return app
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Post("/upload", a.handleUpload)
	a.router.Get("/status/{jobID}", a.handleStatus)
	a.router.Get("/download/{jobID}", a.handleDownloadAll)
	a.router.Get("/download/{jobID}/{filename}", a.handleDownload)
	a.router.Post("/geocode", a.handleGeocode)
	a.router.Get("/health", a.handleHealth)
}

// Router exposes the configured handler for serving and for tests.
func (a *App) Router() http.Handler {
	return a.router
}

// Run starts the HTTP server
func (a *App) Run() error {
	return http.ListenAndServe(":"+a.cfg.Server.Port, a.router)
}
