// Package web implements the web server for tasklist: JSON API and HTMX user interface
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/didip/tollbooth/v8"
	"github.com/didip/tollbooth/v8/limiter"
	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"

	"github.com/umputun/tasklist/app/web/enums"
	"github.com/umputun/tasklist/app/web/persistence"
)

//go:generate moq -out mocks/persistence.go -pkg mocks -skip-ensure -fmt goimports . Persistence

//go:embed templates/*.html templates/partials/*.html
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Server represents the web server
type Server struct {
	store          Persistence
	templates      map[string]*template.Template
	baseURL        string // base URL path for reverse proxy (e.g., /tasks), empty for root
	version        string
	writeRate      float64                     // max write requests per second per client, 0 disables limiting
	csrfProtection *http.CrossOriginProtection // csrf protection for state-changing endpoints
	validate       *validator.Validate
	formDecoder    *schema.Decoder
}

// Persistence defines task storage operations used by handlers
type Persistence interface {
	List(ctx context.Context, filter persistence.Filter) ([]persistence.Task, error)
	Stats(ctx context.Context) (persistence.Stats, error)
	Get(ctx context.Context, id int64) (persistence.Task, error)
	Create(ctx context.Context, text string) (persistence.Task, error)
	Update(ctx context.Context, id int64, patch persistence.TaskPatch) (persistence.Task, error)
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) (int64, error)
}

// Config holds server configuration
type Config struct {
	Store     Persistence // task storage, required
	BaseURL   string      // base URL path for reverse proxy (e.g., /tasks), empty for root
	Version   string
	WriteRate float64 // max write requests per second per client, 0 disables limiting
}

// TemplateData holds data for templates
type TemplateData struct {
	Tasks          []persistence.Task
	Editing        *persistence.Task // task loaded into the form for editing, nil for new task
	BaseURL        string
	Theme          enums.Theme
	FilterMode     enums.FilterMode
	Search         string
	TotalCount     int  // all tasks, before filtering
	CompletedCount int  // completed tasks, before filtering
	IsOOB          bool // for OOB template rendering
	Version        string
	CurrentYear    int
}

// New creates a new web server
func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("web server initialization failed: Store is required")
	}

	formDecoder := schema.NewDecoder()
	formDecoder.IgnoreUnknownKeys(true)

	s := &Server{
		store:          cfg.Store,
		baseURL:        cfg.BaseURL,
		version:        cfg.Version,
		writeRate:      cfg.WriteRate,
		csrfProtection: http.NewCrossOriginProtection(),
		validate:       validator.New(),
		formDecoder:    formDecoder,
	}

	templates, err := s.parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("web server initialization failed: failed to parse HTML templates: %w", err)
	}
	s.templates = templates

	return s, nil
}

// Run starts the web server and blocks until ctx is canceled or the server fails
func (s *Server) Run(ctx context.Context, address string) error {
	server := &http.Server{
		Addr:              address,
		Handler:           s.handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] failed to shutdown server: %v", err)
		}
	}()

	log.Printf("[INFO] starting web server on %s", address)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web server failed: %w", err)
	}
	return nil
}

// handler returns the http.Handler with base URL wrapping applied
func (s *Server) handler() http.Handler {
	routes := s.routes()
	if s.baseURL == "" {
		return routes
	}

	mux := http.NewServeMux()
	// handle base URL without trailing slash - redirect to with trailing slash
	mux.HandleFunc(s.baseURL, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, s.baseURL+"/", http.StatusMovedPermanently)
	})
	mux.Handle(s.baseURL+"/", http.StripPrefix(s.baseURL, routes))
	return mux
}

// routes returns the http.Handler with all routes configured
func (s *Server) routes() http.Handler {
	router := routegroup.New(http.NewServeMux())

	// global middleware - applied to all routes
	router.Use(
		rest.RealIP,
		rest.Recoverer(log.Default()),
		rest.Throttle(1000),
		rest.AppInfo("tasklist", "umputun", s.version),
		rest.Ping,
		rest.Trace,
		rest.SizeLimit(64*1024), // 64KB max request size
		logger.New(logger.Log(log.Default()), logger.Prefix("[DEBUG]")).Handler,
	)

	writeLimit := s.writeLimiter()

	// single page UI
	router.HandleFunc("GET /", s.handleIndex)

	// JSON API
	router.Mount("/api").Route(func(api *routegroup.Bundle) {
		api.Use(rest.NoCache)
		api.Use(s.csrfProtection.Handler)

		api.HandleFunc("GET /tasks", s.handleListTasks)
		api.With(writeLimit).HandleFunc("POST /tasks", s.handleCreateTask)
		api.With(writeLimit).HandleFunc("DELETE /tasks", s.handleDeleteAllTasks)
		api.HandleFunc("GET /tasks/export", s.handleExportTasks)
		api.HandleFunc("GET /tasks/{id}", s.handleGetTask)
		api.With(writeLimit).HandleFunc("PUT /tasks/{id}", s.handleUpdateTask)
		api.With(writeLimit).HandleFunc("PATCH /tasks/{id}", s.handleUpdateTask)
		api.With(writeLimit).HandleFunc("DELETE /tasks/{id}", s.handleDeleteTask)
		api.HandleFunc("GET /schema", s.handleSchema)
	})

	// HTMX endpoints
	router.Mount("/web").Route(func(ui *routegroup.Bundle) {
		ui.Use(rest.NoCache)
		ui.Use(s.csrfProtection.Handler)

		ui.HandleFunc("GET /tasks", s.handleTasksPartial)
		ui.HandleFunc("GET /form", s.handleTaskForm)
		ui.HandleFunc("GET /tasks/{id}/edit", s.handleEditForm)
		ui.With(writeLimit).HandleFunc("POST /tasks", s.handleSubmitTask)
		ui.With(writeLimit).HandleFunc("POST /tasks/clear", s.handleClearTasks)
		ui.With(writeLimit).HandleFunc("POST /tasks/{id}/toggle", s.handleToggleTask)
		ui.With(writeLimit).HandleFunc("DELETE /tasks/{id}", s.handleRemoveTask)
		ui.HandleFunc("POST /filter", s.handleFilterToggle)
		ui.HandleFunc("POST /theme", s.handleThemeToggle)
	})

	fsys, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Printf("[ERROR] failed to create static file system: %v", err)
		router.Handle("GET /static/", http.FileServer(http.FS(staticFS)))
	} else {
		router.HandleFiles("/static/", http.FS(fsys))
	}

	return router
}

// writeLimiter returns middleware limiting state-changing requests per client ip
func (s *Server) writeLimiter() func(http.Handler) http.Handler {
	if s.writeRate <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	lmt := tollbooth.NewLimiter(s.writeRate, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Hour})
	// rest.RealIP already put the client address into RemoteAddr
	lmt.SetIPLookup(limiter.IPLookup{Name: "RemoteAddr"})
	lmt.SetMessage("Too many requests")
	return tollbooth.HTTPMiddleware(lmt)
}

// render renders a template
func (s *Server) render(w http.ResponseWriter, page, tmplName string, data any) {
	tmpl, ok := s.templates[page]
	if !ok {
		log.Printf("[WARN] template %s not found", page)
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, tmplName, data); err != nil {
		log.Printf("[WARN] failed to execute template: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("[WARN] failed to write response: %v", err)
	}
}

// renderPartials renders several partial templates into one response, all or nothing
func (s *Server) renderPartials(w http.ResponseWriter, data TemplateData, names ...string) {
	tmpl, ok := s.templates["partials"]
	if !ok {
		log.Printf("[WARN] partials template not found")
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	buf := new(bytes.Buffer)
	for _, name := range names {
		if err := tmpl.ExecuteTemplate(buf, name, data); err != nil {
			log.Printf("[WARN] failed to execute template %s: %v", name, err)
			http.Error(w, "Template error", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("[WARN] failed to write response: %v", err)
	}
}

// parseTemplates parses all templates
func (s *Server) parseTemplates() (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template)

	funcMap := template.FuncMap{
		"humanTime": s.humanTime,
		"url":       s.url,
	}

	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templatesFS,
		"templates/base.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse base template: %w", err)
	}
	templates["base.html"] = base

	// partials separately for HTMX requests
	partials, err := template.New("tasks.html").Funcs(funcMap).ParseFS(templatesFS, "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse partials: %w", err)
	}
	templates["partials"] = partials

	return templates, nil
}

func (s *Server) getTheme(r *http.Request) enums.Theme {
	cookie, err := r.Cookie("theme")
	if err != nil {
		return enums.ThemeLight
	}
	theme, err := enums.ParseTheme(cookie.Value)
	if err != nil {
		log.Printf("[WARN] invalid theme %q: %v", cookie.Value, err)
		return enums.ThemeLight
	}
	return theme
}

// getFilterMode gets the filter mode from cookie or defaults to "all"
func (s *Server) getFilterMode(r *http.Request) enums.FilterMode {
	cookie, err := r.Cookie("filter-mode")
	if err != nil {
		return enums.FilterModeAll
	}
	mode, err := enums.ParseFilterMode(cookie.Value)
	if err != nil {
		log.Printf("[WARN] invalid filter mode %q: %v", cookie.Value, err)
		return enums.FilterModeAll
	}
	return mode
}

// setPrefCookie sets a long-living UI preference cookie
func (s *Server) setPrefCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     s.cookiePath(),
		MaxAge:   365 * 24 * 60 * 60, // 1 year
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) humanTime(t time.Time) string {
	if t.IsZero() {
		return "Never"
	}
	return t.Local().Format("Jan 2, 15:04")
}

// url prepends the base URL to a path for reverse proxy support
func (s *Server) url(path string) string {
	return s.baseURL + path
}

// cookiePath returns the cookie path with base URL support
func (s *Server) cookiePath() string {
	if s.baseURL == "" {
		return "/"
	}
	return s.baseURL + "/"
}

// shortVersion extracts a short version string from full version,
// "v1.2.0-abc1234-20250101" becomes "v1.2.0"
func shortVersion(fullVer string) string {
	if fullVer == "" || fullVer == "unknown" {
		return fullVer
	}
	if idx := strings.Index(fullVer, "-"); idx > 0 {
		return fullVer[:idx]
	}
	return fullVer
}
