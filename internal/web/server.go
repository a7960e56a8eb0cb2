package web

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/yokie-karaoke/yokie-server/internal/config"
	"github.com/yokie-karaoke/yokie-server/internal/database"
	"github.com/yokie-karaoke/yokie-server/internal/web/handlers"
	"github.com/yokie-karaoke/yokie-server/internal/web/middleware"
)

const shutdownTimeout = 30 * time.Second

// Server represents the web server
type Server struct {
	db       *database.DB
	cfg      *config.Config
	router   *chi.Mux
	handlers *handlers.Handlers
}

// NewServer creates a new web server
func NewServer(db *database.DB, cfg *config.Config, version string) *Server {
	s := &Server{
		db:     db,
		cfg:    cfg,
		router: chi.NewRouter(),
		handlers: handlers.New(db, handlers.Options{
			Protocol: cfg.Protocol,
			Port:     cfg.Port,
			APIRoot:  cfg.APIRoot,
			Version:  version,
		}),
	}

	s.setupRoutes()
	return s
}

// Router returns the configured HTTP handler
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	r := s.router
	h := s.handlers

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(s.cfg.CORSOrigins))

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	r.Get("/", h.Banner)
	r.Get("/favicon.ico", s.favicon)

	api := func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Timeout(s.cfg.RequestTimeout))

			r.Get("/feed/preferences", h.Preferences)
			r.Post("/feed/{type}", h.Feed)
			r.Post("/search", h.Search)

			r.Route("/queue", func(r chi.Router) {
				r.Get("/get", h.QueueGet)
				r.Get("/add", h.QueueAdd)
				r.Get("/remove", h.QueueRemove)
			})
		})

		if s.cfg.CDGPath != "" {
			r.Handle("/cdg/*", s.cdgFiles())
		}
	}

	// chi cannot mount a sub-router at the empty path
	if s.cfg.APIRoot == "" {
		api(r)
	} else {
		r.Route(s.cfg.APIRoot, api)
	}
}

// cdgFiles serves karaoke tracks from the configured library directory
func (s *Server) cdgFiles() http.Handler {
	prefix := s.cfg.APIRoot + "/cdg/"
	return http.StripPrefix(prefix, http.FileServer(filesOnly{http.Dir(s.cfg.CDGPath)}))
}

// filesOnly hides directories so the library tree is never listed
type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, fs.ErrNotExist
	}
	return file, nil
}

func (s *Server) favicon(w http.ResponseWriter, r *http.Request) {
	path := s.cfg.FaviconPath
	if path == "" {
		s.handlers.NotFound(w, r)
		return
	}
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		s.handlers.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, path)
}

// Start starts the web server and blocks until ctx is canceled or the listener fails
func (s *Server) Start(ctx context.Context) error {
	addr := s.cfg.Addr()

	server := &http.Server{
		Addr:    addr,
		Handler: s.router,
		// ReadTimeout is for reading request body
		ReadTimeout: 15 * time.Second,
		// Chi middleware timeout protects API requests; file downloads may run longer
		WriteTimeout: 0,
		// IdleTimeout for keep-alive connections between requests
		IdleTimeout: 120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", addr).
			Str("api_root", displayRoot(s.cfg.APIRoot)).
			Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

func displayRoot(root string) string {
	if strings.TrimSpace(root) == "" {
		return "/"
	}
	return root
}
