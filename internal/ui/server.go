// Package ui serves the interactive timeline: the HTML page with its SSE
// updates, the JSON API and the metrics endpoint.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapline/internal/engine"
	"github.com/leapstack-labs/leapline/internal/source"
	"github.com/leapstack-labs/leapline/internal/ui/features/common"
	"github.com/leapstack-labs/leapline/internal/ui/notifier"
	"github.com/leapstack-labs/leapline/internal/ui/router"
	"github.com/leapstack-labs/leapline/pkg/core"
)

const reloadDebounce = 100 * time.Millisecond

// Config holds configuration for the UI server.
type Config struct {
	// Cache holds the resident dataset
	Cache *source.Cache
	// Loader reloads the dataset when the watched file changes (optional)
	Loader source.Loader
	// LoadTimeout bounds one reload
	LoadTimeout time.Duration
	// Store backs /api/projects and /api/timeline (optional)
	Store core.Store
	// History backs /api/real-timeline-data (optional, uses the resident dataset if nil)
	History common.HistoryProvider
	// Engine configures every scene rebuild
	Engine engine.Config

	Port int
	// Watch enables reloading when WatchPath changes
	Watch     bool
	WatchPath string
	// SessionSecret signs session cookies (a random key is used if empty)
	SessionSecret string
	Dev           bool
	// Origins may call the JSON API from the browser
	Origins []string
	Logger  *slog.Logger
}

// Server is the main UI server.
type Server struct {
	cfg          Config
	sessionStore *sessions.CookieStore
	logger       *slog.Logger
	notifier     *notifier.Notifier
}

// NewServer creates a new UI server instance.
func NewServer(cfg Config) *Server {
	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		secret = securecookie.GenerateRandomKey(32)
	}
	sessionStore := sessions.NewCookieStore(secret)
	sessionStore.MaxAge(86400 * 30) // 30 days
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Cache == nil {
		cfg.Cache = source.NewCache(nil)
	}

	return &Server{
		cfg:          cfg,
		sessionStore: sessionStore,
		logger:       logger,
		notifier:     notifier.New(),
	}
}

// Handler builds the router with all routes and middleware.
func (s *Server) Handler() (http.Handler, error) {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		middleware.Compress(5),
	)
	if s.cfg.Dev {
		r.Use(middleware.Logger)
	}

	deps := &common.Deps{
		Cache:        s.cfg.Cache,
		Store:        s.cfg.Store,
		History:      s.cfg.History,
		Engine:       s.cfg.Engine,
		Notifier:     s.notifier,
		SessionStore: s.sessionStore,
		Logger:       s.logger,
		IsDev:        s.cfg.Dev,
		Origins:      s.cfg.Origins,
	}
	if err := router.SetupRoutes(r, deps); err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	return r, nil
}

// Serve starts the UI server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.logger.Info("starting UI server", "addr", fmt.Sprintf("http://localhost:%d", s.cfg.Port))

	handler, err := s.Handler()
	if err != nil {
		return err
	}

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.cfg.Watch && s.cfg.WatchPath != "" && s.cfg.Loader != nil {
		eg.Go(func() error {
			return s.watchFile(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down UI server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// Notifier returns the server's notifier for SSE updates.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

// Reload reloads the resident dataset and pushes it to every open page.
// On failure the previous dataset stays resident.
func (s *Server) Reload(ctx context.Context) error {
	if s.cfg.Loader == nil {
		return errors.New("no loader configured")
	}
	ds, err := s.cfg.Cache.Reload(ctx, s.cfg.Loader, s.cfg.LoadTimeout)
	if err != nil {
		return err
	}
	version := s.cfg.Cache.Version()
	s.logger.Info("dataset reloaded", "source", ds.Source, "records", len(ds.Records), "version", version)
	s.notifier.Broadcast(version)
	return nil
}

// watchFile reloads the dataset when the watched file is written, created or
// renamed into place. The parent directory is watched so that editors that
// replace the file are noticed.
func (s *Server) watchFile(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	target, err := filepath.Abs(s.cfg.WatchPath)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		s.logger.Error("failed to watch dataset", "path", target, "error", err)
		return nil
	}

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isDatasetChange(event, target) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(reloadDebounce, func() {
				s.logger.Debug("dataset changed, reloading", "file", event.Name)
				if err := s.Reload(ctx); err != nil {
					s.logger.Error("reload failed", "error", err)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}

func isDatasetChange(event fsnotify.Event, target string) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	name, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return name == target
}
