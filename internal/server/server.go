// Package server assembles all HTTP handlers and starts the server.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matthewbaird/exadmin/internal/auth"
	"github.com/matthewbaird/exadmin/internal/csrf"
	"github.com/matthewbaird/exadmin/internal/detail"
	"github.com/matthewbaird/exadmin/internal/handler"
	"github.com/matthewbaird/exadmin/internal/i18n"
	"github.com/matthewbaird/exadmin/internal/tmpl"
)

// Config holds server configuration.
type Config struct {
	Addr   string
	Prefix string // URL prefix of the admin, e.g. "/admin"
	Site   *detail.Site
	Tokens *auth.Tokens
	Users  auth.Directory
	DB     handler.Pinger // optional, checked by /healthz
	Logger *slog.Logger
	// SecureCookies marks the CSRF cookie HTTPS-only.
	SecureCookies bool
}

// NewRouter returns the admin's HTTP handler.
func NewRouter(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.GetHead)
	r.Use(handler.Logging(logger))
	r.Use(handler.Recovery(logger))

	// Health check
	r.Get("/healthz", handler.Healthz(cfg.DB))

	admin := func(r chi.Router) {
		r.Handle("/static/*", http.StripPrefix(cfg.Prefix+"/static/", http.FileServerFS(tmpl.Static())))

		r.Group(func(r chi.Router) {
			r.Use(i18n.Middleware)
			r.Use(auth.Middleware(cfg.Tokens, cfg.Users))
			r.Use(csrf.Protect(csrf.Options{
				Path:   pathOrRoot(cfg.Prefix),
				Secure: cfg.SecureCookies,
				OnFailure: func(w http.ResponseWriter, r *http.Request, err error) {
					logger.Warn("csrf check failed", "path", r.URL.Path, "error", err)
					http.Error(w, i18n.FromContext(r.Context()).Sprintf(i18n.MsgForbidden), http.StatusForbidden)
				},
			}))
			r.Get("/{app}/{model}/{object_id}/detail/", cfg.Site.ServeDetail)
		})
	}
	if cfg.Prefix == "" {
		r.Group(admin)
	} else {
		r.Route(cfg.Prefix, admin)
	}
	return r
}

func pathOrRoot(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

// Run starts the HTTP server and shuts it down when ctx is done.
func Run(ctx context.Context, cfg Config) error {
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("starting server", "addr", cfg.Addr, "prefix", cfg.Prefix)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}()

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
