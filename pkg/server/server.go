package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"igprofiles/pkg/cache"
	"igprofiles/pkg/config"
	"igprofiles/pkg/logger"
	"igprofiles/pkg/tracker"
)

// Version is reported by the root endpoint
const Version = "2.0.0"

// Server exposes the cached profile dataset over a small JSON API
type Server struct {
	echo    *echo.Echo
	httpd   *http.Server
	tracker *tracker.Tracker
	store   *cache.Store
	cfg     *config.ServerConfig
	logger  logger.Logger
	now     func() time.Time
}

// New creates the HTTP server around a tracker and its cache store
func New(t *tracker.Tracker, cfg *config.ServerConfig, log logger.Logger) *Server {
	if log == nil {
		log = logger.GetLogger()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RemoveTrailingSlash())
	e.Use(requestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))

	s := &Server{
		echo:    e,
		tracker: t,
		store:   t.Store(),
		cfg:     cfg,
		logger:  log,
		now:     time.Now,
	}

	s.httpd = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: e,
	}

	s.addRoutes()

	return s
}

func (s *Server) addRoutes() {
	s.echo.GET("/", s.handleIndex)
	s.echo.GET("/api/health", s.handleHealth)
	s.echo.GET("/api/profiles", s.handleProfiles)
	s.echo.POST("/api/refresh", s.handleRefresh)
	s.echo.GET("/api/stats", s.handleStats)
}

// requestLogger emits one zerolog event per request
func requestLogger(log logger.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := map[string]interface{}{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency,
			}
			if v.Error != nil {
				fields["error"] = v.Error.Error()
			}

			switch {
			case v.Status >= 500:
				log.ErrorWithFields("request", fields)
			case v.Status >= 400:
				log.WarnWithFields("request", fields)
			default:
				log.InfoWithFields("request", fields)
			}
			return nil
		},
	})
}

// Run starts the server and blocks until the context is cancelled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.InfoWithFields("server listening", map[string]interface{}{
			"addr": s.httpd.Addr,
		})
		if err := s.httpd.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.httpd.Shutdown(shutdownCtx)
}

// Echo returns the underlying echo instance (used by handler tests)
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
