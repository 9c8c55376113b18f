package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/veida/internal/profile"
	"github.com/hrygo/veida/internal/timezone"
	"github.com/hrygo/veida/plugin/notification"
	"github.com/hrygo/veida/plugin/review"
	"github.com/hrygo/veida/server/auth"
	"github.com/hrygo/veida/server/internal/observability"
	"github.com/hrygo/veida/server/middleware"
	apiv1 "github.com/hrygo/veida/server/router/api/v1"
	"github.com/hrygo/veida/server/runner/reminder"
	"github.com/hrygo/veida/store"
)

const (
	// metricsWindow is how many recent request durations feed the latency percentiles.
	metricsWindow = 1000
	// Per client address.
	requestsPerSecond = 10
	requestBurst      = 20
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store
	Tracker *review.Tracker

	echoServer *echo.Echo
	reminders  *reminder.Runner
	runners    *errgroup.Group
	cancel     context.CancelFunc
}

// NewServer wires the HTTP API and background runners. Nothing listens until Start.
func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	if profile.JWTSecret == "" {
		return nil, errors.New("a JWT secret is required (VEIDA_JWT_SECRET)")
	}
	loc, err := timezone.ParseTimezone(profile.Timezone)
	if err != nil {
		return nil, errors.Wrap(err, "invalid timezone")
	}
	strategy, err := review.ParseStrategy(profile.ReviewStrategy)
	if err != nil {
		return nil, err
	}

	s := &Server{
		Profile: profile,
		Store:   store,
		Tracker: review.NewTracker(store, review.Config{Strategy: strategy, Location: loc}),
	}

	metrics := observability.NewMetrics(metricsWindow)
	echoServer := echo.New()
	echoServer.Debug = profile.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.HTTPErrorHandler = apiv1.ErrorHandler
	echoServer.Use(echomw.Recover())
	echoServer.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: profile.Origins(),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	echoServer.Use(observability.RequestLogger(slog.Default(), metrics))
	echoServer.Use(middleware.NewRateLimiter(requestsPerSecond, requestBurst).Middleware(func(c echo.Context) string {
		return c.RealIP()
	}))
	s.echoServer = echoServer

	echoServer.GET("/healthz", s.healthz)

	apiV1Service := apiv1.NewAPIV1Service(profile, store, s.Tracker, metrics)
	authenticator := auth.NewAuthenticator(store, profile.JWTSecret)
	apiV1Service.RegisterRoutes(echoServer.Group("/api/v1"), authenticator.Middleware())

	if profile.IsPushEnabled() {
		sender, err := notification.NewFCMSenderFromProfile(ctx, profile)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create push sender")
		}
		s.reminders = reminder.NewRunner(store, s.Tracker, sender, profile.ReminderHour)
	}

	slog.Info("review scheduling configured",
		slog.String("strategy", string(strategy)),
		slog.String("timezone", loc.String()),
		slog.Bool("generation", apiV1Service.Generator != nil),
		slog.Bool("push", s.reminders != nil))
	return s, nil
}

// Start listens on the profile address and starts the background runners.
// It returns once the listener is bound.
func (s *Server) Start(ctx context.Context) error {
	address := net.JoinHostPort(s.Profile.Addr, fmt.Sprint(s.Profile.Port))
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrap(err, "failed to listen")
	}
	s.echoServer.Listener = listener

	runnerCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.runners, runnerCtx = errgroup.WithContext(runnerCtx)
	if s.reminders != nil {
		s.runners.Go(func() error {
			s.reminders.Run(runnerCtx)
			return nil
		})
	}

	go func() {
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start echo server", slog.String("error", err.Error()))
		}
	}()
	slog.Info("server listening", slog.String("address", listener.Addr().String()))
	return nil
}

// Shutdown stops the runners, drains in-flight requests and closes the store.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("server shutting down")
	if s.cancel != nil {
		s.cancel()
		if err := s.runners.Wait(); err != nil {
			slog.Error("runner failed", slog.String("error", err.Error()))
		}
	}

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", slog.String("error", err.Error()))
	}
	slog.Info("server stopped properly")
}

// Handler exposes the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}

func (s *Server) healthz(c echo.Context) error {
	if err := s.Store.GetDriver().GetDB().PingContext(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": s.Profile.Version})
}
