// Package server wires the HTTP router, middleware and handlers, and owns
// the process lifecycle. It is the composition root: main.go only reads
// configuration and calls New/Start.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sjlee/walkinggo/internal/auth"
	"github.com/sjlee/walkinggo/internal/groupcode"
	"github.com/sjlee/walkinggo/internal/handler"
	"github.com/sjlee/walkinggo/internal/middleware"
	sqliteRepo "github.com/sjlee/walkinggo/internal/repository/sqlite"
	"github.com/sjlee/walkinggo/internal/service"
)

// Config holds server configuration.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string
}

// Server is the HTTP server and its owned resources. The database
// connection belongs to the server and is closed on shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database, wires the dependency chain and registers all
// routes.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// setupRoutes configures middleware and all route handlers.
//
// Middleware order: RequestID, RealIP, Recoverer, then request logging.
// Signup, login, and the public group/route browse endpoints are open;
// everything else under /api requires a bearer token.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	authService := service.NewAuthService(s.db, passwords, tokens, s.logger)
	userService := service.NewUserService(s.db, s.logger)
	groupService := service.NewGroupService(s.db, groupcode.NewGenerator(), s.logger)
	walkService := service.NewWalkLogService(s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)
	groupHandler := handler.NewGroupHandler(groupService, s.logger)
	walkHandler := handler.NewWalkLogHandler(walkService, s.logger)

	requireAuth := auth.RequireAuth(tokens)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", authHandler.HandleSignup)
		r.Post("/auth/login", authHandler.HandleLogin)

		// Browsing groups and shared routes is open to anonymous clients;
		// only reads that reveal per-user data and all writes need a token.
		r.Get("/groups/public", groupHandler.HandlePublicGroups)
		r.Get("/groups/ranked-by-distance", groupHandler.HandleRanking)
		r.Get("/groups/{groupID}", groupHandler.HandleGroup)
		r.Get("/groups/{groupID}/members", groupHandler.HandleMembers)
		r.Get("/routes/recommended", walkHandler.HandleRecommendedRoutes)
		r.Get("/routes/{walkLogID}", walkHandler.HandleRouteDetails)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/users/me", userHandler.HandleProfile)
			r.Put("/users/me/weight", userHandler.HandleUpdateWeight)
			r.Put("/users/me/target-distance", userHandler.HandleUpdateTargetDistance)

			r.Post("/groups", groupHandler.HandleCreate)
			r.Get("/groups/code", groupHandler.HandleSuggestCode)
			r.Post("/groups/join", groupHandler.HandleJoinPrivate)
			r.Get("/groups/{groupID}/details", groupHandler.HandleGroupDetails)
			r.Post("/groups/{groupID}/join-public", groupHandler.HandleJoinPublic)
			r.Delete("/groups/{groupID}/leave", groupHandler.HandleLeave)
			r.Delete("/groups/{groupID}", groupHandler.HandleDelete)

			r.Post("/walk-logs", walkHandler.HandleSave)
			r.Get("/walk-logs/my", walkHandler.HandleMyLogs)
			r.Get("/walk-logs/date", walkHandler.HandleLogsByDate)
			r.Get("/walk-logs/activity", walkHandler.HandleMonthlyActivity)
			r.Post("/walk-logs/{walkLogID}/publish", walkHandler.HandlePublishRoute)
		})
	})

	return nil
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully:
// stop accepting connections, drain in-flight requests, close the
// database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
