package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/regdesk/portalserver/config"
	"github.com/regdesk/portalserver/internal/db"
	"github.com/regdesk/portalserver/internal/handlers"
	"github.com/regdesk/portalserver/internal/mq"
	"github.com/regdesk/portalserver/internal/services"
	"github.com/regdesk/portalserver/internal/session"
	"github.com/regdesk/portalserver/internal/storage"
	"github.com/regdesk/portalserver/internal/store"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	broker     *mq.MQ
}

// New constructs a Server with its full dependency graph wired.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	secret := cfg.Session.Secret
	if secret == "" {
		_ = dbConn.Close()
		return nil, errors.New("SESSION_SECRET is required")
	}

	ttl := time.Duration(cfg.Session.TTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	codec, err := session.NewCodec(secret, ttl)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	sessions := session.NewMemoryStore(ttl)

	uploads, err := newUploadStorage(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if err := uploads.EnsureBucket(ctx); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("prepare upload storage: %w", err)
	}

	verifier, err := services.NewCredentialVerifier(cfg.PasswordScheme)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	broker, err := mq.NewFromConfig(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	renderer, err := handlers.NewHTMLRenderer(cfg.ViewDir)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("load views: %w", err)
	}

	userRepo := store.NewUserRepository(dbConn)
	userService := services.NewUserService(userRepo)
	audit := services.NewAuditPublisher(broker)

	authHandler := handlers.NewAuthHandler(userService, verifier, sessions, renderer)
	userHandler := handlers.NewUserHandler(userService, verifier, uploads, renderer, audit)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
		handlers.WithSession(sessions, codec),
	)
	router.Get("/healthz", handlers.Healthz)
	handlers.PortalRouter(router, authHandler, userHandler)

	port := cfg.ServerPort
	if port == 0 {
		port = 3000
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		broker:     broker,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.broker != nil {
		_ = s.broker.Close()
	}
	return s.httpServer.Close()
}

func newUploadStorage(ctx context.Context, cfg config.Config) (*storage.Storage, error) {
	switch cfg.Upload.Backend {
	case "", config.UploadBackendFS:
		backend, err := storage.NewFSClient(cfg.Upload.Dir)
		if err != nil {
			return nil, err
		}
		return storage.NewStorage(backend), nil
	case config.UploadBackendMinio:
		backend, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		return storage.NewStorage(backend), nil
	case config.UploadBackendGCS:
		backend, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		return storage.NewStorage(backend), nil
	default:
		return nil, fmt.Errorf("unknown upload backend %q", cfg.Upload.Backend)
	}
}
