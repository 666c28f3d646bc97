package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fdg312/lifeos/internal/ai"
	"github.com/fdg312/lifeos/internal/ailog"
	"github.com/fdg312/lifeos/internal/auth"
	"github.com/fdg312/lifeos/internal/baseline"
	"github.com/fdg312/lifeos/internal/blob"
	"github.com/fdg312/lifeos/internal/config"
	"github.com/fdg312/lifeos/internal/logger"
	"github.com/fdg312/lifeos/internal/manuallog"
	"github.com/fdg312/lifeos/internal/relationships"
	"github.com/fdg312/lifeos/internal/reports"
	"github.com/fdg312/lifeos/internal/savedmeals"
	"github.com/fdg312/lifeos/internal/storage"
	"github.com/fdg312/lifeos/internal/storage/memory"
	"github.com/fdg312/lifeos/internal/storage/postgres"
)

const (
	logModule              = "httpserver"
	sessionCleanupInterval = 10 * time.Minute
)

// Server представляет HTTP сервер
type Server struct {
	config         *config.Config
	log            logger.Logger
	mux            *http.ServeMux
	storage        storage.Storage
	reportsStorage storage.ReportsStorage
	proposer       ai.MealProposer
	sessions       *ailog.SessionStore
	blobStore      blob.Store
	blobReady      bool
	authMiddleware *auth.Middleware
	httpServer     *http.Server
}

type Option func(*Server)

// WithStorage подставляет готовое хранилище (тесты, cmd/api после миграций)
func WithStorage(st storage.Storage, reportsStorage storage.ReportsStorage) Option {
	return func(s *Server) {
		s.storage = st
		s.reportsStorage = reportsStorage
	}
}

func WithProposer(p ai.MealProposer) Option {
	return func(s *Server) { s.proposer = p }
}

func WithSessionStore(store *ailog.SessionStore) Option {
	return func(s *Server) { s.sessions = store }
}

// WithBlobStore: nil означает local режим отчётов
func WithBlobStore(store blob.Store) Option {
	return func(s *Server) {
		s.blobStore = store
		s.blobReady = true
	}
}

// New создаёт новый HTTP сервер
func New(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*Server, error) {
	s := &Server{
		config: cfg,
		log:    log,
		mux:    http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.storage == nil {
		s.initStorage(ctx)
	}
	if s.proposer == nil {
		s.initProposer(ctx)
	}
	if s.sessions == nil {
		ttl := time.Duration(cfg.AILogSessionTTLMinutes) * time.Minute
		if ttl <= 0 {
			ttl = time.Hour
		}
		s.sessions = ailog.NewSessionStore(ttl, sessionCleanupInterval)
	}
	if !s.blobReady {
		store, _, err := blob.NewBlobStore(ctx, cfg.Blob, log)
		if err != nil {
			return nil, fmt.Errorf("blob store: %w", err)
		}
		s.blobStore = store
	}

	s.routes()
	return s, nil
}

// initStorage: Postgres если задан DATABASE_URL, иначе (или при ошибке) память с демо-данными
func (s *Server) initStorage(ctx context.Context) {
	useMemory := func() {
		mem := memory.NewSeeded(s.config.DefaultUserID)
		mem.SetClock(time.Now, s.config.Location())
		s.storage = mem
		s.reportsStorage = mem.GetReportsStorage()
	}

	if s.config.DatabaseURL == "" {
		s.log.Info(logModule, "using in-memory storage", map[string]any{"seed_user": s.config.DefaultUserID})
		useMemory()
		return
	}

	pg, err := postgres.New(ctx, s.config.DatabaseURL, s.config.AppTimeZone)
	if err != nil {
		s.log.Error(logModule, "postgres connection failed, fallback to in-memory storage", map[string]any{"error": err.Error()})
		useMemory()
		return
	}

	s.log.Info(logModule, "postgres connected", nil)
	s.storage = pg
	s.reportsStorage = pg.GetReportsStorage()
}

func (s *Server) initProposer(ctx context.Context) {
	p, err := ai.NewMealProposer(ctx, s.config)
	if err != nil {
		s.log.Error(logModule, "ai proposer init failed, fallback to mock", map[string]any{
			"ai_mode": s.config.AIMode,
			"error":   err.Error(),
		})
		p = ai.NewMockProposer()
	}
	s.proposer = p
}

// routes регистрирует маршруты
func (s *Server) routes() {
	// Health check (no auth required)
	s.mux.HandleFunc("/healthz", s.handleHealthz)

	// Auth
	authService := auth.NewService(s.config)
	authHandler := auth.NewHandlers(authService)
	s.authMiddleware = auth.NewMiddleware(s.config, authService, s.log)

	s.mux.HandleFunc("POST /v1/auth/dev", authHandler.HandleDevAuth)
	s.mux.HandleFunc("GET /v1/auth/me", authHandler.HandleMe)

	// AI meal log
	timeout := time.Duration(s.config.AITimeoutSeconds) * time.Second
	ailogService := ailog.NewService(
		s.sessions,
		ailog.NewTransport(s.proposer, timeout),
		s.storage,
		s.log,
		ailog.Options{
			MaxImageBytes:     s.config.UploadMaxBytes(),
			AllowedImageTypes: s.config.AllowedMimeTypes(),
		},
	)
	ailogHandler := ailog.NewHandler(ailogService)

	s.mux.HandleFunc("GET /v1/ailog/session", ailogHandler.HandleGetSession)
	s.mux.HandleFunc("DELETE /v1/ailog/session", ailogHandler.HandleResetSession)
	s.mux.HandleFunc("PUT /v1/ailog/draft", ailogHandler.HandleUpdateDraft)
	s.mux.HandleFunc("POST /v1/ailog/draft/image", ailogHandler.HandleAttachImage)
	s.mux.HandleFunc("DELETE /v1/ailog/draft/image", ailogHandler.HandleDetachImage)
	s.mux.HandleFunc("POST /v1/ailog/send", ailogHandler.HandleSend)
	s.mux.HandleFunc("POST /v1/ailog/confirm", ailogHandler.HandleConfirm)
	s.mux.HandleFunc("POST /v1/ailog/save-template", ailogHandler.HandleSaveTemplate)
	s.mux.HandleFunc("POST /v1/ailog/discard", ailogHandler.HandleDiscard)

	// Saved meals
	savedMealsService := savedmeals.NewService(s.storage, s.log)
	savedMealsHandler := savedmeals.NewHandler(savedMealsService)
	s.mux.HandleFunc("GET /v1/saved-meals", savedMealsHandler.HandleList)
	s.mux.HandleFunc("POST /v1/saved-meals/{id}/log", savedMealsHandler.HandleLog)

	// Manual log
	manualHandler := manuallog.NewHandler(manuallog.NewService(s.storage, s.log))
	s.mux.HandleFunc("POST /v1/meals/manual", manualHandler.HandleLog)

	// Baseline
	baselineService := baseline.NewService(s.storage, s.log)
	baselineHandler := baseline.NewHandler(baselineService)
	s.mux.HandleFunc("GET /v1/baseline/home", baselineHandler.HandleHome)
	s.mux.HandleFunc("GET /v1/baseline/signals", baselineHandler.HandleSignals)

	// Relationships
	relationshipsService := relationships.NewService(s.storage, s.log, s.config.Location())
	relationshipsHandler := relationships.NewHandler(relationshipsService)
	s.mux.HandleFunc("GET /v1/relationships", relationshipsHandler.HandleList)
	s.mux.HandleFunc("POST /v1/relationships/plan", relationshipsHandler.HandlePlan)
	s.mux.HandleFunc("POST /v1/relationships/log", relationshipsHandler.HandleLog)

	// Reports
	reportsService := reports.NewService(
		s.reportsStorage,
		reports.NewGenerator(baselineService, savedMealsService, relationshipsService),
		s.blobStore,
		s.log,
		reports.Options{
			PresignTTLSeconds: s.config.Blob.S3.PresignTTLSeconds,
			PublicBaseURL:     s.config.Blob.S3.PublicBaseURL,
			PreferPublicURL:   s.config.Blob.S3.PreferPublicURL,
			Location:          s.config.Location(),
		},
	)
	reportsHandler := reports.NewHandlers(reportsService)
	s.mux.HandleFunc("POST /v1/reports", reportsHandler.HandleCreate)
	s.mux.HandleFunc("GET /v1/reports", reportsHandler.HandleList)
	s.mux.HandleFunc("GET /v1/reports/{id}/download", reportsHandler.HandleDownload)
	s.mux.HandleFunc("DELETE /v1/reports/{id}", reportsHandler.HandleDelete)
}

// Handler собирает цепочку CORS → request log → rate limit → auth → router
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.mux
	handler = s.authMiddleware.Handler(handler)
	handler = RateLimitMiddleware(s.config, handler)
	handler = RequestLogMiddleware(s.log, handler)
	handler = CORSMiddleware(s.config, handler)
	return handler
}

// handleHealthz возвращает статус сервера
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

// Start запускает HTTP сервер; после Shutdown возвращает nil
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.Info(logModule, "server started", map[string]any{
		"addr":    "http://localhost" + addr,
		"healthz": "http://localhost" + addr + "/healthz",
	})

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Close закрывает storage и освобождает ресурсы
func (s *Server) Close() error {
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
