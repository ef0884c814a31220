package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/fdg312/diet-planner/internal/auth"
	"github.com/fdg312/diet-planner/internal/blob"
	"github.com/fdg312/diet-planner/internal/calculator"
	"github.com/fdg312/diet-planner/internal/catalog"
	"github.com/fdg312/diet-planner/internal/config"
	"github.com/fdg312/diet-planner/internal/exports"
	"github.com/fdg312/diet-planner/internal/metrics"
	"github.com/fdg312/diet-planner/internal/planner"
	"github.com/fdg312/diet-planner/internal/plans"
	"github.com/fdg312/diet-planner/internal/preferences"
	"github.com/fdg312/diet-planner/internal/savedposts"
	"github.com/fdg312/diet-planner/internal/snapshots"
	"github.com/fdg312/diet-planner/internal/storage"
	"github.com/fdg312/diet-planner/internal/storage/memory"
	"github.com/fdg312/diet-planner/internal/storage/postgres"
	"github.com/fdg312/diet-planner/internal/storage/sqlite"
	"github.com/fdg312/diet-planner/internal/userctx"
)

// Server представляет HTTP сервер
type Server struct {
	config         *config.Config
	logger         logrus.FieldLogger
	mux            *http.ServeMux
	registry       *catalog.Registry
	storage        storage.SnapshotStorage
	exports        storage.ExportsStorage
	storageKind    string
	repo           *snapshots.Repository
	metrics        *metrics.Manager
	promRegistry   *prometheus.Registry
	authMiddleware *auth.Middleware
	httpServer     *http.Server
}

// New создаёт новый HTTP сервер: каталоги, storage, blob store и маршруты
func New(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (*Server, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	registry, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalogs: %w", err)
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s := &Server{
		config:       cfg,
		logger:       logger.WithField("component", "httpserver"),
		mux:          http.NewServeMux(),
		registry:     registry,
		metrics:      metrics.NewManager("diet", "server", promRegistry),
		promRegistry: promRegistry,
	}

	s.initStorage(ctx)
	s.repo = snapshots.NewRepository(s.storage, logger, s.metrics)

	blobStore, blobMode, err := blob.NewBlobStore(ctx, cfg.Blob, logger)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"storage":  s.storageKind,
		"exports":  blobMode,
		"catalogs": len(registry.Catalogs()),
		"foods":    registry.Foods().Len(),
	}).Info("server initialized")

	s.routes(blobStore)
	return s, nil
}

// initStorage выбирает storage: Postgres, затем SQLite, затем память
func (s *Server) initStorage(ctx context.Context) {
	if s.config.DatabaseURL != "" {
		s.logger.Info("connecting to PostgreSQL")
		pgStorage, err := postgres.New(ctx, s.config.DatabaseURL)
		if err == nil {
			s.logger.Info("PostgreSQL connected")
			s.storage, s.exports, s.storageKind = pgStorage, pgStorage.Exports(), "postgres"
			return
		}
		s.logger.WithError(err).Warn("PostgreSQL unavailable, falling back")
	}

	if s.config.SQLitePath != "" {
		sqliteStorage, err := sqlite.New(s.config.SQLitePath)
		if err == nil {
			s.logger.WithField("path", s.config.SQLitePath).Info("using SQLite storage")
			s.storage, s.exports, s.storageKind = sqliteStorage, sqliteStorage, "sqlite"
			return
		}
		s.logger.WithError(err).Warn("SQLite unavailable, falling back")
	}

	s.logger.Info("using in-memory storage")
	mem := memory.New()
	s.storage, s.exports, s.storageKind = mem, mem.Exports(), "memory"
}

// routes регистрирует маршруты
func (s *Server) routes(blobStore blob.Store) {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	if s.config.MetricsEnabled {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}))
	}

	// Auth API
	authService := auth.NewService(s.config)
	authHandler := auth.NewHandlers(authService)
	s.authMiddleware = auth.NewMiddleware(s.config, authService, s.logger)
	s.mux.HandleFunc("POST /v1/auth/dev", authHandler.HandleDevAuth)

	// Catalogs and foods
	catalogHandler := catalog.NewHandler(s.registry, planner.ScaleByQuantity, s.config.CalculatorMaxQuantityG)
	s.mux.HandleFunc("GET /v1/catalogs", catalogHandler.HandleList)
	s.mux.HandleFunc("GET /v1/catalogs/{id}/meals", catalogHandler.HandleMeals)
	s.mux.HandleFunc("GET /v1/foods", catalogHandler.HandleFoods)
	s.mux.HandleFunc("GET /v1/foods/scale", catalogHandler.HandleScale)

	// Plan composer
	planService := plans.NewService(s.registry, s.repo, s.metrics)
	planHandler := plans.NewHandler(planService)
	s.mux.HandleFunc("GET /v1/plans/{catalog}", planHandler.HandleGet)
	s.mux.HandleFunc("POST /v1/plans/{catalog}/toggle", planHandler.HandleToggle)
	s.mux.HandleFunc("DELETE /v1/plans/{catalog}", planHandler.HandleReset)

	// Protein calculator
	calcService := calculator.NewService(s.registry, s.repo, s.metrics, s.config.CalculatorMaxEntries, s.config.CalculatorMaxQuantityG)
	calcHandler := calculator.NewHandler(calcService)
	s.mux.HandleFunc("GET /v1/calculator", calcHandler.HandleGet)
	s.mux.HandleFunc("DELETE /v1/calculator", calcHandler.HandleClear)
	s.mux.HandleFunc("POST /v1/calculator/entries", calcHandler.HandleAddEntry)
	s.mux.HandleFunc("DELETE /v1/calculator/entries/{index}", calcHandler.HandleRemoveEntry)
	s.mux.HandleFunc("POST /v1/calculator/quote", calcHandler.HandleQuote)

	// Preferences (saved user state)
	prefHandler := preferences.NewHandler(preferences.NewService(s.registry, s.repo))
	s.mux.HandleFunc("GET /v1/preferences", prefHandler.HandleGet)
	s.mux.HandleFunc("PUT /v1/preferences", prefHandler.HandlePut)

	// Saved posts
	postsHandler := savedposts.NewHandler(savedposts.NewService(s.repo, s.metrics))
	s.mux.HandleFunc("GET /v1/saved-posts", postsHandler.HandleList)
	s.mux.HandleFunc("POST /v1/saved-posts/toggle", postsHandler.HandleToggle)

	// Exports
	s3cfg := s.config.Blob.S3
	exportService := exports.NewService(s.exports, planService, blobStore, exports.Options{
		PresignTTLSeconds: s3cfg.PresignTTLSeconds,
		PublicBaseURL:     s3cfg.PublicBaseURL,
		PreferPublicURL:   s3cfg.PreferPublicURL,
		ListLimit:         s.config.ExportsListLimit,
	}, s.metrics, s.logger)
	exportHandler := exports.NewHandlers(exportService)
	s.mux.HandleFunc("GET /v1/plans/{catalog}/export", exportHandler.HandlePlanExport)
	s.mux.HandleFunc("POST /v1/exports", exportHandler.HandleCreate)
	s.mux.HandleFunc("GET /v1/exports", exportHandler.HandleList)
	s.mux.HandleFunc("GET /v1/exports/{id}", exportHandler.HandleGet)
	s.mux.HandleFunc("GET /v1/exports/{id}/download", exportHandler.HandleDownload)
	s.mux.HandleFunc("DELETE /v1/exports/{id}", exportHandler.HandleDelete)

	// Stored state keys
	s.mux.HandleFunc("GET /v1/state/keys", s.handleStateKeys)
}

// Handler собирает цепочку middleware (снаружи внутрь): recovery → CORS → rate limit → metrics → auth → router
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.mux
	if s.authMiddleware != nil && s.config.AuthEnabled() {
		handler = s.authMiddleware.Wrap(handler)
	}
	handler = RequestMetrics(s.metrics)(handler)
	handler = RateLimitMiddleware(s.config, handler)
	handler = CORSMiddleware(s.config, handler)
	handler = PanicRecovery(s.metrics, s.logger)(handler)
	return handler
}

// handleHealthz возвращает статус сервера
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"storage": s.storageKind,
	})
}

type stateKeysResponse struct {
	Keys []string `json:"keys"`
}

// handleStateKeys handles GET /v1/state/keys
func (s *Server) handleStateKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := s.repo.Keys(r.Context(), userctx.OwnerID(r.Context()))
	if err != nil {
		s.logger.WithError(err).Error("list snapshot keys")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"code": "internal_error", "message": "Internal server error"},
		})
		return
	}
	if keys == nil {
		keys = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(stateKeysResponse{Keys: keys})
}

// Start запускает HTTP сервер и блокируется до отмены ctx
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		ConnState:         s.connStateMetrics,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("server listening")
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info("shutting down")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metrics.GaugeRequests.Add(1)
	case http.StateClosed, http.StateHijacked:
		s.metrics.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}

// Close закрывает storage и освобождает ресурсы
func (s *Server) Close() error {
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}
