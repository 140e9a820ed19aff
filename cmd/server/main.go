package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/z123guitar/interline/config"
	"github.com/z123guitar/interline/internal/graphassembly"
	"github.com/z123guitar/interline/internal/handler"
	"github.com/z123guitar/interline/internal/middleware"
	"github.com/z123guitar/interline/internal/placenorm"
	"github.com/z123guitar/interline/internal/repository"
	"github.com/z123guitar/interline/internal/routesearch"
	"github.com/z123guitar/interline/internal/service"
	"github.com/z123guitar/interline/internal/transfersynth"
	"github.com/z123guitar/interline/pkg/cache"
	"github.com/z123guitar/interline/pkg/db"
)

func main() {
	// ── Load configuration ──────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// ── Connect to PostgreSQL ───────────────────────────
	pgPool, err := db.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatalf("failed to connect to PostgreSQL: %v", err)
	}
	defer pgPool.Close()
	log.Println("✓ PostgreSQL connected")

	// ── Connect to Redis ────────────────────────────────
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("✓ Redis connected")

	// ── Initialize layers ───────────────────────────────
	graphRepo := repository.NewGraphRepository(pgPool)
	cacheRepo := repository.NewCacheRepository(pgPool, redisClient)

	rideshareModel := transfersynth.RideshareModel{
		BaseFare:    cfg.Search.RideshareBaseFare,
		PerKm:       cfg.Search.RidesharePerKm,
		PerMin:      cfg.Search.RidesharePerMin,
		AvgSpeedKmh: cfg.Search.RideshareAvgSpeedKmh,
		SurgeCoeff:  cfg.Search.RideshareSurgeCoeff,
	}
	synth := &transfersynth.Synthesizer{
		Rideshare: rideshareModel,
		Shuttle:   transfersynth.DefaultShuttleModel(),
	}

	assembler := graphassembly.NewAssembler(graphRepo, synth)
	if cfg.Search.TransferRadiusKm > 0 {
		assembler.TransferRadiusKm = cfg.Search.TransferRadiusKm
	}

	geocoder := placenorm.NewHashGeocoder(39.0, -95.0, 10.0)
	normalizer := placenorm.NewNormalizer(graphRepo, geocoder, placenorm.NewSyntheticIDCounter())

	costParams := routesearch.CostParams{
		TimeValuePerHour: cfg.Search.TimeValuePerHour,
		TransferPenalty:  cfg.Search.TransferPenalty,
		RiskPenalty:      cfg.Search.RiskPenalty,
		MaxDetourFactor:  cfg.Search.MaxDetourFactor,
	}

	routingSvc := service.NewRoutingService(normalizer, assembler, cacheRepo, costParams)
	searchHandler := handler.NewSearchHandler(routingSvc)

	// ── Setup router ────────────────────────────────────
	router := mux.NewRouter()

	// Health check endpoint.
	router.HandleFunc("/health", healthHandler(pgPool, redisClient)).Methods(http.MethodGet)

	// API v1 routes.
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/search", searchHandler.Search).Methods(http.MethodPost)

	// Wrap with recovery, request logging, and CORS (innermost to outermost:
	// recover first so a downstream panic never escapes unlogged).
	var httpHandler http.Handler = router
	httpHandler = middleware.Recoverer(httpHandler)
	httpHandler = middleware.RequestLogger(httpHandler)
	httpHandler = middleware.CORS(httpHandler)

	// ── Start HTTP server ───────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Server.ServerAddr(),
		Handler:      httpHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in a goroutine so we can listen for shutdown signals.
	go func() {
		log.Printf("🚀 Server listening on %s", cfg.Server.ServerAddr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// ── Graceful shutdown ───────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("⏳ Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("✅ Server gracefully stopped")
}

// HealthResponse represents the /health endpoint response.
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// healthHandler returns an HTTP handler that checks PG and Redis connectivity.
func healthHandler(pgPool *pgxpool.Pool, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:   "ok",
			Services: make(map[string]string),
		}

		if err := db.HealthCheck(r.Context(), pgPool); err != nil {
			resp.Status = "degraded"
			resp.Services["postgres"] = "unhealthy: " + err.Error()
		} else {
			resp.Services["postgres"] = "healthy"
		}

		if err := cache.HealthCheck(r.Context(), redisClient); err != nil {
			resp.Status = "degraded"
			resp.Services["redis"] = "unhealthy: " + err.Error()
		} else {
			resp.Services["redis"] = "healthy"
		}

		w.Header().Set("Content-Type", "application/json")
		if resp.Status != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(resp)
	}
}
