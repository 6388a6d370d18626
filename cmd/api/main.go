package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/exam-api/internal/config"
	"github.com/yourusername/exam-api/internal/handler"
	"github.com/yourusername/exam-api/internal/logging"
	"github.com/yourusername/exam-api/internal/middleware"
	pgRepo "github.com/yourusername/exam-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/exam-api/internal/repository/redis"
	"github.com/yourusername/exam-api/internal/service"
	"github.com/yourusername/exam-api/internal/service/selection"
	"github.com/yourusername/exam-api/pkg/database"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("Failed to load config")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("Server stopped with error")
	}
	log.Info().Msg("Server exited properly")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), cfg.Database.LogLevel)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := database.MigrateDB(db, cfg.Server.MigrationsPath); err != nil {
		return err
	}

	redisClient, err := database.NewUniversalRedisClient(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	log.Info().Str("mode", cfg.Redis.Mode).Msg("Connected to Redis")

	// Репозитории
	itemRepo := pgRepo.NewItemRepo(db)
	attemptRepo := pgRepo.NewAttemptRepo(db)
	auditRepo := pgRepo.NewSelectionAuditRepo(db)
	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		return err
	}

	engine, catalogCache, err := buildEngine(cfg.Selection, itemRepo, attemptRepo, auditRepo, cacheRepo)
	if err != nil {
		return err
	}

	defaultAlgorithm, err := selection.ParseAlgorithm(cfg.Selection.DefaultAlgorithm)
	if err != nil {
		return err
	}

	// Сервисы
	attemptService := service.NewAttemptService(attemptRepo, itemRepo, engine, service.AttemptDefaults{
		Algorithm:         defaultAlgorithm,
		OverlapPercentage: cfg.Selection.DefaultOverlapPercentage,
	})
	var invalidator service.CatalogInvalidator
	if catalogCache != nil {
		invalidator = catalogCache
	}
	itemService := service.NewItemService(itemRepo, auditRepo, cacheRepo, invalidator)

	router := newRouter(cfg, attemptService, itemService, cacheRepo, sqlDB.PingContext)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	// Дожидаемся фоновой записи использования, пока БД и Redis ещё открыты
	if err := engine.Wait(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Usage recorder did not drain before shutdown")
	}
	return nil
}

// buildEngine собирает движок выборки. Кеш каталога возвращается отдельно
// для сброса после загрузки вопросов; nil, если кеш выключен.
func buildEngine(
	cfg config.SelectionConfig,
	items *pgRepo.ItemRepo,
	attempts *pgRepo.AttemptRepo,
	audits *pgRepo.SelectionAuditRepo,
	cache *redisRepo.CacheRepo,
) (*selection.Engine, *selection.CachedCatalogSource, error) {
	engineCfg := selection.DefaultConfig()
	engineCfg.HistoryAttempts = cfg.HistoryAttempts
	engineCfg.RecorderTimeout = cfg.RecorderTimeout()

	var catalog selection.CatalogSource = selection.CatalogSourceFunc(items.ListActiveByCategory)
	var catalogCache *selection.CachedCatalogSource
	if ttl := cfg.CatalogCacheTTL(); ttl > 0 {
		catalogCache = selection.NewCachedCatalogSource(catalog, cache, ttl)
		catalog = catalogCache
	}

	history := selection.NewBreakerHistorySource(
		selection.NewAttemptHistorySource(attempts),
		selection.BreakerSettings{
			ConsecutiveFailures: uint32(max(cfg.HistoryBreakerFailures, 0)),
			Timeout:             cfg.HistoryBreakerTimeout(),
		},
	)

	engine, err := selection.NewEngine(engineCfg, &selection.Dependencies{
		Catalog:  catalog,
		History:  history,
		Recorder: selection.NewStoreUsageRecorder(items, audits, cache),
	})
	if err != nil {
		return nil, nil, err
	}
	return engine, catalogCache, nil
}

func newRouter(
	cfg *config.Config,
	attempts handler.AttemptService,
	items handler.ItemService,
	cache *redisRepo.CacheRepo,
	pingDB func(context.Context) error,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	if err := router.SetTrustedProxies(nil); err != nil {
		log.Warn().Err(err).Msg("Failed to set trusted proxies")
	}
	router.Use(cors.New(corsConfig(cfg.Server.AllowedOrigins)))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := pingDB(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	limiter := middleware.NewRateLimiter(cache)
	attemptLimit := limiter.Limit(middleware.AttemptRateLimitConfig(cfg.RateLimit.AttemptsPerMinute))

	api := router.Group("/api", middleware.RequireRequester())
	handler.RegisterAttemptRoutes(api, handler.NewAttemptHandler(attempts), attemptLimit)

	admin := router.Group("/api/admin", middleware.RequireAdminToken(cfg.Admin.Token))
	handler.RegisterAdminRoutes(admin, handler.NewItemHandler(items))

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middleware.RequesterHeader, middleware.AdminTokenHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
