package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/audit"
	"github.com/askdb-io/askdb-engine/pkg/config"
	"github.com/askdb-io/askdb-engine/pkg/database"
	"github.com/askdb-io/askdb-engine/pkg/executor"
	"github.com/askdb-io/askdb-engine/pkg/handlers"
	"github.com/askdb-io/askdb-engine/pkg/llm"
	"github.com/askdb-io/askdb-engine/pkg/logging"
	"github.com/askdb-io/askdb-engine/pkg/middleware"
	"github.com/askdb-io/askdb-engine/pkg/models"
	"github.com/askdb-io/askdb-engine/pkg/retry"
	"github.com/askdb-io/askdb-engine/pkg/schema"
	"github.com/askdb-io/askdb-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model),
		zap.Int("max_rows", cfg.Policy.MaxRows),
		zap.Int("max_retries", cfg.Policy.MaxRetries))

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.URL,
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to create connection pool", zap.Error(err))
	}
	defer db.Close()

	policy := models.NewPolicy(
		cfg.Policy.AllowedTables(),
		cfg.Policy.RestrictedTables(),
		cfg.Policy.ExcludedColumns(),
		cfg.Policy.MaxRows,
		cfg.Policy.SoftDeleteColumn,
		cfg.Policy.SoftDeletePredicates(),
	)

	catalog := schema.NewCatalog(schema.NewPostgresIntrospector(db.Pool), policy, logger)

	client, err := llm.NewClientFromConfig(&llm.BackendConfig{
		Provider: cfg.LLM.Provider,
		Endpoint: cfg.LLM.Endpoint,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		Timeout:  time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}
	generator := llm.NewGenerator(client, logger)

	auditRepo, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*audit.SQLiteRepository, error) {
		return audit.NewSQLiteRepository(ctx, cfg.Audit.DBPath)
	})
	if err != nil {
		logger.Fatal("Failed to open audit database", zap.Error(err))
	}
	defer func() { _ = auditRepo.Close() }()

	queryTimeout := time.Duration(cfg.Database.QueryTimeoutSeconds) * time.Second
	queryService := services.NewQueryService(
		policy,
		catalog,
		generator,
		executor.NewReadOnlyExecutor(db.Pool, queryTimeout, logger),
		auditRepo,
		audit.NewSecurityAuditor(logger),
		services.Options{
			MaxRetries:       cfg.Policy.MaxRetries,
			ResponseMaxWords: cfg.Policy.ResponseMaxWords,
			CurrencySymbol:   cfg.Policy.CurrencySymbol,
			SmallTalkEnabled: cfg.Filters.SmallTalkEnabled,
			ProfanityEnabled: cfg.Filters.ProfanityEnabled,
		},
		logger,
	)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewAskHandler(queryService, logger).RegisterRoutes(mux)
	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("starting askdb-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
