package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/quote-builder/internal/application/ports"
	"github.com/jhoicas/quote-builder/internal/application/quoting"
	"github.com/jhoicas/quote-builder/internal/domain/repository"
	infraai "github.com/jhoicas/quote-builder/internal/infrastructure/ai"
	"github.com/jhoicas/quote-builder/internal/infrastructure/export"
	"github.com/jhoicas/quote-builder/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/quote-builder/internal/interfaces/http"
	"github.com/jhoicas/quote-builder/pkg/config"
	"github.com/jhoicas/quote-builder/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("load configuration: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("ai_provider", cfg.AI.Provider).
		Msg("starting application")

	ctx := context.Background()

	// Saved quotes are optional: without a database the editor still works.
	var quoteRepo repository.QuoteRepository
	if cfg.DB.Enabled() {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Error().Err(err).Msg("PostgreSQL connection; saved quotes disabled")
		} else {
			defer pool.Close()
			if err := postgres.Migrate(ctx, pool); err != nil {
				log.Error().Err(err).Msg("apply schema; saved quotes disabled")
			} else {
				quoteRepo = postgres.NewQuoteRepository(pool, postgres.NewTxRunner(pool))
			}
		}
	} else {
		log.Warn().Msg("no database configured; saved quotes disabled")
	}

	store := quoting.NewSessionStore()
	quoteUC := quoting.NewQuoteUseCase(store, quoteRepo, export.NewXLSXQuoteExporter(cfg.App.Company), quoting.QuoteConfig{
		DefaultMargin: cfg.Quote.DefaultMargin,
		ValidityDays:  cfg.Quote.ValidityDays,
		Branch:        cfg.Quote.Branch,
	}, log)
	assemblyUC := quoting.NewAssemblyUseCase(store, newExtractor(cfg.AI, log), quoting.AssemblyConfig{
		Pause:       cfg.Quote.ExtractionPause,
		CallTimeout: cfg.AI.Timeout,
	}, log)

	// Extraction requests hold the connection for as long as the model takes.
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.HTTP.BodyLimit,
		ReadTimeout:  time.Second * 30,
		WriteTimeout: cfg.AI.Timeout*2 + time.Minute,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Quote Builder API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		QuoteUC:    quoteUC,
		AssemblyUC: assemblyUC,
		Log:        log,
		AppName:    cfg.App.Name,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("HTTP server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutdown signal received, closing server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}

	log.Info().Msg("application stopped")
}

// newExtractor picks the configured provider. A missing key leaves extraction disabled.
func newExtractor(cfg config.AIConfig, log *logger.Logger) ports.Extractor {
	switch cfg.Provider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			break
		}
		return infraai.NewGeminiExtractor(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.Timeout)
	default:
		if cfg.AnthropicAPIKey == "" {
			break
		}
		return infraai.NewAnthropicExtractor(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.Timeout)
	}
	log.Warn().Str("provider", cfg.Provider).Msg("no API key configured; extraction disabled")
	return nil
}
