package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/insightdelivered/card-statement-categorizer/internal/api"
	"github.com/insightdelivered/card-statement-categorizer/internal/buildinfo"
	"github.com/insightdelivered/card-statement-categorizer/internal/categorizer"
	"github.com/insightdelivered/card-statement-categorizer/internal/config"
	"github.com/insightdelivered/card-statement-categorizer/internal/extractor"
	"github.com/insightdelivered/card-statement-categorizer/internal/logger"
	"github.com/insightdelivered/card-statement-categorizer/internal/payment"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log := logger.New(cfg.Server.LogLevel)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := buildApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			return serve(ctx, app, cfg.Server.Port, log)
		},
	}
}

// buildApp wires the categorizer, payments and extractor into the API.
func buildApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*fiber.App, error) {
	if cfg.Categorizer.Provider == config.ProviderOpenAI && cfg.Categorizer.OpenAIAPIKey == "" {
		log.Warn().Msg("OPENAI_API_KEY is not set; transactions will be left uncategorized")
	}
	if cfg.Payment.StripeSecretKey == "" {
		log.Warn().Msg("STRIPE_SECRET_KEY is not set; payment intents will fail")
	}

	enhancer, err := categorizer.NewEnhancer(ctx, cfg.Categorizer)
	if err != nil {
		return nil, fmt.Errorf("setting up categorizer: %w", err)
	}

	h := &api.Handler{
		Extract:     extractor.ExtractBytes,
		Categorizer: categorizer.NewService(enhancer, cfg.Categorizer, log),
		Payments:    payment.NewStripeCreator(cfg.Payment, log),
		Log:         log,
		Version:     buildinfo.Version,
	}
	return api.NewApp(h, cfg.BodyLimit()), nil
}

func serve(ctx context.Context, app *fiber.App, port string, log zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", port).Str("version", buildinfo.Version).Msg("listening")
		errCh <- app.Listen(":" + port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}
