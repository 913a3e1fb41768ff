package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"imageforge/internal/adapter/repo"
	"imageforge/internal/blobstore"
	"imageforge/internal/genclient"
	"imageforge/internal/http/handlers"
	"imageforge/internal/http/httpapi"
	"imageforge/internal/infra"
	"imageforge/internal/pipeline"
	"imageforge/internal/reconcile"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)
	jobs := repo.NewJobRepository(runner)

	signer := blobstore.NewURLSigner(cfg.URLSigningKey, cfg.StorageBaseURL, cfg.URLTTL)
	store, err := blobstore.NewFileStore(cfg.StoragePath, signer)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure blob store")
	}

	gen := genclient.NewClient(genclient.Options{
		APIKey:     cfg.GenAPIKey,
		BaseURL:    cfg.GenBaseURL,
		Model:      cfg.GenModel,
		HTTPClient: &http.Client{Timeout: cfg.GenTimeout},
		Logger:     &logger,
	})

	pipe := pipeline.New(jobs, store, gen, logger, cfg.OutputBucket, cfg.ClaimStaleAfter)

	app := &handlers.App{
		Jobs:                   jobs,
		Pipe:                   pipe,
		Reconciler:             reconcile.New(jobs, store, logger),
		Logger:                 logger,
		Static:                 store,
		PropagateTriggerErrors: cfg.PropagateTriggerErrors,
	}

	router := httpapi.NewRouter(app, logger)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
