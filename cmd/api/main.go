package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gbguki/modelcutAI/internal/http/handlers"
	"github.com/gbguki/modelcutAI/internal/http/httpapi"
	"github.com/gbguki/modelcutAI/internal/identity"
	"github.com/gbguki/modelcutAI/internal/imagehost"
	"github.com/gbguki/modelcutAI/internal/infra"
	"github.com/gbguki/modelcutAI/internal/infra/geoip"
	"github.com/gbguki/modelcutAI/internal/middleware"
	"github.com/gbguki/modelcutAI/internal/providers/fashion"
	"github.com/gbguki/modelcutAI/internal/store"
	"github.com/gbguki/modelcutAI/internal/workspace"
)

func main() {
	// Load .env (optional)
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	runner := infra.NewSQLRunner(dbpool, logger)
	gateway := store.NewProjectStore(runner, logger)
	if err := gateway.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure schema")
	}

	host := newImageHost(ctx, cfg, &logger)

	generator, err := fashion.NewGeminiClient(fashion.Options{
		APIKey:  cfg.GeminiAPIKey,
		BaseURL: cfg.GeminiBaseURL,
		Model:   cfg.GeminiModel,
		Logger:  &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build gemini client")
	}

	profile, err := identity.NewStore(cfg.DataPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open identity store")
	}

	control := workspace.NewController(
		workspace.NewSerializer(workspace.NewExternalizer(host)),
		gateway,
		generator,
		workspace.NewHTTPFetcher(nil),
		profile.UserName(),
		logger,
	)

	// A failed startup listing leaves the catalog empty rather than blocking.
	loadCtx, cancelLoad := context.WithTimeout(ctx, 15*time.Second)
	if _, err := control.RefreshCatalog(loadCtx); err != nil {
		logger.Warn().Err(err).Msg("startup catalog load failed; starting with an empty catalog")
	}
	cancelLoad()

	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip database unavailable; locale falls back to headers")
	} else if resolver != nil {
		lookup = resolver.CountryCode
	}

	app := handlers.NewApp(cfg, logger, control, profile)
	router := httpapi.NewRouter(app, lookup)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on %s", server.Addr())
		if err := server.Start(); err != nil {
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

func newImageHost(ctx context.Context, cfg *infra.Config, logger *infra.Logger) imagehost.Host {
	if cfg.ImageHost == "minio" {
		minioHost, err := imagehost.NewMinIOHost(imagehost.MinIOOptions{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
			PublicURL: cfg.MinIOPublicURL,
			Logger:    logger,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect image host")
		}
		if err := minioHost.EnsureBucket(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to ensure image bucket")
		}
		return minioHost
	}

	imgbb, err := imagehost.NewImgBBClient(imagehost.ImgBBOptions{
		APIKey:  cfg.ImgBBAPIKey,
		BaseURL: cfg.ImgBBBaseURL,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build image host client")
	}
	if !imgbb.HasCredentials() {
		logger.Warn().Msg("IMGBB_API_KEY is empty; saves will fail until it is set")
	}
	return imgbb
}
