package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mitomaniaco/escola-tia-sol/internal/auth"
	"github.com/mitomaniaco/escola-tia-sol/internal/config"
	"github.com/mitomaniaco/escola-tia-sol/internal/db"
	"github.com/mitomaniaco/escola-tia-sol/internal/diario"
	"github.com/mitomaniaco/escola-tia-sol/internal/escola"
	"github.com/mitomaniaco/escola-tia-sol/internal/financeiro"
	internalhttp "github.com/mitomaniaco/escola-tia-sol/internal/http"
	"github.com/mitomaniaco/escola-tia-sol/internal/portal"
	"github.com/mitomaniaco/escola-tia-sol/internal/repo"
	"github.com/mitomaniaco/escola-tia-sol/internal/service"
	"github.com/mitomaniaco/escola-tia-sol/internal/storage"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api encerrada com erro")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer pool.Close()

	migrator, err := db.NewMigrator(pool, cfg.MigrationsDir)
	if err != nil {
		return fmt.Errorf("migrator: %w", err)
	}
	if err := migrator.Up(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	if err := migrator.Close(); err != nil {
		return fmt.Errorf("migrator close: %w", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis parse: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	uploader, err := buildUploader(cfg.Storage)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	repository := repo.New(pool)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)
	roleResolver := service.NewRoleResolver(repository, cfg.BootstrapAdmin)
	authService := service.NewAuthService(repository, roleResolver, redisClient, jwtManager, cfg.JWTRefreshTTL)

	escolaService := escola.NewSecretariaService(escola.NewRepository(pool), redisClient)
	financeService := financeiro.NewFinanceService(financeiro.NewRepository(pool), redisClient)
	diarioService := diario.NewDiarioService(diario.NewRepository(pool), uploader)
	portalService := portal.NewPortalService(portal.NewRepository(pool))

	handler := internalhttp.NewRouter(internalhttp.Deps{
		Config:     cfg,
		Auth:       authService,
		Escola:     escola.NewHandler(escolaService),
		Financeiro: financeiro.NewHandler(financeService),
		Diario:     diario.NewHandler(diarioService),
		Portal:     portal.NewHandler(portalService),
		Pool:       pool,
		Redis:      redisClient,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("API ouvindo em :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("encerrando...")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func buildUploader(cfg config.StorageConfig) (storage.Uploader, error) {
	switch cfg.Provider {
	case "s3":
		return storage.NewS3Uploader(storage.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
	case "", "noop":
		log.Warn().Msg("storage noop ativo: upload de fotos desabilitado")
		return storage.NoopUploader{}, nil
	default:
		return nil, fmt.Errorf("provider desconhecido: %s", cfg.Provider)
	}
}
