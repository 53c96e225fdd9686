package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/tournament-ladder/brackets"
	"github.com/Dosada05/tournament-ladder/cache"
	"github.com/Dosada05/tournament-ladder/config"
	"github.com/Dosada05/tournament-ladder/db"
	"github.com/Dosada05/tournament-ladder/handlers"
	"github.com/Dosada05/tournament-ladder/repositories"
	api "github.com/Dosada05/tournament-ladder/routes"
	"github.com/Dosada05/tournament-ladder/services"
	"github.com/Dosada05/tournament-ladder/storage"
	"github.com/go-co-op/gocron/v2"
)

const codePurgeInterval = time.Minute

type stores struct {
	tournaments repositories.TournamentRepository
	matches     repositories.MatchRepository
	players     repositories.PlayerRepository
	close       func()
}

// @title Tournament Ladder API
// @version 1.0
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("application failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("application exited")
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("store", cfg.StoreDriver))

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	codes, closeCodes, err := openCodeStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCodes()

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	if mem, ok := codes.(*cache.MemoryCodeStore); ok {
		_, err := scheduler.NewJob(
			gocron.DurationJob(codePurgeInterval),
			gocron.NewTask(func() {
				if n := mem.PurgeExpired(); n > 0 {
					logger.Info("expired verification codes purged", slog.Int("count", n))
				}
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to schedule code purge: %w", err)
		}
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			logger.Error("failed to stop scheduler", slog.Any("error", err))
		}
	}()

	// Архив сетки в Cloudflare R2 включается только при полной конфигурации
	var uploader storage.FileUploader
	if cfg.R2.Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(ctx, cfg.R2)
		if err != nil {
			return fmt.Errorf("failed to initialize Cloudflare R2 uploader: %w", err)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	}

	// Инициализация WebSocket Hub
	wsHub := brackets.NewHub(logger)
	go wsHub.Run(ctx)

	seed := uint64(time.Now().UnixNano())
	if cfg.BracketSeed != nil {
		seed = uint64(*cfg.BracketSeed)
	}
	generator := brackets.NewSingleEliminationGenerator(rand.New(rand.NewPCG(seed, seed>>1|1)))

	var mailer services.VerificationMailer = services.LogMailer{Logger: logger}
	if cfg.SMTP.Enabled() {
		mailer = services.NewEmailService(cfg.SMTP)
	}

	// Инициализация сервисов
	locks := services.NewTournamentLocks()
	authService := services.NewAuthService(st.players, codes, mailer, services.AuthConfig{
		JWTSecret: cfg.JWTSecretKey,
		CodeTTL:   cfg.OTPTTL,
	}, logger)
	tournamentService := services.NewTournamentService(st.tournaments, st.matches, st.players, locks, logger)
	bracketService := services.NewBracketService(st.tournaments, st.matches, st.players, generator, locks, wsHub, uploader, logger)
	matchService := services.NewMatchService(st.matches, st.tournaments, locks, wsHub, logger)
	ratingService := services.NewRatingService(st.matches, st.tournaments, st.players, locks, wsHub, logger)
	playerService := services.NewPlayerService(st.players, logger)

	if cfg.Admin.Email != "" {
		if _, err := authService.EnsureAdmin(ctx, services.RegisterInput{
			Name:     cfg.Admin.Name,
			Email:    cfg.Admin.Email,
			Password: cfg.Admin.Password,
		}); err != nil {
			return fmt.Errorf("failed to ensure admin account: %w", err)
		}
	}

	router := api.SetupRoutes(api.Handlers{
		Auth:       handlers.NewAuthHandler(authService),
		Tournament: handlers.NewTournamentHandler(tournamentService, bracketService),
		Match:      handlers.NewMatchHandler(matchService, ratingService),
		Player:     handlers.NewPlayerHandler(playerService),
		WebSocket:  handlers.NewWebSocketHandler(wsHub, tournamentService, cfg.CORSAllowedOrigins, logger),
	}, api.Options{
		JWTSecret:      cfg.JWTSecretKey,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
	if err := server.Shutdown(shutdownCtx); err != nil {
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("failed to force close server", slog.Any("error", closeErr))
		}
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("server shutdown complete")
	return nil
}

func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("using in-memory store, data is lost on restart")
		return &stores{
			tournaments: repositories.NewMemoryTournamentRepository(),
			matches:     repositories.NewMemoryMatchRepository(),
			players:     repositories.NewMemoryPlayerRepository(),
			close:       func() {},
		}, nil
	}

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Migrate(ctx, dbConn); err != nil {
		dbConn.Close()
		return nil, err
	}
	logger.Info("database connection established")

	return &stores{
		tournaments: repositories.NewPostgresTournamentRepository(dbConn),
		matches:     repositories.NewPostgresMatchRepository(dbConn),
		players:     repositories.NewPostgresPlayerRepository(dbConn),
		close: func() {
			if err := dbConn.Close(); err != nil {
				logger.Error("failed to close database connection", slog.Any("error", err))
			} else {
				logger.Info("database connection closed")
			}
		},
	}, nil
}

func openCodeStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (cache.CodeStore, func(), error) {
	if cfg.RedisURL == "" {
		return cache.NewMemoryCodeStore(time.Now), func() {}, nil
	}
	store, err := cache.NewRedisCodeStore(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info("redis code store connected")
	return store, func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close redis client", slog.Any("error", err))
		}
	}, nil
}
