package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/xingxinag/onebooknav/config"
	appmodel "github.com/xingxinag/onebooknav/internal/app/model"
	apprepository "github.com/xingxinag/onebooknav/internal/app/repository"
	appserver "github.com/xingxinag/onebooknav/internal/app/server"
	appservice "github.com/xingxinag/onebooknav/internal/app/service"
	"github.com/xingxinag/onebooknav/internal/infra/logger"
	infraNATS "github.com/xingxinag/onebooknav/internal/infra/nats"
	infraPostgres "github.com/xingxinag/onebooknav/internal/infra/postgres"
	infraPrometheus "github.com/xingxinag/onebooknav/internal/infra/prometheus"
	infraRedis "github.com/xingxinag/onebooknav/internal/infra/redis"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	isDev := os.Getenv("APP_ENV") != "production"
	log := logger.MustInit(logger.Config{
		Development: isDev,
		Level:       os.Getenv("LOG_LEVEL"),
	})
	defer func() { _ = logger.Sync() }()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log.Info("Configuration loaded successfully",
		zap.String("postgres_user", cfg.Postgres.User),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.String("postgres_db", cfg.Postgres.Database),
		zap.String("redis_host", cfg.Redis.Host),
		zap.Int("redis_port", cfg.Redis.Port),
		zap.String("nats_host", cfg.NATS.Host),
		zap.Int("nats_port", cfg.NATS.Port),
	)

	gormDB, err := infraPostgres.NewGorm(cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to open GORM connection", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()

	err = infraPostgres.AutoMigrate(ctx, gormDB,
		&appmodel.User{},
		&appmodel.Category{},
		&appmodel.Website{},
		&appmodel.Tag{},
		&appmodel.InvitationCode{},
		&appmodel.Setting{},
		&appmodel.LinkCheck{},
		&appmodel.ClickEvent{},
	)
	if err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer pool.Close()
	log.Info("Connected to Postgres successfully")

	redisClient, err := infraRedis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Connected to Redis successfully")

	natsConn, js, err := infraNATS.Connect(cfg.NATS)
	if err != nil {
		log.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer natsConn.Drain()
	log.Info("Connected to NATS successfully", zap.Bool("jetstream_ready", js != nil))

	if !isDev {
		promServer := infraPrometheus.NewServer(cfg.Prometheus)
		go func() {
			log.Info("Starting Prometheus metrics server",
				zap.Int("port", cfg.Prometheus.Port))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	} else {
		log.Info("Skipping Prometheus metrics server in development mode")
	}

	// Repositories
	userRepo := apprepository.NewUserRepository(gormDB)
	categoryRepo := apprepository.NewCategoryRepository(gormDB)
	websiteRepo := apprepository.NewWebsiteRepository(gormDB)
	tagRepo := apprepository.NewTagRepository(gormDB)
	invitationRepo := apprepository.NewInvitationRepository(gormDB)
	settingRepo := apprepository.NewSettingRepository(gormDB)
	linkCheckRepo := apprepository.NewLinkCheckRepository(gormDB)
	clickEventRepo := apprepository.NewClickEventRepository(gormDB)

	// Existence filter seeded from current identifiers.
	filter := appservice.NewExistenceFilter(100_000, 0.01)
	usernames, emails, err := userRepo.Identifiers(ctx)
	if err != nil {
		log.Fatal("Failed to load identifiers", zap.Error(err))
	}
	filter.Seed(usernames, emails)

	// Services
	settingsService := appservice.NewSettingsService(settingRepo, redisClient, log)
	if err := settingsService.Seed(ctx); err != nil {
		log.Fatal("Failed to seed settings", zap.Error(err))
	}

	publisher := appservice.NewClickPublisher(js)
	invitationService := appservice.NewInvitationService(invitationRepo, filter)
	categoryService := appservice.NewCategoryService(categoryRepo, websiteRepo)
	websiteService := appservice.NewWebsiteService(websiteRepo, categoryRepo, tagRepo, publisher, log)
	tagService := appservice.NewTagService(tagRepo)
	userService := appservice.NewUserService(userRepo, cfg.Auth.BcryptCost)
	statsService := appservice.NewStatsService(pool)

	tokenTTL := 24 * time.Hour
	if cfg.Auth.TokenTTL != "" {
		if parsed, err := time.ParseDuration(cfg.Auth.TokenTTL); err == nil {
			tokenTTL = parsed
		}
	}
	authService := appservice.NewAuthService(userRepo, invitationService, settingsService, filter, appservice.AuthConfig{
		Secret:     cfg.Auth.JWTSecret,
		TokenTTL:   tokenTTL,
		BcryptCost: cfg.Auth.BcryptCost,
	})

	checkTimeout := 10 * time.Second
	if cfg.LinkCheck.Timeout != "" {
		if parsed, err := time.ParseDuration(cfg.LinkCheck.Timeout); err == nil {
			checkTimeout = parsed
		}
	}
	checkService := appservice.NewLinkCheckService(websiteRepo, linkCheckRepo, &http.Client{Timeout: checkTimeout}, log)

	// Background workers
	consumer := appservice.NewClickConsumer(js, log, clickEventRepo)
	if err := consumer.Start(); err != nil {
		log.Fatal("Failed to start click consumer", zap.Error(err))
	}

	staleTTL := 5 * time.Minute
	if cfg.LinkCheck.StaleTTL != "" {
		if parsed, err := time.ParseDuration(cfg.LinkCheck.StaleTTL); err == nil {
			staleTTL = parsed
		}
	}
	reaper := appservice.NewCheckReaper(log, websiteRepo, staleTTL)
	reaper.Start()
	defer reaper.Stop()

	server := appserver.New(appserver.Dependencies{
		Logger:      log,
		Redis:       redisClient,
		Auth:        authService,
		Users:       userService,
		Websites:    websiteService,
		Categories:  categoryService,
		Tags:        tagService,
		Invitations: invitationService,
		Settings:    settingsService,
		Checks:      checkService,
		Stats:       statsService,
	})

	if err := server.Listen(cfg.Server.Addr()); err != nil {
		log.Fatal("Fiber server exited", zap.Error(err))
	}
}
