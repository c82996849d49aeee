package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/yuwei031/SubForge/config"
	appmodel "github.com/yuwei031/SubForge/internal/app/model"
	apprepository "github.com/yuwei031/SubForge/internal/app/repository"
	appserver "github.com/yuwei031/SubForge/internal/app/server"
	appservice "github.com/yuwei031/SubForge/internal/app/service"
	"github.com/yuwei031/SubForge/internal/converter"
	"github.com/yuwei031/SubForge/internal/infra/logger"
	infraNATS "github.com/yuwei031/SubForge/internal/infra/nats"
	infraPostgres "github.com/yuwei031/SubForge/internal/infra/postgres"
	infraPrometheus "github.com/yuwei031/SubForge/internal/infra/prometheus"
	infraRedis "github.com/yuwei031/SubForge/internal/infra/redis"
	"github.com/yuwei031/SubForge/internal/infra/storage"
	"go.uber.org/zap"
)

const filterRefreshInterval = 10 * time.Minute

func main() {
	ctx := context.Background()

	isDev := os.Getenv("APP_ENV") != "production"
	log := logger.MustInit(logger.Config{
		Development: isDev,
		Level:       os.Getenv("LOG_LEVEL"),
	})
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}
	if cfg.Auth.Secret == "" {
		log.Fatal("Auth secret is not configured, refusing to start")
	}

	log.Info("Configuration loaded successfully",
		zap.String("server_addr", cfg.Server.Addr),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.String("postgres_db", cfg.Postgres.Database),
		zap.String("redis_host", cfg.Redis.Host),
		zap.String("nats_host", cfg.NATS.Host),
		zap.String("storage_driver", cfg.Storage.Driver),
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

	if err := infraPostgres.AutoMigrate(ctx, gormDB,
		&appmodel.User{},
		&appmodel.SystemSetting{},
		&appmodel.Subscription{},
		&appmodel.BackendURL{},
		&appmodel.RemoteConfig{},
		&appmodel.GeneratedConfig{},
		&appmodel.ConversionEvent{},
	); err != nil {
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

	store, err := storage.New(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	metrics := infraPrometheus.NewMetrics()
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

	userRepo := apprepository.NewUserRepository(gormDB)
	settingRepo := apprepository.NewSettingRepository(gormDB)
	subscriptionRepo := apprepository.NewSubscriptionRepository(gormDB)
	backendRepo := apprepository.NewBackendURLRepository(gormDB)
	remoteConfigRepo := apprepository.NewRemoteConfigRepository(gormDB)
	configRepo := apprepository.NewGeneratedConfigRepository(gormDB)
	eventRepo := apprepository.NewConversionEventRepository(gormDB)

	publisher := appservice.NewConversionPublisher(js)
	consumer := appservice.NewConversionConsumer(js, log, eventRepo)
	if err := consumer.Start(); err != nil {
		log.Error("Failed to start conversion event consumer", zap.Error(err))
	}

	filter := appservice.NewIDFilter()
	refresher := appservice.NewFilterRefresher(log, configRepo, filter, filterRefreshInterval)
	refresher.Start()
	defer refresher.Stop()

	fetcher := converter.NewClient(
		time.Duration(cfg.Converter.TimeoutSeconds)*time.Second,
		cfg.Converter.UserAgent,
	)

	authService := appservice.NewAuthService(appservice.AuthDeps{
		Users:    userRepo,
		Settings: settingRepo,
		Redis:    redisClient,
		Secret:   []byte(cfg.Auth.Secret),
		TokenTTL: time.Duration(cfg.Auth.TokenTTLHours) * time.Hour,
	})

	generator := appservice.NewGeneratorService(appservice.GeneratorDeps{
		Logger:  log,
		Configs: configRepo,
		Store:   store,
		Fetcher: fetcher,
		Events:  publisher,
		Metrics: metrics,
		Filter:  filter,
	})

	server := appserver.New(appserver.Dependencies{
		Logger:        log,
		Postgres:      pool,
		Redis:         redisClient,
		NATS:          natsConn,
		JetStream:     js,
		Configs:       configRepo,
		Subscriptions: subscriptionRepo,
		Events:        eventRepo,
		Auth:          authService,
		Admin:         appservice.NewAdminService(userRepo, settingRepo),
		Generator:     generator,
		SubService:    appservice.NewSubscriptionService(subscriptionRepo),
		Backends:      appservice.NewBackendURLService(backendRepo),
		RemoteConfigs: appservice.NewRemoteConfigService(remoteConfigRepo),
		Store:         store,
		Filter:        filter,
		Metrics:       metrics,
	})

	if err := server.Listen(cfg.Server.Addr); err != nil {
		log.Fatal("Fiber server exited", zap.Error(err))
	}
}
