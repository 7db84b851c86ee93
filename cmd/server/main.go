package main

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/pwstorage/pwstorage/internal/apperror"
	"github.com/pwstorage/pwstorage/internal/auth"
	"github.com/pwstorage/pwstorage/internal/cache"
	"github.com/pwstorage/pwstorage/internal/config"
	"github.com/pwstorage/pwstorage/internal/database"
	"github.com/pwstorage/pwstorage/internal/handler"
	"github.com/pwstorage/pwstorage/internal/logger"
	"github.com/pwstorage/pwstorage/internal/queue"
	"github.com/pwstorage/pwstorage/internal/router"
	"github.com/pwstorage/pwstorage/internal/security"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	// Redis when reachable, in-memory cache otherwise. A single-process
	// deployment works fine on the memory cache; Redis is required once the
	// API runs with more than one replica.
	var accessCache cache.AccessCache
	if rdb := config.NewRedisClient(); rdb != nil {
		accessCache = cache.NewRedisCache(rdb)
		log.Info().Msg("access cache: redis")
	} else {
		accessCache = cache.NewMemoryCache()
		log.Warn().Msg("access cache: redis unreachable, using in-memory cache")
	}

	codec := security.NewTokenCodec(cfg.JWTSecret)
	cipher := security.NewContentCipher(cfg.AppSecret)
	resolver := auth.NewResolver(codec, accessCache)

	var events auth.EventPublisher
	if cfg.RabbitURL != "" {
		events = queue.NewPublisher(cfg.RabbitURL, log)
		go queue.StartAuditConsumer(cfg.RabbitURL, log)
	}

	authSvc := auth.NewService(auth.NewSQLRunner(db), accessCache, codec,
		cfg.AccessTTLMin, events, log)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = apperror.EchoHandler(log)
	e.Use(echomw.Recover())

	router.Register(e, router.Handlers{
		Auth:         handler.NewAuthHandler(authSvc, resolver),
		Users:        handler.NewUserHandler(db, authSvc),
		Settings:     handler.NewSettingsHandler(db),
		AuthSessions: handler.NewAuthSessionHandler(db, authSvc),
		Folders:      handler.NewFolderHandler(db),
		Records:      handler.NewRecordHandler(db, cipher),
	}, resolver)

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
	if err := e.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
