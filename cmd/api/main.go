package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"gearrent/internal/config"
	"gearrent/internal/db"
	"gearrent/internal/email"
	apihttp "gearrent/internal/http"
	"gearrent/internal/push"
	"gearrent/internal/repository"
	"gearrent/internal/scheduler"
	"gearrent/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	userRepo := repository.NewPgUserRepository(pool)
	otpRepo := repository.NewPgOTPRepository(pool)
	productRepo := repository.NewPgProductRepository(pool)
	deviceRepo := repository.NewPgDeviceRepository(pool)

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	pushSender := push.NewDisabledSender("push sender not configured")
	if cfg.FirebaseCredentialsFile != "" {
		sender, err := push.NewFCMSender(ctx, cfg.FirebaseCredentialsFile)
		if err != nil {
			logger.Warn("fcm sender init failed", zap.Error(err))
		} else {
			pushSender = sender
		}
	}

	var (
		otpLimiter  service.OTPRateLimiter
		tokenStore  service.RefreshTokenStore
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			otpLimiter = service.NewRedisOTPRateLimiter(redisClient, time.Minute, 1)
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
		}
		cancel()
	}

	jwtSvc := service.NewJWTServiceWithStore(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	otpSvc := service.NewOTPService(logger, otpRepo, deviceRepo, emailSender, pushSender, otpLimiter)
	authSvc := service.NewAuthService(logger, userRepo, otpSvc)
	quoteSvc := service.NewQuoteService(logger, productRepo)
	deviceSvc := service.NewDeviceService(logger, deviceRepo)

	cleaner := scheduler.NewCleaner(logger, otpRepo, deviceRepo)
	if err := cleaner.Start(cfg.CleanupCronSpec); err != nil {
		logger.Warn("cleanup scheduler start failed", zap.Error(err))
	} else {
		defer cleaner.Stop()
	}

	authHandler := apihttp.NewAuthHandler(logger, authSvc, jwtSvc)
	quoteHandler := apihttp.NewQuoteHandler(logger, quoteSvc)
	deviceHandler := apihttp.NewDeviceHandler(logger, deviceSvc)
	router := apihttp.NewRouter(logger, authHandler, quoteHandler, deviceHandler, jwtSvc)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
