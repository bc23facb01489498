package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"masterlearn/internal/config"
	"masterlearn/internal/db"
	"masterlearn/internal/email"
	apihttp "masterlearn/internal/http"
	"masterlearn/internal/repository"
	"masterlearn/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	userRepo := repository.NewPgUserRepository(pool)
	courseRepo := repository.NewPgCourseRepository(pool)
	savedRepo := repository.NewPgSavedCourseRepository(pool)

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	} else {
		logger.Warn("smtp not configured, login otp emails will fail")
	}

	var (
		challenges service.ChallengeStore
		otpLimiter service.OTPRateLimiter
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory otp state", zap.Error(err))
		} else {
			challenges = service.NewRedisChallengeStore(redisClient, cfg.OTPTTL())
			otpLimiter = service.NewRedisOTPRateLimiter(redisClient, cfg.OTPRateLimitWindow(), cfg.OTPRateLimitMax)
		}
		cancel()
	}
	if challenges == nil {
		store := service.NewMemoryChallengeStore(cfg.OTPTTL())
		go store.Run(ctx, time.Minute)
		challenges = store
		limiter := service.NewOTPRateLimiter(cfg.OTPRateLimitWindow(), cfg.OTPRateLimitMax)
		go limiter.Run(ctx, time.Minute)
		otpLimiter = limiter
	}

	jwtSvc := service.NewJWTService(cfg.JWTSecret, cfg.JWTTTL())

	userSvc := service.NewUserService(logger, userRepo, challenges, emailSender, otpLimiter, jwtSvc, cfg.OTPTTL())
	courseSvc := service.NewCourseService(courseRepo)
	savedSvc := service.NewSavedCourseService(savedRepo)

	userHandler := apihttp.NewUserHandler(logger, userSvc, cfg.CookieName)
	courseHandler := apihttp.NewCourseHandler(logger, courseSvc, savedSvc)
	healthHandler := apihttp.NewHealthHandler(logger, pool)
	router := apihttp.NewRouter(
		logger,
		apihttp.RouterOptions{CORSOrigins: cfg.CORSOrigins, CookieName: cfg.CookieName},
		jwtSvc,
		userHandler,
		courseHandler,
		healthHandler,
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("server stopped")
}
