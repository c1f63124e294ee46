package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/classtrack/attendance-service/internal/config"
	"github.com/classtrack/attendance-service/internal/domain"
	"github.com/classtrack/attendance-service/internal/health"
	"github.com/classtrack/attendance-service/internal/http/handler"
	"github.com/classtrack/attendance-service/internal/http/middleware"
	"github.com/classtrack/attendance-service/internal/http/router"
	"github.com/classtrack/attendance-service/internal/observability"
	"github.com/classtrack/attendance-service/internal/repository"
	"github.com/classtrack/attendance-service/internal/security"
	"github.com/classtrack/attendance-service/internal/service"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	DB            *gorm.DB
	Redis         *redis.Client
	Server        *http.Server
	Observability *observability.Runtime
	Users         *service.UserService
}

// Build constructs the full dependency graph: database, optional redis,
// services, handlers and the HTTP server. It does not start listening.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	runtime, err := observability.InitRuntime(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Course{},
		&domain.LectureSession{},
		&domain.AttendanceRecord{},
	); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	cipher, err := security.NewFieldCipher(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("init field cipher: %w", err)
	}
	indexer := security.NewIndexer(cfg.HMACKey)
	codec := service.NewTokenCodec(cipher)
	jwtMgr := security.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTAccessSecret, cfg.JWTRefreshSecret)

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	userSvc := service.NewUserService(userRepo, cipher, indexer, jwtMgr, service.LogMailer{}, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	sessionSvc := service.NewSessionService(sessionRepo, courseRepo, codec, cfg.SessionTTL)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, sessionRepo, courseRepo, userRepo, codec, cipher, cfg.ProximityRadiusMeters)
	courseSvc := service.NewCourseService(courseRepo)

	probes := health.NewProbeRunner(2 * time.Second)
	probes.Register("database", func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})

	var redisClient *redis.Client
	var authLimiter, scanLimiter func(http.Handler) http.Handler
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		probes.Register("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		// Shared windows across replicas; allow requests through if
		// redis is down so an outage cannot lock everyone out of scans.
		backend := middleware.NewRedisFixedWindowLimiter(redisClient, "ratelimit")
		authLimiter = middleware.NewDistributedRateLimiter(backend, cfg.AuthRateLimitRPM, time.Minute, middleware.FailClosed, "auth").Middleware()
		scanLimiter = middleware.NewDistributedRateLimiter(backend, cfg.ScanRateLimitRPM, time.Minute, middleware.FailOpen, "scan").Middleware()
	}

	h := router.NewRouter(router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(userSvc),
		UserHandler:       handler.NewUserHandler(userSvc),
		SessionHandler:    handler.NewSessionHandler(sessionSvc),
		AttendanceHandler: handler.NewAttendanceHandler(attendanceSvc),
		CourseHandler:     handler.NewCourseHandler(courseSvc),
		JWTManager:        jwtMgr,
		CORSOrigins:       cfg.CORSOrigins,
		AuthRateLimitRPM:  cfg.AuthRateLimitRPM,
		ScanRateLimitRPM:  cfg.ScanRateLimitRPM,
		APIRateLimitRPM:   cfg.APIRateLimitRPM,
		AuthRateLimiter:   authLimiter,
		ScanRateLimiter:   scanLimiter,
		Readiness:         probes,
		EnableOTelHTTP:    cfg.OTELMetricsEnabled,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &App{
		Config:        cfg,
		Logger:        logger,
		DB:            db,
		Redis:         redisClient,
		Server:        server,
		Observability: runtime,
		Users:         userSvc,
	}, nil
}

// SeedAdmin creates the bootstrap admin account if it does not exist.
func (a *App) SeedAdmin(ctx context.Context) error {
	if a.Config.SeedAdminPassword == "" {
		return errors.New("SEED_ADMIN_PASSWORD is required to seed the admin user")
	}
	_, err := a.Users.Create(ctx, service.CreateUserInput{
		Name:            "System Admin",
		Email:           a.Config.SeedAdminEmail,
		Password:        a.Config.SeedAdminPassword,
		ConfirmPassword: a.Config.SeedAdminPassword,
		Role:            domain.RoleAdmin,
	})
	if errors.Is(err, service.ErrEmailTaken) {
		a.Logger.Info("admin user already present", "email", a.Config.SeedAdminEmail)
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	a.Logger.Info("admin user created", "email", a.Config.SeedAdminEmail)
	return nil
}

// Shutdown stops the HTTP server and flushes observability state.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.Observability.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
