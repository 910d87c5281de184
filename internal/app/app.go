package app

import (
	"context"
	"errors"
	"habit_coach_backend/internal/config"
	"habit_coach_backend/internal/controller"
	"habit_coach_backend/internal/repository"
	"habit_coach_backend/internal/service"
	"habit_coach_backend/internal/util"
	"habit_coach_backend/pkg/configwatcher"
	"habit_coach_backend/pkg/database"
	"habit_coach_backend/pkg/logger"
	"habit_coach_backend/pkg/monitoring"
	"habit_coach_backend/pkg/security"
	"habit_coach_backend/pkg/tracing"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client

	config          atomic.Pointer[config.Config]
	gates           *service.GateProvider
	limiter         *security.Limiter
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	progress *repository.ProgressRepository
	lesson   *repository.LessonRepository
	activity *repository.LessonActivityRepository
	quiz     *repository.QuizAttemptRepository
}

type services struct {
	storage  *service.StorageService
	progress *service.ProgressService
	quiz     *service.QuizService
	activity *service.LessonActivityService
}

type controllers struct {
	progress *controller.ProgressController
	lesson   *controller.LessonController
	quiz     *controller.QuizController
	health   *controller.HealthController
}

// Config 当前生效的配置
func (a *App) Config() *config.Config {
	return a.config.Load()
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		progress: repository.NewProgressRepository(db),
		lesson:   repository.NewLessonRepository(db),
		activity: repository.NewLessonActivityRepository(db),
		quiz:     repository.NewQuizAttemptRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	var locker service.Locker
	if rdb != nil {
		locker = service.NewRedisLocker(rdb, time.Duration(cfg.Redis.LockTTLSeconds)*time.Second)
	} else {
		logger.Log.Warn("Redis not configured, using in-process locks")
		locker = service.NewLocalLocker()
	}

	s := &services{}
	s.storage = service.NewStorageService(&cfg.Storage)
	s.progress = service.NewProgressService(repos.progress, repos.lesson, repos.activity, a.gates, locker)
	s.quiz = service.NewQuizService(repos.quiz, repos.progress, a.gates, locker)
	s.activity = service.NewLessonActivityService(repos.activity, repos.lesson, s.storage, cfg.Storage.MaxUploadMB)
	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		progress: controller.NewProgressController(s.progress),
		lesson:   controller.NewLessonController(s.progress, s.activity),
		quiz:     controller.NewQuizController(s.quiz),
		health:   controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// onConfigReload 解锁规则和 JWT 密钥可以热更新，其余配置需要重启
func (a *App) onConfigReload(cfg *config.Config) {
	if err := a.gates.Update(cfg.Program); err != nil {
		logger.Log.Error("Invalid program config, keeping previous rules", zap.Error(err))
		return
	}
	a.config.Store(cfg)
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
	logger.Log.Info("Program rules updated",
		zap.Int("maxPhaseDay", cfg.Program.MaxPhaseDay),
		zap.Ints("chapterBoundaries", cfg.Program.ChapterBoundaries),
	)
}

func NewApp(cfg *config.Config) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	gates, err := service.NewGateProvider(cfg.Program)
	if err != nil {
		return nil, err
	}

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		return nil, err
	}

	if cfg.Server.Mode != gin.ReleaseMode || cfg.ForceMigrate {
		if err := database.Migrate(db, cfg.Program); err != nil {
			return nil, err
		}
	}

	app := &App{DB: db, gates: gates}
	app.config.Store(cfg)
	if cfg.MigrateOnly {
		return app, nil
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		return nil, err
	}
	app.Redis = rdb

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			return nil, err
		}
		app.tracer = tp
	}

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router
	app.limiter = security.NewLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute, security.UserOrIP)

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app, nil
}

func (a *App) Run(configFile string) {
	cfg := a.Config()
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: a.Router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go a.limiter.Run(ctx)
	go func() {
		if err := configwatcher.WatchConfig(ctx, configFile, a.onConfigReload); err != nil {
			logger.Log.Warn("Config watcher disabled", zap.Error(err))
		}
	}()

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	<-ctx.Done()
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	a.Close(shutdownCtx)
	logger.Log.Info("Server exiting")
}

// Close 释放数据库、Redis 与追踪资源
func (a *App) Close(ctx context.Context) {
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
}
