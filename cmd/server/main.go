package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/pprofhandler"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/studytracker/api/handler"
	"github.com/fastygo/studytracker/internal/app"
	"github.com/fastygo/studytracker/internal/config"
	"github.com/fastygo/studytracker/internal/infrastructure/buffer"
	"github.com/fastygo/studytracker/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/studytracker/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/studytracker/internal/infrastructure/redis"
	"github.com/fastygo/studytracker/internal/middleware"
	"github.com/fastygo/studytracker/internal/router"
	"github.com/fastygo/studytracker/internal/services"
	"github.com/fastygo/studytracker/internal/services/lifecycle"
	"github.com/fastygo/studytracker/pkg/httpcontext"
	"github.com/fastygo/studytracker/pkg/logger"
	"github.com/fastygo/studytracker/repository/postgres"
	redisRepo "github.com/fastygo/studytracker/repository/redis"
	authUC "github.com/fastygo/studytracker/usecase/auth"
	courseUC "github.com/fastygo/studytracker/usecase/course"
	"github.com/fastygo/studytracker/usecase/notification"
	profileUC "github.com/fastygo/studytracker/usecase/profile"
	taskUC "github.com/fastygo/studytracker/usecase/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	appCtx, cancel := manager.Listen(context.Background())
	defer cancel()

	if err := pgInfra.RunMigrations(appCtx, cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.RegisterCloser("postgres", func() { pgInfra.Close(pool, zapLogger) })

	redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis, zapLogger)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.RegisterCloser("redis", func() { redisInfra.Close(redisClient, zapLogger) })

	bufferStore, err := buffer.Open(cfg.Buffer.Path, cfg.Buffer.MaxSize)
	if err != nil {
		zapLogger.Fatal("failed to open buffer store", zap.Error(err))
	}
	manager.Register("buffer", func(ctx context.Context) error {
		return bufferStore.Close()
	})

	mon := monitor.New(monitor.PostgresProbe(pool), monitor.RedisProbe(redisClient), bufferStore, 10*time.Second, zapLogger)

	userRepo := postgres.NewUserRepository(pool)
	courseRepo := postgres.NewCourseRepository(pool)
	taskRepo := postgres.NewTaskRepository(pool)
	sessionRepo := redisRepo.NewSessionRepository(redisClient, cfg.JWT.SessionTTL)
	runRepo := redisRepo.NewRunSummaryRepository(redisClient, 0)

	bufferProcessor := services.NewBufferProcessor(
		bufferStore,
		mon,
		userRepo,
		courseRepo,
		taskRepo,
		zapLogger,
		services.ProcessorConfig{
			Interval:   cfg.Buffer.SyncInterval,
			BatchSize:  50,
			MaxRetries: cfg.Buffer.MaxRetry,
			Retention:  time.Duration(cfg.Buffer.RetentionHours) * time.Hour,
		},
	)
	mon.OnRecover(bufferProcessor.TriggerDrain)
	mon.Start()
	manager.RegisterCloser("monitor", mon.Stop)

	bufferProcessor.Start()
	manager.RegisterCloser("buffer_processor", func() {
		stopCtx, stop := context.WithTimeout(context.Background(), cfg.Context.ShutdownTimeout)
		defer stop()
		bufferProcessor.Stop(stopCtx)
	})

	bufferBridge := services.NewBufferBridge(bufferProcessor)

	runner, err := app.NewRunner(cfg, pool, runRepo, zapLogger)
	if err != nil {
		zapLogger.Fatal("notification runner setup failed", zap.Error(err))
	}
	if cfg.Notify.Enabled {
		startScheduler(appCtx, cfg, runner, manager, zapLogger)
	}

	location, _ := cfg.Notify.Location()
	clock := notification.SystemClock{Location: location}

	authUseCase := authUC.New(userRepo, sessionRepo, authUC.TokenConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.SessionTTL,
	}, zapLogger)
	profileUseCase := profileUC.New(userRepo, bufferBridge, zapLogger)
	courseUseCase := courseUC.New(courseRepo, bufferBridge, zapLogger)
	taskUseCase := taskUC.New(taskRepo, courseRepo, clock, bufferBridge, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:         apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger),
		Profile:      apiHandler.NewProfileHandler(profileUseCase, authUseCase, ctxAdapter, zapLogger),
		Course:       apiHandler.NewCourseHandler(courseUseCase, ctxAdapter, zapLogger),
		Task:         apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Notification: apiHandler.NewNotificationHandler(runner, runRepo, cfg.Notify.RunTimeout, ctxAdapter, zapLogger),
		Health:       apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, authUseCase, zapLogger)
	operatorMiddleware := middleware.OperatorAuth(cfg.Notify.OperatorToken, zapLogger)
	r := router.New(handlers, authMiddleware, operatorMiddleware)
	if cfg.HTTP.EnablePprof {
		r.GET("/debug/pprof/{profile:*}", pprofhandler.PprofHandler)
	}

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Error("server crashed", zap.Error(err))
			cancel()
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

func startScheduler(ctx context.Context, cfg *config.Config, runner services.NotificationRunner, manager *lifecycle.Manager, zapLogger *zap.Logger) {
	location, err := cfg.Notify.Location()
	if err != nil {
		zapLogger.Fatal("invalid notification timezone", zap.Error(err))
	}
	scheduler, err := services.NewNotificationScheduler(runner, zapLogger, services.SchedulerConfig{
		Schedule:   cfg.Notify.Schedule,
		Location:   location,
		RunTimeout: cfg.Notify.RunTimeout,
	})
	if err != nil {
		zapLogger.Fatal("notification scheduler setup failed", zap.Error(err))
	}
	scheduler.Start(ctx)
	manager.Register("notification_scheduler", func(stopCtx context.Context) error {
		scheduler.Stop(stopCtx)
		return nil
	})
}
