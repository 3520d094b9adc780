// Command notify performs one notification run against the configured database and
// mail transport, or classifies a due date.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fastygo/studytracker/domain"
	"github.com/fastygo/studytracker/internal/app"
	"github.com/fastygo/studytracker/internal/config"
	pgInfra "github.com/fastygo/studytracker/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/studytracker/internal/infrastructure/redis"
	"github.com/fastygo/studytracker/pkg/logger"
	"github.com/fastygo/studytracker/repository"
	redisRepo "github.com/fastygo/studytracker/repository/redis"
	"github.com/fastygo/studytracker/usecase/notification"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Output:   os.Stderr,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	location, _ := cfg.Notify.Location()
	root := newRootCmd(storeRunner(cfg, zapLogger), notification.SystemClock{Location: location})
	if err := root.ExecuteContext(ctx); err != nil {
		zapLogger.Error("notify failed", zap.Error(err))
		os.Exit(1)
	}
}

// storeRunner opens PostgreSQL and, when reachable, Redis for run history.
func storeRunner(cfg *config.Config, zapLogger *zap.Logger) openRunner {
	return func(ctx context.Context) (runner, func(), error) {
		runCtx, cancel := context.WithTimeout(ctx, cfg.Notify.RunTimeout)

		pool, err := pgInfra.NewPool(runCtx, cfg.Database, zapLogger)
		if err != nil {
			cancel()
			return nil, nil, domain.StoreUnavailable(err)
		}
		release := func() {
			pgInfra.Close(pool, zapLogger)
			cancel()
		}

		var history repository.RunSummaryRepository
		if client, err := redisInfra.NewClient(runCtx, cfg.Redis, zapLogger); err != nil {
			zapLogger.Warn("run history disabled", zap.Error(err))
		} else {
			history = redisRepo.NewRunSummaryRepository(client, 0)
			closePool := release
			release = func() {
				redisInfra.Close(client, zapLogger)
				closePool()
			}
		}

		r, err := app.NewRunner(cfg, pool, history, zapLogger)
		if err != nil {
			release()
			return nil, nil, err
		}
		return r, release, nil
	}
}
