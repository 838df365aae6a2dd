package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"careshift/internal/config"
	"careshift/internal/database"
	httpapi "careshift/internal/http"
	"careshift/internal/logger"
	"careshift/internal/repository"
	"careshift/internal/risk"
	"careshift/internal/service"
	"careshift/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "careshift")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	kv := store.NewRedisKV(redisClient)

	// 仓储：优先 Postgres；DB 未就绪时回退内存仓储支持联测
	var (
		db         *sql.DB
		shifts     repository.ShiftRepository
		caregivers repository.CaregiverStore
		recipients repository.RecipientStore
		logs       repository.RoutineLogStore
		tasks      repository.TaskStore
		summaries  repository.HandoverRepository
	)
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			log.Info("DB enabled for careshift")
		} else {
			log.Warn("DB enabled but connection failed, falling back to in-memory stores", zap.Error(err))
		}
	}
	if db != nil {
		shifts = repository.NewPostgresShiftRepository(db)
		caregivers = repository.NewPostgresCaregiverStore(db)
		recipients = repository.NewPostgresRecipientStore(db)
		logs = repository.NewPostgresRoutineLogStore(db)
		tasks = repository.NewPostgresTaskStore(db)
		summaries = repository.NewPostgresHandoverRepository(db)
	} else {
		memCaregivers := repository.NewMemoryCaregiverStore()
		memRecipients := repository.NewMemoryRecipientStore()
		if os.Getenv("SEED_DEV_DATA") != "false" {
			// Dev bootstrap: one caregiver and one recipient so the API is usable with plain `go run`.
			memCaregivers.AddCaregiver(devCaregiver())
			memRecipients.AddRecipient(devRecipient())
		}
		shifts = repository.NewMemoryShiftRepository()
		caregivers = memCaregivers
		recipients = memRecipients
		logs = repository.NewMemoryRoutineLogStore()
		tasks = repository.NewMemoryTaskStore()
		summaries = repository.NewMemoryHandoverRepository()
	}

	// 风险评估：配置了远端服务则优先远端（失败时降级规则引擎）
	var evaluator risk.Evaluator
	if cfg.Risk.ServiceURL != "" {
		evaluator = risk.NewRemoteEvaluator(cfg.Risk.ServiceURL, cfg.Risk.Timeout, log)
		log.Info("Remote risk evaluator enabled", zap.String("url", cfg.Risk.ServiceURL))
	} else {
		evaluator = risk.NewRuleEvaluator()
	}

	handoverSvc := service.NewHandoverService(shifts, logs, tasks, summaries, evaluator, kv, log)
	shiftSvc := service.NewShiftService(shifts, caregivers, recipients, handoverSvc, log)

	router := httpapi.NewRouter(log)
	router.RegisterShiftRoutes(httpapi.NewShiftHandler(shiftSvc, handoverSvc, log))

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case <-errCh:
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	_ = redisClient.Close()
	if db != nil {
		_ = db.Close()
	}
}
