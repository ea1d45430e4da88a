package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/m04kA/SMC-SchedulingService/internal/config"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/lock"
	bookingRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	scheduleRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/schedule"
	slotRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/slot"
	settingsRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/slotsettings"
	workerRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/worker"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/catalogservice"
	"github.com/m04kA/SMC-SchedulingService/internal/jobs"
	bookingsService "github.com/m04kA/SMC-SchedulingService/internal/service/bookings"
	schedulesService "github.com/m04kA/SMC-SchedulingService/internal/service/schedules"
	slotsService "github.com/m04kA/SMC-SchedulingService/internal/service/slots"
	slotSettingsService "github.com/m04kA/SMC-SchedulingService/internal/service/slotsettings"
	createBookingUC "github.com/m04kA/SMC-SchedulingService/internal/usecase/create_booking"
	generateSlotsUC "github.com/m04kA/SMC-SchedulingService/internal/usecase/generate_slots"
	getAvailableSlotsUC "github.com/m04kA/SMC-SchedulingService/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/metrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/txmanager"
)

func main() {
	configPath := "config.toml"
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}

	// Загружаем конфигурацию
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-SchedulingService...")
	log.Info("Configuration loaded from %s", configPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Инициализируем метрики (если включены), nil коллектор ничего не пишет
	var metricsCollector *metrics.Metrics
	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	err = db.PingContext(pingCtx)
	cancelPing()
	if err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	wrappedDB := dbmetrics.WrapWithDefault(db, metricsCollector, ctx.Done())
	txManager := txmanager.NewTransactionManager(wrappedDB, txmanager.WithMaxRetries(cfg.Database.TxMaxRetries))

	// Инициализируем репозитории
	scheduleRepository := scheduleRepo.NewRepository(wrappedDB)
	slotRepository := slotRepo.NewRepository(wrappedDB)
	bookingRepository := bookingRepo.NewRepository(wrappedDB)
	settingsRepository := settingsRepo.NewRepository(wrappedDB)
	workerRepository := workerRepo.NewRepository(wrappedDB)

	// Redis (опционально): блокировка генерации между репликами и кэш каталога
	var locker generateSlotsUC.Locker = lock.NewLocalLocker()
	catalogClient := catalogservice.NewClient(
		cfg.CatalogService.URL,
		time.Duration(cfg.CatalogService.Timeout)*time.Second,
		log,
	)
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("Failed to ping redis at %s: %v", cfg.Redis.Address, err)
		}
		locker = lock.NewRedisLocker(redisClient, log)
		if cfg.CatalogService.CacheTTL > 0 {
			catalogClient.UseRedisCache(redisClient, time.Duration(cfg.CatalogService.CacheTTL)*time.Second)
		}
		log.Info("Redis connected at %s, distributed generation lock enabled", cfg.Redis.Address)
	} else {
		log.Warn("Redis disabled, generation lock is process-local")
	}
	log.Info("Catalog client initialized (url=%s, timeout=%ds)", cfg.CatalogService.URL, cfg.CatalogService.Timeout)

	// Инициализируем сервисы и use cases
	settingsSvc := slotSettingsService.NewService(settingsRepository, slotSettingsService.Defaults{
		SlotDurationMinutes:     cfg.Generation.SlotDurationMinutes,
		HorizonDays:             cfg.Generation.HorizonDays,
		MinBookingNoticeMinutes: cfg.Generation.MinBookingNoticeMinutes,
	}, log)

	generateSlotsUseCase := generateSlotsUC.NewUseCase(
		scheduleRepository,
		slotRepository,
		workerRepository,
		settingsSvc,
		locker,
		cfg.Generation.LockTTLDuration(),
		txManager,
		metricsCollector,
		log,
	)

	var regenerator schedulesService.SlotRegenerator
	if cfg.Generation.RegenerateOnEdit {
		regenerator = generateSlotsUseCase
	}
	scheduleSvc := schedulesService.NewService(scheduleRepository, slotRepository, workerRepository, regenerator, txManager, log)
	slotSvc := slotsService.NewService(slotRepository, workerRepository, txManager, log)
	bookingSvc := bookingsService.NewService(bookingRepository, slotRepository, scheduleRepository, txManager, metricsCollector, log)

	createBookingUseCase := createBookingUC.NewUseCase(
		bookingRepository,
		slotRepository,
		settingsSvc,
		catalogClient,
		txManager,
		metricsCollector,
		log,
	)
	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(slotRepository, settingsSvc, catalogClient, log)

	// Настраиваем роутер
	router := newRouter(cfg, log, metricsCollector, routeHandlers{
		schedules:         scheduleSvc,
		slots:             slotSvc,
		slotSettings:      settingsSvc,
		bookings:          bookingSvc,
		createBooking:     createBookingUseCase,
		generateSlots:     generateSlotsUseCase,
		getAvailableSlots: getAvailableSlotsUseCase,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	// HTTP сервер
	g.Go(func() error {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	// Периодическая перегенерация слотов
	if cfg.Generation.JobEnabled {
		loc := time.UTC
		if cfg.Generation.CronTimeZone != "" {
			if loc, err = time.LoadLocation(cfg.Generation.CronTimeZone); err != nil {
				log.Fatal("Failed to load cron timezone %q: %v", cfg.Generation.CronTimeZone, err)
			}
		}

		job := jobs.NewRegenerationJob(scheduleRepository, generateSlotsUseCase, settingsSvc, log)
		scheduler, err := jobs.NewScheduler(job, cfg.Generation.Cron, loc, log)
		if err != nil {
			log.Fatal("Failed to create generation scheduler: %v", err)
		}
		g.Go(func() error {
			return scheduler.Run(gctx)
		})
		log.Info("Slot generation job scheduled: cron=%q, tz=%s", cfg.Generation.Cron, loc)
	}

	if err := g.Wait(); err != nil {
		log.Error("Service stopped with error: %v", err)
		return
	}
	log.Info("Server exited")
}
