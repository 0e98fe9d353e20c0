package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	calculateRefundHandler "github.com/m04kA/SMC-TrekBookingService/internal/api/handlers/calculate_refund"
	cancelBookingHandler "github.com/m04kA/SMC-TrekBookingService/internal/api/handlers/cancel_booking"
	cancelParticipantHandler "github.com/m04kA/SMC-TrekBookingService/internal/api/handlers/cancel_participant"
	completePartialPaymentHandler "github.com/m04kA/SMC-TrekBookingService/internal/api/handlers/complete_partial_payment"
	createBookingHandler "github.com/m04kA/SMC-TrekBookingService/internal/api/handlers/create_booking"
	createCancellationRequestHandler "github.com/m04kA/SMC-TrekBookingService/internal/api/handlers/create_cancellation_request"
	getAdminBookingsHandler "github.com/m04kA/SMC-TrekBookingService/internal/api/handlers/get_admin_bookings"
	getBatchAvailabilityHandler "github.com/m04kA/SMC-TrekBookingService/internal/api/handlers/get_batch_availability"
	getBookingHandler "github.com/m04kA/SMC-TrekBookingService/internal/api/handlers/get_booking"
	getUserBookingsHandler "github.com/m04kA/SMC-TrekBookingService/internal/api/handlers/get_user_bookings"
	resolveCancellationRequestHandler "github.com/m04kA/SMC-TrekBookingService/internal/api/handlers/resolve_cancellation_request"
	restoreParticipantHandler "github.com/m04kA/SMC-TrekBookingService/internal/api/handlers/restore_participant"
	shiftBatchHandler "github.com/m04kA/SMC-TrekBookingService/internal/api/handlers/shift_batch"
	submitParticipantsHandler "github.com/m04kA/SMC-TrekBookingService/internal/api/handlers/submit_participants"
	updateStatusHandler "github.com/m04kA/SMC-TrekBookingService/internal/api/handlers/update_status"
	"github.com/m04kA/SMC-TrekBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-TrekBookingService/internal/app"
	"github.com/m04kA/SMC-TrekBookingService/internal/config"
	bookingRepo "github.com/m04kA/SMC-TrekBookingService/internal/infra/storage/booking"
	trekRepo "github.com/m04kA/SMC-TrekBookingService/internal/infra/storage/trek"
	invoiceServiceClient "github.com/m04kA/SMC-TrekBookingService/internal/integrations/invoiceservice"
	notifyServiceClient "github.com/m04kA/SMC-TrekBookingService/internal/integrations/notifyservice"
	paymentGatewayClient "github.com/m04kA/SMC-TrekBookingService/internal/integrations/paymentgateway"
	bookingsService "github.com/m04kA/SMC-TrekBookingService/internal/service/bookings"
	capacityService "github.com/m04kA/SMC-TrekBookingService/internal/service/capacity"
	partialPaymentService "github.com/m04kA/SMC-TrekBookingService/internal/service/partialpayment"
	createBookingUC "github.com/m04kA/SMC-TrekBookingService/internal/usecase/create_booking"
	getBatchAvailabilityUC "github.com/m04kA/SMC-TrekBookingService/internal/usecase/get_batch_availability"
	resolveCancellationRequestUC "github.com/m04kA/SMC-TrekBookingService/internal/usecase/resolve_cancellation_request"
	shiftBatchUC "github.com/m04kA/SMC-TrekBookingService/internal/usecase/shift_batch"
	submitCancellationRequestUC "github.com/m04kA/SMC-TrekBookingService/internal/usecase/submit_cancellation_request"
	"github.com/m04kA/SMC-TrekBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-TrekBookingService/pkg/logger"
	"github.com/m04kA/SMC-TrekBookingService/pkg/metrics"
	"github.com/m04kA/SMC-TrekBookingService/pkg/simpletxmanager"
	"github.com/m04kA/SMC-TrekBookingService/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
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

	log.Info("Starting SMC-TrekBookingService...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	var wrappedDB *dbmetrics.DB
	stopMetricsCh := make(chan struct{})

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
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Применяем миграции
	migrator, err := app.NewMigrator(db, cfg.Database.MigrationsPath)
	if err != nil {
		log.Fatal("Failed to initialize migrator: %v", err)
	}
	if err := migrator.Run(context.Background()); err != nil {
		log.Fatal("Failed to apply migrations: %v", err)
	}
	if version, err := migrator.Version(context.Background()); err == nil {
		log.Info("Database schema at version %d", version)
	}

	// Инициализируем интеграционных клиентов
	paymentClient := paymentGatewayClient.NewClient(
		cfg.PaymentGateway.URL,
		time.Duration(cfg.PaymentGateway.Timeout)*time.Second,
		log,
	)
	invoiceClient := invoiceServiceClient.NewClient(
		cfg.InvoiceService.URL,
		time.Duration(cfg.InvoiceService.Timeout)*time.Second,
		log,
	)
	notifyClient := notifyServiceClient.NewClient(
		cfg.NotifyService.URL,
		time.Duration(cfg.NotifyService.Timeout)*time.Second,
		log,
	)
	log.Info("Integration clients initialized (PaymentGateway=%s, InvoiceService=%s, NotifyService=%s)",
		cfg.PaymentGateway.URL, cfg.InvoiceService.URL, cfg.NotifyService.URL)

	// Инициализируем репозитории (с метриками или без)
	var (
		bookingRepository *bookingRepo.Repository
		trekRepository    *trekRepo.Repository
	)

	// Интерфейс для transaction manager (используется в сервисах и usecases)
	type TxManager interface {
		Do(ctx context.Context, fn func(ctx context.Context) error) error
		DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
		DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
	}
	var txMgr TxManager

	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")

		bookingRepository = bookingRepo.NewRepository(wrappedDB)
		trekRepository = trekRepo.NewRepository(wrappedDB)
		txMgr = txmanager.NewTransactionManager(wrappedDB)
	} else {
		bookingRepository = bookingRepo.NewRepository(db)
		trekRepository = trekRepo.NewRepository(db)
		txMgr = simpletxmanager.NewTransactionManager(db)
	}

	// Инициализируем сервисы
	capacitySvc := capacityService.NewService(
		bookingRepository,
		trekRepository,
		log,
	)
	bookingSvc := bookingsService.NewService(
		bookingRepository,
		trekRepository,
		capacitySvc,
		paymentClient,
		invoiceClient,
		txMgr,
		log,
	)
	partialPaymentSvc := partialPaymentService.NewService(
		bookingRepository,
		trekRepository,
		capacitySvc,
		notifyClient,
		txMgr,
		cfg.PartialPayment.ReminderWindowDays,
		log,
	)

	// Инициализируем use cases
	createBookingUseCase := createBookingUC.NewUseCase(
		bookingRepository,
		trekRepository,
		capacitySvc,
		txMgr,
		time.Duration(cfg.Booking.SessionTTLMinutes)*time.Minute,
		log,
	)
	getBatchAvailabilityUseCase := getBatchAvailabilityUC.NewUseCase(
		trekRepository,
		capacitySvc,
		log,
	)
	submitCancellationRequestUseCase := submitCancellationRequestUC.NewUseCase(
		bookingRepository,
		trekRepository,
		capacitySvc,
		txMgr,
		log,
	)
	shiftBatchUseCase := shiftBatchUC.NewUseCase(
		bookingRepository,
		trekRepository,
		capacitySvc,
		txMgr,
		log,
	)
	resolveCancellationRequestUseCase := resolveCancellationRequestUC.NewUseCase(
		bookingRepository,
		bookingSvc,
		shiftBatchUseCase,
		txMgr,
		log,
	)

	// Инициализируем handlers
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	getBatchAvailability := getBatchAvailabilityHandler.NewHandler(getBatchAvailabilityUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	getUserBookings := getUserBookingsHandler.NewHandler(bookingSvc, log)
	getAdminBookings := getAdminBookingsHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, log)
	calculateRefund := calculateRefundHandler.NewHandler(bookingSvc, log)
	submitParticipants := submitParticipantsHandler.NewHandler(bookingSvc, log)
	cancelParticipant := cancelParticipantHandler.NewHandler(bookingSvc, log)
	restoreParticipant := restoreParticipantHandler.NewHandler(bookingSvc, log)
	updateStatus := updateStatusHandler.NewHandler(bookingSvc, log)
	completePartialPayment := completePartialPaymentHandler.NewHandler(partialPaymentSvc, log)
	createCancellationRequest := createCancellationRequestHandler.NewHandler(submitCancellationRequestUseCase, log)
	resolveCancellationRequest := resolveCancellationRequestHandler.NewHandler(resolveCancellationRequestUseCase, log)
	shiftBatch := shiftBatchHandler.NewHandler(shiftBatchUseCase, log)

	// Запускаем фоновые задачи: напоминания о доплате и сверку занятости
	scheduler := app.NewScheduler(
		partialPaymentSvc,
		capacitySvc,
		trekRepository,
		time.Duration(cfg.PartialPayment.ReminderIntervalMinutes)*time.Minute,
		time.Duration(cfg.Booking.ReconcileIntervalMinutes)*time.Minute,
		cfg.Booking.ReconcileHorizonDays,
		log,
	)
	schedulerCtx, schedulerCancel := context.WithCancel(context.Background())
	defer schedulerCancel()
	scheduler.Start(schedulerCtx)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector, cfg.Metrics.ServiceName))
		log.Info("HTTP metrics middleware enabled")
	}

	// Metrics endpoint (публичный, без аутентификации)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Доступность батчей трека
	api.HandleFunc("/treks/{trekId}/availability",
		getBatchAvailability.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Бронирования ---
	// Создание бронирования
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)

	// История бронирований пользователя
	protected.HandleFunc("/bookings/my", getUserBookings.Handle).Methods(http.MethodGet)

	// Получение бронирования по ID
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)

	// Отмена бронирования
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)

	// Предварительный расчёт возврата
	protected.HandleFunc("/bookings/{bookingId}/calculate-refund", calculateRefund.Handle).Methods(http.MethodPost)

	// Подача анкет участников
	protected.HandleFunc("/bookings/{bookingId}/participants", submitParticipants.Handle).Methods(http.MethodPut)

	// Отмена и восстановление отдельного участника
	protected.HandleFunc("/bookings/{bookingId}/participants/{participantId}/cancel",
		cancelParticipant.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/participants/{participantId}/restore",
		restoreParticipant.Handle).Methods(http.MethodPatch)

	// Заявка на отмену или перенос
	protected.HandleFunc("/bookings/{bookingId}/cancellation-request",
		createCancellationRequest.Handle).Methods(http.MethodPost)

	// ============================================================
	// ADMIN ROUTES (требуют X-User-Role: admin)
	// ============================================================

	admin := protected.PathPrefix("").Subrouter()
	admin.Use(middleware.AdminOnly)

	// Список бронирований с фильтрами
	admin.HandleFunc("/admin/bookings", getAdminBookings.Handle).Methods(http.MethodGet)

	// Смена статуса бронирования
	admin.HandleFunc("/bookings/{bookingId}/status", updateStatus.Handle).Methods(http.MethodPatch)

	// Решение по заявке на отмену или перенос
	admin.HandleFunc("/bookings/{bookingId}/cancellation-request",
		resolveCancellationRequest.Handle).Methods(http.MethodPatch)

	// Перенос бронирования на другой батч
	admin.HandleFunc("/bookings/{bookingId}/shift-batch", shiftBatch.Handle).Methods(http.MethodPatch)

	// Закрытие остатка частичной оплаты
	admin.HandleFunc("/bookings/{bookingId}/partial-payment/complete",
		completePartialPayment.Handle).Methods(http.MethodPatch)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем фоновые задачи
	scheduler.Stop()
	schedulerCancel()

	// Останавливаем сбор метрик connection pool
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
