package app

import (
	"context"
	"time"

	"github.com/m04kA/SMC-TrekBookingService/internal/domain"
)

// ReminderService рассылает напоминания о доплате по частичным бронированиям
type ReminderService interface {
	ProcessDueReminders(ctx context.Context) (int, error)
}

// CapacityService пересчитывает кэшированные счётчики занятости батчей
type CapacityService interface {
	Reconcile(ctx context.Context, trekID, batchID int64) (int, error)
}

// TrekRepository доступ к батчам для фоновой сверки
type TrekRepository interface {
	ListUpcomingBatches(ctx context.Context, from, to time.Time) ([]*domain.Batch, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Scheduler управляет фоновыми задачами сервиса: рассылкой напоминаний
// о доплате и периодической сверкой счётчиков занятости батчей
type Scheduler struct {
	reminders         ReminderService
	capacity          CapacityService
	trekRepo          TrekRepository
	reminderInterval  time.Duration
	reconcileInterval time.Duration
	reconcileHorizon  time.Duration
	logger            Logger
	stopChan          chan struct{}
}

// NewScheduler создаёт новый планировщик фоновых задач
func NewScheduler(
	reminders ReminderService,
	capacity CapacityService,
	trekRepo TrekRepository,
	reminderInterval time.Duration,
	reconcileInterval time.Duration,
	reconcileHorizonDays int,
	logger Logger,
) *Scheduler {
	if reminderInterval <= 0 {
		reminderInterval = time.Hour
	}
	if reconcileInterval <= 0 {
		reconcileInterval = time.Hour
	}
	if reconcileHorizonDays <= 0 {
		reconcileHorizonDays = domain.DefaultReconcileHorizonDays
	}
	return &Scheduler{
		reminders:         reminders,
		capacity:          capacity,
		trekRepo:          trekRepo,
		reminderInterval:  reminderInterval,
		reconcileInterval: reconcileInterval,
		reconcileHorizon:  time.Duration(reconcileHorizonDays) * 24 * time.Hour,
		logger:            logger,
		stopChan:          make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Scheduler: starting background tasks (reminders every %s, reconcile every %s)",
		s.reminderInterval, s.reconcileInterval)

	go s.runReminderTask(ctx)
	go s.runReconcileTask(ctx)
}

// Stop останавливает фоновые задачи
func (s *Scheduler) Stop() {
	s.logger.Info("Scheduler: stopping background tasks")
	close(s.stopChan)
}

func (s *Scheduler) runReminderTask(ctx context.Context) {
	// Первый прогон сразу при старте
	s.processReminders(ctx)

	ticker := time.NewTicker(s.reminderInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.processReminders(ctx)
		case <-s.stopChan:
			s.logger.Info("Scheduler: reminder task stopped")
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) runReconcileTask(ctx context.Context) {
	s.reconcileUpcomingBatches(ctx)

	ticker := time.NewTicker(s.reconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.reconcileUpcomingBatches(ctx)
		case <-s.stopChan:
			s.logger.Info("Scheduler: reconcile task stopped")
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) processReminders(ctx context.Context) {
	sent, err := s.reminders.ProcessDueReminders(ctx)
	if err != nil {
		s.logger.Error("Scheduler: reminder run failed: %v", err)
		return
	}
	if sent > 0 {
		s.logger.Info("Scheduler: sent %d payment reminders", sent)
	}
}

// reconcileUpcomingBatches сверяет кэшированный счётчик занятости каждого
// предстоящего батча с фактическим числом мест по бронированиям.
// Ошибка по одному батчу не прерывает сверку остальных.
func (s *Scheduler) reconcileUpcomingBatches(ctx context.Context) {
	now := time.Now()
	batches, err := s.trekRepo.ListUpcomingBatches(ctx, now, now.Add(s.reconcileHorizon))
	if err != nil {
		s.logger.Error("Scheduler: list upcoming batches failed: %v", err)
		return
	}

	repaired := 0
	for _, batch := range batches {
		used, err := s.capacity.Reconcile(ctx, batch.TrekID, batch.ID)
		if err != nil {
			s.logger.Error("Scheduler: reconcile batch id=%d failed: %v", batch.ID, err)
			continue
		}
		if used != batch.CurrentParticipants {
			s.logger.Warn("Scheduler: batch id=%d counter drift repaired (%d -> %d)",
				batch.ID, batch.CurrentParticipants, used)
			repaired++
		}
	}

	if repaired > 0 {
		s.logger.Info("Scheduler: reconciled %d of %d upcoming batches", repaired, len(batches))
	}
}
