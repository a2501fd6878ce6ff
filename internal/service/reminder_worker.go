package service

import (
	"context"
	"sync"
	"time"

	"github.com/dafibh/prestamos/prestamos-backend/internal/domain"
	"github.com/dafibh/prestamos/prestamos-backend/internal/websocket"
	"github.com/rs/zerolog"
)

// ReminderWorker periodically scans active loans and announces the ones
// that are overdue or have an installment due soon
type ReminderWorker struct {
	loanRepo       domain.LoanRepository
	eventPublisher websocket.EventPublisher
	logger         zerolog.Logger
	interval       time.Duration
	now            func() time.Time
	stopCh         chan struct{}
	doneCh         chan struct{}
	mu             sync.Mutex
	running        bool
}

// ReminderWorkerConfig holds configuration for the reminder worker
type ReminderWorkerConfig struct {
	Interval time.Duration
}

// DefaultReminderWorkerConfig returns the default configuration
func DefaultReminderWorkerConfig() ReminderWorkerConfig {
	return ReminderWorkerConfig{Interval: time.Hour}
}

// ReminderScan is the outcome of one scan
type ReminderScan struct {
	AsOf    time.Time
	Overdue []*domain.Loan
	DueSoon []*domain.Loan
}

// NewReminderWorker creates a new reminder worker
func NewReminderWorker(
	loanRepo domain.LoanRepository,
	eventPublisher websocket.EventPublisher,
	logger zerolog.Logger,
	config ReminderWorkerConfig,
) *ReminderWorker {
	if config.Interval <= 0 {
		config.Interval = DefaultReminderWorkerConfig().Interval
	}
	if eventPublisher == nil {
		eventPublisher = &websocket.NoOpPublisher{}
	}

	return &ReminderWorker{
		loanRepo:       loanRepo,
		eventPublisher: eventPublisher,
		logger:         logger.With().Str("component", "reminder_worker").Logger(),
		interval:       config.Interval,
		now:            time.Now,
	}
}

// Start begins the background scan loop. A stopped worker can be started again.
func (w *ReminderWorker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	stop, done := w.stopCh, w.doneCh
	w.mu.Unlock()

	w.logger.Info().Dur("interval", w.interval).Msg("Starting reminder worker")
	go w.run(ctx, stop, done)
}

// Stop halts the worker and waits for the loop to exit.
// Only the first of several concurrent calls waits; the others return at once.
func (w *ReminderWorker) Stop() {
	w.mu.Lock()
	if w.stopCh == nil {
		w.mu.Unlock()
		return
	}
	stop, done := w.stopCh, w.doneCh
	w.stopCh = nil
	close(stop)
	w.mu.Unlock()

	w.logger.Info().Msg("Stopping reminder worker")
	<-done
	w.logger.Info().Msg("Reminder worker stopped")
}

// IsRunning returns whether the worker loop is active
func (w *ReminderWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *ReminderWorker) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	w.tick()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			w.tick()
		}
	}
}

func (w *ReminderWorker) tick() {
	scan, err := w.Scan(w.now())
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to scan loans for reminders")
		return
	}
	w.publish(scan)
}

// Scan classifies every active loan as of asOf
func (w *ReminderWorker) Scan(asOf time.Time) (*ReminderScan, error) {
	started := time.Now()
	loans, err := w.loanRepo.GetActive()
	if err != nil {
		return nil, err
	}

	scan := &ReminderScan{AsOf: domain.DateOf(asOf)}
	for _, loan := range loans {
		switch domain.ClassifyLoan(loan, asOf) {
		case domain.LoanStateOverdue:
			scan.Overdue = append(scan.Overdue, loan)
		case domain.LoanStateDueSoon:
			scan.DueSoon = append(scan.DueSoon, loan)
		}
	}

	w.logger.Info().
		Int("active", len(loans)).
		Int("overdue", len(scan.Overdue)).
		Int("due_soon", len(scan.DueSoon)).
		Dur("elapsed", time.Since(started)).
		Msg("Completed reminder scan")
	return scan, nil
}

func (w *ReminderWorker) publish(scan *ReminderScan) {
	if len(scan.Overdue) > 0 {
		w.eventPublisher.Publish(websocket.LoansOverdue(reminderPayload(scan.AsOf, scan.Overdue)))
	}
	if len(scan.DueSoon) > 0 {
		w.eventPublisher.Publish(websocket.LoansDueSoon(reminderPayload(scan.AsOf, scan.DueSoon)))
	}
}

func reminderPayload(asOf time.Time, loans []*domain.Loan) map[string]interface{} {
	ids := make([]string, len(loans))
	for i, l := range loans {
		ids[i] = l.ID.String()
	}
	return map[string]interface{}{
		"asOf":    domain.FormatDate(asOf),
		"count":   len(loans),
		"loanIds": ids,
	}
}
