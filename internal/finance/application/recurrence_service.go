package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sebuszqo/FinanceTracker/internal/finance/domain"
	"github.com/sebuszqo/FinanceTracker/internal/metrics"
)

// RecurrenceService turns due recurring templates into concrete transactions.
type RecurrenceService struct {
	repo    domain.TransactionRepository
	metrics *metrics.Collector
	now     func() time.Time
}

func NewRecurrenceService(repo domain.TransactionRepository, collector *metrics.Collector) *RecurrenceService {
	return &RecurrenceService{repo: repo, metrics: collector, now: time.Now}
}

// Run materializes every occurrence due on or before today. A failing template
// does not stop the others; their errors are joined.
func (s *RecurrenceService) Run(ctx context.Context, today domain.Date) (int, error) {
	templates, err := s.repo.FindRecurringTemplates(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("could not load recurring templates: %w", err)
	}

	var (
		created int
		errs    []error
	)
	for _, template := range templates {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		due := domain.DueOccurrences(template, today)
		if len(due) == 0 {
			continue
		}
		n, err := s.repo.MaterializeOccurrences(ctx, template, due)
		if err != nil {
			slog.Error("failed to materialize recurring transaction", "template_id", template.ID, "error", err)
			errs = append(errs, fmt.Errorf("template %d: %w", template.ID, err))
			continue
		}
		created += n
	}

	s.metrics.RecordRecurringCreated(created)
	return created, errors.Join(errs...)
}

// RunToday calls Run with the current UTC date.
func (s *RecurrenceService) RunToday(ctx context.Context) (int, error) {
	return s.Run(ctx, domain.DateOf(s.now().UTC()))
}

// StartRecurrenceScheduler runs the service on spec until the returned cron is stopped.
func StartRecurrenceScheduler(ctx context.Context, spec string, service *RecurrenceService) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(spec, func() {
		created, err := service.RunToday(ctx)
		if err != nil {
			slog.Error("recurring transactions run failed", "created", created, "error", err)
			return
		}
		slog.Info("recurring transactions run completed", "created", created)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid recurrence schedule %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}
