package checker

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"shelfaware/internal/models"
	"shelfaware/internal/repository"
)

const (
	alertTitle = "ShelfAware Alert"
	sweepType  = "expiry_sweep"
)

// CheckService evaluates every product a user owns and emits at most one
// alert per (product, expiry-event) pair, no matter how often a check runs.
// Persisted notifications with notified = true are the cross-run dedup
// record; an in-run set suppresses duplicates inside a single pass.
type CheckService struct {
	products      repository.ProductRepository
	notifications repository.NotificationRepository
	state         repository.CheckStateRepository
	alerter       Alerter

	now func() time.Time
}

func NewCheckService(
	products repository.ProductRepository,
	notifications repository.NotificationRepository,
	state repository.CheckStateRepository,
	alerter Alerter,
) *CheckService {
	return &CheckService{
		products:      products,
		notifications: notifications,
		state:         state,
		alerter:       alerter,
		now:           time.Now,
	}
}

// CheckUser runs one expiry evaluation for a single user. A failure to read
// products or the dedup record aborts the whole run; a failure on one
// product's write path is logged and does not stop the others.
func (s *CheckService) CheckUser(ctx context.Context, userID string) error {
	products, err := s.products.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list products: %w", err)
	}

	notifiedIDs, err := s.notifications.ListNotifiedProductIDs(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list notified products: %w", err)
	}

	// Dedup is keyed on product ID alone, not (product, type): a product
	// already alerted as expiring soon does not alert again when it tips
	// over into expired, unless its notification record is cleared.
	notified := make(map[string]struct{}, len(notifiedIDs))
	for _, id := range notifiedIDs {
		notified[id] = struct{}{}
	}

	now := s.now()
	for _, product := range products {
		if product.ExpiryDate == nil {
			log.Printf("[ExpiryCheck] skipping product %s: no expiry date", product.ID)
			continue
		}

		days := daysUntil(now, *product.ExpiryDate)
		if days > product.ReminderDays {
			continue
		}
		if _, done := notified[product.ID]; done {
			continue
		}

		notifType, message := classify(product.Name, days)

		created, err := s.notifications.CreateIfAbsent(ctx, &models.Notification{
			UserID:    userID,
			ProductID: product.ID,
			Type:      notifType,
			Message:   message,
			Read:      false,
			Notified:  true,
		})
		if err != nil {
			log.Printf("[ExpiryCheck] failed to record notification for product %s: %v", product.ID, err)
			continue
		}

		if created {
			deliveryID := fmt.Sprintf("%s_%s", notifType, product.ID)
			if err := s.alerter.DeliverLocalAlert(ctx, deliveryID, alertTitle, message); err != nil {
				log.Printf("[ExpiryCheck] failed to deliver alert %s: %v", deliveryID, err)
			}
		}

		notified[product.ID] = struct{}{}
	}

	return nil
}

// CheckAll sweeps every user that owns products. Per-user failures are
// logged and do not stop the sweep.
func (s *CheckService) CheckAll(ctx context.Context) error {
	userIDs, err := s.products.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	var failures int
	for _, userID := range userIDs {
		if err := s.CheckUser(ctx, userID); err != nil {
			failures++
			log.Printf("[ExpiryCheck] check failed for user %s: %v", userID, err)
		}
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d user checks failed", failures, len(userIDs))
	}
	return nil
}

// Start runs one sweep immediately, then schedules recurring sweeps. Errors
// never escape a run boundary: each run is independent and self-healing,
// because the next one re-evaluates from scratch.
func (s *CheckService) Start(ctx context.Context, scheduler Scheduler, interval time.Duration) {
	s.runSweep(ctx)
	scheduler.ScheduleRecurring(ctx, interval, s.runSweep)
	log.Printf("[ExpiryCheck] recurring sweep scheduled every %v", interval)
}

func (s *CheckService) runSweep(ctx context.Context) {
	err := s.CheckAll(ctx)

	status := "completed"
	if err != nil {
		status = "failed"
		log.Printf("[ExpiryCheck] sweep failed: %v", err)
	}

	if s.state != nil {
		if stateErr := s.state.RecordRun(ctx, sweepType, status, err); stateErr != nil {
			log.Printf("[ExpiryCheck] failed to record sweep state: %v", stateErr)
		}
	}
}

// daysUntil counts whole days from now until expiry, rounding up. Zero or
// negative means the product has expired.
func daysUntil(now, expiry time.Time) int {
	return int(math.Ceil(expiry.Sub(now).Hours() / 24))
}

func classify(name string, days int) (models.NotificationType, string) {
	if days <= 0 {
		return models.NotificationExpired, fmt.Sprintf("Your %s has expired!", name)
	}
	unit := "days"
	if days == 1 {
		unit = "day"
	}
	return models.NotificationReminder, fmt.Sprintf("Your %s will expire in %d %s!", name, days, unit)
}
