// This file provides repository functions for the WebhookEvent audit model.
//
// The repository follows a "thin" approach: it performs persistence and
// simple query composition. Writes are best-effort from the caller's point
// of view: the webhook handler logs and proceeds if the audit insert fails,
// because signature-checked processing must not depend on the audit store.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vkoritsas/go-paygate-bot/internal/domain"
)

// RecordWebhookEvent inserts one audit row for a gateway delivery. The row id
// is generated here; ReceivedAt defaults to now when zero.
func RecordWebhookEvent(ctx context.Context, db *gorm.DB, ev *domain.WebhookEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(ev).Error
}

// ListRecentWebhookEvents returns up to limit audit rows, newest first.
func ListRecentWebhookEvents(ctx context.Context, db *gorm.DB, limit int) ([]domain.WebhookEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []domain.WebhookEvent
	err := db.WithContext(ctx).
		Order("received_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountWebhookEvents returns the total number of audit rows, optionally
// restricted to captured deliveries.
func CountWebhookEvents(ctx context.Context, db *gorm.DB, capturedOnly bool) (int64, error) {
	q := db.WithContext(ctx).Model(&domain.WebhookEvent{})
	if capturedOnly {
		q = q.Where("captured = ?", true)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}
