package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vkoritsas/go-paygate-bot/internal/domain"
)

func newAuditDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "audit.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestRecordWebhookEvent_FillsDefaults(t *testing.T) {
	db := newAuditDB(t)
	ctx := context.Background()

	ev := &domain.WebhookEvent{
		Event:          "payment.captured",
		SignatureValid: true,
		PayloadJSON:    `{"event":"payment.captured"}`,
		UserID:         42,
		Plan:           "vip",
		Captured:       true,
	}
	if err := RecordWebhookEvent(ctx, db, ev); err != nil {
		t.Fatalf("RecordWebhookEvent: %v", err)
	}
	if ev.ID == "" {
		t.Fatal("id not generated")
	}
	if ev.ReceivedAt.IsZero() {
		t.Fatal("ReceivedAt not defaulted")
	}

	var got domain.WebhookEvent
	if err := db.First(&got, "id = ?", ev.ID).Error; err != nil {
		t.Fatalf("read back: %v", err)
	}
	if got.Event != "payment.captured" || got.UserID != 42 || !got.Captured {
		t.Fatalf("row = %+v", got)
	}
}

func TestRecordWebhookEvent_KeepsProvidedFields(t *testing.T) {
	db := newAuditDB(t)
	at := time.Date(2026, 3, 1, 6, 30, 0, 0, time.UTC)

	ev := &domain.WebhookEvent{
		ID:          "fixed-id",
		Event:       "payment.failed",
		PayloadJSON: "{}",
		ReceivedAt:  at,
	}
	if err := RecordWebhookEvent(context.Background(), db, ev); err != nil {
		t.Fatalf("RecordWebhookEvent: %v", err)
	}
	var got domain.WebhookEvent
	if err := db.First(&got, "id = ?", "fixed-id").Error; err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !got.ReceivedAt.Equal(at) {
		t.Fatalf("ReceivedAt = %v, want %v", got.ReceivedAt, at)
	}
}

func TestListRecentWebhookEvents_NewestFirst(t *testing.T) {
	db := newAuditDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		ev := &domain.WebhookEvent{
			Event:       fmt.Sprintf("payment.captured.%d", i),
			PayloadJSON: "{}",
			ReceivedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		if err := RecordWebhookEvent(ctx, db, ev); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	got, err := ListRecentWebhookEvents(ctx, db, 3)
	if err != nil {
		t.Fatalf("ListRecentWebhookEvents: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d rows, want 3", len(got))
	}
	if got[0].Event != "payment.captured.4" || got[2].Event != "payment.captured.2" {
		t.Fatalf("order = [%s %s %s]", got[0].Event, got[1].Event, got[2].Event)
	}
}

func TestCountWebhookEvents(t *testing.T) {
	db := newAuditDB(t)
	ctx := context.Background()

	for i, captured := range []bool{true, true, false} {
		ev := &domain.WebhookEvent{
			Event:       fmt.Sprintf("e%d", i),
			PayloadJSON: "{}",
			Captured:    captured,
		}
		if err := RecordWebhookEvent(ctx, db, ev); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	total, err := CountWebhookEvents(ctx, db, false)
	if err != nil || total != 3 {
		t.Fatalf("total = %d err=%v", total, err)
	}
	captured, err := CountWebhookEvents(ctx, db, true)
	if err != nil || captured != 2 {
		t.Fatalf("captured = %d err=%v", captured, err)
	}
}

func TestOpenSQLite_ErrorOnMissingDir(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "does-not-exist", "audit.db")
	if db, err := OpenSQLite(bad); err == nil || db != nil {
		t.Fatalf("expected error opening %q, got db=%v err=%v", bad, db, err)
	}
}

func TestOpenSQLite_OpensAndMigrates(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	if !db.Migrator().HasTable("webhook_events") {
		t.Fatal("webhook_events table missing")
	}
}
