package domain

import "time"

// WebhookEvent is the audit row persisted for every gateway webhook delivery
// that passed signature verification. The table is append-only and is never
// consulted for processing decisions: identical deliveries are re-processed
// as new purchases by design (at-least-once). The stored event keeps the raw
// payload and the extracted identity so a later reconciliation, or an
// exactly-once dedup keyed on the gateway payment id, has the data it needs.
type WebhookEvent struct {
	ID             string    `json:"id"          gorm:"type:char(36);primaryKey"`
	Event          string    `json:"event"       gorm:"type:varchar(100);not null;index"`
	SignatureValid bool      `json:"signature_valid" gorm:"not null"`
	PayloadJSON    string    `json:"payload_json" gorm:"type:text;not null"`
	UserID         int64     `json:"user_id"     gorm:"index"`
	Plan           string    `json:"plan"        gorm:"type:varchar(16)"`
	Captured       bool      `json:"captured"`
	ReceivedAt     time.Time `json:"received_at" gorm:"index"`
}

// TableName returns the database table name for WebhookEvent.
func (WebhookEvent) TableName() string { return "webhook_events" }
