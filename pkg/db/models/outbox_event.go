package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/craftmarket/bundles-backend/pkg/enums"
)

// OutboxEvent is a pending or delivered bundle event. A row whose
// attempt_count reached the publisher's ceiling is never fetched again.
type OutboxEvent struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	EventType     enums.OutboxEventType     `gorm:"column:event_type;type:event_type_enum;not null"`
	AggregateType enums.OutboxAggregateType `gorm:"column:aggregate_type;type:aggregate_type_enum;not null"`
	AggregateID   uuid.UUID                 `gorm:"column:aggregate_id;type:uuid;not null"`
	Payload       json.RawMessage           `gorm:"column:payload;type:jsonb;not null"`
	CreatedAt     time.Time                 `gorm:"column:created_at;autoCreateTime"`
	PublishedAt   *time.Time                `gorm:"column:published_at"`
	AttemptCount  int                       `gorm:"column:attempt_count;not null;default:0"`
	LastError     *string                   `gorm:"column:last_error"`
}

func (OutboxEvent) TableName() string { return "outbox_events" }

// Exhausted reports whether one more failed attempt reaches maxAttempts.
func (e OutboxEvent) Exhausted(maxAttempts int) bool {
	return e.AttemptCount+1 >= maxAttempts
}
