package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/madrasa-api/internal/policy"
)

// Moderation actions recorded against content.
const (
	ModerationApproved = "approved"
	ModerationRejected = "rejected"
	ModerationDeleted  = "deleted"
	ModerationFlagged  = "flagged"
)

// ContentModeration is an append-only record of a moderation decision.
type ContentModeration struct {
	ID          string            `gorm:"primaryKey;size:36" json:"id"`
	ContentType string            `gorm:"size:32;not null;index" json:"content_type"`
	ContentID   string            `gorm:"size:36;not null;index" json:"content_id"`
	ActorID     string            `gorm:"size:36;not null" json:"actor_id"`
	Action      string            `gorm:"size:32;not null" json:"action"`
	Reason      string            `gorm:"type:text" json:"reason"`
	Automated   bool              `gorm:"not null" json:"automated"`
	Metadata    datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt   time.Time         `json:"created_at"`
}

// TableName pins the table name.
func (ContentModeration) TableName() string {
	return string(policy.TableContentModeration)
}

// BeforeCreate assigns a UUID.
func (m *ContentModeration) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// ClearServerFields drops the key and timestamp so the store assigns them.
func (m *ContentModeration) ClearServerFields() {
	m.ID = ""
	m.CreatedAt = time.Time{}
}

// PolicyResource implements policy.Row.
func (m ContentModeration) PolicyResource() policy.Resource {
	return policy.Resource{Table: policy.TableContentModeration, OwnerID: m.ActorID}
}

// AuditLog is an append-only trail of privileged writes.
type AuditLog struct {
	ID          string            `gorm:"primaryKey;size:36" json:"id"`
	ActorID     string            `gorm:"size:36;not null;index" json:"actor_id"`
	ActorRole   string            `gorm:"size:32;not null" json:"actor_role"`
	Action      string            `gorm:"size:64;not null;index" json:"action"`
	TargetTable string            `gorm:"size:64;not null" json:"target_table"`
	RecordID    string            `gorm:"size:36" json:"record_id"`
	Details     datatypes.JSONMap `gorm:"type:json" json:"details"`
	CreatedAt   time.Time         `json:"created_at"`
}

// TableName pins the table name.
func (AuditLog) TableName() string {
	return string(policy.TableAuditLog)
}

// ClearServerFields drops the key and timestamp so the store assigns them.
func (a *AuditLog) ClearServerFields() {
	a.ID = ""
	a.CreatedAt = time.Time{}
}

// BeforeCreate assigns a UUID.
func (a *AuditLog) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// PolicyResource implements policy.Row.
func (a AuditLog) PolicyResource() policy.Resource {
	return policy.Resource{Table: policy.TableAuditLog, OwnerID: a.ActorID}
}

// ErrAppendOnly is returned when an update or delete targets an append-only table.
var ErrAppendOnly = errors.New("append-only table rejects update and delete")

// BeforeUpdate rejects mutation of moderation records.
func (m *ContentModeration) BeforeUpdate(*gorm.DB) error { return ErrAppendOnly }

// BeforeDelete rejects removal of moderation records.
func (m *ContentModeration) BeforeDelete(*gorm.DB) error { return ErrAppendOnly }

// BeforeUpdate rejects mutation of audit entries.
func (a *AuditLog) BeforeUpdate(*gorm.DB) error { return ErrAppendOnly }

// BeforeDelete rejects removal of audit entries.
func (a *AuditLog) BeforeDelete(*gorm.DB) error { return ErrAppendOnly }
