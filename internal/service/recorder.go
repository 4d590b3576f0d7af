package service

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/madrasa-api/internal/models"
	"github.com/noah-isme/madrasa-api/internal/policy"
	"github.com/noah-isme/madrasa-api/internal/repository"
)

// AuditRecorder appends entries to the audit trail.
type AuditRecorder interface {
	Record(ctx context.Context, actor policy.Identity, action string, table policy.Table, recordID string, details map[string]interface{}) error
}

// ModerationRecorder appends moderation decisions for forum content.
type ModerationRecorder interface {
	Record(ctx context.Context, actor policy.Identity, contentType, contentID, action, reason string, metadata map[string]interface{}) error
}

type auditRecorder struct {
	repo   *repository.ScopedRepository[models.AuditLog]
	logger zerolog.Logger
}

// NewAuditRecorder writes audit entries with the service credential.
func NewAuditRecorder(repo *repository.ScopedRepository[models.AuditLog], logger zerolog.Logger) AuditRecorder {
	return &auditRecorder{
		repo:   repo,
		logger: logger.With().Str("component", "audit_recorder").Logger(),
	}
}

func (r *auditRecorder) Record(ctx context.Context, actor policy.Identity, action string, table policy.Table, recordID string, details map[string]interface{}) error {
	entry := models.AuditLog{
		ActorID:     actor.UserID,
		ActorRole:   actor.Role.String(),
		Action:      action,
		TargetTable: string(table),
		RecordID:    recordID,
		Details:     datatypes.JSONMap(details),
	}
	if err := r.repo.Create(ctx, policy.ServiceIdentity(), &entry); err != nil {
		r.logger.Error().Err(err).Str("action", action).Str("record_id", recordID).Msg("failed to append audit entry")
		return storeErr("audit.create", err)
	}
	return nil
}

type moderationRecorder struct {
	repo   *repository.ScopedRepository[models.ContentModeration]
	logger zerolog.Logger
}

// NewModerationRecorder writes moderation records with the service credential.
func NewModerationRecorder(repo *repository.ScopedRepository[models.ContentModeration], logger zerolog.Logger) ModerationRecorder {
	return &moderationRecorder{
		repo:   repo,
		logger: logger.With().Str("component", "moderation_recorder").Logger(),
	}
}

func (r *moderationRecorder) Record(ctx context.Context, actor policy.Identity, contentType, contentID, action, reason string, metadata map[string]interface{}) error {
	record := models.ContentModeration{
		ContentType: contentType,
		ContentID:   contentID,
		ActorID:     actor.UserID,
		Action:      action,
		Reason:      reason,
		Automated:   actor.Service,
		Metadata:    datatypes.JSONMap(metadata),
	}
	if err := r.repo.Create(ctx, policy.ServiceIdentity(), &record); err != nil {
		r.logger.Error().Err(err).Str("content_id", contentID).Str("action", action).Msg("failed to append moderation record")
		return storeErr("moderation.create", err)
	}
	return nil
}
