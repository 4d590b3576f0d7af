package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/madrasa-api/internal/dto"
	"github.com/noah-isme/madrasa-api/internal/models"
	"github.com/noah-isme/madrasa-api/internal/policy"
	"github.com/noah-isme/madrasa-api/internal/repository"
)

// RoleService exposes profile reads and the admin-only role change.
type RoleService interface {
	Me(ctx context.Context, actor policy.Identity) (dto.ProfileResponse, error)
	Profile(ctx context.Context, actor policy.Identity, id string) (dto.ProfileResponse, error)
	ChangeRole(ctx context.Context, actor policy.Identity, id string, req dto.RoleChangeRequest) (dto.ProfileResponse, error)
}

type roleService struct {
	profiles   *repository.ScopedRepository[models.Profile]
	identities IdentityResolver
	audit      AuditRecorder
	validator  *validator.Validate
	logger     zerolog.Logger
	tracer     trace.Tracer
}

// NewRoleService constructs a role service.
func NewRoleService(profiles *repository.ScopedRepository[models.Profile], identities IdentityResolver, audit AuditRecorder, validate *validator.Validate, logger zerolog.Logger) RoleService {
	return &roleService{
		profiles:   profiles,
		identities: identities,
		audit:      audit,
		validator:  validate,
		logger:     logger.With().Str("component", "role_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/madrasa-api/internal/service/role"),
	}
}

func (s *roleService) Me(ctx context.Context, actor policy.Identity) (dto.ProfileResponse, error) {
	profile, err := s.profiles.Get(ctx, actor, actor.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.ProfileResponse{}, ErrProfileNotFound
	}
	if err != nil {
		return dto.ProfileResponse{}, storeErr("profile.get", err)
	}
	return dto.NewProfileResponse(profile), nil
}

func (s *roleService) Profile(ctx context.Context, actor policy.Identity, id string) (dto.ProfileResponse, error) {
	profile, err := s.profiles.Get(ctx, actor, id)
	if err != nil {
		return dto.ProfileResponse{}, storeErr("profile.get", err)
	}
	return dto.NewProfileResponse(profile), nil
}

// ChangeRole rewrites another user's role. Non-admins are rejected before any lookup and an
// admin can never change their own role.
func (s *roleService) ChangeRole(ctx context.Context, actor policy.Identity, id string, req dto.RoleChangeRequest) (dto.ProfileResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ProfileResponse{}, err
	}
	role, err := policy.ParseRole(req.Role)
	if err != nil {
		return dto.ProfileResponse{}, invalidRequest(err.Error())
	}
	if !actor.IsAdmin() || actor.UserID == id {
		return dto.ProfileResponse{}, policy.ErrDenied
	}

	spanCtx, span := s.tracer.Start(ctx, "profiles.change_role", trace.WithAttributes(
		attribute.String("profile.id", id),
		attribute.String("profile.role", role.String()),
	))
	defer span.End()

	var previous string
	updated, err := s.profiles.Update(spanCtx, actor, id, func(p *models.Profile) error {
		previous = p.Role
		p.Role = role.String()
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return dto.ProfileResponse{}, storeErr("profile.change_role", err)
	}

	s.identities.Invalidate(spanCtx, id)
	if s.audit != nil {
		if err := s.audit.Record(spanCtx, actor, "role_changed", policy.TableProfiles, id, map[string]interface{}{
			"from":  previous,
			"to":    updated.Role,
			"email": maskEmail(updated.Email),
		}); err != nil {
			s.logger.Error().Err(err).Str("profile_id", id).Msg("role change not audited")
		}
	}

	s.logger.Info().Str("profile_id", id).Str("email", maskEmail(updated.Email)).Str("from", previous).Str("to", updated.Role).Str("actor_id", actor.UserID).Msg("role changed")
	return dto.NewProfileResponse(updated), nil
}

// maskEmail keeps the first and last character of the local part.
func maskEmail(email string) string {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return ""
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || strings.Contains(domain, "@") {
		return "***"
	}
	if len(local) <= 2 {
		return local[:1] + "***@" + domain
	}
	return local[:1] + "***" + local[len(local)-1:] + "@" + domain
}
