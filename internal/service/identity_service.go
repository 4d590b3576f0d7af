package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/madrasa-api/internal/policy"
	"github.com/noah-isme/madrasa-api/internal/repository"
)

const identityCachePrefix = "identity:v1:"

// IdentityResolver turns an authenticated user id into the policy identity used for decisions.
// The role always comes from the profile row, never from token claims.
type IdentityResolver interface {
	Resolve(ctx context.Context, userID string) (policy.Identity, error)
	Invalidate(ctx context.Context, userID string)
}

type identityResolver struct {
	profiles repository.ProfileRepository
	cache    *redis.Client
	ttl      time.Duration
	logger   zerolog.Logger
}

// NewIdentityResolver constructs a resolver. A nil cache disables caching.
func NewIdentityResolver(profiles repository.ProfileRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) IdentityResolver {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &identityResolver{
		profiles: profiles,
		cache:    cache,
		ttl:      ttl,
		logger:   logger.With().Str("component", "identity_resolver").Logger(),
	}
}

func (r *identityResolver) Resolve(ctx context.Context, userID string) (policy.Identity, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return policy.Identity{}, ErrProfileNotFound
	}

	if role, ok := r.fetchCache(ctx, userID); ok {
		return policy.Identity{UserID: userID, Role: role}, nil
	}

	profile, err := r.profiles.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return policy.Identity{}, ErrProfileNotFound
	}
	if err != nil {
		return policy.Identity{}, err
	}

	role, err := policy.ParseRole(profile.Role)
	if err != nil {
		r.logger.Warn().Str("user_id", userID).Str("role", profile.Role).Msg("profile carries unknown role")
		return policy.Identity{UserID: userID, Role: policy.RoleUnknown}, nil
	}

	r.writeCache(ctx, userID, role)
	return policy.Identity{UserID: userID, Role: role}, nil
}

func (r *identityResolver) Invalidate(ctx context.Context, userID string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Del(ctx, identityCachePrefix+userID).Err(); err != nil {
		r.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to invalidate identity cache")
	}
}

func (r *identityResolver) fetchCache(ctx context.Context, userID string) (policy.Role, bool) {
	if r.cache == nil {
		return policy.RoleUnknown, false
	}
	value, err := r.cache.Get(ctx, identityCachePrefix+userID).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn().Err(err).Msg("failed to read identity cache")
		}
		return policy.RoleUnknown, false
	}
	role, err := policy.ParseRole(value)
	if err != nil {
		return policy.RoleUnknown, false
	}
	return role, true
}

func (r *identityResolver) writeCache(ctx context.Context, userID string, role policy.Role) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, identityCachePrefix+userID, role.String(), r.ttl).Err(); err != nil {
		r.logger.Warn().Err(err).Msg("failed to store identity cache")
	}
}
