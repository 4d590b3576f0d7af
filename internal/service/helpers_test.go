package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/madrasa-api/internal/database"
	"github.com/noah-isme/madrasa-api/internal/dto"
	"github.com/noah-isme/madrasa-api/internal/models"
	"github.com/noah-isme/madrasa-api/internal/policy"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

type recordingPublisher struct {
	calls []dto.NotificationCreateRequest
}

func (p *recordingPublisher) Publish(ctx context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error) {
	p.calls = append(p.calls, payload)
	return dto.NotificationResponse{UserID: payload.UserID, Type: payload.Type, Message: payload.Message}, nil
}

// classWorld is a class taught by teacher with one paid and one unpaid student.
type classWorld struct {
	admin        policy.Identity
	teacher      policy.Identity
	otherTeacher policy.Identity
	paid         policy.Identity
	unpaid       policy.Identity
	support      policy.Identity
	class        models.Class
	thread       models.ForumThread
}

func seedClassWorld(t *testing.T, db *gorm.DB) classWorld {
	t.Helper()

	w := classWorld{
		admin:        policy.Identity{UserID: uuid.NewString(), Role: policy.RoleAdmin},
		teacher:      policy.Identity{UserID: uuid.NewString(), Role: policy.RoleTeacher},
		otherTeacher: policy.Identity{UserID: uuid.NewString(), Role: policy.RoleTeacher},
		paid:         policy.Identity{UserID: uuid.NewString(), Role: policy.RoleStudent},
		unpaid:       policy.Identity{UserID: uuid.NewString(), Role: policy.RoleStudent},
		support:      policy.Identity{UserID: uuid.NewString(), Role: policy.RoleSupport},
	}

	for i, identity := range []policy.Identity{w.admin, w.teacher, w.otherTeacher, w.paid, w.unpaid, w.support} {
		profile := models.Profile{
			Model:    models.Model{ID: identity.UserID},
			FullName: fmt.Sprintf("user %d", i),
			Email:    fmt.Sprintf("user%d-%s@madrasa.test", i, identity.UserID[:8]),
			Role:     identity.Role.String(),
		}
		require.NoError(t, db.Create(&profile).Error)
	}

	w.class = models.Class{Name: "Tajwid 1", Level: "beginner", TeacherID: w.teacher.UserID}
	require.NoError(t, db.Create(&w.class).Error)

	require.NoError(t, db.Create(&models.Enrollment{ClassID: w.class.ID, StudentID: w.paid.UserID, PaymentStatus: models.PaymentStatusPaid}).Error)
	require.NoError(t, db.Create(&models.Enrollment{ClassID: w.class.ID, StudentID: w.unpaid.UserID, PaymentStatus: models.PaymentStatusPending}).Error)

	w.thread = models.ForumThread{ClassID: w.class.ID, AuthorID: w.teacher.UserID, Title: "Week 1", CommentsEnabled: true}
	require.NoError(t, db.Create(&w.thread).Error)

	return w
}
