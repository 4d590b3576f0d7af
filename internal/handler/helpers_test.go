package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/madrasa-api/internal/config"
	"github.com/noah-isme/madrasa-api/internal/database"
	"github.com/noah-isme/madrasa-api/internal/handler"
	"github.com/noah-isme/madrasa-api/internal/i18n"
	"github.com/noah-isme/madrasa-api/internal/middleware"
	"github.com/noah-isme/madrasa-api/internal/models"
	"github.com/noah-isme/madrasa-api/internal/policy"
	"github.com/noah-isme/madrasa-api/internal/repository"
	"github.com/noah-isme/madrasa-api/internal/router"
	"github.com/noah-isme/madrasa-api/internal/service"
)

const testSecret = "handler-test-secret"

type testEnv struct {
	app     *fiber.App
	db      *gorm.DB
	admin   string
	teacher string
	paid    string
	unpaid  string
	support string
	class   models.Class
	thread  models.ForumThread
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	env := testEnv{db: db}
	env.admin = seedProfile(t, db, policy.RoleAdmin)
	env.teacher = seedProfile(t, db, policy.RoleTeacher)
	env.paid = seedProfile(t, db, policy.RoleStudent)
	env.unpaid = seedProfile(t, db, policy.RoleStudent)
	env.support = seedProfile(t, db, policy.RoleSupport)

	env.class = models.Class{Name: "Arabic 101", TeacherID: env.teacher}
	require.NoError(t, db.Create(&env.class).Error)
	require.NoError(t, db.Create(&models.Enrollment{ClassID: env.class.ID, StudentID: env.paid, PaymentStatus: models.PaymentStatusPaid}).Error)
	env.thread = models.ForumThread{ClassID: env.class.ID, AuthorID: env.teacher, Title: "Lesson 1", CommentsEnabled: true}
	require.NoError(t, db.Create(&env.thread).Error)

	env.app = buildApp(db)
	return env
}

func seedProfile(t *testing.T, db *gorm.DB, role policy.Role) string {
	t.Helper()
	id := uuid.NewString()
	profile := models.Profile{
		Model:    models.Model{ID: id},
		FullName: role.String(),
		Email:    id + "@madrasa.test",
		Role:     role.String(),
	}
	require.NoError(t, db.Create(&profile).Error)
	return id
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func buildApp(db *gorm.DB) *fiber.App {
	logger := zerolog.Nop()
	translator := i18n.New("ar")
	validate := newValidator()

	classes := repository.NewClassRepository(db)
	identities := service.NewIdentityResolver(repository.NewProfileRepository(db), nil, time.Minute, logger)
	audit := service.NewAuditRecorder(repository.NewScopedRepository[models.AuditLog](db, classes), logger)
	moderation := service.NewModerationRecorder(repository.NewScopedRepository[models.ContentModeration](db, classes), logger)
	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), nil, "", nil, validate, logger)

	forum := service.NewForumService(repository.NewForumRepository(db), classes, moderation, notifications, translator, validate, logger)
	roles := service.NewRoleService(repository.NewScopedRepository[models.Profile](db, classes), identities, audit, validate, logger)

	tickets := service.NewRecordService(repository.NewScopedRepository[models.SupportTicket](db, classes), service.SupportTicketHooks(), validate, logger)
	auditLog := service.NewRecordService(repository.NewScopedRepository[models.AuditLog](db, classes), service.RecordHooks[models.AuditLog]{}, validate, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "madrasa-test"}, router.Dependencies{
		ForumHandler:        handler.NewForumHandler(forum, translator, logger),
		ProfileHandler:      handler.NewProfileHandler(roles, translator, logger),
		NotificationHandler: handler.NewNotificationHandler(notifications, translator, logger),
		RecordHandlers: []router.Registrar{
			handler.NewRecordHandler(tickets, translator, logger),
			handler.NewRecordHandler(auditLog, translator, logger),
		},
		JWTMiddleware:      middleware.JWTProtected(testSecret, translator),
		IdentityMiddleware: middleware.ResolveIdentity(identities, translator, logger),
		ForumRateLimit:     middleware.RateLimit("forum", 100, time.Minute, translator),
		AdminOnly:          middleware.RequireRole(translator, policy.RoleAdmin),
	})
	return app
}

func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

type apiResponse struct {
	status int
	raw    []byte
	body   map[string]interface{}
}

func (r apiResponse) data() map[string]interface{} {
	data, _ := r.body["data"].(map[string]interface{})
	return data
}

func call(t *testing.T, app *fiber.App, method, path, userID string, payload interface{}, headers ...string) apiResponse {
	t.Helper()

	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, userID))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := apiResponse{status: resp.StatusCode, raw: raw}
	if len(raw) > 0 && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.Unmarshal(raw, &out.body), string(raw))
	}
	return out
}

func decodeAny(t *testing.T, raw []byte) interface{} {
	t.Helper()
	var payload interface{}
	require.NoError(t, json.Unmarshal(raw, &payload))
	return payload
}
