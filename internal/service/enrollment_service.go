package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/madrasa-api/internal/dto"
	"github.com/noah-isme/madrasa-api/internal/models"
	"github.com/noah-isme/madrasa-api/internal/policy"
	"github.com/noah-isme/madrasa-api/internal/repository"
)

const paymentStatusCompleted = "completed"

// EnrollmentService manages class enrollment and payment confirmation.
type EnrollmentService interface {
	Enroll(ctx context.Context, actor policy.Identity, req dto.EnrollRequest) (dto.EnrollmentResponse, error)
	ConfirmPayment(ctx context.Context, actor policy.Identity, enrollmentID string, req dto.ConfirmPaymentRequest) (dto.EnrollmentResponse, error)
}

type enrollmentService struct {
	classes   repository.ClassRepository
	audit     AuditRecorder
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewEnrollmentService constructs an enrollment service.
func NewEnrollmentService(classes repository.ClassRepository, audit AuditRecorder, validate *validator.Validate, logger zerolog.Logger) EnrollmentService {
	return &enrollmentService{
		classes:   classes,
		audit:     audit,
		validator: validate,
		logger:    logger.With().Str("component", "enrollment_service").Logger(),
	}
}

// Enroll creates a pending enrollment for the calling student. Repeated calls return the
// existing enrollment.
func (s *enrollmentService) Enroll(ctx context.Context, actor policy.Identity, req dto.EnrollRequest) (dto.EnrollmentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.EnrollmentResponse{}, err
	}
	if actor.Service || actor.Role != policy.RoleStudent {
		return dto.EnrollmentResponse{}, policy.ErrDenied
	}

	class, err := s.classes.GetClass(ctx, req.ClassID)
	if err != nil {
		return dto.EnrollmentResponse{}, storeErr("enrollment.get_class", err)
	}

	existing, err := s.classes.FindEnrollment(ctx, class.ID, actor.UserID)
	if err == nil {
		return dto.NewEnrollmentResponse(existing), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.EnrollmentResponse{}, storeErr("enrollment.find", err)
	}

	enrollment := models.Enrollment{
		ClassID:       class.ID,
		StudentID:     actor.UserID,
		PaymentStatus: models.PaymentStatusPending,
	}
	if err := s.classes.CreateEnrollment(ctx, &enrollment); err != nil {
		return dto.EnrollmentResponse{}, storeErr("enrollment.create", err)
	}

	s.logger.Info().Str("enrollment_id", enrollment.ID).Str("class_id", class.ID).Str("student_id", actor.UserID).Msg("enrollment created")
	return dto.NewEnrollmentResponse(enrollment), nil
}

// ConfirmPayment records the payment for a pending enrollment and marks it paid. Confirming an
// already paid enrollment returns it unchanged without inserting another payment.
func (s *enrollmentService) ConfirmPayment(ctx context.Context, actor policy.Identity, enrollmentID string, req dto.ConfirmPaymentRequest) (dto.EnrollmentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.EnrollmentResponse{}, err
	}
	if !actor.IsAdmin() {
		return dto.EnrollmentResponse{}, policy.ErrDenied
	}

	enrollment, err := s.classes.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return dto.EnrollmentResponse{}, storeErr("enrollment.get", err)
	}
	if enrollment.IsPaid() {
		return dto.NewEnrollmentResponse(enrollment), nil
	}
	if enrollment.PaymentStatus == models.PaymentStatusCancelled {
		return dto.EnrollmentResponse{}, invalidRequest("enrollment is cancelled")
	}

	payment := models.Payment{
		Amount:   req.Amount,
		Currency: strings.ToUpper(req.Currency),
		Status:   paymentStatusCompleted,
	}
	paid, recorded, err := s.classes.MarkPaid(ctx, enrollment.ID, &payment)
	if err != nil {
		return dto.EnrollmentResponse{}, storeErr("enrollment.mark_paid", err)
	}
	if !recorded {
		if paid.IsPaid() {
			return dto.NewEnrollmentResponse(paid), nil
		}
		return dto.EnrollmentResponse{}, invalidRequest("enrollment is no longer pending")
	}

	if s.audit != nil {
		if err := s.audit.Record(ctx, actor, "payment_confirmed", policy.TablePayments, payment.ID, map[string]interface{}{
			"enrollment_id": paid.ID,
			"amount":        payment.Amount,
			"currency":      payment.Currency,
		}); err != nil {
			s.logger.Error().Err(err).Str("enrollment_id", paid.ID).Msg("payment confirmation not audited")
		}
	}

	return dto.NewEnrollmentResponse(paid), nil
}
