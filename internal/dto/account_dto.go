package dto

import (
	"time"

	"github.com/noah-isme/madrasa-api/internal/models"
)

// RoleChangeRequest changes another user's role.
type RoleChangeRequest struct {
	Role string `json:"role" validate:"required,oneof=admin leerkracht leerling support"`
}

// ProfileResponse describes a profile returned by the API.
type ProfileResponse struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProfileResponse converts a profile into a DTO.
func NewProfileResponse(model models.Profile) ProfileResponse {
	return ProfileResponse{
		ID:        model.ID,
		FullName:  model.FullName,
		Email:     model.Email,
		Role:      model.Role,
		UpdatedAt: model.UpdatedAt,
	}
}

// EnrollRequest enrolls the caller in a class.
type EnrollRequest struct {
	ClassID string `json:"class_id" validate:"required,max=36"`
}

// ConfirmPaymentRequest records the payment for a pending enrollment.
type ConfirmPaymentRequest struct {
	Amount   int64  `json:"amount" validate:"required,gt=0"`
	Currency string `json:"currency" validate:"required,len=3"`
}

// EnrollmentResponse describes an enrollment.
type EnrollmentResponse struct {
	ID            string    `json:"id"`
	ClassID       string    `json:"class_id"`
	StudentID     string    `json:"student_id"`
	PaymentStatus string    `json:"payment_status"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewEnrollmentResponse converts an enrollment into a DTO.
func NewEnrollmentResponse(model models.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:            model.ID,
		ClassID:       model.ClassID,
		StudentID:     model.StudentID,
		PaymentStatus: model.PaymentStatus,
		CreatedAt:     model.CreatedAt,
	}
}

// PaginationMeta describes list pagination.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// RecordListResponse wraps a page of protected-table rows.
type RecordListResponse[T any] struct {
	Items      []T            `json:"items"`
	Pagination PaginationMeta `json:"pagination"`
}
