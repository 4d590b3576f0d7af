package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/madrasa-api/internal/models"
	"github.com/noah-isme/madrasa-api/internal/policy"
)

// ClassRepository persists classes and enrollments and answers relationship questions.
type ClassRepository interface {
	CreateClass(ctx context.Context, class *models.Class) error
	GetClass(ctx context.Context, id string) (models.Class, error)
	CreateEnrollment(ctx context.Context, enrollment *models.Enrollment) error
	GetEnrollment(ctx context.Context, id string) (models.Enrollment, error)
	FindEnrollment(ctx context.Context, classID, studentID string) (models.Enrollment, error)
	HasPaidEnrollment(ctx context.Context, classID, studentID string) (bool, error)
	IsTeacherOfClass(ctx context.Context, teacherID, classID string) (bool, error)
	MarkPaid(ctx context.Context, enrollmentID string, payment *models.Payment) (models.Enrollment, bool, error)
	Relations(ctx context.Context, identity policy.Identity, resource policy.Resource) (policy.Relations, error)
}

type classRepository struct {
	db *gorm.DB
}

// NewClassRepository constructs a GORM-backed repository.
func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db}
}

func (r *classRepository) CreateClass(ctx context.Context, class *models.Class) error {
	return r.db.WithContext(ctx).Create(class).Error
}

func (r *classRepository) GetClass(ctx context.Context, id string) (models.Class, error) {
	var class models.Class
	if err := r.db.WithContext(ctx).First(&class, "id = ?", id).Error; err != nil {
		return models.Class{}, err
	}
	return class, nil
}

func (r *classRepository) CreateEnrollment(ctx context.Context, enrollment *models.Enrollment) error {
	return r.db.WithContext(ctx).Create(enrollment).Error
}

func (r *classRepository) GetEnrollment(ctx context.Context, id string) (models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := r.db.WithContext(ctx).First(&enrollment, "id = ?", id).Error; err != nil {
		return models.Enrollment{}, err
	}
	return enrollment, nil
}

func (r *classRepository) FindEnrollment(ctx context.Context, classID, studentID string) (models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := r.db.WithContext(ctx).
		Where("class_id = ? AND student_id = ?", classID, studentID).
		First(&enrollment).Error; err != nil {
		return models.Enrollment{}, err
	}
	return enrollment, nil
}

func (r *classRepository) HasPaidEnrollment(ctx context.Context, classID, studentID string) (bool, error) {
	enrollment, err := r.FindEnrollment(ctx, classID, studentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return enrollment.IsPaid(), nil
}

func (r *classRepository) IsTeacherOfClass(ctx context.Context, teacherID, classID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Class{}).
		Where("id = ? AND teacher_id = ?", classID, teacherID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkPaid flips a pending enrollment to paid and records the payment in one transaction. The
// flip is conditional on the pending status, so of two concurrent confirmations only one inserts
// a payment; the other gets the stored enrollment and recorded == false.
func (r *classRepository) MarkPaid(ctx context.Context, enrollmentID string, payment *models.Payment) (models.Enrollment, bool, error) {
	var (
		enrollment models.Enrollment
		recorded   bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Enrollment{}).
			Where("id = ? AND payment_status = ?", enrollmentID, models.PaymentStatusPending).
			Update("payment_status", models.PaymentStatusPaid)
		if result.Error != nil {
			return result.Error
		}
		if err := tx.First(&enrollment, "id = ?", enrollmentID).Error; err != nil {
			return err
		}
		if result.RowsAffected == 0 {
			return nil
		}

		payment.EnrollmentID = enrollment.ID
		payment.UserID = enrollment.StudentID
		if err := tx.Create(payment).Error; err != nil {
			return err
		}
		recorded = true
		return nil
	})
	if err != nil {
		return models.Enrollment{}, false, err
	}
	return enrollment, recorded, nil
}

// Relations resolves the class relationships a row-level policy needs.
func (r *classRepository) Relations(ctx context.Context, identity policy.Identity, resource policy.Resource) (policy.Relations, error) {
	var rel policy.Relations
	if resource.ClassID == "" || identity.UserID == "" || identity.Service {
		return rel, nil
	}

	switch identity.Role {
	case policy.RoleTeacher:
		ok, err := r.IsTeacherOfClass(ctx, identity.UserID, resource.ClassID)
		if err != nil {
			return rel, err
		}
		rel.TeacherOfClass = ok
	case policy.RoleStudent:
		ok, err := r.HasPaidEnrollment(ctx, resource.ClassID, identity.UserID)
		if err != nil {
			return rel, err
		}
		rel.PaidEnrollment = ok
	}

	return rel, nil
}
