package models

// Payment statuses carried by an enrollment.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusPaid      = "paid"
	PaymentStatusCancelled = "cancelled"
)

// Class is a teaching group owned by exactly one teacher.
type Class struct {
	Model
	Name      string `gorm:"size:255;not null" json:"name"`
	Level     string `gorm:"size:64" json:"level"`
	TeacherID string `gorm:"size:36;not null;index" json:"teacher_id"`
}

// Enrollment links a student to a class. Only paid enrollments grant access.
type Enrollment struct {
	Model
	ClassID       string `gorm:"size:36;not null;uniqueIndex:idx_enrollment_class_student" json:"class_id"`
	StudentID     string `gorm:"size:36;not null;uniqueIndex:idx_enrollment_class_student;index" json:"student_id"`
	PaymentStatus string `gorm:"size:16;not null" json:"payment_status"`
}

// IsPaid reports whether the enrollment confers class access.
func (e Enrollment) IsPaid() bool {
	return e.PaymentStatus == PaymentStatusPaid
}
