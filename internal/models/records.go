package models

import "github.com/noah-isme/madrasa-api/internal/policy"

// LearningAnalytics is a per-student learning metric, written only by the service credential.
type LearningAnalytics struct {
	Model
	UserID  string  `gorm:"size:36;not null;index" json:"user_id"`
	ClassID string  `gorm:"size:36;index" json:"class_id"`
	Metric  string  `gorm:"size:64;not null" json:"metric" validate:"required,max=64"`
	Value   float64 `json:"value"`
}

// TableName pins the table name.
func (LearningAnalytics) TableName() string { return string(policy.TableLearningAnalytics) }

// PolicyResource implements policy.Row.
func (l LearningAnalytics) PolicyResource() policy.Resource {
	return policy.Resource{Table: policy.TableLearningAnalytics, OwnerID: l.UserID, ClassID: l.ClassID}
}

// PracticeSession is a self-paced quiz or exercise attempt.
type PracticeSession struct {
	Model
	UserID          string  `gorm:"size:36;not null;index" json:"user_id"`
	Topic           string  `gorm:"size:255;not null" json:"topic" validate:"required,max=255"`
	Score           float64 `json:"score" validate:"gte=0,lte=100"`
	DurationSeconds int     `json:"duration_seconds" validate:"gte=0"`
}

// PolicyResource implements policy.Row.
func (p PracticeSession) PolicyResource() policy.Resource {
	return policy.Resource{Table: policy.TablePracticeSessions, OwnerID: p.UserID}
}

// Payment records money received for an enrollment. Amount is in minor units.
type Payment struct {
	Model
	UserID       string `gorm:"size:36;not null;index" json:"user_id"`
	EnrollmentID string `gorm:"size:36;not null;index" json:"enrollment_id"`
	Amount       int64  `gorm:"not null" json:"amount" validate:"gt=0"`
	Currency     string `gorm:"size:3;not null" json:"currency" validate:"required,len=3"`
	Status       string `gorm:"size:16;not null" json:"status"`
}

// PolicyResource implements policy.Row.
func (p Payment) PolicyResource() policy.Resource {
	return policy.Resource{Table: policy.TablePayments, OwnerID: p.UserID}
}

// BackupJob tracks a requested database backup.
type BackupJob struct {
	Model
	RequestedBy string `gorm:"size:36;not null" json:"requested_by"`
	Status      string `gorm:"size:16;not null" json:"status" validate:"omitempty,oneof=queued running done failed"`
	Location    string `gorm:"size:512" json:"location"`
}

// PolicyResource implements policy.Row.
func (b BackupJob) PolicyResource() policy.Resource {
	return policy.Resource{Table: policy.TableBackupJobs, OwnerID: b.RequestedBy}
}

// SupportTicket is a help request raised by a user.
type SupportTicket struct {
	Model
	UserID  string `gorm:"size:36;not null;index" json:"user_id"`
	Subject string `gorm:"size:255;not null" json:"subject" validate:"required,max=255"`
	Body    string `gorm:"type:text" json:"body" validate:"max=10000"`
	Status  string `gorm:"size:16;not null" json:"status" validate:"omitempty,oneof=open pending closed"`
}

// PolicyResource implements policy.Row.
func (s SupportTicket) PolicyResource() policy.Resource {
	return policy.Resource{Table: policy.TableSupportTickets, OwnerID: s.UserID}
}

// KnowledgeBaseArticle is help content; drafts are visible to staff only.
type KnowledgeBaseArticle struct {
	Model
	AuthorID string `gorm:"size:36;not null" json:"author_id"`
	Title    string `gorm:"size:255;not null" json:"title" validate:"required,max=255"`
	Body     string `gorm:"type:text" json:"body"`
	Status   string `gorm:"size:16;not null;index" json:"status" validate:"omitempty,oneof=draft published"`
}

// TableName pins the table name.
func (KnowledgeBaseArticle) TableName() string { return string(policy.TableKnowledgeBase) }

// PolicyResource implements policy.Row.
func (k KnowledgeBaseArticle) PolicyResource() policy.Resource {
	return policy.Resource{Table: policy.TableKnowledgeBase, OwnerID: k.AuthorID, Status: k.Status}
}
