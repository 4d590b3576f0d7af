package service

import (
	"github.com/noah-isme/madrasa-api/internal/models"
	"github.com/noah-isme/madrasa-api/internal/policy"
)

// PracticeSessionHooks defaults the owner to the caller.
func PracticeSessionHooks() RecordHooks[models.PracticeSession] {
	return RecordHooks[models.PracticeSession]{
		Stamp: func(row *models.PracticeSession, actor policy.Identity) {
			if row.UserID == "" {
				row.UserID = actor.UserID
			}
		},
		Merge: func(dst *models.PracticeSession, src models.PracticeSession) {
			if src.Topic != "" {
				dst.Topic = src.Topic
			}
			dst.Score = src.Score
			dst.DurationSeconds = src.DurationSeconds
		},
	}
}

// SupportTicketHooks opens tickets on behalf of the caller.
func SupportTicketHooks() RecordHooks[models.SupportTicket] {
	return RecordHooks[models.SupportTicket]{
		Stamp: func(row *models.SupportTicket, actor policy.Identity) {
			if row.UserID == "" {
				row.UserID = actor.UserID
			}
			if row.Status == "" {
				row.Status = "open"
			}
		},
		Merge: func(dst *models.SupportTicket, src models.SupportTicket) {
			if src.Subject != "" {
				dst.Subject = src.Subject
			}
			if src.Body != "" {
				dst.Body = src.Body
			}
			if src.Status != "" {
				dst.Status = src.Status
			}
		},
	}
}

// KnowledgeBaseHooks records the author and starts articles as drafts.
func KnowledgeBaseHooks() RecordHooks[models.KnowledgeBaseArticle] {
	return RecordHooks[models.KnowledgeBaseArticle]{
		Stamp: func(row *models.KnowledgeBaseArticle, actor policy.Identity) {
			row.AuthorID = actor.UserID
			if row.Status == "" {
				row.Status = "draft"
			}
		},
		Merge: func(dst *models.KnowledgeBaseArticle, src models.KnowledgeBaseArticle) {
			if src.Title != "" {
				dst.Title = src.Title
			}
			if src.Body != "" {
				dst.Body = src.Body
			}
			if src.Status != "" {
				dst.Status = src.Status
			}
		},
	}
}

// BackupJobHooks queues jobs for the requesting admin.
func BackupJobHooks() RecordHooks[models.BackupJob] {
	return RecordHooks[models.BackupJob]{
		Stamp: func(row *models.BackupJob, actor policy.Identity) {
			row.RequestedBy = actor.UserID
			if row.Status == "" {
				row.Status = "queued"
			}
		},
		Merge: func(dst *models.BackupJob, src models.BackupJob) {
			if src.Status != "" {
				dst.Status = src.Status
			}
			if src.Location != "" {
				dst.Location = src.Location
			}
		},
	}
}
