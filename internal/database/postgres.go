package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/noah-isme/madrasa-api/internal/models"
	"github.com/noah-isme/madrasa-api/internal/policy"
)

// ConnectPostgres establishes a connection to the PostgreSQL database using the provided DSN.
func ConnectPostgres(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn must not be empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Profile{},
		&models.Class{},
		&models.Enrollment{},
		&models.ForumThread{},
		&models.ForumPost{},
		&models.ForumPostLike{},
		&models.ContentModeration{},
		&models.AuditLog{},
		&models.LearningAnalytics{},
		&models.PracticeSession{},
		&models.Payment{},
		&models.BackupJob{},
		&models.SupportTicket{},
		&models.KnowledgeBaseArticle{},
		&models.Notification{},
	)
}

// ApplyRowLevelSecurity installs the policy set as native PostgreSQL row-level security so
// end-user connections are filtered by the database itself.
func ApplyRowLevelSecurity(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return fmt.Errorf("row level security requires postgres, got %s", db.Dialector.Name())
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, statement := range policy.PostgresPolicies() {
			if err := tx.Exec(statement).Error; err != nil {
				return fmt.Errorf("apply %q: %w", statement, err)
			}
		}
		return nil
	})
}
