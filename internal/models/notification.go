package models

// Notification is a message addressed to a single user.
type Notification struct {
	Model
	UserID  string `gorm:"size:36;index" json:"user_id"`
	Type    string `gorm:"size:64" json:"type"`
	Message string `gorm:"type:text" json:"message"`
	Read    bool   `gorm:"not null;default:false" json:"read"`
}
