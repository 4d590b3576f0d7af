package models

import "github.com/noah-isme/madrasa-api/internal/policy"

// Profile is the per-user record holding the role used for authorization.
type Profile struct {
	Model
	FullName string `gorm:"size:255" json:"full_name"`
	Email    string `gorm:"size:255;uniqueIndex" json:"email"`
	Role     string `gorm:"size:32;not null;index" json:"role"`
}

// PolicyResource implements policy.Row.
func (p Profile) PolicyResource() policy.Resource {
	return policy.Resource{Table: policy.TableProfiles, OwnerID: p.ID}
}
