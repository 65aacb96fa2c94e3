package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	ROLE_USER  = "user"
	ROLE_ADMIN = "admin"
)

// User is provisioned by the external identity provider. The purchase
// pipeline only syncs profile fields and the active membership pointer.
type User struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Name               string         `gorm:"type:varchar(150)" json:"name" validate:"max=150"`
	Email              string         `gorm:"uniqueIndex;type:varchar(200)" json:"email" validate:"required,email,max=200"`
	AvatarURL          string         `gorm:"type:varchar(255);default:null" json:"avatar_url" validate:"max=255"`
	Role               string         `gorm:"type:varchar(50);default:'user'" json:"role" validate:"oneof=user admin"`
	IsMember           bool           `gorm:"default:false" json:"is_member"`
	MembershipType     string         `gorm:"type:varchar(32);default:null" json:"membership_type,omitempty"`
	MemberSince        *time.Time     `gorm:"default:null" json:"member_since,omitempty"`
	ActiveMembershipID *uint          `gorm:"default:null;index" json:"active_membership_id,omitempty"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == ROLE_ADMIN
}

// ProfileUpdate carries the display fields captured at checkout time.
// Empty fields leave the stored value untouched.
type ProfileUpdate struct {
	Name      string
	Email     string
	AvatarURL string
}

// Apply copies non-empty fields onto u and reports whether anything changed.
func (p ProfileUpdate) Apply(u *User) bool {
	changed := false
	if v := strings.TrimSpace(p.Name); v != "" && v != u.Name {
		u.Name = v
		changed = true
	}
	if v := strings.TrimSpace(p.Email); v != "" && v != u.Email {
		u.Email = v
		changed = true
	}
	if v := strings.TrimSpace(p.AvatarURL); v != "" && v != u.AvatarURL {
		u.AvatarURL = v
		changed = true
	}
	return changed
}
