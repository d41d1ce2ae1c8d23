package models

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ErrEmailRequired is returned when a user is saved without an email address.
var ErrEmailRequired = errors.New("users must have an email address")

// User is an account identified by its email address.
type User struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email       string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	Password    string    `json:"-" gorm:"type:varchar(255);not null"` // bcrypt hash, never serialized
	Name        string    `json:"name" gorm:"type:varchar(255)"`
	IsActive    bool      `json:"is_active" gorm:"not null;default:true"`
	IsStaff     bool      `json:"is_staff" gorm:"not null;default:false"`
	IsSuperuser bool      `json:"is_superuser" gorm:"not null;default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Tags        []Tag        `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	Ingredients []Ingredient `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	Recipes     []Recipe     `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
}

// NormalizeEmail trims surrounding whitespace and lowercases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// BeforeSave keeps the stored email normalized regardless of the caller.
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = NormalizeEmail(u.Email)
	if u.Email == "" {
		return ErrEmailRequired
	}
	return nil
}

func (u User) String() string {
	return u.Email
}
