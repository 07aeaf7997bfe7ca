package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string     `gorm:"not null" json:"name"`
	Email      string     `gorm:"uniqueIndex;not null" json:"email"`
	Password   string     `gorm:"column:password_hash;not null" json:"-"`
	Role       string     `gorm:"not null;default:'user'" json:"role"`
	IsActive   bool       `gorm:"not null;default:true" json:"is_active"`
	LastActive *time.Time `json:"last_active,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "app_user" }
