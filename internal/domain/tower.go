package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tower groups components by business domain ("Security", "Finance", ...).
type Tower struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null" json:"name"`
	Description string    `json:"description"`
	Ownership   string    `json:"ownership"`

	Components []*Component `gorm:"foreignKey:TowerID;references:ID" json:"components,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Tower) TableName() string { return "tower" }
