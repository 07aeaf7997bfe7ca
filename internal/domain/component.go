package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Canonical status values. Legacy vocabularies (Planning/In Progress/Testing/
// Completed/Deployed and planning/development/testing/deployed/deprecated)
// are mapped into this triple at ingestion time.
const (
	StatusPlanned       = "Planned"
	StatusInDevelopment = "In Development"
	StatusReleased      = "Released"
)

// Canonical complexity values. The legacy Simple/Medium/Complex triple maps
// onto Low/Medium/High.
const (
	ComplexityLow    = "Low"
	ComplexityMedium = "Medium"
	ComplexityHigh   = "High"
)

// Component is one tracked software component. ExternalKey is the business
// identifier uploads use to decide create-vs-update.
type Component struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ExternalKey string    `gorm:"column:external_key;uniqueIndex;not null" json:"external_key"`
	Name        string    `gorm:"not null;index" json:"name"`
	Description string    `json:"description"`

	TowerID uuid.UUID `gorm:"type:uuid;not null;index" json:"tower_id"`
	Tower   *Tower    `gorm:"constraint:OnDelete:CASCADE;foreignKey:TowerID;references:ID" json:"tower,omitempty"`

	AppGroup      string `gorm:"column:app_group;not null" json:"app_group"`
	ComponentType string `gorm:"column:component_type;not null" json:"component_type"`
	Status        string `gorm:"not null;default:'Planned';index" json:"status"`
	Complexity    string `gorm:"not null;default:'Medium';index" json:"complexity"`
	ChangeType    string `gorm:"column:change_type" json:"change_type"`

	Month int `gorm:"not null" json:"month"`
	Year  int `gorm:"not null;index" json:"year"`

	ReleaseDate *time.Time     `gorm:"column:release_date" json:"release_date,omitempty"`
	TechStack   datatypes.JSON `gorm:"column:tech_stack;type:jsonb" json:"tech_stack,omitempty"`

	CreatedByID *uuid.UUID `gorm:"type:uuid;column:created_by_id" json:"created_by_id,omitempty"`
	CreatedBy   *User      `gorm:"foreignKey:CreatedByID;references:ID" json:"created_by,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Component) TableName() string { return "component" }
