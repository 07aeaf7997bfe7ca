package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Activity is one audit row for a user action (CRUD, upload commit).
type Activity struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	ComponentID *uuid.UUID `gorm:"type:uuid;index" json:"component_id,omitempty"`
	ActionType  string     `gorm:"column:action_type;not null;index" json:"action_type"`
	Meta        datatypes.JSON `gorm:"type:jsonb" json:"meta,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Activity) TableName() string { return "activity" }
