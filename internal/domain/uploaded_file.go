package domain

import (
	"time"

	"github.com/google/uuid"
)

// UploadedFile records one committed upload: the raw payload metadata plus
// the counts the ingestion run produced.
type UploadedFile struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Filename    string     `gorm:"not null" json:"filename"`
	ContentType string     `gorm:"column:content_type" json:"content_type"`
	SizeBytes   int64      `gorm:"column:size_bytes" json:"size_bytes"`
	TotalRows   int        `gorm:"column:total_rows" json:"total_rows"`
	Created     int        `gorm:"column:created_rows" json:"created"`
	Updated     int        `gorm:"column:updated_rows" json:"updated"`
	FailedRows  int        `gorm:"column:failed_rows" json:"failed_rows"`
	UploadedBy  *uuid.UUID `gorm:"type:uuid;column:uploaded_by" json:"uploaded_by,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (UploadedFile) TableName() string { return "uploaded_file" }
