package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Audit holds timestamps and the acting user for a record.
type Audit struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CreatedBy string    `json:"created_by"`
	UpdatedBy string    `json:"updated_by"`
}

// BaseModel handles ID (UUID) and standard Audit Trails
type BaseModel struct {
	ID uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	Audit
}

// BeforeCreate generates the UUID when the caller has not set one.
func (base *BaseModel) BeforeCreate(tx *gorm.DB) (err error) {
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	return
}
