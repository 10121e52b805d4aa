package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Organization is the tenant. Every credential and review row is scoped to one.
type Organization struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name      string    `gorm:"type:varchar(150)" json:"name" validate:"required,min=2,max=150"`
	Slug      string    `gorm:"uniqueIndex;type:varchar(150)" json:"slug" validate:"required,min=2,max=150"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

func (o *Organization) Validate() error {
	v := validator.New()

	return v.Struct(o)
}
