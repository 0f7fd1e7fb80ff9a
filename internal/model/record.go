package model

import (
	"time"

	"gorm.io/datatypes"
)

// StateRecord stores one serialized AppState under a fixed key.
type StateRecord struct {
	Key       string         `gorm:"primaryKey;size:64"`
	Data      datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName keeps the table name stable regardless of the struct name.
func (StateRecord) TableName() string {
	return "app_states"
}
