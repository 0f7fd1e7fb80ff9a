package model

import "time"

// Owner is the Telegram chat bound to the application state.
type Owner struct {
	ID         uint  `gorm:"primaryKey"`
	TelegramID int64 `gorm:"uniqueIndex"`
	FirstName  string
	LastName   string
	Username   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName keeps the table name stable regardless of the struct name.
func (Owner) TableName() string {
	return "chat_owners"
}
