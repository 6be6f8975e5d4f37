package model

import (
	"time"
)

// Group is a user-defined label clustering channels.
type Group struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex;size:255;not null"`
	CreatedAt time.Time
}

// TableName returns the table name for Group
func (Group) TableName() string {
	return "groups"
}
