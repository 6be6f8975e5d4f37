package model

import (
	"time"
)

// Channel represents a subscribed content source. Channel names are unique
// catalog-wide; videos reference their channel by name alone.
type Channel struct {
	ID            uint     `gorm:"primaryKey"`
	Name          string   `gorm:"uniqueIndex;size:255;not null"`
	GroupName     string   `gorm:"index;size:255;not null"`
	Handle        string   `gorm:"size:255"`
	ChannelID     string   `gorm:"size:64"`
	URL           string   `gorm:"size:500"`
	Title         string   `gorm:"size:500"`
	FollowerCount int64    `gorm:"default:0"`
	Description   string
	Tags          []string `gorm:"serializer:json"`
	Thumbnails    []string `gorm:"serializer:json"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName returns the table name for Channel
func (Channel) TableName() string {
	return "channels"
}
