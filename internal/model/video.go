package model

import (
	"time"
)

// VideoType classifies a catalog entry by the kind of upload it came from.
type VideoType string

const (
	TypeVideos VideoType = "Videos"
	TypeShorts VideoType = "Shorts"
	TypeLives  VideoType = "Lives"
)

// Sentinels used when the extractor omits a field.
const (
	UnknownID         = "Unknown_ID"
	UnknownUploadDate = "00000000"
)

// Video represents one catalog item belonging to a channel.
// The upsert key is (channel_name, video_id): re-syncing a channel updates
// rows in place and never duplicates them.
type Video struct {
	ID                   uint      `gorm:"primaryKey"`
	ChannelName          string    `gorm:"uniqueIndex:idx_channel_video;size:255;not null"`
	VideoID              string    `gorm:"uniqueIndex:idx_channel_video;size:64;not null"`
	Title                string    `gorm:"size:500"`
	URL                  string    `gorm:"size:500"`
	ViewCount            int64     `gorm:"default:0"`
	Thumbnails           []string  `gorm:"serializer:json"`
	IsDownloaded         bool      `gorm:"default:false;index"`
	IsMetadataDownloaded bool      `gorm:"default:false;index"`
	VideoType            VideoType `gorm:"size:16;default:Videos"`
	UploadDate           string    `gorm:"size:8"`
	Duration             int64     `gorm:"default:0"`
	Description          string
	Tags                 []string `gorm:"serializer:json"`
	LikeCount            int64    `gorm:"default:0"`
	CommentCount         int64    `gorm:"default:0"`
	Filepath             string   `gorm:"size:1024"`
	ThumbFilepath        string   `gorm:"size:1024"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// TableName returns the table name for Video
func (Video) TableName() string {
	return "videos"
}

// Enrichment holds the descriptive fields written back after a successful
// metadata fetch. Acquisition flags and enrichment are updated independently
// of catalog sync.
type Enrichment struct {
	Duration      int64
	Description   string
	Tags          []string
	LikeCount     int64
	CommentCount  int64
	ThumbFilepath string
}
