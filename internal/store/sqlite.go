package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/yt-archive-go/internal/config"
	"github.com/user/yt-archive-go/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SQLiteStore implements Store using a local SQLite database.
//
// The underlying *gorm.DB wraps a connection pool and is safe for concurrent
// use; each call checks a connection out of the pool, so workers never share
// a live session object.
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLiteStore opens (and migrates) the catalog database at cfg.Path.
func NewSQLiteStore(cfg *config.DBConfig) (*SQLiteStore, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(cfg.Path), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL allows readers to proceed concurrently with a writer.
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if err := db.Exec("PRAGMA foreign_keys=ON").Error; err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := db.AutoMigrate(&model.Group{}, &model.Channel{}, &model.Video{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// CreateGroup creates a new group, failing if the name is taken.
func (s *SQLiteStore) CreateGroup(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("group name must not be empty")
	}
	if err := s.db.WithContext(ctx).Create(&model.Group{Name: name}).Error; err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}
	return nil
}

// ListGroups returns all group names.
func (s *SQLiteStore) ListGroups(ctx context.Context) ([]string, error) {
	var names []string
	result := s.db.WithContext(ctx).
		Model(&model.Group{}).
		Order("name ASC").
		Pluck("name", &names)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list groups: %w", result.Error)
	}
	return names, nil
}

// DeleteGroup deletes a group, its channels and transitively their videos.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, name string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var channelNames []string
		if err := tx.Model(&model.Channel{}).
			Where("group_name = ?", name).
			Pluck("name", &channelNames).Error; err != nil {
			return err
		}
		if len(channelNames) > 0 {
			if err := tx.Where("channel_name IN ?", channelNames).
				Delete(&model.Video{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("group_name = ?", name).
			Delete(&model.Channel{}).Error; err != nil {
			return err
		}
		return tx.Where("name = ?", name).Delete(&model.Group{}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return nil
}

// UpsertChannel inserts the channel or fully updates the existing row.
func (s *SQLiteStore) UpsertChannel(ctx context.Context, channel *model.Channel) error {
	return upsertChannel(s.db.WithContext(ctx), channel)
}

func upsertChannel(db *gorm.DB, channel *model.Channel) error {
	result := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"group_name", "handle", "channel_id", "url", "title",
			"follower_count", "description", "tags", "thumbnails", "updated_at",
		}),
	}).Create(channel)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert channel: %w", result.Error)
	}
	return nil
}

// GetChannel retrieves a channel by its unique name.
func (s *SQLiteStore) GetChannel(ctx context.Context, name string) (*model.Channel, error) {
	var channel model.Channel
	result := s.db.WithContext(ctx).Where("name = ?", name).First(&channel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("channel %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get channel: %w", result.Error)
	}
	return &channel, nil
}

// ListChannels retrieves all channels, or only those in a group when one is given.
func (s *SQLiteStore) ListChannels(ctx context.Context, group string) ([]*model.Channel, error) {
	var channels []*model.Channel
	query := s.db.WithContext(ctx).Order("name ASC")
	if group != "" {
		query = query.Where("group_name = ?", group)
	}
	if err := query.Find(&channels).Error; err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	return channels, nil
}

// DeleteChannel deletes a channel and all of its videos.
func (s *SQLiteStore) DeleteChannel(ctx context.Context, name string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("channel_name = ?", name).Delete(&model.Video{}).Error; err != nil {
			return err
		}
		return tx.Where("name = ?", name).Delete(&model.Channel{}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete channel: %w", err)
	}
	return nil
}

// videoSyncColumns are the fields one sync pass owns. Acquisition flags other
// than is_downloaded (which tracks on-disk truth) and enrichment fields are
// written by acquisition jobs, never by sync.
var videoSyncColumns = []string{
	"title", "url", "view_count", "thumbnails", "video_type",
	"upload_date", "filepath", "is_downloaded", "updated_at",
}

// SyncChannel commits the channel row and all of its videos from one sync
// pass in a single transaction.
func (s *SQLiteStore) SyncChannel(ctx context.Context, channel *model.Channel, videos []*model.Video) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsertChannel(tx, channel); err != nil {
			return err
		}
		for _, video := range videos {
			video.ChannelName = channel.Name
			result := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "channel_name"}, {Name: "video_id"}},
				DoUpdates: clause.AssignmentColumns(videoSyncColumns),
			}).Create(video)
			if result.Error != nil {
				return fmt.Errorf("failed to upsert video %s: %w", video.VideoID, result.Error)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to sync channel %s: %w", channel.Name, err)
	}
	return nil
}

// ListVideos retrieves a channel's videos in insertion order.
func (s *SQLiteStore) ListVideos(ctx context.Context, channelName string) ([]*model.Video, error) {
	var videos []*model.Video
	result := s.db.WithContext(ctx).
		Where("channel_name = ?", channelName).
		Order("id ASC").
		Find(&videos)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list videos: %w", result.Error)
	}
	return videos, nil
}

// CountVideos returns the total count of videos
func (s *SQLiteStore) CountVideos(ctx context.Context) (int64, error) {
	var count int64
	result := s.db.WithContext(ctx).Model(&model.Video{}).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count videos: %w", result.Error)
	}
	return count, nil
}

// MarkDownloaded records a successful media download for one video.
func (s *SQLiteStore) MarkDownloaded(ctx context.Context, channelName, videoID string) error {
	result := s.db.WithContext(ctx).
		Model(&model.Video{}).
		Where("channel_name = ? AND video_id = ?", channelName, videoID).
		Update("is_downloaded", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark video as downloaded: %w", result.Error)
	}
	return nil
}

// MarkMetadataFetched records a successful metadata fetch and its enrichment
// fields for one video.
func (s *SQLiteStore) MarkMetadataFetched(ctx context.Context, channelName, videoID string, enrichment *model.Enrichment) error {
	updated := model.Video{IsMetadataDownloaded: true}
	columns := []string{"is_metadata_downloaded", "updated_at"}
	if enrichment != nil {
		updated.Duration = enrichment.Duration
		updated.Description = enrichment.Description
		updated.Tags = enrichment.Tags
		updated.LikeCount = enrichment.LikeCount
		updated.CommentCount = enrichment.CommentCount
		updated.ThumbFilepath = enrichment.ThumbFilepath
		columns = append(columns, "duration", "description", "tags",
			"like_count", "comment_count", "thumb_filepath")
	}
	result := s.db.WithContext(ctx).
		Model(&model.Video{}).
		Where("channel_name = ? AND video_id = ?", channelName, videoID).
		Select(columns).
		Updates(updated)
	if result.Error != nil {
		return fmt.Errorf("failed to mark video metadata as fetched: %w", result.Error)
	}
	return nil
}

// Ping checks database connectivity
func (s *SQLiteStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying db: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying db: %w", err)
	}
	return sqlDB.Close()
}

// DB returns the underlying gorm.DB instance (for testing purposes)
func (s *SQLiteStore) DB() *gorm.DB {
	return s.db
}
