package store

import (
	"context"
	"errors"

	"github.com/user/yt-archive-go/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines the interface for catalog persistence operations.
//
// Implementations must allow concurrent use: workers call into the store from
// separate goroutines and no mutable session state may be shared between them.
// SyncChannel commits all rows from one sync pass atomically, so a concurrent
// reader never observes a channel with only part of its videos updated.
type Store interface {
	// Group operations
	CreateGroup(ctx context.Context, name string) error
	ListGroups(ctx context.Context) ([]string, error)
	DeleteGroup(ctx context.Context, name string) error

	// Channel operations
	UpsertChannel(ctx context.Context, channel *model.Channel) error
	GetChannel(ctx context.Context, name string) (*model.Channel, error)
	ListChannels(ctx context.Context, group string) ([]*model.Channel, error)
	DeleteChannel(ctx context.Context, name string) error

	// SyncChannel upserts a channel and the videos produced by one sync pass
	// in a single transaction.
	SyncChannel(ctx context.Context, channel *model.Channel, videos []*model.Video) error

	// Video operations
	ListVideos(ctx context.Context, channelName string) ([]*model.Video, error)
	CountVideos(ctx context.Context) (int64, error)
	MarkDownloaded(ctx context.Context, channelName, videoID string) error
	MarkMetadataFetched(ctx context.Context, channelName, videoID string, enrichment *model.Enrichment) error

	// Health check
	Ping(ctx context.Context) error
	Close() error
}
