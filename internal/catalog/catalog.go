package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/user/yt-archive-go/internal/extractor"
	"github.com/user/yt-archive-go/internal/model"
	"github.com/user/yt-archive-go/internal/normalize"
	"github.com/user/yt-archive-go/internal/store"
)

// Sentinel errors so callers can tell an extraction failure (retry may help)
// from a storage failure (it usually will not).
var (
	ErrExtraction = errors.New("channel extraction failed")
	ErrStorage    = errors.New("catalog storage failed")
)

// PageInfoFetcher is the optional channel-page scraper used when the
// extractor's tree lacks a usable title.
type PageInfoFetcher interface {
	FetchPageInfo(ctx context.Context, url string) (*extractor.PageInfo, error)
}

// Service runs catalog synchronization passes: extract a channel's metadata
// tree, normalize it into rows, and commit the whole pass as one transaction.
type Service struct {
	store     store.Store
	extractor extractor.Extractor
	webInfo   PageInfoFetcher
	baseDir   string
}

// NewService creates a catalog service. webInfo may be nil to disable the
// page-scrape fallback. baseDir is the archive root used for on-disk
// reconciliation.
func NewService(st store.Store, ex extractor.Extractor, webInfo PageInfoFetcher, baseDir string) *Service {
	return &Service{
		store:     st,
		extractor: ex,
		webInfo:   webInfo,
		baseDir:   baseDir,
	}
}

// NormalizeChannelInput converts a bare handle into the canonical channel URL.
func NormalizeChannelInput(input string) string {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "http") {
		return input
	}
	return "https://www.youtube.com/@" + strings.TrimPrefix(input, "@")
}

// AddChannel extracts a channel's tree, normalizes it and commits the channel
// plus all of its videos in one pass. Returns the catalog name of the channel.
func (s *Service) AddChannel(ctx context.Context, groupName, input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", fmt.Errorf("channel input must not be empty")
	}

	url := NormalizeChannelInput(input)

	tree, err := s.extractor.ExtractTree(ctx, url)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrExtraction, url, err)
	}

	channel := normalize.ChannelFromTree(tree, groupName, url)
	s.fillFromPage(ctx, channel)

	videos := normalize.Normalize(tree, identityOf(channel), s.baseDir)

	if err := s.store.SyncChannel(ctx, channel, videos); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorage, err)
	}

	log.Info().
		Str("channel", channel.Name).
		Str("group", groupName).
		Int("videos", len(videos)).
		Msg("Channel added to catalog")

	return channel.Name, nil
}

// SyncChannel re-extracts an existing channel and refreshes its rows. The
// catalog name is kept stable even if the remote title changed, since videos
// reference their channel by name.
func (s *Service) SyncChannel(ctx context.Context, name string) error {
	channel, err := s.store.GetChannel(ctx, name)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	target := channel.URL
	if target == "" {
		target = NormalizeChannelInput(channel.Handle)
	}

	tree, err := s.extractor.ExtractTree(ctx, target)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrExtraction, target, err)
	}

	updated := normalize.ChannelFromTree(tree, channel.GroupName, target)
	updated.Name = channel.Name
	s.fillFromPage(ctx, updated)

	videos := normalize.Normalize(tree, identityOf(updated), s.baseDir)

	if err := s.store.SyncChannel(ctx, updated, videos); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	log.Info().
		Str("channel", name).
		Int("videos", len(videos)).
		Msg("Channel synced")

	return nil
}

// fillFromPage scrapes the channel page for a title and thumbnail when the
// extractor's tree did not carry them.
func (s *Service) fillFromPage(ctx context.Context, channel *model.Channel) {
	if s.webInfo == nil || channel.Title != "Unknown" {
		return
	}

	info, err := s.webInfo.FetchPageInfo(ctx, channel.URL)
	if err != nil {
		log.Warn().Err(err).Str("url", channel.URL).Msg("Channel page scrape failed")
		return
	}
	if info.Title != "" {
		channel.Title = info.Title
		if channel.Name == "Unknown" {
			channel.Name = info.Title
		}
	}
	if channel.Description == "" {
		channel.Description = info.Description
	}
	if len(channel.Thumbnails) == 0 && info.ThumbnailURL != "" {
		channel.Thumbnails = []string{info.ThumbnailURL}
	}
}

func identityOf(channel *model.Channel) normalize.ChannelIdentity {
	return normalize.ChannelIdentity{
		ChannelID: channel.ChannelID,
		Handle:    channel.Handle,
	}
}
