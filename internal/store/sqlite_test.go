package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/user/yt-archive-go/internal/config"
	"github.com/user/yt-archive-go/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	cfg := &config.DBConfig{Path: filepath.Join(t.TempDir(), "catalog.db")}
	s, err := NewSQLiteStore(cfg)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testChannel(name string) *model.Channel {
	return &model.Channel{
		Name:      name,
		GroupName: "Tech",
		Handle:    "@" + name,
		ChannelID: "UC_" + name,
		URL:       "https://www.youtube.com/@" + name,
		Title:     name,
	}
}

func testVideo(id, title string) *model.Video {
	return &model.Video{
		VideoID:    id,
		Title:      title,
		URL:        "https://www.youtube.com/watch?v=" + id,
		VideoType:  model.TypeVideos,
		UploadDate: "20230101",
		Filepath:   "UC1 (@demo)/(@demo) Videos/20230101_" + title,
	}
}

func TestGroups(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateGroup(ctx, "Tech"); err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}
	if err := s.CreateGroup(ctx, "Music"); err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}
	if err := s.CreateGroup(ctx, "Tech"); err == nil {
		t.Error("CreateGroup() with duplicate name succeeded, want error")
	}
	if err := s.CreateGroup(ctx, ""); err == nil {
		t.Error("CreateGroup() with empty name succeeded, want error")
	}

	groups, err := s.ListGroups(ctx)
	if err != nil {
		t.Fatalf("ListGroups() error = %v", err)
	}
	if len(groups) != 2 || groups[0] != "Music" || groups[1] != "Tech" {
		t.Errorf("ListGroups() = %v, want [Music Tech]", groups)
	}
}

func TestSyncChannel_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	channel := testChannel("demo")
	videos := []*model.Video{testVideo("v1", "First"), testVideo("v2", "Second")}

	if err := s.SyncChannel(ctx, channel, videos); err != nil {
		t.Fatalf("SyncChannel() error = %v", err)
	}

	// A second pass with the same identities must update in place.
	again := []*model.Video{testVideo("v1", "First (updated)"), testVideo("v2", "Second")}
	again[0].ViewCount = 99
	if err := s.SyncChannel(ctx, testChannel("demo"), again); err != nil {
		t.Fatalf("second SyncChannel() error = %v", err)
	}

	count, err := s.CountVideos(ctx)
	if err != nil {
		t.Fatalf("CountVideos() error = %v", err)
	}
	if count != 2 {
		t.Errorf("CountVideos() = %d after re-sync, want 2", count)
	}

	stored, err := s.ListVideos(ctx, "demo")
	if err != nil {
		t.Fatalf("ListVideos() error = %v", err)
	}
	if stored[0].Title != "First (updated)" || stored[0].ViewCount != 99 {
		t.Errorf("re-sync did not update row: %+v", stored[0])
	}
}

func TestSyncChannel_PreservesAcquisitionState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SyncChannel(ctx, testChannel("demo"), []*model.Video{testVideo("v1", "First")}); err != nil {
		t.Fatalf("SyncChannel() error = %v", err)
	}

	enrichment := &model.Enrichment{
		Duration:      120,
		Description:   "about",
		Tags:          []string{"a"},
		LikeCount:     5,
		CommentCount:  2,
		ThumbFilepath: "thumb.webp",
	}
	if err := s.MarkMetadataFetched(ctx, "demo", "v1", enrichment); err != nil {
		t.Fatalf("MarkMetadataFetched() error = %v", err)
	}

	// Re-sync must not clear the metadata flag or enrichment fields.
	if err := s.SyncChannel(ctx, testChannel("demo"), []*model.Video{testVideo("v1", "First")}); err != nil {
		t.Fatalf("re-sync error = %v", err)
	}

	videos, err := s.ListVideos(ctx, "demo")
	if err != nil {
		t.Fatalf("ListVideos() error = %v", err)
	}
	v := videos[0]
	if !v.IsMetadataDownloaded {
		t.Error("IsMetadataDownloaded cleared by re-sync")
	}
	if v.Duration != 120 || v.Description != "about" || v.LikeCount != 5 {
		t.Errorf("enrichment lost on re-sync: %+v", v)
	}
	if len(v.Tags) != 1 || v.Tags[0] != "a" {
		t.Errorf("tags lost on re-sync: %v", v.Tags)
	}
	if v.ThumbFilepath != "thumb.webp" {
		t.Errorf("ThumbFilepath = %q after re-sync", v.ThumbFilepath)
	}
}

func TestSyncChannel_OverwritesDownloadFlag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := testVideo("v1", "First")
	first.IsDownloaded = true
	if err := s.SyncChannel(ctx, testChannel("demo"), []*model.Video{first}); err != nil {
		t.Fatalf("SyncChannel() error = %v", err)
	}

	// Sync owns is_downloaded: the disk probe result of the latest pass wins,
	// in both directions.
	if err := s.SyncChannel(ctx, testChannel("demo"), []*model.Video{testVideo("v1", "First")}); err != nil {
		t.Fatalf("re-sync error = %v", err)
	}

	videos, _ := s.ListVideos(ctx, "demo")
	if videos[0].IsDownloaded {
		t.Error("IsDownloaded = true after sync pass reported the file missing")
	}
}

func TestMarkDownloaded(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SyncChannel(ctx, testChannel("demo"), []*model.Video{testVideo("v1", "First")}); err != nil {
		t.Fatalf("SyncChannel() error = %v", err)
	}
	if err := s.MarkDownloaded(ctx, "demo", "v1"); err != nil {
		t.Fatalf("MarkDownloaded() error = %v", err)
	}

	videos, _ := s.ListVideos(ctx, "demo")
	if !videos[0].IsDownloaded {
		t.Error("IsDownloaded = false after MarkDownloaded")
	}
	if videos[0].IsMetadataDownloaded {
		t.Error("MarkDownloaded must not touch the metadata flag")
	}
}

func TestUpsertChannel(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertChannel(ctx, testChannel("demo")); err != nil {
		t.Fatalf("UpsertChannel() error = %v", err)
	}

	updated := testChannel("demo")
	updated.Title = "Demo Channel"
	updated.FollowerCount = 1000
	if err := s.UpsertChannel(ctx, updated); err != nil {
		t.Fatalf("second UpsertChannel() error = %v", err)
	}

	channels, err := s.ListChannels(ctx, "")
	if err != nil {
		t.Fatalf("ListChannels() error = %v", err)
	}
	if len(channels) != 1 {
		t.Fatalf("ListChannels() returned %d channels, want 1 after upsert", len(channels))
	}
	if channels[0].Title != "Demo Channel" || channels[0].FollowerCount != 1000 {
		t.Errorf("upsert did not update: %+v", channels[0])
	}
}

func TestGetChannel_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetChannel(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetChannel() error = %v, want ErrNotFound", err)
	}
}

func TestListChannels_ByGroup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := testChannel("alpha")
	b := testChannel("beta")
	b.GroupName = "Music"
	if err := s.UpsertChannel(ctx, a); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertChannel(ctx, b); err != nil {
		t.Fatal(err)
	}

	tech, err := s.ListChannels(ctx, "Tech")
	if err != nil {
		t.Fatalf("ListChannels() error = %v", err)
	}
	if len(tech) != 1 || tech[0].Name != "alpha" {
		t.Errorf("ListChannels(Tech) = %v", tech)
	}

	all, err := s.ListChannels(ctx, "")
	if err != nil {
		t.Fatalf("ListChannels() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("ListChannels(\"\") returned %d channels, want 2", len(all))
	}
}

func TestDeleteChannel_CascadesToVideos(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SyncChannel(ctx, testChannel("demo"), []*model.Video{testVideo("v1", "First")}); err != nil {
		t.Fatalf("SyncChannel() error = %v", err)
	}
	if err := s.DeleteChannel(ctx, "demo"); err != nil {
		t.Fatalf("DeleteChannel() error = %v", err)
	}

	count, _ := s.CountVideos(ctx)
	if count != 0 {
		t.Errorf("CountVideos() = %d after channel delete, want 0", count)
	}
	if _, err := s.GetChannel(ctx, "demo"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetChannel() after delete error = %v, want ErrNotFound", err)
	}
}

func TestDeleteGroup_CascadesToChannelsAndVideos(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateGroup(ctx, "Tech"); err != nil {
		t.Fatal(err)
	}
	if err := s.SyncChannel(ctx, testChannel("demo"), []*model.Video{testVideo("v1", "First")}); err != nil {
		t.Fatalf("SyncChannel() error = %v", err)
	}

	if err := s.DeleteGroup(ctx, "Tech"); err != nil {
		t.Fatalf("DeleteGroup() error = %v", err)
	}

	groups, _ := s.ListGroups(ctx)
	if len(groups) != 0 {
		t.Errorf("ListGroups() = %v after delete, want empty", groups)
	}
	channels, _ := s.ListChannels(ctx, "")
	if len(channels) != 0 {
		t.Errorf("ListChannels() = %v after group delete, want empty", channels)
	}
	count, _ := s.CountVideos(ctx)
	if count != 0 {
		t.Errorf("CountVideos() = %d after group delete, want 0", count)
	}
}

func TestListVideos_InsertionOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	videos := []*model.Video{
		testVideo("c", "Third seen first"),
		testVideo("a", "First seen second"),
		testVideo("b", "Second seen third"),
	}
	if err := s.SyncChannel(ctx, testChannel("demo"), videos); err != nil {
		t.Fatalf("SyncChannel() error = %v", err)
	}

	stored, err := s.ListVideos(ctx, "demo")
	if err != nil {
		t.Fatalf("ListVideos() error = %v", err)
	}
	wantOrder := []string{"c", "a", "b"}
	for i, v := range stored {
		if v.VideoID != wantOrder[i] {
			t.Errorf("video %d = %q, want %q (flattening order preserved)", i, v.VideoID, wantOrder[i])
		}
	}
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}
