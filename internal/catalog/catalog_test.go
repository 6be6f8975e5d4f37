package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/Jeffail/gabs/v2"
	"github.com/user/yt-archive-go/internal/extractor"
	"github.com/user/yt-archive-go/internal/model"
	"github.com/user/yt-archive-go/internal/store"
)

// syncRecorder implements store.Store and records SyncChannel calls.
type syncRecorder struct {
	channels map[string]*model.Channel
	synced   []syncCall
	syncErr  error
}

type syncCall struct {
	channel *model.Channel
	videos  []*model.Video
}

func newSyncRecorder() *syncRecorder {
	return &syncRecorder{channels: make(map[string]*model.Channel)}
}

func (s *syncRecorder) CreateGroup(context.Context, string) error    { return nil }
func (s *syncRecorder) ListGroups(context.Context) ([]string, error) { return nil, nil }
func (s *syncRecorder) DeleteGroup(context.Context, string) error    { return nil }

func (s *syncRecorder) UpsertChannel(_ context.Context, channel *model.Channel) error {
	s.channels[channel.Name] = channel
	return nil
}

func (s *syncRecorder) GetChannel(_ context.Context, name string) (*model.Channel, error) {
	channel, ok := s.channels[name]
	if !ok {
		return nil, store.ErrNotFound
	}
	return channel, nil
}

func (s *syncRecorder) ListChannels(context.Context, string) ([]*model.Channel, error) {
	return nil, nil
}

func (s *syncRecorder) DeleteChannel(context.Context, string) error { return nil }

func (s *syncRecorder) SyncChannel(_ context.Context, channel *model.Channel, videos []*model.Video) error {
	if s.syncErr != nil {
		return s.syncErr
	}
	s.synced = append(s.synced, syncCall{channel: channel, videos: videos})
	s.channels[channel.Name] = channel
	return nil
}

func (s *syncRecorder) ListVideos(context.Context, string) ([]*model.Video, error) {
	return nil, nil
}

func (s *syncRecorder) CountVideos(context.Context) (int64, error) { return 0, nil }

func (s *syncRecorder) MarkDownloaded(context.Context, string, string) error { return nil }

func (s *syncRecorder) MarkMetadataFetched(context.Context, string, string, *model.Enrichment) error {
	return nil
}

func (s *syncRecorder) Ping(context.Context) error { return nil }
func (s *syncRecorder) Close() error               { return nil }

// treeExtractor returns a canned tree for every target.
type treeExtractor struct {
	tree    string
	err     error
	targets []string
}

func (e *treeExtractor) ExtractTree(_ context.Context, target string) (*gabs.Container, error) {
	e.targets = append(e.targets, target)
	if e.err != nil {
		return nil, e.err
	}
	return gabs.ParseJSON([]byte(e.tree))
}

func (e *treeExtractor) ExtractItem(context.Context, string, extractor.ItemOptions) (*gabs.Container, error) {
	return nil, errors.New("not used in catalog tests")
}

type stubPageInfo struct {
	info   *extractor.PageInfo
	err    error
	called bool
}

func (p *stubPageInfo) FetchPageInfo(context.Context, string) (*extractor.PageInfo, error) {
	p.called = true
	return p.info, p.err
}

const demoTree = `{
	"channel_id": "UC1",
	"uploader_id": "@demo",
	"title": "Demo Channel",
	"entries": [
		{"_type": "url", "id": "v1", "url": "https://www.youtube.com/watch?v=v1",
		 "title": "First", "upload_date": "20230101"},
		{"_type": "url", "id": "s1", "url": "https://www.youtube.com/shorts/s1", "title": "Clip"}
	]
}`

func TestNormalizeChannelInput(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.youtube.com/@demo", "https://www.youtube.com/@demo"},
		{"http://example.com/channel", "http://example.com/channel"},
		{"@demo", "https://www.youtube.com/@demo"},
		{"demo", "https://www.youtube.com/@demo"},
		{"  demo  ", "https://www.youtube.com/@demo"},
	}
	for _, tt := range tests {
		if got := NormalizeChannelInput(tt.in); got != tt.want {
			t.Errorf("NormalizeChannelInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAddChannel(t *testing.T) {
	st := newSyncRecorder()
	ex := &treeExtractor{tree: demoTree}
	svc := NewService(st, ex, nil, t.TempDir())

	name, err := svc.AddChannel(context.Background(), "Tech", "@demo")
	if err != nil {
		t.Fatalf("AddChannel() error = %v", err)
	}
	if name != "Demo Channel" {
		t.Errorf("AddChannel() name = %q, want Demo Channel", name)
	}
	if len(ex.targets) != 1 || ex.targets[0] != "https://www.youtube.com/@demo" {
		t.Errorf("extraction targets = %v", ex.targets)
	}

	if len(st.synced) != 1 {
		t.Fatalf("SyncChannel called %d times, want 1", len(st.synced))
	}
	call := st.synced[0]
	if call.channel.GroupName != "Tech" || call.channel.ChannelID != "UC1" {
		t.Errorf("synced channel = %+v", call.channel)
	}
	if len(call.videos) != 2 {
		t.Fatalf("synced %d videos, want 2", len(call.videos))
	}
	if call.videos[0].VideoType != model.TypeVideos || call.videos[1].VideoType != model.TypeShorts {
		t.Errorf("video types = %v, %v", call.videos[0].VideoType, call.videos[1].VideoType)
	}
}

func TestAddChannel_EmptyInput(t *testing.T) {
	svc := NewService(newSyncRecorder(), &treeExtractor{tree: demoTree}, nil, "")
	if _, err := svc.AddChannel(context.Background(), "Tech", "   "); err == nil {
		t.Error("AddChannel() with blank input succeeded, want error")
	}
}

func TestAddChannel_ExtractionFailureLeavesStoreUntouched(t *testing.T) {
	st := newSyncRecorder()
	ex := &treeExtractor{err: errors.New("network down")}
	svc := NewService(st, ex, nil, "")

	_, err := svc.AddChannel(context.Background(), "Tech", "@demo")
	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("AddChannel() error = %v, want ErrExtraction", err)
	}
	if len(st.synced) != 0 {
		t.Error("store written despite extraction failure")
	}
}

func TestAddChannel_StorageFailure(t *testing.T) {
	st := newSyncRecorder()
	st.syncErr = errors.New("disk full")
	svc := NewService(st, &treeExtractor{tree: demoTree}, nil, "")

	_, err := svc.AddChannel(context.Background(), "Tech", "@demo")
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("AddChannel() error = %v, want ErrStorage", err)
	}
}

func TestAddChannel_PageFallback(t *testing.T) {
	st := newSyncRecorder()
	ex := &treeExtractor{tree: `{"channel_id": "UC1", "uploader_id": "@demo"}`}
	page := &stubPageInfo{info: &extractor.PageInfo{
		Title:        "Scraped Title",
		Description:  "scraped about",
		ThumbnailURL: "https://i.ytimg.com/c.jpg",
	}}
	svc := NewService(st, ex, page, "")

	name, err := svc.AddChannel(context.Background(), "Tech", "@demo")
	if err != nil {
		t.Fatalf("AddChannel() error = %v", err)
	}
	if !page.called {
		t.Fatal("page scrape not attempted for unknown title")
	}
	if name != "Scraped Title" {
		t.Errorf("name = %q, want scraped title", name)
	}
	channel := st.synced[0].channel
	if channel.Description != "scraped about" {
		t.Errorf("Description = %q", channel.Description)
	}
	if len(channel.Thumbnails) != 1 {
		t.Errorf("Thumbnails = %v", channel.Thumbnails)
	}
}

func TestAddChannel_PageFallbackSkippedWhenTitleKnown(t *testing.T) {
	st := newSyncRecorder()
	page := &stubPageInfo{info: &extractor.PageInfo{Title: "Scraped"}}
	svc := NewService(st, &treeExtractor{tree: demoTree}, page, "")

	if _, err := svc.AddChannel(context.Background(), "Tech", "@demo"); err != nil {
		t.Fatalf("AddChannel() error = %v", err)
	}
	if page.called {
		t.Error("page scraped although the tree carried a title")
	}
}

func TestSyncChannel_KeepsCatalogName(t *testing.T) {
	st := newSyncRecorder()
	st.channels["Old Name"] = &model.Channel{
		Name:      "Old Name",
		GroupName: "Tech",
		URL:       "https://www.youtube.com/@demo",
		Handle:    "@demo",
		ChannelID: "UC1",
	}
	ex := &treeExtractor{tree: demoTree}
	svc := NewService(st, ex, nil, t.TempDir())

	if err := svc.SyncChannel(context.Background(), "Old Name"); err != nil {
		t.Fatalf("SyncChannel() error = %v", err)
	}

	if len(st.synced) != 1 {
		t.Fatalf("SyncChannel called %d times, want 1", len(st.synced))
	}
	channel := st.synced[0].channel
	// Videos key on channel name, so the catalog name stays stable even
	// though the remote title differs.
	if channel.Name != "Old Name" {
		t.Errorf("synced name = %q, want Old Name", channel.Name)
	}
	if channel.Title != "Demo Channel" {
		t.Errorf("synced title = %q, want refreshed remote title", channel.Title)
	}
}

func TestSyncChannel_UnknownChannel(t *testing.T) {
	svc := NewService(newSyncRecorder(), &treeExtractor{tree: demoTree}, nil, "")
	err := svc.SyncChannel(context.Background(), "nope")
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("SyncChannel() error = %v, want ErrStorage", err)
	}
}
