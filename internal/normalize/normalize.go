package normalize

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Jeffail/gabs/v2"
	"github.com/user/yt-archive-go/internal/model"
)

const watchURLTemplate = "https://www.youtube.com/watch?v=%s"

// WatchURL reconstructs the canonical watch URL for a video identifier.
func WatchURL(videoID string) string {
	return fmt.Sprintf(watchURLTemplate, videoID)
}

// MediaExtensions are the container extensions probed when reconciling the
// catalog's is_downloaded flag against the filesystem.
var MediaExtensions = []string{".mkv", ".mp4", ".webm", ".m4a", ".mp3", ".opus"}

// ChannelIdentity carries the two identifiers every derived path is built from.
type ChannelIdentity struct {
	ChannelID string
	Handle    string
}

// SafeHandle returns the handle prefixed with "@", falling back to the
// channel id when the handle is unknown.
func (id ChannelIdentity) SafeHandle() string {
	handle := strings.TrimSpace(id.Handle)
	if handle == "" || handle == model.UnknownID {
		return "@" + id.ChannelID
	}
	if !strings.HasPrefix(handle, "@") {
		return "@" + handle
	}
	return handle
}

// Folder returns the channel's output folder name, "<channel_id> (<handle>)"
// or the bare channel id when the handle is unknown.
func (id ChannelIdentity) Folder() string {
	handle := strings.TrimSpace(id.Handle)
	if handle == "" || handle == model.UnknownID || handle == id.ChannelID {
		return id.ChannelID
	}
	return fmt.Sprintf("%s (%s)", id.ChannelID, handle)
}

// Subfolder returns the per-type subfolder name, "(<safe_handle>) <video_type>".
func (id ChannelIdentity) Subfolder(videoType model.VideoType) string {
	return fmt.Sprintf("(%s) %s", id.SafeHandle(), videoType)
}

// SanitizeFilename replaces characters illegal in file paths with underscores.
func SanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\\', '/', '*', '?', ':', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}

// FilepathBase derives the extension-less storage path for one item. It is a
// pure function of its inputs: identical inputs always produce an identical
// path.
func FilepathBase(id ChannelIdentity, videoType model.VideoType, uploadDate, title string) string {
	if uploadDate == "" {
		uploadDate = model.UnknownUploadDate
	}
	return filepath.Join(
		id.Folder(),
		id.Subfolder(videoType),
		uploadDate+"_"+SanitizeFilename(title),
	)
}

// Classify determines the video type from the extractor's live status and
// resolved URL. Live status takes priority over everything else; the type
// defaults to Videos when nothing else matches.
func Classify(liveStatus, url string) model.VideoType {
	switch liveStatus {
	case "is_live", "was_live", "is_upcoming":
		return model.TypeLives
	}
	if strings.Contains(url, "/shorts/") {
		return model.TypeShorts
	}
	return model.TypeVideos
}

// Flatten walks the nested metadata tree and returns its leaf entries in
// order. A node carrying sub-entries is recursed into, a node representing a
// single item is a leaf, and null or unrecognizable nodes are skipped.
func Flatten(root *gabs.Container) []*gabs.Container {
	var leaves []*gabs.Container
	if root == nil {
		return leaves
	}
	collectLeaves(root.S("entries"), &leaves)
	return leaves
}

func collectLeaves(entries *gabs.Container, leaves *[]*gabs.Container) {
	if entries == nil {
		return
	}
	for _, entry := range entries.Children() {
		if entry == nil || entry.Data() == nil {
			continue
		}
		if entry.Exists("entries") {
			collectLeaves(entry.S("entries"), leaves)
			continue
		}
		if isLeaf(entry) {
			*leaves = append(*leaves, entry)
		}
	}
}

func isLeaf(entry *gabs.Container) bool {
	switch StringField(entry, "_type") {
	case "url":
		return true
	case "playlist", "multi_video":
		return false
	}
	return entry.Exists("id") && entry.Exists("url")
}

// Normalize flattens a channel's metadata tree into catalog rows. baseDir is
// the archive root used to reconcile is_downloaded against files already on
// disk; on-disk truth wins for that flag during sync.
//
// Items missing an identifier get a synthetic unknown_<index> key, which is
// stable only within a single pass. Items whose URL cannot be reconstructed
// from their identifier are dropped.
func Normalize(root *gabs.Container, id ChannelIdentity, baseDir string) []*model.Video {
	leaves := Flatten(root)
	videos := make([]*model.Video, 0, len(leaves))

	for i, leaf := range leaves {
		videoID := StringField(leaf, "id")
		synthetic := videoID == ""
		if synthetic {
			videoID = fmt.Sprintf("unknown_%d", i)
		}

		url := StringField(leaf, "url")
		if url == "" {
			if synthetic {
				continue
			}
			url = WatchURL(videoID)
		}

		videoType := Classify(StringField(leaf, "live_status"), url)
		uploadDate := StringField(leaf, "upload_date")
		if uploadDate == "" {
			uploadDate = model.UnknownUploadDate
		}
		title := StringField(leaf, "title")
		base := FilepathBase(id, videoType, uploadDate, title)

		videos = append(videos, &model.Video{
			VideoID:      videoID,
			Title:        title,
			URL:          url,
			ViewCount:    IntField(leaf, "view_count"),
			Thumbnails:   ThumbnailURLs(leaf),
			VideoType:    videoType,
			UploadDate:   uploadDate,
			Filepath:     base,
			IsDownloaded: ProbeDownloaded(baseDir, base),
		})
	}

	return videos
}

// ProbeDownloaded reports whether a media file with a known extension exists
// at the item's base path.
func ProbeDownloaded(baseDir, filepathBase string) bool {
	if baseDir == "" || filepathBase == "" {
		return false
	}
	for _, ext := range MediaExtensions {
		if _, err := os.Stat(filepath.Join(baseDir, filepathBase+ext)); err == nil {
			return true
		}
	}
	return false
}

// ChannelFromTree builds the channel row from the tree's root fields. Every
// accessor defaults rather than assumes presence.
func ChannelFromTree(root *gabs.Container, groupName, url string) *model.Channel {
	channelID := StringField(root, "channel_id")
	if channelID == "" {
		channelID = StringField(root, "id")
	}
	if channelID == "" {
		channelID = model.UnknownID
	}

	handle := StringField(root, "uploader_id")
	if handle == "" {
		handle = StringField(root, "id")
	}

	title := StringField(root, "title")
	if title == "" {
		title = StringField(root, "channel")
	}
	if title == "" {
		title = "Unknown"
	}

	followers := IntField(root, "channel_follower_count")
	if followers == 0 {
		followers = IntField(root, "subscriber_count")
	}

	return &model.Channel{
		Name:          title,
		GroupName:     groupName,
		Handle:        handle,
		ChannelID:     channelID,
		URL:           url,
		Title:         title,
		FollowerCount: followers,
		Description:   StringField(root, "description"),
		Tags:          StringSliceField(root, "tags"),
		Thumbnails:    ThumbnailURLs(root),
	}
}

// StringField reads an optional string field, returning "" when absent or of
// the wrong type.
func StringField(c *gabs.Container, path string) string {
	if c == nil {
		return ""
	}
	v, _ := c.S(path).Data().(string)
	return v
}

// IntField reads an optional numeric field, tolerating the JSON decoder's
// float64 representation.
func IntField(c *gabs.Container, path string) int64 {
	if c == nil {
		return 0
	}
	switch v := c.S(path).Data().(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// StringSliceField reads an optional array of strings.
func StringSliceField(c *gabs.Container, path string) []string {
	if c == nil {
		return nil
	}
	arr := c.S(path)
	if arr == nil {
		return nil
	}
	var out []string
	for _, child := range arr.Children() {
		if s, ok := child.Data().(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// ThumbnailURLs extracts the url field from each entry of a thumbnails array.
func ThumbnailURLs(c *gabs.Container) []string {
	if c == nil {
		return nil
	}
	thumbs := c.S("thumbnails")
	if thumbs == nil {
		return nil
	}
	var urls []string
	for _, thumb := range thumbs.Children() {
		if u := StringField(thumb, "url"); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}
