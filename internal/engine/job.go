package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Jeffail/gabs/v2"
	"github.com/user/yt-archive-go/internal/extractor"
	"github.com/user/yt-archive-go/internal/model"
	"github.com/user/yt-archive-go/internal/normalize"
	"github.com/user/yt-archive-go/internal/store"
)

// ErrStorage marks a catalog failure that aborts the current job, as opposed
// to a per-item network failure which is only logged.
var ErrStorage = errors.New("storage failure")

// Mode selects what an acquisition job does per item.
type Mode int

const (
	// ModeMetadata fetches descriptive fields and sidecar files without the
	// media stream.
	ModeMetadata Mode = iota
	// ModeDownload retrieves the media stream.
	ModeDownload
)

// String returns the mode name used in logs and notifications.
func (m Mode) String() string {
	if m == ModeDownload {
		return "download"
	}
	return "metadata"
}

func (m Mode) logFileName(safeHandle string) string {
	if m == ModeDownload {
		return safeHandle + " Download_Logs.txt"
	}
	return safeHandle + " Logs.txt"
}

// Config holds one job submission's parameters. Politeness values are passed
// through to the extractor per invocation; the job adds no retry logic of
// its own.
type Config struct {
	Format             string
	Container          string
	SleepRequests      int
	SleepInterval      int
	MaxSleepInterval   int
	Retries            int
	FragmentRetries    int
	SkipAcquired       bool
	CookiesFromBrowser string
}

// Report summarizes one channel's job outcome.
type Report struct {
	Channel   string
	Mode      Mode
	Processed int
	Total     int
	Failed    int
	Skipped   int
	Stopped   bool
}

// Notifier receives a report when a channel's job finishes or is stopped.
type Notifier interface {
	NotifyJobDone(report Report) error
}

// AcquisitionJob runs one channel's worth of work in one mode. It implements
// JobRunner for the worker pool.
type AcquisitionJob struct {
	store     store.Store
	extractor extractor.Extractor
	baseDir   string
	mode      Mode
	cfg       Config
	sinks     Sinks
	notifier  Notifier
}

// NewAcquisitionJob creates a job runner. baseDir is the archive root under
// which channel folders and log files are created.
func NewAcquisitionJob(st store.Store, ex extractor.Extractor, baseDir string, mode Mode, cfg Config, sinks Sinks) *AcquisitionJob {
	return &AcquisitionJob{
		store:     st,
		extractor: ex,
		baseDir:   baseDir,
		mode:      mode,
		cfg:       cfg,
		sinks:     sinks,
	}
}

// SetNotifier attaches an optional job-completion notifier.
func (j *AcquisitionJob) SetNotifier(n Notifier) {
	j.notifier = n
}

// dirGroup keeps one output directory's items in flattening order. The
// extractor is invoked with a directory-scoped naming template, so items of
// different types must not share a group.
type dirGroup struct {
	dir   string
	items []*model.Video
}

// Run executes the job for one channel. Per-item extractor failures are
// logged and processing continues; storage failures abort the job.
func (j *AcquisitionJob) Run(ctx context.Context, w *Worker, channelName string) error {
	channel, err := j.store.GetChannel(ctx, channelName)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	videos, err := j.store.ListVideos(ctx, channelName)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	identity := normalize.ChannelIdentity{
		ChannelID: channel.ChannelID,
		Handle:    channel.Handle,
	}
	targetDir := filepath.Join(j.baseDir, identity.Folder())
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return fmt.Errorf("failed to create channel folder: %w", err)
	}

	jl := newJobLogger(j.sinks, filepath.Join(targetDir, j.mode.logFileName(identity.SafeHandle())))
	defer jl.Close()

	jl.Log(j.startBanner(channelName, len(videos)))

	groups, skipped := j.groupItems(videos, identity, jl)
	total := 0
	for _, g := range groups {
		total += len(g.items)
	}

	report := Report{Channel: channelName, Mode: j.mode, Total: total, Skipped: skipped}

	if total == 0 {
		jl.Log(j.nothingToDoLine())
		j.sinks.Progress("Finished", 0, 0)
		j.notify(report)
		return nil
	}

	processed := 0
	for _, group := range groups {
		opts := j.itemOptions(group.dir)

		for _, video := range group.items {
			if w != nil && w.Stopping() {
				jl.Log("Worker stopped by user.")
				report.Processed = processed
				report.Stopped = true
				j.notify(report)
				return ErrStopped
			}

			jl.Log(j.itemStartLine(video.Title))
			j.sinks.Progress(j.itemProgressMessage(video.Title), processed, total)

			info, err := j.extractor.ExtractItem(ctx, video.URL, opts)
			if err != nil {
				jl.Log(fmt.Sprintf("Error on %s: %v", video.URL, err))
				report.Failed++
			} else if err := j.recordSuccess(ctx, channelName, video, info, jl); err != nil {
				report.Processed = processed
				j.notify(report)
				return err
			}

			processed++
		}
	}

	jl.Log(fmt.Sprintf("--- Finished %s ---", channelName))
	j.sinks.Progress("Finished", total, total)
	report.Processed = processed
	j.notify(report)
	return nil
}

// groupItems applies the skip rule, repairs missing URLs and paths, and
// groups the remaining items by output directory, preserving first-seen
// directory order and flattening order within each directory.
func (j *AcquisitionJob) groupItems(videos []*model.Video, identity normalize.ChannelIdentity, jl *jobLogger) ([]*dirGroup, int) {
	var groups []*dirGroup
	index := make(map[string]*dirGroup)
	skipped := 0

	for _, video := range videos {
		if j.cfg.SkipAcquired && j.alreadyAcquired(video) {
			jl.Log(fmt.Sprintf("Skipped %s - %s", video.Title, j.skipReason()))
			skipped++
			continue
		}

		if video.URL == "" {
			if video.VideoID == "" || strings.HasPrefix(video.VideoID, "unknown_") {
				continue
			}
			video.URL = normalize.WatchURL(video.VideoID)
		}

		if video.Filepath == "" {
			videoType := video.VideoType
			if videoType == "" {
				videoType = model.TypeVideos
			}
			video.Filepath = normalize.FilepathBase(identity, videoType, video.UploadDate, video.Title)
		}

		dir := filepath.Dir(filepath.Join(j.baseDir, video.Filepath))
		group, ok := index[dir]
		if !ok {
			group = &dirGroup{dir: dir}
			index[dir] = group
			groups = append(groups, group)
		}
		group.items = append(group.items, video)
	}

	return groups, skipped
}

func (j *AcquisitionJob) alreadyAcquired(video *model.Video) bool {
	if j.mode == ModeDownload {
		return video.IsDownloaded
	}
	return video.IsMetadataDownloaded
}

// recordSuccess updates the catalog after one successful item operation.
// Download mode sets is_downloaded only; metadata mode sets the flag plus
// enrichment fields.
func (j *AcquisitionJob) recordSuccess(ctx context.Context, channelName string, video *model.Video, info *gabs.Container, jl *jobLogger) error {
	if j.mode == ModeDownload {
		if err := j.store.MarkDownloaded(ctx, channelName, video.VideoID); err != nil {
			jl.Log(fmt.Sprintf("Error recording download of %s: %v", video.Title, err))
			return fmt.Errorf("%w: %v", ErrStorage, err)
		}
		jl.Log(fmt.Sprintf("SUCCESS: Completed %s", video.Title))
		return nil
	}

	enrichment := enrichmentFromInfo(info, video.Filepath)
	if err := j.store.MarkMetadataFetched(ctx, channelName, video.VideoID, enrichment); err != nil {
		jl.Log(fmt.Sprintf("Error recording metadata of %s: %v", video.Title, err))
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

func enrichmentFromInfo(info *gabs.Container, filepathBase string) *model.Enrichment {
	enrichment := &model.Enrichment{
		Duration:     normalize.IntField(info, "duration"),
		Description:  normalize.StringField(info, "description"),
		Tags:         normalize.StringSliceField(info, "tags"),
		LikeCount:    normalize.IntField(info, "like_count"),
		CommentCount: normalize.IntField(info, "comment_count"),
	}
	if filepathBase != "" {
		enrichment.ThumbFilepath = filepathBase + ".webp"
	}
	return enrichment
}

// itemOptions builds the extractor options for one directory group. The
// output template is directory-scoped so every item of the group lands in
// the right folder.
func (j *AcquisitionJob) itemOptions(dir string) extractor.ItemOptions {
	opts := extractor.ItemOptions{
		Download:           j.mode == ModeDownload,
		OutputTemplate:     dir + "/%(upload_date|00000000)s_%(title)s.%(ext)s",
		SleepRequests:      j.cfg.SleepRequests,
		SleepInterval:      j.cfg.SleepInterval,
		MaxSleepInterval:   j.cfg.MaxSleepInterval,
		Retries:            j.cfg.Retries,
		FragmentRetries:    j.cfg.FragmentRetries,
		CookiesFromBrowser: j.cfg.CookiesFromBrowser,
	}
	if j.mode == ModeDownload {
		opts.Format = j.cfg.Format
		opts.Container = j.cfg.Container
	} else {
		opts.WriteInfoJSON = true
		opts.WriteDescription = true
		opts.WriteThumbnail = true
	}
	return opts
}

func (j *AcquisitionJob) startBanner(channelName string, count int) string {
	if j.mode == ModeDownload {
		return fmt.Sprintf("--- Starting media download for %d videos from %s ---", count, channelName)
	}
	return fmt.Sprintf("--- Starting metadata extraction for %d videos from %s ---", count, channelName)
}

func (j *AcquisitionJob) nothingToDoLine() string {
	if j.mode == ModeDownload {
		return "No videos required downloading (all skipped)."
	}
	return "No videos required processing (all skipped)."
}

func (j *AcquisitionJob) skipReason() string {
	if j.mode == ModeDownload {
		return "Media already downloaded."
	}
	return "Metadata already downloaded."
}

func (j *AcquisitionJob) itemStartLine(title string) string {
	if j.mode == ModeDownload {
		return fmt.Sprintf("Downloading Media: %s", title)
	}
	return fmt.Sprintf("Extracting metadata for: %s", title)
}

func (j *AcquisitionJob) itemProgressMessage(title string) string {
	if j.mode == ModeDownload {
		return fmt.Sprintf("Downloading %s...", title)
	}
	return fmt.Sprintf("Extracting %s...", title)
}

func (j *AcquisitionJob) notify(report Report) {
	if j.notifier == nil {
		return
	}
	if err := j.notifier.NotifyJobDone(report); err != nil {
		j.sinks.Log(fmt.Sprintf("Notification failed: %v", err))
	}
}
