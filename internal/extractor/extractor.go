package extractor

import (
	"context"

	"github.com/Jeffail/gabs/v2"
)

// Extractor defines the interface for the external extraction/download
// capability. ExtractTree is side-effect-free; ExtractItem may download media
// or write sidecar files depending on the options.
//
// Failures from ExtractItem are recoverable at item granularity: callers log
// them and continue. Retry behavior is configured into the call via
// ItemOptions, never added on top.
type Extractor interface {
	// ExtractTree fetches the nested metadata tree for a channel URL or handle.
	ExtractTree(ctx context.Context, target string) (*gabs.Container, error)

	// ExtractItem fetches one item's metadata, optionally downloading its
	// media or writing sidecar files per opts.
	ExtractItem(ctx context.Context, url string, opts ItemOptions) (*gabs.Container, error)
}

// ItemOptions configures one ExtractItem invocation. Politeness values are
// passed through to the extractor verbatim.
type ItemOptions struct {
	// Download retrieves the media stream; false fetches metadata only.
	Download bool

	// Format selector and merge container, used only when downloading.
	Format    string
	Container string

	// OutputTemplate is the directory-scoped output naming template.
	OutputTemplate string

	// Sidecar files, used only for metadata fetches.
	WriteInfoJSON    bool
	WriteDescription bool
	WriteThumbnail   bool

	// Politeness configuration.
	SleepRequests    int
	SleepInterval    int
	MaxSleepInterval int
	Retries          int
	FragmentRetries  int

	// CookiesFromBrowser reuses an existing browser session when non-empty,
	// e.g. "firefox".
	CookiesFromBrowser string
}
