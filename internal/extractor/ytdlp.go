package extractor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/Jeffail/gabs/v2"
	"github.com/rs/zerolog/log"
	"github.com/user/yt-archive-go/internal/config"
	"golang.org/x/time/rate"
)

// YtDlpExtractor implements Extractor by invoking the yt-dlp binary and
// parsing its JSON output. Calls are paced by a token-bucket limiter so
// bursts of item fetches cannot hammer the remote side regardless of the
// per-call sleep options.
type YtDlpExtractor struct {
	bin     string
	limiter *rate.Limiter
}

// NewYtDlpExtractor creates an extractor around the configured binary.
func NewYtDlpExtractor(cfg *config.ExtractorConfig) *YtDlpExtractor {
	return &YtDlpExtractor{
		bin:     cfg.Bin,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
	}
}

// ExtractTree fetches the flattened channel listing as a nested JSON tree.
func (e *YtDlpExtractor) ExtractTree(ctx context.Context, target string) (*gabs.Container, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	args := []string{
		"--dump-single-json",
		"--flat-playlist",
		"--skip-download",
		"--no-warnings",
		"--quiet",
		target,
	}

	log.Debug().Str("target", target).Msg("Extracting channel tree")

	return e.run(ctx, args)
}

// ExtractItem fetches one item, downloading media or writing sidecars per opts.
func (e *YtDlpExtractor) ExtractItem(ctx context.Context, url string, opts ItemOptions) (*gabs.Container, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	args := buildItemArgs(url, opts)

	log.Debug().Str("url", url).Bool("download", opts.Download).Msg("Extracting item")

	return e.run(ctx, args)
}

func (e *YtDlpExtractor) run(ctx context.Context, args []string) (*gabs.Container, error) {
	cmd := exec.CommandContext(ctx, e.bin, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return nil, fmt.Errorf("extractor failed: %s", detail)
	}

	tree, err := gabs.ParseJSON(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to parse extractor output: %w", err)
	}

	return tree, nil
}

// buildItemArgs translates ItemOptions into the extractor's command line.
func buildItemArgs(url string, opts ItemOptions) []string {
	args := []string{
		"--dump-single-json",
		"--no-simulate",
		"--ignore-no-formats-error",
		"--no-warnings",
		"--quiet",
	}

	if opts.Download {
		if opts.Format != "" {
			args = append(args, "--format", opts.Format)
		}
		if opts.Container != "" {
			args = append(args, "--merge-output-format", opts.Container)
		}
	} else {
		args = append(args, "--skip-download")
		if opts.WriteInfoJSON {
			args = append(args, "--write-info-json")
		}
		if opts.WriteDescription {
			args = append(args, "--write-description")
		}
		if opts.WriteThumbnail {
			args = append(args, "--write-thumbnail")
		}
	}

	if opts.OutputTemplate != "" {
		args = append(args, "--output", opts.OutputTemplate)
	}

	args = append(args,
		"--sleep-requests", strconv.Itoa(opts.SleepRequests),
		"--sleep-interval", strconv.Itoa(opts.SleepInterval),
		"--max-sleep-interval", strconv.Itoa(opts.MaxSleepInterval),
		"--retries", strconv.Itoa(opts.Retries),
		"--fragment-retries", strconv.Itoa(opts.FragmentRetries),
	)

	if opts.CookiesFromBrowser != "" {
		args = append(args, "--cookies-from-browser", opts.CookiesFromBrowser)
	}

	return append(args, url)
}
