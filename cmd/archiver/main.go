package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/user/yt-archive-go/internal/catalog"
	"github.com/user/yt-archive-go/internal/config"
	"github.com/user/yt-archive-go/internal/engine"
	"github.com/user/yt-archive-go/internal/extractor"
	"github.com/user/yt-archive-go/internal/notify"
	"github.com/user/yt-archive-go/internal/store"
)

const usage = `usage: archiver <command> [args]

commands:
  groups                       list groups
  add-group <name>             create a group
  del-group <name>             delete a group and its channels
  channels [group]             list channels, optionally by group
  add-channel <group> <url>    add a channel and sync its catalog
  del-channel <name>           delete a channel and its videos
  sync <channel>...            re-sync existing channels
  fetch <channel>...           fetch per-item metadata for channels
  download <channel>...        download media for channels
`

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	if err := os.MkdirAll(cfg.Archive.MetadataDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create metadata directory")
	}

	catalogStore, err := store.NewSQLiteStore(&cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open catalog database")
	}
	defer catalogStore.Close()

	ytdlp := extractor.NewYtDlpExtractor(&cfg.Extractor)
	webInfo := extractor.NewWebInfoClient()
	catalogService := catalog.NewService(catalogStore, ytdlp, webInfo, cfg.Archive.MetadataDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := &application{
		cfg:     cfg,
		store:   catalogStore,
		catalog: catalogService,
		ytdlp:   ytdlp,
	}

	if err := app.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		log.Fatal().Err(err).Str("command", os.Args[1]).Msg("Command failed")
	}
}

type application struct {
	cfg     *config.Config
	store   store.Store
	catalog *catalog.Service
	ytdlp   extractor.Extractor
}

func (a *application) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "groups":
		return a.listGroups(ctx)
	case "add-group":
		if len(args) != 1 {
			return fmt.Errorf("add-group requires exactly one name")
		}
		return a.store.CreateGroup(ctx, args[0])
	case "del-group":
		if len(args) != 1 {
			return fmt.Errorf("del-group requires exactly one name")
		}
		return a.store.DeleteGroup(ctx, args[0])
	case "channels":
		group := ""
		if len(args) > 0 {
			group = args[0]
		}
		return a.listChannels(ctx, group)
	case "add-channel":
		if len(args) != 2 {
			return fmt.Errorf("add-channel requires a group and a URL or handle")
		}
		name, err := a.catalog.AddChannel(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		log.Info().Str("channel", name).Msg("Channel added")
		return nil
	case "del-channel":
		if len(args) != 1 {
			return fmt.Errorf("del-channel requires exactly one name")
		}
		return a.store.DeleteChannel(ctx, args[0])
	case "sync":
		if len(args) == 0 {
			return fmt.Errorf("sync requires at least one channel name")
		}
		for _, name := range args {
			if err := a.catalog.SyncChannel(ctx, name); err != nil {
				return err
			}
		}
		return nil
	case "fetch":
		if len(args) == 0 {
			return fmt.Errorf("fetch requires at least one channel name")
		}
		return a.runJobs(ctx, engine.ModeMetadata, args)
	case "download":
		if len(args) == 0 {
			return fmt.Errorf("download requires at least one channel name")
		}
		return a.runJobs(ctx, engine.ModeDownload, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *application) listGroups(ctx context.Context) error {
	groups, err := a.store.ListGroups(ctx)
	if err != nil {
		return err
	}
	for _, name := range groups {
		fmt.Println(name)
	}
	return nil
}

func (a *application) listChannels(ctx context.Context, group string) error {
	channels, err := a.store.ListChannels(ctx, group)
	if err != nil {
		return err
	}
	for _, channel := range channels {
		fmt.Printf("%s\t%s\t%s\n", channel.GroupName, channel.Name, channel.Handle)
	}
	return nil
}

// runJobs drives one acquisition batch: enqueue the channels, spawn the
// configured number of workers and wait for them to drain the queue. SIGINT
// raises every worker's stop flag; the in-flight item is allowed to finish.
func (a *application) runJobs(ctx context.Context, mode engine.Mode, channels []string) error {
	jobCfg := engine.Config{
		Format:             a.cfg.Job.Format,
		Container:          a.cfg.Job.Container,
		SleepRequests:      a.cfg.Job.SleepRequests,
		SleepInterval:      a.cfg.Job.SleepInterval,
		MaxSleepInterval:   a.cfg.Job.MaxSleepInterval,
		Retries:            a.cfg.Job.Retries,
		FragmentRetries:    a.cfg.Job.FragmentRetries,
		SkipAcquired:       a.cfg.Job.SkipAcquired,
		CookiesFromBrowser: a.cfg.Job.CookiesFromBrowser,
	}

	sinks := engine.Sinks{
		OnLog: func(text string) {
			log.Info().Str("source", "job").Msg(text)
		},
		OnProgress: func(message string, processed, total int) {
			log.Info().Int("processed", processed).Int("total", total).Msg(message)
		},
	}

	job := engine.NewAcquisitionJob(a.store, a.ytdlp, a.cfg.Archive.MetadataDir, mode, jobCfg, sinks)

	if a.cfg.Telegram.Token != "" {
		notifier, err := notify.NewTelegramNotifier(a.cfg.Telegram.Token, a.cfg.Telegram.ChatID)
		if err != nil {
			log.Warn().Err(err).Msg("Telegram notifier disabled")
		} else {
			job.SetNotifier(notifier)
		}
	}

	pool := engine.NewPool(job)
	pool.Submit(ctx, channels, a.cfg.Job.Workers)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	done := make(chan struct{})
	go func() {
		pool.Wait()
		close(done)
	}()

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Stopping workers")
		pool.StopAll()
		<-done
	case <-done:
	}

	for _, w := range pool.Workers() {
		log.Info().Int("worker", w.ID()).Str("status", w.Status().String()).Msg("Worker finished")
	}
	return nil
}
