package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/mediafetch/internal/config"
	"github.com/timmy/mediafetch/internal/domain"
	"github.com/timmy/mediafetch/internal/fetcher"
	"github.com/timmy/mediafetch/internal/logger"
	"github.com/timmy/mediafetch/internal/service"
	"github.com/urfave/cli/v3"
)

func main() {
	// Interrupting stops watching; the downloader is left to finish on its own
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.SetDefaultLogger(logger.New(&logger.Options{
		Level:       "warn",
		Format:      "text",
		ServiceName: "mediafetch-cli",
	}))

	app := &cli.Command{
		Name:      "fetch",
		Usage:     "Download one URL with the configured downloader and show its progress",
		ArgsUsage: "URL",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "audio",
				Usage: "Extract audio only (mp3)",
			},
			&cli.BoolFlag{
				Name:  "playlist",
				Usage: "Download the whole playlist",
			},
			&cli.BoolFlag{
				Name:  "log",
				Usage: "Print the full downloader output when done",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to config file",
			},
		},
		Action: fetchAction,
	}

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func fetchAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 {
		return fmt.Errorf("expected exactly one URL, got %d arguments", cmd.NArg())
	}

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	req := &service.DownloadRequest{
		URL:          cmd.Args().First(),
		DownloadType: string(domain.DownloadTypeVideo),
		Playlist:     cmd.Bool("playlist"),
	}
	if cmd.Bool("audio") {
		req.DownloadType = string(domain.DownloadTypeAudio)
	}

	store := service.NewJobStore()
	sweeper := service.NewSweeper(store, cfg.Downloader.Retention)
	defer sweeper.Stop()

	runner := service.NewRunner(store, sweeper, fetcher.NewExecLauncher(cfg.Downloader.Env...), &service.RunnerConfig{
		Binary:    cfg.Downloader.Binary,
		OutputDir: cfg.Downloader.OutputDir,
		ExtraArgs: cfg.Downloader.ExtraArgs,
	})
	downloadService := service.NewDownloadService(
		store,
		runner,
		service.NewPublisher(store, cfg.Downloader.PollInterval),
		nil,
		&service.DownloadServiceConfig{OutputDir: cfg.Downloader.OutputDir},
	)

	id, err := downloadService.Submit(ctx, req)
	if err != nil {
		return err
	}

	start := time.Now()
	var final domain.ProgressState
	for state := range downloadService.Progress(ctx, id) {
		final = state
		fmt.Printf("\r%-10s %6.1f%%  %-12s eta %-8s size %-10s", state.Status, state.Percent, state.Speed, state.ETA, state.Size)
	}
	fmt.Println()

	if !final.Status.IsTerminal() {
		return fmt.Errorf("stopped watching download %s", id)
	}

	if cmd.Bool("log") {
		lines, err := downloadService.Logs(id)
		if err != nil {
			return err
		}
		for _, line := range lines {
			fmt.Println(line)
		}
	}

	fmt.Printf("%s in %s: %s\n", final.Status, time.Since(start).Round(time.Second), final.Message)
	if final.Status != domain.DownloadStatusCompleted {
		return fmt.Errorf("download %s failed", id)
	}
	return nil
}
