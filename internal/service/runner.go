package service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/timmy/mediafetch/internal/domain"
	"github.com/timmy/mediafetch/internal/fetcher"
	"github.com/timmy/mediafetch/internal/logger"
)

// Messages recorded by the runner.
const (
	MessageStarting  = "Starting download..."
	MessageCompleted = "Download completed successfully!"
)

// FinishHook is notified once a job has reached its terminal state.
// Hook errors are logged and never change the job's state.
type FinishHook interface {
	Name() string
	OnFinish(ctx context.Context, job *domain.FinishedDownload) error
}

// RunnerConfig holds configuration for the job runner.
type RunnerConfig struct {
	Binary        string
	OutputDir     string
	ExtraArgs     []string
	MaxConcurrent int // 0 means unbounded
}

// Runner launches one downloader process per job and folds its output into
// the job store.
type Runner struct {
	store    *JobStore
	sweeper  *Sweeper
	launcher fetcher.Launcher
	hooks    []FinishHook
	cfg      RunnerConfig
	slots    chan struct{}
	now      func() time.Time
	wg       sync.WaitGroup
	inFlight atomic.Int32
}

// NewRunner creates a new runner.
func NewRunner(store *JobStore, sweeper *Sweeper, launcher fetcher.Launcher, cfg *RunnerConfig, hooks ...FinishHook) *Runner {
	c := *cfg
	if c.Binary == "" {
		c.Binary = fetcher.DefaultBinary
	}
	r := &Runner{
		store:    store,
		sweeper:  sweeper,
		launcher: launcher,
		hooks:    hooks,
		cfg:      c,
		now:      time.Now,
	}
	if c.MaxConcurrent > 0 {
		r.slots = make(chan struct{}, c.MaxConcurrent)
	}
	return r
}

// Start registers the job in the store and runs it in the background.
// It returns as soon as the job's starting state is visible.
func (r *Runner) Start(id, url string, opts domain.DownloadOptions) {
	r.store.Create(id, domain.ProgressState{
		Status:  domain.DownloadStatusStarting,
		Message: MessageStarting,
	})

	r.wg.Add(1)
	r.inFlight.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.inFlight.Add(-1)
		r.execute(id, url, opts)
	}()
}

// Run registers and runs the job, blocking until it has finished.
func (r *Runner) Run(id, url string, opts domain.DownloadOptions) domain.ProgressState {
	r.store.Create(id, domain.ProgressState{
		Status:  domain.DownloadStatusStarting,
		Message: MessageStarting,
	})
	return r.execute(id, url, opts)
}

// Wait blocks until every job started with Start has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// InFlight returns the number of jobs started with Start whose process or
// finish hooks are still running.
func (r *Runner) InFlight() int {
	return int(r.inFlight.Load())
}

// Drain is Wait bounded by ctx. It reports whether every job, finish hooks
// included, completed before ctx was done.
func (r *Runner) Drain(ctx context.Context) bool {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}

func (r *Runner) execute(id, url string, opts domain.DownloadOptions) domain.ProgressState {
	ctx := logger.WithFields(context.Background(), logger.Fields{
		logger.FieldDownloadID: id,
		logger.FieldComponent:  "runner",
	})

	if r.slots != nil {
		r.slots <- struct{}{}
		defer func() { <-r.slots }()
	}

	startedAt := r.now()
	prefix := fetcher.OutputPrefix(startedAt, id)
	args := fetcher.BuildArgs(url, opts, fetcher.OutputTemplate(r.cfg.OutputDir, prefix), r.cfg.ExtraArgs)

	logger.CtxInfo(ctx, "Starting download: url=%s, type=%s, playlist=%v", url, opts.Type, opts.Playlist)

	final := r.runProcess(ctx, id, args)
	r.store.Update(id, final)

	state, _ := r.store.Get(id)
	r.sweeper.Schedule(id)

	finishedAt := r.now()
	logger.With(logger.Fields{
		logger.FieldDurationMs: finishedAt.Sub(startedAt).Milliseconds(),
		logger.FieldStatus:     string(state.Status),
	}).Info(ctx, "Download finished: message=%s", state.Message)

	r.notify(ctx, &domain.FinishedDownload{
		ID:           id,
		URL:          url,
		Options:      opts,
		State:        state,
		LogLines:     r.store.LogLen(id),
		OutputDir:    r.cfg.OutputDir,
		OutputPrefix: prefix,
		StartedAt:    startedAt,
		FinishedAt:   finishedAt,
	})

	return state
}

// runProcess launches the downloader, consumes its output and returns the
// authoritative terminal fragment derived from how the process ended.
func (r *Runner) runProcess(ctx context.Context, id string, args []string) domain.ProgressFragment {
	if r.cfg.OutputDir != "" {
		if err := os.MkdirAll(r.cfg.OutputDir, 0755); err != nil {
			logger.FromContext(ctx).WithError(err).Error("Failed to create output directory")
			return errorFragment(fmt.Sprintf("Failed to create output directory: %v", err))
		}
	}

	proc, err := r.launcher.Launch(context.Background(), r.cfg.Binary, args)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("Failed to start downloader")
		return errorFragment(fmt.Sprintf("Failed to start downloader: %v", err))
	}

	r.consume(ctx, id, proc.Output())

	code, err := proc.Wait()
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("Failed to wait for downloader")
		return errorFragment(fmt.Sprintf("Download failed: %v", err))
	}

	if code != 0 {
		logger.With(logger.Fields{logger.FieldExitCode: code}).Warn(ctx, "Downloader exited with non-zero code")
		return errorFragment(fmt.Sprintf("Download failed with return code %d", code))
	}

	full := 100.0
	return domain.ProgressFragment{
		Status:  domain.DownloadStatusCompleted,
		Percent: &full,
		Message: MessageCompleted,
	}
}

// consume reads output line by line until EOF. Completion hints in the
// output are kept non-terminal: only the exit code finishes a job.
func (r *Runner) consume(ctx context.Context, id string, out io.Reader) {
	scanner := bufio.NewScanner(out)
	scanner.Buffer(make([]byte, 0, 64*1024), fetcher.MaxLineLength)
	scanner.Split(fetcher.ScanLines)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		r.store.AppendLog(id, line)

		frag := ParseProgress(line)
		if frag.Status.IsTerminal() {
			frag.Status = domain.DownloadStatusProcessing
		}
		r.store.Update(id, frag)
	}

	if err := scanner.Err(); err != nil {
		logger.FromContext(ctx).WithError(err).Warn("Stopped parsing downloader output")
		// Keep the pipe drained so the child can still exit.
		_, _ = io.Copy(io.Discard, out)
	}
}

func (r *Runner) notify(ctx context.Context, job *domain.FinishedDownload) {
	for _, hook := range r.hooks {
		if err := hook.OnFinish(ctx, job); err != nil {
			logger.FromContext(ctx).WithField("hook", hook.Name()).WithError(err).Warn("Finish hook failed")
		}
	}
}

func errorFragment(message string) domain.ProgressFragment {
	return domain.ProgressFragment{
		Status:  domain.DownloadStatusError,
		Message: message,
	}
}
