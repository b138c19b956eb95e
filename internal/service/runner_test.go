package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/mediafetch/internal/domain"
	"github.com/timmy/mediafetch/internal/fetcher"
)

type fakeProcess struct {
	output io.Reader
	code   int
	err    error
}

func (p *fakeProcess) Output() io.Reader {
	return p.output
}

func (p *fakeProcess) Wait() (int, error) {
	return p.code, p.err
}

// fakeLauncher replays canned output instead of starting a process.
type fakeLauncher struct {
	mu     sync.Mutex
	output string
	code   int
	err    error
	gate   chan struct{}
	calls  [][]string
}

func (l *fakeLauncher) Launch(_ context.Context, name string, args []string) (fetcher.Process, error) {
	l.mu.Lock()
	l.calls = append(l.calls, append([]string{name}, args...))
	l.mu.Unlock()

	if l.err != nil {
		return nil, l.err
	}
	if l.gate != nil {
		<-l.gate
	}
	return &fakeProcess{output: strings.NewReader(l.output), code: l.code}, nil
}

func (l *fakeLauncher) Calls() [][]string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

type recordingHook struct {
	mu   sync.Mutex
	jobs []*domain.FinishedDownload
	err  error
}

func (h *recordingHook) Name() string {
	return "recording"
}

func (h *recordingHook) OnFinish(_ context.Context, job *domain.FinishedDownload) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.jobs = append(h.jobs, job)
	return h.err
}

func (h *recordingHook) Jobs() []*domain.FinishedDownload {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.jobs
}

func newTestRunner(t *testing.T, launcher fetcher.Launcher, hooks ...FinishHook) (*Runner, *JobStore, *Sweeper) {
	t.Helper()
	store := NewJobStore()
	sweeper := NewSweeper(store, time.Hour)
	t.Cleanup(sweeper.Stop)

	runner := NewRunner(store, sweeper, launcher, &RunnerConfig{
		OutputDir: t.TempDir(),
	}, hooks...)
	return runner, store, sweeper
}

func TestRunnerCompletedDownload(t *testing.T) {
	launcher := &fakeLauncher{
		output: "[youtube] abc: Downloading webpage\n" +
			"[download]  45.2% of 10.00MiB at 1.20MiB/s ETA 00:07\r" +
			"\n" +
			"[download] 100.0% of 10.00MiB at 2.00MiB/s ETA 00:00\n",
	}
	hook := &recordingHook{}
	runner, store, sweeper := newTestRunner(t, launcher, hook)

	final := runner.Run("job-1", "https://example.com/v", domain.DownloadOptions{Type: domain.DownloadTypeVideo})

	assert.Equal(t, domain.DownloadStatusCompleted, final.Status)
	assert.Equal(t, 100.0, final.Percent)
	assert.Equal(t, MessageCompleted, final.Message)
	assert.Equal(t, "10.00MiB", final.Size)
	assert.Equal(t, "2.00MiB/s", final.Speed)

	state, ok := store.Get("job-1")
	require.True(t, ok)
	assert.Equal(t, final, state)

	lines, _ := store.GetLog("job-1")
	assert.Equal(t, []string{
		"[youtube] abc: Downloading webpage",
		"[download]  45.2% of 10.00MiB at 1.20MiB/s ETA 00:07",
		"[download] 100.0% of 10.00MiB at 2.00MiB/s ETA 00:00",
	}, lines)

	assert.Equal(t, 1, sweeper.Pending())

	jobs := hook.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "job-1", jobs[0].ID)
	assert.Equal(t, 3, jobs[0].LogLines)
	assert.Equal(t, domain.DownloadStatusCompleted, jobs[0].State.Status)
	assert.True(t, strings.HasSuffix(jobs[0].OutputPrefix, "_job-1"))
}

func TestRunnerIntermediateProgress(t *testing.T) {
	gate := make(chan struct{})
	reader, writer := io.Pipe()
	launcher := &pipeLauncher{reader: reader, gate: gate}
	runner, store, _ := newTestRunner(t, launcher)

	runner.Start("job", "https://example.com/v", domain.DownloadOptions{Type: domain.DownloadTypeVideo})

	state, ok := store.Get("job")
	require.True(t, ok)
	assert.Equal(t, domain.DownloadStatusStarting, state.Status)
	assert.Equal(t, MessageStarting, state.Message)

	_, err := io.WriteString(writer, "[download]  45.2% of 10.00MiB at 1.20MiB/s ETA 00:07\n")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		s, _ := store.Get("job")
		return s.Percent == 45.2
	}, time.Second, 5*time.Millisecond)

	state, _ = store.Get("job")
	assert.Equal(t, domain.DownloadStatusProcessing, state.Status)
	assert.Equal(t, "1.20MiB/s", state.Speed)
	assert.Equal(t, "00:07", state.ETA)
	assert.Equal(t, "10.00MiB", state.Size)

	require.NoError(t, writer.Close())
	close(gate)
	runner.Wait()

	state, _ = store.Get("job")
	assert.Equal(t, domain.DownloadStatusCompleted, state.Status)
	assert.Equal(t, 100.0, state.Percent)
}

// pipeLauncher hands out a live pipe and holds Wait until gate closes.
type pipeLauncher struct {
	reader io.Reader
	gate   chan struct{}
}

func (l *pipeLauncher) Launch(context.Context, string, []string) (fetcher.Process, error) {
	return &gatedProcess{output: l.reader, gate: l.gate}, nil
}

type gatedProcess struct {
	output io.Reader
	gate   chan struct{}
}

func (p *gatedProcess) Output() io.Reader {
	return p.output
}

func (p *gatedProcess) Wait() (int, error) {
	<-p.gate
	return 0, nil
}

func TestRunnerNonZeroExit(t *testing.T) {
	hook := &recordingHook{err: errors.New("hook failed")}
	runner, store, _ := newTestRunner(t, &fakeLauncher{code: 1}, hook)

	final := runner.Run("job", "https://example.com/v", domain.DownloadOptions{})

	assert.Equal(t, domain.DownloadStatusError, final.Status)
	assert.Equal(t, "Download failed with return code 1", final.Message)

	lines, ok := store.GetLog("job")
	require.True(t, ok)
	assert.Empty(t, lines)

	// A failing hook never changes the outcome.
	state, _ := store.Get("job")
	assert.Equal(t, domain.DownloadStatusError, state.Status)
	assert.Len(t, hook.Jobs(), 1)
}

func TestRunnerLaunchFailure(t *testing.T) {
	launcher := &fakeLauncher{err: errors.New("executable file not found")}
	runner, _, sweeper := newTestRunner(t, launcher)

	final := runner.Run("job", "https://example.com/v", domain.DownloadOptions{})

	assert.Equal(t, domain.DownloadStatusError, final.Status)
	assert.True(t, strings.HasPrefix(final.Message, "Failed to start downloader: "))
	assert.Contains(t, final.Message, "executable file not found")
	assert.Len(t, launcher.Calls(), 1, "launch must not be retried")
	assert.Equal(t, 1, sweeper.Pending())
}

func TestRunnerCompletionHintStaysProcessing(t *testing.T) {
	launcher := &fakeLauncher{
		output: "[Merger] Merging formats into \"Destination: clip.mp4\"\n",
		code:   1,
	}
	runner, store, _ := newTestRunner(t, launcher)

	final := runner.Run("job", "https://example.com/v", domain.DownloadOptions{})

	assert.Equal(t, domain.DownloadStatusError, final.Status, "exit code decides the outcome")
	assert.Equal(t, 100.0, final.Percent)
	assert.Equal(t, "Download failed with return code 1", final.Message)

	lines, _ := store.GetLog("job")
	assert.Len(t, lines, 1)
}

func TestRunnerCommandLine(t *testing.T) {
	testCases := []struct {
		name     string
		opts     domain.DownloadOptions
		contains []string
		absent   []string
	}{
		{
			name:     "video single",
			opts:     domain.DownloadOptions{Type: domain.DownloadTypeVideo},
			contains: []string{"-f", "bestvideo+bestaudio", "--merge-output-format", "mp4", "--no-playlist"},
			absent:   []string{"-x"},
		},
		{
			name:     "audio playlist",
			opts:     domain.DownloadOptions{Type: domain.DownloadTypeAudio, Playlist: true},
			contains: []string{"-x", "--audio-format", "mp3"},
			absent:   []string{"--no-playlist", "-f"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			launcher := &fakeLauncher{}
			runner, _, _ := newTestRunner(t, launcher)

			runner.Run("0123456789abcdef", "https://example.com/v", tc.opts)

			calls := launcher.Calls()
			require.Len(t, calls, 1)
			cmd := calls[0]

			assert.Equal(t, fetcher.DefaultBinary, cmd[0])
			assert.Equal(t, "https://example.com/v", cmd[len(cmd)-1])
			assert.Equal(t, "-o", cmd[len(cmd)-3])
			assert.Contains(t, cmd[len(cmd)-2], "_01234567_%(title)s.%(ext)s")
			for _, arg := range tc.contains {
				assert.Contains(t, cmd, arg)
			}
			for _, arg := range tc.absent {
				assert.NotContains(t, cmd, arg)
			}
		})
	}
}

func TestRunnerMaxConcurrent(t *testing.T) {
	gate := make(chan struct{})
	launcher := &fakeLauncher{gate: gate}

	store := NewJobStore()
	sweeper := NewSweeper(store, time.Hour)
	defer sweeper.Stop()
	runner := NewRunner(store, sweeper, launcher, &RunnerConfig{
		OutputDir:     t.TempDir(),
		MaxConcurrent: 1,
	})

	runner.Start("a", "https://example.com/a", domain.DownloadOptions{})
	runner.Start("b", "https://example.com/b", domain.DownloadOptions{})

	require.Eventually(t, func() bool {
		return len(launcher.Calls()) == 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, launcher.Calls(), 1, "second job launched while the first holds the slot")

	close(gate)
	runner.Wait()

	assert.Len(t, launcher.Calls(), 2)
	for _, id := range []string{"a", "b"} {
		state, _ := store.Get(id)
		assert.Equal(t, domain.DownloadStatusCompleted, state.Status)
	}
}

func TestRunnerDrain(t *testing.T) {
	gate := make(chan struct{})
	hook := &recordingHook{}
	runner, _, _ := newTestRunner(t, &fakeLauncher{gate: gate}, hook)

	runner.Start("job", "https://example.com/watch?v=1", domain.DownloadOptions{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.False(t, runner.Drain(ctx), "drained while the job was still running")
	assert.Empty(t, hook.Jobs())
	assert.Equal(t, 1, runner.InFlight())

	close(gate)
	assert.True(t, runner.Drain(context.Background()))
	assert.Equal(t, 0, runner.InFlight())
	require.Len(t, hook.Jobs(), 1)
	assert.Equal(t, domain.DownloadStatusCompleted, hook.Jobs()[0].State.Status)
}
