// Package pipeline governs the daily batch run: exclusive locking, the dated
// log artifact, the fixed stage order, and upload retry. It owns no stage
// logic itself — stages are injected as closures so the state machine can be
// exercised without ffmpeg, TTS, or the network.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status tracks where a batch run is in its lifecycle.
type Status string

const (
	StatusIdle         Status = "idle"
	StatusLocked       Status = "locked"
	StatusFetching     Status = "fetching"
	StatusRendering    Status = "rendering"
	StatusSynthesizing Status = "synthesizing"
	StatusComposing    Status = "composing"
	StatusUploading    Status = "uploading"
	StatusUploadRetry  Status = "upload_retry"
	StatusDone         Status = "done"
	StatusFailed       Status = "failed"
)

// Stage is one step of the fixed pipeline order. Its precondition is the
// previous stage's artifact; its own artifact is the next stage's input.
type Stage struct {
	Name   string
	Status Status
	Run    func(ctx context.Context) error

	// RetryOnce grants a single retry after the cooldown. Only the upload
	// stage carries it — a transient API error should not waste a finished
	// render, while re-running ffmpeg on a flaky host would.
	RetryOnce bool
}

type Pipeline struct {
	lock      *RunLock
	logDir    string
	statePath string
	stages    []Stage
	cooldown  time.Duration

	status Status

	// sleep is swapped out in tests so the retry cooldown doesn't stall them.
	sleep func(time.Duration)
}

func New(lock *RunLock, logDir, statePath string, cooldown time.Duration, stages []Stage) *Pipeline {
	return &Pipeline{
		lock:      lock,
		logDir:    logDir,
		statePath: statePath,
		stages:    stages,
		cooldown:  cooldown,
		status:    StatusIdle,
		sleep:     time.Sleep,
	}
}

// Status reports the current run state.
func (p *Pipeline) Status() Status { return p.status }

// Run executes one batch run end to end. Returns ErrLockHeld (callers exit
// 0) when another run is active; any other error is a fatal stage failure.
//
// The lock is released on every exit path. Combined with the flock dying
// with the process, this holds even for signals: the caller cancels ctx on
// SIGINT/SIGTERM, the running stage's subprocess is killed, the error
// propagates here, and the deferred release runs before the process exits.
func (p *Pipeline) Run(ctx context.Context, startedBy string) error {
	runID := uuid.New().String()[:8]

	dayLog, err := OpenDayLog(p.logDir, time.Now())
	if err != nil {
		return fmt.Errorf("failed to open day log: %w", err)
	}
	defer dayLog.Close()

	dayLog.Logf("=== START run=%s by=%s ===", runID, startedBy)

	// Update the persisted state in place — fields like LastSuccessDate
	// must survive a failed or skipped run, or the once-per-day guard
	// re-arms on the same day.
	state := LoadState(p.statePath)
	state.LastRunID = runID
	state.LastStartedAt = now()
	state.LastStartedBy = startedBy
	state.LastFinishedAt = ""
	state.LastErrorStage = ""

	if err := p.lock.Acquire(); err != nil {
		if err == ErrLockHeld {
			dayLog.Logf("LOCK: another run is active, skipping (run=%s)", runID)
			state.LastStatus = "skipped_already_running"
			state.LastFinishedAt = now()
			p.saveState(state)
			return ErrLockHeld
		}
		return err
	}
	defer func() {
		if relErr := p.lock.Release(); relErr != nil {
			dayLog.Logf("WARN: failed to release run lock: %v", relErr)
		}
	}()

	p.status = StatusLocked
	state.LastStatus = "running"
	p.saveState(state)

	for _, stage := range p.stages {
		p.status = stage.Status
		dayLog.Logf("[STEP] %s", stage.Name)

		err := stage.Run(ctx)
		if err != nil && stage.RetryOnce {
			p.status = StatusUploadRetry
			dayLog.Logf("[STEP] %s failed, retrying in %s: %v", stage.Name, p.cooldown, err)
			p.sleep(p.cooldown)
			err = stage.Run(ctx)
		}
		if err != nil {
			p.status = StatusFailed
			dayLog.Logf("=== FAIL stage=%s: %v ===", stage.Name, err)
			state.LastFinishedAt = now()
			state.LastStatus = "failed"
			state.LastErrorStage = stage.Name
			p.saveState(state)
			return fmt.Errorf("stage %s failed: %w", stage.Name, err)
		}

		dayLog.Logf("[STEP] %s done", stage.Name)
	}

	p.status = StatusDone
	finished := time.Now()
	dayLog.Logf("=== SUCCESS run=%s ===", runID)
	state.LastFinishedAt = finished.Format(time.RFC3339)
	state.LastStatus = "success"
	state.LastSuccessDate = finished.Format("2006-01-02")
	p.saveState(state)
	return nil
}

// saveState is best-effort: bookkeeping must never fail a run that already
// produced its artifacts.
func (p *Pipeline) saveState(s State) {
	_ = SaveState(p.statePath, s)
}

func now() string {
	return time.Now().Format(time.RFC3339)
}
