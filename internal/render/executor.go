package render

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Executor drives ffmpeg for one composed graph: a silent-video pass that
// burns the visual stages, then a mux pass that attaches the audio mix.
// Encoder knobs are per-run configuration; the defaults elsewhere favor low
// memory and fast encodes over quality, which is what a small daily-run host
// can afford.
type Executor struct {
	Threads  int
	Preset   string
	CRF      int
	LogLevel string

	// Output receives ffmpeg's stdout/stderr. Nil means os.Stdout/os.Stderr.
	Output io.Writer

	// run executes the external engine. Overridable in tests so graph
	// construction and pass sequencing can be asserted without ffmpeg.
	run func(ctx context.Context, args []string) error
}

func NewExecutor(threads int, preset string, crf int, logLevel string) *Executor {
	e := &Executor{
		Threads:  threads,
		Preset:   preset,
		CRF:      crf,
		LogLevel: logLevel,
	}
	e.run = e.runFFmpeg
	return e
}

func (e *Executor) runFFmpeg(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	if e.Output != nil {
		cmd.Stdout = e.Output
		cmd.Stderr = e.Output
	} else {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}
	return cmd.Run()
}

// Render produces the final muxed artifact for one graph. The intermediate
// silent video is removed once the mux succeeds; on failure it stays on disk
// for post-mortem and the final path is never written.
func (e *Executor) Render(ctx context.Context, g Graph, outPath string) error {
	if _, err := os.Stat(g.ImagePath); err != nil {
		return fmt.Errorf("panel image missing at %s: %w", g.ImagePath, err)
	}

	silentPath := intermediatePath(outPath)

	log.Printf("[Render] %s: visual pass (%dx%d, %.3fs)", g.Variant, g.Width, g.Height, g.DurationSeconds)
	if err := e.run(ctx, e.visualArgs(g, silentPath)); err != nil {
		return fmt.Errorf("ffmpeg visual pass failed (%s): %w", g.Variant, err)
	}

	log.Printf("[Render] %s: mux pass (music=%t)", g.Variant, g.HasMusic())
	if err := e.run(ctx, e.muxArgs(g, silentPath, outPath)); err != nil {
		return fmt.Errorf("ffmpeg mux pass failed (%s): %w", g.Variant, err)
	}

	// Intermediate cleanup is best-effort; the final artifact already exists.
	_ = os.Remove(silentPath)
	return nil
}

func intermediatePath(outPath string) string {
	ext := filepath.Ext(outPath)
	return strings.TrimSuffix(outPath, ext) + "_noaudio" + ext
}

func (e *Executor) visualArgs(g Graph, silentPath string) []string {
	return []string{
		"-loglevel", e.LogLevel,
		"-y",
		"-loop", "1",
		"-i", g.ImagePath,
		"-filter_complex", g.VideoFilter(),
		"-map", "[vout]",
		"-t", fmt.Sprintf("%.3f", g.DurationSeconds),
		"-an",
		"-c:v", "libx264",
		"-preset", e.Preset,
		"-crf", fmt.Sprintf("%d", e.CRF),
		"-threads", fmt.Sprintf("%d", e.Threads),
		silentPath,
	}
}

func (e *Executor) muxArgs(g Graph, silentPath, outPath string) []string {
	args := []string{
		"-loglevel", e.LogLevel,
		"-y",
		"-i", silentPath,
	}

	// Missing narration still yields a video: substitute a silent source so
	// the container carries an audio track either way.
	if _, err := os.Stat(g.NarrationPath); os.IsNotExist(err) {
		args = append(args,
			"-f", "lavfi",
			"-t", fmt.Sprintf("%.3f", g.DurationSeconds),
			"-i", "anullsrc=r=44100:cl=stereo",
		)
	} else {
		args = append(args, "-i", g.NarrationPath)
	}

	if g.HasMusic() {
		// Loop the bed; -shortest cuts it when the video ends.
		args = append(args, "-stream_loop", "-1", "-i", g.MusicPath)
	}

	if af := g.AudioFilter(); af != "" {
		args = append(args,
			"-filter_complex", af,
			"-map", "0:v",
			"-map", "[aout]",
		)
	} else {
		args = append(args, "-map", "0:v", "-map", "1:a")
	}

	args = append(args,
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		outPath,
	)
	return args
}
