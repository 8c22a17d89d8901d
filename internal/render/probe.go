package render

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// ProbeDuration returns the duration of a media file in seconds using ffprobe.
//
// A missing file is not an error: the narration stage may have produced
// nothing and the run must still yield a video, so the fixed fallback
// duration is returned instead. A file that exists but cannot be probed is
// fatal — rendering against a garbage duration would silently produce a
// zero-length or truncated video.
func ProbeDuration(ctx context.Context, path string) (float64, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return FallbackDurationSeconds, nil
	}

	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}

	cmd := exec.CommandContext(ctx, "ffprobe", args...)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}

	durationSec, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration of %s: %w", path, err)
	}
	if durationSec <= 0 {
		return 0, fmt.Errorf("ffprobe reported non-positive duration %.3f for %s", durationSec, path)
	}

	return durationSec, nil
}
