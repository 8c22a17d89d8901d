package render

import "math"

// Rendering constants — the panel is a 1920x1080 still, shorts are 1080x1920 at 30fps
const (
	FrameRate = 30

	FullWidth  = 1920
	FullHeight = 1080

	ShortWidth  = 1080
	ShortHeight = 1920

	// Platform cap on short-form runtime. Anything longer gets trimmed.
	ShortMaxSeconds = 59.0

	// Fade-in/out ramp length at clip edges.
	FadeSeconds = 0.4

	// Duration assumed when the narration file is missing — the pipeline
	// still has to produce a video, just a short silent one.
	FallbackDurationSeconds = 10.0
)

// Params holds every time-based value the filter graphs need, all derived
// from the narration's measured duration. Computed once per run, never mutated.
type Params struct {
	DurationSeconds      float64
	ShortDurationSeconds float64
	FrameRate            int
	TotalFrames          int
	TotalFramesShort     int
	FadeOutStart         float64
	FadeOutStartShort    float64
}

// Derive computes render parameters from a narration duration.
// Pure — the same duration always yields the same parameters.
//
// Frame counts round half-up in both variants; mixing rounding modes between
// the full and short derivations would desync the zoom ramp by a frame.
func Derive(durationSeconds float64, frameRate int) Params {
	if durationSeconds < 0 {
		durationSeconds = 0
	}

	shortSeconds := math.Min(durationSeconds, ShortMaxSeconds)

	return Params{
		DurationSeconds:      durationSeconds,
		ShortDurationSeconds: shortSeconds,
		FrameRate:            frameRate,
		TotalFrames:          roundFrames(durationSeconds, frameRate),
		TotalFramesShort:     roundFrames(shortSeconds, frameRate),
		FadeOutStart:         fadeOutStart(durationSeconds),
		FadeOutStartShort:    fadeOutStart(shortSeconds),
	}
}

func roundFrames(seconds float64, frameRate int) int {
	return int(math.Floor(seconds*float64(frameRate) + 0.5))
}

// fadeOutStart floors at 0 so degenerate sub-400ms clips never get a
// negative fade timestamp.
func fadeOutStart(seconds float64) float64 {
	return math.Max(0, seconds-FadeSeconds)
}
