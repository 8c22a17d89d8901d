package render

import (
	"fmt"
	"strings"
)

// Output variant selectors
type Variant string

const (
	VariantFull  Variant = "full"  // 16:9 horizontal video
	VariantShort Variant = "short" // 9:16 vertical short-form video
)

// ShortStyle selects how the 16:9 panel is reframed onto the 9:16 canvas.
type ShortStyle string

const (
	// ShortStylePad letterboxes the scaled panel onto a solid canvas.
	// Cheapest option — one scale and one pad.
	ShortStylePad ShortStyle = "pad"

	// ShortStyleBlur composites the panel over a blurred, cropped copy of
	// itself. Looks much better, costs a second decode branch plus boxblur.
	ShortStyleBlur ShortStyle = "blur"
)

// Job describes one render invocation: the input artifacts plus the
// style/tuning knobs that vary between runs.
type Job struct {
	ImagePath     string
	NarrationPath string
	MusicPath     string // empty = narration only, no music bed
	ShortStyle    ShortStyle
	ZoomRange     float64 // total magnification added across the clip (e.g. 0.03)
	MixNormalize  bool    // opt-in amix re-normalization; default keeps narration dominant
}

// Music bed level when mixed under the narration. Narration stays at unity.
const MusicGain = 0.16

// Stage is one named filter with ordered options. The ffmpeg syntax is only
// produced at emission time; until then the graph stays inspectable.
type Stage struct {
	Name string
	Opts []Opt
}

type Opt struct {
	Key   string
	Value string
}

func (s Stage) String() string {
	if len(s.Opts) == 0 {
		return s.Name
	}
	parts := make([]string, 0, len(s.Opts))
	for _, o := range s.Opts {
		if o.Key == "" {
			parts = append(parts, o.Value)
		} else {
			parts = append(parts, o.Key+"="+o.Value)
		}
	}
	return s.Name + "=" + strings.Join(parts, ":")
}

// Chain is a linear run of stages between labeled pads. A graph is one or
// more chains; chains with multiple outputs (split) or multiple inputs
// (overlay, amix) give the graph its topology.
type Chain struct {
	Inputs  []string
	Stages  []Stage
	Outputs []string
}

func (c Chain) String() string {
	var b strings.Builder
	for _, in := range c.Inputs {
		b.WriteString("[" + in + "]")
	}
	stages := make([]string, len(c.Stages))
	for i, s := range c.Stages {
		stages[i] = s.String()
	}
	b.WriteString(strings.Join(stages, ","))
	for _, out := range c.Outputs {
		b.WriteString("[" + out + "]")
	}
	return b.String()
}

// Graph is the full composition for one output variant: the video filter
// topology plus the audio mix. Built once, handed to the executor, discarded.
type Graph struct {
	Variant         Variant
	Width           int
	Height          int
	DurationSeconds float64
	Video           []Chain
	Audio           []Chain // empty = narration passthrough

	ImagePath     string
	NarrationPath string
	MusicPath     string
}

// HasMusic reports whether the audio mix includes a music bed.
func (g Graph) HasMusic() bool { return g.MusicPath != "" }

// VideoFilter emits the video filter_complex string. The input pad is [0:v]
// (the looped still image) and the final output pad is [vout].
func (g Graph) VideoFilter() string {
	return joinChains(g.Video)
}

// AudioFilter emits the audio mix filter_complex for the mux pass, or ""
// for narration passthrough. Input pads are [1:a] narration, [2:a] music.
func (g Graph) AudioFilter() string {
	if len(g.Audio) == 0 {
		return ""
	}
	return joinChains(g.Audio)
}

func joinChains(chains []Chain) string {
	parts := make([]string, len(chains))
	for i, c := range chains {
		parts[i] = c.String()
	}
	return strings.Join(parts, ";")
}

// Compose builds the composition graph for one variant. Pure given its
// inputs: no filesystem access, no ffmpeg — the emitted strings can be
// asserted on directly in tests.
func Compose(job Job, p Params, variant Variant) Graph {
	g := Graph{
		Variant:       variant,
		ImagePath:     job.ImagePath,
		NarrationPath: job.NarrationPath,
		MusicPath:     job.MusicPath,
	}

	switch variant {
	case VariantShort:
		g.Width, g.Height = ShortWidth, ShortHeight
		g.DurationSeconds = p.ShortDurationSeconds
		if job.ShortStyle == ShortStyleBlur {
			g.Video = shortBlurChains(job, p)
		} else {
			g.Video = shortPadChains(job, p)
		}
	default:
		g.Width, g.Height = FullWidth, FullHeight
		g.DurationSeconds = p.DurationSeconds
		g.Video = fullChains(job, p)
	}

	g.Audio = audioChains(job)
	return g
}

// zoompanStage produces the continuous push-in over the still panel. The
// ramp is normalized by the variant's own frame count so the zoom lands on
// its final value exactly at that variant's last frame — using the full
// count for the short variant would leave the short's zoom unfinished.
func zoompanStage(zoomRange float64, totalFrames, frameRate int) Stage {
	return Stage{Name: "zoompan", Opts: []Opt{
		{"z", fmt.Sprintf("'1+%.3f*on/%d'", zoomRange, totalFrames)},
		{"x", "'iw/2-(iw/zoom/2)'"},
		{"y", "'ih/2-(ih/zoom/2)'"},
		{"d", fmt.Sprintf("%d", totalFrames)},
		{"s", fmt.Sprintf("%dx%d", FullWidth, FullHeight)},
		{"fps", fmt.Sprintf("%d", frameRate)},
	}}
}

func fadeStages(fadeOutStart float64) []Stage {
	return []Stage{
		{Name: "fade", Opts: []Opt{
			{"t", "in"}, {"st", "0"}, {"d", fmt.Sprintf("%.1f", FadeSeconds)},
		}},
		{Name: "fade", Opts: []Opt{
			{"t", "out"}, {"st", fmt.Sprintf("%.3f", fadeOutStart)}, {"d", fmt.Sprintf("%.1f", FadeSeconds)},
		}},
	}
}

func formatStage() Stage {
	return Stage{Name: "format", Opts: []Opt{{"", "yuv420p"}}}
}

// fullChains: zoompan over the panel, fades at the edges, done.
func fullChains(job Job, p Params) []Chain {
	stages := []Stage{zoompanStage(job.ZoomRange, p.TotalFrames, p.FrameRate)}
	stages = append(stages, fadeStages(p.FadeOutStart)...)
	stages = append(stages, formatStage())
	return []Chain{{Inputs: []string{"0:v"}, Stages: stages, Outputs: []string{"vout"}}}
}

// shortPadChains: same zoom, then the panel is scaled to the short width and
// letterboxed onto the vertical canvas.
func shortPadChains(job Job, p Params) []Chain {
	stages := []Stage{
		zoompanStage(job.ZoomRange, p.TotalFramesShort, p.FrameRate),
		{Name: "scale", Opts: []Opt{{"", fmt.Sprintf("%d", ShortWidth)}, {"", "-2"}}},
		{Name: "pad", Opts: []Opt{
			{"", fmt.Sprintf("%d", ShortWidth)},
			{"", fmt.Sprintf("%d", ShortHeight)},
			{"", "(ow-iw)/2"},
			{"", "(oh-ih)/2"},
			{"color", "black"},
		}},
	}
	stages = append(stages, fadeStages(p.FadeOutStartShort)...)
	stages = append(stages, formatStage())
	return []Chain{{Inputs: []string{"0:v"}, Stages: stages, Outputs: []string{"vout"}}}
}

// shortBlurChains: the zoomed panel is split into a foreground (scaled,
// centered) and a background (cropped to fill, heavily blurred), then
// composited foreground-over-background.
func shortBlurChains(job Job, p Params) []Chain {
	fadeAndFormat := append(fadeStages(p.FadeOutStartShort), formatStage())

	return []Chain{
		{
			Inputs:  []string{"0:v"},
			Stages:  []Stage{zoompanStage(job.ZoomRange, p.TotalFramesShort, p.FrameRate)},
			Outputs: []string{"zp"},
		},
		{
			Inputs:  []string{"zp"},
			Stages:  []Stage{{Name: "split"}},
			Outputs: []string{"fgsrc", "bgsrc"},
		},
		{
			Inputs: []string{"bgsrc"},
			Stages: []Stage{
				{Name: "scale", Opts: []Opt{{"", "-2"}, {"", fmt.Sprintf("%d", ShortHeight)}}},
				{Name: "crop", Opts: []Opt{{"", fmt.Sprintf("%d", ShortWidth)}, {"", fmt.Sprintf("%d", ShortHeight)}}},
				{Name: "boxblur", Opts: []Opt{{"luma_radius", "25"}, {"luma_power", "2"}}},
			},
			Outputs: []string{"bg"},
		},
		{
			Inputs: []string{"fgsrc"},
			Stages: []Stage{
				{Name: "scale", Opts: []Opt{{"", fmt.Sprintf("%d", ShortWidth)}, {"", "-2"}}},
			},
			Outputs: []string{"fg"},
		},
		{
			Inputs: []string{"bg", "fg"},
			Stages: []Stage{
				{Name: "overlay", Opts: []Opt{{"", "(W-w)/2"}, {"", "(H-h)/2"}}},
			},
			Outputs: []string{"comp"},
		},
		{
			Inputs:  []string{"comp"},
			Stages:  fadeAndFormat,
			Outputs: []string{"vout"},
		},
	}
}

// audioChains builds the narration/music mix. Gains are fixed: narration at
// unity, music well under it, and amix re-normalization stays off so the mix
// keeps the intentional narration dominance. Passthrough (no music) needs no
// filter at all — the executor maps the narration stream directly.
func audioChains(job Job) []Chain {
	if job.MusicPath == "" {
		return nil
	}

	normalize := "0"
	if job.MixNormalize {
		normalize = "1"
	}

	return []Chain{
		{
			Inputs:  []string{"1:a"},
			Stages:  []Stage{{Name: "volume", Opts: []Opt{{"", "1.0"}}}},
			Outputs: []string{"nar"},
		},
		{
			Inputs:  []string{"2:a"},
			Stages:  []Stage{{Name: "volume", Opts: []Opt{{"", fmt.Sprintf("%.2f", MusicGain)}}}},
			Outputs: []string{"mus"},
		},
		{
			Inputs: []string{"nar", "mus"},
			Stages: []Stage{{Name: "amix", Opts: []Opt{
				{"inputs", "2"},
				{"duration", "first"},
				{"dropout_transition", "3"},
				{"normalize", normalize},
			}}},
			Outputs: []string{"aout"},
		},
	}
}
