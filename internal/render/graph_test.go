package render

import (
	"fmt"
	"strings"
	"testing"
)

func testJob(style ShortStyle, music string) Job {
	return Job{
		ImagePath:     "out/panel.png",
		NarrationPath: "out/locucion.m4a",
		MusicPath:     music,
		ShortStyle:    style,
		ZoomRange:     0.03,
	}
}

func TestComposeFullVariant(t *testing.T) {
	p := Derive(75.5, 30)
	g := Compose(testJob(ShortStylePad, ""), p, VariantFull)

	if g.Width != 1920 || g.Height != 1080 {
		t.Errorf("unexpected full canvas %dx%d", g.Width, g.Height)
	}
	if g.DurationSeconds != 75.5 {
		t.Errorf("expected full duration 75.5, got %v", g.DurationSeconds)
	}

	vf := g.VideoFilter()
	if !strings.Contains(vf, "zoompan=") {
		t.Fatalf("full graph missing zoompan: %s", vf)
	}
	// Zoom ramp normalized by the full variant's own frame count
	if !strings.Contains(vf, fmt.Sprintf("on/%d", p.TotalFrames)) {
		t.Errorf("full zoom not normalized by full frame count %d: %s", p.TotalFrames, vf)
	}
	if !strings.Contains(vf, "fade=t=in:st=0:d=0.4") {
		t.Errorf("missing fade-in: %s", vf)
	}
	if !strings.Contains(vf, "fade=t=out:st=75.100:d=0.4") {
		t.Errorf("missing fade-out at 75.1: %s", vf)
	}
	if strings.Contains(vf, "pad=") || strings.Contains(vf, "boxblur") {
		t.Errorf("full graph should not reframe: %s", vf)
	}
}

func TestComposeShortPadVariant(t *testing.T) {
	p := Derive(75.5, 30)
	g := Compose(testJob(ShortStylePad, ""), p, VariantShort)

	if g.Width != 1080 || g.Height != 1920 {
		t.Errorf("unexpected short canvas %dx%d", g.Width, g.Height)
	}
	if g.DurationSeconds != 59.0 {
		t.Errorf("expected capped short duration 59.0, got %v", g.DurationSeconds)
	}

	vf := g.VideoFilter()
	if !strings.Contains(vf, fmt.Sprintf("on/%d", p.TotalFramesShort)) {
		t.Errorf("short zoom not normalized by short frame count %d: %s", p.TotalFramesShort, vf)
	}
	if !strings.Contains(vf, "pad=1080:1920") {
		t.Errorf("pad style missing letterbox: %s", vf)
	}
	if strings.Contains(vf, "boxblur") || strings.Contains(vf, "overlay") || strings.Contains(vf, "split") {
		t.Errorf("pad style must not carry blur topology: %s", vf)
	}
	if !strings.Contains(vf, "fade=t=out:st=58.600:d=0.4") {
		t.Errorf("missing short fade-out at 58.6: %s", vf)
	}
}

func TestComposeShortBlurVariant(t *testing.T) {
	p := Derive(40, 30)
	g := Compose(testJob(ShortStyleBlur, ""), p, VariantShort)

	vf := g.VideoFilter()
	for _, want := range []string{"split", "crop=1080:1920", "boxblur=luma_radius=25", "overlay=(W-w)/2:(H-h)/2"} {
		if !strings.Contains(vf, want) {
			t.Errorf("blur style missing %q: %s", want, vf)
		}
	}
	if strings.Contains(vf, "pad=") {
		t.Errorf("blur style should not letterbox: %s", vf)
	}
	// Chains must hand off through labeled pads and end at vout
	if !strings.Contains(vf, "[bg][fg]overlay") {
		t.Errorf("overlay must composite foreground over background: %s", vf)
	}
	if !strings.HasSuffix(vf, "[vout]") {
		t.Errorf("blur graph must end at [vout]: %s", vf)
	}
}

func TestAudioMixWithMusic(t *testing.T) {
	p := Derive(30, 30)
	g := Compose(testJob(ShortStylePad, "assets/music.mp3"), p, VariantFull)

	if !g.HasMusic() {
		t.Fatal("expected music in the mix")
	}
	af := g.AudioFilter()
	if !strings.Contains(af, "volume=1.0") {
		t.Errorf("narration must stay at unity gain: %s", af)
	}
	if !strings.Contains(af, "volume=0.16") {
		t.Errorf("music bed must sit at 0.16: %s", af)
	}
	if !strings.Contains(af, "amix=inputs=2:duration=first") {
		t.Errorf("missing amix: %s", af)
	}
	if !strings.Contains(af, "normalize=0") {
		t.Errorf("mix must not re-normalize by default: %s", af)
	}
}

func TestAudioMixNormalizeOptIn(t *testing.T) {
	job := testJob(ShortStylePad, "assets/music.mp3")
	job.MixNormalize = true
	g := Compose(job, Derive(30, 30), VariantFull)

	if !strings.Contains(g.AudioFilter(), "normalize=1") {
		t.Errorf("normalize opt-in not honored: %s", g.AudioFilter())
	}
}

func TestAudioPassthroughWithoutMusic(t *testing.T) {
	g := Compose(testJob(ShortStylePad, ""), Derive(30, 30), VariantFull)

	if g.HasMusic() {
		t.Fatal("no music expected")
	}
	if af := g.AudioFilter(); af != "" {
		t.Errorf("passthrough must emit no audio filter, got %s", af)
	}
}

func TestStageString(t *testing.T) {
	s := Stage{Name: "fade", Opts: []Opt{{"t", "in"}, {"st", "0"}, {"d", "0.4"}}}
	if got := s.String(); got != "fade=t=in:st=0:d=0.4" {
		t.Errorf("unexpected stage emission: %s", got)
	}

	bare := Stage{Name: "split"}
	if got := bare.String(); got != "split" {
		t.Errorf("unexpected bare stage emission: %s", got)
	}
}
