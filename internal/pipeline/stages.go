package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/finanzashoy/finvid/internal/config"
	"github.com/finanzashoy/finvid/internal/fetch"
	"github.com/finanzashoy/finvid/internal/render"
	"github.com/finanzashoy/finvid/internal/upload"
	"github.com/finanzashoy/finvid/internal/voice"
)

// renderFunc renders one composed graph to its output artifact. Injected
// into the compose stage so variant toggling is testable without the engine.
type renderFunc func(ctx context.Context, g render.Graph, outPath string) error

// DefaultStages wires the production stage list in its fixed order. Each
// stage's output artifact is the next stage's precondition.
func DefaultStages(cfg *config.Config) []Stage {
	executor := render.NewExecutor(cfg.FFmpegThreads, cfg.X264Preset, cfg.X264CRF, cfg.FFmpegLogLevel)
	return []Stage{
		{Name: "fetch", Status: StatusFetching, Run: fetchStage(cfg)},
		{Name: "render_panel", Status: StatusRendering, Run: panelStage(cfg)},
		{Name: "voice", Status: StatusSynthesizing, Run: voiceStage(cfg)},
		{Name: "compose_video", Status: StatusComposing, Run: composeStage(cfg, executor.Render)},
		{Name: "upload", Status: StatusUploading, Run: uploadStage(cfg), RetryOnce: true},
	}
}

// fetchStage pulls the day's indicators, fills gaps from the last
// known-good snapshot, and persists both files.
func fetchStage(cfg *config.Config) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		snap, err := fetch.New().Fetch(ctx)
		if err != nil {
			return err
		}

		merged := fetch.MergeFallback(snap, fetch.LoadLastOK(cfg.DataDir))
		if err := fetch.Save(cfg.DataDir, merged); err != nil {
			return err
		}

		log.Printf("[Fetch] snapshot saved to %s", cfg.DataDir)
		return nil
	}
}

// panelStage runs the external panel renderer and verifies its artifact —
// the compose stage must never start against a stale or missing panel.
func panelStage(cfg *config.Config) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		parts := strings.Fields(cfg.PanelCmd)
		if len(parts) == 0 {
			return fmt.Errorf("PANEL_CMD is empty")
		}

		cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("panel renderer failed: %w", err)
		}

		if _, err := os.Stat(cfg.PanelPath()); err != nil {
			return fmt.Errorf("panel renderer produced no artifact at %s: %w", cfg.PanelPath(), err)
		}
		return nil
	}
}

// voiceStage builds the narration script from the merged snapshot and
// synthesizes it with whichever TTS provider is configured.
func voiceStage(cfg *config.Config) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		snap, err := fetch.LoadLatest(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("no snapshot for narration: %w", err)
		}

		script := voice.BuildScript(snap)
		log.Printf("[Voice] script: %s", script)

		synth, err := pickSynthesizer(cfg)
		if err != nil {
			return err
		}
		return synth.Synthesize(ctx, script, cfg.NarrationPath())
	}
}

func pickSynthesizer(cfg *config.Config) (voice.Synthesizer, error) {
	if cfg.UsePiper {
		piper := &voice.PiperSynthesizer{
			Bin:             cfg.PiperBin,
			Model:           cfg.PiperModel,
			Config:          cfg.PiperConfig,
			LengthScale:     cfg.PiperLengthScale,
			SentenceSilence: cfg.PiperSentenceSilence,
		}
		if piper.Available() {
			log.Printf("[Voice] TTS provider: piper (model: %s)", cfg.PiperModel)
			return piper, nil
		}
		log.Printf("[Voice] piper unavailable, falling back")
	}

	if cfg.OpenAIKey != "" {
		log.Printf("[Voice] TTS provider: OpenAI (voice: %s)", cfg.OpenAITTSVoice)
		return voice.NewOpenAISynthesizer(cfg.OpenAIKey, cfg.OpenAITTSVoice), nil
	}

	return nil, fmt.Errorf("no usable TTS provider: piper not available and OPENAI_API_KEY unset")
}

// composeStage derives every time parameter from the narration's measured
// duration, then composes and renders each enabled output variant. A
// disabled variant's sub-pipeline is skipped entirely.
func composeStage(cfg *config.Config, renderVariant renderFunc) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		duration, err := render.ProbeDuration(ctx, cfg.NarrationPath())
		if err != nil {
			return err
		}

		params := render.Derive(duration, render.FrameRate)
		log.Printf("[Compose] narration %.3fs, %d frames full / %d short", duration, params.TotalFrames, params.TotalFramesShort)

		job := render.Job{
			ImagePath:     cfg.PanelPath(),
			NarrationPath: cfg.NarrationPath(),
			MusicPath:     musicPath(cfg),
			ShortStyle:    cfg.ShortStyleValue(),
			ZoomRange:     cfg.ZoomRange,
			MixNormalize:  cfg.MixNormalize,
		}

		if cfg.MakeNormal {
			g := render.Compose(job, params, render.VariantFull)
			if err := renderVariant(ctx, g, cfg.FullVideoPath()); err != nil {
				return err
			}
		} else {
			log.Printf("[Compose] full video disabled, skipping")
		}

		if cfg.MakeShort {
			g := render.Compose(job, params, render.VariantShort)
			if err := renderVariant(ctx, g, cfg.ShortVideoPath()); err != nil {
				return err
			}
		} else {
			log.Printf("[Compose] short video disabled, skipping")
		}

		return nil
	}
}

// musicPath returns the configured bed only when the file is actually
// there — a configured-but-missing asset degrades to narration-only.
func musicPath(cfg *config.Config) string {
	if cfg.BackgroundMusicPath == "" {
		return ""
	}
	if _, err := os.Stat(cfg.BackgroundMusicPath); err != nil {
		log.Printf("[Compose] music bed %s not found, narration only", cfg.BackgroundMusicPath)
		return ""
	}
	return cfg.BackgroundMusicPath
}

// uploadStage publishes the enabled artifacts. A missing artifact is logged
// and skipped — its variant may simply be disabled for this run.
func uploadStage(cfg *config.Config) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if !cfg.UploadNormal && !cfg.UploadShort {
			log.Printf("[Upload] both uploads disabled, skipping")
			return nil
		}

		creds, err := upload.LoadCredentials(cfg.YTCredentialsB64, cfg.YTTokenB64, cfg.YTCredentialsFile, cfg.YTTokenFile)
		if err != nil {
			return err
		}
		uploader, err := upload.NewUploader(ctx, creds)
		if err != nil {
			return err
		}

		date := dateInTimezone(cfg.Timezone)

		if cfg.UploadNormal {
			if _, err := os.Stat(cfg.FullVideoPath()); err != nil {
				log.Printf("[Upload] full video missing at %s, skipping", cfg.FullVideoPath())
			} else {
				id, err := uploader.Upload(ctx, upload.Video{
					Path:        cfg.FullVideoPath(),
					Title:       strings.ReplaceAll(cfg.YTTitleTemplate, "{date}", date),
					Description: cfg.YTDescription,
					Privacy:     cfg.YTPrivacy,
				})
				if err != nil {
					return err
				}
				if cfg.YTPlaylistID != "" {
					if err := uploader.AddToPlaylist(ctx, id, cfg.YTPlaylistID); err != nil {
						log.Printf("[Upload] playlist add failed for %s: %v", id, err)
					}
				}
			}
		}

		if cfg.UploadShort {
			if _, err := os.Stat(cfg.ShortVideoPath()); err != nil {
				log.Printf("[Upload] short missing at %s, skipping", cfg.ShortVideoPath())
				return nil
			}

			// Re-probe the artifact: a short over the platform cap would be
			// rejected or demoted, so it is safer not to publish it at all.
			dur, err := render.ProbeDuration(ctx, cfg.ShortVideoPath())
			if err != nil {
				return fmt.Errorf("cannot verify short runtime: %w", err)
			}
			if dur > cfg.YTShortsMaxSeconds {
				log.Printf("[Upload] short runs %.1fs (max %.0fs), not publishing", dur, cfg.YTShortsMaxSeconds)
				return nil
			}

			_, err = uploader.Upload(ctx, upload.Video{
				Path:        cfg.ShortVideoPath(),
				Title:       strings.ReplaceAll(cfg.YTShortTitleTemplate, "{date}", date),
				Description: upload.ShortDescription(cfg.YTDescription),
				Privacy:     cfg.YTPrivacy,
			})
			if err != nil {
				return err
			}
		}

		return nil
	}
}

func dateInTimezone(tz string) string {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.Local
	}
	return time.Now().In(loc).Format("02-01-2006")
}
