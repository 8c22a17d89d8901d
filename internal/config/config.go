package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/finanzashoy/finvid/internal/render"
)

type Config struct {
	// Directories
	OutDir     string // rendered artifacts (panel, narration, videos)
	DataDir    string // indicator snapshots
	RuntimeDir string // lock, state, logs

	// Render variants
	MakeNormal bool   // 16:9 full video
	MakeShort  bool   // 9:16 short-form video
	ShortStyle string // "pad" or "blur"
	ZoomRange  float64

	// Engine tuning — defaults favor low memory over quality
	FFmpegThreads  int
	X264Preset     string
	X264CRF        int
	FFmpegLogLevel string

	// Audio
	BackgroundMusicPath string // empty = narration only
	MixNormalize        bool   // opt-in amix re-normalization

	// Panel render — external collaborator invoked as a command
	PanelCmd string

	// Voice
	UsePiper             bool
	PiperBin             string
	PiperModel           string
	PiperConfig          string
	PiperLengthScale     string
	PiperSentenceSilence string
	OpenAIKey            string
	OpenAITTSVoice       string

	// Upload
	UploadNormal         bool
	UploadShort          bool
	YTPrivacy            string
	YTPlaylistID         string
	YTTitleTemplate      string
	YTShortTitleTemplate string
	YTDescription        string
	YTShortsMaxSeconds   float64
	YTCredentialsB64     string
	YTTokenB64           string
	YTCredentialsFile    string
	YTTokenFile          string

	// Batch run behavior
	LogRetentionDays    int
	UploadRetryCooldown int // seconds
	Timezone            string

	// Trigger server
	ServerPort         string
	RunToken           string
	RunHour            int
	RunWindowMinutes   int
	AllowForce         bool
	CorsAllowedOrigins string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	cfg := &Config{
		OutDir:     getEnv("OUT_DIR", "out"),
		DataDir:    getEnv("DATA_DIR", "data"),
		RuntimeDir: getEnv("RUNTIME_DIR", filepath.Join(os.TempDir(), "finvid")),

		MakeNormal: getEnvBool("MAKE_NORMAL", true),
		MakeShort:  getEnvBool("MAKE_SHORT", true),
		ShortStyle: getEnv("SHORT_STYLE", "pad"),
		ZoomRange:  getEnvFloat("ZOOM_RANGE", 0.03),

		FFmpegThreads:  getEnvInt("FFMPEG_THREADS", 1),
		X264Preset:     getEnv("X264_PRESET", "veryfast"),
		X264CRF:        getEnvInt("X264_CRF", 30),
		FFmpegLogLevel: getEnv("FFMPEG_LOGLEVEL", "error"),

		BackgroundMusicPath: getEnv("BACKGROUND_MUSIC_PATH", ""),
		MixNormalize:        getEnvBool("AUDIO_MIX_NORMALIZE", false),

		PanelCmd: getEnv("PANEL_CMD", "python3 render_panel.py"),

		UsePiper:             getEnvBool("USE_PIPER", true),
		PiperBin:             getEnv("PIPER_BIN", "piper"),
		PiperModel:           getEnv("PIPER_MODEL", ""),
		PiperConfig:          getEnv("PIPER_CONFIG", ""),
		PiperLengthScale:     getEnv("PIPER_LENGTH_SCALE", "1.02"),
		PiperSentenceSilence: getEnv("PIPER_SENTENCE_SILENCE", "0.18"),
		OpenAIKey:            getEnv("OPENAI_API_KEY", ""),
		OpenAITTSVoice:       getEnv("OPENAI_TTS_VOICE", "nova"),

		UploadNormal:         getEnvBool("UPLOAD_NORMAL", true),
		UploadShort:          getEnvBool("UPLOAD_SHORT", true),
		YTPrivacy:            getEnv("YT_PRIVACY", "public"),
		YTPlaylistID:         getEnv("YT_PLAYLIST_ID", ""),
		YTTitleTemplate:      getEnv("YT_TITLE_TEMPLATE", "Finanzas Hoy Chile - {date}"),
		YTShortTitleTemplate: getEnv("YT_SHORT_TITLE_TEMPLATE", "Finanzas Hoy Chile - {date} #Shorts"),
		YTDescription:        getEnv("YT_DESCRIPTION", ""),
		YTShortsMaxSeconds:   getEnvFloat("YT_SHORTS_MAX_SECONDS", 60),
		YTCredentialsB64:     getEnv("YT_CREDENTIALS_JSON_B64", ""),
		YTTokenB64:           getEnv("YT_TOKEN_JSON_B64", ""),
		YTCredentialsFile:    getEnv("YT_CREDENTIALS_FILE", "credentials.json"),
		YTTokenFile:          getEnv("YT_TOKEN_FILE", "token.json"),

		LogRetentionDays:    getEnvInt("LOG_RETENTION_DAYS", 7),
		UploadRetryCooldown: getEnvInt("UPLOAD_RETRY_COOLDOWN_SECONDS", 60),
		Timezone:            getEnv("TZ", "America/Santiago"),

		ServerPort:         getEnv("SERVER_PORT", "8080"),
		RunToken:           getEnv("RUN_TOKEN", ""),
		RunHour:            getEnvInt("RUN_HOUR", 7),
		RunWindowMinutes:   getEnvInt("RUN_WINDOW_MINUTES", 10),
		AllowForce:         getEnvBool("ALLOW_FORCE", true),
		CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),
	}

	// Validate before any stage touches an artifact
	if cfg.ShortStyle != "pad" && cfg.ShortStyle != "blur" {
		return nil, fmt.Errorf("SHORT_STYLE must be pad or blur, got %q", cfg.ShortStyle)
	}
	if cfg.FFmpegThreads < 0 {
		return nil, fmt.Errorf("FFMPEG_THREADS must be >= 0, got %d", cfg.FFmpegThreads)
	}
	if cfg.X264CRF < 0 || cfg.X264CRF > 51 {
		return nil, fmt.Errorf("X264_CRF must be in 0..51, got %d", cfg.X264CRF)
	}
	if cfg.ZoomRange <= 0 || cfg.ZoomRange > 0.5 {
		return nil, fmt.Errorf("ZOOM_RANGE must be in (0, 0.5], got %v", cfg.ZoomRange)
	}
	if cfg.LogRetentionDays < 0 {
		return nil, fmt.Errorf("LOG_RETENTION_DAYS must be >= 0, got %d", cfg.LogRetentionDays)
	}
	switch cfg.YTPrivacy {
	case "public", "unlisted", "private":
	default:
		return nil, fmt.Errorf("YT_PRIVACY must be public, unlisted or private, got %q", cfg.YTPrivacy)
	}
	if !cfg.UsePiper && cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required when USE_PIPER=0")
	}

	return cfg, nil
}

func (c *Config) ShortStyleValue() render.ShortStyle {
	if c.ShortStyle == "blur" {
		return render.ShortStyleBlur
	}
	return render.ShortStylePad
}

// Artifact paths — fixed, well-known locations shared by every stage in a
// run. The run lock is what keeps two runs from clobbering them.

func (c *Config) PanelPath() string      { return filepath.Join(c.OutDir, "panel.png") }
func (c *Config) NarrationPath() string  { return filepath.Join(c.OutDir, "locucion.m4a") }
func (c *Config) FullVideoPath() string  { return filepath.Join(c.OutDir, "finanzas_hoy.mp4") }
func (c *Config) ShortVideoPath() string { return filepath.Join(c.OutDir, "finanzas_hoy_short.mp4") }
func (c *Config) LockPath() string       { return filepath.Join(c.RuntimeDir, "run.lock") }
func (c *Config) StatePath() string      { return filepath.Join(c.RuntimeDir, "state.json") }
func (c *Config) LogDir() string         { return filepath.Join(c.RuntimeDir, "logs") }

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		f, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}
