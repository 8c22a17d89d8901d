package config

import (
	"testing"

	"github.com/finanzashoy/finvid/internal/render"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if !cfg.MakeNormal || !cfg.MakeShort {
		t.Error("both variants must default to enabled")
	}
	if cfg.ShortStyle != "pad" {
		t.Errorf("short style must default to pad, got %q", cfg.ShortStyle)
	}
	if cfg.FFmpegThreads != 1 {
		t.Errorf("thread count must default to 1, got %d", cfg.FFmpegThreads)
	}
	if cfg.LogRetentionDays != 7 {
		t.Errorf("log retention must default to 7 days, got %d", cfg.LogRetentionDays)
	}
	if cfg.UploadRetryCooldown != 60 {
		t.Errorf("upload retry cooldown must default to 60s, got %d", cfg.UploadRetryCooldown)
	}
	if cfg.ZoomRange != 0.03 {
		t.Errorf("zoom range must default to 0.03, got %v", cfg.ZoomRange)
	}
}

func TestLoadInvalidShortStyle(t *testing.T) {
	t.Setenv("SHORT_STYLE", "sepia")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown short style")
	}
}

func TestLoadInvalidCRF(t *testing.T) {
	t.Setenv("X264_CRF", "99")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for out-of-range CRF")
	}
}

func TestLoadInvalidPrivacy(t *testing.T) {
	t.Setenv("YT_PRIVACY", "secret")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown privacy level")
	}
}

func TestLoadRequiresTTSProvider(t *testing.T) {
	t.Setenv("USE_PIPER", "0")
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when no TTS provider is configured")
	}
}

func TestLoadVariantToggles(t *testing.T) {
	t.Setenv("MAKE_NORMAL", "false")
	t.Setenv("MAKE_SHORT", "true")
	t.Setenv("SHORT_STYLE", "blur")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.MakeNormal {
		t.Error("MAKE_NORMAL=false not honored")
	}
	if !cfg.MakeShort {
		t.Error("MAKE_SHORT=true not honored")
	}
	if cfg.ShortStyleValue() != render.ShortStyleBlur {
		t.Errorf("blur style not mapped, got %v", cfg.ShortStyleValue())
	}
}
