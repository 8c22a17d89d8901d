package voice

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Synthesizer is the interface any TTS provider implements, so the pipeline
// can use whichever is configured without knowing the provider underneath.
type Synthesizer interface {
	// Synthesize renders text as an AAC audio file at outPath.
	Synthesize(ctx context.Context, text, outPath string) error
}

// ---------------------------------------------------------------------------
// Piper — local neural TTS, preferred on the render host (no API cost)
// ---------------------------------------------------------------------------

type PiperSynthesizer struct {
	Bin             string
	Model           string
	Config          string
	LengthScale     string // >1 = slower delivery
	SentenceSilence string // pause between sentences, seconds
}

// Available reports whether the piper binary and model are reachable.
func (p *PiperSynthesizer) Available() bool {
	if p.Model == "" {
		return false
	}
	if _, err := os.Stat(p.Model); err != nil {
		return false
	}
	_, err := exec.LookPath(p.Bin)
	return err == nil
}

// Synthesize runs piper to WAV, then transcodes to AAC with ffmpeg.
// The intermediate WAV is removed on success.
func (p *PiperSynthesizer) Synthesize(ctx context.Context, text, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	wavPath := strings.TrimSuffix(outPath, filepath.Ext(outPath)) + ".wav"

	args := []string{
		"--model", p.Model,
		"--output-file", wavPath,
		"--length-scale", p.LengthScale,
		"--sentence-silence", p.SentenceSilence,
	}
	if p.Config != "" {
		args = append(args, "--config", p.Config)
	}

	cmd := exec.CommandContext(ctx, p.Bin, args...)
	cmd.Stdin = strings.NewReader(text)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("piper failed: %w", err)
	}

	enc := exec.CommandContext(ctx, "ffmpeg", "-y", "-i", wavPath, "-c:a", "aac", "-b:a", "128k", outPath)
	enc.Stdout = os.Stdout
	enc.Stderr = os.Stderr
	if err := enc.Run(); err != nil {
		return fmt.Errorf("ffmpeg aac encode failed: %w", err)
	}

	_ = os.Remove(wavPath)
	return nil
}

// ---------------------------------------------------------------------------
// OpenAI TTS — API-based alternative when no local piper model is installed
// ---------------------------------------------------------------------------

type OpenAISynthesizer struct {
	client *openai.Client
	voice  openai.SpeechVoice
}

func NewOpenAISynthesizer(apiKey, voice string) *OpenAISynthesizer {
	v := openai.VoiceNova
	if voice != "" {
		v = openai.SpeechVoice(voice)
	}
	return &OpenAISynthesizer{
		client: openai.NewClient(apiKey),
		voice:  v,
	}
}

func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	log.Printf("[Voice] requesting OpenAI speech (%d chars, voice=%s)", len(text), s.voice)

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          s.voice,
		ResponseFormat: openai.SpeechResponseFormatAac,
	})
	if err != nil {
		return fmt.Errorf("openai speech request failed: %w", err)
	}
	defer resp.Close()

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outPath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp); err != nil {
		return fmt.Errorf("failed to write narration audio: %w", err)
	}
	return nil
}
