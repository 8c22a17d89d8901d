// Package upload publishes the rendered videos to YouTube through the Data
// API v3. Credentials follow the headless-host convention: credentials.json
// and token.json read from disk, or injected base64 via env for hosts with
// an ephemeral filesystem.
package upload

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// Credentials holds the raw OAuth client secrets and the stored user token.
type Credentials struct {
	ClientSecrets []byte
	Token         []byte
}

// LoadCredentials resolves credentials from base64 env values when both are
// present, otherwise from the given files. Tokens must be minted interactively
// beforehand — a batch host can refresh a token but never run a browser flow.
func LoadCredentials(credsB64, tokenB64, credsPath, tokenPath string) (Credentials, error) {
	if credsB64 != "" && tokenB64 != "" {
		secrets, err := base64.StdEncoding.DecodeString(credsB64)
		if err != nil {
			return Credentials{}, fmt.Errorf("bad YT_CREDENTIALS_JSON_B64: %w", err)
		}
		token, err := base64.StdEncoding.DecodeString(tokenB64)
		if err != nil {
			return Credentials{}, fmt.Errorf("bad YT_TOKEN_JSON_B64: %w", err)
		}
		return Credentials{ClientSecrets: secrets, Token: token}, nil
	}

	secrets, err := os.ReadFile(credsPath)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to read client secrets: %w", err)
	}
	token, err := os.ReadFile(tokenPath)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to read token: %w", err)
	}
	return Credentials{ClientSecrets: secrets, Token: token}, nil
}

type Uploader struct {
	svc *youtube.Service
}

// NewUploader builds an authenticated YouTube client. The oauth2 transport
// refreshes the token transparently when it has expired.
func NewUploader(ctx context.Context, creds Credentials) (*Uploader, error) {
	cfg, err := google.ConfigFromJSON(creds.ClientSecrets, youtube.YoutubeUploadScope, youtube.YoutubeScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client secrets: %w", err)
	}

	token := &oauth2.Token{}
	if err := json.Unmarshal(creds.Token, token); err != nil {
		return nil, fmt.Errorf("failed to parse stored token: %w", err)
	}

	svc, err := youtube.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to build youtube service: %w", err)
	}
	return &Uploader{svc: svc}, nil
}

// Video describes one upload.
type Video struct {
	Path        string
	Title       string
	Description string
	Privacy     string // public, unlisted, private
}

// Upload inserts the video with resumable media and returns the video ID.
func (u *Uploader) Upload(ctx context.Context, v Video) (string, error) {
	f, err := os.Open(v.Path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", v.Path, err)
	}
	defer f.Close()

	call := u.svc.Videos.Insert([]string{"snippet", "status"}, &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       v.Title,
			Description: v.Description,
			CategoryId:  "22",
		},
		Status: &youtube.VideoStatus{PrivacyStatus: v.Privacy},
	})

	resp, err := call.Media(f).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("youtube insert failed: %w", err)
	}

	log.Printf("[Upload] video published: id=%s privacy=%s", resp.Id, v.Privacy)
	return resp.Id, nil
}

// AddToPlaylist appends a published video to the configured playlist.
func (u *Uploader) AddToPlaylist(ctx context.Context, videoID, playlistID string) error {
	_, err := u.svc.PlaylistItems.Insert([]string{"snippet"}, &youtube.PlaylistItem{
		Snippet: &youtube.PlaylistItemSnippet{
			PlaylistId: playlistID,
			ResourceId: &youtube.ResourceId{
				Kind:    "youtube#video",
				VideoId: videoID,
			},
		},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("playlist insert failed: %w", err)
	}
	return nil
}

// ShortDescription appends the #Shorts tag when it is not already present —
// YouTube routes vertical uploads to the Shorts shelf based on it.
func ShortDescription(description string) string {
	d := strings.TrimRight(description, " \n")
	if strings.Contains(strings.ToLower(d), "#shorts") {
		return d
	}
	if d != "" {
		d += "\n\n"
	}
	return d + "#Shorts"
}
