package upload

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
)

func TestShortDescription(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "#Shorts"},
		{"Resumen financiero diario.", "Resumen financiero diario.\n\n#Shorts"},
		{"Ya etiquetado #Shorts", "Ya etiquetado #Shorts"},
		{"lowercase tag #shorts aquí", "lowercase tag #shorts aquí"},
	}

	for _, c := range cases {
		if got := ShortDescription(c.in); got != c.want {
			t.Errorf("ShortDescription(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestLoadCredentialsFromEnv(t *testing.T) {
	credsB64 := base64.StdEncoding.EncodeToString([]byte(`{"installed":{}}`))
	tokenB64 := base64.StdEncoding.EncodeToString([]byte(`{"access_token":"x"}`))

	creds, err := LoadCredentials(credsB64, tokenB64, "", "")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if string(creds.ClientSecrets) != `{"installed":{}}` {
		t.Errorf("unexpected secrets: %s", creds.ClientSecrets)
	}
	if string(creds.Token) != `{"access_token":"x"}` {
		t.Errorf("unexpected token: %s", creds.Token)
	}
}

func TestLoadCredentialsFromFiles(t *testing.T) {
	dir := t.TempDir()
	credsPath := filepath.Join(dir, "credentials.json")
	tokenPath := filepath.Join(dir, "token.json")
	if err := os.WriteFile(credsPath, []byte(`{"web":{}}`), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(tokenPath, []byte(`{"refresh_token":"r"}`), 0600); err != nil {
		t.Fatal(err)
	}

	creds, err := LoadCredentials("", "", credsPath, tokenPath)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if string(creds.ClientSecrets) != `{"web":{}}` {
		t.Errorf("unexpected secrets: %s", creds.ClientSecrets)
	}
}

func TestLoadCredentialsBadBase64(t *testing.T) {
	if _, err := LoadCredentials("%%%", "also-bad", "", ""); err == nil {
		t.Fatal("expected error for invalid base64")
	}
}

func TestLoadCredentialsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadCredentials("", "", filepath.Join(dir, "nope.json"), filepath.Join(dir, "nope2.json")); err == nil {
		t.Fatal("expected error for missing credential files")
	}
}
