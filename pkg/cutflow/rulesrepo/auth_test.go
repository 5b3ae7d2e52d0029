package rulesrepo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"umd-lhcb/tupling/pkg/config"
)

func TestNewAuthProvider(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *config.RulesRepoAuthConfig
		wantType string
		wantErr  bool
	}{
		{"nil", nil, "none", false},
		{"empty type", &config.RulesRepoAuthConfig{}, "none", false},
		{"none", &config.RulesRepoAuthConfig{Type: "none"}, "none", false},
		{"token", &config.RulesRepoAuthConfig{Type: "token", Token: "glpat-123"}, "token", false},
		{"token without token", &config.RulesRepoAuthConfig{Type: "token"}, "", true},
		{"ssh", &config.RulesRepoAuthConfig{Type: "ssh", SSHKeyPath: "/home/user/.ssh/id_ed25519"}, "ssh", false},
		{"ssh without key", &config.RulesRepoAuthConfig{Type: "ssh"}, "", true},
		{"unknown", &config.RulesRepoAuthConfig{Type: "kerberos"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewAuthProvider(tt.cfg)
			if tt.wantErr {
				if !errors.Is(err, ErrAuth) {
					t.Errorf("expected ErrAuth, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewAuthProvider() error = %v", err)
			}
			if p.Type() != tt.wantType {
				t.Errorf("Type() = %q, want %q", p.Type(), tt.wantType)
			}
		})
	}
}

func TestTokenAuth(t *testing.T) {
	auth, err := NewTokenAuth("glpat-123").Auth()
	if err != nil {
		t.Fatalf("Auth() error = %v", err)
	}
	basic, ok := auth.(*http.BasicAuth)
	if !ok || basic.Password != "glpat-123" {
		t.Errorf("expected basic auth carrying the token, got %#v", auth)
	}

	if _, err := NewTokenAuth("").Auth(); !errors.Is(err, ErrAuth) {
		t.Errorf("expected ErrAuth for empty token, got %v", err)
	}
}

func TestSSHAuth_Errors(t *testing.T) {
	dir := t.TempDir()

	open := filepath.Join(dir, "id_open")
	if err := os.WriteFile(open, []byte("key"), 0o644); err != nil {
		t.Fatal(err)
	}
	garbage := filepath.Join(dir, "id_garbage")
	if err := os.WriteFile(garbage, []byte("not a key"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"empty path", ""},
		{"missing file", filepath.Join(dir, "id_missing")},
		{"open permissions", open},
		{"unparseable key", garbage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSSHAuth(tt.path, "").Auth(); !errors.Is(err, ErrAuth) {
				t.Errorf("expected ErrAuth, got %v", err)
			}
		})
	}
}

func TestNoAuth(t *testing.T) {
	auth, err := NoAuth{}.Auth()
	if auth != nil || err != nil {
		t.Errorf("expected nil auth, got %v, %v", auth, err)
	}
}
