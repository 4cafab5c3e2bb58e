package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/labctl/internal/testutil/testlog"
)

func sampleLab(dir string) Lab {
	paths := PathsFor(dir)
	return Lab{
		SecretKey:     "0f0f",
		AdminLogin:    "admin",
		AdminName:     `Ada "The Admin" Lovelace`,
		AdminEmail:    "admin@example.com",
		AdminPasshash: "abcd",
		DataPath:      paths.Data,
		StatusPath:    paths.Status,
		DebugServer:   true,
		ListenAddr:    "127.0.0.1:9999",

		PushgatewayURL: "http://127.0.0.1:9091",
	}
}

func TestRenderAndLoadRoundTrip(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	want := sampleLab(dir)
	path := PathsFor(dir).Config

	if err := WriteTemplate(path, want, false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestWriteTemplateRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := PathsFor(dir).Config
	if err := os.WriteFile(path, []byte("keep"), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := WriteTemplate(path, sampleLab(dir), false); err == nil {
		t.Fatalf("expected overwrite refusal")
	}
	if err := WriteTemplate(path, sampleLab(dir), true); err != nil {
		t.Fatalf("forced write: %v", err)
	}
}

func TestLoadDefaultsAndRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lab.cfg")
	content := `
secret_key = "s"
admin_login = "root"
admin_passhash = "ph"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataPath != filepath.Join(dir, DataFileName) {
		t.Fatalf("unexpected data path: %q", cfg.DataPath)
	}
	if cfg.StatusPath != filepath.Join(dir, StatusFileName) {
		t.Fatalf("unexpected status path: %q", cfg.StatusPath)
	}
	if cfg.ListenAddr != DefaultListenAddr {
		t.Fatalf("unexpected listen addr: %q", cfg.ListenAddr)
	}
	if admin := cfg.AdminUser(); admin.ID != "root" || admin.Passhash != "ph" {
		t.Fatalf("unexpected admin: %+v", admin)
	}
	if cfg.PushgatewayURL != "" {
		t.Fatalf("push gateway should default to empty, got %q", cfg.PushgatewayURL)
	}
	if store := cfg.Store(); store.Admin == nil || store.Admin.ID != "root" {
		t.Fatalf("store missing admin: %+v", store)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "missing secret", content: "admin_login = \"a\"\nadmin_passhash = \"p\"\n"},
		{name: "missing admin", content: "secret_key = \"s\"\nadmin_passhash = \"p\"\n"},
		{name: "bad pushgateway", content: "secret_key = \"s\"\nadmin_login = \"a\"\nadmin_passhash = \"p\"\npushgateway_url = \"gateway:9091\"\n"},
		{name: "unknown key", content: "secret_key = \"s\"\nadmin_login = \"a\"\nadmin_passhash = \"p\"\nbogus = 1\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "lab.cfg")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, err := Load(path); !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestLoadBadSyntax(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lab.cfg")
	if err := os.WriteFile(path, []byte("secret_key = "), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestQuoteEscapes(t *testing.T) {
	if got := quote("a\"b\\c\n\x01"); got != `"a\"b\\c\n\u0001"` {
		t.Fatalf("unexpected quoting: %s", got)
	}
}
