package main

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/danmuck/labctl/internal/auth"
	"github.com/danmuck/labctl/internal/cli"
	"github.com/danmuck/labctl/internal/config"
	"github.com/danmuck/labctl/internal/install"
	"github.com/danmuck/labctl/internal/testutil/testlog"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestCreateThenImportUsers(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	lab := filepath.Join(dir, "lab")

	table, err := commands()
	if err != nil {
		t.Fatalf("commands: %v", err)
	}
	var stderr bytes.Buffer
	if err := table.Execute([]string{"create", "--admin-password", "pw", "--admin-login", "root", lab}, &stderr); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := table.Execute([]string{"create", lab}, &stderr); !errors.Is(err, install.ErrConfigurationExists) {
		t.Fatalf("expected ErrConfigurationExists, got %v", err)
	}

	cfgPath := filepath.Join(lab, config.ConfigFileName)
	authorsPath := filepath.Join(dir, "mailer.conf")
	credsPath := filepath.Join(dir, "htpasswd")
	writeFile(t, authorsPath, "[authors]\njdoe = \"Jane Doe <jane@x.org>\"\nroot = \"Mallory <m@x.org>\"\nbad = \"Bad Entry\"\n")
	writeFile(t, credsPath, "jdoe:abc123:llvm\nroot:x:llvm\nbad:y:llvm\n")

	err = table.Execute([]string{"import-users", cfgPath, authorsPath, credsPath}, &stderr)
	if err == nil {
		t.Fatalf("expected skipped-entry error for malformed author")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	d, err := cfg.Store().Load()
	if err != nil {
		t.Fatalf("load store: %v", err)
	}
	u, ok := d.User("jdoe")
	if !ok {
		t.Fatalf("jdoe was not imported")
	}
	if u.Passhash != auth.Passhash("abc123", cfg.SecretKey) {
		t.Fatalf("unexpected passhash %q", u.Passhash)
	}
	admin, _ := d.Admin()
	if admin.Name != "Administrator" || admin.Passhash != auth.Passhash("pw", cfg.SecretKey) {
		t.Fatalf("admin modified: %+v", admin)
	}
	if _, ok := d.User("bad"); ok {
		t.Fatalf("malformed entry must not be imported")
	}
}

func TestImportUsersDryRun(t *testing.T) {
	dir := t.TempDir()
	res, err := install.Initialize(install.DefaultOptions(filepath.Join(dir, "lab")))
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	authorsPath := filepath.Join(dir, "mailer.conf")
	credsPath := filepath.Join(dir, "htpasswd")
	writeFile(t, authorsPath, "[authors]\njdoe = \"Jane Doe <jane@x.org>\"\n")
	writeFile(t, credsPath, "jdoe:abc123:llvm\n")

	table, err := commands()
	if err != nil {
		t.Fatalf("commands: %v", err)
	}
	var stderr bytes.Buffer
	if err := table.Execute([]string{"import-users", "--dry-run", res.Paths.Config, authorsPath, credsPath}, &stderr); err != nil {
		t.Fatalf("dry run: %v", err)
	}
	d, err := res.Config.Store().Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := d.User("jdoe"); ok {
		t.Fatalf("dry run saved the store")
	}
}

func TestImportUsersUnreadableAuthorKeepsOthers(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	res, err := install.Initialize(install.DefaultOptions(filepath.Join(dir, "lab")))
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	authorsPath := filepath.Join(dir, "mailer.conf")
	credsPath := filepath.Join(dir, "htpasswd")
	writeFile(t, authorsPath, "[authors]\njdoe = \"Jane Doe <jane@x.org>\"\nbad = 42\nzoe = \"Zoe <z@x.org>\"\n")
	writeFile(t, credsPath, "jdoe:abc123:llvm\nbad:y:llvm\nzoe:def456:llvm\n")

	table, err := commands()
	if err != nil {
		t.Fatalf("commands: %v", err)
	}
	var stderr bytes.Buffer
	if err := table.Execute([]string{"import-users", res.Paths.Config, authorsPath, credsPath}, &stderr); err == nil {
		t.Fatalf("expected skipped-entry error for bad")
	}
	d, err := res.Config.Store().Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, id := range []string{"jdoe", "zoe"} {
		if _, ok := d.User(id); !ok {
			t.Fatalf("%s was not imported", id)
		}
	}
	if _, ok := d.User("bad"); ok {
		t.Fatalf("unreadable entry must not be imported")
	}
}

func TestImportUsersPushesTotals(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer gw.Close()

	dir := t.TempDir()
	res, err := install.Initialize(install.DefaultOptions(filepath.Join(dir, "lab")))
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	cfg := res.Config
	cfg.PushgatewayURL = gw.URL
	if err := config.WriteTemplate(res.Paths.Config, cfg, true); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	authorsPath := filepath.Join(dir, "mailer.conf")
	credsPath := filepath.Join(dir, "htpasswd")
	writeFile(t, authorsPath, "[authors]\njdoe = \"Jane Doe <jane@x.org>\"\n")
	writeFile(t, credsPath, "jdoe:abc123:llvm\n")

	table, err := commands()
	if err != nil {
		t.Fatalf("commands: %v", err)
	}
	var stderr bytes.Buffer
	if err := table.Execute([]string{"import-users", res.Paths.Config, authorsPath, credsPath}, &stderr); err != nil {
		t.Fatalf("import: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(paths) != 1 || paths[0] != "PUT /metrics/job/labctl_import/dry_run/false" {
		t.Fatalf("unexpected gateway requests: %v", paths)
	}
}

func TestImportUsersWrongArgCount(t *testing.T) {
	table, err := commands()
	if err != nil {
		t.Fatalf("commands: %v", err)
	}
	var stderr bytes.Buffer
	if err := table.Execute([]string{"import-users", "only-one"}, &stderr); !errors.Is(err, cli.ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestCheckConfig(t *testing.T) {
	res, err := install.Initialize(install.DefaultOptions(t.TempDir()))
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	table, err := commands()
	if err != nil {
		t.Fatalf("commands: %v", err)
	}
	var stderr bytes.Buffer
	if err := table.Execute([]string{"check-config", res.Paths.Config}, &stderr); err != nil {
		t.Fatalf("check-config: %v", err)
	}
	writeFile(t, res.Paths.Data, "{not json")
	if err := table.Execute([]string{"check-config", res.Paths.Config}, &stderr); err == nil {
		t.Fatalf("expected corrupt data document to fail")
	}
}
