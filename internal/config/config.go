package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/labctl/internal/data"
)

const (
	ConfigFileName = "lab.cfg"
	DataFileName   = "lab-data.json"
	StatusFileName = "lab-status.json"

	DefaultListenAddr = "127.0.0.1:8000"
)

var ErrInvalid = errors.New("invalid lab config")

// Lab is the installation configuration written by `labctl create`.
type Lab struct {
	SecretKey     string `toml:"secret_key"`
	AdminLogin    string `toml:"admin_login"`
	AdminName     string `toml:"admin_name"`
	AdminEmail    string `toml:"admin_email"`
	AdminPasshash string `toml:"admin_passhash"`
	DataPath      string `toml:"data_path"`
	StatusPath    string `toml:"status_path"`
	DebugServer   bool   `toml:"debug_server"`
	ListenAddr    string `toml:"listen_addr"`

	// PushgatewayURL receives import-users totals. Empty disables the push.
	PushgatewayURL string `toml:"pushgateway_url"`
}

// Paths names the three artifacts of an installation rooted at base.
type Paths struct {
	Config string
	Data   string
	Status string
}

func PathsFor(base string) Paths {
	return Paths{
		Config: filepath.Join(base, ConfigFileName),
		Data:   filepath.Join(base, DataFileName),
		Status: filepath.Join(base, StatusFileName),
	}
}

func (p Paths) All() []string {
	return []string{p.Config, p.Data, p.Status}
}

// Load reads a lab.cfg. Relative data/status paths resolve against the
// config file's directory.
func Load(path string) (Lab, error) {
	var cfg Lab
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Lab{}, fmt.Errorf("load lab config (%s): %w", path, err)
	}

	base := filepath.Dir(path)
	if !meta.IsDefined("data_path") {
		cfg.DataPath = DataFileName
	}
	if !meta.IsDefined("status_path") {
		cfg.StatusPath = StatusFileName
	}
	if !meta.IsDefined("listen_addr") || strings.TrimSpace(cfg.ListenAddr) == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	cfg.DataPath = resolve(base, cfg.DataPath)
	cfg.StatusPath = resolve(base, cfg.StatusPath)

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Lab{}, fmt.Errorf("%w (%s): unknown key %q", ErrInvalid, path, undecoded[0].String())
	}
	if err := Validate(cfg); err != nil {
		return Lab{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Validate(cfg Lab) error {
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return fmt.Errorf("%w: missing secret_key", ErrInvalid)
	}
	if strings.TrimSpace(cfg.AdminLogin) == "" {
		return fmt.Errorf("%w: missing admin_login", ErrInvalid)
	}
	if strings.TrimSpace(cfg.AdminPasshash) == "" {
		return fmt.Errorf("%w: missing admin_passhash", ErrInvalid)
	}
	if strings.TrimSpace(cfg.DataPath) == "" {
		return fmt.Errorf("%w: missing data_path", ErrInvalid)
	}
	if cfg.PushgatewayURL != "" {
		u, err := url.Parse(cfg.PushgatewayURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: pushgateway_url must be an http(s) URL, got %q", ErrInvalid, cfg.PushgatewayURL)
		}
	}
	return nil
}

// AdminUser is the admin identity described by the config.
func (c Lab) AdminUser() data.User {
	return data.User{
		ID:       c.AdminLogin,
		Passhash: c.AdminPasshash,
		Name:     c.AdminName,
		Email:    c.AdminEmail,
	}
}

// Store opens the installation's data document with the admin attached.
func (c Lab) Store() *data.FileStore {
	admin := c.AdminUser()
	return data.NewFileStore(c.DataPath, &admin)
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
