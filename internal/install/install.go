// Package install creates a new lab installation: secret material, the
// admin credential, and empty data/status documents.
package install

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/danmuck/labctl/internal/auth"
	"github.com/danmuck/labctl/internal/config"
	"github.com/danmuck/labctl/internal/data"
	"github.com/rs/zerolog/log"
)

var (
	ErrConfigurationExists = errors.New("configuration exists")
	ErrFilesystem          = errors.New("filesystem error")
)

const (
	DefaultAdminLogin    = "admin"
	DefaultAdminName     = "Administrator"
	DefaultAdminPassword = "admin"
	DefaultAdminEmail    = "admin@example.com"
)

type Options struct {
	Path          string
	AdminLogin    string
	AdminName     string
	AdminPassword string
	AdminEmail    string
	DebugServer   bool
	ListenAddr    string
	Force         bool

	// Rand supplies secret entropy. Nil means crypto/rand.
	Rand io.Reader
}

func DefaultOptions(path string) Options {
	return Options{
		Path:          path,
		AdminLogin:    DefaultAdminLogin,
		AdminName:     DefaultAdminName,
		AdminPassword: DefaultAdminPassword,
		AdminEmail:    DefaultAdminEmail,
		ListenAddr:    config.DefaultListenAddr,
	}
}

type Result struct {
	Paths  config.Paths
	Config config.Lab
}

// Initialize creates the installation at opts.Path. Without Force it refuses
// to touch a directory that already holds any of the artifacts; with Force
// every artifact is rewritten from scratch.
func Initialize(opts Options) (Result, error) {
	if opts.Path == "" {
		return Result{}, fmt.Errorf("%w: empty installation path", ErrFilesystem)
	}
	if opts.AdminLogin == "" {
		return Result{}, fmt.Errorf("install: admin login required")
	}
	base, err := filepath.Abs(opts.Path)
	if err != nil {
		return Result{}, fmt.Errorf("%w: resolve %s: %v", ErrFilesystem, opts.Path, err)
	}
	if err := ensureDir(base); err != nil {
		return Result{}, err
	}

	paths := config.PathsFor(base)
	if !opts.Force {
		for _, p := range paths.All() {
			if _, err := os.Lstat(p); err == nil {
				return Result{}, fmt.Errorf("%w: %s (use --force to override)", ErrConfigurationExists, p)
			} else if !errors.Is(err, os.ErrNotExist) {
				return Result{}, fmt.Errorf("%w: stat %s: %v", ErrFilesystem, p, err)
			}
		}
	}

	secret, err := auth.NewSecretKey(opts.Rand)
	if err != nil {
		return Result{}, fmt.Errorf("install: %w", err)
	}
	listen := opts.ListenAddr
	if listen == "" {
		listen = config.DefaultListenAddr
	}
	cfg := config.Lab{
		SecretKey:     secret,
		AdminLogin:    opts.AdminLogin,
		AdminName:     opts.AdminName,
		AdminEmail:    opts.AdminEmail,
		AdminPasshash: auth.Passhash(opts.AdminPassword, secret),
		DataPath:      paths.Data,
		StatusPath:    paths.Status,
		DebugServer:   opts.DebugServer,
		ListenAddr:    listen,
	}
	if err := config.WriteTemplate(paths.Config, cfg, true); err != nil {
		return Result{}, fmt.Errorf("install: write config: %w", err)
	}
	log.Info().Str("path", paths.Config).Msg("wrote config")

	if err := cfg.Store().Save(data.New()); err != nil {
		return Result{}, fmt.Errorf("install: seed data: %w", err)
	}
	log.Info().Str("path", paths.Data).Msg("seeded data")

	if err := data.SaveStatus(paths.Status, data.Status{}); err != nil {
		return Result{}, fmt.Errorf("install: seed status: %w", err)
	}
	log.Info().Str("path", paths.Status).Msg("seeded status")

	return Result{Paths: paths, Config: cfg}, nil
}

func ensureDir(base string) error {
	info, err := os.Stat(base)
	switch {
	case err == nil:
		if !info.IsDir() {
			return fmt.Errorf("%w: %s exists but is not a directory", ErrFilesystem, base)
		}
		return nil
	case errors.Is(err, os.ErrNotExist):
		if err := os.Mkdir(base, 0o750); err != nil {
			return fmt.Errorf("%w: unable to create directory %s: %v", ErrFilesystem, base, err)
		}
		return nil
	default:
		return fmt.Errorf("%w: stat %s: %v", ErrFilesystem, base, err)
	}
}
