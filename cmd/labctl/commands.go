package main

import (
	"context"
	"fmt"
	"os"

	"github.com/danmuck/labctl/internal/cli"
	"github.com/danmuck/labctl/internal/config"
	"github.com/danmuck/labctl/internal/data"
	"github.com/danmuck/labctl/internal/install"
	"github.com/danmuck/labctl/internal/observability"
	"github.com/danmuck/labctl/internal/reconcile"
	"github.com/danmuck/labctl/internal/server"
	"github.com/danmuck/labctl/internal/sources"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

func commands() (*cli.Table, error) {
	return cli.NewTable("labctl",
		createCommand(),
		runserverCommand(),
		importUsersCommand(),
		checkConfigCommand(),
	)
}

func createCommand() *cli.Command {
	var opts install.Options
	var prompt bool
	return &cli.Command{
		Name:    "create",
		Summary: "create a lab installation",
		Usage:   "[options] <path>",
		Args:    1,
		Flags: func() *pflag.FlagSet {
			opts = install.DefaultOptions("")
			fs := pflag.NewFlagSet("create", pflag.ContinueOnError)
			fs.BoolVarP(&opts.Force, "force", "f", false, "overwrite existing files")
			fs.StringVar(&opts.AdminLogin, "admin-login", opts.AdminLogin, "administrator login")
			fs.StringVar(&opts.AdminName, "admin-name", opts.AdminName, "administrator name")
			fs.StringVar(&opts.AdminPassword, "admin-password", opts.AdminPassword, "administrator password")
			fs.StringVar(&opts.AdminEmail, "admin-email", opts.AdminEmail, "administrator email")
			fs.BoolVar(&opts.DebugServer, "debug-server", false, "run server in debug mode")
			fs.StringVar(&opts.ListenAddr, "listen-addr", opts.ListenAddr, "server listen address")
			fs.BoolVar(&prompt, "prompt-password", false, "read the administrator password from the terminal")
			return fs
		},
		Run: func(fs *pflag.FlagSet, args []string) error {
			opts.Path = args[0]
			if prompt {
				if fs.Changed("admin-password") {
					return fmt.Errorf("%w: --prompt-password conflicts with --admin-password", cli.ErrUsage)
				}
				pw, err := readPassword()
				if err != nil {
					return err
				}
				opts.AdminPassword = pw
			}
			res, err := install.Initialize(opts)
			if err != nil {
				return err
			}
			log.Info().Str("config", res.Paths.Config).Str("admin", res.Config.AdminLogin).Msg("created lab installation")
			return nil
		},
	}
}

func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("--prompt-password requires a terminal on stdin")
	}
	fmt.Fprint(os.Stderr, "Administrator password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if len(pw) == 0 {
		return "", fmt.Errorf("empty administrator password")
	}
	return string(pw), nil
}

func runserverCommand() *cli.Command {
	var cfgPath, addr string
	return &cli.Command{
		Name:    "runserver",
		Summary: "run a lab instance",
		Usage:   "[options]",
		Args:    0,
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("runserver", pflag.ContinueOnError)
			fs.StringVarP(&cfgPath, "config", "c", config.ConfigFileName, "lab config path")
			fs.StringVar(&addr, "addr", "", "listen address (overrides listen_addr)")
			return fs
		},
		Run: func(_ *pflag.FlagSet, _ []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.ListenAddr = addr
			}
			srv, err := server.New(cfg, cfg.Store())
			if err != nil {
				return err
			}
			return srv.Serve()
		},
	}
}

func importUsersCommand() *cli.Command {
	var dryRun bool
	return &cli.Command{
		Name:    "import-users",
		Summary: "import users from the authors and credential directories",
		Usage:   "[options] <lab config path> <authors path> <credentials path>",
		Args:    3,
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("import-users", pflag.ContinueOnError)
			fs.BoolVarP(&dryRun, "dry-run", "n", false, "report changes without saving")
			return fs
		},
		Run: func(_ *pflag.FlagSet, args []string) error {
			return importUsers(args[0], args[1], args[2], reconcile.ImportOptions{DryRun: dryRun})
		},
	}
}

func importUsers(cfgPath, authorsPath, credsPath string, opts reconcile.ImportOptions) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	authors, err := sources.LoadAuthorsFile(authorsPath)
	if err != nil {
		return err
	}
	creds, err := sources.LoadCredentialsFile(credsPath)
	if err != nil {
		return err
	}

	report, err := reconcile.Import(cfg.Store(), authors, creds, cfg.SecretKey, cfg.AdminLogin, opts)
	report.Log(log.Logger)
	added, changed, warnings, errs := report.Counts()
	if err != nil {
		return err
	}

	totals := observability.ImportTotals{Added: added, Changed: changed, Warnings: warnings, Errors: errs, DryRun: opts.DryRun}
	if err := observability.PushImport(context.Background(), cfg.PushgatewayURL, totals); err != nil {
		log.Warn().Err(err).Msg("import metrics not pushed")
	}

	log.Info().
		Int("added", added).
		Int("changed", changed).
		Int("warnings", warnings).
		Int("skipped", errs).
		Bool("dry_run", opts.DryRun).
		Msg("import complete")
	if errs > 0 {
		return fmt.Errorf("import-users: %d entries skipped", errs)
	}
	return nil
}

func checkConfigCommand() *cli.Command {
	return &cli.Command{
		Name:    "check-config",
		Summary: "validate a lab config and its data document",
		Usage:   "<lab config path>",
		Args:    1,
		Run: func(_ *pflag.FlagSet, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			d, err := cfg.Store().Load()
			if err != nil {
				return err
			}
			if _, err := data.LoadStatus(cfg.StatusPath); err != nil {
				return err
			}
			log.Info().
				Str("config", args[0]).
				Int("users", len(d.Users)).
				Int("machines", len(d.Machines)).
				Msg("validated lab config")
			return nil
		},
	}
}
