// Command migrate applies the PostgreSQL schema of the ledger. SQLite
// deployments do not need it: the server creates their tables on start.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/wims/backend/internal/infrastructure/config"
	"github.com/wims/backend/internal/infrastructure/logger"
	"github.com/wims/backend/internal/infrastructure/migration"
	"github.com/wims/backend/migrations"
)

const defaultMigrationsDir = "migrations"

var errUsage = errors.New("usage")

// command runs against a migrator; offline commands get a nil migrator
type command struct {
	usage   string
	help    string
	offline bool
	run     func(m *migration.Migrator, args []string, opts cliOptions, log *zap.Logger) error
}

type cliOptions struct {
	dir string
}

var commands = map[string]command{
	"up": {usage: "up", help: "Apply all pending migrations",
		run: func(m *migration.Migrator, _ []string, _ cliOptions, _ *zap.Logger) error { return m.Up() }},
	"down": {usage: "down", help: "Roll back all migrations",
		run: func(m *migration.Migrator, _ []string, _ cliOptions, _ *zap.Logger) error { return m.Down() }},
	"step": {usage: "step <n>", help: "Apply n migrations (negative rolls back)",
		run: func(m *migration.Migrator, args []string, _ cliOptions, _ *zap.Logger) error {
			n, err := intArg(args)
			if err != nil {
				return err
			}
			return m.Steps(n)
		}},
	"goto": {usage: "goto <version>", help: "Migrate to a specific version",
		run: func(m *migration.Migrator, args []string, _ cliOptions, _ *zap.Logger) error {
			v, err := intArg(args)
			if err != nil || v < 0 {
				return errUsage
			}
			return m.GoTo(uint(v))
		}},
	"version": {usage: "version", help: "Show the applied version",
		run: func(m *migration.Migrator, _ []string, _ cliOptions, log *zap.Logger) error {
			v, dirty, err := m.Version()
			if err != nil {
				return err
			}
			log.Info("Current migration version", zap.Uint("version", v), zap.Bool("dirty", dirty))
			return nil
		}},
	"force": {usage: "force <version>", help: "Mark a version as applied (clears a dirty state)",
		run: func(m *migration.Migrator, args []string, _ cliOptions, _ *zap.Logger) error {
			v, err := intArg(args)
			if err != nil {
				return err
			}
			return m.Force(v)
		}},
	"drop": {usage: "drop -confirm", help: "Drop every table, including the ledger history",
		run: func(m *migration.Migrator, args []string, _ cliOptions, _ *zap.Logger) error {
			if len(args) == 0 || strings.TrimLeft(args[0], "-") != "confirm" {
				return errUsage
			}
			return m.Drop()
		}},
	"create": {usage: "create <name> [desc]", help: "Write a new up/down migration pair", offline: true,
		run: func(_ *migration.Migrator, args []string, opts cliOptions, log *zap.Logger) error {
			if len(args) == 0 {
				return errUsage
			}
			dir := opts.dir
			if dir == "" {
				dir = defaultMigrationsDir
			}
			desc := ""
			if len(args) > 1 {
				desc = args[1]
			}
			mf, err := migration.CreateMigration(dir, args[0], desc)
			if err != nil {
				return err
			}
			log.Info("Migration created",
				zap.String("version", mf.Version),
				zap.String("up_file", mf.UpPath),
				zap.String("down_file", mf.DownPath),
			)
			return nil
		}},
	"list": {usage: "list", help: "List the available migrations", offline: true,
		run: func(_ *migration.Migrator, _ []string, opts cliOptions, _ *zap.Logger) error {
			var (
				entries []migration.Entry
				err     error
			)
			if opts.dir != "" {
				entries, err = migration.ListMigrations(opts.dir)
			} else {
				entries, err = migration.ListMigrationsFS(migrations.FS)
			}
			if err != nil {
				return err
			}
			for _, e := range entries {
				note := ""
				if !e.HasDown {
					note = " (no down migration)"
				}
				fmt.Printf("  %d  %s%s\n", e.Version, e.Name, note)
			}
			return nil
		}},
}

var commandOrder = []string{"up", "down", "step", "goto", "version", "force", "drop", "create", "list"}

func intArg(args []string) (int, error) {
	if len(args) == 0 {
		return 0, errUsage
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, errUsage
	}
	return n, nil
}

func main() {
	var (
		opts     cliOptions
		logLevel string
	)
	flag.StringVar(&opts.dir, "path", "", "Read migrations from this directory instead of the embedded set")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}
	name, args := args[0], args[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
		printUsage()
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	if opts.dir != "" {
		if opts.dir, err = filepath.Abs(opts.dir); err != nil {
			log.Fatal("Failed to resolve migrations path", zap.Error(err))
		}
	}

	err = run(cmd, args, opts, log)
	switch {
	case errors.Is(err, errUsage):
		fmt.Fprintf(os.Stderr, "usage: migrate %s\n", cmd.usage)
		os.Exit(2)
	case err != nil:
		log.Fatal("Migration command failed", zap.String("command", name), zap.Error(err))
	}
}

func run(cmd command, args []string, opts cliOptions, log *zap.Logger) error {
	if cmd.offline {
		return cmd.run(nil, args, opts, log)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Database.Driver != config.DriverPostgres {
		return fmt.Errorf("driver %q: migrations only apply to postgres", cfg.Database.Driver)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}

	src := migration.EmbeddedSource()
	if opts.dir != "" {
		src = migration.DirSource(opts.dir)
	}
	m, err := migration.New(db, src, log)
	if err != nil {
		return err
	}
	defer m.Close()

	return cmd.run(m, args, opts, log)
}

func printUsage() {
	var b strings.Builder
	b.WriteString("WIMS database migration tool\n\nUsage:\n  migrate [flags] <command> [arguments]\n\nCommands:\n")
	for _, name := range commandOrder {
		c := commands[name]
		fmt.Fprintf(&b, "  %-22s%s\n", c.usage, c.help)
	}
	b.WriteString(`
Flags:
  -path string          Migrations directory (default: embedded set; create uses ./migrations)
  -log-level string     Log level: debug, info, warn, error (default: info)

Connection settings come from WIMS_DATABASE_* variables, .env or config.toml.
`)
	fmt.Fprint(os.Stderr, b.String())
}
