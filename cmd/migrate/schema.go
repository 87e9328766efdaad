package main

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const scaffoldDir = "migrations"

type schemaTool struct {
	configPath string
	dir        string
	logLevel   string
	out        io.Writer
}

func newSchemaCmd(out io.Writer) *cobra.Command {
	t := &schemaTool{out: out}
	root := &cobra.Command{
		Use:   "ledger-migrate",
		Short: "Apply and author PostgreSQL schema versions for the ledger",
		Long: `ledger-migrate applies the versioned ledger schema to PostgreSQL.
Without --dir the schema compiled into the binary is used. SQLite databases
are created by the server on startup and are not versioned.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&t.configPath, "config", "c", "", "config file (default: ./config.toml or /etc/ledger/config.toml)")
	root.PersistentFlags().StringVar(&t.dir, "dir", "", "directory of .up.sql/.down.sql files")
	root.PersistentFlags().StringVar(&t.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		t.apply("up", "Apply every pending version", cobra.NoArgs, func(m *migration.Migrator, _ []string) error {
			return m.Up()
		}),
		t.apply("down", "Revert every applied version", cobra.NoArgs, func(m *migration.Migrator, _ []string) error {
			return m.Down()
		}),
		t.apply("step <n>", "Apply n versions, or revert them when n is negative", cobra.ExactArgs(1), func(m *migration.Migrator, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n == 0 {
				return fmt.Errorf("step count must be a non-zero integer, got %q", args[0])
			}
			return m.Steps(n)
		}),
		t.apply("force <version>", "Mark version as applied and clear the dirty flag", cobra.ExactArgs(1), func(m *migration.Migrator, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("version must be an integer, got %q", args[0])
			}
			return m.Force(v)
		}),
		t.apply("version", "Print the applied version", cobra.NoArgs, func(m *migration.Migrator, _ []string) error {
			v, dirty, err := m.Version()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(t.out, "version=%d dirty=%t\n", v, dirty)
			return err
		}),
		t.newCreateCmd(),
		t.newListCmd(),
	)
	return root
}

// apply wraps a command that needs a live PostgreSQL connection
func (t *schemaTool) apply(use, short string, args cobra.PositionalArgs, run func(*migration.Migrator, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, argv []string) error {
			log, err := logger.New(&logger.Config{Level: t.logLevel, Format: "console", Output: "stderr"})
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			m, closeDB, err := t.open(log)
			if err != nil {
				return err
			}
			defer closeDB()

			if err := run(m, argv); err != nil {
				log.Error("schema command failed", zap.String("command", cmd.Name()), zap.Error(err))
				return err
			}
			return nil
		},
	}
}

func (t *schemaTool) open(log *zap.Logger) (*migration.Migrator, func(), error) {
	cfg, err := config.LoadFile(t.configPath)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.Driver == "sqlite" {
		return nil, nil, errors.New("sqlite schemas are not versioned; the server creates them on startup")
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("database unreachable: %w", err)
	}
	m, err := migration.New(db, t.dir, log)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return m, func() {
		_ = m.Close()
		_ = db.Close()
	}, nil
}

func (t *schemaTool) scaffoldDir() string {
	if t.dir == "" {
		return scaffoldDir
	}
	return t.dir
}

func (t *schemaTool) newCreateCmd() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Write an empty up/down pair with the next version number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mf, err := migration.CreateMigration(t.scaffoldDir(), args[0], description)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(t.out, "%s\n%s\n", mf.UpPath, mf.DownPath)
			return err
		},
	}
	cmd.Flags().StringVarP(&description, "description", "m", "", "comment written at the top of both files")
	return cmd
}

func (t *schemaTool) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the version files on disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := migration.ListMigrations(t.scaffoldDir())
			if err != nil {
				return err
			}
			for _, name := range names {
				if _, err := fmt.Fprintln(t.out, name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
