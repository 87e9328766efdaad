package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	financeapp "github.com/erp/ledger/internal/application/finance"
	"github.com/erp/ledger/internal/infrastructure/config"
	csvimport "github.com/erp/ledger/internal/infrastructure/import"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

// app holds the services shared by every subcommand
type app struct {
	log      *zap.Logger
	db       *persistence.Database
	importer *csvimport.Importer
	staging  *financeapp.StagingService
	commit   *financeapp.CommitService
	reports  *financeapp.ReportService
	debtors  *financeapp.DebtorService
	out      io.Writer
	asJSON   bool
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
		a          = &app{out: os.Stdout}
	)

	root := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Ledger reconciliation and reporting from the command line",
		Long: `ledgerctl stages and commits receivable and payable exports and
prints the income statement (DRE) and debtor profiles, using the same
database and configuration as the ledger server.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.Context(), configPath, logLevel)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: ./config.toml or /etc/ledger/config.toml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&a.asJSON, "json", false, "print results as JSON")

	root.AddCommand(
		newStageCmd(a),
		newCommitCmd(a),
		newDRECmd(a),
		newDebtorsCmd(a),
	)
	return root
}

func (a *app) open(ctx context.Context, configPath, logLevel string) error {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return err
	}
	a.log, err = logger.New(&logger.Config{Level: logLevel, Format: "console", Output: "stderr"})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.db, err = persistence.NewDatabase(&cfg.Database, a.log)
	if err != nil {
		return err
	}
	if cfg.Database.Driver == "sqlite" {
		if err := a.db.AutoMigrate(); err != nil {
			return err
		}
	}
	loc, err := cfg.Ledger.Location()
	if err != nil {
		return err
	}

	records := persistence.NewGormLedgerRecordRepository(a.db.DB)
	mappings := persistence.NewGormCategoryMappingRepository(a.db.DB)
	opts := []financeapp.Option{
		financeapp.WithLocation(loc),
		financeapp.WithAuditLog(persistence.NewGormAuditLogRepository(a.db.DB)),
	}

	a.importer = csvimport.NewImporter()
	a.staging = financeapp.NewStagingService(records)
	a.commit = financeapp.NewCommitService(records, cfg.Ledger.CommitBatchSize, cfg.Ledger.CommitConcurrency, opts...)
	a.reports = financeapp.NewReportService(records, mappings, opts...)
	a.debtors = financeapp.NewDebtorService(records, opts...)
	a.log.Debug("ledgerctl ready", zap.String("driver", cfg.Database.Driver))
	return nil
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	_ = a.log.Sync()
	return a.db.Close()
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
