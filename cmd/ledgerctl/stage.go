package main

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"text/tabwriter"

	financeapp "github.com/erp/ledger/internal/application/finance"
	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	csvimport "github.com/erp/ledger/internal/infrastructure/import"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newStageCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stage <receivable|payable> <file.csv>",
		Short: "Classify an export against the ledger without writing",
		Example: `  ledgerctl stage receivable contas_a_receber.csv
  ledgerctl stage ap payables.csv --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			staged, _, err := a.stageFile(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(staged)
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCOUNTERPARTY\tDUE\tBALANCE\tSTATUS")
			for _, item := range staged.Items {
				r := item.Record
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.CounterpartyName,
					r.DueDate.Format("2006-01-02"), r.OutstandingBalance.StringFixed(2), item.Status)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			printSummary(a, staged.Summary)
			return nil
		},
	}
}

func newCommitCmd(a *app) *cobra.Command {
	var (
		actorName string
		batchSize int
	)
	cmd := &cobra.Command{
		Use:   "commit <receivable|payable> <file.csv>",
		Short: "Stage an export and write its new and changed records",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			staged, variant, err := a.stageFile(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			result, err := a.commit.Commit(cmd.Context(), financeapp.CommitRequest{
				Variant:    variant,
				Items:      staged.Items,
				Actor:      shared.Actor{Name: actorName, Role: "cli"},
				SourceName: filepath.Base(args[1]),
				BatchSize:  batchSize,
			})
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(result)
			}
			fmt.Fprintf(a.out, "committed %d %s records (%d new, %d changed, %d unchanged skipped) in %d batches, total %s\n",
				result.Committed, result.Variant, result.New, result.Changed, result.Skipped, result.Batches, result.Amount.StringFixed(2))
			if result.Locked > 0 {
				fmt.Fprintf(a.out, "%d records held by a settlement were not written: %s\n", result.Locked, strings.Join(result.LockedIDs, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&actorName, "actor", defaultActor(), "name recorded in the audit log")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "records per write batch (default: ledger.commit_batch_size)")
	return cmd
}

func (a *app) stageFile(cmd *cobra.Command, variantArg, path string) (*financeapp.StageResult, finance.Variant, error) {
	variant, err := finance.ParseVariant(variantArg)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	imported, err := a.importer.ReadCSV(f, variant)
	if err != nil {
		var importErr *csvimport.ImportError
		if errors.As(err, &importErr) {
			for _, rowErr := range importErr.Rows {
				fmt.Fprintf(cmd.ErrOrStderr(), "row %d, %s: %s\n", rowErr.Row, rowErr.Column, rowErr.Message)
			}
		}
		return nil, "", err
	}
	for _, h := range imported.UnknownHeaders {
		a.log.Warn("Ignoring unknown column", zap.String("column", h))
	}
	staged, err := a.staging.Stage(cmd.Context(), variant, imported.Records)
	if err != nil {
		return nil, "", err
	}
	return staged, variant, nil
}

func printSummary(a *app, s finance.StagingSummary) {
	fmt.Fprintf(a.out, "\n%d records: %d new, %d changed, %d unchanged", s.Total, s.New, s.Changed, s.Unchanged)
	if s.Duplicates > 0 {
		fmt.Fprintf(a.out, ", %d duplicate ids dropped", s.Duplicates)
	}
	if s.Locked > 0 {
		fmt.Fprintf(a.out, ", %d held by a settlement", s.Locked)
	}
	fmt.Fprintln(a.out)
}

func defaultActor() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return shared.SystemActor.Name
}
