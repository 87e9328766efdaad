package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	csvimport "github.com/erp/ledger/internal/infrastructure/import"
	"github.com/spf13/cobra"
)

func newDRECmd(a *app) *cobra.Command {
	var (
		start, end string
		period     string
		year       int
		index      int
	)
	cmd := &cobra.Command{
		Use:   "dre",
		Short: "Print the income statement for a period or date range",
		Example: `  ledgerctl dre --period quarter --year 2024 --index 1
  ledgerctl dre --start 01/01/2024 --end 31/03/2024 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := reportWindow(period, year, index, start, end)
			if err != nil {
				return err
			}
			stmt, err := a.reports.Generate(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(stmt)
			}
			printStatement(a, stmt)
			return nil
		},
	}
	cmd.Flags().StringVar(&period, "period", "", "period type: month, quarter, semester, year")
	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "year of the period")
	cmd.Flags().IntVar(&index, "index", 1, "1-based month, quarter or semester within the year")
	cmd.Flags().StringVar(&start, "start", "", "first day of the range")
	cmd.Flags().StringVar(&end, "end", "", "last day of the range")
	cmd.MarkFlagsMutuallyExclusive("period", "start")
	cmd.MarkFlagsRequiredTogether("start", "end")
	return cmd
}

func reportWindow(period string, year, index int, start, end string) (time.Time, time.Time, error) {
	if period != "" {
		return finance.ResolvePeriod(finance.PeriodType(strings.ToUpper(period)), year, index)
	}
	if start == "" || end == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("either --period or both --start and --end are required")
	}
	from, err := csvimport.ParseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --start: %w", err)
	}
	to, err := csvimport.ParseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --end: %w", err)
	}
	return from, to, nil
}

func printStatement(a *app, stmt *finance.IncomeStatement) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "\t%s\tTOTAL\t\n", strings.Join(stmt.Periods, "\t"))
	var write func(rows []finance.ReportRow, depth int)
	write = func(rows []finance.ReportRow, depth int) {
		for _, row := range rows {
			cells := make([]string, len(stmt.Periods))
			for i, p := range stmt.Periods {
				cells[i] = row.Values[p].StringFixed(2)
			}
			fmt.Fprintf(tw, "%s%s\t%s\t%s\t\n", strings.Repeat("  ", depth), row.Label,
				strings.Join(cells, "\t"), row.Total.StringFixed(2))
			write(row.SubItems, depth+1)
		}
	}
	write(stmt.Rows, 0)
	_ = tw.Flush()
	if len(stmt.Unmapped) > 0 {
		fmt.Fprintf(a.out, "\nunmapped categories: %s\n", strings.Join(stmt.Unmapped, ", "))
	}
}

func newDebtorsCmd(a *app) *cobra.Command {
	var counterparty string
	cmd := &cobra.Command{
		Use:   "debtors",
		Short: "Print overdue receivables grouped by counterparty",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var profiles []finance.DebtorProfile
			if counterparty != "" {
				p, found, err := a.debtors.Find(cmd.Context(), counterparty)
				if err != nil {
					return err
				}
				if !found {
					return fmt.Errorf("no open receivables for %q", counterparty)
				}
				profiles = []finance.DebtorProfile{*p}
			} else {
				var err error
				if profiles, err = a.debtors.Summarize(cmd.Context()); err != nil {
					return err
				}
			}
			if a.asJSON {
				return a.printJSON(profiles)
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "COUNTERPARTY\tOVERDUE\t<=15D\t>15D\tNOTARY\tAGREEMENT\tTITLES\tSTATUS\tNEXT ACTION")
			for _, p := range profiles {
				next := "-"
				if p.NextActionDate != nil {
					next = p.NextActionDate.Format("2006-01-02")
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n", p.Counterparty,
					p.TotalOverdue.StringFixed(2), p.OverdueUpTo15.StringFixed(2), p.OverdueOver15.StringFixed(2),
					p.AtNotary.StringFixed(2), p.InAgreement.StringFixed(2), p.TitleCount, p.Status, next)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&counterparty, "counterparty", "", "show a single counterparty")
	return cmd
}
