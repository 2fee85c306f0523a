package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"loanledger/internal/adapter/source"
	"loanledger/internal/domain/ledger"
	"loanledger/internal/domain/loan"
	"loanledger/internal/usecase/importing"
)

func newImportCmd(a *app) *cobra.Command {
	var (
		reconcile bool
		format    string
	)
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import loans from a csv, xlsx or json export file",
		Long: `Import loans from a spreadsheet or a previous export.

By default rows whose borrower, amount and start date already exist are
skipped. With --reconcile rows are matched to existing loans by borrower
email, then name, and merged into them.`,
		Args: cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			f, err := resolveFormat(format, args[0])
			if err != nil {
				return err
			}
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			mode := importing.ModeAppend
			if reconcile {
				mode = importing.ModeReconcile
			}
			rep, err := a.imports.Import(cmd.Context(), a.sess, source.Input{Format: f, R: file}, mode)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), rep)
		}),
	}
	cmd.Flags().BoolVar(&reconcile, "reconcile", false, "merge into matching loans instead of appending")
	cmd.Flags().StringVar(&format, "format", "", "csv, xlsx or json (default: from the file extension)")
	return cmd
}

func resolveFormat(flag, name string) (source.Format, error) {
	if flag != "" {
		return source.ParseFormat(flag)
	}
	return source.FormatFromName(name)
}

func newExportCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the ledger as a JSON export document",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			doc, err := a.loans.Export(cmd.Context(), a.sess)
			if err != nil {
				return err
			}
			if out == "" {
				return writeJSON(cmd.OutOrStdout(), doc)
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := writeJSON(f, doc); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d loans to %s\n", doc.LoanCount, out)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "file to write instead of stdout")
	return cmd
}

func newAlertsCmd(a *app) *cobra.Command {
	var unread bool
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Regenerate alerts and print them",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			if _, err := a.alerts.GenerateAlerts(cmd.Context(), a.sess); err != nil {
				return err
			}
			alerts, err := a.alerts.ListAlerts(cmd.Context(), a.sess, unread)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), alerts)
		}),
	}
	cmd.Flags().BoolVar(&unread, "unread", false, "only print unread alerts")
	return cmd
}

func bindFilterFlags(cmd *cobra.Command, f *ledger.Filter, status *string) {
	cmd.Flags().StringVar(status, "status", "", "on_track, at_risk, overdue, defaulted or paid_off")
	cmd.Flags().StringVar(&f.Tag, "tag", "", "only loans carrying this tag")
	cmd.Flags().StringVar(&f.LoanOfficer, "officer", "", "only loans of this loan officer")
	cmd.Flags().StringVarP(&f.Search, "search", "q", "", "borrower name or email contains")
}

func newStatsCmd(a *app) *cobra.Command {
	var (
		f      ledger.Filter
		status string
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print portfolio statistics",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			f.Status = loan.Status(status)
			st, err := a.loans.Stats(cmd.Context(), a.sess, f)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), st)
		}),
	}
	bindFilterFlags(cmd, &f, &status)
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var (
		f      ledger.Filter
		status string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print loans, optionally filtered",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			f.Status = loan.Status(status)
			loans, err := a.loans.ListLoans(cmd.Context(), a.sess, f)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), loans)
		}),
	}
	bindFilterFlags(cmd, &f, &status)
	return cmd
}
