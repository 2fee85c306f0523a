package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"loanledger/internal/adapter/notify"
	"loanledger/internal/adapter/repository/kv"
	"loanledger/internal/config"
	"loanledger/internal/domain/session"
	"loanledger/internal/infrastructure/logging"
	"loanledger/internal/infrastructure/storage"
	alertuc "loanledger/internal/usecase/alert"
	"loanledger/internal/usecase/importing"
	loanuc "loanledger/internal/usecase/loan"
)

type options struct {
	owner    string
	dbPath   string
	logLevel string
}

// app holds the usecases of one command run.
type app struct {
	sess    session.Session
	loans   *loanuc.Usecase
	imports *importing.Usecase
	alerts  *alertuc.Usecase
	log     *zap.Logger
	close   func() error
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	a := &app{}

	root := &cobra.Command{
		Use:           "loanctl",
		Short:         "Manage a loan ledger stored in a local sqlite file",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.owner, "owner", "", "owner id whose ledger is used (required)")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "loanledger.db", "sqlite database file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	_ = root.MarkPersistentFlagRequired("owner")

	root.AddCommand(
		newImportCmd(a),
		newExportCmd(a),
		newAlertsCmd(a),
		newStatsCmd(a),
		newListCmd(a),
	)
	return root
}

func (a *app) open(opts *options) error {
	log, err := logging.New(opts.logLevel)
	if err != nil {
		return err
	}
	backend, err := storage.Open(&config.Config{StoreDriver: config.DriverSQLite, SQLitePath: opts.dbPath}, log)
	if err != nil {
		return fmt.Errorf("open %s: %w", opts.dbPath, err)
	}
	tx := kv.NewLedgerUoW(kv.NewLoanRepository(backend.Store))
	a.sess = session.New(opts.owner)
	a.log = log
	a.loans = loanuc.NewUsecase(tx, log)
	a.imports = importing.NewUsecase(tx, log)
	a.alerts = alertuc.NewUsecase(tx, kv.NewAlertRepository(backend.Store), notify.NewLogNotifier(log), log)
	a.close = backend.Close
	return nil
}

// run wraps a command body so the store is closed whether or not it fails.
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if cerr := a.shutdown(); err == nil {
				err = cerr
			}
		}()
		return fn(cmd, args)
	}
}

func (a *app) shutdown() error {
	if a.log != nil {
		_ = a.log.Sync()
	}
	if a.close == nil {
		return nil
	}
	closeFn := a.close
	a.close = nil
	return closeFn()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
