package cmd

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"trading-journal-go/internal/bootstrap"
	"trading-journal-go/internal/config"
	"trading-journal-go/internal/logger"
	"trading-journal-go/internal/prefs"
	"trading-journal-go/internal/session"
	"trading-journal-go/internal/store"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configDir string
	logLevel  string
}

// env is what every subcommand works against.
type env struct {
	cfg   config.Config
	log   *zap.Logger
	store store.Store
	sess  *session.Session
}

// Execute builds the command tree and runs it.
func Execute() error {
	return newRootCmd().Execute()
}

// newRootCmd builds a fresh command tree; flags never leak between runs.
func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "journal",
		Short: "A personal trading journal",
		Long: `Journal records discretionary trades and reports performance statistics.

Trades are kept in the store selected by store.driver in configs/config.yml
(firestore, mongo, sqlite or http). Examples:
  journal add --pair XAUUSD --position Buy --lot 0.01 --profit 45.5
  journal list --result Loss
  journal stats
  journal export -o trades.csv`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configDir, "config", "c", "./configs", "directory containing config.yml")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logger.level")

	rootCmd.AddCommand(
		newListCmd(opts),
		newAddCmd(opts),
		newEditCmd(opts),
		newDeleteCmd(opts),
		newStatsCmd(opts),
		newExportCmd(opts),
		newResetCmd(opts),
		newCapitalCmd(opts),
		newThemeCmd(opts),
	)
	return rootCmd
}

// openSession loads config, opens the store and loads the journal.
func openSession(ctx context.Context, opts *globalOptions) (*env, error) {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(opts.configDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.logLevel != "" {
		cfg.Logger.Level = opts.logLevel
	}

	log, err := logger.New(cfg.Logger, "journal")
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	st, err := bootstrap.OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	sess := session.New(st, prefs.NewFileStore(cfg.Prefs.File), log, session.Options{
		ListLimit: cfg.Store.ListLimit,
		BatchSize: cfg.Store.BatchSize,
	})
	if err := sess.Load(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}

	return &env{cfg: cfg, log: log, store: st, sess: sess}, nil
}

func (e *env) close() {
	_ = e.store.Close()
	_ = e.log.Sync()
}

// bannerError prefixes err with the banner the session raised for it.
func (e *env) bannerError(err error) error {
	if err == nil {
		return nil
	}
	if b := e.sess.Snapshot().Error; b != nil {
		return fmt.Errorf("%s: %w", b.Message, err)
	}
	return err
}
