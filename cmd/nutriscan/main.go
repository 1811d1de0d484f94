// cmd/nutriscan/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"nutriscan/internal/config"
	"nutriscan/internal/favorites"
	"nutriscan/internal/logging"
	"nutriscan/internal/storage"
)

var version = "1.0.0"

// app carries what the persistent flags resolve to.
type app struct {
	cfgFile  string
	logLevel string
	dbPath   string

	cfg *config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "nutriscan",
		Short:         "Score packaged food products and keep a list of favorites",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.nutriscan.yaml)")
	root.PersistentFlags().StringVarP(&a.logLevel, "loglevel", "l", "", "Set log level. Available: debug, info, warn, error, fatal")
	root.PersistentFlags().StringVar(&a.dbPath, "db-path", "", "Database path (overrides db_path)")

	root.AddCommand(newServeCmd(a))
	root.AddCommand(newScoreCmd(a))
	root.AddCommand(newFavCmd(a))
	root.AddCommand(newHistoryCmd(a))
	root.AddCommand(newVersionCmd())

	return root
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.DBPath = a.dbPath
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if err := logging.SetLogLevel(cfg.LogLevel); err != nil {
		return err
	}
	logging.SetOutput(cmd.ErrOrStderr())
	a.cfg = cfg
	return nil
}

// openStore opens the database and the favorites store on top of it. The
// returned func closes both.
func (a *app) openStore() (*storage.SQLiteStorage, *favorites.Store, func(), error) {
	stor, err := storage.NewSQLiteStorage(a.cfg.DBPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}
	store := favorites.New(stor,
		favorites.WithKey(a.cfg.FavoritesKey),
		favorites.WithOpTimeout(a.cfg.FavoritesOpTimeout),
	)
	closeAll := func() {
		store.Close()
		stor.Close()
	}
	return stor, store, closeAll, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "nutriscan version %s\n", version)
		},
	}
}
