package commands

import (
	"fmt"
	"io"
	"os"

	"gigbook/internal/config"
	"gigbook/internal/database"
	"gigbook/internal/logging"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	configPath string
	dbPath     string
	verbose    bool
}

// NewRootCmd builds the gigbookctl command tree.
func NewRootCmd(version string) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "gigbookctl",
		Short: "Administration tool for the gigbook API",
		Long: `gigbookctl runs maintenance tasks against the gigbook database:
schema migration, role assignment, bookings export and backups.

It reads the same YAML configuration as the API server.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = "configs/config.yaml"
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfig, "path to the YAML config")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "database path, overrides database.path")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log database activity to stderr")

	root.AddCommand(
		newMigrateCmd(opts),
		newSetRoleCmd(opts),
		newExportBookingsCmd(opts),
		newBackupCmd(opts),
	)
	return root
}

func (o *globalOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.dbPath != "" {
		cfg.Database.Path = o.dbPath
	}
	return cfg, nil
}

func (o *globalOptions) logger(cfg *config.Config, errOut io.Writer) *zerolog.Logger {
	if !o.verbose {
		l := zerolog.New(io.Discard)
		return &l
	}
	l := zerolog.New(zerolog.ConsoleWriter{Out: errOut}).With().Timestamp().Str("app", cfg.App.Name).Logger()
	return logging.Component(&l, "gigbookctl")
}

// open loads config and opens (and migrates) the database.
func (o *globalOptions) open(cmd *cobra.Command) (*config.Config, *database.DB, *zerolog.Logger, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := o.logger(cfg, cmd.ErrOrStderr())
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, db, logger, nil
}
