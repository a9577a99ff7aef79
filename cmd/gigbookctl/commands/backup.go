package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBackupCmd(opts *globalOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot the database and prune old snapshots",
		Long: `Write a consistent snapshot of the database with VACUUM INTO, then delete
snapshots older than backup.retention_days. A retention of 0 keeps everything.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, _, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			if dir == "" {
				dir = cfg.Backup.StoragePath
			}
			path, err := db.Backup(cmd.Context(), dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "backup written to %s\n", path)

			removed, err := db.PruneBackups(dir, cfg.Backup.RetentionDays)
			if err != nil {
				return err
			}
			if removed > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d old backups\n", removed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "backup directory, overrides backup.storage_path")
	return cmd
}
