package commands

import (
	"fmt"

	"gigbook/internal/service"

	"github.com/spf13/cobra"
)

func newSetRoleCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-role EMAIL ROLE",
		Short: "Change the role of an existing user",
		Long: `Change the role of an existing user. ROLE is one of artist, venue or admin.

The identity provider's role claim still wins on the user's next login
when the token carries one.`,
		Example: "  gigbookctl set-role owner@example.com admin",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, logger, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			users := service.NewUserService(db, cfg.Auth.DefaultRole, logger)
			if err := users.SetRole(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", args[0], args[1])
			return nil
		},
	}
}
