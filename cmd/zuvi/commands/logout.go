package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func logoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store.Hydrate(ctx)
			snap := store.Snapshot()
			if snap.Token != "" {
				// Best-effort server-side revocation; the local clear is what
				// must not fail.
				if err := client.Logout(ctx, snap.Token); err != nil {
					logger.Warn("server-side logout failed", "error", err)
				}
			}

			store.Logout(ctx)
			fmt.Println("Logged out")
			return nil
		},
	}
	return cmd
}
