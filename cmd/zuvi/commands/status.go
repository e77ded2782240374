package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store.Hydrate(ctx)
			snap := store.Snapshot()
			if !snap.Authenticated {
				fmt.Println("Not authenticated")
				return nil
			}

			res, err := client.Verify(ctx, snap.Token)
			if err == nil && !res.Valid {
				store.Logout(ctx)
				fmt.Println("Not authenticated (stored session expired)")
				return nil
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(snap.User)
		},
	}
	return cmd
}
