package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/silentoaq/zuvi-auth/session"
)

func refreshCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the credential status of the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store.Hydrate(ctx)
			if !store.Snapshot().Authenticated {
				fmt.Println("Not authenticated")
				return nil
			}

			refresher := session.NewRefresher(client, store, logger)
			if err := refresher.Refresh(ctx); err != nil {
				return err
			}

			fmt.Println("Credential status refreshed")
			return nil
		},
	}
	return cmd
}
