package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/silentoaq/zuvi-auth/session"
)

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate the local wallet against the challenge service",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			kp, err := loadOrCreateWallet()
			if err != nil {
				return err
			}
			if err := kp.Connect(ctx); err != nil {
				return err
			}

			coord := session.NewCoordinator(kp, client, store, logger)

			// Give a persisted session its chance first: a still-valid token
			// means no fresh challenge round-trip.
			store.Hydrate(ctx)
			if snap := store.Snapshot(); snap.Token != "" {
				res, err := client.Verify(ctx, snap.Token)
				if err == nil && res.Valid {
					fmt.Printf("Already authenticated as %s\n", snap.User.PublicKey)
					return nil
				}
				store.Logout(ctx)
			}

			if err := coord.Authenticate(ctx); err != nil {
				return err
			}

			snap := store.Snapshot()
			fmt.Printf("Authenticated as %s\n", snap.User.PublicKey)
			return nil
		},
	}
	return cmd
}
