// Package commands implements the zuvi wallet session CLI.
package commands

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/silentoaq/zuvi-auth/adapters/challenge"
	"github.com/silentoaq/zuvi-auth/adapters/envelope"
	"github.com/silentoaq/zuvi-auth/adapters/wallet"
	"github.com/silentoaq/zuvi-auth/session"
)

var (
	home   string
	apiURL string

	client *challenge.Client
	store  *session.Store
	logger *slog.Logger
)

func Execute() error {
	root := &cobra.Command{
		Use:   "zuvi",
		Short: "Wallet challenge-response session CLI",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".zuvi")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}

			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
			client = challenge.NewClient(apiURL)
			store = session.NewStore(envelope.NewFileStore(home), logger)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "state dir (default ~/.zuvi)")
	root.PersistentFlags().StringVar(&apiURL, "api", "http://127.0.0.1:9000", "challenge service base URL")

	root.AddCommand(loginCmd(), statusCmd(), refreshCmd(), logoutCmd())
	return root.Execute()
}

// keyfilePath is where the local wallet keypair lives.
func keyfilePath() string {
	return filepath.Join(home, "wallet.json")
}

// loadOrCreateWallet opens the local wallet, generating a keypair on first
// use.
func loadOrCreateWallet() (*wallet.Keypair, error) {
	kp, err := wallet.Load(keyfilePath())
	if err == nil {
		return kp, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	kp, err = wallet.Generate()
	if err != nil {
		return nil, err
	}
	if err := kp.SaveFile(keyfilePath()); err != nil {
		return nil, err
	}
	return kp, nil
}
