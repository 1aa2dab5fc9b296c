package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/auth/apikey"
)

func newKeygenCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "keygen NAME",
		Short: "Generate a writer API key",
		Long: `Keygen prints a new raw API key and the auth.apiKeys entry that admits it.
The raw key is not stored anywhere; keep it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, hash, err := apikey.GenerateKey()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if opts.output == OutputJSON {
				return writeJSON(w, map[string]string{"name": args[0], "key": raw, "hash": hash})
			}
			fmt.Fprintf(w, "key:  %s\n", raw)
			fmt.Fprintf(w, "config:\n  auth:\n    apiKeys:\n      - name: %s\n        hash: %s\n", args[0], hash)
			return nil
		},
	}
}
