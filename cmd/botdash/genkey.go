package main

import (
	"fmt"

	"github.com/aussiebroadwan/botdash/pkg/cryptox"
	"github.com/spf13/cobra"
)

// generatedSettings are the secrets genkey prints, in output order.
var generatedSettings = []string{"ENCRYPTION_KEY", "SESSION_SECRET", "PROVISIONER_SECRET"}

func newGenKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "genkey",
		Short: "Print fresh secrets in dotenv format",
		Long: `genkey prints a random 32-byte value for every secret botdash needs.
BOT_SECRET_KEY is not generated because it must match the provisioner's key.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range generatedSettings {
				value, err := cryptox.GenerateToken(cryptox.TokenSize256)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", name, value)
			}
			return nil
		},
	}
}
