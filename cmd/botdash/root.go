package main

import (
	"github.com/spf13/cobra"
)

// newRootCmd builds the botdash command tree. Running botdash with no
// subcommand starts the server.
func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:   "botdash",
		Short: "Session and secret service for the bot dashboard",
		Long: `botdash runs the dashboard's Discord login, session cookies and
bot credential lookups behind a single HTTP API.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnvFile(envFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
	root.SetVersionTemplate(`{{printf "botdash version %s\n" .Version}}`)
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading configuration")

	root.AddCommand(newServeCmd())
	root.AddCommand(newGenKeyCmd())
	return root
}
