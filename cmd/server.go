package cmd

import (
	"github.com/spf13/cobra"

	"BuggyFM/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the BuggyFM server",
	Long:  `Start the HTTP server exposing the player, library, catalog and assistant APIs.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		server.Start(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
