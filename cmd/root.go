package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"BuggyFM/config"
	"BuggyFM/logger"
	"BuggyFM/server"
)

var rootCmd = &cobra.Command{
	Use:   "buggyfm",
	Short: "BuggyFM is a multi-source music player service.",
	Run: func(cmd *cobra.Command, args []string) {
		// Bare invocation starts the server, same as `buggyfm server`.
		cfg := loadConfig()
		server.Start(cfg)
	},
}

// loadConfig reads the configuration and brings up the logger.
func loadConfig() *config.Config {
	cfg := config.Load()
	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})
	return cfg
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
