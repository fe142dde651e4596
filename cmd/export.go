package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"BuggyFM/config"
	"BuggyFM/db"
	"BuggyFM/store"
)

var (
	exportUserID int64
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a user's stored library to a file",
	Long:  `Read a user's persisted library blob from Redis and write it to a file, or stdout with -o -.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		if err := db.ConnectRedis(cfg); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer db.CloseRedis()

		blobs := store.NewBlobStore(db.RedisClient)
		data, found, err := blobs.Load(context.Background(), exportUserID)
		if err != nil {
			log.Fatalf("Failed to load library: %v", err)
		}
		if !found {
			log.Fatalf("No stored library for user %d", exportUserID)
		}

		blob := store.EncodeAppData(data)
		if exportOut == "-" {
			fmt.Print(blob)
			return
		}
		if err := os.WriteFile(exportOut, []byte(blob), 0o644); err != nil {
			log.Fatalf("Failed to write %s: %v", exportOut, err)
		}
		fmt.Printf("Exported %d playlists, %d favorites to %s\n",
			len(data.Playlists), len(data.Favorites), exportOut)
	},
}

func init() {
	exportCmd.Flags().Int64VarP(&exportUserID, "user", "u", 0, "user ID to export")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "export.txt", "output file, or - for stdout")
	exportCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(exportCmd)
}
