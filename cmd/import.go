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
	importUserID int64
	importFile   string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a library file into a user's store",
	Long:  `Decode an exported library file and persist it as the user's library blob in Redis.`,
	Run: func(cmd *cobra.Command, args []string) {
		raw, err := os.ReadFile(importFile)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", importFile, err)
		}
		data, err := store.DecodeAppData(string(raw))
		if err != nil {
			log.Fatalf("Unrecognized export format: %v", err)
		}

		cfg := config.Load()
		if err := db.ConnectRedis(cfg); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer db.CloseRedis()

		blobs := store.NewBlobStore(db.RedisClient)
		if err := blobs.Save(context.Background(), importUserID, data); err != nil {
			log.Fatalf("Failed to save library: %v", err)
		}
		fmt.Printf("Imported %d playlists, %d favorites for user %d\n",
			len(data.Playlists), len(data.Favorites), importUserID)
	},
}

func init() {
	importCmd.Flags().Int64VarP(&importUserID, "user", "u", 0, "user ID to import for")
	importCmd.Flags().StringVarP(&importFile, "file", "f", "export.txt", "file to import")
	importCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(importCmd)
}
