package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/thatcatcamp/sideload/internal/config"
	"github.com/thatcatcamp/sideload/internal/db"
	"github.com/thatcatcamp/sideload/internal/media"
	"github.com/thatcatcamp/sideload/internal/users"
)

var mediaCmd = &cobra.Command{
	Use:   "media",
	Short: "Manage the media library",
}

var mediaImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Catalog stored files that have no attachment record",
	Long: `Scans the local media directory and creates attachment records for
allow-listed files that are not in the catalog yet. Use it to recover files
stored by requests whose catalog insert failed.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := initSystemDB(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		settings := config.Load()
		if settings.StorageType != "local" {
			fmt.Fprintf(os.Stderr, "Error: media import only supports local storage (storage.type=%s)\n", settings.StorageType)
			os.Exit(1)
		}

		var uploadedBy uint
		if owner, _ := cmd.Flags().GetString("owner"); owner != "" {
			user, err := users.GetUserByEmail(db.GetDB(), owner)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			uploadedBy = user.ID
		}

		store := media.NewLocalStore(settings.MediaDir, settings.BaseURL)
		count, err := media.ImportExistingFiles(db.GetDB(), store, uploadedBy)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error importing media (%d imported): %v\n", count, err)
			os.Exit(1)
		}

		fmt.Printf("Imported %d file(s) from %s\n", count, settings.MediaDir)
	},
}

func init() {
	mediaImportCmd.Flags().String("owner", "", "email of the user recorded as uploader")

	mediaCmd.AddCommand(mediaImportCmd)
	rootCmd.AddCommand(mediaCmd)
}
