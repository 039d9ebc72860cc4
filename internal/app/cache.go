package app

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pjloury/aerialctl/internal/cache"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage local video and thumbnail caches",
	}
	cmd.AddCommand(
		newCacheInfoCmd(),
		newCacheClearCmd(),
	)
	return cmd
}

func newCacheInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show cache disk usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			videos := cache.Stats(cacheMgr.VideosDir())
			thumbs := cache.Stats(cacheMgr.ThumbnailsDir())
			fmt.Printf("videos:     %d files, %s\n", videos.Files, humanBytes(videos.Bytes))
			fmt.Printf("thumbnails: %d files, %s\n", thumbs.Files, humanBytes(thumbs.Bytes))
			return nil
		},
	}
}

func newCacheClearCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all downloaded videos and cached thumbnails",
		Long: `Delete every downloaded video and cached thumbnail. Bundled
videos are untouched; the playback loop falls back to them. Everything
removed can be re-downloaded from the bucket.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			videos := cache.Stats(cacheMgr.VideosDir())
			thumbs := cache.Stats(cacheMgr.ThumbnailsDir())
			if videos.Files == 0 && thumbs.Files == 0 {
				ok("cache is already empty")
				return nil
			}

			if !force {
				fmt.Printf("This removes %d videos (%s) and %d thumbnails (%s).\n",
					videos.Files, humanBytes(videos.Bytes),
					thumbs.Files, humanBytes(thumbs.Bytes))
				fmt.Print("Type 'clear' to confirm: ")
				reader := bufio.NewReader(os.Stdin)
				confirmation, _ := reader.ReadString('\n')
				if strings.TrimSpace(confirmation) != "clear" {
					return fmt.Errorf("cancelled")
				}
			}

			if err := rec.ClearCache(); err != nil {
				return err
			}
			ok("cache cleared — %d bundled titles remain in the loop", len(cfg.Bundled))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation")
	return cmd
}
