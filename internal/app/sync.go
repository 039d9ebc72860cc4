package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pjloury/aerialctl/internal/catalog"
)

func newSyncCmd() *cobra.Command {
	var fetchThumbnails bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Refresh the catalog from the remote bucket",
		Long: `Fetch the remote bucket listing and merge it into the local
catalog. A failed fetch leaves the previous catalog untouched.

With --thumbnails, remote thumbnails not yet cached are downloaded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Sync.ListingTimeout)
			defer cancel()

			if err := rec.Refresh(ctx, client); err != nil {
				return err
			}

			records := rec.CanonicalSet()
			local := 0
			for _, r := range records {
				if r.Local {
					local++
				}
			}
			ok("catalog refreshed: %d titles (%d local)", len(records), local)

			if fetchThumbnails {
				fetchMissingThumbnails(cmd.Context(), records)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fetchThumbnails, "thumbnails", false, "Download uncached remote thumbnails")
	return cmd
}

func fetchMissingThumbnails(ctx context.Context, records []catalog.AssetRecord) {
	fetched := 0
	for _, r := range records {
		if r.Thumbnail.Kind != catalog.ThumbnailRemote || r.Key == "" {
			continue
		}
		if _, err := dl.DownloadThumbnail(ctx, r.Title, thumbnailKey(r.Key)); err != nil {
			warn("thumbnail for %s: %v", r.Title, err)
			continue
		}
		fetched++
	}
	if fetched > 0 {
		ok("cached %d thumbnails", fetched)
	}
}

// thumbnailKey derives the sidecar thumbnail key for a video key.
func thumbnailKey(videoKey string) string {
	return fmt.Sprintf("%s_thumbnail.jpg", videoKey)
}
