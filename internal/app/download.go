package app

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pjloury/aerialctl/internal/catalog"
	"github.com/pjloury/aerialctl/internal/download"
)

func newDownloadCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "download [title...]",
		Short: "Download remote videos to the local library",
		Long: `Download one or more videos by title. Already-downloaded titles
are verified and skipped. With --all, every remote-only title in the
catalog is fetched, a few at a time.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				return downloadAll(cmd)
			}
			if len(args) == 0 {
				return fmt.Errorf("give at least one title, or --all")
			}

			for _, title := range args {
				r, found := rec.FindByTitle(title)
				if !found {
					warn("no catalog entry for %q", title)
					continue
				}
				done := watchProgress(r.ID, r.Title)
				path, err := dl.Download(cmd.Context(), r)
				close(done)
				if errors.Is(err, download.ErrAlreadyDownloading) {
					warn("%s is already downloading", title)
					continue
				}
				if err != nil {
					return err
				}
				ok("%s → %s", title, path)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Download every remote-only title")
	return cmd
}

func downloadAll(cmd *cobra.Command) error {
	var remote []catalog.AssetRecord
	for _, r := range rec.CanonicalSet() {
		if !r.Local {
			remote = append(remote, r)
		}
	}
	if len(remote) == 0 {
		ok("nothing to download")
		return nil
	}
	sort.Slice(remote, func(i, j int) bool { return remote[i].Title < remote[j].Title })

	fmt.Printf("downloading %d videos (max %d at a time)\n", len(remote), cfg.Sync.MaxConcurrent)
	if err := dl.DownloadAll(cmd.Context(), remote, cfg.Sync.MaxConcurrent); err != nil {
		return err
	}
	ok("downloaded %d videos", len(remote))
	return nil
}

// watchProgress prints periodic progress for one in-flight download
// until the returned channel is closed.
func watchProgress(id, title string) chan struct{} {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if f, ok := dl.Progress()[id]; ok {
					fmt.Printf("\r  %s %3.f%%", title, f*100)
				}
			}
		}
	}()
	return done
}

// humanBytes formats a byte count for display.
func humanBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}
