package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pjloury/aerialctl/internal/catalog"
)

func newSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select <title>...",
		Short: "Add local titles to the playback loop",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, title := range args {
				if err := rec.Select(catalog.LocalID(title)); err != nil {
					return err
				}
				ok("selected %s", title)
			}
			return nil
		},
	}
}

func newDeselectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deselect <title>...",
		Short: "Remove local titles from the playback loop",
		Long: `Remove titles from the playback loop. The last selected local
title always stays selected so the loop never goes empty.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, title := range args {
				id := catalog.LocalID(title)
				if _, found := rec.Find(id); !found {
					return fmt.Errorf("no local asset %q", title)
				}
				rec.Deselect(id)
				if r, _ := rec.Find(id); r.Selected {
					warn("%s stays selected — it is the last title in the loop", title)
				} else {
					ok("deselected %s", title)
				}
			}
			return nil
		},
	}
}
