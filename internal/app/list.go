package app

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pjloury/aerialctl/internal/catalog"
)

func newListCmd() *cobra.Command {
	var showAll bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the merged catalog",
		Long: `Print the catalog grouped by section. By default one canonical
entry per title is shown (local preferred); --all also shows the
remote twin of locally available titles.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records := rec.CanonicalSet()
			if showAll {
				records = rec.Catalog()
			}
			if len(records) == 0 {
				warn("catalog is empty — run 'aerialctl sync'")
				return nil
			}
			printCatalog(records)
			return nil
		},
	}

	cmd.Flags().BoolVar(&showAll, "all", false, "Include remote twins of local titles")
	return cmd
}

func printCatalog(records []catalog.AssetRecord) {
	section := ""
	for _, r := range records {
		if r.Section != section {
			section = r.Section
			fmt.Println(color.CyanString(section))
		}
		fmt.Printf("  %s %s%s\n", marker(r), r.Title, annotations(r))
	}
}

func marker(r catalog.AssetRecord) string {
	if r.Local && r.Selected {
		return color.GreenString("●")
	}
	if r.Local {
		return color.GreenString("○")
	}
	return color.HiBlackString("·")
}

func annotations(r catalog.AssetRecord) string {
	s := ""
	if !r.Local {
		s += color.HiBlackString(" (remote)")
	}
	if r.Thumbnail.Kind == catalog.ThumbnailUnavailable {
		s += color.HiBlackString(" [no thumbnail]")
	}
	return s
}
