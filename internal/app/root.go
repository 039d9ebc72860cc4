package app

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pjloury/aerialctl/internal/cache"
	"github.com/pjloury/aerialctl/internal/catalog"
	"github.com/pjloury/aerialctl/internal/config"
	"github.com/pjloury/aerialctl/internal/download"
	"github.com/pjloury/aerialctl/internal/logging"
	"github.com/pjloury/aerialctl/internal/s3"
	"github.com/pjloury/aerialctl/internal/store"
	"github.com/pjloury/aerialctl/internal/util"
)

var (
	cfg      *config.Config
	logger   *zap.Logger
	client   *s3.Client
	cacheMgr *cache.Manager
	rec      *catalog.Reconciler
	dl       *download.Downloader

	flagNoColor bool

	appVersion = "dev"
)

// SetVersion records the build version printed by the version command.
func SetVersion(v string) {
	appVersion = v
}

var rootCmd = &cobra.Command{
	Use:   "aerialctl",
	Short: "Manage a looping library of aerial landscape videos",
	Long: `aerialctl keeps a local library of aerial landscape videos in sync
with a remote bucket: it lists the remote catalog, downloads videos and
thumbnails, and manages which titles play in the loop.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		util.InitColor(flagNoColor)

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		logger, err = logging.New(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}

		// init and version run without a configured bucket.
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		if cfg.Bucket.Name == "" {
			return fmt.Errorf("no bucket configured — run 'aerialctl init' first")
		}

		cacheMgr = cache.New(cfg.Storage.ThumbnailsDir, cfg.Storage.VideosDir, logger)

		st := store.NewFileStore(cfg.Storage.StateFile, logger)
		bundled := make([]catalog.BundledAsset, 0, len(cfg.Bundled))
		for _, b := range cfg.Bundled {
			bundled = append(bundled, catalog.BundledAsset{
				Title:   b.Title,
				Path:    b.File,
				Section: b.Section,
			})
		}
		rec, err = catalog.New(bundled, cacheMgr, st, logger)
		if err != nil {
			return fmt.Errorf("building catalog: %w", err)
		}
		rec.ExtractThumbnails = cfg.Sync.ExtractThumbnails

		creds := s3.Credentials{
			AccessKeyID:     cfg.Bucket.AccessKeyID,
			SecretAccessKey: cfg.Bucket.SecretAccessKey,
		}
		client = s3.New(creds, cfg.Bucket.Name, cfg.Bucket.Region, cfg.Bucket.Endpoint, logger)
		dl = download.New(client, cacheMgr, rec, logger)
		return nil
	}

	rootCmd.AddCommand(
		newInitCmd(),
		newSyncCmd(),
		newListCmd(),
		newDownloadCmd(),
		newSelectCmd(),
		newDeselectCmd(),
		newCacheCmd(),
		newVersionCmd(),
	)
}

// ok prints a green success line.
func ok(format string, a ...interface{}) {
	fmt.Println(color.GreenString("✓"), fmt.Sprintf(format, a...))
}

// warn prints a yellow warning line.
func warn(format string, a ...interface{}) {
	fmt.Fprintln(os.Stderr, color.YellowString("!"), fmt.Sprintf(format, a...))
}
