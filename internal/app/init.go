package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pjloury/aerialctl/internal/config"
)

func newInitCmd() *cobra.Command {
	var (
		bucket string
		region string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultPath()
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config already exists at %s", path)
			}
			if bucket == "" {
				return fmt.Errorf("--bucket is required")
			}

			cfg.Bucket.Name = bucket
			if region != "" {
				cfg.Bucket.Region = region
			}
			if err := config.Save(cfg); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}

			ok("wrote %s", path)
			fmt.Printf("Set %s and %s, then run 'aerialctl sync'.\n",
				cfg.Bucket.AccessKeyEnv, cfg.Bucket.SecretKeyEnv)
			return nil
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "", "Bucket holding the video catalog")
	cmd.Flags().StringVar(&region, "region", "", "Bucket region (default us-west-2)")
	return cmd
}
