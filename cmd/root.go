package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "reels-discovery",
	Short: "Instagram and YouTube discovery exports backed by Apify actors",
	Long:  "Runs Apify scraping actors for hashtags, brand pages, profiles, and YouTube keywords, and exports the shaped results as CSV over HTTP or from the command line.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
