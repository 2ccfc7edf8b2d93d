// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jshan/notice-engine/internal/crawl"
	"github.com/jshan/notice-engine/pkg/types"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl colleges, departments and notice boards",
	Long: `Crawl walks the campus portal: the college listing, each college's
departments, then every department's undergrad and grad notice boards.
Board crawls are incremental, stopping at the last stored post, so repeated
runs only fetch what is new.`,
	RunE: runCrawl,
}

func init() {
	crawlCmd.Flags().String("root-url", "", "campus portal URL (or crawl.root_url in config)")
	crawlCmd.Flags().Int("workers", 0, "concurrent department crawls (default 4)")
	crawlCmd.Flags().Int("max-pages", 0, "board pagination cap per crawl (default 50)")
	crawlCmd.Flags().Duration("delay", 0, "delay between board page fetches")

	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	rootURL, _ := cmd.Flags().GetString("root-url")
	if rootURL == "" {
		rootURL = viper.GetString("crawl.root_url")
	}
	if rootURL == "" {
		return fmt.Errorf("no portal URL: pass --root-url or set crawl.root_url")
	}

	workers, _ := cmd.Flags().GetInt("workers")
	maxPages, _ := cmd.Flags().GetInt("max-pages")
	delay, _ := cmd.Flags().GetDuration("delay")

	cfg := types.CrawlConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   crawlTimeout(),
			UserAgent: defaultUserAgent,
		},
		RootURL:      rootURL,
		Workers:      workers,
		RequestDelay: delay,
		MaxPages:     maxPages,
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	client := &http.Client{Timeout: cfg.Timeout}
	summary, err := crawl.New(client, st, cfg).Run(cmd.Context(), os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d crawl step(s) failed", summary.Failed)
	}
	return nil
}
