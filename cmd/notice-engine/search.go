// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	noticeengine "github.com/jshan/notice-engine"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find the best matching board and show its latest notices",
	Long: `Search embeds the query, finds the nearest links in the index, re-ranks
them with synonym and containment scoring, and scrapes the winning board
live. Short Korean queries work: notice-engine search 컴퓨터`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("top-k", 0, "nearest-link candidates to re-rank (default 5)")
	searchCmd.Flags().Int("show-rows", 0, "board rows to include (default 10)")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := engineConfig()
	if k, _ := cmd.Flags().GetInt("top-k"); k > 0 {
		cfg.Search.TopK = k
	}
	if n, _ := cmd.Flags().GetInt("show-rows"); n > 0 {
		cfg.Search.ShowRows = n
	}

	eng, err := noticeengine.New(cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	out, err := eng.SearchLinks(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}
