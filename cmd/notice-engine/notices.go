// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var noticesCmd = &cobra.Command{
	Use:   "notices",
	Short: "List recently crawled notices",
	RunE:  runNotices,
}

func init() {
	noticesCmd.Flags().Int("limit", 20, "maximum notices to list")
	noticesCmd.Flags().String("yaml", "", "write the listing to a YAML file instead")

	rootCmd.AddCommand(noticesCmd)
}

func runNotices(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	yamlPath, _ := cmd.Flags().GetString("yaml")

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if yamlPath != "" {
		if err := st.ExportYAML(cmd.Context(), yamlPath, limit); err != nil {
			return err
		}
		fmt.Println("wrote", yamlPath)
		return nil
	}

	views, err := st.RecentNotices(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(views) == 0 {
		fmt.Println("No notices stored yet. Run crawl first.")
		return nil
	}

	fmt.Printf("%-20s  %-16s  %-10s  %-12s  %s\n",
		"College", "Department", "Board", "Posted", "Title")
	fmt.Println(strings.Repeat("-", 100))
	for _, v := range views {
		posted := ""
		if !v.PostedAt.IsZero() {
			posted = v.PostedAt.Format("2006-01-02")
		}
		fmt.Printf("%-20s  %-16s  %-10s  %-12s  %s\n",
			v.CollegeName, v.DeptName, v.Board, posted, v.Title)
	}
	fmt.Printf("\n%d notices\n", len(views))
	return nil
}
