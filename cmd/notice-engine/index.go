// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	noticeengine "github.com/jshan/notice-engine"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the link vector index",
}

var indexUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Rebuild the link index from the registry",
	Long: `Update reloads the link registry (data/links.txt when present), embeds
each link's college and department text, and rebuilds the vector index.
The index file is swapped in atomically, so searches running against the
old index are unaffected.`,
	RunE: runIndexUpdate,
}

func init() {
	indexCmd.AddCommand(indexUpdateCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexUpdate(cmd *cobra.Command, args []string) error {
	eng, err := noticeengine.New(engineConfig())
	if err != nil {
		return err
	}
	defer eng.Close()

	status, err := eng.UpdateIndex(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Println(status)
	return nil
}
