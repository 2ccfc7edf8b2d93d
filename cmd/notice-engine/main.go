// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the notice-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jshan/notice-engine/internal/secrets"
	"github.com/jshan/notice-engine/internal/store"
	"github.com/jshan/notice-engine/pkg/types"
)

const (
	defaultDataDir   = "data"
	defaultUserAgent = "notice-engine/0.1 (+https://github.com/jshan/notice-engine)"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when set, the stored secret otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the notice-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "notice-engine",
	Short: "Campus notice crawler and board search",
	Long: `notice-engine crawls university notice boards into SQLite, keeps a
vector index over the link registry, and answers short queries like "컴퓨터"
with the best matching department board and its latest notices.

Each stage is a subcommand: crawl fetches colleges, departments and notices;
index update rebuilds the link index; search finds and scrapes the best
board; notices and export read the stored data back out.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./notice-engine.yaml or ~/.config/notice-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("notice-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "notice-engine"))
		}
	}

	viper.SetEnvPrefix("NOTICE_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// engineConfig assembles the engine configuration from the config file,
// environment and loaded secrets.
func engineConfig() types.EngineConfig {
	dataDir := viper.GetString("store.data_dir")
	if dataDir == "" {
		dataDir = defaultDataDir
	}

	cfg := types.EngineConfig{
		Store: types.StoreConfig{DataDir: dataDir},
		Embed: types.EmbedConfig{
			Model:      viper.GetString("embed.model"),
			BaseURL:    secretDefault("embedding-base-url", viper.GetString("embed.base_url")),
			APIKey:     secretDefault("embedding-api-key", viper.GetString("embed.api_key")),
			Dimensions: viper.GetInt("embed.dimensions"),
			BatchSize:  viper.GetInt("embed.batch_size"),
		},
		Index: types.IndexConfig{IndexDir: viper.GetString("index.index_dir")},
		Search: types.SearchConfig{
			TopK:     viper.GetInt("search.top_k"),
			ShowRows: viper.GetInt("search.show_rows"),
			Synonyms: viper.GetStringMapString("search.synonyms"),
		},
	}
	cfg.Search.UserAgent = defaultUserAgent
	if t := viper.GetDuration("search.timeout"); t > 0 {
		cfg.Search.Timeout = t
	}
	return cfg
}

// openStore opens the configured SQLite store for subcommands that only
// need stored data.
func openStore() (*store.Store, error) {
	return store.New(engineConfig().Store)
}

func crawlTimeout() time.Duration {
	if t := viper.GetDuration("crawl.timeout"); t > 0 {
		return t
	}
	return 30 * time.Second
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
