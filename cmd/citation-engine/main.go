// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the citation-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/citation-engine/internal/secrets"
	"github.com/pdiddy/citation-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback if non-empty, else the secret value for
// key if one was loaded.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the citation-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "citation-engine",
	Short: "Citation candidate generation for scientific papers",
	Long: `citation-engine recommends citations for a scientific paper. It maintains a
local corpus of paper metadata and two retrieval indexes: a nearest-neighbor
index over document embeddings and a BM25 lexical index over titles and
abstracts. Given a query paper and a pool of eligible candidates, the
recommend command produces a high-recall candidate set for downstream ranking.

Each stage is a subcommand: import or ingest papers into the corpus, index to
build the retrieval indexes, and recommend to fetch candidates.`,
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

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./citation-engine.yaml or ~/.config/citation-engine/config.yaml)")
	rootCmd.PersistentFlags().String("corpus-dir", "", "base directory for the corpus (default: corpus)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("citation-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "citation-engine"))
		}
	}

	viper.SetEnvPrefix("CITATION_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// --- shared config helpers ---

// stringSetting resolves a string setting: flag first, then the viper
// config key, then the fallback.
func stringSetting(cmd *cobra.Command, flag, key, fallback string) string {
	if v, _ := cmd.Flags().GetString(flag); v != "" {
		return v
	}
	if v := viper.GetString(key); v != "" {
		return v
	}
	return fallback
}

// intSetting resolves an integer setting the same way; zero flag values
// defer to config.
func intSetting(cmd *cobra.Command, flag, key string, fallback int) int {
	if v, _ := cmd.Flags().GetInt(flag); v != 0 {
		return v
	}
	if v := viper.GetInt(key); v != 0 {
		return v
	}
	return fallback
}

func corpusConfig(cmd *cobra.Command) types.CorpusConfig {
	dir, _ := cmd.Flags().GetString("corpus-dir")
	if dir == "" {
		dir = viper.GetString("corpus.corpus_dir")
	}
	if dir == "" {
		dir = "corpus"
	}
	return types.CorpusConfig{CorpusDir: dir}
}

func indexConfig(cmd *cobra.Command) types.IndexConfig {
	return types.IndexConfig{
		IndexDir:     stringSetting(cmd, "index-dir", "index.index_dir", "index"),
		BuildWorkers: intSetting(cmd, "build-workers", "index.build_workers", 4),
	}
}

func embeddingConfig(cmd *cobra.Command) types.EmbeddingConfig {
	return types.EmbeddingConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   30 * time.Second,
			UserAgent: "citation-engine/" + version,
		},
		Backend:           types.EmbeddingBackend(stringSetting(cmd, "embedding-backend", "embedding.backend", "hashing")),
		BaseURL:           stringSetting(cmd, "embedding-url", "embedding.base_url", ""),
		Model:             stringSetting(cmd, "embedding-model", "embedding.model", ""),
		Dimensions:        intSetting(cmd, "embedding-dimensions", "embedding.dimensions", 0),
		RequestsPerSecond: viper.GetFloat64("embedding.requests_per_second"),
	}
}

func selectorConfig(cmd *cobra.Command) types.SelectorConfig {
	extend, _ := cmd.Flags().GetBool("extend-citations")
	return types.SelectorConfig{
		TopK:            intSetting(cmd, "top-k", "selector.top_k", 100),
		ExtendCitations: extend || viper.GetBool("selector.extend_citations"),
	}
}

func lexicalIndexPath(cfg types.IndexConfig) string {
	return filepath.Join(cfg.IndexDir, "lexical.db")
}

func annIndexPath(cfg types.IndexConfig) string {
	return filepath.Join(cfg.IndexDir, "ann.gob")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
