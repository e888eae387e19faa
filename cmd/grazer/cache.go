package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/grazerhq/grazer/internal/config"
	"github.com/grazerhq/grazer/internal/llm"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the completion cache",
	Long: `The completion cache stores model responses keyed by prompt and
sampling parameters, so repeated runs over the same calendar replay
without touching the provider.`,
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the completion cache location",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadCacheConfig()
		if err != nil {
			return err
		}
		if cfg.LLM.CachePath == "" {
			cmd.Println("completion cache disabled")
			return nil
		}
		cmd.Println(cfg.LLM.CachePath)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached completions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadCacheConfig()
		if err != nil {
			return err
		}
		if cfg.LLM.CachePath == "" {
			cmd.Println("completion cache disabled, nothing to clear")
			return nil
		}

		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		cache, err := llm.OpenCache(cfg.LLM.CachePath, logger)
		if err != nil {
			return err
		}
		defer func() { _ = cache.Close() }()

		removed, err := cache.Clear(cmd.Context())
		if err != nil {
			return err
		}
		cmd.Printf("Removed %d cached completions\n", removed)
		return nil
	},
}

func loadCacheConfig() (*config.Config, error) {
	loader := config.NewLoader(config.NewValidator())
	return loader.LoadWithDefaults(resolveConfigPath())
}

func init() {
	cacheCmd.AddCommand(cachePathCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
