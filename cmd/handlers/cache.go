package handlers

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"newslens/internal/config"
	"newslens/internal/logger"
	"newslens/internal/store"
)

// NewCacheCmd creates the cache management command
func NewCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the analysis result cache",
		Long:  `Inspect, prune, and clear the SQLite cache of analysis artifacts.`,
	}

	cacheCmd.AddCommand(newCacheStatsCmd())
	cacheCmd.AddCommand(newCacheClearCmd())
	cacheCmd.AddCommand(newCachePruneCmd())

	return cacheCmd
}

func newCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics and storage information",
		Run: func(cmd *cobra.Command, args []string) {
			if err := runCacheStats(); err != nil {
				logger.Error("Failed to get cache stats", err)
				os.Exit(1)
			}
		},
	}
}

func newCacheClearCmd() *cobra.Command {
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached analysis artifacts",
		Run: func(cmd *cobra.Command, args []string) {
			confirm, _ := cmd.Flags().GetBool("confirm")
			if err := runCacheClear(confirm); err != nil {
				logger.Error("Failed to clear cache", err)
				os.Exit(1)
			}
		},
	}

	clearCmd.Flags().Bool("confirm", false, "Skip confirmation prompt")
	return clearCmd
}

func newCachePruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove cached artifacts older than the configured TTL",
		Run: func(cmd *cobra.Command, args []string) {
			if err := runCachePrune(); err != nil {
				logger.Error("Failed to prune cache", err)
				os.Exit(1)
			}
		},
	}
}

func openCacheStore() (*store.Store, error) {
	cfg := config.Get()
	s, err := store.NewStore(cfg.Cache.Directory, cfg.Cache.TTLDuration())
	if err != nil {
		return nil, fmt.Errorf("failed to open cache store: %w", err)
	}
	return s, nil
}

func runCacheStats() error {
	cacheStore, err := openCacheStore()
	if err != nil {
		return err
	}
	defer func() {
		if err := cacheStore.Close(); err != nil {
			logger.Warn("failed to close cache store", "error", err.Error())
		}
	}()

	stats, err := cacheStore.GetStats()
	if err != nil {
		return fmt.Errorf("failed to get cache statistics: %w", err)
	}

	fmt.Println("Cache Statistics")
	fmt.Println("================")
	fmt.Printf("Artifacts cached: %d\n", stats.Entries)
	fmt.Printf("Expired entries:  %d\n", stats.Expired)
	fmt.Printf("Cache size:       %.2f MB\n", float64(stats.SizeBytes)/1024/1024)
	fmt.Printf("Database path:    %s\n", stats.Path)
	return nil
}

func runCacheClear(confirm bool) error {
	if !confirm {
		fmt.Print("This will remove all cached analysis results. Continue? [y/N]: ")
		var response string
		_, _ = fmt.Scanln(&response)
		if response != "y" && response != "Y" && response != "yes" {
			fmt.Println("Cache clear cancelled")
			return nil
		}
	}

	cacheStore, err := openCacheStore()
	if err != nil {
		return err
	}
	defer func() {
		if err := cacheStore.Close(); err != nil {
			logger.Warn("failed to close cache store", "error", err.Error())
		}
	}()

	if err := cacheStore.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	fmt.Println("Cache cleared")
	return nil
}

func runCachePrune() error {
	cacheStore, err := openCacheStore()
	if err != nil {
		return err
	}
	defer func() {
		if err := cacheStore.Close(); err != nil {
			logger.Warn("failed to close cache store", "error", err.Error())
		}
	}()

	removed, err := cacheStore.Prune()
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d expired entries\n", removed)
	return nil
}
