package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/systree/systree-go/internal/resultcache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the analysis result cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop all cached analysis results",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Cache.Directory == "" {
			return nil
		}
		cache, err := resultcache.Open(cfg.Cache.Directory)
		if err != nil {
			return err
		}
		defer cache.Close()
		if err := cache.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, "result cache cleared")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
}
