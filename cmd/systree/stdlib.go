package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/systree/systree-go/internal/stdlib"
)

var stdlibCmd = &cobra.Command{
	Use:   "stdlib",
	Short: "Manage the cached SysML standard library",
}

var stdlibPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the resolved standard library directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := buildClient().StdlibDir(cmd.Context())
		if err != nil {
			return err
		}
		if dir == "" {
			fmt.Fprintln(os.Stderr, "standard library disabled")
			return nil
		}
		fmt.Fprintln(os.Stdout, dir)
		return nil
	},
}

var stdlibFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the standard library into the per-user cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		loc := buildLocator()
		if loc.Fetcher == nil {
			return fmt.Errorf("no fetcher configured")
		}
		if err := loc.Fetcher.Fetch(cmd.Context(), loc.CacheDir); err != nil {
			return err
		}
		if version, _, fetchedAt, err := stdlib.ReadManifest(loc.CacheDir); err == nil {
			fmt.Fprintf(os.Stdout, "%s (version %s, fetched %s)\n",
				loc.CacheDir, version, fetchedAt.Format("2006-01-02"))
		} else {
			fmt.Fprintln(os.Stdout, loc.CacheDir)
		}
		return nil
	},
}

var stdlibCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the per-user standard library cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return buildLocator().Clean()
	},
}

func init() {
	stdlibCmd.AddCommand(stdlibPathCmd)
	stdlibCmd.AddCommand(stdlibFetchCmd)
	stdlibCmd.AddCommand(stdlibCleanCmd)
}
