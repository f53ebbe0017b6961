package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	systree "github.com/systree/systree-go"
	"github.com/systree/systree-go/internal/config"
	"github.com/systree/systree-go/internal/stdlib"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	cfgFile    string
	verbose    bool
	jsonOut    bool
	noStdlib   bool
	stdlibPath string
	timeout    time.Duration
	logger     *logrus.Logger
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "systree",
	Short: "Systree - SysML v2 and KerML analysis via the syster engine",
	Long: `Systree drives the syster CLI over SysML v2 / KerML sources and model
interchange artifacts: analysis, symbol extraction, XMI/JSON-LD/KPAR export,
import validation, decompilation and roundtrips.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logrus.New()
		logger.SetOutput(os.Stderr)
		if verbose {
			logger.SetLevel(logrus.DebugLevel)
		} else {
			logger.SetLevel(logrus.WarnLevel)
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			logger.WithError(err).Warn("Failed to load config, using defaults")
			cfg = config.Default()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .systree/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "machine-readable JSON output")
	rootCmd.PersistentFlags().BoolVar(&noStdlib, "no-stdlib", false, "run the engine without the SysML standard library")
	rootCmd.PersistentFlags().StringVar(&stdlibPath, "stdlib-path", "", "explicit SysML standard library directory")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "per-invocation engine timeout (default 60s)")

	rootCmd.MarkFlagsMutuallyExclusive("no-stdlib", "stdlib-path")

	rootCmd.SetVersionTemplate(`Systree {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(symbolsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(decompileCmd)
	rootCmd.AddCommand(roundtripCmd)
	rootCmd.AddCommand(stdlibCmd)
	rootCmd.AddCommand(cacheCmd)
}

// buildClient assembles the library client from config and flags. Flags win
// over the config file.
func buildClient() *systree.Client {
	opts := systree.Options{
		Binary:     cfg.Engine.Binary,
		Verbose:    verbose,
		NoStdlib:   noStdlib || cfg.Stdlib.Disable,
		StdlibPath: stdlibPath,
		Timeout:    cfg.Engine.Timeout,
		Stdlib:     buildLocator(),
		Logger:     logger,
	}
	if opts.StdlibPath == "" {
		opts.StdlibPath = cfg.Stdlib.Path
	}
	if timeout > 0 {
		opts.Timeout = timeout
	}
	return systree.NewClient(opts)
}

// buildLocator wires the standard-library search from config.
func buildLocator() *stdlib.Locator {
	loc := stdlib.NewLocator(logger)
	if cfg.Stdlib.CacheDir != "" {
		loc.CacheDir = cfg.Stdlib.CacheDir
	}
	if cfg.Stdlib.Version != "" && cfg.Stdlib.Version != stdlib.DefaultVersion {
		loc.Fetcher = stdlib.NewFetcher(cfg.Stdlib.Version, logger)
	}
	if cfg.Stdlib.Timeout > 0 {
		loc.Fetcher.Timeout = cfg.Stdlib.Timeout
	}
	return loc
}

// exitCode maps wrapper error kinds onto distinct exit codes so shell
// callers can branch without parsing messages.
func exitCode(err error) int {
	kind, ok := systree.KindOf(err)
	if !ok {
		return 1
	}
	switch kind {
	case systree.KindInputNotFound:
		return 2
	case systree.KindBinaryNotFound:
		return 3
	case systree.KindDependencyFetch:
		return 4
	case systree.KindProcessExecution:
		return 5
	case systree.KindOutputParse:
		return 6
	case systree.KindTimeout:
		return 7
	default:
		return 1
	}
}
