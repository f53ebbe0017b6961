package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	systree "github.com/systree/systree-go"
	"github.com/systree/systree-go/internal/output"
	"github.com/systree/systree-go/internal/resultcache"
)

var noCache bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze <path>...",
	Short: "Analyze SysML v2 / KerML files or directories",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the analysis result cache")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	client := buildClient()
	cache := openResultCache()
	if cache != nil {
		defer cache.Close()
	}

	results := make([]*systree.AnalysisResult, len(args))

	// One engine process per input; independent inputs fan out.
	g, ctx := errgroup.WithContext(cmd.Context())
	for i, path := range args {
		i, path := i, path
		g.Go(func() error {
			if cache != nil {
				if res, ok := cache.Get(path); ok {
					logger.WithField("path", path).Debug("Analysis served from cache")
					results[i] = res
					return nil
				}
			}
			res, err := client.Analyze(ctx, path)
			if err != nil {
				return err
			}
			if cache != nil {
				if err := cache.Put(path, res); err != nil {
					logger.WithError(err).Debug("Failed to cache analysis result")
				}
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	f := output.NewFormatter(os.Stdout, outputFormat())
	return f.Analysis(mergeResults(results))
}

// mergeResults sums counts across inputs, concatenating diagnostics in
// input order.
func mergeResults(results []*systree.AnalysisResult) *systree.AnalysisResult {
	if len(results) == 1 {
		return results[0]
	}
	merged := &systree.AnalysisResult{Diagnostics: []systree.Diagnostic{}}
	for _, res := range results {
		merged.FileCount += res.FileCount
		merged.SymbolCount += res.SymbolCount
		merged.ErrorCount += res.ErrorCount
		merged.WarningCount += res.WarningCount
		merged.Diagnostics = append(merged.Diagnostics, res.Diagnostics...)
	}
	return merged
}

// openResultCache opens the bbolt cache unless disabled; failures degrade
// to uncached operation.
func openResultCache() *resultcache.Cache {
	if noCache || cfg.Cache.Disable || cfg.Cache.Directory == "" {
		return nil
	}
	cache, err := resultcache.Open(cfg.Cache.Directory)
	if err != nil {
		logger.WithError(err).Debug("Result cache unavailable")
		return nil
	}
	return cache
}

func outputFormat() output.Format {
	if jsonOut {
		return output.FormatJSON
	}
	return output.FormatText
}
