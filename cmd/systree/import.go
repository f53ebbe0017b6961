package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/systree/systree-go/internal/output"
)

var importExtract bool

var importCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Import and validate an XMI, JSON-LD or KPAR artifact",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importExtract, "extract", false, "extract symbols instead of validating")
}

func runImport(cmd *cobra.Command, args []string) error {
	client := buildClient()
	f := output.NewFormatter(os.Stdout, outputFormat())

	if importExtract {
		files, err := client.ImportSymbols(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return f.Symbols(files)
	}

	res, err := client.ImportModel(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return f.Analysis(res)
}
