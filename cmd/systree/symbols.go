package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/systree/systree-go/internal/output"
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols <path>",
	Short: "Extract symbols from SysML v2 / KerML files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := buildClient()
		files, err := client.Symbols(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		f := output.NewFormatter(os.Stdout, outputFormat())
		return f.Symbols(files)
	},
}
