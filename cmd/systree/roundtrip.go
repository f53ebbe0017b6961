package main

import (
	"github.com/spf13/cobra"

	systree "github.com/systree/systree-go"
)

var (
	roundtripFormat string
	roundtripOut    string
)

var roundtripCmd = &cobra.Command{
	Use:   "roundtrip <path>",
	Short: "Import an interchange artifact and immediately re-export it",
	Long: `Roundtrip imports an XMI, JSON-LD or KPAR artifact into the engine's
workspace and re-exports it in the requested format, preserving element
identifiers.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := buildClient()
		payload, err := client.Roundtrip(cmd.Context(), args[0], systree.RoundtripFormat(roundtripFormat))
		if err != nil {
			return err
		}
		return writePayload(payload, roundtripOut)
	},
}

func init() {
	roundtripCmd.Flags().StringVarP(&roundtripFormat, "format", "f", "xmi", "re-export format: xmi, kpar or jsonld")
	roundtripCmd.Flags().StringVarP(&roundtripOut, "out", "o", "", "write payload to file instead of stdout")
}
