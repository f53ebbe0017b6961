package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Export a model to XMI, JSON-LD or KPAR",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "xmi", "export format: xmi, json-ld or kpar")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "write payload to file instead of stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	client := buildClient()

	var payload []byte
	switch exportFormat {
	case "xmi":
		xmi, err := client.ExportXMI(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		payload = []byte(xmi)
	case "json-ld":
		raw, err := client.ExportJSONLD(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		payload = raw
	case "kpar":
		data, err := client.ExportKPAR(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		payload = data
	default:
		return fmt.Errorf("unknown export format: %q (want xmi, json-ld or kpar)", exportFormat)
	}

	return writePayload(payload, exportOut)
}

// writePayload writes to dest when given, stdout otherwise. KPAR bytes on
// a terminal are still written as-is; redirect or use --out.
func writePayload(payload []byte, dest string) error {
	if dest != "" {
		return os.WriteFile(dest, payload, 0o644)
	}
	_, err := os.Stdout.Write(payload)
	return err
}
