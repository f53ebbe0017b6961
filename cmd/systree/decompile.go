package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var decompileCmd = &cobra.Command{
	Use:   "decompile <path>",
	Short: "Decompile an interchange artifact back into SysML v2 source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := buildClient()
		source, err := client.Decompile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(os.Stdout, source)
		return nil
	},
}
