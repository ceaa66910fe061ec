package main

import (
	"github.com/martinemde/turing/machinefile"
	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert <in> <out>",
	Short: "Convert a machine description between formats",
	Long:  "Read a machine description and write it in another format. Formats are inferred from the file extensions: .tm for the line grammar, .json for JSON, anything else for YAML.",
	Args:  cobra.ExactArgs(2),
	RunE:  convertMachine,
}

func init() {
	rootCmd.AddCommand(convertCmd)
}

func convertMachine(cmd *cobra.Command, args []string) error {
	def, err := machinefile.Load(args[0])
	if err != nil {
		return err
	}
	if err := def.Validate(); err != nil {
		return err
	}
	return machinefile.Save(args[1], def)
}
