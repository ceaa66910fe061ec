package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check <machine-file>",
	Short: "Validate a machine description",
	Long:  "Parse and construct the machine without running it, reporting the first error found.",
	Args:  cobra.ExactArgs(1),
	RunE:  checkMachine,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func checkMachine(cmd *cobra.Command, args []string) error {
	m, err := loadMachine(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("ok: %d states, %d transitions\n", len(m.States()), len(m.Transitions()))
	return nil
}
