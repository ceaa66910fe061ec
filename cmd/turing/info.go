package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <machine-file>",
	Short: "Print a machine description",
	Args:  cobra.ExactArgs(1),
	RunE:  printInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func printInfo(cmd *cobra.Command, args []string) error {
	m, err := loadMachine(args[0])
	if err != nil {
		return err
	}
	fmt.Println(m)
	return nil
}
