package main

import (
	"fmt"
	"os"

	"github.com/martinemde/turing/machine"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var acceptCmd = &cobra.Command{
	Use:   "accept <machine-file> <word>",
	Short: "Test whether a machine accepts a word",
	Long:  "Run the machine on the word and report accepted, rejected or indeterminate. Exit codes 0, 1 and 2 respectively.",
	Args:  cobra.ExactArgs(2),
	RunE:  acceptWord,
}

func init() {
	rootCmd.AddCommand(acceptCmd)
}

func acceptWord(cmd *cobra.Command, args []string) error {
	m, err := loadMachine(args[0])
	if err != nil {
		return err
	}

	result, err := m.AcceptsWord(symbolsFromString(args[1]), viper.GetInt("max_steps"))
	if err != nil {
		return err
	}

	fmt.Println(result)
	switch result {
	case machine.Rejected:
		os.Exit(1)
	case machine.Indeterminate:
		os.Exit(2)
	}
	return nil
}
