package main

import (
	"strings"

	"github.com/martinemde/turing/machine"
	"github.com/martinemde/turing/machinefile"
)

// loadMachine reads a machine description from path and constructs the
// machine. The format is inferred from the file extension: .tm for the line
// grammar, .json for JSON, anything else for YAML.
func loadMachine(path string) (*machine.Machine, error) {
	def, err := machinefile.Load(path)
	if err != nil {
		return nil, err
	}
	return def.Machine()
}

// symbolsFromString splits s into one tape symbol per rune.
func symbolsFromString(s string) []machine.Symbol {
	symbols := make([]machine.Symbol, 0, len(s))
	for _, r := range s {
		symbols = append(symbols, machine.Symbol(string(r)))
	}
	return symbols
}

// tapeString renders tape symbols as a contiguous string.
func tapeString(tape []machine.Symbol) string {
	var b strings.Builder
	for _, sym := range tape {
		b.WriteString(string(sym))
	}
	return b.String()
}
