// Package machinefile reads and writes machine descriptions as files. It
// supports the line-oriented specification language (.tm) plus YAML and JSON
// renderings of the same description, and converts freely between them.
package machinefile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/martinemde/turing/machine"
	"github.com/martinemde/turing/tmparser"
)

// Definition is the serializable form of a machine description. It carries
// exactly the components a builder needs; states and alphabets are derived.
type Definition struct {
	// Blank is the blank symbol, exactly one character.
	Blank string `yaml:"blank" json:"blank"`

	// Initial is the state execution starts from.
	Initial string `yaml:"initial" json:"initial"`

	// Halt is the state that stops execution.
	Halt string `yaml:"halt" json:"halt"`

	// Finals are the accepting states.
	Finals []string `yaml:"finals,omitempty" json:"finals,omitempty"`

	// Transitions is the transition table.
	Transitions []TransitionRule `yaml:"transitions" json:"transitions"`
}

// TransitionRule is one transition in serializable form. Move uses the
// specification language's movement tokens: "<", ">" or "_".
type TransitionRule struct {
	State     string `yaml:"state" json:"state"`
	Symbol    string `yaml:"symbol" json:"symbol"`
	NewState  string `yaml:"newState" json:"newState"`
	NewSymbol string `yaml:"newSymbol" json:"newSymbol"`
	Move      string `yaml:"move" json:"move"`
}

var movesIn = map[string]machine.Movement{
	"<": machine.MoveLeft,
	">": machine.MoveRight,
	"_": machine.NoMove,
}

var movesOut = map[machine.Movement]string{
	machine.MoveLeft:  "<",
	machine.MoveRight: ">",
	machine.NoMove:    "_",
}

// Builder replays the definition onto a fresh builder. It fails on the
// first rule with an unknown movement token and propagates builder errors
// for malformed symbols.
func (d *Definition) Builder() (*machine.Builder, error) {
	b := machine.NewBuilder()
	if d.Blank != "" {
		if err := b.SetBlankSymbol(machine.Symbol(d.Blank)); err != nil {
			return nil, fmt.Errorf("blank: %w", err)
		}
	}
	if d.Initial != "" {
		b.SetInitialState(machine.State(d.Initial))
	}
	if d.Halt != "" {
		b.SetHaltState(machine.State(d.Halt))
	}
	for _, f := range d.Finals {
		b.AddFinalState(machine.State(f))
	}
	for i, r := range d.Transitions {
		move, ok := movesIn[r.Move]
		if !ok {
			return nil, fmt.Errorf("transition %d: unknown movement %q", i, r.Move)
		}
		err := b.AddTransition(
			machine.State(r.State),
			machine.Symbol(r.Symbol),
			machine.State(r.NewState),
			machine.Symbol(r.NewSymbol),
			move,
		)
		if err != nil {
			return nil, fmt.Errorf("transition %d: %w", i, err)
		}
	}
	return b, nil
}

// Machine constructs the machine the definition describes.
func (d *Definition) Machine() (*machine.Machine, error) {
	b, err := d.Builder()
	if err != nil {
		return nil, err
	}
	return b.Create()
}

// Validate reports whether the definition describes a constructible
// machine.
func (d *Definition) Validate() error {
	_, err := d.Machine()
	return err
}

// FromMachine renders a constructed machine back into a definition, with
// final states and transitions in sorted order.
func FromMachine(m *machine.Machine) *Definition {
	finals := m.FinalStates()
	finalNames := make([]string, len(finals))
	for i, s := range finals {
		finalNames[i] = string(s)
	}

	transitions := m.Transitions()
	keys := make([]machine.TransitionKey, 0, len(transitions))
	for k := range transitions {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].State != keys[j].State {
			return keys[i].State < keys[j].State
		}
		return keys[i].Symbol < keys[j].Symbol
	})
	rules := make([]TransitionRule, 0, len(keys))
	for _, k := range keys {
		a := transitions[k]
		rules = append(rules, TransitionRule{
			State:     string(k.State),
			Symbol:    string(k.Symbol),
			NewState:  string(a.State),
			NewSymbol: string(a.Symbol),
			Move:      movesOut[a.Move],
		})
	}

	return &Definition{
		Blank:       string(m.BlankSymbol()),
		Initial:     string(m.InitialState()),
		Halt:        string(m.HaltState()),
		Finals:      finalNames,
		Transitions: rules,
	}
}

// FromSource parses specification language text into a definition. The text
// must describe a complete, valid machine.
func FromSource(src string) (*Definition, error) {
	m, err := tmparser.Parse(src)
	if err != nil {
		return nil, err
	}
	return FromMachine(m), nil
}

// DecodeYAML parses a YAML definition. JSON input also works, since YAML
// subsumes it.
func DecodeYAML(data []byte) (*Definition, error) {
	var d Definition
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal definition: %w", err)
	}
	return &d, nil
}

// EncodeYAML renders the definition as YAML.
func EncodeYAML(d *Definition) ([]byte, error) {
	data, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal definition: %w", err)
	}
	return data, nil
}

// EncodeJSON renders the definition as indented JSON.
func EncodeJSON(d *Definition) ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal definition: %w", err)
	}
	return data, nil
}

// EncodeTM renders the definition in the line-oriented specification
// language understood by tmparser.
func EncodeTM(d *Definition) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "INITIAL %s\n", d.Initial)
	fmt.Fprintf(&b, "BLANK %s\n", d.Blank)
	fmt.Fprintf(&b, "HALT %s\n", d.Halt)
	for _, f := range d.Finals {
		fmt.Fprintf(&b, "FINAL %s\n", f)
	}
	if len(d.Transitions) > 0 {
		b.WriteString("\n")
	}
	for _, t := range d.Transitions {
		fmt.Fprintf(&b, "%s , %s -> %s , %s , %s\n", t.State, t.Symbol, t.NewState, t.NewSymbol, t.Move)
	}
	return []byte(b.String())
}

// Load reads a definition file, choosing the format by extension: .tm is
// specification language text, .json is JSON, anything else is YAML.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read machine file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".tm":
		return FromSource(string(data))
	case ".json":
		var d Definition
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("failed to unmarshal definition: %w", err)
		}
		return &d, nil
	default:
		return DecodeYAML(data)
	}
}

// Save writes a definition file, choosing the format by extension the same
// way Load does.
func Save(path string, d *Definition) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".tm":
		data = EncodeTM(d)
	case ".json":
		data, err = EncodeJSON(d)
	default:
		data, err = EncodeYAML(d)
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write machine file: %w", err)
	}
	return nil
}
