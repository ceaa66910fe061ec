package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/martinemde/turing/machine"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var runCmd = &cobra.Command{
	Use:   "run <machine-file>",
	Short: "Run a machine until it halts or hits the step bound",
	Long:  "Load a machine description (.tm, .yaml or .json), install the tape and execute it, printing a summary of the outcome. Exit code 2 when the step bound is hit, 3 when no transition applies.",
	Args:  cobra.ExactArgs(1),
	RunE:  runMachine,
}

func init() {
	runCmd.Flags().String("tape", "", "Initial tape contents, one symbol per character")
	runCmd.Flags().Int("head", 0, "Initial head position (may be negative)")
	runCmd.Flags().Duration("delay", 0, "Pause between steps")
	runCmd.Flags().Bool("trace", false, "Print every step to stderr")
	runCmd.Flags().String("save-state", "", "Write a checkpoint file after the run")
	runCmd.Flags().String("load-state", "", "Resume from a checkpoint file instead of installing a tape")

	rootCmd.AddCommand(runCmd)
}

func runMachine(cmd *cobra.Command, args []string) error {
	maxSteps := viper.GetInt("max_steps")
	quiet := viper.GetBool("quiet")
	tape, _ := cmd.Flags().GetString("tape")
	head, _ := cmd.Flags().GetInt("head")
	delay, _ := cmd.Flags().GetDuration("delay")
	trace, _ := cmd.Flags().GetBool("trace")
	savePath, _ := cmd.Flags().GetString("save-state")
	loadPath, _ := cmd.Flags().GetString("load-state")

	m, err := loadMachine(args[0])
	if err != nil {
		return err
	}

	if loadPath != "" {
		cp, err := machine.LoadCheckpoint(loadPath)
		if err != nil {
			return err
		}
		if err := m.Restore(cp); err != nil {
			return fmt.Errorf("restoring checkpoint: %w", err)
		}
	} else if err := m.SetTape(symbolsFromString(tape), head); err != nil {
		return fmt.Errorf("installing tape: %w", err)
	}

	if trace {
		m.AttachObserver(&traceObserver{out: os.Stderr, machine: m})
	}
	if delay > 0 {
		m.AttachObserver(&delayObserver{delay: delay})
	}

	outcome, err := m.Run(maxSteps)
	if err != nil {
		return err
	}

	if savePath != "" {
		cp, err := m.Checkpoint()
		if err != nil {
			return err
		}
		if err := machine.SaveCheckpoint(cp, savePath); err != nil {
			return err
		}
	}

	if !quiet {
		printRunSummary(m, outcome)
	}

	switch outcome {
	case machine.StepLimitReached:
		os.Exit(2)
	case machine.UnknownTransition:
		os.Exit(3)
	}
	return nil
}

// printRunSummary prints the outcome of a finished run.
func printRunSummary(m *machine.Machine, outcome machine.RunOutcome) {
	fmt.Printf("outcome: %s\n", outcome)
	fmt.Printf("steps:   %d\n", m.ExecutedSteps())
	fmt.Printf("state:   %s\n", m.CurrentState())
	fmt.Printf("tape:    %s\n", tapeString(m.Tape()))
	fmt.Printf("head:    %d\n", m.HeadPosition())
}

// traceObserver prints one line per executed step. The pre-step state and
// symbol are read from the machine itself, which has not mutated yet when
// OnStepStart fires.
type traceObserver struct {
	out     io.Writer
	machine *machine.Machine
	step    int

	state  machine.State
	symbol machine.Symbol
}

func (t *traceObserver) OnStepStart(machine.State, machine.Symbol) {
	t.step++
	t.state = t.machine.CurrentState()
	t.symbol = t.machine.SymbolAt(t.machine.HeadPosition())
}

func (t *traceObserver) OnStepEnd(state machine.State, written machine.Symbol, move machine.Movement) {
	fmt.Fprintf(t.out, "[step %d] (%s, %s) -> (%s, %s, %s)\n", t.step, t.state, t.symbol, state, written, move)
}

func (t *traceObserver) OnTapeChanged(int) {}

func (t *traceObserver) OnHeadMoved(int, int) {}

// delayObserver paces execution by sleeping after every step.
type delayObserver struct {
	delay time.Duration
}

func (d *delayObserver) OnStepStart(machine.State, machine.Symbol) {}

func (d *delayObserver) OnStepEnd(machine.State, machine.Symbol, machine.Movement) {
	time.Sleep(d.delay)
}

func (d *delayObserver) OnTapeChanged(int) {}

func (d *delayObserver) OnHeadMoved(int, int) {}
