// Package server exposes machine registration and execution over HTTP.
// Machines are registered from specification language text, inspected and
// removed through a small JSON API, and driven either to a single JSON
// acceptance verdict or step by step over a server-sent event stream.
package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/martinemde/turing/machine"
	"github.com/martinemde/turing/tmparser"
)

// Sleeper is an interface for sleeping, allowing tests to override delays.
type Sleeper interface {
	Sleep(d time.Duration)
}

// realSleeper implements Sleeper using time.Sleep.
type realSleeper struct{}

func (realSleeper) Sleep(d time.Duration) { time.Sleep(d) }

// DefaultSleeper is the production sleeper.
var DefaultSleeper Sleeper = realSleeper{}

// Server provides HTTP endpoints for registering and running machines.
type Server struct {
	addr  string
	store *MachineStore

	// Sleeper paces streamed runs between steps. If nil, DefaultSleeper is
	// used.
	Sleeper Sleeper
}

// New creates a Server that will listen on addr.
func New(addr string) *Server {
	return &Server{
		addr:  addr,
		store: NewMachineStore(),
	}
}

// Store returns the server's machine registry.
func (s *Server) Store() *MachineStore { return s.store }

// Handler returns an http.Handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// GET /healthz - Liveness probe
	mux.HandleFunc("GET /healthz", s.handleHealth)

	// POST /machines - Register a machine from specification text
	mux.HandleFunc("POST /machines", s.handleCreateMachine)

	// GET /machines - List registered machines
	mux.HandleFunc("GET /machines", s.handleListMachines)

	// GET /machines/{id} - Describe one machine
	mux.HandleFunc("GET /machines/{id}", s.handleGetMachine)

	// DELETE /machines/{id} - Remove a machine
	mux.HandleFunc("DELETE /machines/{id}", s.handleDeleteMachine)

	// POST /machines/{id}/run - Run with an SSE event stream
	mux.HandleFunc("POST /machines/{id}/run", s.handleRunMachine)

	// POST /machines/{id}/accept - Word acceptance check
	mux.HandleFunc("POST /machines/{id}/accept", s.handleAcceptWord)

	return mux
}

// ListenAndServe blocks serving HTTP on the configured address.
func (s *Server) ListenAndServe() error {
	return http.ListenAndServe(s.addr, s.Handler())
}

func (s *Server) sleeper() Sleeper {
	if s.Sleeper != nil {
		return s.Sleeper
	}
	return DefaultSleeper
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, `{"status":"ok"}`)
}

// machineResponse describes a registered machine.
type machineResponse struct {
	ID      string    `json:"id"`
	States  []string  `json:"states"`
	Initial string    `json:"initial"`
	Halt    string    `json:"halt"`
	Blank   string    `json:"blank"`
	Finals  []string  `json:"finals"`
	AddedAt time.Time `json:"added_at"`
}

func describeMachine(sm *StoredMachine) machineResponse {
	m := sm.Machine
	states := m.States()
	stateNames := make([]string, len(states))
	for i, st := range states {
		stateNames[i] = string(st)
	}
	finals := m.FinalStates()
	finalNames := make([]string, len(finals))
	for i, st := range finals {
		finalNames[i] = string(st)
	}
	return machineResponse{
		ID:      sm.ID,
		States:  stateNames,
		Initial: string(m.InitialState()),
		Halt:    string(m.HaltState()),
		Blank:   string(m.BlankSymbol()),
		Finals:  finalNames,
		AddedAt: sm.AddedAt,
	}
}

// handleCreateMachine handles POST /machines. The request body is raw
// specification language text.
func (s *Server) handleCreateMachine(w http.ResponseWriter, r *http.Request) {
	src, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(src) == 0 {
		http.Error(w, "specification text is required", http.StatusBadRequest)
		return
	}

	m, err := tmparser.Parse(string(src))
	if err != nil {
		http.Error(w, "failed to parse specification: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	sm := s.store.Add(string(src), m)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(describeMachine(sm))
}

// handleListMachines handles GET /machines.
func (s *Server) handleListMachines(w http.ResponseWriter, r *http.Request) {
	entries := s.store.List()
	response := make([]machineResponse, len(entries))
	for i, sm := range entries {
		response[i] = describeMachine(sm)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleGetMachine handles GET /machines/{id}.
func (s *Server) handleGetMachine(w http.ResponseWriter, r *http.Request) {
	sm, ok := s.store.Get(r.PathValue("id"))
	if !ok {
		http.Error(w, "machine not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(describeMachine(sm))
}

// handleDeleteMachine handles DELETE /machines/{id}.
func (s *Server) handleDeleteMachine(w http.ResponseWriter, r *http.Request) {
	if !s.store.Remove(r.PathValue("id")) {
		http.Error(w, "machine not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// runRequest is the request body for a streamed run.
type runRequest struct {
	Tape     []string `json:"tape"`
	Head     int      `json:"head"`
	MaxSteps int      `json:"max_steps"`
	DelayMs  int      `json:"delay_ms"`
}

// runEndEvent is the terminal event of a streamed run.
type runEndEvent struct {
	RunID     string   `json:"run_id"`
	Outcome   string   `json:"outcome"`
	Steps     int      `json:"steps"`
	State     string   `json:"state"`
	FinalTape []string `json:"final_tape"`
	Head      int      `json:"head"`
}

// handleRunMachine handles POST /machines/{id}/run. The run is streamed as
// server-sent events: step_start, step_end, head_moved and tape_changed
// mirror the engine's observer callbacks, and a final run_end event carries
// the outcome.
func (s *Server) handleRunMachine(w http.ResponseWriter, r *http.Request) {
	sm, ok := s.store.Get(r.PathValue("id"))
	if !ok {
		http.Error(w, "machine not found", http.StatusNotFound)
		return
	}

	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	sm.run.Lock()
	defer sm.run.Unlock()
	m := sm.Machine

	// Install the tape before streaming starts so symbol errors still get a
	// clean status code.
	if err := m.SetTape(toSymbols(req.Tape), req.Head); err != nil {
		http.Error(w, "invalid tape: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	m.SetAtInitialState()
	m.ResetExecutedSteps()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	obs := &sseObserver{w: w, flusher: flusher}
	m.AttachObserver(obs)
	defer m.DetachObserver(obs)

	// The observer missed the SetTape above; replay it for the stream.
	obs.OnTapeChanged(req.Head)

	runID := uuid.NewString()
	delay := time.Duration(req.DelayMs) * time.Millisecond
	sleeper := s.sleeper()

	var outcome machine.RunOutcome
	steps := 0
	for {
		select {
		case <-r.Context().Done():
			// Client disconnected
			return
		default:
		}

		if m.Halted() {
			outcome = machine.HaltReached
			break
		}
		if req.MaxSteps > 0 && steps >= req.MaxSteps {
			outcome = machine.StepLimitReached
			break
		}

		if err := m.Step(); err != nil {
			switch err.(type) {
			case *machine.UnknownTransitionError:
				outcome = machine.UnknownTransition
			case *machine.HaltStateError:
				outcome = machine.HaltReached
			default:
				obs.event("error", map[string]string{"error": err.Error()})
				return
			}
			break
		}
		steps++

		if delay > 0 {
			sleeper.Sleep(delay)
		}
	}

	tape := m.Tape()
	finalTape := make([]string, len(tape))
	for i, sym := range tape {
		finalTape[i] = string(sym)
	}
	obs.event("run_end", runEndEvent{
		RunID:     runID,
		Outcome:   outcome.String(),
		Steps:     steps,
		State:     string(m.CurrentState()),
		FinalTape: finalTape,
		Head:      m.HeadPosition(),
	})
}

// acceptRequest is the request body for a word acceptance check.
type acceptRequest struct {
	Word     []string `json:"word"`
	MaxSteps int      `json:"max_steps"`
}

// acceptResponse is the response body for a word acceptance check.
type acceptResponse struct {
	Result string `json:"result"`
	Steps  int    `json:"steps"`
}

// handleAcceptWord handles POST /machines/{id}/accept.
func (s *Server) handleAcceptWord(w http.ResponseWriter, r *http.Request) {
	sm, ok := s.store.Get(r.PathValue("id"))
	if !ok {
		http.Error(w, "machine not found", http.StatusNotFound)
		return
	}

	var req acceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	sm.run.Lock()
	defer sm.run.Unlock()
	m := sm.Machine

	m.SetAtInitialState()

	counter := &stepCounter{}
	m.AttachObserver(counter)
	result, err := m.AcceptsWord(toSymbols(req.Word), req.MaxSteps)
	m.DetachObserver(counter)
	if err != nil {
		http.Error(w, "invalid word: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(acceptResponse{Result: result.String(), Steps: counter.steps})
}

// stepCounter counts completed steps during a run.
type stepCounter struct {
	steps int
}

func (c *stepCounter) OnStepStart(machine.State, machine.Symbol) {}

func (c *stepCounter) OnStepEnd(machine.State, machine.Symbol, machine.Movement) {
	c.steps++
}

func (c *stepCounter) OnTapeChanged(int) {}

func (c *stepCounter) OnHeadMoved(int, int) {}

// sseObserver relays engine notifications as server-sent events.
type sseObserver struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

type stepStartEvent struct {
	State  string `json:"state"`
	Symbol string `json:"symbol"`
}

type stepEndEvent struct {
	State    string `json:"state"`
	Written  string `json:"written"`
	Movement string `json:"movement"`
}

type headMovedEvent struct {
	NewPos int `json:"new_pos"`
	OldPos int `json:"old_pos"`
}

type tapeChangedEvent struct {
	HeadPos int `json:"head_pos"`
}

func (o *sseObserver) OnStepStart(state machine.State, symbol machine.Symbol) {
	o.event("step_start", stepStartEvent{State: string(state), Symbol: string(symbol)})
}

func (o *sseObserver) OnStepEnd(state machine.State, written machine.Symbol, move machine.Movement) {
	o.event("step_end", stepEndEvent{State: string(state), Written: string(written), Movement: move.String()})
}

func (o *sseObserver) OnTapeChanged(headPos int) {
	o.event("tape_changed", tapeChangedEvent{HeadPos: headPos})
}

func (o *sseObserver) OnHeadMoved(newPos, oldPos int) {
	o.event("head_moved", headMovedEvent{NewPos: newPos, OldPos: oldPos})
}

func (o *sseObserver) event(name string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(o.w, "event: %s\ndata: %s\n\n", name, data)
	o.flusher.Flush()
}

func toSymbols(in []string) []machine.Symbol {
	out := make([]machine.Symbol, len(in))
	for i, s := range in {
		out[i] = machine.Symbol(s)
	}
	return out
}
