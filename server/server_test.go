package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// incrementerSrc increments the reversed binary number on the tape. On
// 100001 it halts after 11 steps leaving 011111#.
const incrementerSrc = `INITIAL 1
BLANK #
FINAL 2
HALT HALT
1 , 0 -> 2 , 1 , >
1 , 1 -> 2 , 0 , >
2 , 0 -> 1 , 0 , _
2 , 1 -> 3 , 1 , >
3 , 0 -> HALT , 0 , _
3 , 1 -> HALT , 1 , _
3 , # -> HALT , # , _
`

func doRequest(t *testing.T, s *Server, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func registerMachine(t *testing.T, s *Server, src string) machineResponse {
	t.Helper()
	rec := doRequest(t, s, http.MethodPost, "/machines", strings.NewReader(src))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp machineResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

type sseEvent struct {
	name string
	data string
}

func parseSSE(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	for _, block := range strings.Split(strings.TrimSpace(body), "\n\n") {
		lines := strings.Split(block, "\n")
		require.Len(t, lines, 2, "block: %q", block)
		require.True(t, strings.HasPrefix(lines[0], "event: "), "block: %q", block)
		require.True(t, strings.HasPrefix(lines[1], "data: "), "block: %q", block)
		events = append(events, sseEvent{
			name: strings.TrimPrefix(lines[0], "event: "),
			data: strings.TrimPrefix(lines[1], "data: "),
		})
	}
	return events
}

func countEvents(events []sseEvent, name string) int {
	n := 0
	for _, ev := range events {
		if ev.name == name {
			n++
		}
	}
	return n
}

func lastEvent(t *testing.T, events []sseEvent, name string) sseEvent {
	t.Helper()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].name == name {
			return events[i]
		}
	}
	t.Fatalf("no %s event in stream", name)
	return sseEvent{}
}

func TestHealthz(t *testing.T) {
	s := New(":0")

	rec := doRequest(t, s, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCreateMachine(t *testing.T) {
	s := New(":0")

	rec := doRequest(t, s, http.MethodPost, "/machines", strings.NewReader(incrementerSrc))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp machineResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, []string{"1", "2", "3", "HALT"}, resp.States)
	assert.Equal(t, "1", resp.Initial)
	assert.Equal(t, "HALT", resp.Halt)
	assert.Equal(t, "#", resp.Blank)
	assert.Equal(t, []string{"2"}, resp.Finals)
	assert.WithinDuration(t, time.Now(), resp.AddedAt, time.Minute)
	assert.Equal(t, 1, s.Store().Len())
}

func TestCreateMachine_EmptyBody(t *testing.T) {
	s := New(":0")

	rec := doRequest(t, s, http.MethodPost, "/machines", strings.NewReader(""))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "specification text is required")
	assert.Equal(t, 0, s.Store().Len())
}

func TestCreateMachine_BadSource(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "unparseable", src: "GARBAGE !\n"},
		{name: "incomplete", src: "INITIAL a\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(":0")

			rec := doRequest(t, s, http.MethodPost, "/machines", strings.NewReader(tt.src))

			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, rec.Body.String(), "failed to parse specification")
		})
	}
}

func TestListMachines(t *testing.T) {
	s := New(":0")

	rec := doRequest(t, s, http.MethodGet, "/machines", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	first := registerMachine(t, s, incrementerSrc)
	second := registerMachine(t, s, miniSource)

	rec = doRequest(t, s, http.MethodGet, "/machines", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp []machineResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	ids := []string{resp[0].ID, resp[1].ID}
	assert.Contains(t, ids, first.ID)
	assert.Contains(t, ids, second.ID)
}

func TestGetMachine(t *testing.T) {
	s := New(":0")
	created := registerMachine(t, s, incrementerSrc)

	rec := doRequest(t, s, http.MethodGet, "/machines/"+created.ID, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp machineResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, created, resp)
}

func TestGetMachine_NotFound(t *testing.T) {
	s := New(":0")

	rec := doRequest(t, s, http.MethodGet, "/machines/nope", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "machine not found")
}

func TestDeleteMachine(t *testing.T) {
	s := New(":0")
	created := registerMachine(t, s, incrementerSrc)

	rec := doRequest(t, s, http.MethodDelete, "/machines/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, s.Store().Len())

	rec = doRequest(t, s, http.MethodGet, "/machines/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, s, http.MethodDelete, "/machines/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunMachine_StreamsToHalt(t *testing.T) {
	s := New(":0")
	created := registerMachine(t, s, incrementerSrc)

	body := jsonBody(t, runRequest{Tape: []string{"1", "0", "0", "0", "0", "1"}})
	rec := doRequest(t, s, http.MethodPost, "/machines/"+created.ID+"/run", body)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	events := parseSSE(t, rec.Body.String())
	require.NotEmpty(t, events)

	// The installed tape is replayed first, then eleven steps, then the
	// terminal event.
	assert.Equal(t, "tape_changed", events[0].name)
	assert.Equal(t, "run_end", events[len(events)-1].name)
	assert.Equal(t, 11, countEvents(events, "step_start"))
	assert.Equal(t, 11, countEvents(events, "step_end"))
	assert.Equal(t, 6, countEvents(events, "head_moved"))
	assert.Equal(t, 1, countEvents(events, "tape_changed"))

	var start stepStartEvent
	require.NoError(t, json.Unmarshal([]byte(events[1].data), &start))
	assert.Equal(t, stepStartEvent{State: "2", Symbol: "0"}, start)

	var end runEndEvent
	require.NoError(t, json.Unmarshal([]byte(lastEvent(t, events, "run_end").data), &end))
	assert.NotEmpty(t, end.RunID)
	assert.Equal(t, "halt_reached", end.Outcome)
	assert.Equal(t, 11, end.Steps)
	assert.Equal(t, "HALT", end.State)
	assert.Equal(t, []string{"0", "1", "1", "1", "1", "1", "#"}, end.FinalTape)
	assert.Equal(t, 6, end.Head)
}

func TestRunMachine_StepLimit(t *testing.T) {
	s := New(":0")
	created := registerMachine(t, s, incrementerSrc)

	body := jsonBody(t, runRequest{Tape: []string{"1", "0", "0", "0", "0", "1"}, MaxSteps: 3})
	rec := doRequest(t, s, http.MethodPost, "/machines/"+created.ID+"/run", body)

	require.Equal(t, http.StatusOK, rec.Code)
	events := parseSSE(t, rec.Body.String())

	var end runEndEvent
	require.NoError(t, json.Unmarshal([]byte(lastEvent(t, events, "run_end").data), &end))
	assert.Equal(t, "step_limit_reached", end.Outcome)
	assert.Equal(t, 3, end.Steps)
}

func TestRunMachine_UnknownTransition(t *testing.T) {
	s := New(":0")
	created := registerMachine(t, s, miniSource)

	body := jsonBody(t, runRequest{Tape: []string{"0", "1"}})
	rec := doRequest(t, s, http.MethodPost, "/machines/"+created.ID+"/run", body)

	require.Equal(t, http.StatusOK, rec.Code)
	events := parseSSE(t, rec.Body.String())

	var end runEndEvent
	require.NoError(t, json.Unmarshal([]byte(lastEvent(t, events, "run_end").data), &end))
	assert.Equal(t, "unknown_transition", end.Outcome)
	assert.Equal(t, 1, end.Steps)
	assert.Equal(t, "a", end.State)
}

func TestRunMachine_ResetsBetweenRuns(t *testing.T) {
	s := New(":0")
	created := registerMachine(t, s, incrementerSrc)

	for i := 0; i < 2; i++ {
		body := jsonBody(t, runRequest{Tape: []string{"1", "0", "0", "0", "0", "1"}})
		rec := doRequest(t, s, http.MethodPost, "/machines/"+created.ID+"/run", body)
		require.Equal(t, http.StatusOK, rec.Code)

		var end runEndEvent
		events := parseSSE(t, rec.Body.String())
		require.NoError(t, json.Unmarshal([]byte(lastEvent(t, events, "run_end").data), &end))
		assert.Equal(t, "halt_reached", end.Outcome, "run %d", i+1)
		assert.Equal(t, 11, end.Steps, "run %d", i+1)
	}
}

func TestRunMachine_InvalidTape(t *testing.T) {
	s := New(":0")
	created := registerMachine(t, s, incrementerSrc)

	body := jsonBody(t, runRequest{Tape: []string{"z"}})
	rec := doRequest(t, s, http.MethodPost, "/machines/"+created.ID+"/run", body)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid tape")
}

func TestRunMachine_BadBody(t *testing.T) {
	s := New(":0")
	created := registerMachine(t, s, incrementerSrc)

	rec := doRequest(t, s, http.MethodPost, "/machines/"+created.ID+"/run", strings.NewReader("{"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid request body")
}

func TestRunMachine_NotFound(t *testing.T) {
	s := New(":0")

	rec := doRequest(t, s, http.MethodPost, "/machines/nope/run", strings.NewReader("{}"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type fakeSleeper struct {
	calls []time.Duration
}

func (f *fakeSleeper) Sleep(d time.Duration) { f.calls = append(f.calls, d) }

func TestRunMachine_DelayUsesSleeper(t *testing.T) {
	s := New(":0")
	sleeper := &fakeSleeper{}
	s.Sleeper = sleeper
	created := registerMachine(t, s, incrementerSrc)

	body := jsonBody(t, runRequest{Tape: []string{"1", "0", "0", "0", "0", "1"}, DelayMs: 7})
	rec := doRequest(t, s, http.MethodPost, "/machines/"+created.ID+"/run", body)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, sleeper.calls, 11, "one pause per completed step")
	assert.Equal(t, 7*time.Millisecond, sleeper.calls[0])
}

func TestAcceptWord(t *testing.T) {
	s := New(":0")
	created := registerMachine(t, s, incrementerSrc)

	tests := []struct {
		name     string
		word     []string
		maxSteps int
		result   string
		steps    int
	}{
		{
			name:   "accepted",
			word:   []string{"1", "0", "0", "0"},
			result: "accepted",
			steps:  8,
		},
		{
			name:   "rejected",
			word:   []string{"1", "0", "1", "0"},
			result: "rejected",
			steps:  5,
		},
		{
			name:     "indeterminate",
			word:     []string{"1", "0", "1", "0"},
			maxSteps: 2,
			result:   "indeterminate",
			steps:    2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := jsonBody(t, acceptRequest{Word: tt.word, MaxSteps: tt.maxSteps})
			rec := doRequest(t, s, http.MethodPost, "/machines/"+created.ID+"/accept", body)

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var resp acceptResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.result, resp.Result)
			assert.Equal(t, tt.steps, resp.Steps)
		})
	}
}

func TestAcceptWord_EmptyWord(t *testing.T) {
	s := New(":0")
	created := registerMachine(t, s, incrementerSrc)

	body := jsonBody(t, acceptRequest{Word: []string{}})
	rec := doRequest(t, s, http.MethodPost, "/machines/"+created.ID+"/accept", body)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp acceptResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "rejected", resp.Result)
	assert.Equal(t, 0, resp.Steps)
}

func TestAcceptWord_InvalidSymbol(t *testing.T) {
	s := New(":0")
	created := registerMachine(t, s, incrementerSrc)

	body := jsonBody(t, acceptRequest{Word: []string{"z"}})
	rec := doRequest(t, s, http.MethodPost, "/machines/"+created.ID+"/accept", body)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid word")
}

func TestAcceptWord_BadBody(t *testing.T) {
	s := New(":0")
	created := registerMachine(t, s, incrementerSrc)

	rec := doRequest(t, s, http.MethodPost, "/machines/"+created.ID+"/accept", strings.NewReader("not json"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid request body")
}

func TestAcceptWord_NotFound(t *testing.T) {
	s := New(":0")

	rec := doRequest(t, s, http.MethodPost, "/machines/nope/accept", strings.NewReader("{}"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
