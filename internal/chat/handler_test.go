package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/wolfman30/dental-booking-ai/internal/agent"
	"github.com/wolfman30/dental-booking-ai/pkg/logging"
)

type fakeRunner struct {
	mu        sync.Mutex
	histories [][]agent.Message
	err       error
}

func (f *fakeRunner) Run(_ context.Context, history []agent.Message, text string, onStep agent.StepFunc) (*agent.Trace, error) {
	f.mu.Lock()
	f.histories = append(f.histories, history)
	f.mu.Unlock()
	tr := &agent.Trace{Steps: []agent.Step{}, ToolsUsed: []string{}}
	if f.err != nil {
		return tr, f.err
	}
	step := agent.Step{StepNumber: 1, Type: agent.StepText, Text: "echo: " + text, Timestamp: time.Now()}
	tr.Steps = append(tr.Steps, step)
	if onStep != nil {
		onStep(step)
	}
	tr.TotalSteps = 1
	tr.FinalResponse = "echo: " + text
	return tr, nil
}

type fakeTranscripts struct {
	recorded []Exchange
	latest   *agent.Trace
}

func (f *fakeTranscripts) Record(_ context.Context, ex Exchange) error {
	f.recorded = append(f.recorded, ex)
	return nil
}

func (f *fakeTranscripts) LatestTrace(context.Context, string) (*agent.Trace, error) {
	return f.latest, nil
}

func postChat(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.HandleChat(rec, req)
	return rec
}

func TestHandleChat(t *testing.T) {
	runner := &fakeRunner{}
	transcripts := &fakeTranscripts{}
	h := NewHandler(runner, nil, transcripts, logging.Discard())

	rec := postChat(t, h, `{"message":"Hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, "echo: Hello", resp.Reply)
	require.NotNil(t, resp.Trace)
	assert.Equal(t, 1, resp.Trace.TotalSteps)

	rec = postChat(t, h, `{"session_id":"`+resp.SessionID+`","message":"Again"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, runner.histories, 2)
	assert.Empty(t, runner.histories[0])
	assert.Equal(t, []agent.Message{
		{Role: agent.RoleUser, Content: "Hello"},
		{Role: agent.RoleModel, Content: "echo: Hello"},
	}, runner.histories[1])

	require.Len(t, transcripts.recorded, 2)
	assert.Equal(t, resp.SessionID, transcripts.recorded[1].SessionID)
	assert.Equal(t, "Again", transcripts.recorded[1].UserText)
}

func TestHandleChat_BadRequests(t *testing.T) {
	h := NewHandler(&fakeRunner{}, nil, nil, logging.Discard())

	cases := map[string]struct {
		body string
		want int
	}{
		"invalid json":  {`{`, http.StatusBadRequest},
		"empty message": {`{"message":"   "}`, http.StatusBadRequest},
		"too long":      {`{"message":"` + strings.Repeat("a", maxMessageLength+1) + `"}`, http.StatusRequestEntityTooLarge},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, postChat(t, h, tc.body).Code)
		})
	}
}

func TestHandleChat_RunnerError(t *testing.T) {
	store := NewMemoryHistoryStore()
	h := NewHandler(&fakeRunner{err: errors.New("model down")}, store, nil, logging.Discard())

	rec := postChat(t, h, `{"session_id":"s1","message":"Hello"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	history, _ := store.Load(context.Background(), "s1")
	assert.Empty(t, history)
}

func TestHandleTrace(t *testing.T) {
	transcripts := &fakeTranscripts{latest: &agent.Trace{TotalSteps: 4, ToolsUsed: []string{"getServices"}, Steps: []agent.Step{}}}
	h := NewHandler(&fakeRunner{}, nil, transcripts, logging.Discard())

	get := func(query string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.HandleTrace(rec, httptest.NewRequest(http.MethodGet, "/api/chat/trace"+query, nil))
		return rec
	}

	assert.Equal(t, http.StatusBadRequest, get("").Code)

	require.Equal(t, http.StatusOK, postChat(t, h, `{"session_id":"s1","message":"Hello"}`).Code)
	var tr agent.Trace
	rec := get("?session_id=s1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tr))
	assert.Equal(t, "echo: Hello", tr.FinalResponse)

	rec = get("?session_id=older")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tr))
	assert.Equal(t, 4, tr.TotalSteps)

	transcripts.latest = nil
	rec = get("?session_id=never")
	assert.JSONEq(t, `{"steps":[],"totalSteps":0,"toolsUsed":[]}`, rec.Body.String())
}

func TestHandleWebSocket(t *testing.T) {
	h := NewHandler(&fakeRunner{}, nil, nil, logging.Discard())
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/chat/ws?session=ws-1"
	conn, err := websocket.Dial(wsURL, "", "http://localhost/")
	require.NoError(t, err)
	defer conn.Close()

	var msg OutboundMessage
	require.NoError(t, websocket.JSON.Receive(conn, &msg))
	assert.Equal(t, "session", msg.Type)
	assert.Equal(t, "ws-1", msg.SessionID)

	require.NoError(t, websocket.JSON.Send(conn, InboundMessage{Type: "ping"}))
	require.NoError(t, websocket.JSON.Receive(conn, &msg))
	assert.Equal(t, "pong", msg.Type)

	require.NoError(t, websocket.JSON.Send(conn, InboundMessage{Type: "message", Text: "Hi there"}))
	var types []string
	for {
		var out OutboundMessage
		require.NoError(t, websocket.JSON.Receive(conn, &out))
		types = append(types, out.Type)
		if out.Type == "message" {
			assert.Equal(t, "echo: Hi there", out.Text)
			require.NotNil(t, out.Trace)
			break
		}
	}
	assert.Equal(t, []string{"typing", "step", "message"}, types)
}
