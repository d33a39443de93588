package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/contractintel/cip-client/internal/domain"
)

func sseHandler(t *testing.T, frames []string) http.HandlerFunc {
	t.Helper()

	return func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("agent_id"); got != "agent-1" {
			t.Errorf("agent_id = %q, want agent-1", got)
		}
		if got := r.URL.Query().Get("message"); got == "" {
			t.Error("message query parameter missing")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Fatal("response writer does not support flushing")
		}
		for _, frame := range frames {
			fmt.Fprintf(w, "data: %s\n\n", frame)
			flusher.Flush()
		}
	}
}

func collect(t *testing.T, events <-chan StreamEventResult) ([]StreamEvent, error) {
	t.Helper()

	var got []StreamEvent
	for res := range events {
		if res.Err != nil {
			return got, res.Err
		}
		got = append(got, res.Event)
	}
	return got, nil
}

func TestStreamAgent_EventSequence(t *testing.T) {
	client, _ := newTestClient(t, sseHandler(t, []string{
		`{"type":"tool_call"}`,
		`{"type":"tool_response"}`,
		`{"type":"ai_response","content":"Clause 4 states"}`,
		`{"type":"ai_response","content":" the term."}`,
		`{"type":"done"}`,
	}))

	events, err := client.StreamAgent(context.Background(), "agent-1", "Summarize clause 4")
	if err != nil {
		t.Fatalf("StreamAgent() error = %v", err)
	}

	got, err := collect(t, events)
	if err != nil {
		t.Fatalf("stream error = %v", err)
	}

	wantTypes := []StreamEventType{
		StreamEventToolCall,
		StreamEventToolResponse,
		StreamEventAIResponse,
		StreamEventAIResponse,
		StreamEventDone,
	}
	if len(got) != len(wantTypes) {
		t.Fatalf("event count = %d, want %d", len(got), len(wantTypes))
	}
	for i, want := range wantTypes {
		if got[i].Type != want {
			t.Errorf("event[%d].Type = %v, want %v", i, got[i].Type, want)
		}
	}
	if got[2].Content != "Clause 4 states" {
		t.Errorf("event[2].Content = %q, want %q", got[2].Content, "Clause 4 states")
	}
}

func TestStreamAgent_EventLineDiscriminator(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "event: ai_response\ndata: {\"content\":\"Hi\"}\n\n")
		fmt.Fprint(w, "event: done\ndata: {}\n\n")
		flusher.Flush()
	}))

	events, err := client.StreamAgent(context.Background(), "agent-1", "hello")
	if err != nil {
		t.Fatalf("StreamAgent() error = %v", err)
	}

	got, err := collect(t, events)
	if err != nil {
		t.Fatalf("stream error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("event count = %d, want 2", len(got))
	}
	if got[0].Type != StreamEventAIResponse || got[0].Content != "Hi" {
		t.Errorf("event[0] = %+v, want ai_response with content Hi", got[0])
	}
	if got[1].Type != StreamEventDone {
		t.Errorf("event[1].Type = %v, want done", got[1].Type)
	}
}

func TestStreamAgent_CRLFAndNoSpaceFields(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		// No space after the colon, CRLF line endings: both legal SSE
		fmt.Fprint(w, "event:ai_response\r\ndata:{\"content\":\"Hi\"}\r\n\r\n")
		fmt.Fprint(w, "data: {\"type\":\"done\"}\r\n\r\n")
		flusher.Flush()
	}))

	events, err := client.StreamAgent(context.Background(), "agent-1", "hello")
	if err != nil {
		t.Fatalf("StreamAgent() error = %v", err)
	}

	got, err := collect(t, events)
	if err != nil {
		t.Fatalf("stream error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("event count = %d, want 2", len(got))
	}
	if got[0].Type != StreamEventAIResponse || got[0].Content != "Hi" {
		t.Errorf("event[0] = %+v, want ai_response with content Hi", got[0])
	}
	if got[1].Type != StreamEventDone {
		t.Errorf("event[1].Type = %v, want done", got[1].Type)
	}
}

func TestStreamAgent_UnauthorizedBeforeStreaming(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))

	_, err := client.StreamAgent(context.Background(), "agent-1", "hello")
	if err == nil {
		t.Fatal("StreamAgent() error = nil, want unauthorized")
	}
	if !domain.IsUnauthorized(err) {
		t.Errorf("IsUnauthorized(%v) = false, want true", err)
	}
}

func TestStreamAgent_MalformedFrameEndsStream(t *testing.T) {
	client, _ := newTestClient(t, sseHandler(t, []string{
		`{"type":"ai_response","content":"partial"}`,
		`{not json`,
	}))

	events, err := client.StreamAgent(context.Background(), "agent-1", "hello")
	if err != nil {
		t.Fatalf("StreamAgent() error = %v", err)
	}

	got, streamErr := collect(t, events)
	if streamErr == nil {
		t.Fatal("stream error = nil, want protocol error")
	}
	if domain.KindOf(streamErr) != domain.ErrorKindStream {
		t.Errorf("KindOf(%v) = %v, want %v", streamErr, domain.KindOf(streamErr), domain.ErrorKindStream)
	}
	// The partial fragment was delivered before the failure
	if len(got) != 1 || got[0].Content != "partial" {
		t.Errorf("events before failure = %+v, want the partial fragment", got)
	}
}

func TestStreamAgent_EmptyMessageIsNoOp(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request reached the server, want client-local no-op")
	}))

	_, err := client.StreamAgent(context.Background(), "agent-1", "   ")
	if domain.KindOf(err) != domain.ErrorKindValidationIncomplete {
		t.Errorf("KindOf(%v) = %v, want %v", err, domain.KindOf(err), domain.ErrorKindValidationIncomplete)
	}
}

func TestStreamAgent_AttachesCSRFToken(t *testing.T) {
	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get(CSRFHeader)
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"done\"}\n\n")
	}))
	defer srv.Close()

	sess := newSessionWithToken(t, "tok-stream")
	client := NewClient(srv.URL, sess, WithHTTPClient(srv.Client()))

	events, err := client.StreamAgent(context.Background(), "agent-1", "hi")
	if err != nil {
		t.Fatalf("StreamAgent() error = %v", err)
	}
	if _, err := collect(t, events); err != nil {
		t.Fatalf("stream error = %v", err)
	}

	if gotToken != "tok-stream" {
		t.Errorf("CSRF header = %q, want tok-stream", gotToken)
	}
}
