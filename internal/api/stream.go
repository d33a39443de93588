package api

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/contractintel/cip-client/internal/domain"
)

// StreamEventType discriminates the frames of the chat event stream.
type StreamEventType string

const (
	// StreamEventToolCall signals the agent started calling a tool.
	StreamEventToolCall StreamEventType = "tool_call"

	// StreamEventToolResponse signals a tool finished and content
	// generation is about to begin.
	StreamEventToolResponse StreamEventType = "tool_response"

	// StreamEventAIResponse carries one content fragment of the reply.
	StreamEventAIResponse StreamEventType = "ai_response"

	// StreamEventDone terminates the stream for this call.
	StreamEventDone StreamEventType = "done"
)

// StreamEvent is one frame of the chat event stream.
type StreamEvent struct {
	Type    StreamEventType `json:"type"`
	Content string          `json:"content,omitempty"`
}

// StreamEventResult wraps a streaming event or error.
type StreamEventResult struct {
	Event StreamEvent
	Err   error
}

// StreamAgent sends one chat message and returns the incremental reply as a
// channel of events. The channel is closed after a done frame, a protocol
// error, or context cancellation; exactly one connection serves one call.
// An empty message after trimming is a no-op failure before any network I/O.
func (c *Client) StreamAgent(ctx context.Context, agentID, message string) (<-chan StreamEventResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, domain.ErrValidationIncomplete("message")
	}

	q := url.Values{}
	q.Set("agent_id", agentID)
	q.Set("message", message)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/agent/stream?"+q.Encode(), nil)
	if err != nil {
		return nil, domain.ErrRequestFailed("failed to create request").WithCause(err)
	}

	c.setHeaders(httpReq)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, domain.ErrRequestFailed("request failed").WithCause(err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		defer resp.Body.Close()
		return nil, domain.ErrUnauthorized("session invalid").WithStatusCode(resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		return nil, domain.ErrRequestFailed(snippet(respBody)).WithStatusCode(resp.StatusCode)
	}

	c.captureSessionCookie(resp)

	out := make(chan StreamEventResult)
	go c.streamReader(resp.Body, out)
	return out, nil
}

func (c *Client) streamReader(body io.ReadCloser, out chan<- StreamEventResult) {
	defer close(out)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	// Increase buffer size for potentially large fragments
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var currentEvent string

	for scanner.Scan() {
		// Scanner strips the \n; a CRLF server leaves the \r behind
		line := strings.TrimSuffix(scanner.Text(), "\r")

		// Skip empty lines
		if line == "" {
			continue
		}

		// Parse event type
		if value, ok := sseField(line, "event"); ok {
			currentEvent = value
			continue
		}

		// Parse data
		if data, ok := sseField(line, "data"); ok {
			var event StreamEvent
			if err := json.Unmarshal([]byte(data), &event); err != nil {
				out <- StreamEventResult{Err: domain.ErrStream("malformed stream frame").WithCause(err)}
				return
			}
			// An event: line wins over an absent type field
			if event.Type == "" && currentEvent != "" {
				event.Type = StreamEventType(currentEvent)
			}

			out <- StreamEventResult{Event: event}

			// Stop on done
			if event.Type == StreamEventDone {
				return
			}
		}
	}

	if err := scanner.Err(); err != nil {
		out <- StreamEventResult{Err: domain.ErrStream("stream read error").WithCause(err)}
	}
}

// sseField extracts the value of a "name: value" line. The colon may be
// followed by at most one optional space, which is not part of the value.
func sseField(line, name string) (string, bool) {
	if !strings.HasPrefix(line, name+":") {
		return "", false
	}
	return strings.TrimPrefix(line[len(name)+1:], " "), true
}
