// Package chat reduces chat stream events into an evolving transcript. The
// reducer is pure so it can be exercised with synthetic event sequences; the
// transport lives in the api package.
package chat

import (
	"github.com/contractintel/cip-client/internal/api"
	"github.com/contractintel/cip-client/internal/domain"
)

// Status is the transient indicator shown while a reply is produced. It
// never becomes part of the message history.
type Status string

const (
	StatusIdle        Status = ""
	StatusCallingTool Status = "calling tool"
	StatusGenerating  Status = "generating content"
)

// Transcript is the reduced state of one agent conversation.
type Transcript struct {
	// Messages is the full ordered history. Nothing is ever removed;
	// display filtering is the caller's concern via Displayable.
	Messages []domain.Message

	// Status is the transient indicator for the in-flight reply.
	Status Status

	// Generating reports whether a reply stream is open.
	Generating bool

	// streaming marks the last history entry as the in-progress assistant
	// reply, so successive fragments grow it in place instead of adding
	// duplicate bubbles.
	streaming bool
}

// NewTranscript builds a transcript from an agent's stored history, ordered
// by ascending creation timestamp regardless of insertion order.
func NewTranscript(history []domain.Message) Transcript {
	msgs := make([]domain.Message, len(history))
	copy(msgs, history)
	domain.SortMessages(msgs)
	return Transcript{Messages: msgs}
}

// Begin appends the outgoing human message and opens the generating state.
// The timestamp is a display placeholder; the backend assigns the
// authoritative value to the stored copy.
func (t Transcript) Begin(content string, at float64) Transcript {
	msgs := append(copyMessages(t.Messages), domain.Message{
		Content:   content,
		Type:      domain.RoleHuman,
		CreatedAt: at,
	})
	return Transcript{Messages: msgs, Generating: true}
}

// Apply reduces one stream event into the next transcript state.
func (t Transcript) Apply(ev api.StreamEvent) Transcript {
	switch ev.Type {
	case api.StreamEventToolCall:
		// Status only; message history is untouched
		next := t
		next.Status = StatusCallingTool
		return next

	case api.StreamEventToolResponse:
		next := t
		next.Status = StatusGenerating
		return next

	case api.StreamEventAIResponse:
		next := t
		// The response started streaming; drop the transient indicator
		next.Status = StatusIdle

		msgs := copyMessages(t.Messages)
		if t.streaming && len(msgs) > 0 && msgs[len(msgs)-1].Type == domain.RoleAI {
			msgs[len(msgs)-1].Content += ev.Content
		} else {
			last := 0.0
			if len(msgs) > 0 {
				last = msgs[len(msgs)-1].CreatedAt
			}
			msgs = append(msgs, domain.Message{
				Content:   ev.Content,
				Type:      domain.RoleAI,
				CreatedAt: last,
			})
			next.streaming = true
		}
		next.Messages = msgs
		return next

	case api.StreamEventDone:
		next := t
		next.Generating = false
		next.streaming = false
		next.Status = StatusIdle
		return next

	default:
		// Unknown frames are ignored rather than corrupting state
		return t
	}
}

// Fail closes the generating state after a stream-level error. Whatever
// partial reply accumulated stays visible; there is no rollback.
func (t Transcript) Fail() Transcript {
	next := t
	next.Generating = false
	next.streaming = false
	next.Status = StatusIdle
	return next
}

// Displayable returns the messages that render in a transcript view, in
// order: human and ai turns only.
func (t Transcript) Displayable() []domain.Message {
	var out []domain.Message
	for _, m := range t.Messages {
		if m.Displayable() {
			out = append(out, m)
		}
	}
	return out
}

func copyMessages(msgs []domain.Message) []domain.Message {
	out := make([]domain.Message, len(msgs))
	copy(out, msgs)
	return out
}
