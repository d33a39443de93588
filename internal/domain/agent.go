package domain

import (
	"encoding/json"
	"sort"
)

// MessageRole identifies who produced a message in an agent conversation.
type MessageRole string

const (
	RoleHuman  MessageRole = "human"
	RoleAI     MessageRole = "ai"
	RoleSystem MessageRole = "system"
	RoleTool   MessageRole = "tool"
)

// Message is one turn in an agent conversation. CreatedAt is authoritative
// only when assigned by the backend; a locally constructed message carries a
// display placeholder until the server echoes the real value.
type Message struct {
	Content    string            `json:"content"`
	Type       MessageRole       `json:"type"`
	CreatedAt  float64           `json:"created_at"`
	ToolCalls  []json.RawMessage `json:"tool_calls,omitempty"`
	ToolCallID string            `json:"tool_call_id,omitempty"`
}

// Displayable reports whether the message renders in a transcript. System
// and tool turns are kept in the history but never shown.
func (m Message) Displayable() bool {
	return m.Type == RoleHuman || m.Type == RoleAI
}

// SortMessages orders messages by ascending creation timestamp. The sort is
// stable so messages sharing a timestamp keep their insertion order.
func SortMessages(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt < msgs[j].CreatedAt
	})
}

// Agent is one conversational assistant scoped to a user and optionally one
// bound contract.
type Agent struct {
	AgentID          string         `json:"agent_id"`
	Name             string         `json:"name"`
	UserID           string         `json:"user_id"`
	ModelName        string         `json:"model_name"`
	Messages         []Message      `json:"messages,omitempty"`
	State            map[string]any `json:"state,omitempty"`
	SelectedContract string         `json:"selected_contract,omitempty"`
}
