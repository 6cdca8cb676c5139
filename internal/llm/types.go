// Package llm talks to chat-completion providers and turns their output into
// structured replies, running at most one round of tool calls in between.
package llm

import (
	"context"

	"github.com/zhoulinyu/imbot/internal/domain"
)

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Turn is one message in a conversation sent to the provider.
type Turn struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall // assistant turns that requested tools
	ToolCallID string     // tool turns: the call being answered
	Name       string     // tool turns: the tool name
}

// ToolCall is a tool invocation requested by the model. Arguments is always
// a JSON-encoded object regardless of how the provider encoded it on the wire.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolSpec describes a callable tool to the provider.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// ToolExecutor runs tool calls on behalf of the model. Execute never fails;
// errors come back as textual results the model can read.
type ToolExecutor interface {
	Specs() []ToolSpec
	Execute(ctx context.Context, name, argsJSON string) string
}

// Chatter produces a structured reply for a conversation.
type Chatter interface {
	Chat(ctx context.Context, turns []Turn) (domain.Reply, error)
}
