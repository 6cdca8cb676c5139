package llm

import (
	"context"

	"github.com/zhoulinyu/imbot/internal/domain"
)

// MockChatter is a test double with injectable behavior.
type MockChatter struct {
	ChatFunc func(ctx context.Context, turns []Turn) (domain.Reply, error)

	// Calls records every conversation passed to Chat.
	Calls [][]Turn
}

func (m *MockChatter) Chat(ctx context.Context, turns []Turn) (domain.Reply, error) {
	m.Calls = append(m.Calls, turns)
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, turns)
	}
	return domain.Reply{Text: "ok"}, nil
}
