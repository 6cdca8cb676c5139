package conversation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhoulinyu/imbot/internal/domain"
	"github.com/zhoulinyu/imbot/internal/llm"
)

func TestBuildOrdering(t *testing.T) {
	history := []domain.HistoryEntry{
		{Text: "早上好", FromSelf: false},
		{Text: "早呀，今天想聊点什么？", FromSelf: true},
		{Text: "帮我查个东西", FromSelf: false},
	}
	now := time.Date(2025, 5, 1, 14, 30, 0, 0, time.UTC)

	turns := Build(history, "  上海天气怎么样  ", "你是一个贴心的助手。", now)
	require.Len(t, turns, 5)

	assert.Equal(t, llm.RoleSystem, turns[0].Role)
	assert.Contains(t, turns[0].Content, "你是一个贴心的助手。")
	assert.Contains(t, turns[0].Content, "2025-05-01 14:30:00")
	assert.Contains(t, turns[0].Content, "emoji_keyword")

	assert.Equal(t, llm.RoleUser, turns[1].Role)
	assert.Equal(t, "早上好", turns[1].Content)
	assert.Equal(t, llm.RoleAssistant, turns[2].Role)
	assert.Equal(t, llm.RoleUser, turns[3].Role)

	last := turns[len(turns)-1]
	assert.Equal(t, llm.RoleUser, last.Role)
	assert.Equal(t, "上海天气怎么样", last.Content)
}

func TestBuildEmptyHistory(t *testing.T) {
	turns := Build(nil, "在吗", "persona", time.Now())
	require.Len(t, turns, 2)
	assert.Equal(t, llm.RoleSystem, turns[0].Role)
	assert.Equal(t, llm.RoleUser, turns[1].Role)
	assert.Equal(t, "在吗", turns[1].Content)
}
