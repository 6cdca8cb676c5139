// Package conversation maps stored message history onto the turn list a
// provider expects.
package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/zhoulinyu/imbot/internal/domain"
	"github.com/zhoulinyu/imbot/internal/llm"
)

// formatInstruction pins the model to the structured reply shape the engine
// knows how to segment and decorate.
const formatInstruction = `你必须只输出一个 JSON 对象，不要输出任何其他内容：
{"reply": "你的回复内容", "emoji_keyword": "一个描述当前情绪的中文关键词，不需要时留空"}`

// Build assembles the full turn list for one exchange. History is assumed
// oldest-first and already bounded by the caller; input is the user's text
// with the trigger prefix already stripped.
func Build(history []domain.HistoryEntry, input, systemPrompt string, now time.Time) []llm.Turn {
	turns := make([]llm.Turn, 0, len(history)+2)

	var system strings.Builder
	system.WriteString(systemPrompt)
	system.WriteString("\n\n")
	system.WriteString(fmt.Sprintf("当前时间：%s\n\n", now.Format("2006-01-02 15:04:05 Monday")))
	system.WriteString(formatInstruction)
	turns = append(turns, llm.Turn{Role: llm.RoleSystem, Content: system.String()})

	for _, h := range history {
		role := llm.RoleUser
		if h.FromSelf {
			role = llm.RoleAssistant
		}
		turns = append(turns, llm.Turn{Role: role, Content: h.Text})
	}

	turns = append(turns, llm.Turn{Role: llm.RoleUser, Content: strings.TrimSpace(input)})
	return turns
}
