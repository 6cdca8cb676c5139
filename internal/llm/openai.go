package llm

import (
	"encoding/json"
	"net/http"
	"strings"
)

// openAIAdapter speaks the OpenAI chat-completions dialect, which Volcengine
// Ark exposes verbatim. Tool-call arguments travel as a JSON string and are
// replayed as a string when history is sent back.
type openAIAdapter struct{}

func (a *openAIAdapter) endpoint(baseURL string) string {
	u := strings.TrimSuffix(baseURL, "/")
	if strings.HasSuffix(u, "/chat/completions") {
		return u
	}
	return u + "/chat/completions"
}

func (a *openAIAdapter) authorize(h http.Header, apiKey string) {
	h.Set("Authorization", "Bearer "+apiKey)
}

func (a *openAIAdapter) buildBody(model string, turns []Turn, tools []ToolSpec, useTools bool) map[string]interface{} {
	messages := make([]map[string]interface{}, 0, len(turns))
	for _, t := range turns {
		m := map[string]interface{}{
			"role":    t.Role,
			"content": t.Content,
		}
		if len(t.ToolCalls) > 0 {
			calls := make([]map[string]interface{}, 0, len(t.ToolCalls))
			for _, c := range t.ToolCalls {
				calls = append(calls, map[string]interface{}{
					"id":   c.ID,
					"type": "function",
					"function": map[string]interface{}{
						"name":      c.Name,
						"arguments": c.Arguments,
					},
				})
			}
			m["tool_calls"] = calls
		}
		if t.Role == RoleTool {
			m["tool_call_id"] = t.ToolCallID
			m["name"] = t.Name
		}
		messages = append(messages, m)
	}

	body := map[string]interface{}{
		"model":    model,
		"messages": messages,
	}
	if useTools && len(tools) > 0 {
		defs := make([]map[string]interface{}, 0, len(tools))
		for _, t := range tools {
			defs = append(defs, map[string]interface{}{
				"type": "function",
				"function": map[string]interface{}{
					"name":        t.Name,
					"description": t.Description,
					"parameters":  t.Parameters,
				},
			})
		}
		body["tools"] = defs
	} else {
		body["response_format"] = map[string]interface{}{"type": "json_object"}
	}
	return body
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

func (a *openAIAdapter) parseResponse(raw []byte) (string, []ToolCall, error) {
	var env openAIResponse
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", nil, &DecodeError{Raw: string(raw), Err: err}
	}
	if len(env.Choices) == 0 {
		return "", nil, &DecodeError{Raw: string(raw), Err: errNoChoices}
	}

	msg := env.Choices[0].Message
	calls := make([]ToolCall, 0, len(msg.ToolCalls))
	for _, c := range msg.ToolCalls {
		args := c.Function.Arguments
		if strings.TrimSpace(args) == "" {
			args = "{}"
		}
		calls = append(calls, ToolCall{
			ID:        c.ID,
			Name:      c.Function.Name,
			Arguments: args,
		})
	}
	return msg.Content, calls, nil
}
