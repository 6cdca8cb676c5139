package llm

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// ollamaAdapter speaks the native Ollama /api/chat dialect. Tool-call
// arguments arrive as a JSON object rather than a string, and the response
// carries no call ids, so ids are synthesized locally.
type ollamaAdapter struct{}

func (a *ollamaAdapter) endpoint(baseURL string) string {
	u := strings.TrimSuffix(baseURL, "/")
	if strings.Contains(u, "/api") || strings.Contains(u, "/v1") {
		return u
	}
	return u + "/api/chat"
}

func (a *ollamaAdapter) authorize(h http.Header, apiKey string) {
	// Ollama ignores auth but some reverse proxies in front of it do not.
	if apiKey == "" {
		apiKey = "ollama"
	}
	h.Set("Authorization", "Bearer "+apiKey)
}

func (a *ollamaAdapter) buildBody(model string, turns []Turn, tools []ToolSpec, useTools bool) map[string]interface{} {
	messages := make([]map[string]interface{}, 0, len(turns))
	for _, t := range turns {
		m := map[string]interface{}{
			"role":    t.Role,
			"content": t.Content,
		}
		if len(t.ToolCalls) > 0 {
			calls := make([]map[string]interface{}, 0, len(t.ToolCalls))
			for _, c := range t.ToolCalls {
				// Replay arguments as the object Ollama originally sent.
				var args map[string]interface{}
				if err := json.Unmarshal([]byte(c.Arguments), &args); err != nil {
					args = map[string]interface{}{}
				}
				calls = append(calls, map[string]interface{}{
					"function": map[string]interface{}{
						"name":      c.Name,
						"arguments": args,
					},
				})
			}
			m["tool_calls"] = calls
		}
		if t.Role == RoleTool {
			m["tool_name"] = t.Name
		}
		messages = append(messages, m)
	}

	body := map[string]interface{}{
		"model":    model,
		"messages": messages,
		"stream":   false,
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
		body["format"] = "json"
	}
	return body
}

type ollamaResponse struct {
	Message struct {
		Content   string `json:"content"`
		ToolCalls []struct {
			Function struct {
				Name      string          `json:"name"`
				Arguments json.RawMessage `json:"arguments"`
			} `json:"function"`
		} `json:"tool_calls"`
	} `json:"message"`
}

func (a *ollamaAdapter) parseResponse(raw []byte) (string, []ToolCall, error) {
	var env ollamaResponse
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", nil, &DecodeError{Raw: string(raw), Err: err}
	}

	calls := make([]ToolCall, 0, len(env.Message.ToolCalls))
	for _, c := range env.Message.ToolCalls {
		args := strings.TrimSpace(string(c.Function.Arguments))
		if args == "" || args == "null" {
			args = "{}"
		}
		calls = append(calls, ToolCall{
			ID:        uuid.NewString(),
			Name:      c.Function.Name,
			Arguments: args,
		})
	}
	return env.Message.Content, calls, nil
}
