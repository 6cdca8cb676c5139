package llm

import (
	"fmt"
	"net/http"
)

// adapter maps the provider-neutral conversation onto one wire dialect.
type adapter interface {
	// endpoint resolves the full chat URL from the configured base URL.
	endpoint(baseURL string) string

	// authorize sets auth headers for the request.
	authorize(h http.Header, apiKey string)

	// buildBody assembles the request payload. When useTools is false the
	// body asks for a JSON object response instead of offering tools.
	buildBody(model string, turns []Turn, tools []ToolSpec, useTools bool) map[string]interface{}

	// parseResponse extracts the assistant content and any tool calls.
	parseResponse(raw []byte) (string, []ToolCall, error)
}

func newAdapter(kind string) (adapter, error) {
	switch kind {
	case "openai", "volcengine":
		return &openAIAdapter{}, nil
	case "ollama":
		return &ollamaAdapter{}, nil
	default:
		return nil, fmt.Errorf("unknown provider kind %q", kind)
	}
}
