package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zhoulinyu/imbot/internal/config"
	"github.com/zhoulinyu/imbot/internal/domain"
	"github.com/zhoulinyu/imbot/internal/logging"
)

// Reasoning models can sit on a request for a long time; the deadline only
// guards against a hung connection.
const requestTimeout = 10 * time.Minute

// Client sends conversations to a chat-completion provider and parses the
// structured reply. When the model requests tools, the client runs them and
// sends one follow-up request with tools disabled.
type Client struct {
	adapter adapter
	baseURL string
	apiKey  string
	model   string
	tools   ToolExecutor
	http    *http.Client
	log     *logging.Logger
}

// NewClient builds a client for the configured provider. tools may be nil.
func NewClient(cfg config.ProviderConfig, tools ToolExecutor, log *logging.Logger) (*Client, error) {
	a, err := newAdapter(cfg.Kind)
	if err != nil {
		return nil, err
	}
	return &Client{
		adapter: a,
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		tools:   tools,
		http:    &http.Client{Timeout: requestTimeout},
		log:     log.Sub("llm"),
	}, nil
}

// Chat runs the conversation to a final structured reply.
func (c *Client) Chat(ctx context.Context, turns []Turn) (domain.Reply, error) {
	content, calls, err := c.complete(ctx, turns, true)
	if err != nil {
		return domain.Reply{}, err
	}

	if len(calls) > 0 {
		c.log.Debug().Int("calls", len(calls)).Msg("model requested tools")
		turns = append(turns, Turn{
			Role:      RoleAssistant,
			Content:   content,
			ToolCalls: calls,
		})
		for _, call := range calls {
			result := c.executeTool(ctx, call)
			turns = append(turns, Turn{
				Role:       RoleTool,
				Content:    result,
				ToolCallID: call.ID,
				Name:       call.Name,
			})
		}
		// One round only; the follow-up offers no tools.
		content, _, err = c.complete(ctx, turns, false)
		if err != nil {
			return domain.Reply{}, err
		}
	}

	return parseReply(content)
}

func (c *Client) executeTool(ctx context.Context, call ToolCall) string {
	if c.tools == nil {
		return fmt.Sprintf("tool %q is not available", call.Name)
	}
	start := time.Now()
	result := c.tools.Execute(ctx, call.Name, call.Arguments)
	c.log.Debug().
		Str("tool", call.Name).
		Dur("took", time.Since(start)).
		Msg("tool executed")
	return result
}

func (c *Client) complete(ctx context.Context, turns []Turn, useTools bool) (string, []ToolCall, error) {
	var specs []ToolSpec
	if c.tools != nil {
		specs = c.tools.Specs()
	}
	useTools = useTools && len(specs) > 0

	body := c.adapter.buildBody(c.model, turns, specs, useTools)
	payload, err := json.Marshal(body)
	if err != nil {
		return "", nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.adapter.endpoint(c.baseURL), bytes.NewReader(payload))
	if err != nil {
		return "", nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.adapter.authorize(req.Header, c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", nil, &HTTPError{Status: resp.StatusCode, Body: string(raw)}
	}

	content, calls, err := c.adapter.parseResponse(raw)
	if err != nil {
		return "", nil, err
	}
	c.log.Debug().
		Dur("took", time.Since(start)).
		Bool("tools_offered", useTools).
		Msg("completion finished")
	return content, calls, nil
}

func parseReply(content string) (domain.Reply, error) {
	cleaned := stripFence(content)
	var r domain.Reply
	if err := json.Unmarshal([]byte(cleaned), &r); err != nil {
		return domain.Reply{}, &ParseError{Raw: content, Err: err}
	}
	if strings.TrimSpace(r.Text) == "" {
		return domain.Reply{}, &ParseError{Raw: content, Err: errors.New("empty reply text")}
	}
	return r, nil
}

// stripFence removes a markdown code fence around a JSON payload. Models
// wrap their output this way often enough that it is worth tolerating.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
