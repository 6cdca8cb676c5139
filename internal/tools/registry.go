// Package tools implements the callable tools offered to the model and the
// registry that dispatches tool calls.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zhoulinyu/imbot/internal/llm"
	"github.com/zhoulinyu/imbot/internal/logging"
)

// Tool is one callable capability.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]interface{}
	Execute(ctx context.Context, args map[string]interface{}) string
}

// Registry dispatches tool calls by name. It satisfies llm.ToolExecutor:
// every failure is returned as text so the model can recover in its reply.
type Registry struct {
	order  []Tool
	byName map[string]Tool
	log    *logging.Logger
}

func NewRegistry(log *logging.Logger, tools ...Tool) *Registry {
	r := &Registry{
		byName: make(map[string]Tool, len(tools)),
		log:    log.Sub("tools"),
	}
	for _, t := range tools {
		r.order = append(r.order, t)
		r.byName[t.Name()] = t
	}
	return r
}

func (r *Registry) Specs() []llm.ToolSpec {
	specs := make([]llm.ToolSpec, 0, len(r.order))
	for _, t := range r.order {
		specs = append(specs, llm.ToolSpec{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return specs
}

func (r *Registry) Execute(ctx context.Context, name, argsJSON string) string {
	t, ok := r.byName[name]
	if !ok {
		r.log.Warn().Str("tool", name).Msg("call to unknown tool")
		return fmt.Sprintf("error: unknown tool %q", name)
	}

	var args map[string]interface{}
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		r.log.Warn().Str("tool", name).Err(err).Msg("bad tool arguments")
		return fmt.Sprintf("error: invalid arguments for %s: %v", name, err)
	}

	r.log.Info().Str("tool", name).Msg("executing tool")
	return t.Execute(ctx, args)
}
