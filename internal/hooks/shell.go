package hooks

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/zhoulinyu/imbot/internal/config"
)

const defaultShellTimeout = 10 * time.Second

// RegisterShellHooks binds the configured shell commands to their events.
// The event payload is passed to the command as JSON on stdin.
func RegisterShellHooks(m *Manager, cfg config.HooksConfig) {
	bind := func(event string, entries []config.HookEntry) {
		for i, e := range entries {
			if strings.TrimSpace(e.Command) == "" {
				continue
			}
			name := fmt.Sprintf("shell:%s:%d", event, i)
			m.On(event, name, shellHandler(e))
		}
	}

	bind(EventEngineStart, cfg.EngineStart)
	bind(EventEngineStop, cfg.EngineStop)
	bind(EventMessageReceived, cfg.MessageReceived)
	bind(EventReplySending, cfg.ReplySending)
	bind(EventReplySent, cfg.ReplySent)
	bind(EventReplyInterrupted, cfg.ReplyInterrupted)
}

func shellHandler(entry config.HookEntry) Handler {
	timeout := defaultShellTimeout
	if entry.Timeout > 0 {
		timeout = time.Duration(entry.Timeout) * time.Millisecond
	}

	return func(ctx context.Context, p Payload) error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		payload, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshaling hook payload: %w", err)
		}

		cmd := exec.CommandContext(ctx, "sh", "-c", entry.Command)
		cmd.Stdin = strings.NewReader(string(payload))
		cmd.Env = append(cmd.Environ(), "IMBOT_HOOK_EVENT="+p.Event)

		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("hook command failed: %w: %s", err, strings.TrimSpace(string(out)))
		}
		return nil
	}
}
