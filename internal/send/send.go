// Package send delivers outbound messages. The engine only sees the Sink
// interface; the concrete transport drives Messages.app through osascript.
package send

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/zhoulinyu/imbot/internal/logging"
)

// Sink is an outbound message transport.
type Sink interface {
	SendText(ctx context.Context, recipient, text string) error
	SendAttachment(ctx context.Context, recipient, path string) error
}

// IMessage sends through Messages.app via AppleScript.
type IMessage struct {
	log *logging.Logger
	run func(ctx context.Context, script string) error
}

func NewIMessage(log *logging.Logger) *IMessage {
	s := &IMessage{log: log.Sub("send")}
	s.run = s.osascript
	return s
}

func (s *IMessage) SendText(ctx context.Context, recipient, text string) error {
	s.log.Debug().Str("to", recipient).Int("chars", len([]rune(text))).Msg("sending text")
	return s.run(ctx, textScript(recipient, text))
}

func (s *IMessage) SendAttachment(ctx context.Context, recipient, path string) error {
	s.log.Debug().Str("to", recipient).Str("file", path).Msg("sending attachment")
	return s.run(ctx, attachmentScript(recipient, path))
}

func (s *IMessage) osascript(ctx context.Context, script string) error {
	out, err := exec.CommandContext(ctx, "osascript", "-e", script).CombinedOutput()
	if err != nil {
		return fmt.Errorf("osascript failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func textScript(recipient, text string) string {
	safe := strings.ReplaceAll(text, `"`, `\"`)
	safe = strings.ReplaceAll(safe, "\n", `\n`)
	return fmt.Sprintf(`tell application "Messages" to send "%s" to buddy "%s"`, safe, recipient)
}

func attachmentScript(recipient, path string) string {
	return fmt.Sprintf(`tell application "Messages" to send POSIX file "%s" to buddy "%s"`, path, recipient)
}
