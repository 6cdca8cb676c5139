package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhoulinyu/imbot/internal/config"
	"github.com/zhoulinyu/imbot/internal/conversation"
	"github.com/zhoulinyu/imbot/internal/llm"
	"github.com/zhoulinyu/imbot/internal/tools"
)

// ask is a one-shot exchange without the engine: useful for trying out a
// provider config before letting it loose on Messages.
func newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <message>",
		Short: "Send one message to the configured provider and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}

			var executor llm.ToolExecutor
			if cfg.ToolsEnabled() {
				executor = tools.NewRegistry(log,
					tools.NewWeather(cfg.Tools.WeatherBaseURL, log),
					tools.NewWebSearch(cfg.Tools.SearchBaseURL, log),
				)
			}

			client, err := llm.NewClient(cfg.Provider, executor, log)
			if err != nil {
				return err
			}

			input := strings.Join(args, " ")
			turns := conversation.Build(nil, input, cfg.Persona.SystemPrompt, time.Now())

			reply, err := client.Chat(cmd.Context(), turns)
			if err != nil {
				return err
			}

			fmt.Println(reply.Text)
			if reply.EmojiKeyword != "" {
				fmt.Printf("(emoji: %s)\n", reply.EmojiKeyword)
			}
			return nil
		},
	}
}
