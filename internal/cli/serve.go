package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zhoulinyu/imbot/internal/config"
	"github.com/zhoulinyu/imbot/internal/engine"
	"github.com/zhoulinyu/imbot/internal/hooks"
	"github.com/zhoulinyu/imbot/internal/llm"
	"github.com/zhoulinyu/imbot/internal/logging"
	"github.com/zhoulinyu/imbot/internal/msgstore"
	"github.com/zhoulinyu/imbot/internal/send"
	"github.com/zhoulinyu/imbot/internal/statusd"
	"github.com/zhoulinyu/imbot/internal/sticker"
	"github.com/zhoulinyu/imbot/internal/tools"
	"github.com/zhoulinyu/imbot/internal/version"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return err
	}
	if issues := config.Validate(&cfg); len(issues) > 0 {
		for _, issue := range issues {
			log.Error().Str("path", issue.Path).Msg(issue.Message)
		}
		return fmt.Errorf("invalid configuration (%d issues)", len(issues))
	}
	if err := paths.EnsureDirs(); err != nil {
		return err
	}

	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	broadcaster := logging.NewBroadcaster()
	log = logging.NewTee(broadcaster, level, cfg.Logging.ConsoleStyle)

	hm := hooks.NewManager(log)
	hooks.RegisterShellHooks(hm, cfg.Hooks)

	dbPath := cfg.Store.Path
	if dbPath == "" {
		dbPath = config.DefaultChatDBPath()
	}
	store := msgstore.New(dbPath, log)

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

	var stickers engine.StickerFetcher
	if cfg.Sticker.APIKey != "" {
		stickers = sticker.NewFetcher(cfg.Sticker.BaseURL, cfg.Sticker.APIKey, log)
	}

	eng := engine.New(&cfg, store, client, send.NewIMessage(log), stickers, hm, log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := eng.Start(); err != nil {
		return err
	}

	if cfg.Status.Port > 0 {
		srv := statusd.New(cfg.Status.Port, func() statusd.Snapshot {
			return statusd.Snapshot{
				State:   eng.State().String(),
				Cursor:  eng.Cursor(),
				Version: version.Version,
			}
		}, broadcaster, log)
		if err := srv.Start(ctx); err != nil {
			eng.Stop()
			return err
		}
	}

	log.Info().Str("trigger", cfg.Engine.TriggerPrefix).Msg("imbot running, ctrl-c to stop")
	<-ctx.Done()
	eng.Stop()
	return nil
}
