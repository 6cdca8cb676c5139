package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhoulinyu/imbot/internal/config"
	"github.com/zhoulinyu/imbot/internal/statusd"
	"github.com/zhoulinyu/imbot/internal/version"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show imbot status and configuration summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("imbot %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Printf("Config:  %s\n", paths.Config)
			fmt.Printf("Data:    %s\n", paths.Data)
			fmt.Printf("Logs:    %s\n", paths.Logs)
			fmt.Println()

			cfg, err := config.Load(paths.Config)
			if err != nil {
				fmt.Printf("Config:  error loading: %v\n", err)
				return nil
			}

			fmt.Printf("Provider: kind=%s model=%s\n", cfg.Provider.Kind, cfg.Provider.Model)
			fmt.Printf("Engine:   trigger=%q poll=%dms history=%d\n",
				cfg.Engine.TriggerPrefix, cfg.Engine.PollIntervalMs, cfg.Engine.HistoryLimit)
			fmt.Printf("Tools:    enabled=%v\n", cfg.ToolsEnabled())
			fmt.Printf("Sticker:  configured=%v probability=%.2f\n",
				cfg.Sticker.APIKey != "", cfg.StickerProbability())

			if cfg.Status.Port > 0 {
				printLiveStatus(cfg.Status.Port)
			} else {
				fmt.Println("Status:   server disabled")
			}

			if issues := config.Validate(&cfg); len(issues) > 0 {
				fmt.Printf("\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Printf("  - %s: %s\n", issue.Path, issue.Message)
				}
			}
			return nil
		},
	}
}

// printLiveStatus asks a running serve process for its engine state.
func printLiveStatus(port int) {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%d/status", port))
	if err != nil {
		fmt.Println("Status:   not running")
		return
	}
	defer resp.Body.Close()

	var snap statusd.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		fmt.Println("Status:   unreadable response")
		return
	}
	fmt.Printf("Status:   %s (cursor=%d, up %s)\n", snap.State, snap.Cursor, snap.Uptime)
}
