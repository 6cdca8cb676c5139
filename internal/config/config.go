// Package config loads, validates, and resolves imbot configuration.
package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// DefaultSystemPrompt is the persona used when none is configured.
const DefaultSystemPrompt = `你是对话人的好朋友，在 iMessage 上和对方聊天。
表达风格：
1. 模仿真人聊天，站在第一人称角度对话，回复简洁幽默，保持短对话。
2. 严禁输出动作描述，不要出现括号包裹的动作描写。
3. 通过文字内容和语气表达情感，结尾偶尔带一个 emoji。`

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	p := 0.3
	return Config{
		Provider: ProviderConfig{
			Kind: "openai",
		},
		Engine: EngineConfig{
			TriggerPrefix:       ".",
			PollIntervalMs:      2000,
			HistoryLimit:        10,
			SegmentDelayMinMs:   2000,
			SegmentDelayMaxMs:   3000,
			SendSettleTimeoutMs: 3000,
		},
		Persona: PersonaConfig{
			SystemPrompt: DefaultSystemPrompt,
		},
		Tools: ToolsConfig{
			WeatherBaseURL: "https://uapis.cn/api/v1/misc/weather",
			SearchBaseURL:  "https://uapis.cn/api/v1/search/aggregate",
		},
		Sticker: StickerConfig{
			BaseURL:     "https://api.yaohud.cn/api/v5/bqzhizuo",
			Probability: &p,
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
	}
}

// ToolsEnabled reports whether function-calling tools are active.
func (c *Config) ToolsEnabled() bool {
	if c.Tools.Enabled == nil {
		return true
	}
	return *c.Tools.Enabled
}

// StickerProbability returns the configured sticker follow-up chance.
func (c *Config) StickerProbability() float64 {
	if c.Sticker.Probability == nil {
		return 0.3
	}
	return *c.Sticker.Probability
}
