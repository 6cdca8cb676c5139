package config

// Config is the root configuration for imbot. One immutable snapshot is
// taken per engine start; changing values requires a restart.
type Config struct {
	Provider ProviderConfig `yaml:"provider"`
	Engine   EngineConfig   `yaml:"engine,omitempty"`
	Persona  PersonaConfig  `yaml:"persona,omitempty"`
	Tools    ToolsConfig    `yaml:"tools,omitempty"`
	Sticker  StickerConfig  `yaml:"sticker,omitempty"`
	Store    StoreConfig    `yaml:"store,omitempty"`
	Status   StatusConfig   `yaml:"status,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
	Hooks    HooksConfig    `yaml:"hooks,omitempty"`
}

// ProviderConfig selects the LLM backend.
type ProviderConfig struct {
	Kind    string `yaml:"kind"`              // "openai" | "volcengine" | "ollama"
	BaseURL string `yaml:"baseUrl,omitempty"` // endpoint root; /chat/completions or /api/chat is appended when missing
	APIKey  string `yaml:"apiKey,omitempty"`  // supports ${ENV_VAR} expansion
	Model   string `yaml:"model"`
}

// EngineConfig controls the polling loop and reply pacing.
type EngineConfig struct {
	TriggerPrefix       string `yaml:"triggerPrefix,omitempty"`       // default "."
	PollIntervalMs      int    `yaml:"pollIntervalMs,omitempty"`      // default 2000
	HistoryLimit        int    `yaml:"historyLimit,omitempty"`        // default 10
	SegmentDelayMinMs   int    `yaml:"segmentDelayMinMs,omitempty"`   // default 2000
	SegmentDelayMaxMs   int    `yaml:"segmentDelayMaxMs,omitempty"`   // default 3000
	SendSettleTimeoutMs int    `yaml:"sendSettleTimeoutMs,omitempty"` // default 3000; how long to wait for an outbound message to appear in the store
}

// PersonaConfig holds the persona system prompt. The structured-output
// format instruction is appended automatically and is not configurable.
type PersonaConfig struct {
	SystemPrompt string `yaml:"systemPrompt,omitempty"`
}

// ToolsConfig controls function-calling tools.
type ToolsConfig struct {
	Enabled        *bool  `yaml:"enabled,omitempty"`        // default true
	WeatherBaseURL string `yaml:"weatherBaseUrl,omitempty"` // default uapis.cn weather endpoint
	SearchBaseURL  string `yaml:"searchBaseUrl,omitempty"`  // default uapis.cn aggregate search endpoint
}

// StickerConfig controls the probabilistic reaction-sticker follow-up.
type StickerConfig struct {
	APIKey      string   `yaml:"apiKey,omitempty"`
	BaseURL     string   `yaml:"baseUrl,omitempty"`
	Probability *float64 `yaml:"probability,omitempty"` // 0..1, default 0.3
}

// StoreConfig locates the Messages database.
type StoreConfig struct {
	Path string `yaml:"path,omitempty"` // default ~/Library/Messages/chat.db
}

// StatusConfig controls the loopback status/log server.
type StatusConfig struct {
	Port int `yaml:"port,omitempty"` // 0 disables the server
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"`        // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "json"
}

// HooksConfig binds shell commands to engine lifecycle events.
type HooksConfig struct {
	EngineStart      []HookEntry `yaml:"engineStart,omitempty"`
	EngineStop       []HookEntry `yaml:"engineStop,omitempty"`
	MessageReceived  []HookEntry `yaml:"messageReceived,omitempty"`
	ReplySending     []HookEntry `yaml:"replySending,omitempty"`
	ReplySent        []HookEntry `yaml:"replySent,omitempty"`
	ReplyInterrupted []HookEntry `yaml:"replyInterrupted,omitempty"`
}

// HookEntry defines a single hook action.
type HookEntry struct {
	Command string `yaml:"command"`
	Timeout int    `yaml:"timeout,omitempty"` // milliseconds
}
