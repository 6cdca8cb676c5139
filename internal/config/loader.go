package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields processes environment variable references in
// credential fields so API keys can be stored as ${ENV_VAR}.
func expandSensitiveFields(cfg *Config) {
	cfg.Provider.APIKey = expandEnvVars(cfg.Provider.APIKey)
	cfg.Sticker.APIKey = expandEnvVars(cfg.Sticker.APIKey)
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// LoadRaw reads the config file into a generic map for path-based access.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	return raw, nil
}

// SaveRaw writes a generic map back to a YAML config file.
func SaveRaw(path string, raw map[string]any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// applyDefaults fills zero-value fields with sensible defaults. Runs after
// unmarshalling because yaml replaces whole structs, not individual fields.
func applyDefaults(cfg *Config) {
	if cfg.Engine.TriggerPrefix == "" {
		cfg.Engine.TriggerPrefix = "."
	}
	if cfg.Engine.PollIntervalMs == 0 {
		cfg.Engine.PollIntervalMs = 2000
	}
	if cfg.Engine.HistoryLimit == 0 {
		cfg.Engine.HistoryLimit = 10
	}
	if cfg.Engine.SegmentDelayMinMs == 0 {
		cfg.Engine.SegmentDelayMinMs = 2000
	}
	if cfg.Engine.SegmentDelayMaxMs == 0 {
		cfg.Engine.SegmentDelayMaxMs = 3000
	}
	if cfg.Engine.SendSettleTimeoutMs == 0 {
		cfg.Engine.SendSettleTimeoutMs = 3000
	}
	if cfg.Persona.SystemPrompt == "" {
		cfg.Persona.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.Tools.WeatherBaseURL == "" {
		cfg.Tools.WeatherBaseURL = "https://uapis.cn/api/v1/misc/weather"
	}
	if cfg.Tools.SearchBaseURL == "" {
		cfg.Tools.SearchBaseURL = "https://uapis.cn/api/v1/search/aggregate"
	}
	if cfg.Sticker.BaseURL == "" {
		cfg.Sticker.BaseURL = "https://api.yaohud.cn/api/v5/bqzhizuo"
	}
	if cfg.Sticker.Probability == nil {
		p := 0.3
		cfg.Sticker.Probability = &p
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = "pretty"
	}
}

// applyEnvOverrides reads IMBOT_* environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("IMBOT_PROVIDER"); v != "" {
		cfg.Provider.Kind = strings.ToLower(v)
	}
	if v := os.Getenv("IMBOT_API_KEY"); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := os.Getenv("IMBOT_MODEL"); v != "" {
		cfg.Provider.Model = v
	}
	if v := os.Getenv("IMBOT_DB_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("IMBOT_STATUS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Status.Port = port
		}
	}
	if v := os.Getenv("IMBOT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
}
