package config

import (
	"fmt"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	// Provider validation
	validKinds := []string{"openai", "volcengine", "ollama"}
	if !slices.Contains(validKinds, cfg.Provider.Kind) {
		issues = append(issues, ValidationIssue{
			Path:    "provider.kind",
			Message: fmt.Sprintf("must be one of %v, got %q", validKinds, cfg.Provider.Kind),
		})
	}
	if cfg.Provider.Kind != "ollama" && cfg.Provider.APIKey == "" {
		issues = append(issues, ValidationIssue{
			Path:    "provider.apiKey",
			Message: fmt.Sprintf("required for provider %q", cfg.Provider.Kind),
		})
	}
	if cfg.Provider.Model == "" {
		issues = append(issues, ValidationIssue{
			Path:    "provider.model",
			Message: "model is required",
		})
	}

	// Engine validation
	if cfg.Engine.TriggerPrefix == "" {
		issues = append(issues, ValidationIssue{
			Path:    "engine.triggerPrefix",
			Message: "trigger prefix must not be empty",
		})
	}
	if cfg.Engine.PollIntervalMs < 500 {
		issues = append(issues, ValidationIssue{
			Path:    "engine.pollIntervalMs",
			Message: fmt.Sprintf("must be at least 500, got %d", cfg.Engine.PollIntervalMs),
		})
	}
	if cfg.Engine.HistoryLimit < 1 {
		issues = append(issues, ValidationIssue{
			Path:    "engine.historyLimit",
			Message: fmt.Sprintf("must be at least 1, got %d", cfg.Engine.HistoryLimit),
		})
	}
	if cfg.Engine.SegmentDelayMinMs > cfg.Engine.SegmentDelayMaxMs {
		issues = append(issues, ValidationIssue{
			Path:    "engine.segmentDelayMinMs",
			Message: fmt.Sprintf("min delay %d exceeds max delay %d",
				cfg.Engine.SegmentDelayMinMs, cfg.Engine.SegmentDelayMaxMs),
		})
	}

	// Sticker validation
	if p := cfg.Sticker.Probability; p != nil && (*p < 0 || *p > 1) {
		issues = append(issues, ValidationIssue{
			Path:    "sticker.probability",
			Message: fmt.Sprintf("must be in [0,1], got %g", *p),
		})
	}

	// Status validation
	if cfg.Status.Port < 0 || cfg.Status.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "status.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Status.Port),
		})
	}

	// Logging validation
	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}
	validConsoleStyles := []string{"pretty", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.consoleStyle",
			Message: fmt.Sprintf("must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle),
		})
	}

	return issues
}
