package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.Provider.Kind = "openai"
	cfg.Provider.APIKey = "sk-test"
	cfg.Provider.Model = "gpt-4o"
	return cfg
}

func issuePaths(issues []ValidationIssue) []string {
	paths := make([]string, 0, len(issues))
	for _, i := range issues {
		paths = append(paths, i.Path)
	}
	return paths
}

func TestValidateOK(t *testing.T) {
	cfg := validConfig()
	assert.Empty(t, Validate(&cfg))
}

func TestValidateUnknownProviderKind(t *testing.T) {
	cfg := validConfig()
	cfg.Provider.Kind = "bard"
	assert.Contains(t, issuePaths(Validate(&cfg)), "provider.kind")
}

func TestValidateMissingAPIKey(t *testing.T) {
	cfg := validConfig()
	cfg.Provider.APIKey = ""
	assert.Contains(t, issuePaths(Validate(&cfg)), "provider.apiKey")
}

func TestValidateOllamaNeedsNoKey(t *testing.T) {
	cfg := validConfig()
	cfg.Provider.Kind = "ollama"
	cfg.Provider.APIKey = ""
	assert.Empty(t, Validate(&cfg))
}

func TestValidateMissingModel(t *testing.T) {
	cfg := validConfig()
	cfg.Provider.Model = ""
	assert.Contains(t, issuePaths(Validate(&cfg)), "provider.model")
}

func TestValidateEmptyTriggerPrefix(t *testing.T) {
	cfg := validConfig()
	cfg.Engine.TriggerPrefix = ""
	assert.Contains(t, issuePaths(Validate(&cfg)), "engine.triggerPrefix")
}

func TestValidatePollIntervalTooShort(t *testing.T) {
	cfg := validConfig()
	cfg.Engine.PollIntervalMs = 100
	assert.Contains(t, issuePaths(Validate(&cfg)), "engine.pollIntervalMs")
}

func TestValidateSegmentDelayOrder(t *testing.T) {
	cfg := validConfig()
	cfg.Engine.SegmentDelayMinMs = 5000
	cfg.Engine.SegmentDelayMaxMs = 3000
	assert.Contains(t, issuePaths(Validate(&cfg)), "engine.segmentDelayMinMs")
}

func TestValidateStickerProbabilityRange(t *testing.T) {
	cfg := validConfig()
	p := 1.5
	cfg.Sticker.Probability = &p
	assert.Contains(t, issuePaths(Validate(&cfg)), "sticker.probability")
}

func TestValidateLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "verbose"
	assert.Contains(t, issuePaths(Validate(&cfg)), "logging.level")
}

func TestValidationIssueString(t *testing.T) {
	issue := ValidationIssue{Path: "provider.model", Message: "model is required"}
	assert.Equal(t, "provider.model: model is required", issue.String())
}
