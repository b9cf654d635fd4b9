package config

import (
	"fmt"
	"strings"

	"corpus-expand/internal/corpus"
)

type Config struct {
	Provider          string                    `yaml:"provider"`
	Model             string                    `yaml:"model"`
	Target            int                       `yaml:"target"`
	PerCall           int                       `yaml:"per_call"`
	MinPerCall        int                       `yaml:"min_per_call"`
	GiveUpAfter       int                       `yaml:"give_up_after"`
	ForbiddenCap      int                       `yaml:"forbidden_cap"`
	CallDelayMS       int                       `yaml:"call_delay_ms"`
	MaxRetries        int                       `yaml:"max_retries"`
	RequestTimeoutSec int                       `yaml:"request_timeout_sec"`
	Temperature       float64                   `yaml:"temperature"`
	EnvFile           string                    `yaml:"env_file"`
	Languages         []string                  `yaml:"languages"`
	Corpus            CorpusConfig              `yaml:"corpus"`
	Providers         map[string]ProviderConfig `yaml:"providers"`
}

type CorpusConfig struct {
	ZH string `yaml:"zh"`
	EN string `yaml:"en"`
}

type ProviderConfig struct {
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
}

type Paths struct {
	HomeDir      string
	ConfigSource string
	EnvPath      string
	CorpusPaths  map[corpus.Language]string
}

var builtinProviders = map[string]ProviderConfig{
	"openai":   {BaseURL: "https://api.openai.com", Model: "gpt-4.1-mini", APIKeyEnv: "OPENAI_API_KEY"},
	"deepseek": {BaseURL: "https://api.deepseek.com", Model: "deepseek-chat", APIKeyEnv: "DEEPSEEK_API_KEY"},
	"gemini":   {Model: "gemini-2.5-flash", APIKeyEnv: "GEMINI_API_KEY"},
	"claude":   {BaseURL: "https://api.anthropic.com", Model: "claude-3-5-haiku-latest", APIKeyEnv: "ANTHROPIC_API_KEY"},
}

func (c *Config) applyDefaults() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = "openai"
	}
	if c.Target < 0 {
		c.Target = 0
	}
	if c.PerCall <= 0 {
		c.PerCall = 100
	}
	if c.MinPerCall <= 0 {
		c.MinPerCall = 1
	}
	if c.MinPerCall > c.PerCall {
		c.MinPerCall = c.PerCall
	}
	if c.GiveUpAfter <= 0 {
		c.GiveUpAfter = 1
	}
	if c.ForbiddenCap <= 0 {
		c.ForbiddenCap = 500
	}
	if c.CallDelayMS < 0 {
		c.CallDelayMS = 0
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RequestTimeoutSec <= 0 {
		c.RequestTimeoutSec = 120
	}
	if c.Temperature <= 0 {
		c.Temperature = 0.7
	}
	if strings.TrimSpace(c.EnvFile) == "" {
		c.EnvFile = ".env"
	}
	if len(c.Languages) == 0 {
		c.Languages = []string{string(corpus.Chinese), string(corpus.English)}
	}
	if strings.TrimSpace(c.Corpus.ZH) == "" {
		c.Corpus.ZH = "HearCoachPlus/Corpus/chinese_corpus.json"
	}
	if strings.TrimSpace(c.Corpus.EN) == "" {
		c.Corpus.EN = "HearCoachPlus/Corpus/english_corpus.json"
	}
	if c.Providers == nil {
		c.Providers = map[string]ProviderConfig{}
	}
	for name, def := range builtinProviders {
		pc := c.Providers[name]
		if strings.TrimSpace(pc.BaseURL) == "" {
			pc.BaseURL = def.BaseURL
		}
		if strings.TrimSpace(pc.Model) == "" {
			pc.Model = def.Model
		}
		if strings.TrimSpace(pc.APIKeyEnv) == "" {
			pc.APIKeyEnv = def.APIKeyEnv
		}
		c.Providers[name] = pc
	}
}

// ActiveProvider returns the settings of c.Provider.
func (c *Config) ActiveProvider() (ProviderConfig, error) {
	pc, ok := c.Providers[c.Provider]
	if !ok {
		return ProviderConfig{}, fmt.Errorf("配置中不存在 provider：%s", c.Provider)
	}
	return pc, nil
}

// ResolvedModel prefers the top-level model override over the provider default.
func (c *Config) ResolvedModel() string {
	if m := strings.TrimSpace(c.Model); m != "" {
		return m
	}
	pc, err := c.ActiveProvider()
	if err != nil {
		return ""
	}
	return pc.Model
}

func (c *Config) Validate() error {
	if c.Target < 0 {
		return fmt.Errorf("target 不能为负数：%d", c.Target)
	}
	if c.PerCall < 1 {
		return fmt.Errorf("per_call 必须大于 0：%d", c.PerCall)
	}
	if _, err := corpus.ParseLanguages(c.Languages); err != nil {
		return err
	}
	return nil
}
