package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"corpus-expand/internal/corpus"
)

const DefaultTemperature = 0.7

type Request struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
}

// Provider turns one prompt pair into a tier batch. Implementations make exactly one
// outbound call per Generate and never retry.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (corpus.Corpus, error)
}

// BalanceChecker is implemented by providers that expose an account balance endpoint.
type BalanceChecker interface {
	Balance(ctx context.Context) (string, error)
}

type Options struct {
	Provider string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
}

type factory func(ctx context.Context, opts Options) (Provider, error)

var registry = map[string]factory{
	"openai": func(_ context.Context, opts Options) (Provider, error) {
		return newChatProvider("openai", opts, "/v1/chat/completions", "https://api.openai.com"), nil
	},
	"deepseek": func(_ context.Context, opts Options) (Provider, error) {
		return &deepSeekProvider{chatProvider: newChatProvider("deepseek", opts, "/chat/completions", "https://api.deepseek.com")}, nil
	},
	"claude": func(_ context.Context, opts Options) (Provider, error) {
		return newClaudeProvider(opts), nil
	},
	"gemini": newGeminiProvider,
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Supported lists the registered provider ids in sorted order.
func Supported() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func IsSupported(name string) bool {
	_, ok := registry[normalizeName(name)]
	return ok
}

// New validates the provider id and credentials without touching the network.
func New(ctx context.Context, opts Options) (Provider, error) {
	name := normalizeName(opts.Provider)
	build, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w：%s（可选 %s）", ErrUnsupportedProvider, opts.Provider, strings.Join(Supported(), ", "))
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("%w：%s 缺少 API key", ErrAuth, name)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}
	opts.Provider = name
	return build(ctx, opts)
}
