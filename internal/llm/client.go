package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"corpus-expand/internal/corpus"
)

type httpClient struct {
	http    *http.Client
	apiKey  string
	baseURL string
}

func newHTTPClient(opts Options, defaultBase string) httpClient {
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		base = defaultBase
	}
	return httpClient{
		http:    &http.Client{Timeout: opts.Timeout},
		apiKey:  opts.APIKey,
		baseURL: base,
	}
}

func (c httpClient) doJSON(ctx context.Context, method, endpoint, bearer string, extraHeaders map[string]string, in any, out any) error {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(in); err != nil {
		return fmt.Errorf("%w: 编码请求失败：%w", ErrProvider, err)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, buf)
	if err != nil {
		return fmt.Errorf("%w: 创建请求失败：%w", ErrProvider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(bearer) != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for k, v := range extraHeaders {
		req.Header.Set(k, v)
	}
	return c.do(req, out)
}

func (c httpClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: 请求失败：%w", ErrProvider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: 读取响应失败：%w", ErrProvider, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: 响应信封格式错误：%w; 原始响应: %s", ErrProvider, err, truncate(string(body), 800))
	}
	return nil
}

// chatProvider speaks the OpenAI chat completions protocol.
type chatProvider struct {
	httpClient
	name string
	path string
}

func newChatProvider(name string, opts Options, path, defaultBase string) *chatProvider {
	return &chatProvider{httpClient: newHTTPClient(opts, defaultBase), name: name, path: path}
}

func (p *chatProvider) Name() string { return p.name }

func (p *chatProvider) Generate(ctx context.Context, req Request) (corpus.Corpus, error) {
	payload := map[string]any{
		"model":           req.Model,
		"temperature":     temperature(req),
		"response_format": map[string]string{"type": "json_object"},
		"messages": []map[string]string{
			{"role": "system", "content": req.SystemPrompt},
			{"role": "user", "content": req.UserPrompt},
		},
	}

	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := p.doJSON(ctx, http.MethodPost, joinURL(p.baseURL, p.path), p.apiKey, nil, payload, &resp); err != nil {
		return corpus.Corpus{}, err
	}
	if resp.Error != nil {
		return corpus.Corpus{}, fmt.Errorf("%w: %s chat completions 错误：%s", ErrProvider, p.name, resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return corpus.Corpus{}, fmt.Errorf("%w: %s 没有返回任何候选", ErrParse, p.name)
	}
	return ParseBatch(resp.Choices[0].Message.Content)
}

type claudeProvider struct {
	httpClient
}

func newClaudeProvider(opts Options) *claudeProvider {
	return &claudeProvider{httpClient: newHTTPClient(opts, "https://api.anthropic.com")}
}

func (p *claudeProvider) Name() string { return "claude" }

func (p *claudeProvider) Generate(ctx context.Context, req Request) (corpus.Corpus, error) {
	payload := map[string]any{
		"model":       req.Model,
		"max_tokens":  8192,
		"temperature": temperature(req),
		"system":      req.SystemPrompt,
		"messages": []map[string]string{
			{"role": "user", "content": req.UserPrompt},
		},
	}
	var resp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	headers := map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": "2023-06-01",
	}
	if err := p.doJSON(ctx, http.MethodPost, joinURL(p.baseURL, "/v1/messages"), "", headers, payload, &resp); err != nil {
		return corpus.Corpus{}, err
	}
	if resp.Error != nil {
		return corpus.Corpus{}, fmt.Errorf("%w: claude API 错误：%s", ErrProvider, resp.Error.Message)
	}
	for _, ctn := range resp.Content {
		if strings.TrimSpace(ctn.Text) != "" {
			return ParseBatch(ctn.Text)
		}
	}
	return ParseBatch("")
}

func temperature(req Request) float64 {
	if req.Temperature <= 0 {
		return DefaultTemperature
	}
	return req.Temperature
}

func joinURL(base, path string) string {
	base = strings.TrimSuffix(strings.TrimSpace(base), "/")
	if strings.HasSuffix(base, "/v1") && strings.HasPrefix(path, "/v1/") {
		path = strings.TrimPrefix(path, "/v1")
	}
	if strings.HasPrefix(path, "/") {
		return base + path
	}
	return base + "/" + path
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
