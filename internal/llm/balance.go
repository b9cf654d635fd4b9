package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type deepSeekProvider struct {
	*chatProvider
}

type deepSeekBalanceResponse struct {
	IsAvailable bool                  `json:"is_available"`
	BalanceInfo []deepSeekBalanceInfo `json:"balance_infos"`
	Error       *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// deepSeekBalanceInfo reads amounts as json.Number so both "9.50" and 9.5 decode.
type deepSeekBalanceInfo struct {
	Currency     string      `json:"currency"`
	TotalBalance json.Number `json:"total_balance"`
}

func (p *deepSeekProvider) Balance(ctx context.Context) (string, error) {
	var parsed deepSeekBalanceResponse
	if err := p.doGet(ctx, joinURL(p.baseURL, "/user/balance"), &parsed); err != nil {
		return "", err
	}
	if parsed.Error != nil && strings.TrimSpace(parsed.Error.Message) != "" {
		return "", fmt.Errorf("余额接口错误：%s", strings.TrimSpace(parsed.Error.Message))
	}
	balance := formatDeepSeekBalance(parsed.BalanceInfo)
	if balance == "" {
		return "", fmt.Errorf("余额接口返回为空")
	}
	return balance, nil
}

func (p *deepSeekProvider) doGet(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("创建余额请求失败：%w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	return p.do(req, out)
}

func formatDeepSeekBalance(items []deepSeekBalanceInfo) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if item.TotalBalance == "" {
			continue
		}
		currency := strings.ToUpper(strings.TrimSpace(item.Currency))
		if currency == "" {
			currency = "UNKNOWN"
		}
		parts = append(parts, currency+" "+item.TotalBalance.String())
	}
	return strings.Join(parts, " | ")
}

// FormatBalanceForSummary prefers the CNY amount when several currencies are reported.
func FormatBalanceForSummary(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "查询失败"
	}
	for _, part := range strings.Split(trimmed, "|") {
		fields := strings.Fields(strings.TrimSpace(part))
		if len(fields) >= 2 && strings.EqualFold(fields[0], "CNY") {
			return strings.Join(fields[1:], " ") + " 元"
		}
	}
	return trimmed
}
