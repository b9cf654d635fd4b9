package llm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnsupportedProvider = errors.New("不支持的 provider")
	ErrAuth                = errors.New("鉴权失败")
	ErrProvider            = errors.New("provider 调用失败")
	ErrParse               = errors.New("响应解析失败")
)

// StatusError carries a non-2xx HTTP answer. It is always wrapped under ErrAuth or ErrProvider.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

func statusError(code int, body []byte) error {
	se := &StatusError{StatusCode: code, Body: truncate(strings.TrimSpace(string(body)), 800)}
	if code == 401 || code == 403 {
		return fmt.Errorf("%w: %w", ErrAuth, se)
	}
	return fmt.Errorf("%w: %w", ErrProvider, se)
}

// IsRateLimited reports whether err is an HTTP 429 or mentions a rate limit.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) && se.StatusCode == 429 {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "rate limit") || strings.Contains(s, "resource_exhausted")
}
