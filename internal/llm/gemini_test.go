package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestClassifyGeminiError(t *testing.T) {
	err := classifyGeminiError(genai.APIError{Code: 401, Message: "API key not valid"})
	assert.True(t, errors.Is(err, ErrAuth))

	err = classifyGeminiError(genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"})
	assert.True(t, errors.Is(err, ErrProvider))
	assert.True(t, IsRateLimited(err))

	err = classifyGeminiError(errors.New("dial tcp: refused"))
	assert.True(t, errors.Is(err, ErrProvider))
}

func TestNewGeminiProvider(t *testing.T) {
	p, err := New(context.Background(), Options{Provider: "gemini", APIKey: "g", BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)
	assert.Equal(t, "gemini", p.Name())
}
