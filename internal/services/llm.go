package services

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/sirupsen/logrus"
)

// ErrModelUnavailable wraps failures of the language-model backend. The
// dialogue layer turns it into an apology reply; no retry is attempted.
var ErrModelUnavailable = errors.New("language model unavailable")

// CompletionService is the contract for the language-model backend: a plain
// text completion for a prompt at a given temperature. The output is
// best-effort free text; callers must tolerate malformed responses.
type CompletionService interface {
	Complete(ctx context.Context, prompt string, temperature float64) (string, error)
}

// CompletionFunc adapts a function to the CompletionService interface
type CompletionFunc func(ctx context.Context, prompt string, temperature float64) (string, error)

// Complete calls f
func (f CompletionFunc) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	return f(ctx, prompt, temperature)
}

const defaultModel = "llama3"

// LLMService talks to an OpenAI-compatible chat completions endpoint.
// Pointing LLM_BASE_URL at an Ollama server's /v1 path works as well.
type LLMService struct {
	client openai.Client
	model  string
	logger *logrus.Logger
}

// NewLLMService creates an LLM service from environment configuration
func NewLLMService(logger *logrus.Logger) *LLMService {
	model := os.Getenv("LLM_MODEL")
	if model == "" {
		model = defaultModel
	}

	var opts []option.RequestOption
	if baseURL := os.Getenv("LLM_BASE_URL"); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if apiKey := os.Getenv("LLM_API_KEY"); apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	return &LLMService{
		client: openai.NewClient(opts...),
		model:  model,
		logger: logger,
	}
}

// Complete sends a single-prompt chat completion request
func (l *LLMService) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: l.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if temperature > 0 {
		params.Temperature = openai.Float(temperature)
	}

	resp, err := l.client.Chat.Completions.New(ctx, params)
	if err != nil {
		l.logger.WithError(err).Warn("completion request failed")
		return "", fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no completions returned", ErrModelUnavailable)
	}

	return resp.Choices[0].Message.Content, nil
}
