package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	pipeerrors "github.com/atelierhq/atelier/internal/errors"
)

const (
	defaultMaxRetries  = 3
	defaultTimeout     = 30 * time.Second
	embeddingRateLimit = 10 // requests per second against the embedding endpoint
)

// Provider implements EmbeddingService and LLMService over any
// OpenAI-compatible endpoint (OpenAI, DeepSeek, SiliconFlow, Ollama).
type Provider struct {
	embClient  *openai.Client
	llmClient  *openai.Client
	config     *Config
	maxRetries int
	limiter    *rate.Limiter
}

// NewProvider creates a provider from the AI config.
func NewProvider(cfg *Config) (*Provider, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Provider{
		embClient:  newClient(cfg.Embedding.APIKey, cfg.Embedding.BaseURL),
		llmClient:  newClient(cfg.LLM.APIKey, cfg.LLM.BaseURL),
		config:     cfg,
		maxRetries: defaultMaxRetries,
		limiter:    rate.NewLimiter(rate.Limit(embeddingRateLimit), embeddingRateLimit),
	}, nil
}

func newClient(apiKey, baseURL string) *openai.Client {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(clientConfig)
}

// Embed generates an embedding vector for the given text.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embedding vectors for multiple texts in one
// request, preserving input order.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var result [][]float32
	err := p.doWithRetry(ctx, func() error {
		req := openai.EmbeddingRequest{
			Input: texts,
			Model: openai.EmbeddingModel(p.config.Embedding.Model),
		}

		resp, err := p.embClient.CreateEmbeddings(ctx, req)
		if err != nil {
			return pipeerrors.ClassifyProviderError(err)
		}
		if len(resp.Data) != len(texts) {
			return pipeerrors.Transient(
				fmt.Sprintf("embedding response size mismatch: want %d, got %d", len(texts), len(resp.Data)), nil)
		}

		result = make([][]float32, len(texts))
		for _, item := range resp.Data {
			result[item.Index] = item.Embedding
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Chat performs a chat completion.
func (p *Provider) Chat(ctx context.Context, messages []Message) (string, error) {
	var result string
	err := p.doWithRetry(ctx, func() error {
		resp, err := p.llmClient.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       p.config.LLM.Model,
			Messages:    convertMessages(messages),
			MaxTokens:   p.config.LLM.MaxTokens,
			Temperature: p.config.LLM.Temperature,
		})
		if err != nil {
			return pipeerrors.ClassifyProviderError(err)
		}
		if len(resp.Choices) == 0 {
			return pipeerrors.Transient("empty chat response", nil)
		}
		result = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", err
	}
	return result, nil
}

// ChatStream performs a streaming chat completion. Opening the stream is
// retried; once chunks are flowing, a mid-stream failure is surfaced on
// the error channel without retry.
func (p *Provider) ChatStream(ctx context.Context, messages []Message) (<-chan string, <-chan error) {
	contentChan := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		defer close(contentChan)
		defer close(errChan)

		var stream *openai.ChatCompletionStream
		err := p.doWithRetry(ctx, func() error {
			var openErr error
			stream, openErr = p.llmClient.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
				Model:       p.config.LLM.Model,
				Messages:    convertMessages(messages),
				MaxTokens:   p.config.LLM.MaxTokens,
				Temperature: p.config.LLM.Temperature,
				Stream:      true,
			})
			if openErr != nil {
				return pipeerrors.ClassifyProviderError(openErr)
			}
			return nil
		})
		if err != nil {
			errChan <- err
			return
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				errChan <- pipeerrors.ClassifyProviderError(err)
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			select {
			case contentChan <- resp.Choices[0].Delta.Content:
			case <-ctx.Done():
				return
			}
		}
	}()

	return contentChan, errChan
}

// doWithRetry executes a function with exponential backoff.
// Non-retryable errors (auth, invalid argument) abort immediately.
func (p *Provider) doWithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < p.maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !pipeerrors.IsRetryable(err) {
			return err
		}
		if attempt < p.maxRetries-1 {
			waitTime := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			slog.Debug("provider request failed, retrying",
				"attempt", attempt+1,
				"wait_time", waitTime,
				"error", err)
			select {
			case <-time.After(waitTime):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}

func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		}
	}
	return out
}

// Ensure Provider implements both service interfaces.
var (
	_ EmbeddingService = (*Provider)(nil)
	_ LLMService       = (*Provider)(nil)
)
