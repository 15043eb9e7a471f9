package ai

import "context"

// Message represents a chat message.
type Message struct {
	Role    string // system, user, assistant
	Content string
}

// EmbeddingService is the embedding provider interface.
// Embeddings must be idempotent per text.
type EmbeddingService interface {
	// Embed generates an embedding vector for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embedding vectors for multiple texts,
	// preserving order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// LLMService is the chat-completion provider interface.
type LLMService interface {
	// Chat performs synchronous chat completion.
	Chat(ctx context.Context, messages []Message) (string, error)

	// ChatStream performs streaming chat completion. The content channel
	// is closed when the stream completes; a terminal failure is sent on
	// the error channel. A consumer may stop reading at any time by
	// cancelling ctx.
	ChatStream(ctx context.Context, messages []Message) (<-chan string, <-chan error)
}

// SystemPrompt creates a system message.
func SystemPrompt(content string) Message {
	return Message{Role: "system", Content: content}
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}

// FormatMessages assembles the message list for a completion call.
func FormatMessages(systemPrompt string, userContent string, history []Message) []Message {
	messages := []Message{}
	if systemPrompt != "" {
		messages = append(messages, SystemPrompt(systemPrompt))
	}
	messages = append(messages, history...)
	messages = append(messages, UserMessage(userContent))
	return messages
}
