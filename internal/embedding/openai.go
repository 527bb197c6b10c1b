package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/arxivmind/arxivmind/pkg/utils"
)

const (
	openaiMaxRetries  = 3
	openaiBaseBackoff = 500 * time.Millisecond
	openaiMaxBackoff  = 8 * time.Second
	// Per-attempt bound so a stalled backend fails instead of hanging.
	openaiCallTimeout = 30 * time.Second
)

// OpenAIEmbedder produces embeddings via the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	dimensions int
	maxChars   int
	timeout    time.Duration
}

// NewOpenAIEmbedder creates an embedder backed by the given model.
// dimensions requests a reduced embedding size from models that support it
// (text-embedding-3-small and later). maxChars caps the input length sent
// per text; 0 uses a safe default.
func NewOpenAIEmbedder(apiKey, baseURL, model string, dimensions, maxChars int) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	if dimensions <= 0 {
		dimensions = 384
	}
	if maxChars <= 0 {
		maxChars = 32000
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(cfg),
		model:      model,
		dimensions: dimensions,
		maxChars:   maxChars,
		timeout:    openaiCallTimeout,
	}, nil
}

// Embed returns the embedding for text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embs[0], nil
}

// EmbedBatch embeds all texts in a single API call, retrying transient
// failures with exponential backoff.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	inputs := make([]string, len(texts))
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, ErrEmptyText
		}
		inputs[i] = utils.TruncateRunes(text, e.maxChars)
	}

	req := openai.EmbeddingRequestStrings{
		Input:      inputs,
		Model:      openai.EmbeddingModel(e.model),
		Dimensions: e.dimensions,
	}

	var resp openai.EmbeddingResponse
	var err error
	for attempt := 0; attempt < openaiMaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(utils.Backoff(attempt-1, openaiBaseBackoff, openaiMaxBackoff)):
			}
		}
		attemptCtx, cancel := context.WithTimeout(ctx, e.timeout)
		resp, err = e.client.CreateEmbeddings(attemptCtx, req)
		cancel()
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(inputs) {
		return nil, fmt.Errorf("embedding response size mismatch: got %d, expected %d", len(resp.Data), len(inputs))
	}

	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		if len(d.Embedding) != e.dimensions {
			return nil, fmt.Errorf("embedding dimension mismatch: got %d, expected %d", len(d.Embedding), e.dimensions)
		}
		out[i] = d.Embedding
	}
	return out, nil
}

// Dimensions returns the embedding dimension.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for OpenAIEmbedder.
func (e *OpenAIEmbedder) Close() error {
	return nil
}
