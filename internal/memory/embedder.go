package memory

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"github.com/go-resty/resty/v2"

	"tradedesk/internal/config"
)

// Embedder turns text into a fixed-length vector. It is an external
// capability; the store itself only indexes and compares vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// OpenAIEmbedder calls an OpenAI-compatible /embeddings endpoint.
type OpenAIEmbedder struct {
	client *resty.Client
	model  string
}

func NewOpenAIEmbedder(cfg *config.Config) *OpenAIEmbedder {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.EmbeddingBackendURL, "/")).
		SetAuthToken(cfg.EmbeddingAPIKey).
		SetHeader("Content-Type", "application/json")

	return &OpenAIEmbedder{
		client: client,
		model:  cfg.EmbeddingModel,
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	var result struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}

	resp, err := e.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"model": e.model, "input": text}).
		SetResult(&result).
		Post("/embeddings")
	if err != nil {
		return nil, fmt.Errorf("embeddings request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("embeddings request: status %d: %s", resp.StatusCode(), resp.String())
	}
	if len(result.Data) == 0 || len(result.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embeddings request: empty response")
	}
	return result.Data[0].Embedding, nil
}

// hashDim is the vector length of the offline embedder.
const hashDim = 256

// HashEmbedder is a deterministic offline fallback: tokens are hashed into
// a fixed-length bag-of-words vector, L2-normalized. Quality is far below a
// real embedding model, but it keeps queries reproducible without network
// access.
type HashEmbedder struct{}

func NewHashEmbedder() *HashEmbedder {
	return &HashEmbedder{}
}

func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, hashDim)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.Trim(tok, ".,;:!?\"'()")))
		vec[h.Sum32()%hashDim]++
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec, nil
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec, nil
}
