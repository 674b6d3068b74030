// Package providers supplies the three concrete Provider implementations:
// a hosted structured-output API, an OpenAI-compatible local server, and a
// native (Ollama-shaped) local server. Each self-registers with
// kgraph.RegisterProvider from its own init().
package providers

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/kgconstruct/kgraph"
)

func init() {
	kgraph.RegisterProvider("hosted", newHostedProvider)
}

// Hosted talks to a hosted structured-output API (Gemini-shaped): it
// requests a JSON MIME type response (spec.md §4.3.1). It sends no response
// schema, so the triple array shape is not enforced by the backend.
// Grounded on the teacher's adapters/gemini_adapter.go and
// original_source's clients/gemini_client.py.
type Hosted struct {
	client *genai.Client
	config kgraph.ClientConfig
	cache  kgraph.Cache
}

func newHostedProvider(config kgraph.ClientConfig) (kgraph.Provider, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("kgraph/providers: failed to create hosted client: %w", err)
	}
	return &Hosted{client: client, config: config}, nil
}

// WithCache attaches an optional response cache, consulted before every
// network call and populated after a successful one.
func (h *Hosted) WithCache(cache kgraph.Cache) *Hosted {
	h.cache = cache
	return h
}

func (h *Hosted) ModelName() string { return h.config.ModelID }

func (h *Hosted) SupportsStructuredOutput() bool { return true }

// Extract runs the extraction prompt for text against the domain's
// exemplars, requesting a JSON-constrained response, and repeats up to
// Config.MaxPasses times (handled by the caller's Extractor, not here —
// this method performs exactly one pass).
func (h *Hosted) Extract(ctx context.Context, record kgraph.Record, domain *kgraph.KnowledgeDomain, mode kgraph.ExtractionMode) ([]kgraph.Triple, error) {
	prompt, err := kgraph.BuildExtractionPromptForRecord(ctx, domain, mode, record)
	if err != nil {
		return nil, err
	}

	payload, err := h.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	normalized, err := kgraph.NormalizePayload(string(payload))
	if err != nil {
		return nil, &kgraph.ProviderError{Provider: "hosted", Op: "extract", Err: err}
	}

	triples, err := kgraph.ParseTripleCandidates(normalized)
	if err != nil {
		return nil, &kgraph.ProviderError{Provider: "hosted", Op: "extract", Err: fmt.Errorf("%w: %v", kgraph.ErrProviderParse, err)}
	}
	return triples, nil
}

// GenerateJSON sends prompt verbatim (used by augmentation strategies) and
// returns the normalized JSON payload.
func (h *Hosted) GenerateJSON(ctx context.Context, prompt string) ([]byte, error) {
	payload, err := h.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	normalized, err := kgraph.NormalizePayload(string(payload))
	if err != nil {
		return nil, &kgraph.ProviderError{Provider: "hosted", Op: "generate_json", Err: err}
	}
	return normalized, nil
}

func (h *Hosted) generate(ctx context.Context, prompt string) ([]byte, error) {
	cacheKey := ""
	if h.cache != nil {
		cacheKey = kgraph.GenerateCacheKey(h.config.ModelID, prompt, h.config.Temperature)
		if cached, ok, err := h.cache.Get(ctx, cacheKey); err == nil && ok {
			return []byte(cached), nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout())
	defer cancel()

	model := h.client.GenerativeModel(h.config.ModelID)
	model.ResponseMIMEType = "application/json"
	if h.config.Temperature > 0 {
		temp := float32(h.config.Temperature)
		if temp > 1.0 {
			temp = 1.0
		}
		model.SetTemperature(temp)
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, &kgraph.ProviderError{Provider: "hosted", Op: "generate_content", Err: fmt.Errorf("%w: %v", kgraph.ErrProviderTransport, err)}
	}

	content := extractText(resp)
	if h.cache != nil {
		_ = h.cache.Set(ctx, cacheKey, content, 0)
	}
	return []byte(content), nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var out string
	if len(resp.Candidates) == 0 {
		return out
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			out += string(txt)
		}
	}
	return out
}

// extractStream is unused directly by Extract/GenerateJSON (both are
// synchronous per spec.md §4.3's interface), but kept available for
// callers that want incremental output while a hosted model streams a
// long chunk's extraction back; mirrors the teacher's Stream method shape.
func (h *Hosted) extractStream(ctx context.Context, prompt string, onChunk func(string)) (string, error) {
	model := h.client.GenerativeModel(h.config.ModelID)
	model.ResponseMIMEType = "application/json"

	iter := model.GenerateContentStream(ctx, genai.Text(prompt))
	var full string
	for {
		chunk, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", kgraph.ErrProviderTransport, err)
		}
		if len(chunk.Candidates) == 0 {
			continue
		}
		for _, part := range chunk.Candidates[0].Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				full += string(txt)
				if onChunk != nil {
					onChunk(string(txt))
				}
			}
		}
	}
	return full, nil
}

// Close releases the underlying client connection.
func (h *Hosted) Close() error {
	if h.client == nil {
		return nil
	}
	return h.client.Close()
}
