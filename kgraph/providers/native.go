package providers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/kgconstruct/kgraph"
)

func init() {
	kgraph.RegisterProvider("native", newNativeProvider)
}

const defaultNativeBaseURL = "http://localhost:11434"

// Native talks directly to an Ollama-shaped /api/generate server over
// net/http — no SDK in the corpus covers this wire format. It never
// requests schema-constrained output (ollama_client.py's
// use_schema_constraints=False) and relies entirely on
// kgraph.NormalizePayload for tolerant extraction (spec.md §4.3.3).
// Grounded on original_source's clients/ollama_client.py.
type Native struct {
	httpClient *http.Client
	baseURL    string
	config     kgraph.ClientConfig
}

func newNativeProvider(config kgraph.ClientConfig) (kgraph.Provider, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultNativeBaseURL
	}
	return &Native{
		httpClient: &http.Client{Timeout: config.Timeout()},
		baseURL:    baseURL,
		config:     config,
	}, nil
}

func (n *Native) ModelName() string { return n.config.ModelID }

func (n *Native) SupportsStructuredOutput() bool { return false }

func (n *Native) Extract(ctx context.Context, record kgraph.Record, domain *kgraph.KnowledgeDomain, mode kgraph.ExtractionMode) ([]kgraph.Triple, error) {
	prompt, err := kgraph.BuildExtractionPromptForRecord(ctx, domain, mode, record)
	if err != nil {
		return nil, err
	}
	normalized, err := n.generateNormalized(ctx, prompt)
	if err != nil {
		return nil, err
	}

	triples, err := kgraph.ParseTripleCandidates(normalized)
	if err != nil {
		return nil, &kgraph.ProviderError{Provider: "native", Op: "extract", Err: fmt.Errorf("%w: %v", kgraph.ErrProviderParse, err)}
	}
	return triples, nil
}

func (n *Native) GenerateJSON(ctx context.Context, prompt string) ([]byte, error) {
	return n.generateNormalized(ctx, prompt)
}

func (n *Native) generateNormalized(ctx context.Context, prompt string) ([]byte, error) {
	raw, err := n.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	normalized, err := kgraph.NormalizePayload(raw)
	if err != nil {
		return nil, &kgraph.ProviderError{Provider: "native", Op: "normalize", Err: err}
	}
	return normalized, nil
}

// generate issues a single /api/generate request and returns the model's
// raw "response" text field. Request body is built with sjson rather than
// a struct, since the only fields that vary are a handful of top-level
// scalars and this avoids a throwaway marshal type for a one-shot request.
func (n *Native) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, n.config.Timeout())
	defer cancel()

	body := "{}"
	body, _ = sjson.Set(body, "model", n.config.ModelID)
	body, _ = sjson.Set(body, "prompt", prompt)
	body, _ = sjson.Set(body, "stream", false)
	body, _ = sjson.Set(body, "format", "json")
	if n.config.Temperature > 0 {
		body, _ = sjson.Set(body, "options.temperature", n.config.Temperature)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/api/generate", bytes.NewBufferString(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", kgraph.ErrProviderTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return "", &kgraph.ProviderError{Provider: "native", Op: "generate", Err: fmt.Errorf("%w: %v", kgraph.ErrProviderTransport, err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &kgraph.ProviderError{Provider: "native", Op: "generate", Err: fmt.Errorf("%w: %v", kgraph.ErrProviderTransport, err)}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &kgraph.ProviderError{Provider: "native", Op: "generate", Err: fmt.Errorf("%w: status %d: %s", kgraph.ErrProviderTransport, resp.StatusCode, string(data))}
	}

	result := gjson.GetBytes(data, "response")
	if !result.Exists() {
		return "", &kgraph.ProviderError{Provider: "native", Op: "generate", Err: fmt.Errorf("%w: missing response field", kgraph.ErrProviderParse)}
	}
	return result.String(), nil
}
