package kgraph

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Record is a single input document: an identifier and its source text.
// Loading records from disk or a database is out of scope; callers
// construct Record directly.
type Record struct {
	ID   string
	Text string
}

// Provider is the uniform interface over every LLM backend this package
// talks to. Extract asks the model to find triples in source text under a
// domain's extraction prompt; GenerateJSON asks an arbitrary prompt for a
// JSON response, used by the augmentation loop to request bridging triples.
type Provider interface {
	// Extract returns triples found in record.Text, using domain's
	// extraction prompt and exemplars for the given mode. record.ID, when
	// set, is rendered into the prompt's {{record_json}} token alongside
	// the text.
	Extract(ctx context.Context, record Record, domain *KnowledgeDomain, mode ExtractionMode) ([]Triple, error)

	// GenerateJSON sends prompt verbatim and returns the raw JSON payload
	// the model replied with, after tolerant normalization (fence
	// stripping, wrapper-key recovery). Used by augmentation strategies
	// that build their own prompts.
	GenerateJSON(ctx context.Context, prompt string) ([]byte, error)

	// ModelName returns the identifier of the underlying model, for
	// logging and metadata.
	ModelName() string

	// SupportsStructuredOutput reports whether the backend can be asked
	// to constrain its response to a JSON schema natively, rather than
	// relying on prompt instructions and fence-stripping.
	SupportsStructuredOutput() bool
}

// ClientConfig configures a Provider constructed via NewProvider. Not every
// field applies to every client type; unused fields are ignored by that
// type's factory.
type ClientConfig struct {
	// ClientType selects the registered provider factory: "hosted",
	// "openaicompat", or "native" (the three built-in providers).
	ClientType string

	// ModelID is the backend model identifier (e.g. "gemini-2.0-flash",
	// "llama-3.1-8b-instruct").
	ModelID string

	// APIKey authenticates with a hosted provider. Unused by local
	// providers.
	APIKey string

	// BaseURL overrides the default endpoint for local-server providers.
	BaseURL string

	// MaxWorkers bounds fan-out concurrency for chunked extraction.
	MaxWorkers int

	// MaxCharBuffer is the chunk size threshold; inputs longer than this
	// are split and extracted in parallel, then merged.
	MaxCharBuffer int

	// BatchLength is read from config and given per-client-type defaults;
	// neither the Extractor nor the built-in providers use it, and each
	// chunk goes to the backend in its own call.
	BatchLength int

	// Temperature is the sampling temperature passed to the backend.
	Temperature float64

	// TimeoutSeconds bounds each individual backend call.
	TimeoutSeconds int

	// MaxPasses bounds how many extraction passes the Extractor performs
	// against each chunk, for any provider, when hunting for additional
	// triples.
	MaxPasses int
}

// Timeout returns the configured per-call timeout, defaulting to 60 seconds
// when unset.
func (c ClientConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// applyDefaults fills zero-valued fields with per-client-type defaults,
// mirroring original_source's ClientConfig.__post_init__ (hosted providers
// default to higher concurrency than local ones, which are typically
// single-GPU-bound).
func (c ClientConfig) applyDefaults() ClientConfig {
	out := c
	switch out.ClientType {
	case "hosted":
		if out.MaxWorkers <= 0 {
			out.MaxWorkers = 10
		}
		if out.BatchLength <= 0 {
			out.BatchLength = 4
		}
	default:
		if out.MaxWorkers <= 0 {
			out.MaxWorkers = 2
		}
		if out.BatchLength <= 0 {
			out.BatchLength = 1
		}
	}
	if out.MaxCharBuffer <= 0 {
		out.MaxCharBuffer = 4000
	}
	if out.MaxPasses <= 0 {
		out.MaxPasses = 1
	}
	return out
}

// ProviderFactory constructs a Provider from a fully-defaulted ClientConfig.
type ProviderFactory func(ClientConfig) (Provider, error)

var providerRegistry = struct {
	mu   sync.RWMutex
	byID map[string]ProviderFactory
}{byID: make(map[string]ProviderFactory)}

// RegisterProvider adds a factory to the module-level provider registry,
// keyed by client type name. Concrete provider packages call this from
// their init() function.
func RegisterProvider(clientType string, factory ProviderFactory) {
	providerRegistry.mu.Lock()
	defer providerRegistry.mu.Unlock()
	providerRegistry.byID[clientType] = factory
}

// NewProvider builds a Provider for config.ClientType, applying
// per-client-type defaults first.
func NewProvider(config ClientConfig) (Provider, error) {
	config = config.applyDefaults()
	providerRegistry.mu.RLock()
	factory, ok := providerRegistry.byID[config.ClientType]
	available := listProviderTypesLocked()
	providerRegistry.mu.RUnlock()
	if !ok {
		return nil, &UnsupportedClientError{Type: config.ClientType, Available: available}
	}
	return factory(config)
}

// ListProviderTypes returns the names of every registered provider factory,
// sorted.
func ListProviderTypes() []string {
	providerRegistry.mu.RLock()
	defer providerRegistry.mu.RUnlock()
	return listProviderTypesLocked()
}

func listProviderTypesLocked() []string {
	names := make([]string, 0, len(providerRegistry.byID))
	for name := range providerRegistry.byID {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
