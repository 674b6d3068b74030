package kgraph

import (
	"context"
	"sync"
)

// fakeProvider is an in-memory Provider for tests, returning canned
// responses with no network access. Extract and GenerateJSON may be called
// concurrently by ExtractRecord's chunk fan-out, so call counters are
// mutex-guarded.
type fakeProvider struct {
	mu                   sync.Mutex
	extractResponses     [][]Triple
	extractCalls         int
	generateJSONResponse []byte
	generateJSONErr      error
	generateJSONCalls    int
}

func (f *fakeProvider) Extract(ctx context.Context, record Record, domain *KnowledgeDomain, mode ExtractionMode) ([]Triple, error) {
	f.mu.Lock()
	i := f.extractCalls
	f.extractCalls++
	f.mu.Unlock()
	if i < len(f.extractResponses) {
		return f.extractResponses[i], nil
	}
	return nil, nil
}

func (f *fakeProvider) GenerateJSON(ctx context.Context, prompt string) ([]byte, error) {
	f.mu.Lock()
	f.generateJSONCalls++
	f.mu.Unlock()
	if f.generateJSONErr != nil {
		return nil, f.generateJSONErr
	}
	return f.generateJSONResponse, nil
}

func (f *fakeProvider) ModelName() string { return "fake-model" }

func (f *fakeProvider) SupportsStructuredOutput() bool { return true }
