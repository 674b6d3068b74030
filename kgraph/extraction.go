package kgraph

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Extractor runs the initial extraction pass over one or more records,
// using a Provider and a KnowledgeDomain. It is the Go rendition of
// spec.md §4.4's extraction engine.
type Extractor struct {
	Provider Provider
	Domain   *KnowledgeDomain
	Mode     ExtractionMode
	Config   ClientConfig
	Logger   Logger
}

// NewExtractor constructs an Extractor, defaulting Logger to NoopLogger
// when unset.
func NewExtractor(provider Provider, domain *KnowledgeDomain, mode ExtractionMode, config ClientConfig) *Extractor {
	return &Extractor{
		Provider: provider,
		Domain:   domain,
		Mode:     mode,
		Config:   config.applyDefaults(),
		Logger:   NoopLogger{},
	}
}

// chunkText splits text into runs of at most size runes, breaking on
// whitespace where possible so a chunk boundary doesn't split a word (and
// therefore doesn't split an entity name the model would otherwise have
// extracted whole).
func chunkText(text string, size int) []string {
	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}
	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		breakAt := end
		for breakAt > start && runes[breakAt] != ' ' && runes[breakAt] != '\n' {
			breakAt--
		}
		if breakAt == start {
			breakAt = end
		}
		chunks = append(chunks, string(runes[start:breakAt]))
		start = breakAt
	}
	return chunks
}

// ExtractRecord runs the full extraction pipeline over a single record:
// chunking text over MaxCharBuffer, fanning out across MaxWorkers
// goroutines, merging results back in ascending chunk-index order (spec.md
// §5's ordering guarantee), and deduping first-occurrence-wins across
// chunks.
func (e *Extractor) ExtractRecord(ctx context.Context, record Record) ([]Triple, error) {
	if strings.TrimSpace(record.Text) == "" {
		e.Logger.Debug(ctx, "extraction: empty record text, skipping provider call", F("record_id", record.ID))
		return nil, nil
	}

	chunks := chunkText(record.Text, e.Config.MaxCharBuffer)
	e.Logger.Debug(ctx, "extraction: chunked record", F("record_id", record.ID), F("chunks", len(chunks)))

	type chunkResult struct {
		index   int
		triples []Triple
		err     error
	}

	results := make([]chunkResult, len(chunks))
	sem := make(chan struct{}, e.Config.MaxWorkers)
	var wg sync.WaitGroup

	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			triples, err := e.extractChunk(ctx, Record{ID: record.ID, Text: chunk})
			results[i] = chunkResult{index: i, triples: triples, err: err}
		}(i, chunk)
	}
	wg.Wait()

	sort.Slice(results, func(a, b int) bool { return results[a].index < results[b].index })

	var merged []Triple
	for _, r := range results {
		if r.err != nil {
			return nil, fmt.Errorf("extraction: chunk %d: %w", r.index, r.err)
		}
		merged = append(merged, r.triples...)
	}
	return DedupeFirstWins(merged), nil
}

// extractChunk performs up to Config.MaxPasses extraction calls against a
// single chunk, accumulating any additional triples a later pass surfaces
// (spec.md §4.3.1's multi-pass behavior for the hosted provider; harmless
// no-op extra work for providers that always return everything in one
// pass, since dedup collapses repeats).
func (e *Extractor) extractChunk(ctx context.Context, chunkRecord Record) ([]Triple, error) {
	var all []Triple
	for pass := 0; pass < e.Config.MaxPasses; pass++ {
		triples, err := e.Provider.Extract(ctx, chunkRecord, e.Domain, e.Mode)
		if err != nil {
			return nil, err
		}
		if pass > 0 && len(triples) == 0 {
			break
		}
		all = append(all, triples...)
	}
	return all, nil
}

// ExtractRecords runs ExtractRecord over every record, in order, returning
// results keyed by record ID. A failure on any record aborts the batch;
// callers needing partial results should call ExtractRecord directly per
// record.
func (e *Extractor) ExtractRecords(ctx context.Context, records []Record) (map[string][]Triple, error) {
	out := make(map[string][]Triple, len(records))
	for _, rec := range records {
		triples, err := e.ExtractRecord(ctx, rec)
		if err != nil {
			return nil, fmt.Errorf("extraction: record %s: %w", rec.ID, err)
		}
		out[rec.ID] = triples
	}
	return out, nil
}
