package kgraph

import (
	"context"
	"encoding/json"

	"github.com/kgconstruct/kgraph/graphutil"
)

// StopReason records why the augmentation loop stopped, for inclusion in
// AugmentationMetadata (spec.md §4.5, §6).
type StopReason string

const (
	// StopMaxDisconnected means component count reached or dropped to the
	// configured maximum and the loop stopped successfully.
	StopMaxDisconnected StopReason = "max_disconnected_reached"
	// StopMaxIterations means the iteration budget was exhausted before
	// the component-count goal was reached.
	StopMaxIterations StopReason = "max_iterations_reached"
	// StopNoNewTriples means a bridging call returned no new triples,
	// the no-progress guard from original_source's extractor.py.
	StopNoNewTriples StopReason = "no_new_triples_found"
	// StopNoConnectivityImprovement means new triples were returned but
	// they did not reduce the component count.
	StopNoConnectivityImprovement StopReason = "no_connectivity_improvement"
	// StopProviderFailure means a bridging call failed and the loop
	// terminated early with whatever triples it had accumulated.
	StopProviderFailure StopReason = "provider_failure"
)

// IterStatus reports how a single augmentation iteration concluded.
type IterStatus string

const (
	// IterSuccess means the iteration's bridging call returned triples
	// that reduced the component count.
	IterSuccess IterStatus = "success"
	// IterFailed means the iteration's bridging call or response parse
	// failed and the loop stopped.
	IterFailed IterStatus = "failed"
	// IterNoProgress means the iteration completed but made no headway
	// (no new triples, or new triples that didn't improve connectivity).
	IterNoProgress IterStatus = "no_progress"
)

// IterRecord captures one pass through the bridging loop (spec.md §3's
// IterRecord and §6's external interface).
type IterRecord struct {
	Iteration         int        `json:"iteration"`
	Status            IterStatus `json:"status"`
	ComponentsBefore  *int       `json:"components_before,omitempty"`
	NewTriplesCount   *int       `json:"new_triples_count,omitempty"`
	Error             *string    `json:"error,omitempty"`
}

// AugmentationMetadata summarizes one run of the augmentation loop (spec.md
// §6's "Augmentation metadata" external interface).
type AugmentationMetadata struct {
	Strategy              string       `json:"strategy"`
	InitialComponentCount int          `json:"initial_component_count"`
	FinalComponentCount   int          `json:"final_component_count"`
	Iterations            []IterRecord `json:"iterations"`
	StopReason            StopReason   `json:"stop_reason"`
	PartialResult         bool         `json:"partial_result"`
}

// AugmentationConfig bounds one run of the loop.
type AugmentationConfig struct {
	// Strategy selects the registered AugmentationStrategy to use.
	Strategy string
	// MaxDisconnected is the component-count goal; the loop stops
	// successfully once the graph has this many components or fewer.
	MaxDisconnected int
	// MaxIterations bounds how many bridging calls are attempted.
	MaxIterations int
}

func (c AugmentationConfig) applyDefaults() AugmentationConfig {
	out := c
	if out.Strategy == "" {
		out.Strategy = "connectivity"
	}
	if out.MaxDisconnected <= 0 {
		out.MaxDisconnected = 1
	}
	if out.MaxIterations <= 0 {
		out.MaxIterations = 5
	}
	return out
}

// Augmenter runs the iterative bridging loop described in spec.md §4.5,
// grounded directly in original_source/src/kg_constructor/extractor.py's
// extract_connected_graph: build a graph from the current triples, compute
// its weakly connected components, and while there are more than
// MaxDisconnected of them, ask the provider for bridging triples via the
// configured strategy, merge and dedupe (first-occurrence-wins), and
// repeat — until the goal is reached, the iteration budget runs out, an
// iteration makes no progress (no new triples, or no drop in component
// count), or the provider fails.
type Augmenter struct {
	Provider Provider
	Domain   *KnowledgeDomain
	Config   AugmentationConfig
	Logger   Logger
}

// NewAugmenter constructs an Augmenter, defaulting Logger to NoopLogger.
func NewAugmenter(provider Provider, domain *KnowledgeDomain, config AugmentationConfig) *Augmenter {
	return &Augmenter{
		Provider: provider,
		Domain:   domain,
		Config:   config.applyDefaults(),
		Logger:   NoopLogger{},
	}
}

// Run executes the loop starting from the given initial triples (typically
// the output of an Extractor), returning the final triple set and metadata
// describing how the loop terminated.
func (a *Augmenter) Run(ctx context.Context, initial []Triple) ([]Triple, AugmentationMetadata, error) {
	strategy, err := GetStrategy(a.Config.Strategy)
	if err != nil {
		return nil, AugmentationMetadata{}, err
	}

	triples := DedupeFirstWins(initial)
	initialCount := graphutil.BuildFromTriples(triples).ComponentCount()
	meta := AugmentationMetadata{Strategy: a.Config.Strategy, InitialComponentCount: initialCount}

	componentCount := initialCount
	for iteration := 0; iteration < a.Config.MaxIterations; iteration++ {
		if componentCount <= a.Config.MaxDisconnected {
			meta.StopReason = StopMaxDisconnected
			break
		}

		before := componentCount
		g := graphutil.BuildFromTriples(triples)
		components := g.ConnectedComponents()

		prompt, err := strategy.BuildPrompt(ctx, a.Domain, triples, components)
		if err != nil {
			return nil, AugmentationMetadata{}, err
		}

		payload, err := a.Provider.GenerateJSON(ctx, prompt)
		if err != nil {
			a.Logger.Warn(ctx, "augmentation: provider call failed, stopping with partial result", F("iteration", iteration), F("error", err.Error()))
			errMsg := err.Error()
			meta.Iterations = append(meta.Iterations, IterRecord{
				Iteration: iteration, Status: IterFailed, ComponentsBefore: &before, Error: &errMsg,
			})
			meta.StopReason = StopProviderFailure
			meta.PartialResult = true
			meta.FinalComponentCount = componentCount
			return triples, meta, nil
		}

		bridging, err := parseBridgingTriples(payload)
		if err != nil {
			a.Logger.Warn(ctx, "augmentation: could not parse bridging response, stopping with partial result", F("iteration", iteration), F("error", err.Error()))
			errMsg := err.Error()
			meta.Iterations = append(meta.Iterations, IterRecord{
				Iteration: iteration, Status: IterFailed, ComponentsBefore: &before, Error: &errMsg,
			})
			meta.StopReason = StopProviderFailure
			meta.PartialResult = true
			meta.FinalComponentCount = componentCount
			return triples, meta, nil
		}

		merged := DedupeFirstWins(append(append([]Triple{}, triples...), bridging...))
		newCount := len(merged) - len(triples)
		if newCount == 0 {
			meta.Iterations = append(meta.Iterations, IterRecord{
				Iteration: iteration, Status: IterNoProgress, ComponentsBefore: &before, NewTriplesCount: &newCount,
			})
			meta.StopReason = StopNoNewTriples
			meta.FinalComponentCount = componentCount
			return triples, meta, nil
		}

		nextComponentCount := graphutil.BuildFromTriples(merged).ComponentCount()
		if nextComponentCount >= componentCount {
			meta.Iterations = append(meta.Iterations, IterRecord{
				Iteration: iteration, Status: IterNoProgress, ComponentsBefore: &before, NewTriplesCount: &newCount,
			})
			meta.StopReason = StopNoConnectivityImprovement
			meta.FinalComponentCount = componentCount
			return triples, meta, nil
		}

		triples = merged
		componentCount = nextComponentCount
		meta.Iterations = append(meta.Iterations, IterRecord{
			Iteration: iteration, Status: IterSuccess, ComponentsBefore: &before, NewTriplesCount: &newCount,
		})
	}

	if meta.StopReason == "" {
		if componentCount <= a.Config.MaxDisconnected {
			meta.StopReason = StopMaxDisconnected
		} else {
			meta.StopReason = StopMaxIterations
		}
	}
	meta.FinalComponentCount = componentCount
	return triples, meta, nil
}

// bridgingTripleJSON is the wire shape a bridging response's triples take;
// identical to Triple's own shape but decoded separately so a provider
// response that omits "inference" is still forced to Contextual
// (bridging-loop triples are never explicit, spec.md §4.5).
type bridgingTripleJSON struct {
	Head          string  `json:"head"`
	Relation      string  `json:"relation"`
	Tail          string  `json:"tail"`
	Justification *string `json:"justification"`
}

func parseBridgingTriples(payload []byte) ([]Triple, error) {
	var raw []bridgingTripleJSON
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}
	out := make([]Triple, 0, len(raw))
	for _, r := range raw {
		opts := []TripleOption{WithInference(Contextual)}
		if r.Justification != nil {
			opts = append(opts, WithJustification(*r.Justification))
		}
		t, err := NewTriple(r.Head, r.Relation, r.Tail, opts...)
		if err != nil {
			// Skip malformed entries rather than failing the whole
			// iteration; a single bad triple shouldn't void an
			// otherwise-useful bridging response.
			continue
		}
		out = append(out, t)
	}
	return out, nil
}
