package kgraph

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDomain(t *testing.T) *KnowledgeDomain {
	t.Helper()
	fsys := fstest.MapFS{
		"extraction/prompt_open.txt":               &fstest.MapFile{Data: []byte("extract: {{record_json}}\n{{examples}}")},
		"extraction/prompt_constrained.txt":         &fstest.MapFile{Data: []byte("extract: {{record_json}}\n{{schema}}\n{{examples}}")},
		"extraction/examples.json":                  &fstest.MapFile{Data: []byte(`[]`)},
		"augmentation/connectivity/prompt.txt":      &fstest.MapFile{Data: []byte("components:\n{{components}}\ntriples:\n{{triples}}\nexamples:\n{{examples}}")},
		"augmentation/connectivity/examples.json":   &fstest.MapFile{Data: []byte(`[]`)},
	}
	return NewKnowledgeDomain("test", fsys)
}

func mustTriple(t *testing.T, head, relation, tail string, opts ...TripleOption) Triple {
	t.Helper()
	tr, err := NewTriple(head, relation, tail, opts...)
	require.NoError(t, err)
	return tr
}

// Scenario 3 (spec.md §8): two disconnected pairs bridge into one component
// once the provider returns a single connecting triple.
func TestAugmenterRunBridgesDisconnectedComponents(t *testing.T) {
	initial := []Triple{
		mustTriple(t, "A", "r1", "B"),
		mustTriple(t, "C", "r2", "D"),
	}

	provider := &fakeProvider{
		generateJSONResponse: []byte(`[{"head":"B","relation":"relates_to","tail":"C"}]`),
	}

	aug := NewAugmenter(provider, testDomain(t), AugmentationConfig{MaxDisconnected: 1, MaxIterations: 5})
	final, meta, err := aug.Run(context.Background(), initial)
	require.NoError(t, err)

	assert.Len(t, final, 3)
	assert.Equal(t, 1, meta.FinalComponentCount)
	assert.Equal(t, 2, meta.InitialComponentCount)
	assert.Equal(t, "connectivity", meta.Strategy)
	assert.Equal(t, StopMaxDisconnected, meta.StopReason)
	assert.False(t, meta.PartialResult)
	require.Len(t, meta.Iterations, 1)
	assert.Equal(t, IterSuccess, meta.Iterations[0].Status)
	require.NotNil(t, meta.Iterations[0].NewTriplesCount)
	assert.Equal(t, 1, *meta.Iterations[0].NewTriplesCount)

	for _, tr := range final {
		if tr.Key() == (Key{Head: "B", Relation: "relates_to", Tail: "C"}) {
			assert.Equal(t, Contextual, tr.Inference(), "bridging triple must be tagged contextual")
		}
	}
}

// Scenario 4 (spec.md §8): a provider failure mid-loop stops early with
// partial_result=true and whatever triples had already been accumulated.
func TestAugmenterRunStopsOnProviderFailure(t *testing.T) {
	initial := []Triple{
		mustTriple(t, "A", "r1", "B"),
		mustTriple(t, "C", "r2", "D"),
	}

	provider := &fakeProvider{generateJSONErr: errors.New("transport down")}

	aug := NewAugmenter(provider, testDomain(t), AugmentationConfig{MaxDisconnected: 1, MaxIterations: 5})
	final, meta, err := aug.Run(context.Background(), initial)
	require.NoError(t, err)

	assert.True(t, meta.PartialResult)
	assert.Equal(t, StopProviderFailure, meta.StopReason)
	assert.Len(t, final, 2, "unmodified initial triples")
	require.Len(t, meta.Iterations, 1)
	assert.Equal(t, IterFailed, meta.Iterations[0].Status)
	require.NotNil(t, meta.Iterations[0].Error)
	assert.Equal(t, "transport down", *meta.Iterations[0].Error)
}

func TestAugmenterRunStopsWhenNoNewTriplesFound(t *testing.T) {
	initial := []Triple{
		mustTriple(t, "A", "r1", "B"),
		mustTriple(t, "C", "r2", "D"),
	}
	provider := &fakeProvider{generateJSONResponse: []byte(`[]`)}

	aug := NewAugmenter(provider, testDomain(t), AugmentationConfig{MaxDisconnected: 1, MaxIterations: 5})
	final, meta, err := aug.Run(context.Background(), initial)
	require.NoError(t, err)

	assert.Equal(t, StopNoNewTriples, meta.StopReason)
	assert.Len(t, final, 2)
	require.Len(t, meta.Iterations, 1)
	assert.Equal(t, IterNoProgress, meta.Iterations[0].Status)
}

func TestAugmenterRunStopsWhenAlreadyConnected(t *testing.T) {
	initial := []Triple{
		mustTriple(t, "A", "r1", "B"),
		mustTriple(t, "B", "r2", "C"),
	}
	provider := &fakeProvider{}

	aug := NewAugmenter(provider, testDomain(t), AugmentationConfig{MaxDisconnected: 1, MaxIterations: 5})
	final, meta, err := aug.Run(context.Background(), initial)
	require.NoError(t, err)

	assert.Len(t, meta.Iterations, 0, "no bridging call needed")
	assert.Equal(t, 0, provider.generateJSONCalls)
	assert.Len(t, final, 2)
}

// Scenario 5 (spec.md §8): dedup key excludes inference, so an explicit
// triple already present survives even when the bridging response proposes
// the same (head, relation, tail) again under a contextual tag.
func TestAugmenterRunDoesNotOverrideExplicitWithContextualDuplicate(t *testing.T) {
	initial := []Triple{
		mustTriple(t, "A", "r", "B", WithInference(Explicit)),
		mustTriple(t, "C", "r2", "D"),
	}
	provider := &fakeProvider{
		generateJSONResponse: []byte(`[{"head":"A","relation":"r","tail":"B"},{"head":"B","relation":"relates_to","tail":"C"}]`),
	}

	aug := NewAugmenter(provider, testDomain(t), AugmentationConfig{MaxDisconnected: 1, MaxIterations: 5})
	final, _, err := aug.Run(context.Background(), initial)
	require.NoError(t, err)

	for _, tr := range final {
		if tr.Key() == (Key{Head: "A", Relation: "r", Tail: "B"}) {
			assert.Equal(t, Explicit, tr.Inference(), "explicit triple must not be overridden by a contextual duplicate")
		}
	}
}
