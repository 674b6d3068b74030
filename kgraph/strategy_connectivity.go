package kgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kgconstruct/kgraph/graphutil"
)

// connectivityMaxComponents and connectivityMaxNodesPerComponent bound how
// much of the graph's structure is spelled out in a bridging prompt, so the
// prompt itself can't grow without bound on a large, badly fragmented
// graph. Mirrors original_source's _format_components (30 components, 10
// nodes each, with an ellipsis marker for the remainder).
const (
	connectivityMaxComponents         = 30
	connectivityMaxNodesPerComponent  = 10
)

// connectivityStrategy is the built-in "connectivity" augmentation
// strategy: it asks the model to propose contextual triples that bridge
// the graph's weakly connected components, grounded directly in
// original_source/src/kg_constructor/extractor.py's
// extract_connected_graph bridging-prompt construction.
type connectivityStrategy struct{}

func init() {
	RegisterStrategy(connectivityStrategy{})
}

func (connectivityStrategy) Name() string { return "connectivity" }

func (s connectivityStrategy) BuildPrompt(ctx context.Context, domain *KnowledgeDomain, existing []Triple, components []graphutil.Component) (string, error) {
	template, err := domain.AugmentationPrompt(s.Name())
	if err != nil {
		return "", err
	}

	examples, err := domain.AugmentationExamples(s.Name())
	if err != nil && !IsResourceNotFound(err) {
		return "", err
	}

	prompt := template
	prompt = strings.ReplaceAll(prompt, "{{components}}", formatComponents(components))
	prompt = strings.ReplaceAll(prompt, "{{triples}}", formatExistingTriples(existing))
	prompt = strings.ReplaceAll(prompt, "{{examples}}", formatAugmentationExamples(examples))
	return prompt, nil
}

// formatComponents renders the graph's weakly connected components as a
// numbered list, truncating per connectivityMaxComponents /
// connectivityMaxNodesPerComponent so a fragmented graph can't blow up the
// prompt size.
func formatComponents(components []graphutil.Component) string {
	var b strings.Builder
	shown := components
	truncatedComponents := false
	if len(shown) > connectivityMaxComponents {
		shown = shown[:connectivityMaxComponents]
		truncatedComponents = true
	}
	for i, comp := range shown {
		nodes := []string(comp)
		truncatedNodes := false
		if len(nodes) > connectivityMaxNodesPerComponent {
			nodes = nodes[:connectivityMaxNodesPerComponent]
			truncatedNodes = true
		}
		fmt.Fprintf(&b, "%d. %s", i+1, strings.Join(nodes, ", "))
		if truncatedNodes {
			fmt.Fprintf(&b, ", ... (%d more)", len(comp)-len(nodes))
		}
		b.WriteByte('\n')
	}
	if truncatedComponents {
		fmt.Fprintf(&b, "... (%d more components)\n", len(components)-len(shown))
	}
	return b.String()
}

// formatExistingTriples renders the accumulated triples as JSON, giving the
// model full visibility of what is already in the graph so it doesn't
// propose a duplicate.
func formatExistingTriples(existing []Triple) string {
	data, err := json.Marshal(existing)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// formatAugmentationExamples renders the strategy's few-shot exemplars (if
// any) as JSON for interpolation into the prompt template.
func formatAugmentationExamples(examples ExampleSet) string {
	if len(examples) == 0 {
		return "[]"
	}
	data, err := json.Marshal(examples)
	if err != nil {
		return "[]"
	}
	return string(data)
}
