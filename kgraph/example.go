package kgraph

import (
	"encoding/json"
	"fmt"
)

// ExampleKind distinguishes the two shapes an exemplar can take.
type ExampleKind int

const (
	// ExtractionExampleKind pairs source text with the triples extracted
	// from it (text + extractions).
	ExtractionExampleKind ExampleKind = iota
	// AugmentationExampleKind pairs an augmentation-strategy input with its
	// expected output triples (input + output).
	AugmentationExampleKind
)

// Example is a single few-shot exemplar bundled with a domain. Its shape is
// tagged by which fields are populated: an extraction example carries Text
// and Extractions; an augmentation example carries Input and Output.
// Exactly one of the two shapes is populated for any given Example.
type Example struct {
	Kind ExampleKind

	// Populated when Kind == ExtractionExampleKind.
	Text        string
	Extractions []Triple

	// Populated when Kind == AugmentationExampleKind.
	Input  string
	Output []Triple
}

// extractionExampleJSON and augmentationExampleJSON are the two wire shapes
// an examples.json entry may take, distinguished by which top-level keys are
// present (spec §6).
type extractionExampleJSON struct {
	Text        string   `json:"text"`
	Extractions []Triple `json:"extractions"`
}

type augmentationExampleJSON struct {
	Input  string   `json:"input"`
	Output []Triple `json:"output"`
}

// UnmarshalJSON detects which of the two tagged variants is present by
// probing for the "text"/"extractions" keys versus "input"/"output".
func (e *Example) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	_, hasText := probe["text"]
	_, hasExtractions := probe["extractions"]
	_, hasInput := probe["input"]
	_, hasOutput := probe["output"]

	switch {
	case hasText || hasExtractions:
		var in extractionExampleJSON
		if err := json.Unmarshal(data, &in); err != nil {
			return err
		}
		e.Kind = ExtractionExampleKind
		e.Text = in.Text
		e.Extractions = in.Extractions
		return nil
	case hasInput || hasOutput:
		var in augmentationExampleJSON
		if err := json.Unmarshal(data, &in); err != nil {
			return err
		}
		e.Kind = AugmentationExampleKind
		e.Input = in.Input
		e.Output = in.Output
		return nil
	default:
		return fmt.Errorf("%w: example has neither text/extractions nor input/output keys", ErrInvalidResource)
	}
}

// MarshalJSON renders the populated variant only.
func (e Example) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case ExtractionExampleKind:
		return json.Marshal(extractionExampleJSON{Text: e.Text, Extractions: e.Extractions})
	case AugmentationExampleKind:
		return json.Marshal(augmentationExampleJSON{Input: e.Input, Output: e.Output})
	default:
		return nil, fmt.Errorf("%w: example has unknown kind", ErrInvalidResource)
	}
}

// ExampleSet is an ordered, parsed collection of exemplars loaded from a
// domain's examples.json file.
type ExampleSet []Example

// parseExampleSet parses an examples.json payload (a JSON array of tagged
// Example variants).
func parseExampleSet(data []byte) (ExampleSet, error) {
	var set ExampleSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResource, err)
	}
	return set, nil
}
