package kgraph

import (
	"context"
	"encoding/json"
	"strings"
)

// recordJSON is the record shape rendered into {{record_json}}: text is
// always present, id is omitted when the caller didn't supply one (spec.md
// §4.4 step 2, §6: "record {text, id?}").
type recordJSON struct {
	Text string `json:"text"`
	ID   string `json:"id,omitempty"`
}

// BuildExtractionPrompt assembles the full extraction prompt for text under
// domain's template for mode, interpolating the domain's few-shot
// exemplars and (for constrained mode) its advisory schema. This is shared
// by every provider so prompt construction logic lives in one place (spec
// §4.3.4's normalization note applies symmetrically to prompt construction
// here), grounded on original_source/src/kg_constructor/extractor.py's
// _prepare_prompt. The only token the core substitutes for the record
// itself is {{record_json}}, a pretty-printed JSON rendering of the record;
// no other templating happens at this level beyond the domain's own
// examples/schema tokens.
func BuildExtractionPrompt(ctx context.Context, domain *KnowledgeDomain, mode ExtractionMode, text string) (string, error) {
	return BuildExtractionPromptForRecord(ctx, domain, mode, Record{Text: text})
}

// BuildExtractionPromptForRecord is the record-aware form of
// BuildExtractionPrompt, used by callers (the Extractor's per-chunk fan-out,
// and Provider implementations directly) that can supply the record's id
// alongside its text.
func BuildExtractionPromptForRecord(ctx context.Context, domain *KnowledgeDomain, mode ExtractionMode, record Record) (string, error) {
	template, err := domain.ExtractionPrompt(mode)
	if err != nil {
		return "", err
	}

	examples, err := domain.ExtractionExamples()
	if err != nil && !IsResourceNotFound(err) {
		return "", err
	}

	recordPayload, err := json.MarshalIndent(recordJSON{Text: record.Text, ID: record.ID}, "", "  ")
	if err != nil {
		return "", err
	}

	prompt := template
	prompt = strings.ReplaceAll(prompt, "{{record_json}}", string(recordPayload))
	prompt = strings.ReplaceAll(prompt, "{{examples}}", formatExtractionExamples(examples))

	if mode == ConstrainedExtraction {
		schema, err := domain.Schema()
		if err != nil {
			return "", err
		}
		prompt = strings.ReplaceAll(prompt, "{{schema}}", formatSchema(schema))
	}

	return prompt, nil
}

func formatExtractionExamples(examples ExampleSet) string {
	if len(examples) == 0 {
		return "[]"
	}
	data, err := json.Marshal(examples)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func formatSchema(schema json.RawMessage) string {
	if len(schema) == 0 {
		return "{}"
	}
	return string(schema)
}
