// Package kgraph extracts knowledge-graph triples from free-form text via an
// LLM, then iteratively augments the resulting graph to reduce the number of
// disconnected components.
package kgraph

import (
	"encoding/json"
	"strings"
)

// Inference tags whether a triple was directly stated in the source text or
// inferred by an augmentation strategy to bridge disconnected components.
type Inference string

const (
	// Explicit means the triple is directly supported by a text span.
	Explicit Inference = "explicit"
	// Contextual means the triple was inferred, not read verbatim.
	Contextual Inference = "contextual"
)

// Triple is an immutable (head, relation, tail) record with an inference tag.
// Construct one with NewTriple; the zero value is not valid.
type Triple struct {
	head           string
	relation       string
	tail           string
	inference      Inference
	justification  string
}

// TripleOption configures optional Triple fields at construction time.
type TripleOption func(*Triple)

// WithInference sets the inference tag. Explicit is the default.
func WithInference(inf Inference) TripleOption {
	return func(t *Triple) { t.inference = inf }
}

// WithJustification attaches free text explaining a contextual triple.
func WithJustification(justification string) TripleOption {
	return func(t *Triple) { t.justification = strings.TrimSpace(justification) }
}

// NewTriple validates and constructs a Triple. head, relation, and tail are
// trimmed before storage; construction fails with ErrInvalidTriple if any of
// them is empty after trimming.
func NewTriple(head, relation, tail string, opts ...TripleOption) (Triple, error) {
	t := Triple{
		head:      strings.TrimSpace(head),
		relation:  strings.TrimSpace(relation),
		tail:      strings.TrimSpace(tail),
		inference: Explicit,
	}
	for _, opt := range opts {
		opt(&t)
	}
	if t.head == "" || t.relation == "" || t.tail == "" {
		return Triple{}, ErrInvalidTriple
	}
	return t, nil
}

// Head returns the source entity.
func (t Triple) Head() string { return t.head }

// Relation returns the relationship type connecting head to tail.
func (t Triple) Relation() string { return t.relation }

// Tail returns the target entity.
func (t Triple) Tail() string { return t.tail }

// Inference returns whether the triple is explicit or contextual.
func (t Triple) Inference() Inference { return t.inference }

// Justification returns the optional free-text explanation, if any.
func (t Triple) Justification() string { return t.justification }

// Key is the deduplication key (head, relation, tail). Inference is
// intentionally excluded so an augmenter cannot re-introduce an explicit
// triple under a contextual label.
type Key struct {
	Head, Relation, Tail string
}

// Key returns this triple's deduplication key.
func (t Triple) Key() Key {
	return Key{Head: t.head, Relation: t.relation, Tail: t.tail}
}

// Equal reports whether two triples have identical semantic fields. The
// justification is metadata and does not participate in equality.
func (t Triple) Equal(other Triple) bool {
	return t.head == other.head &&
		t.relation == other.relation &&
		t.tail == other.tail &&
		t.inference == other.inference
}

// tripleJSON is the wire shape from spec §6.
type tripleJSON struct {
	Head          string  `json:"head"`
	Relation      string  `json:"relation"`
	Tail          string  `json:"tail"`
	Inference     string  `json:"inference"`
	Justification *string `json:"justification"`
}

// MarshalJSON renders the canonical output shape from spec §6.
func (t Triple) MarshalJSON() ([]byte, error) {
	out := tripleJSON{
		Head:      t.head,
		Relation:  t.relation,
		Tail:      t.tail,
		Inference: string(t.inference),
	}
	if t.justification != "" {
		j := t.justification
		out.Justification = &j
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses the canonical output shape and re-validates through
// NewTriple, so round-tripping a Triple through JSON yields an equal Triple.
func (t *Triple) UnmarshalJSON(data []byte) error {
	var in tripleJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	inf := Inference(in.Inference)
	if inf == "" {
		inf = Explicit
	}
	opts := []TripleOption{WithInference(inf)}
	if in.Justification != nil {
		opts = append(opts, WithJustification(*in.Justification))
	}
	built, err := NewTriple(in.Head, in.Relation, in.Tail, opts...)
	if err != nil {
		return err
	}
	*t = built
	return nil
}

// ParseTripleCandidates decodes a JSON array of candidate triples, skipping
// (rather than failing on) any element that cannot be constructed into a
// valid Triple. A single malformed candidate in a provider's response must
// not void the rest of that response (spec §4.3.4 step 3), so this decodes
// into the raw per-element wire shape first and only then validates each
// one through NewTriple, in contrast to unmarshaling directly into []Triple
// (which would abort the whole array on the first invalid element, since
// Triple.UnmarshalJSON itself returns an error).
func ParseTripleCandidates(payload []byte) ([]Triple, error) {
	var raw []tripleJSON
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}
	out := make([]Triple, 0, len(raw))
	for _, r := range raw {
		opts := []TripleOption{}
		if r.Inference != "" {
			opts = append(opts, WithInference(Inference(r.Inference)))
		}
		if r.Justification != nil {
			opts = append(opts, WithJustification(*r.Justification))
		}
		t, err := NewTriple(r.Head, r.Relation, r.Tail, opts...)
		if err != nil {
			// Skip malformed entries rather than failing the whole
			// response; a single bad candidate shouldn't void an
			// otherwise-useful extraction.
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// DedupeFirstWins filters a triple slice by Key, keeping only the first
// occurrence of each key. An augmentation strategy appending contextual
// triples after an existing explicit one will therefore never overwrite it
// (spec §4.1, §4.6).
func DedupeFirstWins(triples []Triple) []Triple {
	seen := make(map[Key]struct{}, len(triples))
	out := make([]Triple, 0, len(triples))
	for _, t := range triples {
		k := t.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, t)
	}
	return out
}
