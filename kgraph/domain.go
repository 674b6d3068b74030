package kgraph

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sync"
)

// ExtractionMode selects which extraction prompt variant a domain serves.
// Open mode asks the model to discover relations freely; Constrained mode
// asks it to stay within the domain's advisory schema.
type ExtractionMode int

const (
	// OpenExtraction requests free-form relation discovery.
	OpenExtraction ExtractionMode = iota
	// ConstrainedExtraction requests relations limited to the domain schema.
	ConstrainedExtraction
)

func (m ExtractionMode) promptFile() string {
	if m == ConstrainedExtraction {
		return "extraction/prompt_constrained.txt"
	}
	return "extraction/prompt_open.txt"
}

// KnowledgeDomain bundles the prompt templates, few-shot exemplars, and
// optional advisory type schema for a single extraction domain (e.g.
// "default", "legal"). Resources are loaded lazily from fs and cached, so
// constructing a KnowledgeDomain is cheap even if its bundle is never used.
type KnowledgeDomain struct {
	name string
	fsys fs.FS

	mu                  sync.Mutex
	extractionPrompts   map[ExtractionMode]string
	extractionExamples  ExampleSet
	extractionExamplesOK bool
	schema              json.RawMessage
	schemaOK            bool
	augmentationPrompts map[string]string
	augmentationExamples map[string]ExampleSet
}

// NewKnowledgeDomain constructs a domain bundle backed by fsys (typically an
// embed.FS rooted at the domain's resource directory).
func NewKnowledgeDomain(name string, fsys fs.FS) *KnowledgeDomain {
	return &KnowledgeDomain{
		name:                name,
		fsys:                fsys,
		extractionPrompts:   make(map[ExtractionMode]string),
		augmentationPrompts: make(map[string]string),
		augmentationExamples: make(map[string]ExampleSet),
	}
}

// Name returns the domain's registry key.
func (d *KnowledgeDomain) Name() string { return d.name }

// ExtractionPrompt returns the extraction prompt template for the given
// mode, loading and caching it on first use.
func (d *KnowledgeDomain) ExtractionPrompt(mode ExtractionMode) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.extractionPrompts[mode]; ok {
		return p, nil
	}
	p, err := d.loadText(mode.promptFile())
	if err != nil {
		return "", err
	}
	d.extractionPrompts[mode] = p
	return p, nil
}

// ExtractionExamples returns the domain's extraction few-shot exemplars,
// loading and caching them on first use.
func (d *KnowledgeDomain) ExtractionExamples() (ExampleSet, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.extractionExamplesOK {
		return d.extractionExamples, nil
	}
	set, err := d.loadExamples("extraction/examples.json")
	if err != nil {
		return nil, err
	}
	d.extractionExamples = set
	d.extractionExamplesOK = true
	return set, nil
}

// Schema returns the domain's advisory type schema, if one is bundled. A nil
// result with a nil error means the domain has no schema (it is optional).
func (d *KnowledgeDomain) Schema() (json.RawMessage, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.schemaOK {
		return d.schema, nil
	}
	data, err := d.loadJSON("schema.json")
	if err != nil {
		if IsResourceNotFound(err) {
			d.schemaOK = true
			return nil, nil
		}
		return nil, err
	}
	d.schema = data
	d.schemaOK = true
	return d.schema, nil
}

// AugmentationPrompt returns the named augmentation strategy's prompt
// template, loading and caching it on first use.
func (d *KnowledgeDomain) AugmentationPrompt(strategy string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.augmentationPrompts[strategy]; ok {
		return p, nil
	}
	p, err := d.loadText(fmt.Sprintf("augmentation/%s/prompt.txt", strategy))
	if err != nil {
		return "", err
	}
	d.augmentationPrompts[strategy] = p
	return p, nil
}

// AugmentationExamples returns the named strategy's few-shot exemplars,
// loading and caching them on first use.
func (d *KnowledgeDomain) AugmentationExamples(strategy string) (ExampleSet, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if set, ok := d.augmentationExamples[strategy]; ok {
		return set, nil
	}
	set, err := d.loadExamples(fmt.Sprintf("augmentation/%s/examples.json", strategy))
	if err != nil {
		return nil, err
	}
	d.augmentationExamples[strategy] = set
	return set, nil
}

func (d *KnowledgeDomain) loadText(path string) (string, error) {
	data, err := fs.ReadFile(d.fsys, path)
	if err != nil {
		return "", &ResourceError{Path: path, Err: fmt.Errorf("%w: %v", ErrResourceNotFound, err)}
	}
	return string(data), nil
}

func (d *KnowledgeDomain) loadJSON(path string) (json.RawMessage, error) {
	data, err := fs.ReadFile(d.fsys, path)
	if err != nil {
		return nil, &ResourceError{Path: path, Err: fmt.Errorf("%w: %v", ErrResourceNotFound, err)}
	}
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ResourceError{Path: path, Err: fmt.Errorf("%w: %v", ErrInvalidResource, err)}
	}
	return raw, nil
}

func (d *KnowledgeDomain) loadExamples(path string) (ExampleSet, error) {
	data, err := fs.ReadFile(d.fsys, path)
	if err != nil {
		return nil, &ResourceError{Path: path, Err: fmt.Errorf("%w: %v", ErrResourceNotFound, err)}
	}
	set, err := parseExampleSet(data)
	if err != nil {
		return nil, &ResourceError{Path: path, Err: err}
	}
	return set, nil
}

// IsResourceNotFound reports whether err is (or wraps) ErrResourceNotFound.
func IsResourceNotFound(err error) bool {
	return errors.Is(err, ErrResourceNotFound)
}
