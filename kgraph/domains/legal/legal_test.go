package legal

import (
	"testing"

	"github.com/kgconstruct/kgraph"
)

func TestLegalDomainRegistersAndLoadsResources(t *testing.T) {
	domain, err := kgraph.GetDomain("legal")
	if err != nil {
		t.Fatalf("GetDomain(legal): %v", err)
	}

	schema, err := domain.Schema()
	if err != nil {
		t.Fatalf("Schema: %v", err)
	}
	if len(schema) == 0 {
		t.Fatal("Schema returned empty payload, want the legal entity/relation schema")
	}

	examples, err := domain.ExtractionExamples()
	if err != nil {
		t.Fatalf("ExtractionExamples: %v", err)
	}
	if len(examples) == 0 {
		t.Fatal("ExtractionExamples returned no exemplars, want at least one")
	}

	augExamples, err := domain.AugmentationExamples("connectivity")
	if err != nil {
		t.Fatalf("AugmentationExamples(connectivity): %v", err)
	}
	if len(augExamples) == 0 {
		t.Fatal("AugmentationExamples returned no exemplars, want at least one")
	}
}
