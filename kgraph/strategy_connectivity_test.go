package kgraph

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kgconstruct/kgraph/graphutil"
)

func TestConnectivityStrategyBuildPromptSubstitutesTokens(t *testing.T) {
	strategy, err := GetStrategy("connectivity")
	if err != nil {
		t.Fatalf("GetStrategy: %v", err)
	}

	existing := []Triple{mustTriple(t, "A", "r1", "B")}
	components := []graphutil.Component{{"A", "B"}, {"C", "D"}}

	prompt, err := strategy.BuildPrompt(context.Background(), testDomain(t), existing, components)
	if err != nil {
		t.Fatalf("BuildPrompt: %v", err)
	}

	if strings.Contains(prompt, "{{components}}") || strings.Contains(prompt, "{{triples}}") || strings.Contains(prompt, "{{examples}}") {
		t.Fatalf("prompt still contains unsubstituted tokens: %s", prompt)
	}
	if !strings.Contains(prompt, "A, B") {
		t.Fatalf("prompt missing rendered component: %s", prompt)
	}
	if !strings.Contains(prompt, `"head":"A"`) {
		t.Fatalf("prompt missing rendered existing triple: %s", prompt)
	}
}

func TestFormatComponentsTruncatesLargeComponent(t *testing.T) {
	big := make(graphutil.Component, 15)
	for i := range big {
		big[i] = "node"
	}
	out := formatComponents([]graphutil.Component{big})
	if !strings.Contains(out, "more)") {
		t.Fatalf("expected truncation marker, got %q", out)
	}
}

func TestFormatComponentsTruncatesManyComponents(t *testing.T) {
	var components []graphutil.Component
	for i := 0; i < 40; i++ {
		components = append(components, graphutil.Component{"x"})
	}
	out := formatComponents(components)
	if !strings.Contains(out, "more components") {
		t.Fatalf("expected components truncation marker, got %q", out)
	}
}

func TestListStrategiesIncludesConnectivity(t *testing.T) {
	names := ListStrategies()
	found := false
	for _, n := range names {
		if n == "connectivity" {
			found = true
		}
	}
	if !found {
		t.Fatalf("ListStrategies() = %v, want it to include \"connectivity\"", names)
	}
}

func TestGetStrategyUnknownName(t *testing.T) {
	_, err := GetStrategy("does-not-exist")
	if err == nil {
		t.Fatal("GetStrategy: want error for unregistered strategy, got nil")
	}
	var unknown *UnknownStrategyError
	if !errors.As(err, &unknown) {
		t.Fatalf("error type = %T, want *UnknownStrategyError", err)
	}
}
