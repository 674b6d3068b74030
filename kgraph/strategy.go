package kgraph

import (
	"context"
	"sort"
	"sync"

	"github.com/kgconstruct/kgraph/graphutil"
)

// AugmentationStrategy formulates the bridging prompt sent to a Provider
// during one iteration of the augmentation loop (spec.md §4.6). A strategy
// is stateless across iterations; all iteration state lives in the loop
// itself (kgraph/augmentation.go).
type AugmentationStrategy interface {
	// Name is the strategy's registry key.
	Name() string

	// BuildPrompt formulates the prompt for one bridging iteration, given
	// the domain (for its augmentation prompt template and exemplars),
	// the triples accumulated so far, and the current weakly connected
	// components of the graph they form.
	BuildPrompt(ctx context.Context, domain *KnowledgeDomain, existing []Triple, components []graphutil.Component) (string, error)
}

var strategyRegistry = struct {
	mu   sync.RWMutex
	byID map[string]AugmentationStrategy
}{byID: make(map[string]AugmentationStrategy)}

// RegisterStrategy adds a strategy to the module-level registry, keyed by
// its Name(). Called from each strategy's defining package's init().
func RegisterStrategy(strategy AugmentationStrategy) {
	strategyRegistry.mu.Lock()
	defer strategyRegistry.mu.Unlock()
	strategyRegistry.byID[strategy.Name()] = strategy
}

// GetStrategy looks up a registered strategy by name.
func GetStrategy(name string) (AugmentationStrategy, error) {
	strategyRegistry.mu.RLock()
	defer strategyRegistry.mu.RUnlock()
	s, ok := strategyRegistry.byID[name]
	if !ok {
		return nil, &UnknownStrategyError{Name: name, Available: listStrategiesLocked()}
	}
	return s, nil
}

// ListStrategies returns the names of every registered strategy, sorted.
func ListStrategies() []string {
	strategyRegistry.mu.RLock()
	defer strategyRegistry.mu.RUnlock()
	return listStrategiesLocked()
}

func listStrategiesLocked() []string {
	names := make([]string, 0, len(strategyRegistry.byID))
	for name := range strategyRegistry.byID {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
