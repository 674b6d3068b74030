package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/kgconstruct/kgraph"
	_ "github.com/kgconstruct/kgraph/domains/default"
	_ "github.com/kgconstruct/kgraph/domains/legal"
	_ "github.com/kgconstruct/kgraph/providers"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	ctx := context.Background()
	config := kgraph.ClientConfigFromEnv()
	if config.ClientType == "" {
		config.ClientType = "native"
	}
	if config.ModelID == "" {
		config.ModelID = "llama3.1"
	}

	provider, err := kgraph.NewProvider(config)
	if err != nil {
		log.Fatalf("kgraph.NewProvider: %v", err)
	}

	domain, err := kgraph.GetDomain("legal")
	if err != nil {
		log.Fatalf("kgraph.GetDomain: %v", err)
	}

	// Example 1: extract triples from a single record.
	fmt.Println("=== Example 1: Extraction ===")
	extractor := kgraph.NewExtractor(provider, domain, kgraph.OpenExtraction, config)
	record := kgraph.Record{
		ID: "doc-1",
		Text: "Morrison & Foerster LLP represented Smith Holdings in its appeal " +
			"before the UK Supreme Court. Lord Hope delivered the judgment.",
	}

	triples, err := extractor.ExtractRecord(ctx, record)
	if err != nil {
		log.Fatalf("ExtractRecord: %v", err)
	}
	printTriples(triples)

	// Example 2: run the augmentation loop to bridge any disconnected
	// components the initial extraction left behind.
	fmt.Println("\n=== Example 2: Augmentation ===")
	augmenter := kgraph.NewAugmenter(provider, domain, kgraph.AugmentationConfig{
		Strategy:        "connectivity",
		MaxDisconnected: 1,
		MaxIterations:   5,
	})

	final, meta, err := augmenter.Run(ctx, triples)
	if err != nil {
		log.Fatalf("Augmenter.Run: %v", err)
	}
	printTriples(final)

	metaJSON, _ := json.MarshalIndent(meta, "", "  ")
	fmt.Printf("\nAugmentation metadata:\n%s\n", metaJSON)

	fmt.Println("\n=== Available Providers ===")
	fmt.Println(kgraph.ListProviderTypes())
	fmt.Println("\n=== Available Domains ===")
	fmt.Println(kgraph.ListDomains())
	fmt.Println("\n=== Available Strategies ===")
	fmt.Println(kgraph.ListStrategies())
}

func printTriples(triples []kgraph.Triple) {
	for _, t := range triples {
		fmt.Printf("  (%s) -[%s]-> (%s) [%s]\n", t.Head(), t.Relation(), t.Tail(), t.Inference())
	}
}
