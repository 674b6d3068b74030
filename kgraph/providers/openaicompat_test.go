package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kgconstruct/kgraph"
)

func TestOpenAICompatExtractParsesFencedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "cmpl-1",
			"object": "chat.completion",
			"created": 0,
			"model": "local-model",
			"choices": [
				{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "` +
			`Here it is:\n` + "```" + `json\n[{\"head\":\"A\",\"relation\":\"r\",\"tail\":\"B\"}]\n` + "```" + `"}}
			]
		}`))
	}))
	defer srv.Close()

	provider, err := kgraph.NewProvider(kgraph.ClientConfig{ClientType: "openaicompat", BaseURL: srv.URL, ModelID: "local-model"})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}

	triples, err := provider.Extract(context.Background(), kgraph.Record{ID: "rec-1", Text: "some text"}, testDomain(t), kgraph.OpenExtraction)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(triples) != 1 || triples[0].Head() != "A" {
		t.Fatalf("Extract() = %+v, want one triple with head A", triples)
	}
}

func TestOpenAICompatExtractSkipsMalformedCandidateAmongValidOnes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "cmpl-1",
			"object": "chat.completion",
			"created": 0,
			"model": "local-model",
			"choices": [
				{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "` +
			`Here it is:\n` + "```" + `json\n[{\"head\":\"A\",\"relation\":\"r\",\"tail\":\"B\"},{\"head\":\"\",\"relation\":\"r2\",\"tail\":\"C\"}]\n` + "```" + `"}}
			]
		}`))
	}))
	defer srv.Close()

	provider, err := kgraph.NewProvider(kgraph.ClientConfig{ClientType: "openaicompat", BaseURL: srv.URL, ModelID: "local-model"})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}

	triples, err := provider.Extract(context.Background(), kgraph.Record{ID: "rec-1", Text: "some text"}, testDomain(t), kgraph.OpenExtraction)
	if err != nil {
		t.Fatalf("Extract: want malformed candidate to be skipped, not fail the whole response: %v", err)
	}
	if len(triples) != 1 || triples[0].Head() != "A" {
		t.Fatalf("Extract() = %+v, want one surviving triple with head A", triples)
	}
}

func TestOpenAICompatSupportsStructuredOutputFalse(t *testing.T) {
	provider, err := kgraph.NewProvider(kgraph.ClientConfig{ClientType: "openaicompat"})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	if provider.SupportsStructuredOutput() {
		t.Fatal("OpenAICompat.SupportsStructuredOutput() = true, want false")
	}
}

func TestOpenAICompatGenerateJSONPropagatesTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": {"message": "boom"}}`))
	}))
	defer srv.Close()

	provider, err := kgraph.NewProvider(kgraph.ClientConfig{ClientType: "openaicompat", BaseURL: srv.URL, ModelID: "local-model"})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}

	_, err = provider.GenerateJSON(context.Background(), "prompt")
	if err == nil {
		t.Fatal("GenerateJSON: want error on 500 response, got nil")
	}
	if !kgraph.IsProviderTransportError(err) {
		t.Fatalf("IsProviderTransportError(%v) = false, want true", err)
	}
}
