package providers

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/kgconstruct/kgraph"
)

func init() {
	kgraph.RegisterProvider("openaicompat", newOpenAICompatProvider)
}

// OpenAICompat talks to any OpenAI-compatible chat-completions server
// (LM Studio, vLLM's OpenAI-compatible endpoint, ...). It never sets
// ResponseFormat — many OpenAI-compatible local servers reject or ignore
// it — and instead relies on a system-message instruction plus
// fence-delimited JSON in the reply, normalized by
// kgraph.NormalizePayload (spec.md §4.3.2). Grounded on the teacher's
// adapters/openai_adapter.go and original_source's
// clients/lmstudio_client.py.
type OpenAICompat struct {
	client *openai.Client
	config kgraph.ClientConfig
}

func newOpenAICompatProvider(config kgraph.ClientConfig) (kgraph.Provider, error) {
	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	client := openai.NewClient(opts...)
	return &OpenAICompat{client: &client, config: config}, nil
}

func (o *OpenAICompat) ModelName() string { return o.config.ModelID }

// SupportsStructuredOutput is false: this provider never relies on a
// backend-enforced schema, per spec.md §4.3.2.
func (o *OpenAICompat) SupportsStructuredOutput() bool { return false }

func (o *OpenAICompat) Extract(ctx context.Context, record kgraph.Record, domain *kgraph.KnowledgeDomain, mode kgraph.ExtractionMode) ([]kgraph.Triple, error) {
	prompt, err := kgraph.BuildExtractionPromptForRecord(ctx, domain, mode, record)
	if err != nil {
		return nil, err
	}

	normalized, err := o.generateNormalized(ctx, prompt)
	if err != nil {
		return nil, err
	}

	triples, err := kgraph.ParseTripleCandidates(normalized)
	if err != nil {
		return nil, &kgraph.ProviderError{Provider: "openaicompat", Op: "extract", Err: fmt.Errorf("%w: %v", kgraph.ErrProviderParse, err)}
	}
	return triples, nil
}

func (o *OpenAICompat) GenerateJSON(ctx context.Context, prompt string) ([]byte, error) {
	return o.generateNormalized(ctx, prompt)
}

func (o *OpenAICompat) generateNormalized(ctx context.Context, prompt string) ([]byte, error) {
	raw, err := o.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	normalized, err := kgraph.NormalizePayload(raw)
	if err != nil {
		return nil, &kgraph.ProviderError{Provider: "openaicompat", Op: "normalize", Err: err}
	}
	return normalized, nil
}

func (o *OpenAICompat) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.config.Timeout())
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.config.ModelID),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("Respond with a JSON array only, wrapped in a single ```json code fence. Do not include any other text."),
			openai.UserMessage(prompt),
		},
	}
	if o.config.Temperature > 0 {
		params.Temperature = openai.Float(o.config.Temperature)
	}

	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", &kgraph.ProviderError{Provider: "openaicompat", Op: "chat_completion", Err: fmt.Errorf("%w: %v", kgraph.ErrProviderTransport, err)}
	}
	if len(completion.Choices) == 0 {
		return "", &kgraph.ProviderError{Provider: "openaicompat", Op: "chat_completion", Err: fmt.Errorf("%w: empty choices", kgraph.ErrProviderTransport)}
	}
	return completion.Choices[0].Message.Content, nil
}
