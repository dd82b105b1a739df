package ai

import (
	"context"
	"errors"
	"fmt"
	neturl "net/url"
	"strings"

	anthropicclient "github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	appcfg "github.com/daylog/core/internal/config"
	openaiclient "github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"
)

const anthropicMaxTokens = 2048

// NewGenerator builds the generator selected by cfg.Generation.Provider.
// Construction never fails on a missing key; callers check
// cfg.GenerationReady before each request.
func NewGenerator(cfg *appcfg.AppConfig) (Generator, error) {
	gen := cfg.Generation
	apiKey := strings.TrimSpace(gen.APIKey)
	endpoint := strings.TrimSpace(gen.BaseURL)
	model := cfg.GenerationModel()

	switch gen.Provider {
	case appcfg.ProviderAnthropic:
		opts := []anthropicoption.RequestOption{
			anthropicoption.WithAPIKey(apiKey),
			anthropicoption.WithMaxRetries(0),
		}
		if endpoint != "" {
			opts = append(opts, anthropicoption.WithBaseURL(strings.TrimRight(endpoint, "/")))
		}
		client := anthropicclient.NewClient(opts...)
		return &anthropicGenerator{client: client, model: model}, nil

	case appcfg.ProviderOpenAI, "":
		opts := []openaioption.RequestOption{
			openaioption.WithAPIKey(apiKey),
			openaioption.WithMaxRetries(0),
		}
		if normalized := normalizeOpenAIBaseURL(endpoint); normalized != "" {
			opts = append(opts, openaioption.WithBaseURL(normalized))
		}
		client := openaiclient.NewClient(opts...)
		return &openAIGenerator{client: client, model: model}, nil

	default:
		return nil, fmt.Errorf("unsupported generation provider %q", gen.Provider)
	}
}

type openAIGenerator struct {
	client openaiclient.Client
	model  string
}

func (g *openAIGenerator) Generate(ctx context.Context, p Prompt) (Generation, error) {
	completion, err := g.client.Chat.Completions.New(ctx, openaiclient.ChatCompletionNewParams{
		Model: openaiclient.ChatModel(g.model),
		Messages: []openaiclient.ChatCompletionMessageParamUnion{
			openaiclient.SystemMessage(p.System),
			openaiclient.UserMessage(p.User),
		},
		Temperature: openaiclient.Float(p.Temperature),
	})
	if err != nil {
		var apiErr *openaiclient.Error
		if errors.As(err, &apiErr) {
			return Generation{}, &UpstreamError{Provider: "OpenAI", Status: apiErr.StatusCode, Body: apiErr.RawJSON(), Err: err}
		}
		return Generation{}, &UpstreamError{Provider: "OpenAI", Err: err}
	}

	var text string
	if len(completion.Choices) > 0 {
		text = strings.TrimSpace(completion.Choices[0].Message.Content)
	}
	if text == "" {
		return Generation{}, ErrEmptyGeneration
	}

	out := Generation{Text: text}
	if total := completion.Usage.TotalTokens; total > 0 {
		out.Usage = &Usage{TotalTokens: total}
	}
	return out, nil
}

type anthropicGenerator struct {
	client anthropicclient.Client
	model  string
}

func (g *anthropicGenerator) Generate(ctx context.Context, p Prompt) (Generation, error) {
	msg, err := g.client.Messages.New(ctx, anthropicclient.MessageNewParams{
		Model:       anthropicclient.Model(g.model),
		MaxTokens:   anthropicMaxTokens,
		System:      []anthropicclient.TextBlockParam{{Text: p.System}},
		Messages:    []anthropicclient.MessageParam{anthropicclient.NewUserMessage(anthropicclient.NewTextBlock(p.User))},
		Temperature: anthropicclient.Float(p.Temperature),
	})
	if err != nil {
		var apiErr *anthropicclient.Error
		if errors.As(err, &apiErr) {
			return Generation{}, &UpstreamError{Provider: "Anthropic", Status: apiErr.StatusCode, Body: apiErr.RawJSON(), Err: err}
		}
		return Generation{}, &UpstreamError{Provider: "Anthropic", Err: err}
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return Generation{}, ErrEmptyGeneration
	}

	out := Generation{Text: text}
	if total := msg.Usage.InputTokens + msg.Usage.OutputTokens; total > 0 {
		out.Usage = &Usage{TotalTokens: total}
	}
	return out, nil
}

func normalizeOpenAIBaseURL(raw string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		return ""
	}
	parsed, err := neturl.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return strings.TrimRight(base, "/")
	}

	path := strings.TrimRight(parsed.Path, "/")
	if !strings.HasSuffix(path, "/v1") {
		path += "/v1"
	}
	parsed.Path = path
	return strings.TrimRight(parsed.String(), "/")
}
