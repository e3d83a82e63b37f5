package extract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/sethvargo/go-retry"

	"github.com/isratransfer/trip-manager/backend/internal/domain"
)

// extractionTemperature is fixed low to favor deterministic, conservative
// field extraction over creativity.
const extractionTemperature = 0.2

// OpenAICompleter implements Completer against the OpenAI chat completions
// API with a strict-JSON response format and optional vision image parts.
type OpenAICompleter struct {
	client openai.Client
	model  shared.ChatModel
}

// OpenAIOptions configures an OpenAICompleter.
type OpenAIOptions struct {
	APIKey  string
	Model   string        // defaults to gpt-4o-mini
	BaseURL string        // optional override, e.g. a proxy or a stub in tests
	Timeout time.Duration // per-request timeout; defaults to 45s
}

// NewOpenAICompleter constructs an OpenAICompleter from the given options.
func NewOpenAICompleter(opts OpenAIOptions) *OpenAICompleter {
	model := opts.Model
	if model == "" {
		model = string(openai.ChatModelGPT4oMini)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithRequestTimeout(timeout),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	return &OpenAICompleter{
		client: openai.NewClient(reqOpts...),
		model:  shared.ChatModel(model),
	}
}

// Complete performs one completion call. Rate limits, 5xx responses, and
// timeouts are retried twice with exponential backoff before surfacing as
// domain.ErrUpstream; other API errors fail immediately.
func (c *OpenAICompleter) Complete(ctx context.Context, comp Completion) (string, error) {
	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(comp.UserText),
	}
	for _, url := range comp.ImageURLs {
		parts = append(parts, openai.ImageContentPart(
			openai.ChatCompletionContentPartImageImageURLParam{URL: url},
		))
	}

	params := openai.ChatCompletionNewParams{
		Model:       c.model,
		Temperature: openai.Float(extractionTemperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(comp.System),
			openai.UserMessage(parts),
		},
	}

	var content string
	backoff := retry.WithMaxRetries(2, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := c.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return classifyError(err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("completion returned no choices: %w", domain.ErrUpstream)
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

// classifyError maps provider failures onto domain.ErrUpstream and marks the
// transient ones (429, 5xx, timeouts) retryable for the backoff loop.
func classifyError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		wrapped := fmt.Errorf("openai status %d: %w", apiErr.StatusCode, domain.ErrUpstream)
		if apiErr.StatusCode == 429 || apiErr.StatusCode >= 500 {
			return retry.RetryableError(wrapped)
		}
		return wrapped
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	// Timeouts and network errors surface as plain errors from the client.
	return retry.RetryableError(fmt.Errorf("openai request failed: %v: %w", err, domain.ErrUpstream))
}
