package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"

	"document-search-platform/internal/logger"
)

var (
	// ErrRateLimited signals a provider quota/rate-limit rejection. Callers
	// treat this as the trigger for degraded embedding mode.
	ErrRateLimited = errors.New("provider rate limited")

	// ErrProviderUnavailable signals any other provider failure, including an
	// open circuit breaker. Callers fall back for the current request only.
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// Client wraps the Gemini API for embeddings and completions. Calls go
// through a client-side rate limiter and a circuit breaker so a failing
// provider degrades fast instead of stalling requests.
type Client struct {
	client     *genai.Client
	breaker    *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
	embedModel string
	genModel   string
}

// RateLimits describes provider request budgets per tier.
type RateLimits struct {
	RPM int // Requests per minute
	RPD int // Requests per day
}

func ratelimitsForTier(tier string) RateLimits {
	switch tier {
	case "tier1":
		return RateLimits{RPM: 1000, RPD: 10000}
	case "tier2":
		return RateLimits{RPM: 2000, RPD: 50000}
	default: // free
		return RateLimits{RPM: 10, RPD: 250}
	}
}

// NewClient creates a provider client for the given API key and tier.
func NewClient(ctx context.Context, apiKey, tier, embedModel, genModel string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name,
				"from", from.String(), "to", to.String())
		},
	})

	limits := ratelimitsForTier(tier)
	// Keep a 10% buffer under the provider RPM.
	burst := limits.RPM / 10
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(float64(limits.RPM)*0.9/60.0), burst)

	return &Client{
		client:     client,
		breaker:    breaker,
		limiter:    limiter,
		embedModel: embedModel,
		genModel:   genModel,
	}, nil
}

// Embed returns the provider embedding for text. Quota rejections are
// reported as ErrRateLimited; every other failure as ErrProviderUnavailable.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, "gemini.embed")
	defer span.End()
	span.SetAttributes(
		attribute.String("gemini.model", c.embedModel),
		attribute.Int("gemini.input_chars", len(text)),
	)

	if err := c.limiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("gemini.rate_limited", true))
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		model := c.client.EmbeddingModel(c.embedModel)
		resp, err := model.EmbedContent(ctx, genai.Text(text))
		if err != nil {
			return nil, err
		}
		if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
			return nil, errors.New("no embedding returned")
		}
		return resp.Embedding.Values, nil
	})
	if err != nil {
		if isQuotaError(err) {
			span.SetAttributes(attribute.Bool("gemini.rate_limited", true))
			return nil, fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		span.SetAttributes(attribute.Bool("gemini.error", true))
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	span.SetAttributes(attribute.Bool("gemini.success", true))
	return result.([]float32), nil
}

// Complete generates text for the prompt with the given context chunks
// prepended, using the same limiter and breaker as Embed.
func (c *Client) Complete(ctx context.Context, prompt string, contextChunks []string) (string, error) {
	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, "gemini.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("gemini.model", c.genModel),
		attribute.Int("gemini.context_chunks", len(contextChunks)),
	)

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		model := c.client.GenerativeModel(c.genModel)
		model.SetTemperature(0.7)
		model.SetMaxOutputTokens(2048)

		resp, err := model.GenerateContent(ctx, genai.Text(buildPromptWithContext(prompt, contextChunks)))
		if err != nil {
			return nil, err
		}
		return flattenResponse(resp), nil
	})
	if err != nil {
		if isQuotaError(err) {
			span.SetAttributes(attribute.Bool("gemini.rate_limited", true))
			return "", fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		span.SetAttributes(attribute.Bool("gemini.error", true))
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	span.SetAttributes(attribute.Bool("gemini.success", true))
	return result.(string), nil
}

// Close releases the underlying API client.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// isQuotaError reports whether the provider rejected the call for quota or
// rate-limit reasons, as opposed to a transient or structural failure.
func isQuotaError(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == 429 {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "quota") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "resource exhausted") ||
		strings.Contains(msg, "resource_exhausted")
}

// flattenResponse extracts the text parts of a generation response.
func flattenResponse(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	return sb.String()
}

// buildPromptWithContext prepends numbered context blocks to the prompt.
func buildPromptWithContext(prompt string, contextChunks []string) string {
	if len(contextChunks) == 0 {
		return prompt
	}

	var sb strings.Builder
	sb.WriteString("Based on the following context:\n\n")
	for i, chunk := range contextChunks {
		fmt.Fprintf(&sb, "Context %d:\n%s\n\n", i+1, chunk)
	}
	sb.WriteString("Please answer this question: ")
	sb.WriteString(prompt)
	return sb.String()
}
