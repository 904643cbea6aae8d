package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"

	"postpilot/internal/logger"
)

// TextGenerator produces the raw caption/hashtag text for one post version.
type TextGenerator interface {
	GenerateCaption(ctx context.Context, prompt string, version int) (string, error)
}

const captionSystemPrompt = `You are a creative social media expert. Generate engaging captions and relevant hashtags for social media posts.
Make each version unique and creative. Return ONLY valid JSON in this exact format:
{"caption": "your caption here", "hashtags": ["#tag1", "#tag2", "#tag3"]}`

// GeminiClient calls the Gemini API for caption generation, guarded by a
// circuit breaker and a client-side rate limiter.
type GeminiClient struct {
	breaker     *gobreaker.CircuitBreaker
	rateLimiter *rate.Limiter
	client      *genai.Client
	model       string
}

func NewGeminiClient(ctx context.Context, apiKey, model string, rpm int) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiText",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	// RPM limit with some buffer
	if rpm < 1 {
		rpm = 10
	}
	rateLimiter := rate.NewLimiter(rate.Limit(float64(rpm)*0.9/60.0), rpm)

	return &GeminiClient{
		breaker:     breaker,
		rateLimiter: rateLimiter,
		client:      client,
		model:       model,
	}, nil
}

// GenerateCaption requests one version of caption text. The version index
// is embedded in the prompt so every version comes out different.
func (gc *GeminiClient) GenerateCaption(ctx context.Context, prompt string, version int) (string, error) {
	tracer := otel.Tracer("generation")
	ctx, span := tracer.Start(ctx, "ai.generate_caption")
	defer span.End()

	span.SetAttributes(
		attribute.Int("post.version", version),
		attribute.String("ai.model", gc.model),
	)

	if err := gc.rateLimiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("ai.rate_limited", true))
		return "", &GenerationError{Stage: "text", Version: version, Err: err}
	}

	result, err := gc.breaker.Execute(func() (interface{}, error) {
		model := gc.client.GenerativeModel(gc.model)
		model.SetTemperature(0.9)
		model.SetMaxOutputTokens(1024)
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(captionSystemPrompt)},
		}

		userPrompt := fmt.Sprintf("Create version %d for: %s. Make it unique and engaging.", version, prompt)
		resp, err := model.GenerateContent(ctx, genai.Text(userPrompt))
		if err != nil {
			return nil, err
		}

		text := responseText(resp)
		if text == "" {
			return nil, errors.New("no content generated")
		}
		return text, nil
	})
	if err != nil {
		span.SetAttributes(
			attribute.Bool("ai.error", true),
			attribute.String("ai.error_message", err.Error()),
		)
		logger.Error("caption generation failed", "version", version, "error", err)
		return "", &GenerationError{Stage: "text", Version: version, Err: err}
	}

	span.SetAttributes(attribute.Bool("ai.success", true))
	return result.(string), nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	var out string
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				out += string(text)
			}
		}
		break
	}
	return out
}

// Close the underlying client.
func (gc *GeminiClient) Close() error {
	if gc.client != nil {
		return gc.client.Close()
	}
	return nil
}
