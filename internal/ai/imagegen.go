package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// ImageGenerator produces one image locator for a post version.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string, version int) (string, error)
}

// ImageClient talks to an OpenAI-compatible chat completions endpoint that
// supports an image response modality and returns the generated image as a
// URL (https or data URL).
type ImageClient struct {
	APIKey     string
	APIURL     string
	Model      string
	HTTPClient *http.Client
}

func NewImageClient(apiKey, apiURL, model string) *ImageClient {
	return &ImageClient{
		APIKey: apiKey,
		APIURL: apiURL,
		Model:  model,
		HTTPClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type chatRequest struct {
	Model      string        `json:"model"`
	Messages   []chatMessage `json:"messages"`
	Modalities []string      `json:"modalities,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *apiError    `json:"error,omitempty"`
}

type chatChoice struct {
	Message struct {
		Content string      `json:"content"`
		Images  []imagePart `json:"images"`
	} `json:"message"`
}

type imagePart struct {
	ImageURL struct {
		URL string `json:"url"`
	} `json:"image_url"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// GenerateImage requests one image for the prompt. The version index is
// folded into the prompt so each version gets a distinct style.
func (ic *ImageClient) GenerateImage(ctx context.Context, prompt string, version int) (string, error) {
	tracer := otel.Tracer("generation")
	ctx, span := tracer.Start(ctx, "ai.generate_image")
	defer span.End()

	span.SetAttributes(
		attribute.Int("post.version", version),
		attribute.String("ai.model", ic.Model),
	)

	request := chatRequest{
		Model: ic.Model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: fmt.Sprintf(
					"Create a beautiful, vibrant social media image for: %s. Make it eye-catching and suitable for platforms like Facebook and Instagram. Version %d should have a unique style.",
					prompt, version),
			},
		},
		Modalities: []string{"image", "text"},
	}

	imageURL, err := ic.makeRequest(ctx, request)
	if err != nil {
		span.SetAttributes(
			attribute.Bool("ai.error", true),
			attribute.String("ai.error_message", err.Error()),
		)
		return "", &GenerationError{Stage: "image", Version: version, Err: err}
	}

	span.SetAttributes(attribute.Bool("ai.success", true))
	return imageURL, nil
}

func (ic *ImageClient) makeRequest(ctx context.Context, request chatRequest) (string, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ic.APIURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+ic.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := ic.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image generation failed: status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("invalid gateway response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("gateway error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 || len(parsed.Choices[0].Message.Images) == 0 {
		return "", errors.New("no image generated")
	}

	url := parsed.Choices[0].Message.Images[0].ImageURL.URL
	if url == "" {
		return "", errors.New("no image generated")
	}
	return url, nil
}
