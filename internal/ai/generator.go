package ai

import (
	"context"
	"sync"

	"postpilot/internal/logger"
	"postpilot/models"
)

// VersionGenerator fans a prompt out into N independent candidate
// pipelines (caption text -> parse -> image) and joins on all of them.
// Partial batches are never returned: one hard failure fails the batch,
// but sibling pipelines are left to finish rather than cancelled.
type VersionGenerator struct {
	text  TextGenerator
	image ImageGenerator
	count int
}

func NewVersionGenerator(text TextGenerator, image ImageGenerator, count int) *VersionGenerator {
	if count < 1 {
		count = 3
	}
	return &VersionGenerator{text: text, image: image, count: count}
}

// Count returns the batch size.
func (g *VersionGenerator) Count() int {
	return g.count
}

// Generate produces the full candidate batch in version order 1..N.
func (g *VersionGenerator) Generate(ctx context.Context, prompt string) ([]models.Candidate, error) {
	candidates := make([]models.Candidate, g.count)
	errs := make([]error, g.count)

	var wg sync.WaitGroup
	for i := 0; i < g.count; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			candidates[idx], errs[idx] = g.generateVersion(ctx, prompt, idx+1)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			logger.Error("generation batch failed", "prompt_length", len(prompt), "error", err)
			return nil, err
		}
	}

	logger.Info("generation batch completed", "versions", g.count)
	return candidates, nil
}

func (g *VersionGenerator) generateVersion(ctx context.Context, prompt string, version int) (models.Candidate, error) {
	raw, err := g.text.GenerateCaption(ctx, prompt, version)
	if err != nil {
		return models.Candidate{}, err
	}

	caption, hashtags := ParsePostContent(raw)

	imageURL, err := g.image.GenerateImage(ctx, prompt, version)
	if err != nil {
		return models.Candidate{}, err
	}

	return models.Candidate{
		Caption:  caption,
		Hashtags: hashtags,
		ImageURL: imageURL,
	}, nil
}
