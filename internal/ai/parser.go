package ai

import (
	"encoding/json"
	"strings"

	"postpilot/internal/logger"
)

// Fallbacks used when the model returns something other than the requested
// two-field JSON. Parsing must never fail the generation pipeline.
const FallbackCaption = "Check out this amazing post!"

var FallbackHashtags = []string{"#social", "#media", "#post"}

type postContent struct {
	Caption  string   `json:"caption"`
	Hashtags []string `json:"hashtags"`
}

// ParsePostContent extracts a caption and hashtag list from raw model
// output. The model is asked for {"caption": ..., "hashtags": [...]},
// possibly wrapped in a markdown code fence. Anything that doesn't decode
// to both fields falls back to the first line of the raw text (or the fixed
// caption when empty) plus the fixed hashtag set.
func ParsePostContent(raw string) (caption string, hashtags []string) {
	clean := stripCodeFence(strings.TrimSpace(raw))

	var content postContent
	if err := json.Unmarshal([]byte(clean), &content); err == nil &&
		content.Caption != "" && len(content.Hashtags) > 0 {
		return content.Caption, content.Hashtags
	}

	logger.Debug("model output was not valid post JSON, using fallback", "raw_length", len(raw))

	caption = firstLine(raw)
	if caption == "" {
		caption = FallbackCaption
	}
	return caption, append([]string(nil), FallbackHashtags...)
}

// stripCodeFence removes one surrounding markdown code fence, labeled
// (```json) or bare (```).
func stripCodeFence(s string) string {
	switch {
	case strings.HasPrefix(s, "```json"):
		s = strings.TrimPrefix(s, "```json")
	case strings.HasPrefix(s, "```"):
		s = strings.TrimPrefix(s, "```")
	default:
		return s
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}
