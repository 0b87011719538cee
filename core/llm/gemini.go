package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

type GeminiProvider struct {
	client *genai.Client
	model  string
}

var _ Provider = (*GeminiProvider)(nil)

func NewGemini(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiProvider{client: client, model: model}, nil
}

func (g *GeminiProvider) ID() string { return "gemini" }

func (g *GeminiProvider) Generate(ctx context.Context, turns []Turn, cfg RequestConfig) (string, int, error) {
	return g.generate(ctx, turns, cfg, nil)
}

func (g *GeminiProvider) GenerateBool(ctx context.Context, turns []Turn, field string, cfg RequestConfig) (bool, int, error) {
	schema := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			field: {Type: genai.TypeBoolean},
		},
		Required: []string{field},
	}

	text, tokens, err := g.generate(ctx, turns, cfg, schema)
	if err != nil {
		return false, tokens, err
	}

	var decoded map[string]bool
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return false, tokens, fmt.Errorf("structured response is not valid JSON: %w", err)
	}
	value, ok := decoded[field]
	if !ok {
		return false, tokens, fmt.Errorf("structured response is missing field %q", field)
	}
	return value, tokens, nil
}

func (g *GeminiProvider) generate(ctx context.Context, turns []Turn, cfg RequestConfig, schema *genai.Schema) (string, int, error) {
	system, contents, err := toGeminiContents(turns)
	if err != nil {
		return "", 0, err
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: system,
		Temperature:       genai.Ptr(cfg.Temperature),
		MaxOutputTokens:   int32(cfg.MaxTokens),
	}
	if schema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = schema
	}

	var resp *genai.GenerateContentResponse
	err = withRetry(ctx, cfg.MaxAttempts, func() error {
		var callErr error
		resp, callErr = g.client.Models.GenerateContent(ctx, g.model, contents, config)
		return callErr
	})
	if err != nil {
		return "", 0, fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", 0, fmt.Errorf("no response candidates returned")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		if candidate.FinishReason != "" {
			return "", 0, fmt.Errorf("response blocked (%s)", candidate.FinishReason)
		}
		return "", 0, fmt.Errorf("empty response content")
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		sb.WriteString(part.Text)
	}
	if sb.Len() == 0 {
		return "", 0, fmt.Errorf("no text in response")
	}

	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	return sb.String(), tokens, nil
}

// toGeminiContents folds system turns into a single system instruction and
// maps the rest onto the Gemini user/model roles. Inline data-URL images
// become inline byte blobs.
func toGeminiContents(turns []Turn) (*genai.Content, []*genai.Content, error) {
	var systemParts []*genai.Part
	var contents []*genai.Content

	for _, turn := range turns {
		parts, err := toGeminiParts(turn.Parts)
		if err != nil {
			return nil, nil, err
		}
		if len(parts) == 0 {
			continue
		}

		switch turn.Role {
		case RoleSystem:
			systemParts = append(systemParts, parts...)
		case RoleAssistant:
			contents = append(contents, &genai.Content{Role: "model", Parts: parts})
		default:
			contents = append(contents, &genai.Content{Role: "user", Parts: parts})
		}
	}

	var system *genai.Content
	if len(systemParts) > 0 {
		system = &genai.Content{Parts: systemParts}
	}
	return system, contents, nil
}

func toGeminiParts(parts []Part) ([]*genai.Part, error) {
	var out []*genai.Part
	for _, part := range parts {
		switch {
		case part.ImageURL != "":
			mimeType, data, err := decodeDataURL(part.ImageURL)
			if err != nil {
				return nil, fmt.Errorf("invalid inline image: %w", err)
			}
			out = append(out, genai.NewPartFromBytes(data, mimeType))
		case part.Text != "":
			out = append(out, genai.NewPartFromText(part.Text))
		}
	}
	return out, nil
}
