package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type OpenAIProvider struct {
	APIKey  string
	BaseURL string
	Model   string

	HTTPClient *http.Client
}

var _ Provider = (*OpenAIProvider)(nil)

func (o *OpenAIProvider) ID() string { return "openai" }

type openAIContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIMessage struct {
	Role    string              `json:"role"`
	Content []openAIContentPart `json:"content"`
}

type openAIRequest struct {
	Model          string          `json:"model"`
	Messages       []openAIMessage `json:"messages"`
	Temperature    float32         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat json.RawMessage `json:"response_format,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

func (o *OpenAIProvider) Generate(ctx context.Context, turns []Turn, cfg RequestConfig) (string, int, error) {
	return o.generate(ctx, turns, cfg, nil)
}

func (o *OpenAIProvider) GenerateBool(ctx context.Context, turns []Turn, field string, cfg RequestConfig) (bool, int, error) {
	format, err := json.Marshal(map[string]any{
		"type": "json_schema",
		"json_schema": map[string]any{
			"name":   "decision",
			"strict": true,
			"schema": map[string]any{
				"type": "object",
				"properties": map[string]any{
					field: map[string]any{"type": "boolean"},
				},
				"required":             []string{field},
				"additionalProperties": false,
			},
		},
	})
	if err != nil {
		return false, 0, err
	}

	text, tokens, err := o.generate(ctx, turns, cfg, format)
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

func (o *OpenAIProvider) generate(ctx context.Context, turns []Turn, cfg RequestConfig, responseFormat json.RawMessage) (string, int, error) {
	messages := make([]openAIMessage, 0, len(turns))
	for _, turn := range turns {
		role := "user"
		switch turn.Role {
		case RoleSystem:
			role = "system"
		case RoleAssistant:
			role = "assistant"
		}

		var content []openAIContentPart
		for _, part := range turn.Parts {
			switch {
			case part.ImageURL != "":
				content = append(content, openAIContentPart{
					Type:     "image_url",
					ImageURL: &openAIImageURL{URL: part.ImageURL},
				})
			case part.Text != "":
				content = append(content, openAIContentPart{Type: "text", Text: part.Text})
			}
		}
		if len(content) == 0 {
			continue
		}
		messages = append(messages, openAIMessage{Role: role, Content: content})
	}

	reqBody := openAIRequest{
		Model:          o.Model,
		Messages:       messages,
		Temperature:    cfg.Temperature,
		MaxTokens:      cfg.MaxTokens,
		ResponseFormat: responseFormat,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	client := o.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	var result openAIResponse
	err = withRetry(ctx, cfg.MaxAttempts, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/chat/completions", bytes.NewReader(jsonData))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+o.APIKey)

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
		}

		result = openAIResponse{}
		return json.NewDecoder(resp.Body).Decode(&result)
	})
	if err != nil {
		return "", 0, err
	}

	if len(result.Choices) == 0 {
		return "", 0, fmt.Errorf("empty response from model")
	}

	return result.Choices[0].Message.Content, result.Usage.TotalTokens, nil
}
