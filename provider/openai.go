package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/playstateprojects/autolocalize"
	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements Provider using OpenAI's chat-completions API.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// OpenAIConfig holds configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey      string  // OpenAI API key (uses OPENAI_API_KEY env var if empty)
	Model       string  // Model to use (default: "gpt-4o-mini")
	Temperature float32 // Temperature for generation (default: 0.3)
	MaxTokens   int     // Completion token limit (0 = provider default)
	BaseURL     string  // Custom base URL (optional)
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		temperature: temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// TranslateFields translates a batch of field values using OpenAI. The
// response must be a JSON object carrying exactly the requested field
// paths as keys, each a string.
func (p *OpenAIProvider) TranslateFields(ctx context.Context, req FieldTranslationRequest) (map[string]string, error) {
	if len(req.Paths) == 0 {
		return map[string]string{}, nil
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.buildSystemPrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: p.buildUserMessage(req)},
		},
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, &autolocalize.ProviderError{
			Message:   "OpenAI API call failed",
			Cause:     err,
			Retryable: isRetryableError(err),
		}
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, &autolocalize.ProviderError{
			Message:   "empty response from OpenAI",
			Retryable: true,
		}
	}

	return p.parseResponse(resp.Choices[0].Message.Content, req.Paths)
}

func (p *OpenAIProvider) buildSystemPrompt(req FieldTranslationRequest) string {
	sourceName := autolocalize.GetLanguageName(req.SourceLocale)
	targetName := autolocalize.GetLanguageName(req.TargetLocale)

	prompt := fmt.Sprintf(`# Role
You are an expert native translator. You translate content from %s to %s with the fluency and nuance of a highly educated native speaker.

# Task
You receive a JSON object whose keys are content-field identifiers and whose values are the texts to translate. Translate every value into idiomatic %s.

# Style Guide
- **Natural Flow**: Avoid literal translations. Rephrase sentences to sound completely natural to a native speaker.
- **Idioms**: Never translate idioms literally. Replace them with natural %s equivalents.
- **Interpolation**: Do NOT translate variables or placeholders (e.g., {{name}}, {count}, %%s, $1).
- **Formatting**: Preserve meaningful whitespace, including newlines between paragraphs. Use idiomatic punctuation for the target language.

# Format
Return a valid JSON object with EXACTLY the same keys as the input, each value the translated string.
- Do NOT translate, rename, reorder or drop any key.
- An empty input value stays an empty string.
- Do NOT wrap the output in Markdown code blocks.`, sourceName, targetName, targetName, targetName)

	if req.Collection != "" {
		prompt += fmt.Sprintf("\n\n# Context\nThe texts belong to a %q content record. Adapt the tone to be appropriate for this context.", req.Collection)
	}

	return prompt
}

// buildUserMessage serializes the fields as a JSON object in the request's
// path order, so identical inputs always yield the identical prompt.
func (p *OpenAIProvider) buildUserMessage(req FieldTranslationRequest) string {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, path := range req.Paths {
		if i > 0 {
			b.WriteByte(',')
		}
		key, _ := json.Marshal(path)
		val, _ := json.Marshal(req.Values[path])
		b.Write(key)
		b.WriteByte(':')
		b.Write(val)
	}
	b.WriteByte('}')
	return b.String()
}

func (p *OpenAIProvider) parseResponse(content string, paths []string) (map[string]string, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, &autolocalize.ProviderError{
			Message:   "invalid response format from OpenAI",
			Cause:     err,
			Retryable: false,
		}
	}

	result := make(map[string]string, len(paths))
	var missing []string
	for _, path := range paths {
		s, ok := raw[path].(string)
		if !ok {
			missing = append(missing, path)
			continue
		}
		result[path] = s
	}

	if len(missing) > 0 {
		return nil, &autolocalize.ProviderError{
			Message:   "incomplete translation response",
			Cause:     &autolocalize.ResponseKeyError{Missing: missing},
			Retryable: false,
		}
	}

	return result, nil
}

func isRetryableError(err error) bool {
	// Check for common retryable conditions
	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"rate limit",
		"timeout",
		"connection refused",
		"temporary",
		"503",
		"502",
		"429",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// Verify OpenAIProvider implements Provider
var _ Provider = (*OpenAIProvider)(nil)
