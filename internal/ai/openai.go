package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIClient talks to any OpenAI-compatible chat completion endpoint.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a client. baseURL may point at a compatible server.
func NewOpenAIClient(apiKey, model, baseURL string) (*OpenAIClient, error) {
	if err := validateAPIKey(apiKey); err != nil {
		return nil, err
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	if model == "" {
		model = defaultOpenAIModel
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}, nil
}

func (c *OpenAIClient) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", &AIError{Message: apiErr.Message, StatusCode: apiErr.HTTPStatusCode}
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return "", &AIError{Message: reqErr.Error(), StatusCode: reqErr.HTTPStatusCode}
		}
		return "", &AIError{
			Message:    fmt.Sprintf("failed to call OpenAI API: %v", err),
			StatusCode: 500,
		}
	}
	if len(resp.Choices) == 0 {
		return "[]", nil
	}
	return resp.Choices[0].Message.Content, nil
}
