package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/menta2k/page-annotator/pkg/client"
)

// DefaultTimeout applies when the caller's context has no deadline
const DefaultTimeout = 120 * time.Second

// Client wraps the Ollama API client
type Client struct {
	client *api.Client
}

var _ client.VisionClient = (*Client)(nil)

// NewClient creates a new Ollama client. Any path in ollamaURL, such as
// /api/chat, is ignored.
func NewClient(ollamaURL string) (*Client, error) {
	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid URL %q: scheme and host are required", ollamaURL)
	}

	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}

	// Create client with the specified URL, ignoring environment
	return &Client{client: api.NewClient(baseURL, http.DefaultClient)}, nil
}

// Describe sends the image with its prompt and returns the model's answer
func (c *Client) Describe(ctx context.Context, req client.Request) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}

	options := map[string]any{}
	if req.Temperature > 0 {
		options["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}

	streamFalse := false
	chatReq := &api.ChatRequest{
		Model: req.Model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: req.Prompt,
				Images:  []api.ImageData{api.ImageData(req.Image)},
			},
		},
		Stream:  &streamFalse,
		Options: options,
	}

	var content strings.Builder
	err := c.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat error: %w", err)
	}

	if content.Len() == 0 {
		return "", fmt.Errorf("empty response from ollama")
	}
	return content.String(), nil
}
