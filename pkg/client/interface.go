package client

import "context"

// Request is a single image question for a vision model
type Request struct {
	Model  string
	Prompt string
	// Image holds encoded image bytes of type MIMEType
	Image    []byte
	MIMEType string
	// MaxTokens limits the answer length; zero keeps the server default
	MaxTokens   int
	Temperature float64
}

// VisionClient answers questions about images in natural language
type VisionClient interface {
	Describe(ctx context.Context, req Request) (string, error)
}
