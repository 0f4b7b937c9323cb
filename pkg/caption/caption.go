package caption

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/menta2k/page-annotator/pkg/client"
	"github.com/menta2k/page-annotator/pkg/processing"
)

// DefaultPrompt asks for a label short enough to draw next to a bounding box
const DefaultPrompt = `This image is a screenshot of a single element cut out of a web page.
Name the element in at most five words, for example "search field" or "blue sign in button".
Answer with the name only. No punctuation, no quotes, no explanation.`

// Config holds configuration for captioning
type Config struct {
	Model    string
	Prompt   string
	MaxWords int
	// SendFormat and SendSize control the image sent to the model
	SendFormat  string
	SendSize    int
	SendQuality int
}

// DefaultConfig returns the configuration used by New
func DefaultConfig(model string) Config {
	return Config{
		Model:       model,
		Prompt:      DefaultPrompt,
		MaxWords:    5,
		SendFormat:  "png",
		SendSize:    768,
		SendQuality: 85,
	}
}

// Captioner labels element screenshots with a vision model
type Captioner struct {
	client    client.VisionClient
	processor *processing.Processor
	config    Config
}

// New creates a Captioner with default configuration
func New(c client.VisionClient, model string) *Captioner {
	return NewWithConfig(c, DefaultConfig(model))
}

// NewWithConfig creates a Captioner with custom configuration
func NewWithConfig(c client.VisionClient, config Config) *Captioner {
	if config.Prompt == "" {
		config.Prompt = DefaultPrompt
	}
	return &Captioner{
		client:    c,
		processor: processing.NewProcessor(),
		config:    config,
	}
}

// Caption returns a short label for img
func (c *Captioner) Caption(ctx context.Context, img image.Image) (string, error) {
	data, mime, err := c.processor.EncodeForModel(img, c.config.SendFormat, c.config.SendSize, c.config.SendQuality)
	if err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}

	answer, err := c.client.Describe(ctx, client.Request{
		Model:       c.config.Model,
		Prompt:      c.config.Prompt,
		Image:       data,
		MIMEType:    mime,
		MaxTokens:   32,
		Temperature: 0.2,
	})
	if err != nil {
		return "", err
	}

	label := Normalize(answer, c.config.MaxWords)
	if label == "" {
		return "", fmt.Errorf("model returned an empty caption")
	}
	return label, nil
}

// Normalize reduces a model answer to a single short line: first non-empty
// line, surrounding quotes and trailing punctuation removed, at most maxWords
// words (0 means no limit).
func Normalize(answer string, maxWords int) string {
	var line string
	for _, l := range strings.Split(answer, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			line = l
			break
		}
	}

	line = strings.Trim(line, "`\"'*")
	line = strings.TrimSpace(line)
	line = strings.TrimRight(line, ".!,;:")

	words := strings.Fields(line)
	if maxWords > 0 && len(words) > maxWords {
		words = words[:maxWords]
	}
	return strings.Join(words, " ")
}
