package caption

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/menta2k/page-annotator/pkg/client"
)

type fakeClient struct {
	answer string
	err    error
	req    client.Request
}

func (f *fakeClient) Describe(ctx context.Context, req client.Request) (string, error) {
	f.req = req
	return f.answer, f.err
}

func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{200, 50, 50, 255})
		}
	}
	return img
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in       string
		maxWords int
		want     string
	}{
		{"Search field", 5, "Search field"},
		{"  \"Sign in button.\"  ", 5, "Sign in button"},
		{"\n\nLogo\nThe company logo at the top.", 5, "Logo"},
		{"a large blue call to action button", 5, "a large blue call to"},
		{"a large blue call to action button", 0, "a large blue call to action button"},
		{"**Menu**", 5, "Menu"},
		{"   ", 5, ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in, tt.maxWords); got != tt.want {
			t.Errorf("Normalize(%q, %d) = %q, want %q", tt.in, tt.maxWords, got, tt.want)
		}
	}
}

func TestCaption(t *testing.T) {
	fc := &fakeClient{answer: "Checkout button."}
	c := New(fc, "llava")

	label, err := c.Caption(context.Background(), createTestImage(1000, 200))
	if err != nil {
		t.Fatalf("Caption failed: %v", err)
	}
	if label != "Checkout button" {
		t.Errorf("Unexpected label %q", label)
	}

	if fc.req.Model != "llava" {
		t.Errorf("Expected model llava, got %s", fc.req.Model)
	}
	if fc.req.MIMEType != "image/png" || len(fc.req.Image) == 0 {
		t.Errorf("Expected PNG payload, got %s with %d bytes", fc.req.MIMEType, len(fc.req.Image))
	}
	if fc.req.Prompt != DefaultPrompt {
		t.Error("Expected default prompt")
	}
}

func TestCaptionErrors(t *testing.T) {
	boom := errors.New("connection refused")
	c := New(&fakeClient{err: boom}, "llava")
	if _, err := c.Caption(context.Background(), createTestImage(10, 10)); !errors.Is(err, boom) {
		t.Errorf("Expected client error, got %v", err)
	}

	c = New(&fakeClient{answer: "\n  \n"}, "llava")
	if _, err := c.Caption(context.Background(), createTestImage(10, 10)); err == nil {
		t.Error("Expected error for empty caption")
	}
}

func TestNewWithConfigDefaultsPrompt(t *testing.T) {
	c := NewWithConfig(&fakeClient{}, Config{Model: "m"})
	if c.config.Prompt != DefaultPrompt {
		t.Error("Expected empty prompt to fall back to DefaultPrompt")
	}
}
