package driver

import (
	"context"
	"image"

	"github.com/menta2k/page-annotator/pkg/types"
)

// ScriptExecutor runs JavaScript in a live page. script is a function body;
// its return value is JSON-decoded, with null and undefined decoded as nil.
type ScriptExecutor interface {
	ExecuteScript(ctx context.Context, script string) (any, error)
}

// Browser is a page session able to produce screenshots and element positions
type Browser interface {
	ScriptExecutor
	Navigate(ctx context.Context, url string) error
	FullScreenshot(ctx context.Context) (image.Image, error)
	// ElementRect returns the element's box in CSS pixels relative to the
	// top-left corner of the document.
	ElementRect(ctx context.Context, selector string) (types.Rectangle, error)
	Close() error
}
