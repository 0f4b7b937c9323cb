package chrome

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"math"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/menta2k/page-annotator/pkg/driver"
	"github.com/menta2k/page-annotator/pkg/types"
)

var _ driver.Browser = (*Driver)(nil)

// Options configures the browser process
type Options struct {
	Headless     bool
	WindowWidth  int
	WindowHeight int
	UserAgent    string
	// ExecPath overrides the Chrome binary lookup
	ExecPath string
	// StartTimeout bounds browser start-up
	StartTimeout time.Duration
}

// DefaultOptions returns a headless 1280x800 window
func DefaultOptions() Options {
	return Options{
		Headless:     true,
		WindowWidth:  1280,
		WindowHeight: 800,
		StartTimeout: 30 * time.Second,
	}
}

// Driver is a single Chrome tab driven over the DevTools protocol
type Driver struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

// New starts a browser and opens a blank tab. The browser lives until Close
// is called or parent is cancelled.
func New(parent context.Context, opts Options) (*Driver, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("hide-scrollbars", true),
	)
	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, allocOpts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	d := &Driver{ctx: ctx, cancel: cancel, allocCancel: allocCancel}

	startCtx := context.Background()
	if opts.StartTimeout > 0 {
		var startCancel context.CancelFunc
		startCtx, startCancel = context.WithTimeout(startCtx, opts.StartTimeout)
		defer startCancel()
	}

	// The first Run allocates the browser on d.ctx itself so that the
	// browser is not bound to a per-call context.
	started := make(chan error, 1)
	go func() { started <- chromedp.Run(ctx) }()
	select {
	case err := <-started:
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("failed to start browser: %w", err)
		}
	case <-startCtx.Done():
		d.Close()
		return nil, fmt.Errorf("failed to start browser: %w", startCtx.Err())
	}

	return d, nil
}

// run executes actions in the tab, aborting when ctx is cancelled
func (d *Driver) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(d.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// Navigate loads url and waits for the page load event
func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := d.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// ExecuteScript runs script as the body of a function and returns its
// JSON-decoded result. null and undefined come back as nil.
func (d *Driver) ExecuteScript(ctx context.Context, script string) (any, error) {
	var obj *runtime.RemoteObject
	err := d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		res, exc, err := runtime.Evaluate(wrapScript(script)).
			WithReturnByValue(true).
			WithAwaitPromise(true).
			Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return fmt.Errorf("javascript exception: %s", exceptionText(exc))
		}
		obj = res
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to execute script: %w", err)
	}
	return decodeRemoteObject(obj)
}

// FullScreenshot captures the whole document, not only the visible viewport
func (d *Driver) FullScreenshot(ctx context.Context) (image.Image, error) {
	var buf []byte
	// quality 100 makes chromedp encode PNG
	if err := d.run(ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}
	return img, nil
}

// ElementRect returns the bounding box of the first element matching
// selector, in CSS pixels relative to the document origin.
func (d *Driver) ElementRect(ctx context.Context, selector string) (types.Rectangle, error) {
	script, err := elementRectScript(selector)
	if err != nil {
		return types.Rectangle{}, err
	}
	v, err := d.ExecuteScript(ctx, script)
	if err != nil {
		return types.Rectangle{}, err
	}
	if v == nil {
		return types.Rectangle{}, fmt.Errorf("no element matches selector %q", selector)
	}
	return parseRect(v)
}

// Close shuts down the tab and the browser process
func (d *Driver) Close() error {
	d.cancel()
	d.allocCancel()
	return nil
}

func wrapScript(body string) string {
	return "(function() {\n" + body + "\n})()"
}

func elementRectScript(selector string) (string, error) {
	sel, err := json.Marshal(selector)
	if err != nil {
		return "", fmt.Errorf("invalid selector: %w", err)
	}
	return fmt.Sprintf(`const el = document.querySelector(%s);
if (!el) { return null; }
const r = el.getBoundingClientRect();
return [r.left + window.scrollX, r.top + window.scrollY, r.right + window.scrollX, r.bottom + window.scrollY];`, sel), nil
}

func decodeRemoteObject(obj *runtime.RemoteObject) (any, error) {
	if obj == nil || obj.Type == runtime.TypeUndefined || obj.Subtype == runtime.SubtypeNull {
		return nil, nil
	}
	// NaN, Infinity and -0 only come as unserializable values
	if len(obj.Value) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal([]byte(obj.Value), &v); err != nil {
		return nil, fmt.Errorf("failed to decode script result: %w", err)
	}
	return v, nil
}

// parseRect converts [left, top, right, bottom] into a pixel rectangle that
// covers every partially occupied pixel.
func parseRect(v any) (types.Rectangle, error) {
	list, ok := v.([]any)
	if !ok || len(list) != 4 {
		return types.Rectangle{}, fmt.Errorf("unexpected element rect %v", v)
	}
	var edges [4]float64
	for i, e := range list {
		f, ok := e.(float64)
		if !ok {
			return types.Rectangle{}, fmt.Errorf("unexpected element rect %v", v)
		}
		edges[i] = f
	}
	return types.Rect(
		int(math.Floor(edges[0])),
		int(math.Floor(edges[1])),
		int(math.Ceil(edges[2])),
		int(math.Ceil(edges[3])),
	), nil
}

func exceptionText(exc *runtime.ExceptionDetails) string {
	if exc.Exception != nil && exc.Exception.Description != "" {
		return exc.Exception.Description
	}
	return exc.Text
}
