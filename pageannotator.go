// Package pageannotator captures web pages and turns them into annotated
// screenshots.
//
// The package combines a browser session with the screenshot helpers from
// pkg/graphics: it takes a full page screenshot, reads the device pixel
// ratio, maps each requested element onto screenshot pixels, cuts out the
// element images, and draws labeled bounding boxes onto a copy of the page.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		pageannotator "github.com/menta2k/page-annotator"
//		"github.com/menta2k/page-annotator/pkg/chrome"
//	)
//
//	func main() {
//		ctx := context.Background()
//
//		browser, err := chrome.New(ctx, chrome.DefaultOptions())
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer browser.Close()
//
//		snap := pageannotator.New(browser)
//		shot, err := snap.Capture(ctx, "https://example.com", []string{"h1", "a"})
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		annotated, err := snap.Annotate(shot, pageannotator.DefaultStyle())
//		if err != nil {
//			log.Fatal(err)
//		}
//		_ = annotated
//	}
//
// The package consists of these components:
//
//  1. Graphics (pkg/graphics): cropping, element screenshots, boxes and text
//  2. Chrome (pkg/chrome): a chromedp backed implementation of pkg/driver
//  3. Caption (pkg/caption): optional element labels from a vision model
//  4. Processing (pkg/processing): loading and saving images
package pageannotator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/menta2k/page-annotator/pkg/caption"
	"github.com/menta2k/page-annotator/pkg/driver"
	"github.com/menta2k/page-annotator/pkg/graphics"
	"github.com/menta2k/page-annotator/pkg/types"
)

// Version of the page annotator library
const Version = "1.0.0"

// Element is one requested element of a captured page
type Element struct {
	Selector string `json:"selector"`
	// BBox is in screenshot pixels
	BBox    types.Rectangle `json:"bbox"`
	Image   image.Image     `json:"-"`
	Caption string          `json:"caption,omitempty"`
	// Err is set when the element could not be located or cut out
	Err error `json:"-"`
}

// MarshalJSON adds the element's error message, if any, under "error"
func (e Element) MarshalJSON() ([]byte, error) {
	type element Element
	out := struct {
		element
		Error string `json:"error,omitempty"`
	}{element: element(e)}
	if e.Err != nil {
		out.Error = e.Err.Error()
	}
	return json.Marshal(out)
}

// Label returns the caption if there is one, the selector otherwise
func (e Element) Label() string {
	if e.Caption != "" {
		return e.Caption
	}
	return e.Selector
}

// Snapshot is the result of capturing a page
type Snapshot struct {
	URL        string      `json:"url"`
	Page       image.Image `json:"-"`
	PixelRatio float64     `json:"pixel_ratio"`
	Elements   []Element   `json:"elements"`
}

// Style controls how Annotate draws
type Style struct {
	BoxColor    types.Color
	TextColor   types.Color
	StrokeWidth int
	FontSize    float64
}

// DefaultStyle returns red boxes with red labels
func DefaultStyle() Style {
	return Style{
		BoxColor:    types.RGBA(255, 0, 0, 200),
		TextColor:   types.Red,
		StrokeWidth: 2,
		FontSize:    14,
	}
}

// Snapshotter captures and annotates pages
type Snapshotter struct {
	browser   driver.Browser
	annotator *graphics.Annotator
	captioner *caption.Captioner
}

// New creates a Snapshotter using the bundled font and no captions
func New(browser driver.Browser) *Snapshotter {
	return &Snapshotter{
		browser:   browser,
		annotator: graphics.New(),
	}
}

// NewWithAnnotator creates a Snapshotter with a custom text annotator
func NewWithAnnotator(browser driver.Browser, annotator *graphics.Annotator) *Snapshotter {
	return &Snapshotter{
		browser:   browser,
		annotator: annotator,
	}
}

// SetCaptioner enables vision model captions
func (s *Snapshotter) SetCaptioner(captioner *caption.Captioner) {
	s.captioner = captioner
}

// Capture loads url, takes a full page screenshot and cuts out every element
// matching selectors. Elements that cannot be located or cropped keep their
// error in Element.Err; only failures affecting the whole page are returned.
func (s *Snapshotter) Capture(ctx context.Context, url string, selectors []string) (*Snapshot, error) {
	if err := s.browser.Navigate(ctx, url); err != nil {
		return nil, err
	}

	ratio, err := graphics.GetDevicePixelRatio(ctx, s.browser)
	if err != nil {
		return nil, err
	}

	page, err := s.browser.FullScreenshot(ctx)
	if err != nil {
		return nil, err
	}

	shot := &Snapshot{
		URL:        url,
		Page:       page,
		PixelRatio: ratio,
		Elements:   make([]Element, 0, len(selectors)),
	}

	for _, selector := range selectors {
		shot.Elements = append(shot.Elements, s.captureElement(ctx, page, ratio, selector))
	}

	return shot, nil
}

func (s *Snapshotter) captureElement(ctx context.Context, page image.Image, ratio float64, selector string) Element {
	el := Element{Selector: selector}

	cssRect, err := s.browser.ElementRect(ctx, selector)
	if err != nil {
		el.Err = err
		return el
	}

	el.BBox = ToScreenshotRect(cssRect, ratio, page.Bounds())
	el.Image, el.Err = graphics.TakeElementScreenshot(page, el.BBox)
	return el
}

// ToScreenshotRect maps a CSS pixel rectangle onto screenshot pixels.
// Rounding can push an element flush with the page edge one pixel past the
// screenshot; such overflow is trimmed, anything larger is kept so that
// TakeElementScreenshot reports it.
func ToScreenshotRect(cssRect types.Rectangle, ratio float64, page image.Rectangle) types.Rectangle {
	r := cssRect.Scale(ratio)
	w, h := page.Dx(), page.Dy()
	if r.Max.X == w+1 {
		r.Max.X = w
	}
	if r.Max.Y == h+1 {
		r.Max.Y = h
	}
	return r
}

// Caption labels every successfully captured element using the configured
// captioner. Captioning failures are returned together with the first
// failing selector; elements captioned before the failure keep their labels.
func (s *Snapshotter) Caption(ctx context.Context, shot *Snapshot) error {
	if s.captioner == nil {
		return fmt.Errorf("no captioner configured")
	}
	for i := range shot.Elements {
		el := &shot.Elements[i]
		if el.Err != nil || el.Image == nil {
			continue
		}
		label, err := s.captioner.Caption(ctx, el.Image)
		if err != nil {
			return fmt.Errorf("failed to caption %s: %w", el.Selector, err)
		}
		el.Caption = label
	}
	return nil
}

// Annotate returns a copy of the page with a box and a label drawn for every
// successfully captured element. The label sits on top of the box, or inside
// it when the box touches the top of the page.
func (s *Snapshotter) Annotate(shot *Snapshot, style Style) (*image.NRGBA, error) {
	if shot == nil || shot.Page == nil {
		return nil, errors.New("snapshot has no page image")
	}
	canvas := imaging.Clone(shot.Page)

	for _, el := range shot.Elements {
		if el.Err != nil {
			continue
		}
		graphics.DrawRect(canvas, el.BBox, style.BoxColor, style.StrokeWidth)

		label := el.Label()
		if label == "" {
			continue
		}
		_, textH, err := s.annotator.MeasureText(style.FontSize, label)
		if err != nil {
			return nil, err
		}
		anchor := types.Pt(el.BBox.Min.X, el.BBox.Min.Y-textH)
		if anchor.Y < 0 {
			anchor.Y = el.BBox.Min.Y + style.StrokeWidth
		}
		if err := s.annotator.DrawText(canvas, anchor, style.TextColor, style.FontSize, label); err != nil {
			return nil, fmt.Errorf("failed to label %s: %w", el.Selector, err)
		}
	}

	return canvas, nil
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
