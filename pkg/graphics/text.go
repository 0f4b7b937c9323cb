package graphics

import (
	"fmt"
	"image"
	"image/draw"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/menta2k/page-annotator/pkg/types"
)

// DefaultTextPadding keeps labels this many pixels away from the right and
// bottom image edges.
const DefaultTextPadding = 2

// Config holds configuration for text rendering
type Config struct {
	// FontPath points to a TrueType or OpenType file. Empty selects the
	// bundled Go Regular face.
	FontPath string
	Padding  int
}

// Annotator draws labels with a single font face
type Annotator struct {
	font    *opentype.Font
	padding int
}

// New creates an Annotator using the bundled font
func New() *Annotator {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		// goregular is compiled into the binary
		panic(fmt.Sprintf("graphics: bundled font is corrupt: %v", err))
	}
	return &Annotator{font: f, padding: DefaultTextPadding}
}

// NewWithConfig creates an Annotator with a custom font and padding
func NewWithConfig(config Config) (*Annotator, error) {
	data := goregular.TTF
	if config.FontPath != "" {
		var err error
		data, err = os.ReadFile(config.FontPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read font file: %w", err)
		}
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", config.FontPath, err)
	}

	if config.Padding < 0 {
		return nil, fmt.Errorf("text padding must not be negative, got %d", config.Padding)
	}

	return &Annotator{font: f, padding: config.Padding}, nil
}

// face opens a face of the given pixel size. Callers must close it.
func (a *Annotator) face(size float64) (font.Face, error) {
	face, err := opentype.NewFace(a.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face of size %.1f: %w", size, err)
	}
	return face, nil
}

// MeasureText returns the width and height of text rendered at size
func (a *Annotator) MeasureText(size float64, text string) (width, height int, err error) {
	face, err := a.face(size)
	if err != nil {
		return 0, 0, err
	}
	defer face.Close()

	width, height = measure(face, text)
	return width, height, nil
}

func measure(face font.Face, text string) (width, height int) {
	m := face.Metrics()
	return font.MeasureString(face, text).Ceil(), (m.Ascent + m.Descent).Ceil()
}

// TextOrigin returns where a label of the given size is drawn when anchored
// at topLeft inside an image of imgW x imgH. The label is pushed left and up
// so it does not run past the right or bottom edge; the left and top edges
// are not guarded.
func TextOrigin(topLeft types.Point, imgW, imgH, textW, textH, padding int) types.Point {
	return types.Point{
		X: min(topLeft.X, imgW-textW-padding),
		Y: min(topLeft.Y, imgH-textH-padding),
	}
}

// DrawText renders text at size pixels in an opaque version of c, with its
// top-left corner as close to topLeft as the image allows.
func (a *Annotator) DrawText(img draw.Image, topLeft types.Point, c types.Color, size float64, text string) error {
	face, err := a.face(size)
	if err != nil {
		return err
	}
	defer face.Close()

	bounds := img.Bounds()
	textW, textH := measure(face, text)
	origin := TextOrigin(topLeft, bounds.Dx(), bounds.Dy(), textW, textH, a.padding)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c.NRGBA(false)),
		Face: face,
		// Dot is the baseline
		Dot: fixed.Point26_6{
			X: fixed.I(bounds.Min.X + origin.X),
			Y: fixed.I(bounds.Min.Y+origin.Y) + face.Metrics().Ascent,
		},
	}
	d.DrawString(text)
	return nil
}

var (
	defaultAnnotator     *Annotator
	defaultAnnotatorOnce sync.Once
)

func defaultTextAnnotator() *Annotator {
	defaultAnnotatorOnce.Do(func() {
		defaultAnnotator = New()
	})
	return defaultAnnotator
}

// DrawText renders text with the bundled font. See Annotator.DrawText.
func DrawText(img draw.Image, topLeft types.Point, c types.Color, size float64, text string) error {
	return defaultTextAnnotator().DrawText(img, topLeft, c, size, text)
}

// MeasureText measures text rendered with the bundled font
func MeasureText(size float64, text string) (width, height int, err error) {
	return defaultTextAnnotator().MeasureText(size, text)
}
