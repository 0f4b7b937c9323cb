package types

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// Point represents a pixel coordinate
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}
func Pt(x, y int) Point {
	return Point{X: x, Y: y}
}

// Add returns the point translated by q
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// In reports whether p lies inside r
func (p Point) In(r Rectangle) bool {
	return r.ContainsPoint(p)
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Rectangle is an axis-aligned box spanned by two corners.
// Min is inclusive and Max is exclusive, as with image.Rectangle.
type Rectangle struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// NewRectangle builds a rectangle from any two opposite corners
func NewRectangle(p0, p1 Point) Rectangle {
	if p0.X > p1.X {
		p0.X, p1.X = p1.X, p0.X
	}
	if p0.Y > p1.Y {
		p0.Y, p1.Y = p1.Y, p0.Y
	}
	return Rectangle{Min: p0, Max: p1}
}

// Rect builds a rectangle from its left, top, right and bottom edges
func Rect(left, top, right, bottom int) Rectangle {
	return NewRectangle(Pt(left, top), Pt(right, bottom))
}

// FromImageRect converts an image.Rectangle
func FromImageRect(r image.Rectangle) Rectangle {
	return Rect(r.Min.X, r.Min.Y, r.Max.X, r.Max.Y)
}

// Bounds returns left, top, right, bottom
func (r Rectangle) Bounds() (left, top, right, bottom int) {
	return r.Min.X, r.Min.Y, r.Max.X, r.Max.Y
}

// Width returns the horizontal extent
func (r Rectangle) Width() int {
	return r.Max.X - r.Min.X
}

// Height returns the vertical extent
func (r Rectangle) Height() int {
	return r.Max.Y - r.Min.Y
}

// Area returns the area of the rectangle
func (r Rectangle) Area() int {
	return r.Width() * r.Height()
}

// Center returns the center point of the rectangle
func (r Rectangle) Center() Point {
	return Point{X: (r.Min.X + r.Max.X) / 2, Y: (r.Min.Y + r.Max.Y) / 2}
}

// Contains reports whether o lies entirely within r. Shared edges count as inside.
func (r Rectangle) Contains(o Rectangle) bool {
	return r.Min.X <= o.Min.X && r.Min.Y <= o.Min.Y &&
		o.Max.X <= r.Max.X && o.Max.Y <= r.Max.Y
}

// ContainsPoint reports whether p is a pixel of r
func (r Rectangle) ContainsPoint(p Point) bool {
	return r.Min.X <= p.X && p.X < r.Max.X &&
		r.Min.Y <= p.Y && p.Y < r.Max.Y
}

// Intersects reports whether r and o share at least one pixel
func (r Rectangle) Intersects(o Rectangle) bool {
	return r.Min.X < o.Max.X && o.Min.X < r.Max.X &&
		r.Min.Y < o.Max.Y && o.Min.Y < r.Max.Y
}

// Intersection returns the overlap of r and o, or the zero rectangle if they
// do not overlap.
func (r Rectangle) Intersection(o Rectangle) Rectangle {
	if !r.Intersects(o) {
		return Rectangle{}
	}
	return Rect(
		max(r.Min.X, o.Min.X),
		max(r.Min.Y, o.Min.Y),
		min(r.Max.X, o.Max.X),
		min(r.Max.Y, o.Max.Y),
	)
}

// Translate returns r moved by d
func (r Rectangle) Translate(d Point) Rectangle {
	return Rectangle{Min: r.Min.Add(d), Max: r.Max.Add(d)}
}

// Scale multiplies every coordinate by factor, rounding to the nearest pixel.
// Used to map CSS pixels to device pixels.
func (r Rectangle) Scale(factor float64) Rectangle {
	s := func(v int) int { return int(math.Round(float64(v) * factor)) }
	return Rect(s(r.Min.X), s(r.Min.Y), s(r.Max.X), s(r.Max.Y))
}

// ImageRect converts r to an image.Rectangle
func (r Rectangle) ImageRect() image.Rectangle {
	return image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Max.Y)
}

func (r Rectangle) String() string {
	return fmt.Sprintf("Rectangle(%s, %s)", r.Min, r.Max)
}

// Color is an RGBA color with non-premultiplied components
type Color struct {
	R uint8
	G uint8
	B uint8
	A uint8
}

// RGB returns an opaque color
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 255}
}

// RGBA returns a color with explicit alpha
func RGBA(r, g, b, a uint8) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// Common annotation colors
var (
	Red   = RGB(255, 0, 0)
	Green = RGB(0, 255, 0)
	Blue  = RGB(0, 170, 255)
	Gold  = RGB(255, 204, 0)
	White = RGB(255, 255, 255)
	Black = RGB(0, 0, 0)
)

// NRGBA converts c for drawing. Without alpha the result is fully opaque.
func (c Color) NRGBA(withAlpha bool) color.NRGBA {
	a := c.A
	if !withAlpha {
		a = 255
	}
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: a}
}

// RGBA implements color.Color
func (c Color) RGBA() (r, g, b, a uint32) {
	return c.NRGBA(true).RGBA()
}

// String formats c as #rrggbbaa
func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// ParseColor parses "#rrggbb" or "#rrggbbaa", with or without the leading '#'
func ParseColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 && len(hex) != 8 {
		return Color{}, fmt.Errorf("invalid color %q: expected #rrggbb or #rrggbbaa", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	if len(hex) == 6 {
		v = v<<8 | 0xff
	}
	return Color{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// MarshalText implements encoding.TextMarshaler
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
