// Package render draws challenge text as a distorted PNG image.
//
// The renderer knows nothing about what the text means: it draws each character into its own
// padded cell, crops the cell at a random offset, stretches the crop to the output height and
// finally scribbles noise lines across the whole image.
package render

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"math/rand"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	DefaultHeight = 30
	MinHeight     = 20

	// glyph box of basicfont.Face7x13
	fontWidth  = 7
	fontHeight = 13

	lineStep = 10
	lineJog  = 2
)

// ErrEmptyText indicates there is nothing to draw.
var ErrEmptyText = errors.New("render: text must not be empty")

// Options controls the output image. Zero fields take the defaults.
type Options struct {
	Height int
	// Fill is the background colour; nil means fully transparent.
	Fill color.Color
	// Color is used for glyphs and noise lines; nil means opaque black.
	Color color.Color
}

func (o Options) withDefaults() Options {
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Height < MinHeight {
		o.Height = MinHeight
	}
	if o.Fill == nil {
		o.Fill = color.NRGBA{}
	}
	if o.Color == nil {
		o.Color = color.NRGBA{A: 0xff}
	}
	return o
}

// CharWidth returns the width of one character cell at the given image height.
func CharWidth(height int) int {
	if height < MinHeight {
		height = MinHeight
	}
	return fontWidth * height / fontHeight
}

// Render draws text. The distortion is deterministic with respect to seed.
func Render(text string, opts Options, seed int64) (*image.NRGBA, error) {
	chars := []rune(text)
	if len(chars) == 0 {
		return nil, ErrEmptyText
	}
	opts = opts.withDefaults()
	rng := rand.New(rand.NewSource(seed))

	height := opts.Height
	tolerance := height / 10
	srcCellW := fontWidth + 2*tolerance
	srcCellH := fontHeight + 2*tolerance
	dstCellW := CharWidth(height)
	ink := image.NewUniform(opts.Color)

	src := image.NewNRGBA(image.Rect(0, 0, len(chars)*srcCellW, srcCellH))
	draw.Draw(src, src.Bounds(), image.NewUniform(opts.Fill), image.Point{}, draw.Src)
	dst := image.NewNRGBA(image.Rect(0, 0, len(chars)*dstCellW, height))

	drawer := &font.Drawer{Dst: src, Src: ink, Face: basicfont.Face7x13}
	for i, c := range chars {
		cellX := i * srcCellW
		drawer.Dot = fixed.P(cellX+tolerance, tolerance+basicfont.Face7x13.Ascent)
		drawer.DrawString(string(c))

		offX := rng.Intn(tolerance + 1)
		offY := rng.Intn(tolerance + 1)
		cropW := fontWidth + (tolerance - offX) + rng.Intn(tolerance+1)
		cropH := fontHeight + (tolerance - offY) + rng.Intn(tolerance+1)
		crop := image.Rect(cellX+offX, offY, cellX+offX+cropW, offY+cropH)

		draw.NearestNeighbor.Scale(dst, image.Rect(i*dstCellW, 0, (i+1)*dstCellW, height), src, crop, draw.Src, nil)
	}

	lineColor := color.NRGBAModel.Convert(opts.Color).(color.NRGBA)
	width := dst.Bounds().Dx()
	for y := 0; y <= height; y += lineStep {
		for x := 0; x < width-lineStep; x += lineStep {
			x1 := x + jitter(rng, lineJog)
			x2 := x + lineStep + jitter(rng, lineJog)
			y1 := y + jitter(rng, lineStep)
			y2 := y + jitter(rng, lineStep)
			drawLine(dst, x1, y1, x2, y2, lineColor)
		}
	}

	return dst, nil
}

// jitter returns a uniform offset in [-n, n].
func jitter(rng *rand.Rand, n int) int {
	return rng.Intn(2*n+1) - n
}

// drawLine plots a Bresenham line, clipped to the image.
func drawLine(img *image.NRGBA, x0, y0, x1, y1 int, c color.NRGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	bounds := img.Bounds()
	for {
		if (image.Point{X: x0, Y: y0}).In(bounds) {
			img.SetNRGBA(x0, y0, c)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// EncodePNG renders text and writes it as PNG.
func EncodePNG(w io.Writer, text string, opts Options, seed int64) error {
	img, err := Render(text, opts, seed)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// Base64PNG renders text and returns the PNG bytes encoded with standard base64.
func Base64PNG(text string, opts Options, seed int64) (string, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, text, opts, seed); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DataURI is Base64PNG prefixed for direct use in an <img> src attribute.
func DataURI(text string, opts Options, seed int64) (string, error) {
	encoded, err := Base64PNG(text, opts, seed)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + encoded, nil
}
