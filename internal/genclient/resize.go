package genclient

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"

	xdraw "golang.org/x/image/draw"

	"imageforge/internal/domain"
)

// letterboxFill is the neutral padding color behind fitted renders.
var letterboxFill = color.RGBA{R: 0xf2, G: 0xf2, B: 0xf2, A: 0xff}

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

// normalizeImage decodes data and produces a PNG of exactly width x height.
// The source is scaled to fit within the target without distortion and
// centered over the neutral fill.
func normalizeImage(data []byte, width, height int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode image: %v", domain.ErrGeneration, err)
	}

	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == width && srcH == height && bytes.HasPrefix(data, pngMagic) {
		return data, nil
	}

	fitW, fitH := fitWithin(srcW, srcH, width, height)
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(letterboxFill), image.Point{}, draw.Src)

	offset := image.Pt((width-fitW)/2, (height-fitH)/2)
	target := image.Rectangle{Min: offset, Max: offset.Add(image.Pt(fitW, fitH))}
	xdraw.CatmullRom.Scale(dst, target, src, bounds, xdraw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("%w: encode png: %v", domain.ErrGeneration, err)
	}
	return buf.Bytes(), nil
}

// fitWithin scales (srcW, srcH) to the largest size that fits inside
// (maxW, maxH) while preserving aspect ratio.
func fitWithin(srcW, srcH, maxW, maxH int) (int, int) {
	if srcW <= 0 || srcH <= 0 {
		return maxW, maxH
	}
	w := maxW
	h := srcH * maxW / srcW
	if h > maxH {
		h = maxH
		w = srcW * maxH / srcH
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}
