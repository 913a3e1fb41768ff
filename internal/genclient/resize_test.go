package genclient

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func makePNG(t *testing.T, width, height int, fill color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, fill)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestFitWithin(t *testing.T) {
	cases := []struct {
		srcW, srcH, maxW, maxH, wantW, wantH int
	}{
		{100, 100, 200, 100, 100, 100},
		{100, 100, 100, 200, 100, 100},
		{1024, 1024, 1024, 1536, 1024, 1024},
		{2048, 2048, 1024, 1536, 1024, 1024},
		{400, 200, 100, 100, 100, 50},
	}
	for _, tc := range cases {
		w, h := fitWithin(tc.srcW, tc.srcH, tc.maxW, tc.maxH)
		if w != tc.wantW || h != tc.wantH {
			t.Fatalf("fitWithin(%d,%d,%d,%d) = %dx%d, want %dx%d",
				tc.srcW, tc.srcH, tc.maxW, tc.maxH, w, h, tc.wantW, tc.wantH)
		}
	}
}

func TestNormalizeImageExactSizePassThrough(t *testing.T) {
	data := makePNG(t, 64, 64, color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff})
	out, err := normalizeImage(data, 64, 64)
	if err != nil {
		t.Fatalf("normalizeImage: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("exact-size png should pass through unchanged")
	}
}

func TestNormalizeImageLetterboxes(t *testing.T) {
	data := makePNG(t, 100, 100, color.RGBA{R: 0x00, G: 0x00, B: 0xff, A: 0xff})
	out, err := normalizeImage(data, 200, 100)
	if err != nil {
		t.Fatalf("normalizeImage: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 200 || bounds.Dy() != 100 {
		t.Fatalf("result dimensions %dx%d, want 200x100", bounds.Dx(), bounds.Dy())
	}

	// Left margin is neutral fill, center is source content.
	r, g, b, _ := img.At(10, 50).RGBA()
	if r>>8 != 0xf2 || g>>8 != 0xf2 || b>>8 != 0xf2 {
		t.Fatalf("margin pixel not letterbox fill: %d %d %d", r>>8, g>>8, b>>8)
	}
	_, _, cb, _ := img.At(100, 50).RGBA()
	if cb>>8 < 0x80 {
		t.Fatalf("center pixel lost source content: blue channel %d", cb>>8)
	}
}

func TestNormalizeImageRejectsGarbage(t *testing.T) {
	if _, err := normalizeImage([]byte("not an image"), 100, 100); err == nil {
		t.Fatal("expected error for undecodable payload")
	}
}
