package genclient

import (
	"strconv"
	"strings"
)

// Default output dimensions when a caller supplies no size or an unparsable
// one. Portrait suits the catalog listing layout.
const (
	DefaultWidth  = 1024
	DefaultHeight = 1536
)

// renderSizes is the enumerated set of square render sizes the generation API
// natively supports, ascending.
var renderSizes = []int{256, 512, 1024, 2048}

// ParseSize parses a "<width>x<height>" size string. Malformed or
// non-positive input falls back to the default portrait size.
func ParseSize(s string) (width, height int) {
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(s)), "x", 2)
	if len(parts) != 2 {
		return DefaultWidth, DefaultHeight
	}
	w, errW := strconv.Atoi(strings.TrimSpace(parts[0]))
	h, errH := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return DefaultWidth, DefaultHeight
	}
	return w, h
}

// pickRenderSize selects the smallest supported square covering the larger of
// the requested dimensions, or the largest supported square when nothing
// covers it.
func pickRenderSize(width, height int) int {
	edge := width
	if height > edge {
		edge = height
	}
	for _, size := range renderSizes {
		if size >= edge {
			return size
		}
	}
	return renderSizes[len(renderSizes)-1]
}
