// Package prompt derives the generation prompt for a job record.
package prompt

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"imageforge/internal/domain"
)

// FallbackPrompt is used when the record carries no descriptive fields at all.
const FallbackPrompt = "A professional studio product photograph on a plain background, " +
	"no watermark, studio lighting, sharp focus."

// styleDirectives are appended to every derived prompt so catalog renders
// stay visually consistent regardless of the record's wording.
var styleDirectives = []string{
	"Plain, uncluttered background.",
	"No watermark or overlaid text.",
	"Studio lighting with soft shadows and sharp focus.",
}

// Resolve builds the generation prompt for a record. A trimmed non-empty
// override wins verbatim; otherwise a template is derived from the record's
// descriptive fields; the generic fallback covers bare records. Never returns
// an empty string.
func Resolve(job *domain.Job, override string) string {
	if trimmed := strings.TrimSpace(override); trimmed != "" {
		return trimmed
	}

	title := ""
	if job != nil {
		title = strings.TrimSpace(job.Title)
	}
	if title == "" {
		return FallbackPrompt
	}

	titled := cases.Title(language.Und).String(title)
	lines := []string{
		fmt.Sprintf("A professional catalog product photograph of %s.", titled),
	}
	lines = append(lines, styleDirectives...)
	return strings.Join(lines, "\n")
}
