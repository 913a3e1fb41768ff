package prompt

import (
	"strings"
	"testing"

	"imageforge/internal/domain"
)

func TestResolveOverrideWinsVerbatim(t *testing.T) {
	job := &domain.Job{RecordKey: "rec-1", Title: "white t-shirt"}
	got := Resolve(job, "  a red bicycle on a beach  ")
	if got != "a red bicycle on a beach" {
		t.Fatalf("override not returned verbatim after trimming: %q", got)
	}
}

func TestResolveTemplateFromTitle(t *testing.T) {
	job := &domain.Job{RecordKey: "rec-1", Title: "white t-shirt"}
	got := Resolve(job, "")

	checks := []string{
		"White T-Shirt",
		"Plain, uncluttered background.",
		"No watermark",
		"Studio lighting",
	}
	for _, expect := range checks {
		if !strings.Contains(got, expect) {
			t.Fatalf("prompt missing %q: %s", expect, got)
		}
	}
}

func TestResolveFallback(t *testing.T) {
	cases := []struct {
		name string
		job  *domain.Job
	}{
		{name: "nil record", job: nil},
		{name: "blank title", job: &domain.Job{Title: "   "}},
	}
	for _, tc := range cases {
		got := Resolve(tc.job, "")
		if got != FallbackPrompt {
			t.Fatalf("%s: expected fallback prompt, got %q", tc.name, got)
		}
		if got == "" {
			t.Fatalf("%s: resolve returned empty prompt", tc.name)
		}
	}
}

func TestResolveBlankOverrideFallsThrough(t *testing.T) {
	job := &domain.Job{Title: "ceramic mug"}
	got := Resolve(job, "   ")
	if !strings.Contains(got, "Ceramic Mug") {
		t.Fatalf("blank override should fall through to template: %q", got)
	}
}
