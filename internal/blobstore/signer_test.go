package blobstore

import (
	"strings"
	"testing"
	"time"
)

func TestSignAndValid(t *testing.T) {
	signer := NewURLSigner("secret", "http://localhost:8080/static", time.Hour)

	url := signer.Sign("generated/images/rec-1/cover.png")
	if !strings.HasPrefix(url, "http://localhost:8080/static/generated/images/rec-1/cover.png?") {
		t.Fatalf("unexpected url shape: %s", url)
	}
	if !strings.Contains(url, "exp=") || !strings.Contains(url, "sig=") {
		t.Fatalf("url missing validity markers: %s", url)
	}
	if !signer.Valid(url) {
		t.Fatalf("freshly signed url should verify: %s", url)
	}
}

func TestValidRejectsTampering(t *testing.T) {
	signer := NewURLSigner("secret", "http://localhost:8080/static", time.Hour)
	url := signer.Sign("generated/images/rec-1/cover.png")

	tampered := strings.Replace(url, "rec-1", "rec-2", 1)
	if signer.Valid(tampered) {
		t.Fatal("url with swapped key should not verify")
	}
}

func TestValidRejectsForeignSecret(t *testing.T) {
	signer := NewURLSigner("secret", "http://localhost:8080/static", time.Hour)
	other := NewURLSigner("other-secret", "http://localhost:8080/static", time.Hour)

	url := other.Sign("generated/images/rec-1/cover.png")
	if signer.Valid(url) {
		t.Fatal("url signed with a different secret should not verify")
	}
}

func TestValidRejectsMissingMarkers(t *testing.T) {
	signer := NewURLSigner("secret", "http://localhost:8080/static", time.Hour)

	cases := []string{
		"http://localhost:8080/static/generated/images/rec-1/cover.png",
		"http://localhost:8080/static/generated/images/rec-1/cover.png?exp=9999999999",
		"http://localhost:8080/static/generated/images/rec-1/cover.png?sig=abc",
		"://not-a-url",
		"",
	}
	for _, url := range cases {
		if signer.Valid(url) {
			t.Fatalf("expected invalid: %q", url)
		}
	}
}

func TestValidRejectsExpired(t *testing.T) {
	signer := &URLSigner{
		secret:   "secret",
		baseURL:  "http://localhost:8080/static",
		basePath: basePathOf("http://localhost:8080/static"),
		ttl:      -time.Hour,
	}

	url := signer.Sign("generated/images/rec-1/cover.png")
	if signer.Valid(url) {
		t.Fatalf("expired url should not verify: %s", url)
	}
}

func TestDefaultTTLIsYears(t *testing.T) {
	signer := NewURLSigner("secret", "http://localhost:8080/static", 0)
	if signer.ttl < 365*24*time.Hour {
		t.Fatalf("default ttl too short for catalog images: %s", signer.ttl)
	}
}
