package blobstore

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// URLSigner issues and verifies expiring HMAC-signed access URLs. Catalog
// images are long-lived, so the default TTL is measured in years rather than
// minutes; a URL that expires while still referenced from a record would show
// up as drift for the reconciler to repair.
type URLSigner struct {
	secret   string
	baseURL  string
	basePath string
	ttl      time.Duration
}

// DefaultURLTTL keeps signed URLs valid long enough for catalog use.
const DefaultURLTTL = 5 * 365 * 24 * time.Hour

func NewURLSigner(secret, baseURL string, ttl time.Duration) *URLSigner {
	if ttl <= 0 {
		ttl = DefaultURLTTL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return &URLSigner{secret: secret, baseURL: baseURL, basePath: basePathOf(baseURL), ttl: ttl}
}

func basePathOf(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	return strings.TrimRight(u.Path, "/")
}

// Sign returns the expiring access URL for a storage key.
func (s *URLSigner) Sign(key string) string {
	key = strings.TrimLeft(key, "/")
	exp := time.Now().Add(s.ttl).Unix()
	sig := s.signature(key, exp)
	return fmt.Sprintf("%s/%s?exp=%d&sig=%s", s.baseURL, key, exp, sig)
}

// Valid reports whether rawURL is a well-formed, unexpired URL signed by this
// signer. Any missing marker, tampered key, or expired stamp fails.
func (s *URLSigner) Valid(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	expStr := u.Query().Get("exp")
	sig := u.Query().Get("sig")
	if expStr == "" || sig == "" {
		return false
	}
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil || time.Now().Unix() > exp {
		return false
	}
	key := strings.TrimPrefix(u.Path, s.basePath)
	key = strings.TrimLeft(key, "/")
	expected := s.signature(key, exp)
	return hmac.Equal([]byte(expected), []byte(sig))
}

func (s *URLSigner) signature(key string, exp int64) string {
	mac := hmac.New(sha256.New, []byte(s.secret))
	mac.Write([]byte(key + "." + strconv.FormatInt(exp, 10)))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
