// Package resource retrieves pages and images over HTTP(S) or from disk.
package resource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lazyload/pkg/images"
)

const userAgent = "lazyload/1.0 (compatible; Go)"

// Fetcher retrieves resources by URI.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) (body []byte, contentType string, err error)
}

// DefaultFetcher fetches network URLs over HTTP and everything else from
// the filesystem, resolving relative URIs against a base.
type DefaultFetcher struct {
	baseURL string
	client  *http.Client
}

type Option func(*DefaultFetcher)

// WithHTTPClient replaces the default client (30s timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(f *DefaultFetcher) { f.client = c }
}

// NewFetcher creates a DefaultFetcher. baseURL may be an http(s) URL, a
// file:// URL, a directory path or empty.
func NewFetcher(baseURL string, opts ...Option) *DefaultFetcher {
	f := &DefaultFetcher{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// BaseURL is the base relative URIs resolve against.
func (f *DefaultFetcher) BaseURL() string {
	return f.baseURL
}

// Resolve turns uri into an absolute URL or path using the base.
func (f *DefaultFetcher) Resolve(uri string) string {
	switch {
	case IsNetworkURL(uri) || strings.HasPrefix(uri, "file://") || f.baseURL == "":
		return uri
	case IsNetworkURL(f.baseURL):
		return ResolveURL(f.baseURL, uri)
	case filepath.IsAbs(uri):
		return uri
	default:
		return filepath.Join(strings.TrimPrefix(f.baseURL, "file://"), filepath.FromSlash(uri))
	}
}

// Fetch retrieves the resource at uri.
func (f *DefaultFetcher) Fetch(ctx context.Context, uri string) ([]byte, string, error) {
	resolved := f.Resolve(uri)
	if IsNetworkURL(resolved) {
		return f.fetchHTTP(ctx, resolved)
	}
	path := strings.TrimPrefix(resolved, "file://")
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", path, err)
	}
	return body, contentTypeByExt(path), nil
}

func (f *DefaultFetcher) fetchHTTP(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading response body: %w", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// FetchPage fetches an HTML document and returns its text.
func (f *DefaultFetcher) FetchPage(ctx context.Context, uri string) (string, error) {
	body, contentType, err := f.Fetch(ctx, uri)
	if err != nil {
		return "", err
	}
	ct := strings.ToLower(contentType)
	if ct != "" && !strings.HasPrefix(ct, "text/") && !strings.Contains(ct, "html") {
		return "", fmt.Errorf("unexpected content type for page: %s", contentType)
	}
	return string(body), nil
}

// FetchImage fetches an image URI and returns its raw bytes.
func (f *DefaultFetcher) FetchImage(ctx context.Context, uri string) ([]byte, error) {
	body, _, err := f.Fetch(ctx, uri)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// ImageFetcher adapts f for an images.Cache. Every fetch is bound to ctx.
func (f *DefaultFetcher) ImageFetcher(ctx context.Context) images.ImageFetcher {
	return func(uri string) ([]byte, error) {
		return f.FetchImage(ctx, uri)
	}
}

// ResolveURL resolves a possibly-relative URI against a base URL.
// If ref is already absolute, it is returned as-is.
func ResolveURL(base, ref string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}

// IsNetworkURL returns true if the string looks like an HTTP or HTTPS URL.
func IsNetworkURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// BaseOf returns the base that relative references inside the document at
// uri resolve against: the URL itself, or the file's directory.
func BaseOf(uri string) string {
	if IsNetworkURL(uri) {
		return uri
	}
	return filepath.Dir(strings.TrimPrefix(uri, "file://"))
}

func contentTypeByExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return "text/html"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	}
	return ""
}
