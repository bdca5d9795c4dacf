// Package images decodes and caches the images a page reveals.
package images

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrNoFetcher is returned for non-data URIs when the cache has no fetcher.
var ErrNoFetcher = errors.New("images: no fetcher for non-data URI")

// ImageFetcher retrieves the raw bytes behind an image URI.
type ImageFetcher func(uri string) ([]byte, error)

// Cache decodes images on first use and keeps them by URI. It is safe for
// concurrent use.
type Cache struct {
	mu     sync.RWMutex
	images map[string]image.Image
	fetch  ImageFetcher
}

// NewCache returns an empty cache. fetch may be nil, in which case only
// data URIs can be loaded.
func NewCache(fetch ImageFetcher) *Cache {
	return &Cache{images: make(map[string]image.Image), fetch: fetch}
}

// Get returns a previously loaded image without fetching.
func (c *Cache) Get(uri string) (image.Image, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	img, ok := c.images[uri]
	return img, ok
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Load returns the image for uri, decoding and caching it on first use.
// Failures are not cached.
func (c *Cache) Load(uri string) (image.Image, error) {
	if img, ok := c.Get(uri); ok {
		return img, nil
	}

	var img image.Image
	var err error
	switch {
	case IsDataURI(uri):
		img, err = LoadImageFromDataURI(uri)
	case c.fetch == nil:
		return nil, ErrNoFetcher
	default:
		var data []byte
		if data, err = c.fetch(uri); err != nil {
			return nil, fmt.Errorf("fetching image %s: %w", uri, err)
		}
		img, err = Decode(data)
	}
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if existing, ok := c.images[uri]; ok {
		img = existing
	} else {
		c.images[uri] = img
	}
	c.mu.Unlock()
	return img, nil
}

// Dimensions returns the intrinsic width and height of the image at uri.
func (c *Cache) Dimensions(uri string) (width, height int, err error) {
	img, err := c.Load(uri)
	if err != nil {
		return 0, 0, err
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}

// Decode decodes png, jpeg, gif, bmp or webp data.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

// IsDataURI reports whether s is a data: URI.
func IsDataURI(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// LoadImageFromDataURI decodes an inline image. Both base64 and
// percent-encoded payloads are accepted.
func LoadImageFromDataURI(uri string) (image.Image, error) {
	if !IsDataURI(uri) {
		return nil, fmt.Errorf("not a data URI: %.32s", uri)
	}
	meta, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, errors.New("data URI has no payload")
	}

	var data []byte
	var err error
	if strings.HasSuffix(meta, ";base64") {
		data, err = base64.StdEncoding.DecodeString(payload)
	} else {
		var s string
		s, err = url.PathUnescape(payload)
		data = []byte(s)
	}
	if err != nil {
		return nil, fmt.Errorf("data URI payload: %w", err)
	}
	return Decode(data)
}

// NewFilesystemFetcher reads images from disk. Relative paths and file://
// URLs resolve against root.
func NewFilesystemFetcher(root string) ImageFetcher {
	return func(uri string) ([]byte, error) {
		path := strings.TrimPrefix(uri, "file://")
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, filepath.FromSlash(path))
		}
		return os.ReadFile(path)
	}
}
