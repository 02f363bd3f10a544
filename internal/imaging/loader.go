package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// MaxUploadBytes limits the size of an image file accepted for recognition.
const MaxUploadBytes = 20 << 20

// Upload is an image file read from disk, kept both decoded (for
// preprocessing) and raw (for engines that accept encoded bytes).
type Upload struct {
	Path   string
	Format string
	Image  image.Image
	Data   []byte
}

// ImageCache provides thread-safe caching of uploaded images keyed by path.
//
// Photographs are often recognized several times while a user tries
// different language or display settings; caching avoids re-reading and
// re-decoding the file. Cached uploads stay in memory until Evict or Clear.
type ImageCache struct {
	mu      sync.RWMutex
	uploads map[string]*Upload
}

// NewImageCache creates an empty cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		uploads: make(map[string]*Upload),
	}
}

// Load returns the cached upload for path, reading and decoding the file on
// first use.
//
// Supported formats are PNG, JPEG, GIF, BMP, TIFF and WebP. Files larger than
// MaxUploadBytes are rejected.
func (c *ImageCache) Load(path string) (*Upload, error) {
	c.mu.RLock()
	if u, ok := c.uploads[path]; ok {
		c.mu.RUnlock()
		return u, nil
	}
	c.mu.RUnlock()

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	if stat.Size() > MaxUploadBytes {
		return nil, fmt.Errorf("image file is %d bytes, limit is %d", stat.Size(), MaxUploadBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	u := &Upload{Path: path, Format: format, Image: img, Data: data}

	c.mu.Lock()
	c.uploads[path] = u
	c.mu.Unlock()

	return u, nil
}

// Evict removes one path from the cache.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.uploads, path)
	c.mu.Unlock()
}

// Clear removes every cached upload.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.uploads = make(map[string]*Upload)
	c.mu.Unlock()
}

// Len returns the number of cached uploads.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.uploads)
}
