// Package image fetches and decodes page scans. Sources are HTTP(S) URLs
// or local file paths; PNG, JPEG and TIFF scans are supported. Decoded
// pages are cached so switching back to a page, or batch-exporting, does
// not refetch the original.
package image

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	_ "golang.org/x/image/tiff"
)

// DefaultCacheSize is how many decoded pages a loader keeps.
const DefaultCacheSize = 8

// Loader fetches and decodes page images. It satisfies the session and
// export loader contracts.
type Loader struct {
	client *http.Client

	mu    sync.Mutex
	cache map[string]image.Image
	order []string
}

// NewLoader creates a loader with a bounded decode cache.
func NewLoader() *Loader {
	return &Loader{
		client: &http.Client{Timeout: 60 * time.Second},
		cache:  make(map[string]image.Image),
	}
}

// Load fetches and decodes the image at the given source. HTTP(S) URLs are
// fetched over the network, anything else is treated as a local path.
func (l *Loader) Load(source string) (image.Image, error) {
	l.mu.Lock()
	if img, ok := l.cache[source]; ok {
		l.mu.Unlock()
		return img, nil
	}
	l.mu.Unlock()

	img, err := l.fetch(source)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cache[source] = img
	l.order = append(l.order, source)
	if len(l.order) > DefaultCacheSize {
		delete(l.cache, l.order[0])
		l.order = l.order[1:]
	}
	l.mu.Unlock()
	return img, nil
}

func (l *Loader) fetch(source string) (image.Image, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		resp, err := l.client.Get(source)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", source, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch %s: %s", source, resp.Status)
		}
		img, _, err := image.Decode(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", source, err)
		}
		return img, nil
	}

	file, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Forget drops one source from the cache, forcing a refetch on next Load.
func (l *Loader) Forget(source string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.cache, source)
	for i, s := range l.order {
		if s == source {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
}
