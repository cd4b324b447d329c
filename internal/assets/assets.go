// Package assets finds and caches the images shapes are textured and bump
// mapped with.
package assets

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/shapekit/internal/engine/texture"
	"github.com/Faultbox/shapekit/internal/logger"
)

// ErrNotFound is returned when no search directory holds a requested file.
var ErrNotFound = errors.New("assets: not found")

// Manager loads images from a list of directories.
type Manager struct {
	dirs  []string
	cache *Cache
	mu    sync.RWMutex
}

// NewManager creates a manager searching dirs.
func NewManager(dirs ...string) *Manager {
	return &Manager{dirs: dirs, cache: NewCache()}
}

// AddDir adds a search directory. Directories are searched in reverse
// order (last added = highest priority).
func (m *Manager) AddDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("adding asset dir %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("adding asset dir %s: not a directory", dir)
	}
	m.mu.Lock()
	m.dirs = append(m.dirs, dir)
	m.mu.Unlock()
	return nil
}

// Resolve returns the path name refers to. Absolute names are returned
// unchanged when they exist.
func (m *Manager) Resolve(name string) (string, error) {
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err != nil {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return name, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.dirs) - 1; i >= 0; i-- {
		p := filepath.Join(m.dirs[i], name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("resolving %s: %w", name, err)
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Image loads and decodes the image called name, reusing earlier loads.
func (m *Manager) Image(name string) (image.Image, error) {
	if img, ok := m.cache.Get(name); ok {
		return img, nil
	}
	path, err := m.Resolve(name)
	if err != nil {
		return nil, err
	}
	img, err := texture.Load(path)
	if err != nil {
		return nil, err
	}
	m.cache.Set(name, img)
	logger.Debug("image loaded",
		zap.String("name", name),
		zap.String("path", path),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()),
	)
	return img, nil
}

// BumpMap loads the image called name as a normal map. Single channel
// images are treated as height maps and converted.
func (m *Manager) BumpMap(name string, strength float32) (image.Image, error) {
	key := fmt.Sprintf("%s#bump%g", name, strength)
	if img, ok := m.cache.Get(key); ok {
		return img, nil
	}
	img, err := m.Image(name)
	if err != nil {
		return nil, err
	}
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		img = texture.NormalMap(img, strength)
	}
	m.cache.Set(key, img)
	return img, nil
}

// Close drops every cached image.
func (m *Manager) Close() {
	m.cache.Clear()
}

// Stats returns cache statistics.
func (m *Manager) Stats() (hits, misses int) { return m.cache.Stats() }

// Cache is an in-memory cache of decoded images.
type Cache struct {
	data map[string]image.Image
	mu   sync.Mutex

	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{data: make(map[string]image.Image)}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	img, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return img, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = img
}

// Clear empties the cache and resets statistics.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]image.Image)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
