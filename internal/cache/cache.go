package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dygy/transcription-studio/internal/analysis"
)

const responseFile = "response.json"

// ResponseCache stores transcription responses keyed by audio content, so
// the same file is not uploaded twice to the same service.
type ResponseCache struct {
	dir    string
	source string
}

// Cached is a stored transcription response
type Cached struct {
	Response *analysis.TranscriptionResponse
	CacheKey string
	CachedAt time.Time
}

// New opens a cache in dir for responses from the given service. Entries
// written for another service are ignored.
func New(dir, source string) (*ResponseCache, error) {
	if dir == "" {
		var err error
		dir, err = DefaultDir()
		if err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &ResponseCache{dir: dir, source: strings.TrimRight(source, "/")}, nil
}

// DefaultDir is the per-user cache location
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locate user cache: %w", err)
	}
	return filepath.Join(base, "transcription-studio", "responses"), nil
}

// KeyForFile generates a cache key from a file's content hash
func KeyForFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}

	return "file_" + hex.EncodeToString(hash.Sum(nil))[:16], nil
}

// Get retrieves the cached response for the given key
func (c *ResponseCache) Get(key string) (*Cached, bool) {
	cacheSubdir := filepath.Join(c.dir, key)

	// Check the entry came from the same service
	sourceData, err := os.ReadFile(filepath.Join(cacheSubdir, ".source"))
	if err != nil || strings.TrimSpace(string(sourceData)) != c.source {
		return nil, false
	}

	responsePath := filepath.Join(cacheSubdir, responseFile)
	info, err := os.Stat(responsePath)
	if err != nil {
		return nil, false
	}
	resp, err := analysis.Load(responsePath)
	if err != nil {
		return nil, false
	}

	return &Cached{
		Response: resp,
		CacheKey: key,
		CachedAt: info.ModTime(),
	}, true
}

// Put stores a response in the cache
func (c *ResponseCache) Put(key string, resp *analysis.TranscriptionResponse) error {
	if resp == nil || len(resp.Raw) == 0 {
		return fmt.Errorf("cache %s: response has no body", key)
	}

	cacheSubdir := filepath.Join(c.dir, key)
	if err := os.MkdirAll(cacheSubdir, 0755); err != nil {
		return fmt.Errorf("create cache subdir: %w", err)
	}

	if err := os.WriteFile(filepath.Join(cacheSubdir, responseFile), resp.Raw, 0644); err != nil {
		return fmt.Errorf("write cached response: %w", err)
	}
	if err := os.WriteFile(filepath.Join(cacheSubdir, ".source"), []byte(c.source), 0644); err != nil {
		return fmt.Errorf("write cache source: %w", err)
	}
	return nil
}

// Clear removes all cached responses
func (c *ResponseCache) Clear() error {
	return os.RemoveAll(c.dir)
}

// Size returns the total size of cached responses in bytes and the entry count
func (c *ResponseCache) Size() (int64, int, error) {
	var totalSize int64
	var count int

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, nil
		}
		return 0, 0, err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		count++

		subdir := filepath.Join(c.dir, entry.Name())
		files, _ := os.ReadDir(subdir)
		for _, f := range files {
			info, err := f.Info()
			if err == nil {
				totalSize += info.Size()
			}
		}
	}

	return totalSize, count, nil
}

// Dir returns the cache root
func (c *ResponseCache) Dir() string {
	return c.dir
}
