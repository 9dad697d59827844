package data

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"solar-dispatch/internal/model"
)

// SampleCache is an in-memory, TTL'd cache of parsed datasets, keyed by
// file path. It is an explicit object passed by reference to whoever
// needs it; entries are also invalidated when the file's mtime changes.
type SampleCache struct {
	mu    sync.RWMutex
	store map[string]*cacheEntry
	ttl   time.Duration
}

type cacheEntry struct {
	samples   []model.TimeSeriesSample
	report    *LoadReport
	modTime   time.Time
	expiresAt time.Time
}

func NewSampleCache(ttl time.Duration) *SampleCache {
	return &SampleCache{
		store: make(map[string]*cacheEntry),
		ttl:   ttl,
	}
}

// Load returns the parsed dataset for path, reading and parsing it on a
// cache miss. Callers must treat the returned slice as read-only.
func (c *SampleCache) Load(path string, logger *slog.Logger) ([]model.TimeSeriesSample, *LoadReport, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, err
	}

	c.mu.RLock()
	entry, ok := c.store[path]
	c.mu.RUnlock()
	if ok && time.Now().Before(entry.expiresAt) && entry.modTime.Equal(info.ModTime()) {
		return entry.samples, entry.report, nil
	}

	samples, report, err := LoadSamples(path, logger)
	if err != nil {
		return nil, nil, err
	}

	c.mu.Lock()
	c.store[path] = &cacheEntry{
		samples:   samples,
		report:    report,
		modTime:   info.ModTime(),
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()

	return samples, report, nil
}

// Clear removes all entries.
func (c *SampleCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = make(map[string]*cacheEntry)
}

// LoadSamples reads a dataset, dispatching on extension: .json or CSV
// (default).
func LoadSamples(path string, logger *slog.Logger) ([]model.TimeSeriesSample, *LoadReport, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		samples, err := LoadSamplesJSON(path)
		if err != nil {
			return nil, nil, err
		}
		return samples, &LoadReport{Rows: len(samples), Kept: len(samples)}, nil
	}
	return LoadSamplesCSV(path, logger)
}
