// Package util holds the file cache, logger and pool sizing shared by the
// loader, the checker and the commands.
package util

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/edsrzf/mmap-go"
	"golang.org/x/sync/singleflight"
)

// FileCache keeps doclet dumps and declaration files memory-mapped between
// runs. An entry stays mapped until Invalidate or Close, so a watch run only
// re-reads the dumps a change event named.
//
// Data returned by Get must not be used after the path is invalidated.
// Callers invalidate between runs, never during one.
type FileCache interface {
	// Get returns the cached file, mapping it on first access.
	Get(path string) (*MappedFile, error)

	// Invalidate drops the given paths and returns how many were cached.
	Invalidate(paths ...string) int

	// Stats returns a snapshot of the cache counters.
	Stats() FileCacheStats

	// Close unmaps every entry.
	Close() error
}

// FileCacheConfig bounds a FileCache. Zero limits are unlimited.
type FileCacheConfig struct {
	MaxFiles int
	// MaxMemoryMB bounds mapped address space, not resident memory.
	MaxMemoryMB int
	Logger      *slog.Logger
}

// DefaultFileCacheConfig returns the limits the commands use.
func DefaultFileCacheConfig() *FileCacheConfig {
	return &FileCacheConfig{
		MaxFiles:    1000,
		MaxMemoryMB: 2048,
	}
}

// MappedFile is one cached input.
type MappedFile struct {
	Path string
	// Data is nil for an empty file.
	Data mmap.MMap
	Size int64

	// file is nil when the contents were read into the heap instead.
	file *os.File
}

// Mapped reports whether Data is a memory mapping rather than a heap copy.
func (mf *MappedFile) Mapped() bool {
	return mf.file != nil
}

func (mf *MappedFile) release() error {
	if mf.file == nil {
		return nil
	}
	var errs []error
	if len(mf.Data) > 0 {
		if err := mf.Data.Unmap(); err != nil {
			errs = append(errs, errors.Wrapf(err, "unmap %s", mf.Path))
		}
	}
	if err := mf.file.Close(); err != nil {
		errs = append(errs, errors.Wrapf(err, "close %s", mf.Path))
	}
	return errors.Join(errs...)
}

// FileCacheStats counts cache activity.
type FileCacheStats struct {
	Files         int
	MappedBytes   int64
	Hits          int64
	Loads         int64
	HeapFallbacks int64
	Invalidations int64
}

type fileCache struct {
	config FileCacheConfig
	logger *slog.Logger
	group  singleflight.Group

	mu    sync.Mutex
	files map[string]*MappedFile
	bytes int64
	stats FileCacheStats
}

// NewFileCache creates a cache. A nil config uses DefaultFileCacheConfig.
func NewFileCache(config *FileCacheConfig) FileCache {
	if config == nil {
		config = DefaultFileCacheConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &fileCache{
		config: *config,
		logger: logger,
		files:  make(map[string]*MappedFile),
	}
}

func (fc *fileCache) lookup(key string) (*MappedFile, bool) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	mf, ok := fc.files[key]
	if ok {
		fc.stats.Hits++
	}
	return mf, ok
}

func (fc *fileCache) Get(path string) (*MappedFile, error) {
	key := filepath.Clean(path)
	if mf, ok := fc.lookup(key); ok {
		return mf, nil
	}

	// Concurrent readers of one path share a single load.
	v, err, _ := fc.group.Do(key, func() (any, error) {
		if mf, ok := fc.lookup(key); ok {
			return mf, nil
		}
		mf, err := fc.load(key)
		if err != nil {
			return nil, err
		}
		if err := fc.insert(key, mf); err != nil {
			if rerr := mf.release(); rerr != nil {
				fc.logger.Warn("failed to release file", "path", key, "error", rerr)
			}
			return nil, err
		}
		return mf, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*MappedFile), nil
}

func (fc *fileCache) insert(key string, mf *MappedFile) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if limit := fc.config.MaxFiles; limit > 0 && len(fc.files) >= limit {
		return errors.Newf("file cache limit reached: %d files", limit)
	}
	if limit := int64(fc.config.MaxMemoryMB) << 20; limit > 0 && fc.bytes+mf.Size > limit {
		return errors.Newf("file cache memory limit reached: %d MB", fc.config.MaxMemoryMB)
	}

	fc.files[key] = mf
	fc.bytes += mf.Size
	fc.stats.Loads++
	if !mf.Mapped() && mf.Size > 0 {
		fc.stats.HeapFallbacks++
	}
	return nil
}

// load maps path, falling back to reading it into the heap when the
// platform refuses the mapping.
func (fc *fileCache) load(path string) (*MappedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file %s", path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "failed to stat file %s", path)
	}

	if info.Size() == 0 {
		f.Close()
		return &MappedFile{Path: path}, nil
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err == nil {
		return &MappedFile{Path: path, Data: data, Size: info.Size(), file: f}, nil
	}
	f.Close()

	fc.logger.Warn("mmap failed, reading into memory", "path", path, "size", info.Size(), "error", err)
	buf, readErr := os.ReadFile(path)
	if readErr != nil {
		return nil, errors.Wrapf(readErr, "failed to read %s after mmap error %v", path, err)
	}
	return &MappedFile{Path: path, Data: buf, Size: int64(len(buf))}, nil
}

func (fc *fileCache) Invalidate(paths ...string) int {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	n := 0
	for _, path := range paths {
		key := filepath.Clean(path)
		mf, ok := fc.files[key]
		if !ok {
			continue
		}
		delete(fc.files, key)
		fc.bytes -= mf.Size
		fc.stats.Invalidations++
		n++
		if err := mf.release(); err != nil {
			fc.logger.Warn("failed to release file", "path", key, "error", err)
		}
	}
	return n
}

func (fc *fileCache) Stats() FileCacheStats {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	s := fc.stats
	s.Files = len(fc.files)
	s.MappedBytes = fc.bytes
	return s
}

func (fc *fileCache) Close() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	var errs []error
	for _, mf := range fc.files {
		if err := mf.release(); err != nil {
			errs = append(errs, err)
		}
	}
	fc.files = make(map[string]*MappedFile)
	fc.bytes = 0

	fc.logger.Debug("file cache closed",
		"loads", fc.stats.Loads,
		"hits", fc.stats.Hits,
		"invalidations", fc.stats.Invalidations)
	return errors.Join(errs...)
}
