package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupDumpFiles creates temporary doclet dumps for testing.
func setupDumpFiles(t *testing.T) (dir string, files map[string]string) {
	t.Helper()

	dir = t.TempDir()
	files = make(map[string]string)

	small := `[{"kind":"class","name":"Foo","longname":"Foo"}]`
	smallPath := filepath.Join(dir, "small.json")
	require.NoError(t, os.WriteFile(smallPath, []byte(small), 0644))
	files["small.json"] = smallPath

	unicode := `[{"kind":"class","name":"Grüße","longname":"Grüße","comment":"/** 你好 */"}]`
	unicodePath := filepath.Join(dir, "unicode.json")
	require.NoError(t, os.WriteFile(unicodePath, []byte(unicode), 0644))
	files["unicode.json"] = unicodePath

	emptyPath := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(emptyPath, []byte{}, 0644))
	files["empty.json"] = emptyPath

	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < 1000; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `{"kind":"member","name":"m%d","longname":"Foo#m%d","memberof":"Foo"}`, i, i)
	}
	sb.WriteString("]")
	largePath := filepath.Join(dir, "large.json")
	require.NoError(t, os.WriteFile(largePath, []byte(sb.String()), 0644))
	files["large.json"] = largePath

	return dir, files
}

func TestFileCache_BasicOperations(t *testing.T) {
	_, files := setupDumpFiles(t)
	path := files["small.json"]

	cache := NewFileCache(DefaultFileCacheConfig())
	defer cache.Close()

	assert.Equal(t, 0, cache.Stats().Files)

	mf, err := cache.Get(path)
	require.NoError(t, err)
	require.NotNil(t, mf)
	assert.Equal(t, path, mf.Path)
	assert.True(t, mf.Mapped())
	assert.Contains(t, string(mf.Data), `"name":"Foo"`)

	// Second access is a hit and returns the same mapping
	mf2, err := cache.Get(path)
	require.NoError(t, err)
	assert.Same(t, mf, mf2)

	stats := cache.Stats()
	assert.Equal(t, 1, stats.Files)
	assert.Equal(t, int64(1), stats.Loads)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, mf.Size, stats.MappedBytes)
}

func TestFileCache_CleansPaths(t *testing.T) {
	dir, files := setupDumpFiles(t)

	cache := NewFileCache(nil)
	defer cache.Close()

	mf, err := cache.Get(files["small.json"])
	require.NoError(t, err)

	// The same dump reached through a redundant path is one entry.
	mf2, err := cache.Get(dir + string(filepath.Separator) + "." + string(filepath.Separator) + "small.json")
	require.NoError(t, err)
	assert.Same(t, mf, mf2)
	assert.Equal(t, 1, cache.Stats().Files)
}

func TestFileCache_Limits(t *testing.T) {
	_, files := setupDumpFiles(t)

	t.Run("max files", func(t *testing.T) {
		cache := NewFileCache(&FileCacheConfig{MaxFiles: 1})
		defer cache.Close()

		_, err := cache.Get(files["small.json"])
		require.NoError(t, err)

		_, err = cache.Get(files["large.json"])
		require.Error(t, err)
		assert.Contains(t, err.Error(), "limit reached")
		assert.Equal(t, 1, cache.Stats().Files)

		// Freeing the slot admits the next dump.
		assert.Equal(t, 1, cache.Invalidate(files["small.json"]))
		_, err = cache.Get(files["large.json"])
		require.NoError(t, err)
	})

	t.Run("unlimited", func(t *testing.T) {
		cache := NewFileCache(&FileCacheConfig{})
		defer cache.Close()

		for _, path := range files {
			_, err := cache.Get(path)
			require.NoError(t, err)
		}
		assert.Equal(t, len(files), cache.Stats().Files)
	})
}

func TestFileCache_ConcurrentAccess(t *testing.T) {
	_, files := setupDumpFiles(t)
	path := files["large.json"]

	cache := NewFileCache(DefaultFileCacheConfig())
	defer cache.Close()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mf, err := cache.Get(path)
			if err != nil {
				errs <- err
				return
			}
			if !strings.HasPrefix(string(mf.Data), "[") {
				errs <- fmt.Errorf("unexpected content")
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	stats := cache.Stats()
	assert.Equal(t, 1, stats.Files)
	assert.Equal(t, int64(1), stats.Loads, "concurrent readers share one load")
}

func TestFileCache_UnicodeHandling(t *testing.T) {
	_, files := setupDumpFiles(t)

	cache := NewFileCache(nil)
	defer cache.Close()

	mf, err := cache.Get(files["unicode.json"])
	require.NoError(t, err)
	assert.Contains(t, string(mf.Data), "Grüße")
	assert.Contains(t, string(mf.Data), "你好")
}

func TestFileCache_EmptyFiles(t *testing.T) {
	_, files := setupDumpFiles(t)

	cache := NewFileCache(nil)
	defer cache.Close()

	mf, err := cache.Get(files["empty.json"])
	require.NoError(t, err)
	assert.Empty(t, mf.Data)
	assert.Equal(t, int64(0), mf.Size)

	_, err = cache.Get(files["empty.json"])
	require.NoError(t, err)
	assert.Equal(t, int64(1), cache.Stats().Hits)
}

func TestFileCache_Invalidate(t *testing.T) {
	_, files := setupDumpFiles(t)
	path := files["small.json"]

	cache := NewFileCache(nil)
	defer cache.Close()

	_, err := cache.Get(path)
	require.NoError(t, err)
	_, err = cache.Get(files["unicode.json"])
	require.NoError(t, err)

	updated := `[{"kind":"class","name":"Bar","longname":"Bar"}]`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0644))

	missing := filepath.Join(t.TempDir(), "missing.json")
	assert.Equal(t, 1, cache.Invalidate(path, missing))
	assert.Equal(t, 1, cache.Stats().Files, "other entries stay mapped")

	mf, err := cache.Get(path)
	require.NoError(t, err)
	assert.Equal(t, updated, string(mf.Data))

	stats := cache.Stats()
	assert.Equal(t, int64(1), stats.Invalidations)
	assert.Equal(t, int64(3), stats.Loads)
}

func TestFileCache_ResourceCleanup(t *testing.T) {
	_, files := setupDumpFiles(t)

	cache := NewFileCache(nil)
	for _, path := range files {
		_, err := cache.Get(path)
		require.NoError(t, err)
	}

	require.NoError(t, cache.Close())
	stats := cache.Stats()
	assert.Equal(t, 0, stats.Files)
	assert.Equal(t, int64(0), stats.MappedBytes)
}

func TestFileCache_FileNotFound(t *testing.T) {
	cache := NewFileCache(nil)
	defer cache.Close()

	_, err := cache.Get(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open file")
	assert.Equal(t, 0, cache.Stats().Files)
}
