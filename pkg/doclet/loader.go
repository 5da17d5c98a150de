package doclet

import (
	"context"
	"io"
	"log/slog"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/gnana997/tsdgen/pkg/util"
)

// StdinPath names standard input in a list of inputs.
const StdinPath = "-"

// Loader resolves input patterns to dump files and decodes them in parallel.
type Loader struct {
	cache    util.FileCache
	logger   *slog.Logger
	poolSize int
	stdin    io.Reader
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithPoolSize bounds the number of dumps decoded at once.
func WithPoolSize(n int) LoaderOption {
	return func(l *Loader) { l.poolSize = util.GetOptimalPoolSizeWithOverride(n) }
}

// WithStdin sets the reader used for the "-" input.
func WithStdin(r io.Reader) LoaderOption {
	return func(l *Loader) { l.stdin = r }
}

// NewLoader creates a loader reading files through cache.
func NewLoader(cache util.FileCache, logger *slog.Logger, opts ...LoaderOption) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if cache == nil {
		cache = util.NewFileCache(nil)
	}
	l := &Loader{
		cache:    cache,
		logger:   logger,
		poolSize: util.GetOptimalPoolSize(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Expand resolves glob patterns to a sorted, de-duplicated list of files,
// dropping any that match an exclude pattern. "-" passes through untouched.
func (l *Loader) Expand(patterns, exclude []string) ([]string, error) {
	for _, p := range exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, errors.Newf("invalid exclude pattern %q", p)
		}
	}

	seen := make(map[string]bool)
	var out []string
	for _, pattern := range patterns {
		if pattern == StdinPath {
			if !seen[pattern] {
				seen[pattern] = true
				out = append(out, pattern)
			}
			continue
		}
		if !doublestar.ValidatePattern(pattern) {
			return nil, errors.Newf("invalid input pattern %q", pattern)
		}
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.Wrapf(err, "failed to expand %q", pattern)
		}
		if len(matches) == 0 {
			return nil, errors.Newf("no doclet dumps match %q", pattern)
		}
		sort.Strings(matches)
		for _, m := range matches {
			if seen[m] || excluded(m, exclude) {
				continue
			}
			seen[m] = true
			out = append(out, m)
		}
	}
	return out, nil
}

func excluded(path string, exclude []string) bool {
	for _, p := range exclude {
		if ok, _ := doublestar.PathMatch(p, path); ok {
			return true
		}
	}
	return false
}

// Load decodes every path concurrently and merges the results in the order
// the paths were given.
func (l *Loader) Load(ctx context.Context, paths []string) (*Store, error) {
	results := make([][]*Doclet, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.poolSize)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			doclets, err := l.loadOne(path)
			if err != nil {
				return errors.Wrapf(err, "loading %s", path)
			}
			results[i] = doclets
			l.logger.Debug("loaded doclet dump", "path", path, "doclets", len(doclets))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []*Doclet
	for _, r := range results {
		all = append(all, r...)
	}
	return FromDoclets(all)
}

// LoadPatterns expands patterns and loads the resulting files.
func (l *Loader) LoadPatterns(ctx context.Context, patterns, exclude []string) (*Store, error) {
	paths, err := l.Expand(patterns, exclude)
	if err != nil {
		return nil, err
	}
	return l.Load(ctx, paths)
}

func (l *Loader) loadOne(path string) ([]*Doclet, error) {
	if path == StdinPath {
		if l.stdin == nil {
			return nil, errors.New("no standard input configured")
		}
		return DecodeReader(l.stdin, FormatJSON)
	}

	mf, err := l.cache.Get(path)
	if err != nil {
		return nil, err
	}
	return Decode(mf.Data, FormatFromPath(path))
}
