// Package publish drives a generation run: it compiles doclets into
// declaration text and writes the text to the configured destination.
package publish

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/gnana997/tsdgen/pkg/check"
	"github.com/gnana997/tsdgen/pkg/config"
	"github.com/gnana997/tsdgen/pkg/declaration"
	"github.com/gnana997/tsdgen/pkg/doclet"
	"github.com/gnana997/tsdgen/pkg/emitter"
	"github.com/gnana997/tsdgen/pkg/normalize"
	"github.com/gnana997/tsdgen/pkg/parser"
	"github.com/gnana997/tsdgen/pkg/parser/queries"
)

// ErrUnknownStrategy is returned when the configured generation strategy is
// neither "documented" nor "exported".
var ErrUnknownStrategy = normalize.ErrUnknownStrategy

// DefaultName is the output file stem used when no package name is known.
const DefaultName = "types"

// Extension is appended to every output file name.
const Extension = ".d.ts"

// Replaceable for tests.
var (
	mkdirFunc     = os.Mkdir
	writeFileFunc = os.WriteFile
)

// Tree normalizes doclets and builds the declaration tree.
func Tree(doclets []*doclet.Doclet, cfg config.Config, logger *slog.Logger) (*declaration.Tree, error) {
	if logger == nil {
		logger = slog.Default()
	}

	normalized, err := normalize.Normalize(doclets, cfg.Strategy(), logger)
	if err != nil {
		return nil, err
	}

	return declaration.Build(normalized, declaration.Options{
		Strategy:   cfg.Strategy(),
		ModuleName: cfg.ModuleName,
		Logger:     logger,
	})
}

// Compile runs the Normalizer, the Tree Builder and the Emitter in turn and
// returns the declaration text. The input doclets are not modified.
func Compile(doclets []*doclet.Doclet, cfg config.Config, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tree, err := Tree(doclets, cfg, logger)
	if err != nil {
		return "", err
	}
	text := emitter.Emit(tree)

	logger.Info("compiled declarations",
		"module", tree.Name,
		"strategy", string(tree.Strategy),
		"doclets", len(doclets),
		"bytes", len(text))

	return text, nil
}

// DerivedName returns the last path segment of the first package doclet's
// name, or DefaultName when there is none.
func DerivedName(doclets []*doclet.Doclet) string {
	for _, d := range doclets {
		if d.Kind != doclet.KindPackage || d.Name == "" {
			continue
		}
		name := d.Name
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = name[i+1:]
		}
		if name != "" {
			return name
		}
	}
	return DefaultName
}

// OutputName returns the file name written under the destination.
func OutputName(cfg config.Config, doclets []*doclet.Doclet) string {
	name := cfg.OutFile
	if name == "" {
		name = DerivedName(doclets)
	}
	if !strings.HasSuffix(name, Extension) {
		name += Extension
	}
	return name
}

// Result describes a finished run.
type Result struct {
	Text string

	// Path is the written file; empty for console output.
	Path string

	// Check is set when the output was checked.
	Check *check.Result
}

type publisher struct {
	stdout   io.Writer
	logger   *slog.Logger
	compiler *Compiler
	checker  *check.Checker
}

// Option configures Publish.
type Option func(*publisher)

// WithStdout sets the writer used for console output.
func WithStdout(w io.Writer) Option {
	return func(p *publisher) { p.stdout = w }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *publisher) { p.logger = logger }
}

// WithCompiler compiles through a caching Compiler.
func WithCompiler(c *Compiler) Option {
	return func(p *publisher) { p.compiler = c }
}

// WithChecker checks the output with c when the config asks for it.
func WithChecker(c *check.Checker) Option {
	return func(p *publisher) { p.checker = c }
}

// Publish compiles the doclets in store and writes the text to the console
// or to <destination>/<outFile or derived name>.d.ts.
//
// A destination directory that already exists is fine; any other failure to
// create it, or to write the file, is returned.
func Publish(store *doclet.Store, cfg config.Config, opts ...Option) (*Result, error) {
	p := &publisher{stdout: os.Stdout}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}

	if _, err := normalize.ParseStrategy(cfg.GenerationStrategy); err != nil {
		return nil, err
	}

	doclets := store.All()

	var text string
	var err error
	if p.compiler != nil {
		text, err = p.compiler.Compile(doclets, cfg)
	} else {
		text, err = Compile(doclets, cfg, p.logger)
	}
	if err != nil {
		return nil, err
	}

	result := &Result{Text: text}

	if cfg.Check {
		checked, err := p.check(text)
		if err != nil {
			return nil, err
		}
		result.Check = checked
		if err := checked.Err(); err != nil {
			return nil, errors.Wrap(err, "generated declarations do not parse")
		}
		if len(checked.Undeclared) > 0 {
			p.logger.Info("declarations reference undeclared types", "types", checked.Undeclared)
		}
	}

	if cfg.IsConsole() {
		if _, err := io.WriteString(p.stdout, text); err != nil {
			return nil, errors.Wrap(err, "failed to write declarations to console")
		}
		return result, nil
	}

	if err := mkdirFunc(cfg.Destination, 0755); err != nil && !errors.Is(err, fs.ErrExist) {
		return nil, errors.Wrapf(err, "failed to create destination %s", cfg.Destination)
	}

	result.Path = filepath.Join(cfg.Destination, OutputName(cfg, doclets))
	if err := writeFileFunc(result.Path, []byte(text), 0644); err != nil {
		return nil, errors.Wrapf(err, "failed to write %s", result.Path)
	}

	p.logger.Info("wrote declarations", "path", result.Path, "bytes", len(text))
	return result, nil
}

func (p *publisher) check(text string) (*check.Result, error) {
	checker := p.checker
	if checker == nil {
		pm := parser.NewParserManager(p.logger, 1)
		defer pm.Close()
		qm := queries.NewQueryManager(pm, p.logger)
		defer qm.Close()
		checker = check.NewChecker(pm, qm, p.logger)
	}
	return checker.Check([]byte(text))
}

// Summary is a one-line description of a result for terminal output.
func (r *Result) Summary() string {
	if r.Path == "" {
		return fmt.Sprintf("wrote %d bytes to console", len(r.Text))
	}
	return fmt.Sprintf("wrote %d bytes to %s", len(r.Text), r.Path)
}
