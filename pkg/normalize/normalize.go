// Package normalize prepares raw doclets for tree building.
//
// It applies the generation strategy, drops inherited members that are not
// overridden, repairs a known malformation in parameter names and collapses
// each class's origin and alias records into a single doclet.
package normalize

import (
	"log/slog"
	"regexp"

	"github.com/cockroachdb/errors"

	"github.com/gnana997/tsdgen/pkg/doclet"
)

// Strategy selects which doclets survive normalization.
type Strategy string

const (
	// StrategyDocumented drops undocumented doclets that carry no comment.
	StrategyDocumented Strategy = "documented"

	// StrategyExported keeps everything; selection happens on the tree.
	StrategyExported Strategy = "exported"
)

// DefaultStrategy is used when no strategy is configured.
const DefaultStrategy = StrategyDocumented

// ErrUnknownStrategy is returned for a strategy other than the two above.
var ErrUnknownStrategy = errors.New("unknown generation strategy")

// Strategies lists the accepted strategy names.
func Strategies() []string {
	return []string{string(StrategyDocumented), string(StrategyExported)}
}

// ParseStrategy validates s. The empty string yields DefaultStrategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "":
		return DefaultStrategy, nil
	case StrategyDocumented, StrategyExported:
		return Strategy(s), nil
	default:
		return "", errors.Wrapf(ErrUnknownStrategy, "%q", s)
	}
}

// bracketedParam matches the `[name:type]` notation upstream emits for
// nested optional properties such as `opts.[value:string]`.
var bracketedParam = regexp.MustCompile(`\[[\w\d]+:[\w\d]+\]`)

// Normalize returns the doclets that should be turned into declarations.
//
// The input is never mutated: surviving doclets are clones. Non-class doclets
// keep their relative order and are followed by the reconciled classes.
func Normalize(doclets []*doclet.Doclet, strategy Strategy, logger *slog.Logger) ([]*doclet.Doclet, error) {
	if logger == nil {
		logger = slog.Default()
	}
	strategy, err := ParseStrategy(string(strategy))
	if err != nil {
		return nil, err
	}
	logger.Debug("normalizing doclets", "strategy", strategy, "doclets", len(doclets))

	docs := doclets
	switch strategy {
	case StrategyDocumented:
		docs, _ = doclet.Partition(docs, func(d *doclet.Doclet) bool {
			remove, note := undocumentedFilter(d)
			if note != "" {
				logger.Debug(note, "doclet", describe(d))
			}
			return remove
		})
	case StrategyExported:
		logger.Warn("the 'exported' generation strategy is still experimental")
	}

	docs, _ = doclet.Partition(docs, func(d *doclet.Doclet) bool {
		if inheritedOnly(d) {
			logger.Debug("inherited member removed", "doclet", describe(d))
			return true
		}
		if d.Ignore {
			logger.Debug("ignored doclet removed", "doclet", describe(d))
			return true
		}
		return false
	})

	cloned := make([]*doclet.Doclet, len(docs))
	for i, d := range docs {
		cloned[i] = d.Clone()
		if n := SanitizeParams(cloned[i]); n > 0 {
			logger.Debug("bracketed parameter names forced non-optional", "doclet", describe(d), "params", n)
		}
	}

	return reconcileClasses(cloned, logger), nil
}

// undocumentedFilter decides whether the documented strategy removes d.
// The note is a diagnostic for doclets the rule looked at, empty otherwise.
func undocumentedFilter(d *doclet.Doclet) (remove bool, note string) {
	if !d.Undocumented {
		return false, ""
	}
	if !d.IsDocumented() {
		return true, "undocumented doclet removed"
	}
	return false, "undocumented doclet saved from removal by its comment"
}

func inheritedOnly(d *doclet.Doclet) bool {
	return d.Inherited && !bool(d.Overrides)
}

// SanitizeParams forces bracketed parameter and property names to be
// non-optional and returns how many were changed. Other names are untouched.
func SanitizeParams(d *doclet.Doclet) int {
	n := 0
	for _, list := range [][]doclet.Param{d.Params, d.Properties} {
		for i := range list {
			if bracketedParam.MatchString(list[i].Name) {
				if list[i].Optional {
					n++
				}
				list[i].Optional = false
			}
		}
	}
	return n
}

// classPair holds the records seen for one reconciliation key.
type classPair struct {
	origin *doclet.Doclet
	alias  *doclet.Doclet
}

// ReconcileKey identifies a class declaration across its records.
func ReconcileKey(d *doclet.Doclet) string {
	return d.Meta.Filename + "/" + d.Longname
}

// reconcileClasses merges each class's origin and alias records. Repeated
// records for one slot keep the lowest-index record.
func reconcileClasses(docs []*doclet.Doclet, logger *slog.Logger) []*doclet.Doclet {
	pairs := make(map[string]*classPair)
	var keys []string

	out := make([]*doclet.Doclet, 0, len(docs))
	for i := len(docs) - 1; i >= 0; i-- {
		d := docs[i]
		if d.Kind != doclet.KindClass {
			continue
		}
		key := ReconcileKey(d)
		pair, ok := pairs[key]
		if !ok {
			pair = &classPair{}
			pairs[key] = pair
			keys = append(keys, key)
		}
		slot, role := &pair.origin, "origin"
		if d.Alias {
			slot, role = &pair.alias, "alias"
		}
		if *slot != nil {
			logger.Warn("repeated class record, keeping the first", "class", key, "record", role)
		}
		*slot = d
	}

	for _, d := range docs {
		if d.Kind != doclet.KindClass {
			out = append(out, d)
		}
	}

	// Keys were collected back to front; walk them forward so the merged
	// classes follow input order.
	for i := len(keys) - 1; i >= 0; i-- {
		pair := pairs[keys[i]]
		switch {
		case pair.origin != nil && pair.alias != nil:
			pair.origin.Params = pair.alias.Params
			logger.Debug("class alias merged into origin", "class", keys[i], "params", len(pair.alias.Params))
			out = append(out, pair.origin)
		case pair.origin != nil:
			out = append(out, pair.origin)
		default:
			out = append(out, pair.alias)
		}
	}
	return out
}

// describe renders a short identification of d for diagnostics.
func describe(d *doclet.Doclet) string {
	name := d.Longname
	if name == "" {
		name = d.Name
	}
	if d.Meta.Filename != "" {
		return string(d.Kind) + " " + name + " (" + d.Meta.Filename + ")"
	}
	return string(d.Kind) + " " + name
}
