// Package fixtures embeds doclet dumps together with the declarations they
// must compile to.
package fixtures

import (
	"embed"
	"path"
	"sort"
	"strings"
)

//go:embed doclets/*.json expected/*.d.ts
var files embed.FS

// Case is one dump compiled under one generation strategy.
type Case struct {
	Name     string
	Strategy string
	Doclets  []byte
	Expected string
}

// Cases returns every expected output paired with its dump. An expected
// file named `<dump>.<strategy>.d.ts` is compiled with that strategy;
// `<dump>.d.ts` uses the exported strategy.
func Cases() ([]Case, error) {
	entries, err := files.ReadDir("expected")
	if err != nil {
		return nil, err
	}

	var cases []Case
	for _, e := range entries {
		base := strings.TrimSuffix(e.Name(), ".d.ts")
		dump, strategy := base, "exported"
		if i := strings.IndexByte(base, '.'); i >= 0 {
			dump, strategy = base[:i], base[i+1:]
		}

		doclets, err := files.ReadFile(path.Join("doclets", dump+".json"))
		if err != nil {
			return nil, err
		}
		expected, err := files.ReadFile(path.Join("expected", e.Name()))
		if err != nil {
			return nil, err
		}
		cases = append(cases, Case{
			Name:     base,
			Strategy: strategy,
			Doclets:  doclets,
			Expected: string(expected),
		})
	}
	sort.Slice(cases, func(i, j int) bool { return cases[i].Name < cases[j].Name })
	return cases, nil
}

// Dump returns the named doclet dump.
func Dump(name string) ([]byte, error) {
	return files.ReadFile(path.Join("doclets", name+".json"))
}
