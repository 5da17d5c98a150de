package check

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/gnana997/tsdgen/pkg/parser"
)

// DeclarationFiles expands directories in args to the declaration files
// below them, in walk order. Plain file arguments pass through unchanged.
func DeclarationFiles(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", arg)
		}
		if !info.IsDir() {
			out = append(out, arg)
			continue
		}

		var found []string
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && d.Name() == "node_modules" {
					return filepath.SkipDir
				}
				return nil
			}
			if parser.IsDeclarationFile(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "walking %s", arg)
		}
		if len(found) == 0 {
			return nil, errors.Newf("no declaration files under %s", arg)
		}
		out = append(out, found...)
	}
	return out, nil
}
