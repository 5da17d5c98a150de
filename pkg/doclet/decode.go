package doclet

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// Format is the encoding of a doclet dump.
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// FormatFromPath picks the dump format from a file extension.
// Anything that is not msgpack is read as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".msgpack", ".mpk", ".mp":
		return FormatMsgpack
	default:
		return FormatJSON
	}
}

// Decode parses a dump holding an array of doclets.
// An empty (or whitespace-only) dump holds no doclets.
func Decode(data []byte, format Format) ([]*Doclet, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var doclets []*Doclet
	switch format {
	case FormatMsgpack:
		dec := msgpack.NewDecoder(bytes.NewReader(data))
		dec.SetCustomStructTag("json")
		if err := dec.Decode(&doclets); err != nil {
			return nil, errors.Wrap(err, "failed to parse doclet msgpack")
		}
	case FormatJSON, "":
		if err := json.Unmarshal(data, &doclets); err != nil {
			return nil, errors.Wrap(err, "failed to parse doclet JSON")
		}
	default:
		return nil, errors.Newf("unknown dump format %q", format)
	}
	return doclets, nil
}

// DecodeReader reads a whole dump from r and decodes it.
func DecodeReader(r io.Reader, format Format) ([]*Doclet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read doclet dump")
	}
	return Decode(data, format)
}

// Encode writes doclets in the given format.
func Encode(w io.Writer, doclets []*Doclet, format Format) error {
	switch format {
	case FormatMsgpack:
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		return errors.Wrap(enc.Encode(doclets), "failed to encode doclet msgpack")
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(doclets), "failed to encode doclet JSON")
	default:
		return errors.Newf("unknown dump format %q", format)
	}
}
