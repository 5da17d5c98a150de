// Package doclet holds the documentation records produced by an upstream
// documentation-comment parser and the ordered store the compiler consumes.
//
// Field names follow the `jsdoc -X` dump so that dumps can be fed in as-is.
package doclet

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

// Kind identifies the declared entity a doclet describes.
type Kind string

const (
	KindClass     Kind = "class"
	KindFunction  Kind = "function"
	KindMember    Kind = "member"
	KindConstant  Kind = "constant"
	KindModule    Kind = "module"
	KindNamespace Kind = "namespace"
	KindInterface Kind = "interface"
	KindTypedef   Kind = "typedef"
	KindPackage   Kind = "package"
	KindEvent     Kind = "event"
	KindFile      Kind = "file"
	KindMixin     Kind = "mixin"
	KindExternal  Kind = "external"
)

// Scope values as emitted by the upstream parser.
const (
	ScopeGlobal   = "global"
	ScopeStatic   = "static"
	ScopeInstance = "instance"
	ScopeInner    = "inner"
)

// Doclet is one documented (or undocumented) declaration.
type Doclet struct {
	Kind         Kind   `json:"kind"`
	Name         string `json:"name,omitempty"`
	Longname     string `json:"longname,omitempty"`
	Memberof     string `json:"memberof,omitempty"`
	Scope        string `json:"scope,omitempty"`
	Undocumented bool   `json:"undocumented,omitempty"`
	Comment      string `json:"comment,omitempty"`
	Description  string `json:"description,omitempty"`

	Inherited bool   `json:"inherited,omitempty"`
	Inherits  string `json:"inherits,omitempty"`
	Overrides Flag   `json:"overrides,omitempty"`
	Alias     Flag   `json:"alias,omitempty"`

	Params     []Param  `json:"params,omitempty"`
	Properties []Param  `json:"properties,omitempty"`
	Returns    []Return `json:"returns,omitempty"`
	Type       *Type    `json:"type,omitempty"`
	Augments   []string `json:"augments,omitempty"`
	Implements []string `json:"implements,omitempty"`

	Access   string `json:"access,omitempty"`
	Readonly bool   `json:"readonly,omitempty"`
	Optional bool   `json:"optional,omitempty"`
	Nullable bool   `json:"nullable,omitempty"`
	IsEnum   bool   `json:"isEnum,omitempty"`
	Virtual  bool   `json:"virtual,omitempty"`
	Async    bool   `json:"async,omitempty"`
	Ignore   bool   `json:"ignore,omitempty"`

	DefaultValue any `json:"defaultvalue,omitempty"`

	Meta Meta `json:"meta,omitempty"`

	// Order is the position of the doclet in the sequence it was received in.
	Order int `json:"-"`
}

// Param describes one parameter, or one property of a typedef/enum.
type Param struct {
	Name         string `json:"name"`
	Type         *Type  `json:"type,omitempty"`
	Optional     bool   `json:"optional,omitempty"`
	Nullable     bool   `json:"nullable,omitempty"`
	Variable     bool   `json:"variable,omitempty"`
	DefaultValue any    `json:"defaultvalue,omitempty"`
	Description  string `json:"description,omitempty"`
}

// Return describes a function's return value.
type Return struct {
	Type        *Type  `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// Type is a union of type expressions as written in the documentation.
type Type struct {
	Names []string `json:"names"`
}

// Meta locates the doclet in its source.
type Meta struct {
	Filename string `json:"filename,omitempty"`
	Path     string `json:"path,omitempty"`
	Lineno   int    `json:"lineno,omitempty"`
	Columnno int    `json:"columnno,omitempty"`
}

// IsDocumented reports whether the doclet survives the documented strategy:
// an undocumented doclet is kept only when it still carries a comment.
func (d *Doclet) IsDocumented() bool {
	return !d.Undocumented || d.Comment != ""
}

// TypeNames returns the doclet's type union, or nil.
func (d *Doclet) TypeNames() []string {
	if d.Type == nil {
		return nil
	}
	return d.Type.Names
}

// Clone returns a copy that can be mutated without touching the original.
// Params and properties are copied; everything else is shared read-only.
func (d *Doclet) Clone() *Doclet {
	c := *d
	if d.Params != nil {
		c.Params = append([]Param(nil), d.Params...)
	}
	if d.Properties != nil {
		c.Properties = append([]Param(nil), d.Properties...)
	}
	return &c
}

// Flag is a loosely typed marker. Upstream dumps encode `alias` and
// `overrides` either as booleans or as the longname they refer to; any
// non-empty value counts as set.
type Flag bool

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	case int64:
		return x != 0
	case uint64:
		return x != 0
	case int8, int16, int32, uint8, uint16, uint32:
		return x != 0
	default:
		return true
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Flag(truthy(v))
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f Flag) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(f))
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (f *Flag) DecodeMsgpack(dec *msgpack.Decoder) error {
	v, err := dec.DecodeInterface()
	if err != nil {
		return err
	}
	*f = Flag(truthy(v))
	return nil
}

// EncodeMsgpack implements msgpack.CustomEncoder.
func (f Flag) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeBool(bool(f))
}
