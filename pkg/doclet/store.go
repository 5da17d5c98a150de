package doclet

import (
	"sort"

	"github.com/cockroachdb/errors"
)

// Predicate selects doclets.
type Predicate func(d *Doclet) bool

// Store is an ordered collection of doclets. Removal never reorders the
// survivors, and each doclet keeps the Order it was given on insertion.
type Store struct {
	doclets []*Doclet
}

// NewStore wraps doclets, numbering them by position.
func NewStore(doclets []*Doclet) *Store {
	s := &Store{doclets: make([]*Doclet, 0, len(doclets))}
	for i, d := range doclets {
		if d == nil {
			continue
		}
		d.Order = i
		s.doclets = append(s.doclets, d)
	}
	return s
}

// Merge concatenates stores, renumbering so that doclets of earlier stores
// precede doclets of later ones.
func Merge(stores ...*Store) *Store {
	var all []*Doclet
	for _, s := range stores {
		if s != nil {
			all = append(all, s.doclets...)
		}
	}
	return NewStore(all)
}

// Len returns the number of doclets in the store.
func (s *Store) Len() int {
	return len(s.doclets)
}

// All returns the doclets in order. The returned slice is a copy.
func (s *Store) All() []*Doclet {
	return append([]*Doclet(nil), s.doclets...)
}

// Remove deletes every doclet matching pred and returns the removed ones.
func (s *Store) Remove(pred Predicate) []*Doclet {
	kept, removed := Partition(s.doclets, pred)
	s.doclets = kept
	return removed
}

// Clone returns a store holding clones of every doclet.
func (s *Store) Clone() *Store {
	c := &Store{doclets: make([]*Doclet, len(s.doclets))}
	for i, d := range s.doclets {
		c.doclets[i] = d.Clone()
	}
	return c
}

// Partition splits doclets into the ones not matching pred and the ones
// matching it. Both halves keep their relative order.
func Partition(doclets []*Doclet, pred Predicate) (kept, removed []*Doclet) {
	kept = make([]*Doclet, 0, len(doclets))
	for _, d := range doclets {
		if pred(d) {
			removed = append(removed, d)
		} else {
			kept = append(kept, d)
		}
	}
	return kept, removed
}

// SortByOrder sorts doclets by their Order in place.
func SortByOrder(doclets []*Doclet) {
	sort.SliceStable(doclets, func(i, j int) bool {
		return doclets[i].Order < doclets[j].Order
	})
}

// Validate checks that every doclet carries the fields the compiler relies
// on. Returns a slice of validation errors (empty slice if valid).
func (s *Store) Validate() []error {
	var errs []error
	for i, d := range s.doclets {
		if d.Kind == "" {
			errs = append(errs, errors.Newf("doclets[%d]: kind is required", i))
			continue
		}
		if d.Longname == "" && d.Kind != KindPackage {
			errs = append(errs, errors.Newf("doclets[%d] (%s %q): longname is required", i, d.Kind, d.Name))
		}
		for j, p := range d.Params {
			if p.Type != nil && len(p.Type.Names) == 0 {
				errs = append(errs, errors.Newf("doclet %q params[%d]: type has no names", d.Longname, j))
			}
		}
	}
	return errs
}

// FromDoclets builds a validated store.
func FromDoclets(doclets []*Doclet) (*Store, error) {
	s := NewStore(doclets)
	if errs := s.Validate(); len(errs) > 0 {
		return nil, errors.Wrap(errors.Join(errs...), "doclet validation failed")
	}
	return s, nil
}
