// Package facet keeps a set of category filters mutually consistent. Each
// facet's options are derived from the records that satisfy every other
// facet's selection, so narrowing any one facet may shrink or grow the
// options of all the others.
package facet

import (
	"errors"
	"fmt"
	"strings"

	"ssot/internal/model"
)

var ErrUnknownOption = errors.New("facet: value is not an available option")

// Facet is a named filter dimension bound to a source column.
type Facet struct {
	Name   string `yaml:"name" validate:"required"`
	Column string `yaml:"column" validate:"required"`
}

// Set is an unordered set of cell values.
type Set map[string]struct{}

func NewSet(vals ...string) Set {
	s := make(Set, len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Constraint restricts Column to the values in Allowed.
type Constraint struct {
	Column  string
	Allowed Set
}

func satisfies(r model.Record, cs []Constraint) bool {
	for _, c := range cs {
		if !c.Allowed.Has(r.Get(c.Column)) {
			return false
		}
	}
	return true
}

// ComputeOptions returns the distinct non-empty values of column, in order
// of first occurrence, among records satisfying every constraint in others.
// The caller must not pass the facet's own selection in others.
func ComputeOptions(column string, records []model.Record, others []Constraint) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, r := range records {
		v := r.Get(column)
		if v == "" || seen[v] {
			continue
		}
		if !satisfies(r, others) {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// ComputeVisible returns the records satisfying every constraint. An empty
// Allowed set on any constraint yields no records; an empty selection means
// "show nothing", never "filter inactive".
func ComputeVisible(records []model.Record, all []Constraint) []model.Record {
	for _, c := range all {
		if len(c.Allowed) == 0 {
			return []model.Record{}
		}
	}
	out := make([]model.Record, 0, len(records))
	for _, r := range records {
		if satisfies(r, all) {
			out = append(out, r)
		}
	}
	return out
}

type state struct {
	options  []string
	selected Set
	// seeded is set the first time options become non-empty. Until then the
	// facet admits any non-empty value its column holds.
	seeded bool
	// cleared marks a selection the operator emptied on purpose. It is never
	// re-seeded by reconciliation.
	cleared bool
}

// Engine holds the filter state of one table.
type Engine struct {
	facets  []Facet
	records []model.Record
	states  []state
	// present holds the non-empty values of each facet's column.
	present []Set
}

func NewEngine(facets ...Facet) *Engine {
	e := &Engine{facets: append([]Facet(nil), facets...)}
	e.states = make([]state, len(facets))
	e.present = make([]Set, len(facets))
	for i := range e.states {
		e.states[i].selected = Set{}
		e.present[i] = Set{}
	}
	return e
}

func (e *Engine) Facets() []Facet { return append([]Facet(nil), e.facets...) }

func (e *Engine) Len() int { return len(e.facets) }

// Lookup returns the index of the facet named name.
func (e *Engine) Lookup(name string) (int, bool) {
	for i, f := range e.facets {
		if strings.EqualFold(f.Name, name) || f.Column == name {
			return i, true
		}
	}
	return -1, false
}

// SetDataset replaces the records and reconciles every facet.
func (e *Engine) SetDataset(ds model.Dataset) {
	e.records = ds.Records()
	for i, f := range e.facets {
		e.present[i] = NewSet(ComputeOptions(f.Column, e.records, nil)...)
	}
	e.reconcile()
}

func (e *Engine) Records() []model.Record { return e.records }

// Options returns the facet's current option set in first-occurrence order.
func (e *Engine) Options(i int) []string {
	return append([]string(nil), e.states[i].options...)
}

// Selected returns the facet's selection in option order.
func (e *Engine) Selected(i int) []string {
	st := e.states[i]
	out := make([]string, 0, len(st.selected))
	for _, o := range st.options {
		if st.selected.Has(o) {
			out = append(out, o)
		}
	}
	return out
}

func (e *Engine) IsSelected(i int, v string) bool { return e.states[i].selected.Has(v) }

func (e *Engine) AllSelected(i int) bool {
	st := e.states[i]
	return len(st.options) > 0 && len(st.selected) == len(st.options)
}

// Toggle adds or removes value from the facet's selection. Only currently
// available options may be toggled.
func (e *Engine) Toggle(i int, value string, included bool) error {
	if i < 0 || i >= len(e.facets) {
		return fmt.Errorf("facet: index %d out of range", i)
	}
	st := &e.states[i]
	if !containsString(st.options, value) {
		return fmt.Errorf("%w: %s=%q", ErrUnknownOption, e.facets[i].Column, value)
	}
	if included {
		st.selected[value] = struct{}{}
		st.cleared = false
	} else {
		delete(st.selected, value)
		if len(st.selected) == 0 {
			st.cleared = true
		}
	}
	st.seeded = true
	e.reconcile()
	return nil
}

// SelectAll sets the selection to every available option. It is a no-op
// while the facet has no options.
func (e *Engine) SelectAll(i int) {
	st := &e.states[i]
	if len(st.options) == 0 {
		return
	}
	st.selected = NewSet(st.options...)
	st.cleared = false
	st.seeded = true
	e.reconcile()
}

// DeselectAll empties the selection, hiding every row. It is a no-op while
// the facet has no options.
func (e *Engine) DeselectAll(i int) {
	st := &e.states[i]
	if len(st.options) == 0 {
		return
	}
	st.selected = Set{}
	st.cleared = true
	st.seeded = true
	e.reconcile()
}

// Reset forgets every selection and re-seeds all facets from the current
// records. Dropped values cannot come back through Toggle once they leave
// the option set; Reset is the way back.
func (e *Engine) Reset() {
	for i := range e.states {
		e.states[i] = state{selected: Set{}}
	}
	e.reconcile()
}

// Visible returns the records matching every facet's selection.
func (e *Engine) Visible() []model.Record {
	cs := make([]Constraint, len(e.facets))
	for i := range e.facets {
		cs[i] = e.constraint(i)
	}
	return ComputeVisible(e.records, cs)
}

// constraint is the facet's selection once seeded. Before that it is every
// non-empty value of the column, so a column blank in every record hides
// all rows and leaves no options anywhere.
func (e *Engine) constraint(i int) Constraint {
	allowed := e.states[i].selected
	if !e.states[i].seeded {
		allowed = e.present[i]
	}
	return Constraint{Column: e.facets[i].Column, Allowed: allowed}
}

func (e *Engine) constraintsExcept(skip int) []Constraint {
	cs := make([]Constraint, 0, len(e.facets))
	for i := range e.facets {
		if i == skip {
			continue
		}
		cs = append(cs, e.constraint(i))
	}
	return cs
}

// reconcile recomputes options facet by facet until no selection changes.
// Values that left the option set are dropped; a selection emptied that way
// is re-seeded to all of its new options unless the operator cleared it.
// While a facet has no options at all its selection is held unchanged and
// re-clamped once options return.
func (e *Engine) reconcile() {
	maxPasses := 2 * (len(e.facets) + 1)
	for pass := 0; pass < maxPasses; pass++ {
		changed := false
		for i := range e.facets {
			opts := ComputeOptions(e.facets[i].Column, e.records, e.constraintsExcept(i))
			if e.states[i].apply(opts) {
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	for i := range e.facets {
		e.states[i].options = ComputeOptions(e.facets[i].Column, e.records, e.constraintsExcept(i))
	}
}

func (st *state) apply(opts []string) bool {
	st.options = opts
	if len(opts) == 0 {
		return false
	}
	avail := NewSet(opts...)
	dropped := false
	for v := range st.selected {
		if !avail.Has(v) {
			delete(st.selected, v)
			dropped = true
		}
	}
	if len(st.selected) == 0 && !st.cleared {
		st.selected = NewSet(opts...)
		st.seeded = true
		return true
	}
	return dropped
}

// Summary renders "name sel/total" for each facet. A selection held while
// the facet has no options counts as zero.
func (e *Engine) Summary() string {
	parts := make([]string, 0, len(e.facets))
	for i, f := range e.facets {
		if e.AllSelected(i) {
			parts = append(parts, fmt.Sprintf("%s: all", f.Name))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %d/%d", f.Name, len(e.Selected(i)), len(e.states[i].options)))
	}
	return strings.Join(parts, "  ")
}

func containsString(arr []string, s string) bool {
	for _, v := range arr {
		if v == s {
			return true
		}
	}
	return false
}
