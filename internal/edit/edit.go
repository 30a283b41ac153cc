// Package edit resolves which editing scope a clicked column opens and holds
// the working copy of an open edit.
package edit

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"ssot/internal/facet"
	"ssot/internal/model"
)

var (
	ErrReadOnly      = errors.New("edit: field is read-only")
	ErrUnknownColumn = errors.New("edit: column is not part of this edit")
	ErrClosed        = errors.New("edit: session is closed")
)

// Scope selects which remote update operation a save uses.
type Scope string

const (
	ScopeByKey         Scope = "BY_KEY"
	ScopeByCompoundKey Scope = "BY_COMPOUND_KEY"
)

func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToUpper(strings.TrimSpace(s))) {
	case ScopeByKey:
		return ScopeByKey, nil
	case ScopeByCompoundKey:
		return ScopeByCompoundKey, nil
	}
	return "", fmt.Errorf("edit: unknown scope %q", s)
}

// Descriptor describes the edit opened by one governed column. Fields is the
// whitelist the working copy is restricted to; nil means the whole record.
// Key columns are always read-only.
type Descriptor struct {
	Scope      Scope    `yaml:"scope" validate:"required,oneof=BY_KEY BY_COMPOUND_KEY"`
	KeyColumns []string `yaml:"keys" validate:"required,min=1,dive,required"`
	ReadOnly   []string `yaml:"readOnly" validate:"dive,required"`
	Fields     []string `yaml:"fields,omitempty" validate:"omitempty,dive,required"`
}

// Family groups the facets and governed columns of one table.
type Family struct {
	Resource model.ResourceType    `yaml:"resource" validate:"required"`
	Facets   []facet.Facet         `yaml:"facets" validate:"dive"`
	Governed map[string]Descriptor `yaml:"governed" validate:"dive"`
}

var familyValidate = validator.New()

// Validate checks field tags and the rules tags cannot express: a BY_KEY
// descriptor needs a whitelist, and a whitelist must carry the keys.
func (f Family) Validate() error {
	if err := familyValidate.Struct(f); err != nil {
		return fmt.Errorf("family %s: %w", f.Resource, err)
	}
	if _, err := model.ParseResource(string(f.Resource)); err != nil {
		return fmt.Errorf("family %s: %w", f.Resource, err)
	}
	for col, d := range f.Governed {
		if d.Scope == ScopeByKey && len(d.Fields) == 0 {
			return fmt.Errorf("family %s: %s: BY_KEY needs a field whitelist", f.Resource, col)
		}
		if d.Fields == nil {
			continue
		}
		for _, k := range d.KeyColumns {
			if !contains(d.Fields, k) {
				return fmt.Errorf("family %s: %s: key %s missing from fields", f.Resource, col, k)
			}
		}
	}
	return nil
}

// GovernedColumns returns the governed column ids, sorted.
func (f Family) GovernedColumns() []string {
	out := make([]string, 0, len(f.Governed))
	for c := range f.Governed {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

const (
	colAgency     = "AGENCY_NAME"
	colAdvertiser = "ADVERTISER_NAME"
	colCampaign   = "CAMPAIGN_ID"
	colPackage    = "RADIA_OR_PRISMA_PACKAGE_NAME"
	colPlacement  = "PLACEMENTNAME"
)

// PackageFields is the whitelist edited and sent by a package-level update.
var PackageFields = []string{colPackage, "TACTIC", "BUY_MODEL", "BRAND_SAFETY", "BLS_MEASUREMENT", "LIVE_DATE"}

func agencyCascade() []facet.Facet {
	return []facet.Facet{
		{Name: "Agency", Column: colAgency},
		{Name: "Advertiser", Column: colAdvertiser},
		{Name: "Campaign", Column: colCampaign},
	}
}

// DefaultFamilies returns the built-in table families keyed by resource.
func DefaultFamilies() map[model.ResourceType]Family {
	return map[model.ResourceType]Family{
		model.ResourceTargeting: {
			Resource: model.ResourceTargeting,
			Facets:   agencyCascade(),
			Governed: map[string]Descriptor{
				colPackage: {
					Scope:      ScopeByKey,
					KeyColumns: []string{colPackage},
					ReadOnly:   []string{colPackage},
					Fields:     append([]string(nil), PackageFields...),
				},
				colPlacement: {
					Scope:      ScopeByCompoundKey,
					KeyColumns: []string{colPackage, colPlacement},
					ReadOnly:   append([]string{colPlacement}, PackageFields...),
				},
			},
		},
		model.ResourceMediaPlan: {
			Resource: model.ResourceMediaPlan,
			Facets:   []facet.Facet{{Name: "Campaign", Column: colCampaign}},
			Governed: map[string]Descriptor{
				"PLACMENT": {
					Scope:      ScopeByCompoundKey,
					KeyColumns: []string{colCampaign, "PLACMENT"},
					ReadOnly: []string{
						"CLIENT", "PRODUCT", colCampaign, "CAMPAIGN_NAME", "PACKAGE",
						"PLACMENT", "FLIGHT", "TOTAL_BUDGET", "IMPRESSIONS",
					},
				},
			},
		},
		model.ResourceCampaign: {
			Resource: model.ResourceCampaign,
			Facets:   []facet.Facet{{Name: "Radia ID", Column: "RADIA_ID"}},
		},
		model.ResourceRadiaPlan: {
			Resource: model.ResourceRadiaPlan,
			Facets:   agencyCascade(),
		},
	}
}

// Resolver maps a clicked column of a table family to an edit session.
type Resolver struct {
	family Family
}

func NewResolver(f Family) *Resolver { return &Resolver{family: f} }

func (r *Resolver) Family() Family { return r.family }

// Governs reports whether clicking col opens an edit.
func (r *Resolver) Governs(col string) bool {
	_, ok := r.family.Governed[col]
	return ok
}

// Resolve opens a session for a click on col of rec. Columns that govern no
// scope yield no session. rec is never modified.
func (r *Resolver) Resolve(col string, rec model.Record) (*Session, bool) {
	d, ok := r.family.Governed[col]
	if !ok {
		return nil, false
	}
	return newSession(r.family.Resource, col, d, rec), true
}

// Session is one open edit: a working copy of the clicked record, restricted
// to the descriptor's fields, plus the read-only rules that apply to it.
type Session struct {
	Resource   model.ResourceType
	Scope      Scope
	Column     string
	KeyColumns []string

	readOnly map[string]bool
	original model.Record
	working  model.Record
	closed   bool
}

func newSession(rt model.ResourceType, col string, d Descriptor, rec model.Record) *Session {
	s := &Session{
		Resource:   rt,
		Scope:      d.Scope,
		Column:     col,
		KeyColumns: append([]string(nil), d.KeyColumns...),
		readOnly:   map[string]bool{},
	}
	for _, c := range d.ReadOnly {
		s.readOnly[c] = true
	}
	for _, c := range d.KeyColumns {
		s.readOnly[c] = true
	}
	if d.Fields != nil {
		s.working = rec.Project(d.Fields)
	} else {
		s.working = rec.Clone()
	}
	s.original = s.working.Clone()
	return s
}

// Fields returns the working copy's columns in display order.
func (s *Session) Fields() []string { return s.working.Columns() }

func (s *Session) Get(col string) string { return s.working.Get(col) }

func (s *Session) ReadOnly(col string) bool { return s.readOnly[col] }

func (s *Session) Editable(col string) bool {
	_, ok := s.working.Lookup(col)
	return ok && !s.readOnly[col]
}

// Set changes one field of the working copy.
func (s *Session) Set(col, val string) error {
	if s.closed {
		return ErrClosed
	}
	if _, ok := s.working.Lookup(col); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, col)
	}
	if s.readOnly[col] {
		return fmt.Errorf("%w: %s", ErrReadOnly, col)
	}
	s.working = s.working.With(col, val)
	return nil
}

// Working returns a copy of the edited fields.
func (s *Session) Working() model.Record { return s.working.Clone() }

// Original returns the fields as they were when the session opened.
func (s *Session) Original() model.Record { return s.original.Clone() }

// Dirty reports whether any field differs from the original.
func (s *Session) Dirty() bool { return !s.working.Equal(s.original) }

// Changed lists the columns whose value differs from the original.
func (s *Session) Changed() []string {
	out := []string{}
	for _, c := range s.working.Columns() {
		if s.working.Get(c) != s.original.Get(c) {
			out = append(out, c)
		}
	}
	return out
}

// KeyValues returns the values of the key columns in key order.
func (s *Session) KeyValues() []string {
	out := make([]string, len(s.KeyColumns))
	for i, k := range s.KeyColumns {
		out[i] = s.working.Get(k)
	}
	return out
}

// Close discards the working copy. Closing twice is a no-op.
func (s *Session) Close() { s.closed = true }

func (s *Session) Closed() bool { return s.closed }

func contains(arr []string, s string) bool {
	for _, v := range arr {
		if v == s {
			return true
		}
	}
	return false
}
