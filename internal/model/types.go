package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type ResourceType string

const (
	ResourceTargeting ResourceType = "targeting"
	ResourceCampaign  ResourceType = "campaign"
	ResourceMediaPlan ResourceType = "mediaPlan"
	ResourceRadiaPlan ResourceType = "radiaPlan"
)

// AllResources returns the resource types in tab order.
func AllResources() []ResourceType {
	return []ResourceType{ResourceTargeting, ResourceCampaign, ResourceMediaPlan, ResourceRadiaPlan}
}

func ParseResource(s string) (ResourceType, error) {
	for _, r := range AllResources() {
		if strings.EqualFold(string(r), strings.TrimSpace(s)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown resource %q", s)
}

func (r ResourceType) Title() string {
	switch r {
	case ResourceTargeting:
		return "Targeting & Analytics"
	case ResourceCampaign:
		return "Campaign"
	case ResourceMediaPlan:
		return "Media Plan"
	case ResourceRadiaPlan:
		return "Radia Plan"
	}
	return string(r)
}

// Record is an ordered mapping from column name to cell value. Column order
// is tracked apart from the values so lookups stay O(1).
type Record struct {
	cols []string
	vals map[string]string
}

// NewRecord builds a record from parallel column and value slices. Missing
// values are stored as empty strings.
func NewRecord(cols, vals []string) Record {
	r := Record{cols: make([]string, 0, len(cols)), vals: make(map[string]string, len(cols))}
	for i, c := range cols {
		v := ""
		if i < len(vals) {
			v = vals[i]
		}
		r.set(c, v)
	}
	return r
}

// RecordOf builds a record from alternating column/value pairs.
func RecordOf(kv ...string) Record {
	r := Record{vals: make(map[string]string, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		r.set(kv[i], kv[i+1])
	}
	return r
}

func (r *Record) set(col, val string) {
	if r.vals == nil {
		r.vals = map[string]string{}
	}
	if _, ok := r.vals[col]; !ok {
		r.cols = append(r.cols, col)
	}
	r.vals[col] = val
}

func (r Record) Get(col string) string { return r.vals[col] }

func (r Record) Lookup(col string) (string, bool) {
	v, ok := r.vals[col]
	return v, ok
}

func (r Record) Len() int { return len(r.cols) }

func (r Record) Columns() []string {
	out := make([]string, len(r.cols))
	copy(out, r.cols)
	return out
}

func (r Record) Clone() Record {
	out := Record{cols: make([]string, len(r.cols)), vals: make(map[string]string, len(r.vals))}
	copy(out.cols, r.cols)
	for k, v := range r.vals {
		out.vals[k] = v
	}
	return out
}

// With returns a copy of r with col set to val. New columns are appended.
func (r Record) With(col, val string) Record {
	out := r.Clone()
	out.set(col, val)
	return out
}

// Project returns a record holding exactly cols, in that order. Columns
// absent from r are present with an empty value.
func (r Record) Project(cols []string) Record {
	out := Record{cols: make([]string, 0, len(cols)), vals: make(map[string]string, len(cols))}
	for _, c := range cols {
		out.set(c, r.vals[c])
	}
	return out
}

func (r Record) Map() map[string]string {
	out := make(map[string]string, len(r.vals))
	for k, v := range r.vals {
		out[k] = v
	}
	return out
}

func (r Record) Values() []string {
	out := make([]string, len(r.cols))
	for i, c := range r.cols {
		out[i] = r.vals[c]
	}
	return out
}

// Equal reports whether both records hold the same columns in the same order
// with the same values.
func (r Record) Equal(o Record) bool {
	if len(r.cols) != len(o.cols) {
		return false
	}
	for i, c := range r.cols {
		if o.cols[i] != c || o.vals[c] != r.vals[c] {
			return false
		}
	}
	return true
}

func (r Record) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, c := range r.cols {
		if i > 0 {
			b.WriteByte(',')
		}
		k, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.vals[c])
		if err != nil {
			return nil, err
		}
		b.Write(k)
		b.WriteByte(':')
		b.Write(v)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// UnmarshalJSON decodes a flat JSON object keeping key order. Non-string
// scalars keep their literal text; null becomes "".
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("record: expected object, got %v", tok)
	}
	out := Record{vals: map[string]string{}}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := kt.(string)
		if !ok {
			return fmt.Errorf("record: expected key, got %v", kt)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("record: value for %q: %w", key, err)
		}
		val, err := scalarString(raw)
		if err != nil {
			return fmt.Errorf("record: value for %q: %w", key, err)
		}
		out.set(key, val)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = out
	return nil
}

func scalarString(raw json.RawMessage) (string, error) {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 || string(t) == "null" {
		return "", nil
	}
	if t[0] == '"' {
		var s string
		if err := json.Unmarshal(t, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	return string(t), nil
}

// Dataset is an ordered sequence of records. It is replaced wholesale on
// every load and never mutated in place.
type Dataset struct {
	records []Record
}

func NewDataset(records []Record) Dataset {
	out := make([]Record, len(records))
	copy(out, records)
	return Dataset{records: out}
}

func (d Dataset) Len() int          { return len(d.records) }
func (d Dataset) At(i int) Record   { return d.records[i] }
func (d Dataset) Empty() bool       { return len(d.records) == 0 }
func (d Dataset) Columns() []string { return Columns(d) }

func (d Dataset) Records() []Record {
	out := make([]Record, len(d.records))
	copy(out, d.records)
	return out
}

func (d Dataset) MarshalJSON() ([]byte, error) {
	if d.records == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(d.records)
}

func (d *Dataset) UnmarshalJSON(data []byte) error {
	var recs []Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return err
	}
	d.records = recs
	return nil
}

// Columns derives the active column set from the first record. Datasets
// whose records disagree on keys are not detected here.
func Columns(d Dataset) []string {
	if len(d.records) == 0 {
		return []string{}
	}
	return d.records[0].Columns()
}
