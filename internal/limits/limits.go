package limits

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Limits is an immutable ordered mapping from feature name to Bound.
type Limits struct {
	names  []string
	bounds map[string]Bound
}

// Entry is the serialised form of one feature bound.
type Entry struct {
	Name string  `json:"name" yaml:"name"`
	Min  float64 `json:"min" yaml:"min"`
	Max  float64 `json:"max" yaml:"max"`
}

// New builds Limits from entries in order. min == max is accepted; using
// such a bound for normalisation fails with DegenerateRangeError.
func New(entries ...Entry) (Limits, error) {
	l := Limits{
		names:  make([]string, 0, len(entries)),
		bounds: make(map[string]Bound, len(entries)),
	}
	for _, e := range entries {
		b := Bound{Min: e.Min, Max: e.Max}
		if err := b.validate(e.Name); err != nil {
			return Limits{}, err
		}
		if _, dup := l.bounds[e.Name]; dup {
			return Limits{}, fmt.Errorf("%w: duplicate feature %q", ErrInvalidBound, e.Name)
		}
		l.names = append(l.names, e.Name)
		l.bounds[e.Name] = b
	}
	return l, nil
}

// Len is the number of features.
func (l Limits) Len() int { return len(l.names) }

// Names returns the features in order.
func (l Limits) Names() []string { return append([]string(nil), l.names...) }

// Get returns the bound of a feature.
func (l Limits) Get(name string) (Bound, error) {
	b, ok := l.bounds[name]
	if !ok {
		return Bound{}, fmt.Errorf("%w: %q", ErrUnknownFeature, name)
	}
	return b, nil
}

// Has reports whether the feature has a bound.
func (l Limits) Has(name string) bool {
	_, ok := l.bounds[name]
	return ok
}

// Entries returns the ordered entries.
func (l Limits) Entries() []Entry {
	out := make([]Entry, len(l.names))
	for i, n := range l.names {
		b := l.bounds[n]
		out[i] = Entry{Name: n, Min: b.Min, Max: b.Max}
	}
	return out
}

// Map returns a copy of the bounds keyed by name.
func (l Limits) Map() map[string]Bound {
	out := make(map[string]Bound, len(l.bounds))
	for k, v := range l.bounds {
		out[k] = v
	}
	return out
}

// Merge returns limits holding the features of l followed by those of
// other. Shared names take the union of both bounds.
func (l Limits) Merge(other Limits) (Limits, error) {
	entries := l.Entries()
	index := make(map[string]int, len(entries))
	for i, e := range entries {
		index[e.Name] = i
	}
	for _, e := range other.Entries() {
		if i, ok := index[e.Name]; ok {
			entries[i].Min = min(entries[i].Min, e.Min)
			entries[i].Max = max(entries[i].Max, e.Max)
			continue
		}
		entries = append(entries, e)
	}
	return New(entries...)
}

func (l Limits) MarshalJSON() ([]byte, error) { return json.Marshal(l.Entries()) }

func (l *Limits) UnmarshalJSON(data []byte) error {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	parsed, err := New(entries...)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

func (l Limits) MarshalYAML() (interface{}, error) { return l.Entries(), nil }

func (l *Limits) UnmarshalYAML(node *yaml.Node) error {
	var entries []Entry
	if err := node.Decode(&entries); err != nil {
		return err
	}
	parsed, err := New(entries...)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
