package driver

import (
	"sort"

	"zen/internal/mono"
)

// MergedKey is one instantiation aggregated across units. Units compile
// against independent interners, so the stable key string is the only
// identity that survives the unit boundary.
type MergedKey struct {
	Key      string
	Kind     mono.InstKind
	Units    []string // unit names using this instantiation, sorted
	UseCount int      // total use sites across all units
}

// Merged is the cross-unit instantiation table.
type Merged struct {
	byKey map[string]*MergedKey
}

// MergeInstantiations deduplicates registrations from every unit:
// compiling units in any order or grouping yields the same table.
func MergeInstantiations(results []*UnitResult) *Merged {
	m := &Merged{byKey: make(map[string]*MergedKey, 32)}
	for _, res := range results {
		if res == nil {
			continue
		}
		for _, inst := range res.Registry.Entries() {
			entry, ok := m.byKey[inst.KeyString]
			if !ok {
				entry = &MergedKey{Key: inst.KeyString, Kind: inst.Kind}
				m.byKey[inst.KeyString] = entry
			}
			entry.UseCount += len(inst.UseSites)
			entry.Units = appendUnique(entry.Units, res.Name)
		}
	}
	for _, entry := range m.byKey {
		sort.Strings(entry.Units)
	}
	return m
}

// Len returns the number of distinct instantiations.
func (m *Merged) Len() int {
	return len(m.byKey)
}

// Lookup returns the merged entry for a key.
func (m *Merged) Lookup(key string) (*MergedKey, bool) {
	e, ok := m.byKey[key]
	return e, ok
}

// Keys returns all entries sorted by key for deterministic output.
func (m *Merged) Keys() []*MergedKey {
	out := make([]*MergedKey, 0, len(m.byKey))
	for _, e := range m.byKey {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func appendUnique(list []string, s string) []string {
	for _, have := range list {
		if have == s {
			return list
		}
	}
	return append(list, s)
}
