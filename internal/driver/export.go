package driver

import (
	"sort"

	"zen/internal/layout"
	"zen/internal/mono"
	"zen/internal/project"
)

// BuildExport assembles the serializable instantiation table from a
// finished build: merged keys plus every tagged-union layout, in
// deterministic order.
func BuildExport(results []*UnitResult, merged *Merged) *ExportPayload {
	payload := &ExportPayload{Schema: diskCacheSchemaVersion}

	for _, res := range results {
		if res != nil {
			payload.Units = append(payload.Units, res.Name)
		}
	}
	sort.Strings(payload.Units)

	for _, entry := range merged.Keys() {
		payload.Keys = append(payload.Keys, ExportKey{
			Key:      entry.Key,
			Kind:     uint8(entry.Kind),
			Units:    entry.Units,
			UseCount: entry.UseCount,
		})
	}

	seen := make(map[string]bool, 16)
	for _, res := range results {
		if res == nil {
			continue
		}
		for _, lay := range res.Module.Layouts {
			if seen[lay.Key] {
				continue
			}
			seen[lay.Key] = true
			payload.Layouts = append(payload.Layouts, exportLayout(res, lay))
		}
	}
	sort.Slice(payload.Layouts, func(i, j int) bool {
		return payload.Layouts[i].Key < payload.Layouts[j].Key
	})
	return payload
}

func exportLayout(res *UnitResult, lay *layout.TaggedUnionLayout) ExportLayout {
	out := ExportLayout{
		Key:           lay.Key,
		Size:          lay.Size,
		Align:         lay.Align,
		TagSize:       lay.TagSize,
		PayloadOffset: lay.PayloadOffset,
	}
	for i := range lay.Variants {
		v := &lay.Variants[i]
		name, _ := res.Strings.Lookup(v.Name)
		ev := ExportVariant{
			Name:         name,
			Discriminant: v.Discriminant,
			Heap:         v.Storage == layout.StorageHeap,
		}
		if v.HasPayload {
			ev.Payload = mono.TypeKey(res.Types, v.Payload)
		}
		out.Variants = append(out.Variants, ev)
	}
	return out
}

// ExportDigest keys the disk cache entry: stable across reruns of the
// same build, different when units or instantiations change.
func ExportDigest(payload *ExportPayload) project.Digest {
	d := project.HashString("zen-export")
	for _, u := range payload.Units {
		d = project.Combine(d, project.HashString(u))
	}
	for _, k := range payload.Keys {
		d = project.Combine(d, project.HashString(k.Key))
	}
	return d
}
