package driver

import (
	"context"
	"testing"

	"zen/internal/backend"
)

func TestCompileAllSamples(t *testing.T) {
	results, err := CompileAll(context.Background(), SampleInputs(), DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	for _, res := range results {
		if res.Failed() {
			t.Fatalf("unit %s failed: %+v", res.Name, res.Bag.Items())
		}
	}

	// alpha's nested unwrap evaluates to 42 on the reference machine.
	alpha := results[0]
	in, err := backend.NewInterp(alpha.Types, alpha.Module)
	if err != nil {
		t.Fatalf("machine setup failed: %v", err)
	}
	out, err := in.Run("main")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if out.Kind != backend.ValInt || out.Int != 42 {
		t.Fatalf("alpha main = %+v, want 42", out)
	}
}

func TestMergeDeduplicatesAcrossUnits(t *testing.T) {
	results, err := CompileAll(context.Background(), SampleInputs(), DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	merged := MergeInstantiations(results)

	// Both units instantiate Option[i32]; the merged table keeps one
	// entry attributed to both.
	entry, ok := merged.Lookup("Option[i32]")
	if !ok {
		t.Fatalf("merged table missing Option[i32]; keys: %+v", merged.Keys())
	}
	if len(entry.Units) != 2 {
		t.Fatalf("Option[i32] units = %v, want both", entry.Units)
	}

	// Nested and function keys survive as distinct entries.
	if _, ok := merged.Lookup("Option[Option[i32]]"); !ok {
		t.Fatal("merged table missing the nested instantiation")
	}
	if _, ok := merged.Lookup("id[Option[i32]]"); !ok {
		t.Fatal("merged table missing the function specialization")
	}
}

func TestCompileEmitsEvents(t *testing.T) {
	inputs := SampleInputs()
	events := make(chan Event, len(inputs)*3)
	if _, err := CompileAll(context.Background(), inputs, DefaultOptions(), events); err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	close(events)

	done := map[string]bool{}
	for ev := range events {
		if ev.Status == StatusDone {
			done[ev.Unit] = true
		}
		if ev.Status == StatusError {
			t.Fatalf("unit %s reported an error", ev.Unit)
		}
	}
	if !done["alpha"] || !done["beta"] {
		t.Fatalf("done events = %v, want both units", done)
	}
}

func TestExportRoundTrip(t *testing.T) {
	results, err := CompileAll(context.Background(), SampleInputs(), DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	payload := BuildExport(results, MergeInstantiations(results))
	if len(payload.Keys) == 0 || len(payload.Layouts) == 0 {
		t.Fatalf("export is empty: %+v", payload)
	}
	for _, lay := range payload.Layouts {
		if lay.Size != 16 || lay.PayloadOffset != 8 {
			t.Fatalf("layout %s has shape %+v, want the uniform 16/8", lay.Key, lay)
		}
	}

	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	key := ExportDigest(payload)
	if err := cache.Put(key, payload); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	var back ExportPayload
	hit, err := cache.Get(key, &back)
	if err != nil || !hit {
		t.Fatalf("get = (%v, %v), want hit", hit, err)
	}
	if len(back.Keys) != len(payload.Keys) || len(back.Layouts) != len(payload.Layouts) {
		t.Fatalf("round trip lost entries: %d/%d keys, %d/%d layouts",
			len(back.Keys), len(payload.Keys), len(back.Layouts), len(payload.Layouts))
	}

	var miss ExportPayload
	hit, err = cache.Get(ExportDigest(&ExportPayload{Units: []string{"other"}}), &miss)
	if err != nil || hit {
		t.Fatalf("unknown key = (%v, %v), want miss", hit, err)
	}
}
