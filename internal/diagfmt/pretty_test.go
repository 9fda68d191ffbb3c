package diagfmt

import (
	"encoding/json"
	"strings"
	"testing"

	"zen/internal/diag"
	"zen/internal/source"
)

func testBag(t *testing.T) (*diag.Bag, *source.FileSet, source.Span) {
	t.Helper()
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("demo.zen", []byte("let x = Some(42)\nmatch x { }\n"))
	sp := source.Span{File: fileID, Start: 8, End: 16} // "Some(42)"

	bag := diag.NewBag(10)
	bag.Add(diag.NewError(diag.MatchNonExhaustive, sp, "match is not exhaustive: missing None").
		WithNote(sp, "scrutinee constructed here"))
	return bag, fs, sp
}

func TestPrettyOutput(t *testing.T) {
	bag, fs, _ := testBag(t)

	var b strings.Builder
	Pretty(&b, bag, fs, PrettyOpts{ShowNotes: true})
	out := b.String()

	if !strings.Contains(out, "demo.zen:1:9") {
		t.Fatalf("missing location in output:\n%s", out)
	}
	if !strings.Contains(out, "ERROR ZEN5001") {
		t.Fatalf("missing severity/code in output:\n%s", out)
	}
	if !strings.Contains(out, "let x = Some(42)") {
		t.Fatalf("missing source context in output:\n%s", out)
	}
	if !strings.Contains(out, "^~~~~~~") {
		t.Fatalf("missing caret underline in output:\n%s", out)
	}
	if !strings.Contains(out, "note: scrutinee constructed here") {
		t.Fatalf("missing note in output:\n%s", out)
	}
}

func TestPrettySkipsSyntheticSpans(t *testing.T) {
	bag := diag.NewBag(10)
	bag.Add(diag.NewError(diag.GenConflict, source.Span{}, "ambiguous instantiation"))

	var b strings.Builder
	Pretty(&b, bag, source.NewFileSet(), PrettyOpts{})
	out := b.String()

	if !strings.Contains(out, "ambiguous instantiation") {
		t.Fatalf("message lost:\n%s", out)
	}
	if strings.Contains(out, "^") {
		t.Fatalf("synthetic span must not render context:\n%s", out)
	}
}

func TestJSONOutput(t *testing.T) {
	bag, fs, _ := testBag(t)

	var b strings.Builder
	err := JSON(&b, bag, fs, JSONOpts{IncludePositions: true, IncludeNotes: true})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal([]byte(b.String()), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, b.String())
	}
	if len(decoded) != 1 {
		t.Fatalf("decoded %d diagnostics, want 1", len(decoded))
	}
	if decoded[0]["code"] != "ZEN5001" || decoded[0]["path"] != "demo.zen" {
		t.Fatalf("decoded = %+v", decoded[0])
	}
}
