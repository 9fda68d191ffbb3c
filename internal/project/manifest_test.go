package project

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "zen.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
[package]
name = "demo"
version = "0.1.0"

[build]
target = "x86_64-unknown-linux-gnu"
jobs = 4
max_diagnostics = 20
`)

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if m.Package.Name != "demo" || m.Build.Jobs != 4 || m.Build.MaxDiagnostics != 20 {
		t.Fatalf("manifest = %+v", m)
	}
	if m.EffectiveJobs() != 4 {
		t.Fatalf("effective jobs = %d, want 4", m.EffectiveJobs())
	}
}

func TestLoadManifestRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
[package]
name = "demo"
flavor = "strawberry"
`)
	if _, err := LoadManifest(path); err == nil {
		t.Fatal("unknown manifest key must be rejected")
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
[package]
name = "demo"
`)
	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if m.Build.MaxDiagnostics != 100 {
		t.Fatalf("default max_diagnostics = %d, want 100", m.Build.MaxDiagnostics)
	}
	if m.EffectiveJobs() <= 0 {
		t.Fatal("effective jobs must be positive by default")
	}
}

func TestFindZenTomlWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[package]\nname = \"demo\"\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	path, ok, err := FindZenToml(nested)
	if err != nil || !ok {
		t.Fatalf("find = (%q, %v, %v)", path, ok, err)
	}
	if filepath.Dir(path) != root {
		t.Fatalf("found %q, want manifest in %q", path, root)
	}

	got, ok, err := FindProjectRoot(nested)
	if err != nil || !ok || got != root {
		t.Fatalf("project root = (%q, %v, %v), want %q", got, ok, err, root)
	}
}

func TestManifestFallbackWithoutFile(t *testing.T) {
	dir := t.TempDir()
	m, path, err := LoadManifestFrom(dir)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if path != "" {
		t.Fatalf("unexpected manifest path %q", path)
	}
	if m.Build.MaxDiagnostics != 100 {
		t.Fatalf("fallback manifest = %+v", m)
	}
}
