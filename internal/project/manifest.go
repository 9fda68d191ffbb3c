// Package project locates and reads zen.toml, the per-project build
// manifest.
package project

import (
	"fmt"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Manifest mirrors zen.toml.
type Manifest struct {
	Package PackageSection `toml:"package"`
	Build   BuildSection   `toml:"build"`
}

// PackageSection names the project.
type PackageSection struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// BuildSection tunes compilation.
type BuildSection struct {
	// Target is the triple layouts are computed for.
	Target string `toml:"target"`
	// Jobs bounds compile parallelism; 0 means GOMAXPROCS.
	Jobs int `toml:"jobs"`
	// MaxDiagnostics caps collected diagnostics per unit.
	MaxDiagnostics int `toml:"max_diagnostics"`
}

// DefaultManifest returns the settings used when no zen.toml exists.
func DefaultManifest() Manifest {
	return Manifest{
		Package: PackageSection{Name: "unnamed"},
		Build: BuildSection{
			Target:         "x86_64-unknown-linux-gnu",
			Jobs:           0,
			MaxDiagnostics: 100,
		},
	}
}

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (Manifest, error) {
	m := DefaultManifest()
	meta, err := toml.DecodeFile(path, &m)
	if err != nil {
		return Manifest{}, fmt.Errorf("read %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Manifest{}, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	if err := m.validate(path); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// LoadManifestFrom walks up from startDir and loads the nearest
// zen.toml, falling back to defaults when none is found.
func LoadManifestFrom(startDir string) (Manifest, string, error) {
	path, ok, err := FindZenToml(startDir)
	if err != nil {
		return Manifest{}, "", err
	}
	if !ok {
		return DefaultManifest(), "", nil
	}
	m, err := LoadManifest(path)
	return m, path, err
}

func (m *Manifest) validate(path string) error {
	if m.Build.Jobs < 0 {
		return fmt.Errorf("%s: build.jobs must be >= 0", path)
	}
	if m.Build.MaxDiagnostics <= 0 {
		return fmt.Errorf("%s: build.max_diagnostics must be positive", path)
	}
	return nil
}

// EffectiveJobs resolves the configured job count to a concrete one.
func (m *Manifest) EffectiveJobs() int {
	if m.Build.Jobs > 0 {
		return m.Build.Jobs
	}
	return runtime.GOMAXPROCS(0)
}
