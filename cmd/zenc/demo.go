package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"zen/internal/backend"
	"zen/internal/diagfmt"
	"zen/internal/driver"
	"zen/internal/lower"
	"zen/internal/source"
	"zen/internal/ui"
)

var (
	demoUIFlag   string
	demoEmitIR   bool
	demoExport   bool
	demoCacheDir string
)

func init() {
	demoCmd.Flags().StringVar(&demoUIFlag, "ui", "auto", "progress UI (auto|on|off)")
	demoCmd.Flags().BoolVar(&demoEmitIR, "emit-ir", false, "print the lowered IR of every unit")
	demoCmd.Flags().BoolVar(&demoExport, "export", false, "write the merged instantiation table to the disk cache")
	demoCmd.Flags().StringVar(&demoCacheDir, "cache-dir", "", "override the disk cache directory")
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Compile the built-in sample units end to end",
	Long: `Compiles two built-in sample units in parallel, merges their
instantiation tables, evaluates the lowered code on the reference
machine, and optionally exports the result to the disk cache.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := readUIMode(demoUIFlag)
		if err != nil {
			return err
		}

		inputs := driver.SampleInputs()
		opts := driver.DefaultOptions()

		names := make([]string, 0, len(inputs))
		for _, in := range inputs {
			names = append(names, in.Unit.Name)
		}

		events := make(chan driver.Event, len(inputs)*4)
		var results []*driver.UnitResult
		var compileErr error

		if shouldUseTUI(mode) {
			done := make(chan struct{})
			go func() {
				defer close(done)
				results, compileErr = driver.CompileAll(context.Background(), inputs, opts, events)
				close(events)
			}()
			model := ui.NewProgressModel("compiling sample units", names, events)
			if _, err := tea.NewProgram(model).Run(); err != nil {
				return err
			}
			<-done
		} else {
			go func() {
				// Прогресс не рисуем, но канал всё равно надо вычитывать
				for range events {
				}
			}()
			results, compileErr = driver.CompileAll(context.Background(), inputs, opts, events)
			close(events)
		}
		if compileErr != nil {
			return compileErr
		}

		out := cmd.OutOrStdout()
		failed := false
		fs := source.NewFileSet()
		for _, res := range results {
			if res == nil {
				continue
			}
			if res.Failed() {
				failed = true
				diagfmt.Pretty(out, res.Bag, fs, diagfmt.PrettyOpts{ShowNotes: true})
			}
			if demoEmitIR {
				fmt.Fprintf(out, "; unit %s\n", res.Name)
				if err := lower.Fprint(out, res.Types, res.Module); err != nil {
					return err
				}
			}
		}
		if failed {
			return fmt.Errorf("sample compilation produced errors")
		}

		merged := driver.MergeInstantiations(results)
		headColor := color.New(color.FgCyan, color.Bold)
		fmt.Fprintln(out, headColor.Sprintf("%d instantiations across %d units", merged.Len(), len(results)))
		for _, entry := range merged.Keys() {
			fmt.Fprintf(out, "  %-28s uses=%d units=%v\n", entry.Key, entry.UseCount, entry.Units)
		}

		for _, run := range []struct{ unit, fn string }{
			{"alpha", "main"},
			{"beta", "fallback"},
		} {
			res := findResult(results, run.unit)
			if res == nil {
				return fmt.Errorf("missing unit %q", run.unit)
			}
			interp, err := backend.NewInterp(res.Types, res.Module)
			if err != nil {
				return err
			}
			val, err := interp.Run(run.fn)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s.%s() = %d\n", run.unit, run.fn, val.Int)
		}

		if demoExport {
			payload := driver.BuildExport(results, merged)
			cache, err := openDemoCache()
			if err != nil {
				return err
			}
			digest := driver.ExportDigest(payload)
			if err := cache.Put(digest, payload); err != nil {
				return err
			}
			fmt.Fprintf(out, "exported %d keys, %d layouts (digest %x)\n", len(payload.Keys), len(payload.Layouts), digest[:8])
		}
		return nil
	},
}

func openDemoCache() (*driver.DiskCache, error) {
	if demoCacheDir != "" {
		return driver.OpenDiskCacheAt(demoCacheDir)
	}
	return driver.OpenDiskCache("zenc")
}

func findResult(results []*driver.UnitResult, unit string) *driver.UnitResult {
	for _, res := range results {
		if res != nil && res.Name == unit {
			return res
		}
	}
	return nil
}
