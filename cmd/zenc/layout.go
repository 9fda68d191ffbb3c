package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"zen/internal/ast"
	"zen/internal/layout"
	"zen/internal/mono"
	"zen/internal/project"
	"zen/internal/source"
	"zen/internal/types"
)

var layoutTargetFlag string

func init() {
	layoutCmd.Flags().StringVar(&layoutTargetFlag, "target", "", "layout target triple (defaults to zen.toml build.target)")
}

var layoutCmd = &cobra.Command{
	Use:   "layout <instantiation-key>",
	Short: "Compute the tagged-union layout for an instantiation key",
	Long: `Computes the uniform runtime layout of an instantiated sum type:
discriminant, payload slot, and the storage mode of every variant.
The target triple comes from the nearest zen.toml unless --target is set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		triple := layoutTargetFlag
		if triple == "" {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			manifest, _, err := project.LoadManifestFrom(wd)
			if err != nil {
				return err
			}
			triple = manifest.Build.Target
		}
		target, err := resolveTarget(triple)
		if err != nil {
			return err
		}

		strs := source.NewInterner()
		typesIn := types.NewInterner(strs)
		ast.DeclareWellKnown(typesIn)

		name, typeArgs, err := mono.ParseKey(typesIn, args[0])
		if err != nil {
			return fmt.Errorf("parse key: %w", err)
		}
		inst, ok := typesIn.FindEnumInstance(name, typeArgs)
		if !ok {
			return fmt.Errorf("%q is not a sum type instantiation", args[0])
		}

		engine := layout.New(target, typesIn)
		l, err := engine.LayoutFor(inst)
		if err != nil {
			return fmt.Errorf("layout: %w", err)
		}

		printLayout(cmd, l, typesIn, name, typeArgs, target)
		return nil
	},
}

// resolveTarget maps a triple string to its pointer properties. Only
// one target exists today; the manifest keeps the field so projects do
// not churn when more appear.
func resolveTarget(triple string) (layout.Target, error) {
	switch triple {
	case "", "x86_64-linux-gnu", "x86_64-unknown-linux-gnu":
		return layout.X86_64LinuxGNU(), nil
	default:
		return layout.Target{}, fmt.Errorf("unsupported target %q", triple)
	}
}

func printLayout(cmd *cobra.Command, l *layout.TaggedUnionLayout, typesIn *types.Interner, name source.StringID, typeArgs []types.TypeID, target layout.Target) {
	out := cmd.OutOrStdout()
	keyColor := color.New(color.FgCyan, color.Bold)
	dimColor := color.New(color.FgHiBlack)

	fmt.Fprintf(out, "%s  %s\n", keyColor.Sprint(mono.KeyString(typesIn, name, typeArgs)), dimColor.Sprintf("(%s)", target.Triple))
	fmt.Fprintf(out, "  size %d, align %d\n", l.Size, l.Align)
	fmt.Fprintf(out, "  tag: %d bytes at offset 0\n", l.TagSize)
	fmt.Fprintf(out, "  payload slot: %d bytes at offset %d\n", l.PayloadSize, l.PayloadOffset)
	for i := range l.Variants {
		v := &l.Variants[i]
		vname, _ := typesIn.Strings.Lookup(v.Name)
		if v.HasPayload {
			fmt.Fprintf(out, "  #%d %-8s %-6s %s\n", v.Discriminant, vname, v.Storage, mono.TypeKey(typesIn, v.Payload))
		} else {
			fmt.Fprintf(out, "  #%d %-8s %s\n", v.Discriminant, vname, dimColor.Sprint("(no payload)"))
		}
	}
}
