package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"zen/internal/ast"
	"zen/internal/mono"
	"zen/internal/source"
	"zen/internal/types"
)

var keyCmd = &cobra.Command{
	Use:   "key <instantiation-key>",
	Short: "Parse and normalize an instantiation key",
	Long: `Parses a bracketed instantiation key such as "Result[Option[i32],string]",
re-renders it in canonical form, and lists the type arguments. Only the
builtin generic declarations (Option, Result) and primitives resolve here.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		strs := source.NewInterner()
		typesIn := types.NewInterner(strs)
		ast.DeclareWellKnown(typesIn)

		name, typeArgs, err := mono.ParseKey(typesIn, args[0])
		if err != nil {
			return fmt.Errorf("parse key: %w", err)
		}

		out := cmd.OutOrStdout()
		keyColor := color.New(color.FgCyan, color.Bold)
		fmt.Fprintf(out, "canonical: %s\n", keyColor.Sprint(mono.KeyString(typesIn, name, typeArgs)))
		fmt.Fprintf(out, "decl:      %s\n", strs.MustLookup(name))
		for i, arg := range typeArgs {
			fmt.Fprintf(out, "arg[%d]:    %s\n", i, mono.TypeKey(typesIn, arg))
		}
		return nil
	},
}
