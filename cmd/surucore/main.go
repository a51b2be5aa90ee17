// Command surucore is the thin CLI shell over the suru library (spec §6):
// lex, parse, and check subcommands, each printing a minimal report and
// exiting non-zero on the first hard error.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/paul-ciorogar/suru-lang-sub001"
	"github.com/paul-ciorogar/suru-lang-sub001/internal/lexer"
	"github.com/paul-ciorogar/suru-lang-sub001/internal/limits"
	"github.com/paul-ciorogar/suru-lang-sub001/internal/parser"
)

var limitsPath string

func main() {
	root := &cobra.Command{
		Use:   "surucore",
		Short: "Suru compiler front end",
		Long:  "Lex, parse, and type-check Suru source files.",
	}
	root.PersistentFlags().StringVar(&limitsPath, "limits", "", "path to a YAML limits file (defaults applied if omitted)")

	root.AddCommand(lexCmd(), parseCmd(), checkCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadLimits() (limits.Limits, error) {
	return limits.Load(limitsPath)
}

func readSource(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func lexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lex [file]",
		Short: "Tokenize a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lim, err := loadLimits()
			if err != nil {
				return err
			}
			src, err := readSource(args[0])
			if err != nil {
				return err
			}
			toks, err := lexer.Lex(src, lim)
			if err != nil {
				return err
			}
			for _, t := range toks {
				fmt.Printf("%d:%d %s %q\n", t.Line, t.Column, t.Kind, t.Text(src))
			}
			return nil
		},
	}
}

func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse a source file and report its node count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lim, err := loadLimits()
			if err != nil {
				return err
			}
			src, err := readSource(args[0])
			if err != nil {
				return err
			}
			toks, err := lexer.Lex(src, lim)
			if err != nil {
				return err
			}
			store, root, err := parser.Parse(toks, src, lim)
			if err != nil {
				return err
			}
			fmt.Printf("parsed ok: %d nodes, max depth %d\n", store.Len(), store.MaxDepth(root))
			return nil
		},
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [file]",
		Short: "Lex, parse, and type-check a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lim, err := loadLimits()
			if err != nil {
				return err
			}
			src, err := readSource(args[0])
			if err != nil {
				return err
			}
			result, err := suru.Compile(src, lim)
			if err != nil {
				return err
			}
			if len(result.Diagnostics) == 0 {
				fmt.Println("ok")
				return nil
			}
			for _, d := range result.Diagnostics {
				fmt.Fprintln(os.Stderr, d.Error())
			}
			os.Exit(1)
			return nil
		},
	}
}
