// Command lusush is the interactive entry point for the shell core: it
// reads a script file or standard input, scans and parses each complete
// command, and reports either the resulting AST (in --debug mode) or
// accumulated diagnostics. Execution of the parsed AST is an executor
// collaborator's responsibility and is out of this module's scope
// (spec.md §1 Non-goals).
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/berrym/lusush/internal/alias"
	"github.com/berrym/lusush/internal/ast"
	"github.com/berrym/lusush/internal/diag"
	"github.com/berrym/lusush/internal/lexer"
	"github.com/berrym/lusush/internal/parser"
)

func main() {
	var (
		file    string
		debug   bool
		noColor bool
	)

	rootCmd := &cobra.Command{
		Use:           "lusush [script]",
		Short:         "Parse POSIX shell input and report diagnostics",
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				file = args[0]
			}
			useColor := shouldUseColor(noColor)
			exitCode, err := run(file, debug, useColor)
			if err != nil {
				cmd.SilenceUsage = true
				return err
			}
			if exitCode != 0 {
				return fmt.Errorf("parse completed with exit code %d", exitCode)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&file, "file", "f", "", "path to a script file (default: stdin)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "print the parsed AST for each complete command")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored diagnostic output")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, colorize(err.Error(), colorRed, shouldUseColor(noColor)))
		os.Exit(1)
	}
}

// newCancellableContext cancels on SIGINT/SIGTERM, mirroring the
// teacher's CLI signal wiring (cli/main.go's newCancellableContext).
func newCancellableContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()
	return ctx, cancel
}

func run(file string, debug, useColor bool) (int, error) {
	reader, closeFn, err := inputReader(file)
	if err != nil {
		return 1, err
	}
	defer closeFn()

	source, err := io.ReadAll(reader)
	if err != nil {
		return 1, fmt.Errorf("reading input: %w", err)
	}

	ctx, cancel := newCancellableContext()
	defer cancel()

	aliases := alias.New()
	exitCode := 0

	sink := diag.NewSink(string(source))
	lx := lexer.New(string(source), sink)
	stream := lexer.NewStream(lx, lexer.DefaultPushbackCapacity)
	p := parser.New(stream, sink, parser.WithAliasExpander(alias.NewExpander(aliases)))

	go func() {
		<-ctx.Done()
		p.Cancel()
	}()

	for {
		node, eof := p.Parse()
		if eof {
			break
		}
		if node != nil {
			applyAliasBuiltin(node, aliases)
		}
		if node != nil && debug {
			fmt.Fprintln(os.Stdout, node.String())
			fmt.Fprintln(os.Stdout, "-- unparsed --")
			fmt.Fprintln(os.Stdout, ast.Unparse(node))
		}
	}

	for _, d := range sink.Diagnostics() {
		printDiagnostic(sink, d, useColor)
		if d.Severity >= diag.Error {
			exitCode = 2
		}
	}

	return exitCode, nil
}

// applyAliasBuiltin is the populate path for spec.md §4.4's alias
// table: this module has no interpreter to host a real builtin, so it
// recognizes a top-level `alias name=value [...]` command as it comes
// off the parser and feeds each assignment straight into the table,
// making it visible to alias expansion on the next parsed command.
func applyAliasBuiltin(node *ast.Node, aliases *alias.Table) {
	if node.Kind != ast.COMMAND || len(node.Children) == 0 {
		return
	}
	if node.Children[0].Value != "alias" {
		return
	}
	for _, arg := range node.Children[1:] {
		name, value, ok := strings.Cut(arg.Value, "=")
		if !ok || name == "" {
			continue
		}
		aliases.Set(name, unquoteAliasValue(value))
	}
}

// unquoteAliasValue strips one layer of matching quotes from an alias
// value, e.g. `ll='ls -l'` tokenizes with the quotes still embedded in
// the assignment word's text.
func unquoteAliasValue(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

func printDiagnostic(sink *diag.Sink, d diag.Diagnostic, useColor bool) {
	color := colorGray
	switch d.Severity {
	case diag.Error, diag.Fatal:
		color = colorRed
	case diag.Warning:
		color = colorYellow
	}
	fmt.Fprintln(os.Stderr, colorize(sink.Render(d), color, useColor))
}

func inputReader(file string) (io.Reader, func() error, error) {
	if file == "" {
		return bufio.NewReader(os.Stdin), func() error { return nil }, nil
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", file, err)
	}
	return f, f.Close, nil
}
