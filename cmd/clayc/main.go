// Command clayc is the compiler driver: it loads a program (prelude
// plus an entry module) from a set of module search paths, and emits
// either a synthesized executable or a shared library's LLVM IR, mirroring
// the teacher's own cmd/alas-compile — a thin flag-parsing shell around a
// single load/generate/write pipeline — generalized from a single JSON-AST
// file input to Clay's multi-module, search-path-driven loadProgram.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/clayc/clay/internal/ast"
	"github.com/clayc/clay/internal/compiler"
	"github.com/clayc/clay/internal/env"
)

// searchPaths collects repeated -I flags in the order given, the same
// repeatable-flag idiom the teacher's -module-path single value
// generalizes into for Clay's list of search directories.
type searchPaths []string

func (s *searchPaths) String() string { return strings.Join(*s, ":") }
func (s *searchPaths) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	var paths searchPaths
	var output string
	var shared bool
	var osName string
	var bits string

	flag.Var(&paths, "I", "module search path (repeatable)")
	flag.StringVar(&output, "o", "", "output file (default: <entry>.ll)")
	flag.BoolVar(&shared, "shared", false, "emit a shared library instead of an executable")
	flag.StringVar(&osName, "os", "linux", "target platform suffix variant")
	flag.StringVar(&bits, "bits", "64", "target word-size suffix variant")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <entry-module>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	entry := flag.Arg(0)
	if len(paths) == 0 {
		paths = searchPaths{"."}
	}

	ctx := compiler.NewContext(sourceParser{}, paths, osName, bits)
	ctx.Loader.FS = osFileSystem{}

	if err := ctx.LoadProgram(entry); err != nil {
		fmt.Fprintf(os.Stderr, "clayc: loading %s: %v\n", entry, err)
		os.Exit(1)
	}

	var mod interface{ String() string }
	var genErr error
	if shared {
		mod, genErr = ctx.CodegenSharedLib()
	} else {
		mod, genErr = ctx.CodegenExe()
	}
	if genErr != nil {
		fmt.Fprintf(os.Stderr, "clayc: code generation failed: %v\n", genErr)
		os.Exit(1)
	}

	if output == "" {
		output = entry + ".ll"
	}
	if err := os.WriteFile(output, []byte(mod.String()), 0o600); err != nil {
		fmt.Fprintf(os.Stderr, "clayc: writing %s: %v\n", output, err)
		os.Exit(1)
	}
	fmt.Printf("LLVM IR written to %s\n", output)
}

// osFileSystem backs env.Loader.FS with the real filesystem.
type osFileSystem struct{}

func (osFileSystem) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

// sourceParser is the env.Parser wiring a real CLI needs (env/loader.go:
// "cmd/clayc wires a real one"). Source-level lexing/parsing is treated as
// an external collaborator this port does not implement — this type exists
// only to give cmd/clayc's I/O plumbing (search-path resolution,
// platform-suffix selection, output writing) a concrete, real-filesystem
// collaborator to drive, while the actual text-to-AST step is left to
// whatever lexer/parser a full build wires in here instead.
type sourceParser struct{}

func (sourceParser) ParseFile(path string, dottedName string) (*ast.Module, error) {
	if _, err := os.ReadFile(path); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("clayc: no lexer/parser is wired in this build; cannot parse %s into module %q", filepath.Base(path), dottedName)
}
