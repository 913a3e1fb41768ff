// sqllint walks Go sources and fails when a string constant that looks like
// SQL does not start with the `--sql <uuid>` audit marker expected by
// infra.SQLRunner.
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	sqlishPattern = regexp.MustCompile(`(?i)\b(select|insert|update|delete|with)\b`)
	markerPattern = regexp.MustCompile(`^--sql [0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

func main() {
	flag.Parse()
	targets := flag.Args()
	if len(targets) == 0 {
		targets = []string{"."}
	}

	var failures []string
	for _, target := range targets {
		if err := walk(target, &failures); err != nil {
			fmt.Fprintf(os.Stderr, "sqllint: %v\n", err)
			os.Exit(1)
		}
	}

	if len(failures) > 0 {
		fmt.Fprintln(os.Stderr, "sqllint: missing SQL audit markers")
		for _, f := range failures {
			fmt.Fprintf(os.Stderr, "  %s\n", f)
		}
		os.Exit(1)
	}
}

func walk(target string, failures *[]string) error {
	info, err := os.Stat(target)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		if filepath.Ext(target) == ".go" {
			return lintFile(target, failures)
		}
		return nil
	}
	return filepath.WalkDir(target, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") || strings.HasPrefix(d.Name(), "_") || d.Name() == "vendor" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		return lintFile(path, failures)
	})
}

func lintFile(path string, failures *[]string) error {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
	if err != nil {
		return err
	}
	ast.Inspect(file, func(n ast.Node) bool {
		spec, ok := n.(*ast.ValueSpec)
		if !ok {
			return true
		}
		for _, value := range spec.Values {
			raw, ok := flattenString(value)
			if !ok || !sqlishPattern.MatchString(raw) {
				continue
			}
			if !markerPattern.MatchString(firstLine(raw)) {
				pos := fset.Position(value.Pos())
				*failures = append(*failures, fmt.Sprintf("%s:%d missing or invalid --sql <uuid> marker", path, pos.Line))
			}
		}
		return true
	})
	return nil
}

// flattenString resolves a string literal or a chain of literal
// concatenations. Identifiers mixed into the chain (shared column lists) are
// skipped; the audit marker must live in the leading literal anyway.
func flattenString(expr ast.Expr) (string, bool) {
	switch e := expr.(type) {
	case *ast.BasicLit:
		if e.Kind != token.STRING {
			return "", false
		}
		raw, err := unquote(e.Value)
		if err != nil {
			return "", false
		}
		return raw, true
	case *ast.BinaryExpr:
		if e.Op != token.ADD {
			return "", false
		}
		left, okL := flattenString(e.X)
		right, okR := flattenString(e.Y)
		if !okL && !okR {
			return "", false
		}
		return left + right, true
	case *ast.Ident:
		// Opaque here; its own declaration is linted separately.
		return "", false
	default:
		return "", false
	}
}

func firstLine(s string) string {
	s = strings.TrimLeft(s, "\n\r \t")
	if idx := strings.IndexAny(s, "\n\r"); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}

func unquote(v string) (string, error) {
	if len(v) > 1 && v[0] == '`' {
		return v[1 : len(v)-1], nil
	}
	return strconv.Unquote(v)
}
