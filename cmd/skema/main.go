package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/reoring/skema"
	"github.com/reoring/skema/builtin"
	"github.com/reoring/skema/jsonschema"
	"github.com/reoring/skema/schemadef"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	sub := os.Args[1]
	switch sub {
	case "validate":
		os.Exit(validateCmd(os.Args[2:], os.Stdin, os.Stdout))
	case "export":
		os.Exit(exportCmd(os.Args[2:], os.Stdout))
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "skema CLI\n\nUsage:\n  skema validate -schema def.yaml [-input data.json|-] [-v]\n  skema export -schema def.yaml [-o out.json]\n\nNotes:\n  - Inputs ending in .yaml or .yml are decoded as YAML, everything else as JSON.")
}

func newLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func loadSchema(path string, logger *zap.Logger) (skema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}
	reg := builtin.Registry(skema.WithLogger(logger))
	return schemadef.Load(reg, data)
}

// validateCmd returns the process exit code: 0 valid, 1 invalid, 2 usage or I/O error.
func validateCmd(args []string, stdin io.Reader, stdout io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	var schemaPath, input string
	var verbose bool
	fs.StringVar(&schemaPath, "schema", "", "schema definition file (YAML or JSON)")
	fs.StringVar(&input, "input", "-", "input document, - for stdin")
	fs.BoolVar(&verbose, "v", false, "enable verbose logs")
	if err := fs.Parse(args); err != nil || schemaPath == "" {
		fs.Usage()
		return 2
	}
	logger := newLogger(verbose)
	defer func() { _ = logger.Sync() }()

	s, err := loadSchema(schemaPath, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	data, err := readInput(input, stdin)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	doc, err := decode(input, data)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	res := skema.SafeParse(context.Background(), s, doc)
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if !res.OK() {
		return 1
	}
	return 0
}

func exportCmd(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	var schemaPath, out string
	fs.StringVar(&schemaPath, "schema", "", "schema definition file (YAML or JSON)")
	fs.StringVar(&out, "o", "", "output filename (default stdout)")
	if err := fs.Parse(args); err != nil || schemaPath == "" {
		fs.Usage()
		return 2
	}
	s, err := loadSchema(schemaPath, zap.NewNop())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	code, err := jsonschema.Marshal(s)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if out == "" {
		_, _ = stdout.Write(append(code, '\n'))
		return 0
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "creating output dir: %v\n", err)
		return 2
	}
	if err := os.WriteFile(out, code, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "writing output: %v\n", err)
		return 2
	}
	return 0
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func decode(path string, data []byte) (any, error) {
	var v any
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decoding yaml input: %w", err)
		}
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decoding json input: %w", err)
	}
	return v, nil
}
