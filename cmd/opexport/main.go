package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/hanpama/opexport/internal/introspection"
	"github.com/hanpama/opexport/internal/language"
	"github.com/hanpama/opexport/internal/logging"
	"github.com/hanpama/opexport/internal/operation"
	"github.com/hanpama/opexport/internal/schema"
	"github.com/hanpama/opexport/internal/server"
)

const rootUsage = `opexport: resolve GraphQL operations for code generators

USAGE:
  opexport <command> [flags]

COMMANDS:
  resolve          Resolve a document into ordered operation data (JSON)
  schema           Load a schema and print it as normalised SDL
  serve            Serve the resolver over HTTP
  help             Show help for any command
`

const resolveUsage = `resolve FLAGS:
  -query <file>        GraphQL document, - for stdin (default: -)
  -variables <file>    JSON object of variable values
  -schema <file>       Schema as SDL or introspection JSON
  -pretty              Indent the JSON output
  -log.level <level>   debug, info, warn or error (default: warn)
  -log.json            Log as JSON instead of console lines
`

const schemaUsage = `schema FLAGS:
  -schema <file>       Schema as SDL or introspection JSON (required)
  -out <file>          Write SDL to file (default: stdout)
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	global := flag.NewFlagSet("opexport", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	if err := global.Parse(args); err != nil {
		fmt.Fprint(stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "resolve":
		return cmdResolve(cmdArgs, stdin, stdout, stderr)
	case "schema":
		return cmdSchema(cmdArgs, stdout, stderr)
	case "serve":
		return cmdServe(ctx, cmdArgs, stderr)
	case "help":
		return cmdHelp(cmdArgs, stdout)
	default:
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, rootUsage)
		return nil
	}
	switch args[0] {
	case "resolve":
		fmt.Fprint(stdout, resolveUsage)
	case "schema":
		fmt.Fprint(stdout, schemaUsage)
	case "serve":
		fmt.Fprint(stdout, serveUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

func cmdResolve(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	queryFile := "-"
	variablesFile := ""
	schemaFile := ""
	pretty := false
	logLevel := "warn"
	logJSON := false

	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&queryFile, "query", queryFile, "GraphQL document")
	fs.StringVar(&variablesFile, "variables", variablesFile, "JSON variables")
	fs.StringVar(&schemaFile, "schema", schemaFile, "Schema file")
	fs.BoolVar(&pretty, "pretty", pretty, "Indent JSON output")
	fs.StringVar(&logLevel, "log.level", logLevel, "Log level")
	fs.BoolVar(&logJSON, "log.json", logJSON, "JSON logs")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, resolveUsage)
		return err
	}

	logger, err := newLogger(stderr, logLevel, logJSON)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	doc, err := readInput(queryFile, stdin)
	if err != nil {
		return fmt.Errorf("read query: %w", err)
	}

	vars := map[string]any{}
	if variablesFile != "" {
		data, err := os.ReadFile(variablesFile)
		if err != nil {
			return fmt.Errorf("read variables: %w", err)
		}
		if err := json.Unmarshal(data, &vars); err != nil {
			return fmt.Errorf("decode variables: %w", err)
		}
	}

	var sch *schema.Schema
	if schemaFile != "" {
		if sch, err = loadSchema(schemaFile); err != nil {
			return err
		}
	}

	res := operation.Compute(
		operation.Input{Document: string(doc), Variables: vars, Schema: sch},
		operation.WithLogger(logger),
	)
	for _, v := range res.Violations {
		logger.Warn(v.Message, zap.Int("line", v.Line), zap.Int("column", v.Column))
	}

	enc := json.NewEncoder(stdout)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(server.NewResponse(res))
}

func cmdSchema(args []string, stdout, stderr io.Writer) error {
	schemaFile := ""
	outFile := ""
	fs := flag.NewFlagSet("schema", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&schemaFile, "schema", schemaFile, "Schema file")
	fs.StringVar(&outFile, "out", outFile, "Write SDL to file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, schemaUsage)
		return err
	}
	if schemaFile == "" {
		fmt.Fprint(stderr, schemaUsage)
		return fmt.Errorf("-schema is required")
	}

	sch, err := loadSchema(schemaFile)
	if err != nil {
		return err
	}
	sdl := schema.Render(sch)
	if outFile == "" {
		fmt.Fprint(stdout, sdl)
		return nil
	}
	return os.WriteFile(outFile, []byte(sdl), 0644)
}

func newLogger(w io.Writer, level string, jsonOutput bool) (*zap.Logger, error) {
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return logging.New(w, !jsonOutput, lvl), nil
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// loadSchema reads SDL, or an introspection result when the file is JSON.
func loadSchema(path string) (*schema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") || bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		sch, err := introspection.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("decode introspection %s: %w", path, err)
		}
		return sch, nil
	}
	sch, err := schema.BuildFromSources(&language.Source{Name: path, Input: string(data)})
	if err != nil {
		return nil, fmt.Errorf("build schema %s: %w", path, err)
	}
	return sch, nil
}
