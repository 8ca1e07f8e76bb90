package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/mcncl/omconv/internal/config"
	"github.com/mcncl/omconv/internal/convert"
	"github.com/mcncl/omconv/internal/errors"
	"github.com/mcncl/omconv/internal/fixtures"
	"github.com/mcncl/omconv/internal/formatter"
	"github.com/mcncl/omconv/internal/models"
	"github.com/mcncl/omconv/internal/parser"
	"github.com/mcncl/omconv/internal/schema"
	"github.com/mcncl/omconv/internal/server"
)

type cli struct {
	Config            string `help:"Path to a config file. Defaults to the nearest .omconv.yml." short:"c" type:"path"`
	Debug             bool   `help:"Enable debug logging." short:"d"`
	Interactive       bool   `help:"Read the document from the terminal, finishing with Ctrl+D." short:"I"`
	JSONIndent        *int   `help:"Spaces per JSON indentation level, 0 for compact output." name:"json-indent"`
	XMLIndent         *int   `help:"Spaces per XML indentation level, 0 for compact output." name:"xml-indent"`
	StrictAttribution bool   `help:"Reject OMATP wrappers with an unpaired child." name:"strict-attribution"`

	JSON     JSONCmd     `cmd:"" name:"json" help:"Convert OpenMath XML to JSON."`
	XML      XMLCmd      `cmd:"" name:"xml" help:"Convert OpenMath JSON to XML."`
	Validate ValidateCmd `cmd:"" help:"Validate OpenMath JSON against the schema."`
	Fixture  FixtureCmd  `cmd:"" help:"Generate JSON/XML fixture pairs."`
	Serve    ServeCmd    `cmd:"" help:"Serve the conversion and validation API over HTTP."`
	Examples ExamplesCmd `cmd:"" help:"Print the built-in example values."`
	Kinds    KindsCmd    `cmd:"" help:"List the schema kinds a value can be validated against."`
	Version  VersionCmd  `cmd:"" help:"Show version information."`
}

// CLI defines the command-line interface
var CLI cli

// Context holds the runtime context shared by every command
type Context struct {
	Debug  bool
	Config *config.Config
	Logger *slog.Logger
	// Stdin is nil when nothing was piped in.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Version information
const (
	Version = "0.1.0"
)

func main() {
	// Parse CLI arguments with Kong
	parser := kong.Must(&CLI,
		kong.Name("omconv"),
		kong.Description("Convert OpenMath between its JSON and XML encodings and validate OpenMath JSON"),
		kong.UsageOnError(),
	)

	kctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		// If there's an error parsing arguments, the usage will already be shown by kong.UsageOnError()
		os.Exit(1)
	}

	ctx, err := newContext()
	if err == nil {
		err = kctx.Run(ctx)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		os.Exit(1)
	}
}

// newContext loads the configuration and wires the standard streams
func newContext() (*Context, error) {
	configPath := CLI.Config
	if configPath == "" {
		configPath = config.FindConfigFile()
	}

	overrides := config.Overrides{
		JSONIndent:  CLI.JSONIndent,
		XMLIndent:   CLI.XMLIndent,
		Addr:        CLI.Serve.Addr,
		FixturesDir: CLI.Fixture.Dir,
		Debug:       CLI.Debug,
	}
	if CLI.StrictAttribution {
		strict := true
		overrides.StrictAttribution = &strict
	}

	cfg, err := config.LoadConfigWithCLI(configPath, overrides)
	if err != nil {
		return nil, errors.NewConfigError("failed to load configuration", err)
	}

	stdin, err := stdinReader(CLI.Interactive)
	if err != nil {
		return nil, err
	}

	logger := newLogger(os.Stderr, cfg.Dev.Debug)
	if configPath != "" {
		logger.Debug("loaded config", "path", configPath)
	}

	return &Context{
		Debug:  cfg.Dev.Debug,
		Config: cfg,
		Logger: logger,
		Stdin:  stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}, nil
}

// newLogger writes text logs to w, including debug records when debug is set
func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// stdinReader returns stdin when data is piped in, or when the user asked to
// type the document in the terminal.
func stdinReader(interactive bool) (io.Reader, error) {
	stdinInfo, err := os.Stdin.Stat()
	if err != nil {
		return nil, errors.NewInputError("failed to access stdin", err)
	}

	if (stdinInfo.Mode() & os.ModeCharDevice) == 0 {
		// Piped input
		return os.Stdin, nil
	}
	if interactive {
		fmt.Fprintln(os.Stderr, "omconv interactive mode")
		fmt.Fprintln(os.Stderr, "Paste your document below and press Ctrl+D (or Ctrl+Z on Windows) when done:")
		return os.Stdin, nil
	}
	return nil, nil
}

// writeOutput writes content to file or stdout
func writeOutput(ctx *Context, path, content string) error {
	if path != "" {
		if err := os.WriteFile(path, []byte(content+"\n"), 0o644); err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", path), err)
		}
		fmt.Fprintf(ctx.Stderr, "Output written to %s\n", path)
		return nil
	}

	if _, err := fmt.Fprintln(ctx.Stdout, strings.TrimSpace(content)); err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}

// JSONCmd converts an XML document to JSON
type JSONCmd struct {
	Input  string `help:"Path to input XML file. If not specified, reads from stdin." short:"i" type:"path"`
	Output string `help:"Path to output JSON file. If not specified, writes to stdout." short:"o" type:"path"`
}

// Run executes the command
func (c *JSONCmd) Run(ctx *Context) error {
	data, err := parser.ReadInput(c.Input, ctx.Stdin)
	if err != nil {
		return err
	}
	el, err := parser.ParseXML(data)
	if err != nil {
		return err
	}

	node, err := ctx.Config.Decoder().Decode(el)
	if err != nil {
		return errors.NewConversionError("failed to convert XML to JSON", err)
	}
	ctx.Logger.Debug("converted XML to JSON", "kind", node.Kind(), "strict_attribution", ctx.Config.Decode.StrictAttribution)

	out, err := formatter.NewFormatter(ctx.Config.Output.JSONIndent, ctx.Config.Output.XMLIndent).FormatJSON(node)
	if err != nil {
		return errors.NewOutputError("failed to format JSON", err)
	}
	return writeOutput(ctx, c.Output, out)
}

// XMLCmd converts a JSON document to XML
type XMLCmd struct {
	Input  string `help:"Path to input JSON file. If not specified, reads from stdin." short:"i" type:"path"`
	Output string `help:"Path to output XML file. If not specified, writes to stdout." short:"o" type:"path"`
}

// Run executes the command
func (c *XMLCmd) Run(ctx *Context) error {
	data, err := parser.ReadInput(c.Input, ctx.Stdin)
	if err != nil {
		return err
	}
	node, err := parser.ParseJSON(data)
	if err != nil {
		return err
	}

	el, err := convert.ConvertToXML(node)
	if err != nil {
		return errors.NewConversionError("failed to convert JSON to XML", err)
	}
	ctx.Logger.Debug("converted JSON to XML", "kind", node.Kind())

	out, err := formatter.NewFormatter(ctx.Config.Output.JSONIndent, ctx.Config.Output.XMLIndent).FormatXML(el)
	if err != nil {
		return errors.NewOutputError("failed to format XML", err)
	}
	return writeOutput(ctx, c.Output, out)
}

// ValidateCmd validates a JSON document against a schema kind
type ValidateCmd struct {
	Input  string `help:"Path to input JSON file. If not specified, reads from stdin." short:"i" type:"path"`
	Kind   string `help:"Schema kind to validate against. Defaults to validation.default_kind." short:"k"`
	Report string `help:"Report format: table or json. Defaults to validation.report." short:"r"`
}

// Run executes the command
func (c *ValidateCmd) Run(ctx *Context) error {
	if c.Kind != "" && !schema.IsKnownKind(c.Kind) {
		return fmt.Errorf("%w: %s", errors.ErrUnknownKind, c.Kind)
	}

	data, err := parser.ReadInput(c.Input, ctx.Stdin)
	if err != nil {
		return err
	}
	instance, err := parser.ParseInstance(bytes.NewReader(data))
	if err != nil {
		return err
	}

	kind := ctx.Config.Kind(c.Kind)
	result, err := schema.Validate(instance, kind)
	if err != nil {
		return errors.NewValidationError("failed to validate", err)
	}
	ctx.Logger.Debug("validated", "kind", result.Kind, "valid", result.Valid, "errors", len(result.Errors))

	report := c.Report
	if report == "" {
		report = ctx.Config.Validation.Report
	}
	out, err := formatter.NewFormatter(ctx.Config.Output.JSONIndent, ctx.Config.Output.XMLIndent).FormatReport(result, report)
	if err != nil {
		return errors.NewOutputError("failed to format report", err)
	}
	if err := writeOutput(ctx, "", out); err != nil {
		return err
	}

	if !result.Valid {
		return errors.NewValidationError(fmt.Sprintf("document is not a valid %s", result.Kind), nil)
	}
	return nil
}

// FixtureCmd groups the fixture generators
type FixtureCmd struct {
	Dir string `help:"Fixture directory. Defaults to fixtures.dir." type:"path"`

	XML  FixtureXMLCmd  `cmd:"" name:"xml" help:"Generate XML fixtures from their JSON half."`
	JSON FixtureJSONCmd `cmd:"" name:"json" help:"Generate JSON fixtures from their XML half."`
	Add  FixtureAddCmd  `cmd:"" help:"Add a fixture pair from a JSON value."`
}

func newStore(ctx *Context) *fixtures.Store {
	store := fixtures.NewStore(ctx.Config.Fixtures.Dir)
	store.Decoder = ctx.Config.Decoder()
	if ctx.Config.Output.JSONIndent > 0 {
		store.JSONIndent = ctx.Config.Output.JSONIndent
	}
	return store
}

// fixtureNames resolves the names to generate in one direction: the given
// specs, or the whole catalogue. keep decides from the skip markers, taken
// from the spec itself and from the catalogue entry of the same name.
func fixtureNames(specs []string, keep func(fixtures.Fixture) bool) []string {
	catalogue := fixtures.Catalogue()
	if len(specs) == 0 {
		var names []string
		for _, f := range catalogue {
			if keep(f) {
				names = append(names, f.Name)
			}
		}
		return names
	}

	known := make(map[string]fixtures.Fixture, len(catalogue))
	for _, f := range catalogue {
		known[f.Name] = f
	}

	var names []string
	for _, spec := range specs {
		f := fixtures.Declare(spec, "", "")
		if c, ok := known[f.Name]; ok {
			f.SkipForward = f.SkipForward || c.SkipForward
			f.SkipBackward = f.SkipBackward || c.SkipBackward
		}
		if keep(f) {
			names = append(names, f.Name)
		}
	}
	return names
}

// FixtureXMLCmd regenerates XML fixtures
type FixtureXMLCmd struct {
	Names []string `arg:"" optional:"" help:"Fixture names such as omi/10_int. Defaults to the whole catalogue."`
}

// Run executes the command
func (c *FixtureXMLCmd) Run(ctx *Context) error {
	store := newStore(ctx)
	for _, name := range fixtureNames(c.Names, func(f fixtures.Fixture) bool { return !f.SkipBackward }) {
		path, err := store.MakeXML(name)
		if err != nil {
			return errors.NewConversionError(fmt.Sprintf("failed to generate fixture %s", name), err)
		}
		ctx.Logger.Debug("generated fixture", "name", name)
		fmt.Fprintf(ctx.Stdout, "wrote %s\n", path)
	}
	return nil
}

// FixtureJSONCmd regenerates JSON fixtures
type FixtureJSONCmd struct {
	Names []string `arg:"" optional:"" help:"Fixture names such as omi/10_int. Defaults to the whole catalogue."`
}

// Run executes the command
func (c *FixtureJSONCmd) Run(ctx *Context) error {
	store := newStore(ctx)
	for _, name := range fixtureNames(c.Names, func(f fixtures.Fixture) bool { return !f.SkipForward }) {
		path, err := store.MakeJSON(name)
		if err != nil {
			return errors.NewConversionError(fmt.Sprintf("failed to generate fixture %s", name), err)
		}
		ctx.Logger.Debug("generated fixture", "name", name)
		fmt.Fprintf(ctx.Stdout, "wrote %s\n", path)
	}
	return nil
}

// FixtureAddCmd writes a new fixture pair
type FixtureAddCmd struct {
	Description string `arg:"" help:"What the fixture shows; used to derive its name."`
	Input       string `help:"Path to input JSON file. If not specified, reads from stdin." short:"i" type:"path"`
	Name        string `help:"Fixture name to use instead of the derived one." short:"n"`
}

// Run executes the command
func (c *FixtureAddCmd) Run(ctx *Context) error {
	data, err := parser.ReadInput(c.Input, ctx.Stdin)
	if err != nil {
		return err
	}
	node, err := parser.ParseJSON(data)
	if err != nil {
		return err
	}

	name := c.Name
	if name == "" {
		name = fixtures.NameFor(node.Kind(), c.Description)
	}
	jsonPath, xmlPath, err := newStore(ctx).Add(name, node)
	if err != nil {
		return errors.NewOutputError(fmt.Sprintf("failed to add fixture %s", name), err)
	}
	fmt.Fprintf(ctx.Stdout, "wrote %s\nwrote %s\n", jsonPath, xmlPath)
	return nil
}

// ServeCmd runs the HTTP API
type ServeCmd struct {
	Addr string `help:"Address to listen on. Defaults to server.addr." short:"a"`
}

// Run executes the command
func (c *ServeCmd) Run(ctx *Context) error {
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.New(ctx.Config, ctx.Logger).ListenAndServe(sigCtx)
}

// ExamplesCmd prints the example catalogue
type ExamplesCmd struct {
	Format string `help:"Encoding to print: json or xml." short:"f" enum:"json,xml" default:"json"`
	Name   string `arg:"" optional:"" help:"Only print the example with this name."`
}

// Run executes the command
func (c *ExamplesCmd) Run(ctx *Context) error {
	f := formatter.NewFormatter(ctx.Config.Output.JSONIndent, ctx.Config.Output.XMLIndent)
	found := false
	for _, ex := range fixtures.Examples() {
		if c.Name != "" && ex.Name != c.Name {
			continue
		}
		found = true
		out, err := c.render(f, ex.Value)
		if err != nil {
			return err
		}
		fmt.Fprintf(ctx.Stdout, "# %s\n%s\n", ex.Name, out)
	}
	if !found {
		return errors.NewInputError(fmt.Sprintf("no example named '%s'", c.Name), nil)
	}
	return nil
}

func (c *ExamplesCmd) render(f *formatter.Formatter, n models.Node) (string, error) {
	if c.Format != "xml" {
		return f.FormatJSON(n)
	}
	el, err := convert.ConvertToXML(n)
	if err != nil {
		return "", errors.NewConversionError("failed to convert example", err)
	}
	return f.FormatXML(el)
}

// KindsCmd lists the schema kinds
type KindsCmd struct{}

// Run executes the command
func (c *KindsCmd) Run(ctx *Context) error {
	defs, err := schema.Definitions()
	if err != nil {
		return errors.NewValidationError("failed to read schema", err)
	}
	out, err := formatter.NewFormatter(0, 0).FormatKinds(defs)
	if err != nil {
		return errors.NewOutputError("failed to render kinds", err)
	}
	fmt.Fprintln(ctx.Stdout, out)
	return nil
}

// VersionCmd prints the version
type VersionCmd struct{}

// Run executes the command
func (c *VersionCmd) Run(ctx *Context) error {
	fmt.Fprintf(ctx.Stdout, "omconv version %s\n", Version)
	return nil
}
