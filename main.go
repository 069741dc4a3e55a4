package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"methodsplit/colors"
	"methodsplit/internal/compiler"
	"methodsplit/internal/config"
	"methodsplit/internal/literal"
	"methodsplit/internal/log"
	"methodsplit/internal/mir"
	"methodsplit/internal/mir/interp"
	"methodsplit/internal/pipeline"
)

const version = "0.1.0"

var (
	verbosityFlag = &cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=crit, 1=error, 2=warn, 3=info, 4=debug, 5=trace",
		Value: 3,
	}
	debugFlag = &cli.BoolFlag{
		Name:    "debug",
		Aliases: []string{"d"},
		Usage:   "Print pipeline phase progress",
	}
	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	thresholdFlag = &cli.IntFlag{
		Name:  "threshold",
		Usage: "Instruction count at which a function is split",
	}
	intervalFlag = &cli.IntFlag{
		Name:  "interval",
		Usage: "Instruction count of each periodic chunk",
	}
	minSplitFlag = &cli.IntFlag{
		Name:  "min-split",
		Usage: "Smallest range worth extracting",
	}
	maxArgsFlag = &cli.IntFlag{
		Name:  "max-args",
		Usage: "Maximum parameter count of an extracted function",
	}
	workersFlag = &cli.IntFlag{
		Name:  "workers",
		Usage: "Functions scanned concurrently (0 = unbounded)",
	}
	dumpFlag = &cli.StringFlag{
		Name:  "dump",
		Usage: "Write the IR before and after splitting into this directory",
	}
	noVerifyFlag = &cli.BoolFlag{
		Name:  "no-verify",
		Usage: "Skip the IR verifier",
	}

	configFlags = []cli.Flag{
		configFileFlag,
		thresholdFlag,
		intervalFlag,
		minSplitFlag,
		maxArgsFlag,
		workersFlag,
		dumpFlag,
		noVerifyFlag,
	}

	kindFlag = &cli.StringFlag{
		Name:  "kind",
		Usage: "Literal kind: array or record",
		Value: "array",
	}
	elementsFlag = &cli.IntFlag{
		Name:  "elements",
		Usage: "Number of literal elements",
		Value: 10000,
	}
	argEveryFlag = &cli.IntFlag{
		Name:  "arg-every",
		Usage: "Make every n-th element a function parameter",
	}
	fallibleFlag = &cli.BoolFlag{
		Name:  "fallible",
		Usage: "Compute the middle element with a call that can fail",
	}
	guardedFlag = &cli.BoolFlag{
		Name:  "guarded",
		Usage: "Compute one element inside an error region",
	}
	checkFlag = &cli.BoolFlag{
		Name:  "check",
		Usage: "Run the original and the split function and compare results",
	}

	literalCommand = &cli.Command{
		Action: runLiteral,
		Name:   "literal",
		Usage:  "Generate a large literal function and split it",
		Flags: append([]cli.Flag{
			kindFlag,
			elementsFlag,
			argEveryFlag,
			fallibleFlag,
			guardedFlag,
			checkFlag,
		}, configFlags...),
		Description: `Builds a function constructing a list or record literal with the given
number of elements, runs the split pipeline on it and prints the resulting
functions. With --check the original and the rewritten module are executed
by the IR interpreter and their results compared.`,
	}
	configCommand = &cli.Command{
		Action: printConfig,
		Name:   "config",
		Usage:  "Print the effective configuration as TOML",
		Flags:  configFlags,
	}
)

func newApp() *cli.App {
	return &cli.App{
		Name:     "methodsplit",
		Usage:    "split oversized IR functions into smaller ones",
		Version:  version,
		Flags:    []cli.Flag{verbosityFlag, debugFlag},
		Before:   setupLogging,
		Commands: []*cli.Command{literalCommand, configCommand},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging installs a terminal log handler on stderr, colored when
// stderr is a terminal.
func setupLogging(ctx *cli.Context) error {
	useColor := (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) &&
		os.Getenv("TERM") != "dumb"
	output := io.Writer(os.Stderr)
	if useColor {
		output = colorable.NewColorableStderr()
	}
	lvl := log.FromLegacyLevel(ctx.Int(verbosityFlag.Name))
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(output, lvl, useColor)))

	colors.SetEnabled(isatty.IsTerminal(os.Stdout.Fd()))
	return nil
}

// loadConfig reads the config file, if any, and applies the flags set on
// the command line on top of it.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if file := ctx.String(configFileFlag.Name); file != "" {
		if err := config.Load(file, cfg); err != nil {
			return nil, err
		}
	}

	if ctx.IsSet(thresholdFlag.Name) {
		cfg.Optimizer.FunctionInstructionThreshold = ctx.Int(thresholdFlag.Name)
	}
	if ctx.IsSet(intervalFlag.Name) {
		cfg.Optimizer.PeriodicSplitInterval = ctx.Int(intervalFlag.Name)
	}
	if ctx.IsSet(minSplitFlag.Name) {
		cfg.Optimizer.MinSplitInstructions = ctx.Int(minSplitFlag.Name)
	}
	if ctx.IsSet(maxArgsFlag.Name) {
		cfg.Optimizer.MaxSplitArgs = ctx.Int(maxArgsFlag.Name)
	}
	if ctx.IsSet(workersFlag.Name) {
		cfg.Driver.Workers = ctx.Int(workersFlag.Name)
	}
	if dir := ctx.String(dumpFlag.Name); dir != "" {
		cfg.Driver.DumpIR = true
		cfg.Driver.DumpDir = dir
	}
	if ctx.Bool(noVerifyFlag.Name) {
		cfg.Driver.Verify = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func printConfig(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	out, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}

func runLiteral(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	n := ctx.Int(elementsFlag.Name)
	opts := literal.Options{
		ArgEvery: ctx.Int(argEveryFlag.Name),
		Fallible: ctx.Bool(fallibleFlag.Name),
		Guarded:  ctx.Bool(guardedFlag.Name),
	}
	kind := ctx.String(kindFlag.Name)
	build := func() (*mir.Module, error) {
		var (
			fn  *mir.Function
			err error
		)
		switch kind {
		case "array":
			fn, err = literal.ArrayFunction("build", n, opts)
		case "record":
			fn, err = literal.RecordFunction("build", n, opts)
		default:
			return nil, fmt.Errorf("unknown literal kind %q, want array or record", kind)
		}
		if err != nil {
			return nil, err
		}
		return &mir.Module{Name: "literal", Functions: []*mir.Function{fn}}, nil
	}

	mod, err := build()
	if err != nil {
		return err
	}
	log.Info("Generated literal function", "kind", kind, "elements", n,
		"instructions", mir.InstructionCount(mod.Functions[0]))

	result := compiler.Compile(&compiler.Options{
		Modules: []*mir.Module{mod},
		Config:  cfg,
		Debug:   ctx.Bool(debugFlag.Name),
		Output:  os.Stderr,
	})
	pipeline.PrintSummary(os.Stdout, result.Stats)
	if !result.Success {
		return cli.Exit("optimization failed", 1)
	}

	if !ctx.Bool(checkFlag.Name) {
		return nil
	}
	ref, err := build()
	if err != nil {
		return err
	}
	for _, args := range argumentSets(n, opts) {
		if err := compare(ref, mod, args); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}
	colors.GREEN.Println("✓ split module behaves like the original")
	return nil
}

// argumentSets returns inputs covering the success and failure paths the
// literal options add.
func argumentSets(n int, opts literal.Options) [][]interp.Value {
	sets := [][]interp.Value{literal.Args(n, opts, 7, int64(5))}
	if opts.Fallible {
		sets = append(sets, literal.Args(n, opts, -1, int64(5)))
	}
	if opts.Guarded {
		sets = append(sets, literal.Args(n, opts, 7, "five"))
	}
	return sets
}

// compare runs "build" in both modules and reports the first difference
// in result, error or observed side effects.
func compare(ref, split *mir.Module, args []interp.Value) error {
	refIt, splitIt := interp.New(ref), interp.New(split)
	want, wantErr := refIt.Call("build", args...)
	got, gotErr := splitIt.Call("build", args...)

	switch {
	case (wantErr == nil) != (gotErr == nil):
		return fmt.Errorf("error mismatch: original %v, split %v", wantErr, gotErr)
	case interp.Format(want) != interp.Format(got):
		return fmt.Errorf("result mismatch: original %s, split %s", interp.Format(want), interp.Format(got))
	case len(refIt.Trace) != len(splitIt.Trace):
		return fmt.Errorf("side effect mismatch: original observed %d values, split %d",
			len(refIt.Trace), len(splitIt.Trace))
	}
	for i := range refIt.Trace {
		if interp.Format(refIt.Trace[i]) != interp.Format(splitIt.Trace[i]) {
			return fmt.Errorf("side effect %d differs: original %s, split %s",
				i, interp.Format(refIt.Trace[i]), interp.Format(splitIt.Trace[i]))
		}
	}
	return nil
}
