package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Masterminds/semver/v3"

	"vlog95/internal/backend"
	"vlog95/internal/config"
	"vlog95/internal/diag"
	"vlog95/internal/ir"
)

// version is overridden at link time with -ldflags "-X main.version=...".
var version = "0.4.0"

var emitVerilog = backend.EmitVerilog

func main() {
	code, err := run(os.Args[1:], os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(code)
}

// run executes one command and returns the process exit status.
func run(args []string, stdout, stderr io.Writer) (int, error) {
	if len(args) == 0 {
		printGlobalUsage(stderr)
		return 1, fmt.Errorf("missing command")
	}

	switch args[0] {
	case "emit":
		return runEmit(args[1:], stdout, stderr)
	case "dump":
		return exitCode(runDump(args[1:], stdout, stderr))
	case "check":
		return exitCode(runCheck(args[1:], stderr))
	case "version":
		v, err := toolVersion()
		if err != nil {
			return 1, err
		}
		fmt.Fprintf(stdout, "vlog95 version %s\n", v)
		return 0, nil
	default:
		printGlobalUsage(stderr)
		return 1, fmt.Errorf("unknown command: %s", args[0])
	}
}

func exitCode(err error) (int, error) {
	if err != nil {
		return 1, err
	}
	return 0, nil
}

func printGlobalUsage(w io.Writer) {
	fmt.Fprintf(w, "vlog95 re-emits an elaborated design as Verilog-1995\n\n")
	fmt.Fprintf(w, "Usage:\n")
	fmt.Fprintf(w, "  vlog95 <command> [options] design.json\n\n")
	fmt.Fprintf(w, "Commands:\n")
	fmt.Fprintf(w, "  emit       Write the design as 1364-1995 Verilog\n")
	fmt.Fprintf(w, "  dump       Print a readable listing of the design\n")
	fmt.Fprintf(w, "  check      Run the contract checks only\n")
	fmt.Fprintf(w, "  version    Print the tool version\n")
}

func toolVersion() (string, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return "", fmt.Errorf("invalid build version %q: %w", version, err)
	}
	return v.String(), nil
}

func runEmit(args []string, stdout, stderr io.Writer) (int, error) {
	fs := flag.NewFlagSet("emit", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "config file (defaults to vlog95.json or .vlog95.json when present)")
	output := fs.String("o", "", "output file path (stdout when omitted)")
	indent := fs.Int("indent", 2, "spaces per indentation level (capped at 16)")
	fileLine := fs.Bool("fileline", false, "annotate emitted lines with their source file and line")
	allowSigned := fs.Bool("allow-signed", false, "allow signed declarations and $signed/$unsigned")
	diagFormat := fs.String("diag-format", "text", "diagnostic output format (text|json)")
	dumpIR := fs.String("dump-ir", "", "path to write a listing of the input design (optional)")
	skipChecks := fs.Bool("skip-checks", false, "do not run the contract checks before emitting")
	if err := fs.Parse(args); err != nil {
		return 1, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 1, fmt.Errorf("emit command requires exactly one design file")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return 1, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "indent":
			cfg.Indent = *indent
		case "fileline":
			cfg.FileLine = *fileLine
		case "allow-signed":
			cfg.AllowSigned = *allowSigned
		case "diag-format":
			cfg.DiagFormat = *diagFormat
		}
	})
	cfg.Normalize()

	v, err := toolVersion()
	if err != nil {
		return 1, err
	}
	design, err := ir.ReadFile(fs.Arg(0))
	if err != nil {
		return 1, err
	}
	opts := backend.FromConfig(cfg, v)
	opts.Reporter = diag.NewReporter(stderr, cfg.DiagFormat)
	opts.DumpIRPath = *dumpIR
	opts.SkipChecks = *skipChecks
	opts.Stdout = stdout

	res, err := emitVerilog(design, *output, opts)
	code := res.ExitStatus()
	if err != nil {
		if code == 0 {
			code = 1
		}
		return code, err
	}
	for _, aux := range res.AuxPaths {
		fmt.Fprintf(stderr, "additional output written: %s\n", aux)
	}
	return code, nil
}

func runDump(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	fs.SetOutput(stderr)

	output := fs.String("o", "", "output file path (stdout when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("dump command requires exactly one design file")
	}
	design, err := ir.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	if *output == "" || *output == "-" {
		ir.Dump(design, stdout)
		return nil
	}
	f, err := os.Create(*output)
	if err != nil {
		return fmt.Errorf("create dump output: %w", err)
	}
	ir.Dump(design, f)
	return f.Close()
}

func runCheck(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(stderr)

	diagFormat := fs.String("diag-format", "text", "diagnostic output format (text|json)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("check command requires exactly one design file")
	}
	design, err := ir.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	return backend.Check(design, diag.NewReporter(stderr, *diagFormat))
}
