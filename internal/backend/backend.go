// Package backend drives one generation run: contract checks, the
// optional IR listing, and the Verilog-1995 output file.
package backend

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"vlog95/internal/config"
	"vlog95/internal/diag"
	"vlog95/internal/ir"
	"vlog95/internal/passes"
	"vlog95/internal/vlog95"
)

// MaxExitStatus is the largest error count reported as a process status.
const MaxExitStatus = 255

// Options configures how a design is written.
type Options struct {
	// Emit carries the formatting options of the generator.
	Emit vlog95.Options
	// Reporter receives every diagnostic. A nil reporter discards them.
	Reporter *diag.Reporter
	// DumpIRPath writes a readable listing of the input design when
	// non-empty.
	DumpIRPath string
	// SkipChecks bypasses the contract passes.
	SkipChecks bool
	// Stdout receives the output when the output path is empty or "-".
	Stdout io.Writer
}

// FromConfig maps a loaded configuration onto backend options.
func FromConfig(cfg *config.Config, version string) Options {
	if cfg == nil {
		cfg = config.Default()
	}
	return Options{Emit: vlog95.Options{
		Indent:      cfg.Indent,
		FileLine:    cfg.FileLine,
		AllowSigned: cfg.AllowSigned,
		Version:     version,
	}}
}

// Result lists the artifacts and diagnostics of a run.
type Result struct {
	MainPath string
	AuxPaths []string
	Errors   int
	Warnings int
}

// ExitStatus is the error count clamped to a valid process status.
func (r Result) ExitStatus() int {
	if r.Errors > MaxExitStatus {
		return MaxExitStatus
	}
	return r.Errors
}

// EmitVerilog checks the design, then writes it as Verilog-1995 to
// outputPath. A non-nil error means the run was aborted; diagnostics that
// did not abort it are counted in Result.Errors.
func EmitVerilog(design *ir.Design, outputPath string, opts Options) (Result, error) {
	if design == nil {
		return Result{}, fmt.Errorf("backend: design is nil")
	}
	rep := opts.Reporter
	if rep == nil {
		rep = diag.NewReporter(nil, "text")
	}
	startWarnings := rep.WarningCount()
	var res Result

	if !opts.SkipChecks {
		if err := passes.Default(rep).Run(design); err != nil {
			return res, fmt.Errorf("backend: %w", err)
		}
	}

	if opts.DumpIRPath != "" {
		if err := dumpIR(design, opts.DumpIRPath); err != nil {
			return res, err
		}
		res.AuxPaths = append(res.AuxPaths, opts.DumpIRPath)
	}

	if outputPath == "" || outputPath == "-" {
		w := opts.Stdout
		if w == nil {
			w = os.Stdout
		}
		n, err := vlog95.Emit(design, w, opts.Emit, rep)
		res.Errors, res.Warnings = n, rep.WarningCount()-startWarnings
		if err != nil {
			return res, fmt.Errorf("backend: %w", err)
		}
		return res, nil
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return res, ioError(rep, "create verilog output dir", err)
	}
	outFile, err := os.Create(outputPath)
	if err != nil {
		return res, ioError(rep, "create verilog output file", err)
	}
	res.MainPath = outputPath
	n, emitErr := vlog95.Emit(design, outFile, opts.Emit, rep)
	res.Errors, res.Warnings = n, rep.WarningCount()-startWarnings
	if err := outFile.Close(); err != nil && emitErr == nil {
		return res, ioError(rep, "close verilog output file", err)
	}
	if emitErr != nil {
		return res, fmt.Errorf("backend: %w", emitErr)
	}
	return res, nil
}

// Check runs the contract passes without writing anything.
func Check(design *ir.Design, rep *diag.Reporter) error {
	if design == nil {
		return fmt.Errorf("backend: design is nil")
	}
	if err := passes.Default(rep).Run(design); err != nil {
		return fmt.Errorf("backend: %w", err)
	}
	return nil
}

func dumpIR(design *ir.Design, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("backend: create ir dump dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("backend: create ir dump: %w", err)
	}
	ir.Dump(design, f)
	if err := f.Close(); err != nil {
		return fmt.Errorf("backend: write ir dump: %w", err)
	}
	return nil
}

func ioError(rep *diag.Reporter, what string, err error) error {
	rep.Report(diag.Diagnostic{Severity: diag.SeverityError, Category: diag.IO, Message: fmt.Sprintf("%s: %v", what, err)})
	return fmt.Errorf("backend: %s: %w", what, err)
}
