// Package vlog95 re-emits an elaborated design as IEEE 1364-1995 Verilog.
//
// Emission is a single ordered walk over the scope tree. Every call
// threads the printer, which owns the per-run state: the emitted module
// cache, the primitive worklists and the per-nexus name memo.
package vlog95

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"vlog95/internal/diag"
	"vlog95/internal/ir"
	"vlog95/internal/names"
)

// Options configures one generation run.
type Options struct {
	// Indent is the number of spaces per nesting level.
	Indent int
	// FileLine appends the originating file:line to emitted lines.
	FileLine bool
	// AllowSigned permits signed declarations, $signed/$unsigned and the
	// arithmetic right shift.
	AllowSigned bool
	// Version is the tool version recorded in the header.
	Version string
}

// InvariantError reports an IR shape the backend cannot accept. It aborts
// the run.
type InvariantError struct {
	Pos diag.Pos
	Msg string
}

func (e *InvariantError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
	}
	return e.Msg
}

type invariantPanic struct {
	err *InvariantError
}

// Emit writes design to w. It returns the number of error diagnostics
// raised during the run; a non-nil error means the run was aborted by an
// invariant violation or an I/O failure.
func Emit(design *ir.Design, w io.Writer, opts Options, rep *diag.Reporter) (count int, err error) {
	if design == nil {
		return 0, errors.New("vlog95: design is nil")
	}
	if opts.Indent <= 0 {
		opts.Indent = 2
	}
	out := bufio.NewWriter(w)
	p := newPrinter(design, opts, rep, out)
	start := rep.ErrorCount()

	defer func() {
		if r := recover(); r != nil {
			ip, ok := r.(invariantPanic)
			if !ok {
				panic(r)
			}
			rep.Report(diag.Diagnostic{Severity: diag.SeverityError, Category: diag.Invariant, Pos: ip.err.Pos, Message: ip.err.Msg})
			out.Flush()
			count = rep.ErrorCount() - start
			err = errors.WithStack(ip.err)
		}
	}()

	p.header()
	for _, root := range design.Roots {
		p.emitRoot(root)
	}
	p.emitUDPs()
	p.emitSynthesizedUDPs()

	count = rep.ErrorCount() - start
	if count > 0 {
		fmt.Fprintf(out, "// vlog95 reported %d error(s); this output is not valid Verilog.\n", count)
		fmt.Fprintf(out, "<<< vlog95 generation failed with %d error(s) >>>\n", count)
	}
	if err := out.Flush(); err != nil {
		return count, errors.Wrap(err, "vlog95: write output")
	}
	return count, nil
}

// printer is the per-run emission context.
type printer struct {
	design *ir.Design
	opts   Options
	rep    *diag.Reporter
	names  *names.Resolver
	out    *bufio.Writer

	buf    *bytes.Buffer
	indent int
	// muted suppresses diagnostics while a statement is rendered again.
	muted  int

	emitted    map[string]bool
	udps       []ir.UDPID
	udpSeen    map[ir.UDPID]bool
	synth      []storageKind
	synthSeen  map[storageKind]bool
	nexusNames map[localKey]string
	locality   map[localKey]bool
	inlining   map[ir.NexusID]bool
	used       map[ir.SignalID]bool
	signedDone map[ir.SignalID]bool

	mod *moduleState
}

type localKey struct {
	module ir.ScopeID
	nexus  ir.NexusID
}

// moduleState tracks what the module being emitted needs declared.
type moduleState struct {
	scope ir.ScopeID
	nets  []ir.NexusID
	// consts records nexuses whose constant driver was already assigned.
	consts map[ir.NexusID]bool
}

func newPrinter(design *ir.Design, opts Options, rep *diag.Reporter, out *bufio.Writer) *printer {
	p := &printer{
		design:     design,
		opts:       opts,
		rep:        rep,
		out:        out,
		buf:        new(bytes.Buffer),
		emitted:    make(map[string]bool),
		udpSeen:    make(map[ir.UDPID]bool),
		synthSeen:  make(map[storageKind]bool),
		nexusNames: make(map[localKey]string),
		locality:   make(map[localKey]bool),
		inlining:   make(map[ir.NexusID]bool),
		used:       make(map[ir.SignalID]bool),
		signedDone: make(map[ir.SignalID]bool),
	}
	p.names = names.NewResolver(design, p.signature)
	return p
}

func (p *printer) fatalf(pos ir.Pos, format string, args ...interface{}) {
	panic(invariantPanic{err: &InvariantError{Pos: pos, Msg: fmt.Sprintf(format, args...)}})
}

func (p *printer) unsupported(pos ir.Pos, format string, args ...interface{}) {
	if p.muted > 0 {
		return
	}
	p.rep.Unsupportedf(pos, format, args...)
}

func (p *printer) warn(pos ir.Pos, format string, args ...interface{}) {
	if p.muted > 0 {
		return
	}
	p.rep.Warning(pos, fmt.Sprintf(format, args...))
}

// line writes one indented line to the current capture buffer.
func (p *printer) line(pos ir.Pos, format string, args ...interface{}) {
	p.buf.WriteString(strings.Repeat(" ", p.indent*p.opts.Indent))
	fmt.Fprintf(p.buf, format, args...)
	if p.opts.FileLine && pos.IsValid() {
		fmt.Fprintf(p.buf, " // %s", pos)
	}
	p.buf.WriteByte('\n')
}

// capture runs fn with output redirected and returns what it wrote.
func (p *printer) capture(fn func()) string {
	saved := p.buf
	p.buf = new(bytes.Buffer)
	fn()
	text := p.buf.String()
	p.buf = saved
	return text
}

func (p *printer) header() {
	signed := "not allowed"
	if p.opts.AllowSigned {
		signed = "allowed"
	}
	fmt.Fprintf(p.out, "/*\n")
	fmt.Fprintf(p.out, " * 1364-1995 Verilog generated by vlog95 version %s\n", p.version())
	fmt.Fprintf(p.out, " *\n")
	fmt.Fprintf(p.out, " *   Delay selection: %s\n", p.design.DelaySelection)
	fmt.Fprintf(p.out, " *   Signed constructs and sign extension: %s\n", signed)
	fmt.Fprintf(p.out, " */\n\n")
}

func (p *printer) version() string {
	if p.opts.Version == "" {
		return "devel"
	}
	return p.opts.Version
}

// unit returns the time unit exponent delays in scope are written in.
func (p *printer) unit(scope ir.ScopeID) int {
	if s := p.design.Scope(scope); s != nil {
		return s.TimeUnit
	}
	return p.design.Precision
}
