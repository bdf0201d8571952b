package ir

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a simple human-readable representation of the design.
func Dump(design *Design, w io.Writer) {
	if design == nil {
		fmt.Fprintln(w, "<nil design>")
		return
	}
	fmt.Fprintf(w, "design precision=%d delays=%s\n", design.Precision, design.DelaySelection)
	for _, root := range design.Roots {
		dumpScope(design, design.Scope(root), w, 0)
	}
	dumpUDPs(design, w)
}

func dumpScope(design *Design, scope *Scope, w io.Writer, depth int) {
	if scope == nil {
		return
	}
	pad := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%s%s %s (%s) units=%d/%d\n", pad, scope.Kind, scope.Name, scope.TypeName, scope.TimeUnit, scope.TimePrecision)
	dumpParams(scope, w, pad)
	dumpSignals(design, scope, w, pad)
	dumpDevices(design, scope, w, pad)
	dumpEvents(design, scope, w, pad)
	for idx, proc := range scope.Processes {
		fmt.Fprintf(w, "%s  process %d %s at %s\n", pad, idx, proc.Kind, proc.Pos)
	}
	if scope.Body != nil {
		fmt.Fprintf(w, "%s  body at %s\n", pad, scope.Body.Position())
	}
	for _, child := range scope.Children {
		dumpScope(design, design.Scope(child), w, depth+1)
	}
}

func dumpParams(scope *Scope, w io.Writer, pad string) {
	if len(scope.Params) == 0 {
		return
	}
	fmt.Fprintf(w, "%s  params:\n", pad)
	for _, p := range scope.Params {
		local := ""
		if p.Local {
			local = " local"
		}
		fmt.Fprintf(w, "%s    %s = %s%s\n", pad, p.Name, renderExpr(p.Value), local)
	}
}

func dumpSignals(design *Design, scope *Scope, w io.Writer, pad string) {
	if len(scope.Signals) == 0 {
		return
	}
	fmt.Fprintf(w, "%s  signals:\n", pad)
	for _, id := range scope.Signals {
		sig := design.Signal(id)
		array := ""
		if sig.Array != nil {
			array = fmt.Sprintf(" [%d words from %d]", sig.Array.Count, sig.Array.Base)
		}
		fmt.Fprintf(w, "%s    %-8s %-6s %s[%d:%d]%s%s %s nexus=%v\n",
			pad,
			sig.Name,
			sig.Kind.Keyword(),
			portDirection(sig.Port),
			sig.MSB, sig.LSB,
			signSuffix(sig.Signed),
			array,
			sig.Type,
			sig.Nexus,
		)
	}
}

func dumpDevices(design *Design, scope *Scope, w io.Writer, pad string) {
	if len(scope.Devices) == 0 {
		return
	}
	fmt.Fprintf(w, "%s  devices:\n", pad)
	for _, id := range scope.Devices {
		dev := design.Device(id)
		pins := make([]string, 0, 4)
		for _, pin := range dev.Pins() {
			pins = append(pins, fmt.Sprintf("%s%d=n%d", pinRole(pin.Role), pin.Index, pin.Nexus))
		}
		fmt.Fprintf(w, "%s    d%d %-10s %db%s %s\n", pad, dev.ID, dev.Kind, dev.Width, signSuffix(dev.Signed), strings.Join(pins, " "))
	}
}

func dumpEvents(design *Design, scope *Scope, w io.Writer, pad string) {
	for _, id := range scope.Events {
		fmt.Fprintf(w, "%s  event %s\n", pad, design.Event(id).Name)
	}
}

func dumpUDPs(design *Design, w io.Writer) {
	for _, udp := range design.UDPs {
		kind := "combinational"
		if udp.Sequential {
			kind = "sequential"
		}
		fmt.Fprintf(w, "primitive %s (%s) %s rows=%d\n", udp.Name, strings.Join(udp.Ports, ", "), kind, len(udp.Rows))
	}
}

func renderExpr(e Expr) string {
	switch x := e.(type) {
	case nil:
		return "<nil>"
	case *NumberExpr:
		return fmt.Sprintf("%d'b%s", x.Width, x.Bits)
	case *RealExpr:
		return fmt.Sprintf("%g", x.Value)
	case *StringExpr:
		return fmt.Sprintf("%q", x.Value)
	case *SignalExpr:
		return fmt.Sprintf("s%d", x.Signal)
	case *ParamExpr:
		return x.Name
	case *UnaryExpr:
		return fmt.Sprintf("(%s%s)", x.Op.Token(), renderExpr(x.Operand))
	case *BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", renderExpr(x.Left), x.Op.Token(), renderExpr(x.Right))
	default:
		return fmt.Sprintf("<%T>", e)
	}
}

func pinRole(r PinRole) string {
	switch r {
	case PinOutput:
		return "o"
	case PinInput:
		return "i"
	case PinSelect:
		return "sel"
	case PinClock:
		return "clk"
	case PinEnable:
		return "en"
	case PinClear:
		return "clr"
	case PinSet:
		return "set"
	case PinInout:
		return "io"
	default:
		return "?"
	}
}

func portDirection(dir PortDir) string {
	switch dir {
	case PortInput:
		return "in  "
	case PortOutput:
		return "out "
	case PortInout:
		return "io  "
	default:
		return ""
	}
}

func signSuffix(signed bool) string {
	if signed {
		return "s"
	}
	return "u"
}
