package vlog95

import (
	"fmt"
	"strings"

	"vlog95/internal/ir"
	"vlog95/internal/names"
)

// storageKind is the behaviour class of a flip-flop or latch. One
// primitive is synthesized per class that occurs in a run.
type storageKind struct {
	latch   bool
	negedge bool
	enable  bool
	clear   bool
	set     bool
}

func (k storageKind) name() string {
	name := "VLOG95_DFF_POS"
	switch {
	case k.latch:
		name = "VLOG95_LATCH"
	case k.negedge:
		name = "VLOG95_DFF_NEG"
	}
	if k.enable {
		name += "_EN"
	}
	if k.clear {
		name += "_CLR"
	}
	if k.set {
		name += "_SET"
	}
	return name
}

func (k storageKind) describe() string {
	what := "a positive edge triggered D flip-flop"
	switch {
	case k.latch:
		what = "a transparent high latch"
	case k.negedge:
		what = "a negative edge triggered D flip-flop"
	}
	var extras []string
	if k.enable {
		extras = append(extras, "a clock enable")
	}
	if k.clear {
		extras = append(extras, "an asynchronous clear")
	}
	if k.set {
		extras = append(extras, "an asynchronous set")
	}
	if len(extras) > 0 {
		what += " with " + strings.Join(extras, " and ")
	}
	return what
}

// emitStorage lowers a flip-flop or latch into one synthesized primitive
// instance per bit.
func (p *printer) emitStorage(scope ir.ScopeID, dev *ir.Device) {
	kind := storageKind{
		latch:   dev.Kind == ir.LPMLatch,
		negedge: dev.Kind == ir.LPMFF && dev.Negedge,
		enable:  dev.Kind == ir.LPMFF && dev.Enable != 0,
		clear:   dev.Clear != 0,
		set:     dev.Set != 0,
	}
	clock := dev.Clock
	if kind.latch && dev.Enable != 0 {
		clock = dev.Enable
	}
	if clock == 0 {
		p.fatalf(dev.Pos, "%s device without a clock or gate input", dev.Kind)
	}
	if dev.Output == 0 {
		p.fatalf(dev.Pos, "%s device without an output", dev.Kind)
	}
	if !p.synthSeen[kind] {
		p.synthSeen[kind] = true
		p.synth = append(p.synth, kind)
	}
	data := p.input(dev, 0)
	delays := p.delays(scope, dev.Delays)

	control := []string{p.nexusSelect(scope, clock, 0, 1, dev.Pos)}
	if kind.enable {
		control = append(control, p.nexusSelect(scope, dev.Enable, 0, 1, dev.Pos))
	}
	if kind.clear {
		control = append(control, p.nexusSelect(scope, dev.Clear, 0, 1, dev.Pos))
	}
	if kind.set {
		control = append(control, p.nexusSelect(scope, dev.Set, 0, 1, dev.Pos))
	}

	width := p.design.Nexus(dev.Output).Width
	for i := 0; i < width; i++ {
		name := ""
		if dev.Name != "" {
			inst := dev.Name
			if width > 1 {
				inst = fmt.Sprintf("%s[%d]", dev.Name, i)
			}
			name = " " + p.names.LocalName(scope, inst)
		}
		pins := append([]string{
			p.nexusSelect(scope, dev.Output, i, 1, dev.Pos),
			p.nexusSelect(scope, data, i, 1, dev.Pos),
		}, control...)
		p.line(dev.Pos, "%s%s%s (%s);", kind.name(), delays, name, strings.Join(pins, ", "))
	}
}

// storageTable builds the port list and truth table of a synthesized
// storage primitive. Each row lists the input symbols, the current state
// and the next state.
func storageTable(k storageKind) ([]string, [][]string) {
	ports := []string{"q", "d"}
	if k.latch {
		ports = append(ports, "g")
	} else {
		ports = append(ports, "clk")
	}
	if k.enable {
		ports = append(ports, "en")
	}
	if k.clear {
		ports = append(ports, "clr")
	}
	if k.set {
		ports = append(ports, "set")
	}

	inputs := ports[1:]
	var rows [][]string
	// row builds a table row; unnamed inputs are "?", and controls the
	// row does not mention are held inactive when quiet is set.
	row := func(vals map[string]string, quiet bool, cur, next string) {
		r := make([]string, 0, len(inputs)+2)
		for _, in := range inputs {
			v, ok := vals[in]
			if !ok {
				v = "?"
				if quiet {
					switch in {
					case "en":
						v = "1"
					case "clr", "set":
						v = "0"
					}
				}
			}
			r = append(r, v)
		}
		rows = append(rows, append(r, cur, next))
	}

	if k.latch {
		row(map[string]string{"d": "0", "g": "1"}, true, "?", "0")
		row(map[string]string{"d": "1", "g": "1"}, true, "?", "1")
		row(map[string]string{"g": "0"}, true, "?", "-")
	} else {
		rise, settle, fall := "(01)", "(0?)", "(?0)"
		if k.negedge {
			rise, settle, fall = "(10)", "(1?)", "(?1)"
		}
		row(map[string]string{"d": "0", "clk": rise}, true, "?", "0")
		row(map[string]string{"d": "1", "clk": rise}, true, "?", "1")
		row(map[string]string{"d": "1", "clk": settle}, true, "1", "1")
		row(map[string]string{"d": "0", "clk": settle}, true, "0", "0")
		row(map[string]string{"clk": fall}, false, "?", "-")
		row(map[string]string{"d": "*"}, false, "?", "-")
		if k.enable {
			row(map[string]string{"clk": rise, "en": "0"}, false, "?", "-")
			row(map[string]string{"en": "*"}, false, "?", "-")
		}
	}
	if k.clear {
		row(map[string]string{"clr": "1"}, false, "?", "0")
		if !k.latch {
			row(map[string]string{"clr": "(?0)"}, false, "?", "-")
		}
	}
	if k.set {
		vals := map[string]string{"set": "1"}
		if k.clear {
			vals["clr"] = "0"
		}
		row(vals, false, "?", "1")
		if !k.latch {
			row(map[string]string{"set": "(?0)"}, false, "?", "-")
		}
	}
	return ports, rows
}

func (p *printer) emitSynthesizedUDPs() {
	for _, k := range p.synth {
		ports, rows := storageTable(k)
		p.buf.Reset()
		p.indent = 0
		p.line(ir.Pos{}, "/*")
		p.line(ir.Pos{}, " * %s was generated by vlog95 version %s", k.name(), p.version())
		p.line(ir.Pos{}, " * to model %s. It is not part of the input design.", k.describe())
		p.line(ir.Pos{}, " *")
		p.line(ir.Pos{}, " * This generated primitive carries no license terms of its own and")
		p.line(ir.Pos{}, " * may be redistributed and modified without restriction.")
		p.line(ir.Pos{}, " */")
		p.writePrimitive(k.name(), ports, true, "", rows)
		p.out.Write(p.buf.Bytes())
	}
}

// useUDP queues a user primitive definition for output.
func (p *printer) useUDP(id ir.UDPID) {
	if !p.udpSeen[id] {
		p.udpSeen[id] = true
		p.udps = append(p.udps, id)
	}
}

func (p *printer) emitUDPs() {
	for _, id := range p.udps {
		udp := p.design.UDP(id)
		if len(udp.Ports) < 2 {
			p.fatalf(udp.Pos, "primitive %s needs an output and at least one input", udp.Name)
		}
		ports := make([]string, len(udp.Ports))
		for i, port := range udp.Ports {
			ports[i] = names.Escape(port)
		}
		rows := make([][]string, len(udp.Rows))
		for i, r := range udp.Rows {
			if len(r.Inputs) != len(ports)-1 {
				p.fatalf(udp.Pos, "primitive %s row %d has %d inputs, want %d", udp.Name, i, len(r.Inputs), len(ports)-1)
			}
			row := append([]string(nil), r.Inputs...)
			if udp.Sequential {
				row = append(row, r.Current)
			}
			rows[i] = append(row, r.Output)
		}
		init := ""
		if udp.Sequential && udp.Init != ir.LX && udp.Init != 0 {
			init = "1'b" + string(rune(udp.Init))
		}
		p.buf.Reset()
		p.indent = 0
		p.writePrimitive(names.Escape(udp.Name), ports, udp.Sequential, init, rows)
		p.out.Write(p.buf.Bytes())
	}
}

func (p *printer) writePrimitive(name string, ports []string, sequential bool, init string, rows [][]string) {
	pos := ir.Pos{}
	p.line(pos, "primitive %s(%s);", name, strings.Join(ports, ", "))
	p.indent++
	p.line(pos, "output %s;", ports[0])
	p.line(pos, "input %s;", strings.Join(ports[1:], ", "))
	if sequential {
		p.line(pos, "reg %s;", ports[0])
	}
	if init != "" {
		p.line(pos, "initial %s = %s;", ports[0], init)
	}
	p.line(pos, "table")
	p.indent++
	out := "out"
	if sequential {
		out = "q+"
	}
	p.line(pos, "// %s", strings.TrimSuffix(tableRow(ports[1:], sequential, "q", out), " ;"))
	for _, r := range rows {
		n := len(r) - 1
		cur := ""
		if sequential {
			n--
			cur = r[n]
		}
		p.line(pos, "   %s", tableRow(r[:n], sequential, cur, r[len(r)-1]))
	}
	p.indent--
	p.line(pos, "endtable")
	p.indent--
	p.line(pos, "endprimitive")
	p.buf.WriteByte('\n')
}

func tableRow(inputs []string, sequential bool, cur, next string) string {
	cells := make([]string, len(inputs))
	for i, in := range inputs {
		cells[i] = fmt.Sprintf("%-4s", in)
	}
	text := strings.Join(cells, " ") + " : "
	if sequential {
		text += fmt.Sprintf("%-2s : ", cur)
	}
	return text + next + " ;"
}
