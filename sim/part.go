// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sim

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Constant input pin names.
//
const (
	True  = "true"
	False = "false"
)

const (
	cstFalse = iota
	cstTrue
	cstCount
)

// A MountFn mounts a part into socket s. MountFn's should query
// the socket for assigned pin numbers and return closures around
// these pin numbers.
//
// For example, a Not gate can be defined like this:
//
//	not := &PartSpec{
//		Name: "Not",
//		Inputs: []string{"in"},
//		Outputs: []string{"out"},
//		Mount: func (s *Socket) []Component {
//			in, out := s.Pin("in"), s.Pin("out")
//			return []Component{
//				func (c *Circuit) { c.Set(out, !c.Get(in)) },
//			}
//		}}
//
type MountFn func(s *Socket) []Component

// A PartSpec wraps a part specification (its blueprint).
//
type PartSpec struct {
	// Part name.
	Name string
	// Input pin names. Use IO() to expand a description like "a, bus[2]".
	Inputs []string
	// Output pin names.
	Outputs []string
	// Mount function (see MountFn).
	Mount MountFn
}

// NewPart is a NewPartFn that wraps p with the given connections into a Part.
// It panics if the connection string cannot be parsed.
//
func (p *PartSpec) NewPart(connections string) Part {
	cs, err := ParseConnections(connections)
	if err != nil {
		panic(err)
	}
	return Part{p, cs}
}

// A NewPartFn is a function that takes a connection configuration and returns a
// new Part. See ParseConnections for the syntax of the connection configuration
// string.
//
type NewPartFn func(c string) Part

// A Part wraps a part specification together with its connections within a host
// chip.
//
type Part struct {
	*PartSpec
	Conns []Connection
}

// Parts is a convenience wrapper for []Part.
//
type Parts []Part

// A Connection connects pin PP of a part to wire CP of its host chip.
//
type Connection struct {
	PP string
	CP string
}

// BusPinName returns the pin name for the n-th bit of the named bus.
//
func BusPinName(name string, n int) string {
	return name + "[" + strconv.Itoa(n) + "]"
}

// IO expands a comma separated list of pin names. A bus of size n is written
// name[n] and expands to name[0] ... name[n-1].
//
//	IO("a, b, sel[2]") // []string{"a", "b", "sel[0]", "sel[1]"}
//
func IO(spec string) ([]string, error) {
	var out []string
	for _, f := range strings.Split(spec, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		i := strings.IndexByte(f, '[')
		if i < 0 {
			if !validName(f) {
				return nil, errors.Errorf("in %q: invalid pin name %q", spec, f)
			}
			out = append(out, f)
			continue
		}
		name := f[:i]
		if !validName(name) || !strings.HasSuffix(f, "]") {
			return nil, errors.Errorf("in %q: invalid bus specification %q", spec, f)
		}
		n, err := strconv.Atoi(f[i+1 : len(f)-1])
		if err != nil || n <= 0 {
			return nil, errors.Errorf("in %q: invalid bus size in %q", spec, f)
		}
		for j := 0; j < n; j++ {
			out = append(out, BusPinName(name, j))
		}
	}
	return out, nil
}

func validName(n string) bool {
	if n == "" {
		return false
	}
	for i, r := range n {
		switch {
		case r == '_' || 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z':
		case i > 0 && '0' <= r && r <= '9':
		default:
			return false
		}
	}
	return true
}

// ParseConnections parses a connection configuration like "partPin1=chipPin1,
// partPin2=chipPin2". Bus ranges are expanded on both sides:
//
//	"q[0..3]=out[4..7], clk=latch"
//
// is equivalent to
//
//	"q[0]=out[4], q[1]=out[5], q[2]=out[6], q[3]=out[7], clk=latch"
//
// A single chip pin on the right hand side of a range is connected to every
// pin of the range.
//
func ParseConnections(c string) ([]Connection, error) {
	var conns []Connection
	for _, f := range strings.Split(c, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		i := strings.IndexByte(f, '=')
		if i < 0 {
			return nil, errors.Errorf("in %q: missing '=' in %q", c, f)
		}
		k, v := strings.TrimSpace(f[:i]), strings.TrimSpace(f[i+1:])
		ks, err := expandRange(k)
		if err != nil {
			return nil, errors.Wrapf(err, "in %q: expand %s", c, k)
		}
		vs, err := expandRange(v)
		if err != nil {
			return nil, errors.Wrapf(err, "in %q: expand %s", c, v)
		}
		switch {
		case len(ks) == len(vs):
			for i := range ks {
				conns = append(conns, Connection{ks[i], vs[i]})
			}
		case len(vs) == 1:
			for _, k := range ks {
				conns = append(conns, Connection{k, vs[0]})
			}
		default:
			return nil, errors.Errorf("in %q: pin count mismatch in %s", c, f)
		}
	}
	return conns, nil
}

func expandRange(name string) ([]string, error) {
	i := strings.IndexRune(name, '[')
	if i < 0 {
		if !validName(name) {
			return nil, errors.New("invalid pin name " + strconv.Quote(name))
		}
		return []string{name}, nil
	}
	bus := name[:i]
	if !validName(bus) {
		return nil, errors.New("invalid bus name " + strconv.Quote(bus))
	}
	n := name[i+1:]
	if !strings.HasSuffix(n, "]") {
		return nil, errors.New("no terminating ] in bus range")
	}
	n = n[:len(n)-1]
	i = strings.Index(n, "..")
	if i < 0 {
		if _, err := strconv.Atoi(n); err != nil {
			return nil, errors.Wrap(err, "bus index")
		}
		return []string{name}, nil
	}
	start, err := strconv.Atoi(n[:i])
	if err != nil {
		return nil, errors.Wrap(err, "range start")
	}
	end, err := strconv.Atoi(n[i+2:])
	if err != nil {
		return nil, errors.Wrap(err, "range end")
	}
	if end < start {
		return nil, errors.Errorf("empty bus range %d..%d", start, end)
	}
	r := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		r = append(r, BusPinName(bus, i))
	}
	return r, nil
}

// A Socket maps a part's pin names to pin numbers in a circuit.
//
type Socket struct {
	m map[string]int
	c *Circuit
}

func newSocket(c *Circuit) *Socket {
	return &Socket{
		m: map[string]int{False: cstFalse, True: cstTrue},
		c: c,
	}
}

// Pin returns the pin number allocated to the given pin name.
// This function panics if the pin does not exist.
//
func (s *Socket) Pin(name string) int {
	n, ok := s.m[name]
	if !ok {
		panic("pin " + name + " does not exist")
	}
	return n
}

// PinOrNew returns the pin number allocated to the given pin name.
// If no such pin exists a new one is allocated.
//
func (s *Socket) PinOrNew(name string) int {
	n, ok := s.m[name]
	if !ok {
		n = s.c.allocPin()
		s.m[name] = n
	}
	return n
}

// Bus returns the pin numbers allocated to the given bus name.
// This function panics if any pin of the bus does not exist.
//
func (s *Socket) Bus(name string, size int) []int {
	out := make([]int, size)
	for i := range out {
		out[i] = s.Pin(BusPinName(name, i))
	}
	return out
}

type chip struct {
	PartSpec
	parts []Part
}

func (c *chip) mount(s *Socket) []Component {
	var cs []Component
	for _, p := range c.parts {
		sub := newSocket(s.c)
		for _, cn := range p.Conns {
			sub.m[cn.PP] = s.PinOrNew(cn.CP)
		}
		// unconnected inputs read false, unconnected outputs go nowhere.
		for _, in := range p.Inputs {
			if _, ok := sub.m[in]; !ok {
				sub.m[in] = cstFalse
			}
		}
		for _, out := range p.Outputs {
			if _, ok := sub.m[out]; !ok {
				sub.m[out] = s.c.allocPin()
			}
		}
		cs = append(cs, p.Mount(sub)...)
	}
	return cs
}

// Chip composes existing parts into a new part packaged into a chip.
// The pin names specified as inputs and outputs will be the inputs
// and outputs of the chip. Any other wire name used in the parts'
// connections is an internal wire of the chip.
//
// A 2 bit shift register could be created like this:
//
//	sr2, err := Chip("SR2", "in, clk", "q[2]",
//		DFF("in=in, clk=clk, out=q[0]"),
//		DFF("in=q[0], clk=clk, out=q[1]"),
//	)
//
// The returned value is a NewPartFn that can be used to compose the new part
// with others into other chips.
//
// Each wire must be driven by exactly one part output or chip input. Part
// outputs can only be connected to a single wire; connect several inputs to
// that wire instead.
//
func Chip(name string, inputs string, outputs string, parts ...Part) (NewPartFn, error) {
	ins, err := IO(inputs)
	if err != nil {
		return nil, errors.Wrap(err, name+" inputs")
	}
	outs, err := IO(outputs)
	if err != nil {
		return nil, errors.Wrap(err, name+" outputs")
	}

	// driver of each wire: chip input, part output or constant.
	driven := map[string]string{True: "constant", False: "constant"}
	for _, in := range ins {
		if _, ok := driven[in]; ok {
			return nil, errors.Errorf("%s: duplicate input pin %s", name, in)
		}
		driven[in] = name + " input"
	}
	isOut := make(map[string]bool, len(outs))
	for _, o := range outs {
		if _, ok := driven[o]; ok || isOut[o] {
			return nil, errors.Errorf("%s: output pin %s already declared", name, o)
		}
		isOut[o] = true
	}

	for _, p := range parts {
		pins := make(map[string]bool, len(p.Inputs)+len(p.Outputs))
		for _, in := range p.Inputs {
			pins[in] = false
		}
		for _, o := range p.Outputs {
			pins[o] = true
		}
		seen := make(map[string]bool, len(p.Conns))
		for _, cn := range p.Conns {
			out, ok := pins[cn.PP]
			if !ok {
				return nil, errors.Errorf("%s: invalid pin name %s for part %s", name, cn.PP, p.Name)
			}
			if seen[cn.PP] {
				return nil, errors.Errorf("%s: pin %s.%s connected more than once", name, p.Name, cn.PP)
			}
			seen[cn.PP] = true
			if !out {
				continue
			}
			if d, ok := driven[cn.CP]; ok {
				return nil, errors.Errorf("%s: wire %s driven by both %s and %s.%s", name, cn.CP, d, p.Name, cn.PP)
			}
			driven[cn.CP] = p.Name + "." + cn.PP
		}
	}

	// every wire read by a part must be driven.
	for _, p := range parts {
		for _, cn := range p.Conns {
			if _, ok := driven[cn.CP]; !ok {
				return nil, errors.Errorf("%s: wire %s (%s.%s) is not driven", name, cn.CP, p.Name, cn.PP)
			}
		}
	}
	for _, o := range outs {
		if _, ok := driven[o]; !ok {
			return nil, errors.Errorf("%s: output pin %s is not driven", name, o)
		}
	}

	c := &chip{
		PartSpec{
			Name:    name,
			Inputs:  ins,
			Outputs: outs,
		},
		append(Parts(nil), parts...),
	}
	c.PartSpec.Mount = c.mount
	return c.PartSpec.NewPart, nil
}
