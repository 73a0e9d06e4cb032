// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sim

import (
	"strconv"

	"github.com/pkg/errors"
)

// common pin names
const (
	pIn  = "in"
	pOut = "out"
	pClk = "clk"
)

// Input creates a function based input.
//
//	Outputs: out
//	Function: out = f()
//
func Input(f func() bool) NewPartFn {
	p := &PartSpec{
		Name:    "Input",
		Inputs:  nil,
		Outputs: []string{pOut},
		Mount: func(s *Socket) []Component {
			pin := s.Pin(pOut)
			return []Component{
				func(c *Circuit) {
					c.Set(pin, f())
				},
			}
		},
	}
	return p.NewPart
}

// Output creates an output or probe. The fn function is
// called with the named pin state on every circuit update.
//
//	Inputs: in
//	Function: f(in)
//
func Output(f func(bool)) NewPartFn {
	p := &PartSpec{
		Name:    "Output",
		Inputs:  []string{pIn},
		Outputs: nil,
		Mount: func(s *Socket) []Component {
			in := s.Pin(pIn)
			return []Component{
				func(c *Circuit) { f(c.Get(in)) },
			}
		},
	}
	return p.NewPart
}

// OutputN creates a probe on a bus of the given size. f is called on every
// circuit update with the index and state of each pin.
//
//	Inputs: in[bits]
//	Function: f(i, in[i])
//
func OutputN(bits int, f func(i int, v bool)) NewPartFn {
	p := &PartSpec{
		Name:    "Output" + strconv.Itoa(bits),
		Inputs:  bus(pIn, bits),
		Outputs: nil,
		Mount: func(s *Socket) []Component {
			pins := s.Bus(pIn, bits)
			return []Component{
				func(c *Circuit) {
					for i, p := range pins {
						f(i, c.Get(p))
					}
				},
			}
		},
	}
	return p.NewPart
}

var dffSpec = &PartSpec{
	Name:    "DFF",
	Inputs:  []string{pIn, pClk},
	Outputs: []string{pOut},
	Mount: func(s *Socket) []Component {
		in, clk, out := s.Pin(pIn), s.Pin(pClk), s.Pin(pOut)
		var cur, prev bool
		return []Component{
			func(c *Circuit) {
				// raising edge?
				if k := c.Get(clk); k != prev {
					if k {
						cur = c.Get(in)
					}
					prev = k
				}
				c.Set(out, cur)
			}}
	}}

// DFF returns an edge triggered data flip flop.
//
//	Inputs: in, clk
//	Outputs: out
//	Function: out = in sampled on the last raising edge of clk.
//
func DFF(c string) Part { return dffSpec.NewPart(c) }

func bus(name string, bits int) []string {
	out := make([]string, bits)
	for i := range out {
		out[i] = BusPinName(name, i)
	}
	return out
}

// Register returns a NewPartFn for a parallel load register of the given size.
//
//	Inputs: d[bits], clk
//	Outputs: q[bits]
//	Function: q = d sampled on the last raising edge of clk.
//
func Register(bits int) (NewPartFn, error) {
	if bits <= 0 {
		return nil, errors.Errorf("invalid register size %d", bits)
	}
	parts := make(Parts, bits)
	for i := range parts {
		n := strconv.Itoa(i)
		parts[i] = DFF("in=d[" + n + "], clk=clk, out=q[" + n + "]")
	}
	return Chip("REG"+strconv.Itoa(bits), "d["+strconv.Itoa(bits)+"], clk", "q["+strconv.Itoa(bits)+"]", parts...)
}

// ShiftRegister returns a NewPartFn for a serial in, parallel out shift
// register of the given size.
//
//	Inputs: in, clk
//	Outputs: q[bits]
//	Function: on each raising edge of clk, q[i] = q[i-1] and q[0] = in.
//
func ShiftRegister(bits int) (NewPartFn, error) {
	if bits <= 0 {
		return nil, errors.Errorf("invalid shift register size %d", bits)
	}
	parts := make(Parts, bits)
	parts[0] = DFF("in=in, clk=clk, out=q[0]")
	for i := 1; i < bits; i++ {
		parts[i] = DFF("in=q[" + strconv.Itoa(i-1) + "], clk=clk, out=q[" + strconv.Itoa(i) + "]")
	}
	return Chip("SR"+strconv.Itoa(bits), "in, clk", "q["+strconv.Itoa(bits)+"]", parts...)
}

// DriverChip returns a NewPartFn for a 74HC595 style driver: a shift register
// followed by an output latch. sout mirrors the last stage of the shift
// register and feeds the next chip of a daisy chain.
//
//	Inputs: ser, srclk, rclk
//	Outputs: q[bits], sout
//	Function: ser is shifted in on srclk raising edges, q latches the shift
//	          register on rclk raising edges.
//
func DriverChip(bits int) (NewPartFn, error) {
	sr, err := ShiftRegister(bits)
	if err != nil {
		return nil, err
	}
	reg, err := Register(bits)
	if err != nil {
		return nil, err
	}
	last := strconv.Itoa(bits - 1)
	return Chip("DRV"+strconv.Itoa(bits), "ser, srclk, rclk", "q["+strconv.Itoa(bits)+"], sout",
		sr("in=ser, clk=srclk, q[0.."+last+"]=s[0.."+last+"]"),
		reg("d[0.."+last+"]=s[0.."+last+"], clk=rclk, q[0.."+last+"]=q[0.."+last+"]"),
		buffer("in=s["+last+"], out=sout"),
	)
}

var bufSpec = &PartSpec{
	Name:    "BUF",
	Inputs:  []string{pIn},
	Outputs: []string{pOut},
	Mount: func(s *Socket) []Component {
		in, out := s.Pin(pIn), s.Pin(pOut)
		return []Component{func(c *Circuit) { c.Set(out, c.Get(in)) }}
	}}

func buffer(c string) Part { return bufSpec.NewPart(c) }
