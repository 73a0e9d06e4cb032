// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sim

import (
	"strconv"

	"github.com/pkg/errors"
)

// settleSteps is the number of simulation steps run after each line change.
// An input change reaches the flip flops after one step and their outputs
// after two; one more step lets the output probe see the result.
const settleSteps = 3

// Board is a daisy chain of DriverChip's whose data, clock and latch inputs
// are wired to three host controlled lines. It implements the LineDriver
// interface of package nixie and can stand in for real hardware.
//
// The first chip's ser input is the data line and every other chip is fed by
// the sout output of the previous one. Board outputs are numbered from the
// data input: output 0 is q[0] of the first chip.
//
// A Board is not safe for concurrent use.
//
type Board struct {
	c      *Circuit
	stages int

	data, clock, latch bool
	out                []bool

	// OnLatch, if not nil, is called with a copy of the outputs after each
	// latch pulse.
	OnLatch func(outputs []bool)
}

// NewBoard returns a new Board with enough driver chips of chipSize stages to
// provide the requested number of outputs. Call Close to release it.
//
func NewBoard(stages, chipSize int) (*Board, error) {
	if stages <= 0 || chipSize <= 0 {
		return nil, errors.Errorf("invalid board size: %d outputs, %d per chip", stages, chipSize)
	}
	drv, err := DriverChip(chipSize)
	if err != nil {
		return nil, errors.Wrap(err, "driver chip")
	}
	n := (stages + chipSize - 1) / chipSize
	total := n * chipSize
	b := &Board{stages: stages, out: make([]bool, total)}

	last := strconv.Itoa(total - 1)
	parts := Parts{
		Input(func() bool { return b.data })("out=data"),
		Input(func() bool { return b.clock })("out=clock"),
		Input(func() bool { return b.latch })("out=latch"),
		OutputN(total, func(i int, v bool) { b.out[i] = v })("in[0.." + last + "]=o[0.." + last + "]"),
	}
	ser := "data"
	for k := 0; k < n; k++ {
		sout := "sout" + strconv.Itoa(k)
		first, end := strconv.Itoa(k*chipSize), strconv.Itoa((k+1)*chipSize-1)
		parts = append(parts, drv("ser="+ser+", srclk=clock, rclk=latch, "+
			"q[0.."+strconv.Itoa(chipSize-1)+"]=o["+first+".."+end+"], sout="+sout))
		ser = sout
	}

	b.c, err = NewCircuit(0, parts...)
	if err != nil {
		return nil, err
	}
	b.c.Run(settleSteps)
	return b, nil
}

// Close stops the simulation.
//
func (b *Board) Close() error {
	b.c.Dispose()
	return nil
}

// SetData sets the level of the data line.
//
func (b *Board) SetData(level bool) error {
	b.data = level
	b.c.Run(settleSteps)
	return nil
}

// PulseClock pulses the shift register clock line.
//
func (b *Board) PulseClock() error {
	b.pulse(&b.clock)
	return nil
}

// PulseLatch pulses the output latch line.
//
func (b *Board) PulseLatch() error {
	b.pulse(&b.latch)
	if b.OnLatch != nil {
		b.OnLatch(b.Outputs())
	}
	return nil
}

func (b *Board) pulse(line *bool) {
	*line = true
	b.c.Run(settleSteps)
	*line = false
	b.c.Run(settleSteps)
}

// Outputs returns the state of the latched outputs.
//
func (b *Board) Outputs() []bool {
	return append([]bool(nil), b.out[:b.stages]...)
}

// Steps returns the number of simulation steps run so far.
//
func (b *Board) Steps() uint { return b.c.Steps() }
