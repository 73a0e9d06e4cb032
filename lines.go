// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package nixie

import (
	"time"

	"github.com/pkg/errors"
)

// Clock abstracts the passing of time so that delays can be faked in tests.
//
// Sleep blocks for d and is used for pulse widths, which must never be cut
// short. After is used for the wait between refresh cycles, which can be
// interrupted.
//
type Clock interface {
	Sleep(d time.Duration)
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Sleep(d time.Duration)                  { time.Sleep(d) }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SystemClock is a Clock backed by package time.
//
var SystemClock Clock = systemClock{}

// A Pin is a single digital output.
//
type Pin interface {
	Out(level bool) error
}

// Lines is a LineDriver over three output pins. Each pulse holds its line
// high for the pulse width, then low for the same duration.
//
type Lines struct {
	Data, Clock, Latch Pin

	clk   Clock
	width time.Duration
}

// NewLines returns a LineDriver over the given pins. Pulse widths are timed
// with clk; a nil clk means SystemClock.
//
func NewLines(data, clock, latch Pin, clk Clock, width time.Duration) *Lines {
	if clk == nil {
		clk = SystemClock
	}
	return &Lines{Data: data, Clock: clock, Latch: latch, clk: clk, width: width}
}

// Idle drives all three lines low. Call it once after configuring the pins.
// Idle implements Idler.
//
func (l *Lines) Idle() error {
	if err := l.Clock.Out(false); err != nil {
		return errors.Wrap(err, "clock")
	}
	if err := l.Latch.Out(false); err != nil {
		return errors.Wrap(err, "latch")
	}
	return errors.Wrap(l.Data.Out(false), "data")
}

// SetData implements LineDriver.
//
func (l *Lines) SetData(level bool) error {
	return l.Data.Out(level)
}

// PulseClock implements LineDriver.
//
func (l *Lines) PulseClock() error {
	return l.pulse(l.Clock)
}

// PulseLatch implements LineDriver.
//
func (l *Lines) PulseLatch() error {
	return l.pulse(l.Latch)
}

func (l *Lines) pulse(p Pin) error {
	if err := p.Out(true); err != nil {
		return err
	}
	l.clk.Sleep(l.width)
	// on failure the line may be left high; see Idler
	if err := p.Out(false); err != nil {
		return err
	}
	l.clk.Sleep(l.width)
	return nil
}
