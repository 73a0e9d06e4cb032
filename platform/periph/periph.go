// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package periph drives the display lines through periph.io GPIO pins.
//
package periph

import (
	"time"

	"github.com/db47h/nixie"
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

type pin struct {
	gpio.PinOut
}

func (p pin) Out(level bool) error {
	return p.PinOut.Out(gpio.Level(level))
}

// New returns a LineDriver over already initialized pins and drives them low.
// A nil clk means nixie.SystemClock.
//
func New(data, clock, latch gpio.PinOut, clk nixie.Clock, width time.Duration) (*nixie.Lines, error) {
	l := nixie.NewLines(pin{data}, pin{clock}, pin{latch}, clk, width)
	if err := l.Idle(); err != nil {
		return nil, errors.Wrap(err, "periph: set idle levels")
	}
	return l, nil
}

// Open initializes the host drivers and returns a LineDriver over the named
// pins, like "GPIO17" or "P1_11". All three lines are driven low.
//
func Open(data, clock, latch string, width time.Duration) (*nixie.Lines, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "periph host init")
	}
	var pins [3]gpio.PinOut
	for i, name := range []string{data, clock, latch} {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, errors.Errorf("periph: no GPIO pin named %q", name)
		}
		pins[i] = p
	}
	return New(pins[0], pins[1], pins[2], nixie.SystemClock, width)
}
