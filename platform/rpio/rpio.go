// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package rpio drives the display lines through the Raspberry Pi GPIO
// registers, using BCM pin numbers.
//
package rpio

import (
	"time"

	"github.com/db47h/nixie"
	"github.com/pkg/errors"
	"github.com/stianeikeland/go-rpio/v4"
)

type pin rpio.Pin

func (p pin) Out(level bool) error {
	if level {
		rpio.Pin(p).High()
	} else {
		rpio.Pin(p).Low()
	}
	return nil
}

// Device is a LineDriver over three BCM pins.
//
type Device struct {
	*nixie.Lines
}

// Open maps the GPIO registers and configures the given BCM pins as outputs,
// initially low.
//
func Open(data, clock, latch int, width time.Duration) (*Device, error) {
	if err := rpio.Open(); err != nil {
		return nil, errors.Wrap(err, "rpio: open")
	}
	var pins [3]nixie.Pin
	for i, n := range []int{data, clock, latch} {
		p := rpio.Pin(n)
		p.Output()
		p.Low()
		pins[i] = pin(p)
	}
	return &Device{nixie.NewLines(pins[0], pins[1], pins[2], nixie.SystemClock, width)}, nil
}

// Close unmaps the GPIO registers.
//
func (d *Device) Close() error {
	return rpio.Close()
}
