// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package gpiocdev drives the display lines through the Linux GPIO character
// device.
//
package gpiocdev

import (
	"time"

	"github.com/db47h/nixie"
	"github.com/pkg/errors"
	"github.com/warthog618/go-gpiocdev"
)

// Consumer is the label shown by gpioinfo for requested lines.
const Consumer = "nixie"

type line struct {
	*gpiocdev.Line
}

func (l line) Out(level bool) error {
	v := 0
	if level {
		v = 1
	}
	return l.SetValue(v)
}

// Device is a LineDriver over three lines of a GPIO chip.
//
type Device struct {
	*nixie.Lines
	lines []*gpiocdev.Line
}

// Open requests the given line offsets of chip (e.g. "gpiochip0") as outputs,
// initially low.
//
func Open(chip string, data, clock, latch int, width time.Duration) (*Device, error) {
	d := new(Device)
	var pins [3]nixie.Pin
	for i, offset := range []int{data, clock, latch} {
		l, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(0), gpiocdev.WithConsumer(Consumer))
		if err != nil {
			d.Close()
			return nil, errors.Wrapf(err, "gpiocdev: request %s line %d", chip, offset)
		}
		d.lines = append(d.lines, l)
		pins[i] = line{l}
	}
	d.Lines = nixie.NewLines(pins[0], pins[1], pins[2], nixie.SystemClock, width)
	return d, nil
}

// Close releases the lines.
//
func (d *Device) Close() error {
	var err error
	for _, l := range d.lines {
		if e := l.Close(); e != nil && err == nil {
			err = e
		}
	}
	d.lines = nil
	return err
}
