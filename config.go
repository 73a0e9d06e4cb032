// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package nixie

import (
	"io"
	"log"
	"time"

	"github.com/pkg/errors"
)

// BitOrder is the order in which the bits of a digit code are shifted out.
//
type BitOrder byte

// Supported bit orders.
const (
	MSBFirst BitOrder = iota
	LSBFirst
)

func (o BitOrder) String() string {
	switch o {
	case MSBFirst:
		return "msb"
	case LSBFirst:
		return "lsb"
	}
	return "BitOrder(?)"
}

// ParseBitOrder parses "msb" or "lsb".
//
func ParseBitOrder(s string) (BitOrder, error) {
	switch s {
	case "msb", "MSB":
		return MSBFirst, nil
	case "lsb", "LSB":
		return LSBFirst, nil
	}
	return MSBFirst, errors.Errorf("invalid bit order %q", s)
}

// Config holds the fixed parameters of a display. It replaces compiled-in pin
// and size constants so that the same code runs against real hardware, the
// simulator, or test doubles with any number of tubes.
//
type Config struct {
	// Number of tubes. Fixed for the lifetime of a Buffer, Transport and Loop.
	Digits int
	// Digit to bit pattern mapping. Defaults to OneHot.
	Encoding *Encoding
	// Bit order within a digit code.
	Order BitOrder
	// Minimum pulse width of the clock and latch lines.
	ShortDelay time.Duration
	// Delay between refresh cycles.
	LongDelay time.Duration
	// Number of times a transfer is restarted after a LineDriver error.
	Retries int
	// Blank the tubes once before the first refresh cycle.
	BlankOnStart bool
	// Stop the refresh loop after this many cycles. 0 means no limit.
	MaxCycles int
	// Logger receives retry and state messages. nil discards them.
	Logger *log.Logger
}

// DefaultConfig returns the configuration of the original 4 tube board:
// 100µs pulses and a 5s refresh period.
//
func DefaultConfig() *Config {
	return &Config{
		Digits:       4,
		Encoding:     OneHot,
		Order:        MSBFirst,
		ShortDelay:   100 * time.Microsecond,
		LongDelay:    5 * time.Second,
		Retries:      2,
		BlankOnStart: true,
	}
}

// Validate checks the configuration and fills in defaults for a nil Encoding
// and Logger.
//
func (c *Config) Validate() error {
	if c.Digits <= 0 {
		return errors.Wrapf(ErrConfig, "digit count %d", c.Digits)
	}
	if c.Order != MSBFirst && c.Order != LSBFirst {
		return errors.Wrapf(ErrConfig, "bit order %d", c.Order)
	}
	if c.ShortDelay < 0 || c.LongDelay < 0 {
		return errors.Wrap(ErrConfig, "negative delay")
	}
	if c.Retries < 0 {
		return errors.Wrapf(ErrConfig, "retry count %d", c.Retries)
	}
	if c.MaxCycles < 0 {
		return errors.Wrapf(ErrConfig, "cycle limit %d", c.MaxCycles)
	}
	if c.Encoding == nil {
		c.Encoding = OneHot
	}
	if c.Logger == nil {
		c.Logger = log.New(io.Discard, "", 0)
	}
	return nil
}

// FrameBits returns the number of clock pulses in a full transfer.
//
func (c *Config) FrameBits() int {
	enc := c.Encoding
	if enc == nil {
		enc = OneHot
	}
	return c.Digits * int(enc.Width())
}
