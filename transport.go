// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package nixie

import (
	"log"

	"github.com/pkg/errors"
)

// LineDriver drives the three control lines of the shift register.
//
// SetData sets the level of the data line. PulseClock raises the clock line,
// which makes the shift register sample the data line, then lowers it again.
// PulseLatch does the same with the latch line, which copies the shift
// register to the output drivers. Each call must hold the line for the
// minimum pulse width the chip requires before returning. Clock and latch
// rest low between calls.
//
// A returned error means the host could not drive a line. A nil error does not
// mean that the chip saw the transition: there is no way to tell.
//
type LineDriver interface {
	SetData(level bool) error
	PulseClock() error
	PulseLatch() error
}

// Idler is implemented by LineDrivers that can drive all three lines back to
// their resting level. A failed pulse may leave the clock line high, in which
// case the next PulseClock makes no rising edge and the frame is shifted one
// stage short. Transfer calls Idle before each retry.
//
type Idler interface {
	Idle() error
}

// Transport shifts snapshots out to a LineDriver.
//
// Positions are shifted last first so that, once the whole frame is in, the
// stage nearest to the data input holds position 0. The bits of each code are
// shifted in the configured BitOrder. Exactly one latch pulse follows the
// last clock pulse; the outputs never change mid-frame.
//
// Transport holds no digit state.
//
type Transport struct {
	lines   LineDriver
	enc     *Encoding
	order   BitOrder
	digits  int
	retries int
	log     *log.Logger
}

// NewTransport returns a new Transport over the given lines.
//
func NewTransport(lines LineDriver, cfg *Config) (*Transport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Transport{
		lines:   lines,
		enc:     cfg.Encoding,
		order:   cfg.Order,
		digits:  cfg.Digits,
		retries: cfg.Retries,
		log:     cfg.Logger,
	}, nil
}

// Frame returns the data line levels of a full transfer of s, in shift
// order. This is a pure function of s and the configuration.
//
func (t *Transport) Frame(s Snapshot) ([]bool, error) {
	if s.Len() != t.digits {
		return nil, errors.Wrapf(ErrSnapshotLength, "got %d digits, want %d", s.Len(), t.digits)
	}
	w := t.enc.Width()
	bits := make([]bool, 0, t.digits*int(w))
	for p := s.Len() - 1; p >= 0; p-- {
		code, err := t.enc.Code(s.At(p))
		if err != nil {
			return nil, errors.Wrapf(err, "position %d", p)
		}
		for i := uint(0); i < w; i++ {
			bit := i
			if t.order == MSBFirst {
				bit = w - 1 - i
			}
			bits = append(bits, code&(1<<bit) != 0)
		}
	}
	return bits, nil
}

// Decode returns the digits held by a chain of shift register outputs after a
// transfer. outputs[0] is the stage nearest to the data input. It returns an
// error if a code is not part of the encoding table.
//
func (t *Transport) Decode(outputs []bool) ([]Digit, error) {
	w := int(t.enc.Width())
	if len(outputs) != t.digits*w {
		return nil, errors.Errorf("got %d outputs, want %d", len(outputs), t.digits*w)
	}
	// Frame shifts the last position first and the first bit of a code
	// travels the furthest, so stage p*w+j holds bit j (MSB first) or bit
	// w-1-j (LSB first) of position p.
	ds := make([]Digit, t.digits)
	for p := range ds {
		var code uint32
		for j := 0; j < w; j++ {
			if !outputs[p*w+j] {
				continue
			}
			bit := j
			if t.order == LSBFirst {
				bit = w - 1 - j
			}
			code |= 1 << uint(bit)
		}
		d, ok := t.enc.Digit(code)
		if !ok {
			return nil, errors.Wrapf(ErrInvalidDigitValue, "position %d: code %#x", p, code)
		}
		ds[p] = d
	}
	return ds, nil
}

// Transfer shifts s out and latches it. The snapshot is fully validated before
// any line is touched. If the LineDriver fails, the lines are reset if it
// implements Idler and the whole frame is sent again, up to the configured
// number of retries. Since a full frame rewrites every
// stage of the shift register, a retried frame never mixes old and new bits.
//
func (t *Transport) Transfer(s Snapshot) error {
	bits, err := t.Frame(s)
	if err != nil {
		return err
	}
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			err = t.reset()
		}
		if err == nil {
			err = t.send(bits)
		}
		if err == nil {
			return nil
		}
		if attempt >= t.retries {
			return errors.Wrapf(err, "transfer %s failed after %d attempts", s, attempt+1)
		}
		t.log.Printf("transfer %s: %v, retrying", s, err)
	}
}

func (t *Transport) reset() error {
	if i, ok := t.lines.(Idler); ok {
		return errors.Wrap(i.Idle(), "reset lines")
	}
	return nil
}

func (t *Transport) send(bits []bool) error {
	for i, b := range bits {
		if err := t.lines.SetData(b); err != nil {
			return errors.Wrapf(err, "bit %d: set data", i)
		}
		if err := t.lines.PulseClock(); err != nil {
			return errors.Wrapf(err, "bit %d: pulse clock", i)
		}
	}
	return errors.Wrap(t.lines.PulseLatch(), "pulse latch")
}

// Blank turns all tubes off.
//
func (t *Transport) Blank() error {
	return t.Transfer(BlankSnapshot(t.digits))
}

// Digits returns the number of tubes.
//
func (t *Transport) Digits() int { return t.digits }
