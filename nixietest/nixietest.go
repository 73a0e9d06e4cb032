// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package nixietest provides test doubles for the nixie package: a recording
// LineDriver with an optional shift register model, a fake Clock and a
// scripted Source.
//
package nixietest

import (
	"sync"
	"testing"
	"time"

	"github.com/db47h/nixie"
	"github.com/pkg/errors"
)

// Op identifies a LineDriver call.
//
type Op int

// LineDriver operations.
const (
	SetData Op = iota
	PulseClock
	PulseLatch
)

func (o Op) String() string {
	switch o {
	case SetData:
		return "data"
	case PulseClock:
		return "clock"
	case PulseLatch:
		return "latch"
	}
	return "Op(?)"
}

// Event is a recorded LineDriver call. Level is only meaningful for SetData.
//
type Event struct {
	Op    Op
	Level bool
}

// Recorder is a nixie.LineDriver that records every call.
//
// If Stages is greater than 0, Recorder also behaves like a chain of Stages
// shift register cells followed by an output latch. See Outputs.
//
type Recorder struct {
	Events []Event
	Stages int

	// Fail, if not nil, is called before each operation with the 1-based call
	// number. A non-nil return value fails the call; the call is not recorded.
	Fail func(call int, op Op) error

	calls int
	data  bool
	reg   []bool
	out   []bool
}

func (r *Recorder) do(op Op, level bool) error {
	r.calls++
	if r.Fail != nil {
		if err := r.Fail(r.calls, op); err != nil {
			return err
		}
	}
	r.Events = append(r.Events, Event{op, level})
	if r.Stages <= 0 {
		return nil
	}
	if r.reg == nil {
		r.reg = make([]bool, r.Stages)
		r.out = make([]bool, r.Stages)
	}
	switch op {
	case SetData:
		r.data = level
	case PulseClock:
		copy(r.reg[1:], r.reg[:len(r.reg)-1])
		r.reg[0] = r.data
	case PulseLatch:
		copy(r.out, r.reg)
	}
	return nil
}

// SetData implements nixie.LineDriver.
func (r *Recorder) SetData(level bool) error { return r.do(SetData, level) }

// PulseClock implements nixie.LineDriver.
func (r *Recorder) PulseClock() error { return r.do(PulseClock, false) }

// PulseLatch implements nixie.LineDriver.
func (r *Recorder) PulseLatch() error { return r.do(PulseLatch, false) }

// Outputs returns a copy of the latched outputs of the shift register model.
// Outputs()[0] is the stage nearest to the data input.
//
func (r *Recorder) Outputs() []bool {
	out := make([]bool, r.Stages)
	copy(out, r.out)
	return out
}

// Count returns the number of recorded events of type op.
//
func (r *Recorder) Count(op Op) int {
	n := 0
	for _, e := range r.Events {
		if e.Op == op {
			n++
		}
	}
	return n
}

// Frames returns the data line level sampled by each clock pulse, split at
// latch pulses. Bits clocked after the last latch are not returned.
//
func (r *Recorder) Frames() [][]bool {
	var (
		frames [][]bool
		cur    []bool
		data   bool
	)
	for _, e := range r.Events {
		switch e.Op {
		case SetData:
			data = e.Level
		case PulseClock:
			cur = append(cur, data)
		case PulseLatch:
			frames = append(frames, cur)
			cur = nil
		}
	}
	return frames
}

// Reset clears recorded events. The shift register model is kept.
//
func (r *Recorder) Reset() {
	r.Events = nil
	r.calls = 0
}

// Clock is a fake nixie.Clock. Sleep and After return immediately and record
// the requested durations.
//
type Clock struct {
	mu     sync.Mutex
	Slept  []time.Duration
	Waited []time.Duration

	// OnAfter, if not nil, is called by After before it returns.
	OnAfter func(d time.Duration)
}

// Sleep implements nixie.Clock.
//
func (c *Clock) Sleep(d time.Duration) {
	c.mu.Lock()
	c.Slept = append(c.Slept, d)
	c.mu.Unlock()
}

// After implements nixie.Clock. The returned channel is ready to receive.
//
func (c *Clock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.Waited = append(c.Waited, d)
	f := c.OnAfter
	c.mu.Unlock()
	if f != nil {
		f(d)
	}
	ch := make(chan time.Time, 1)
	ch <- time.Time{}.Add(d)
	return ch
}

// Sequence is a nixie.Source that returns Values in order, starting over when
// it runs out.
//
type Sequence struct {
	Values []int
	Calls  int
}

// NextDigit implements nixie.Source.
//
func (s *Sequence) NextDigit() int {
	v := s.Values[s.Calls%len(s.Values)]
	s.Calls++
	return v
}

// Trace logs the stack trace of err, if any.
//
func Trace(t *testing.T, err error) {
	t.Helper()
	if err, ok := err.(interface {
		StackTrace() errors.StackTrace
	}); ok {
		for _, f := range err.StackTrace() {
			t.Logf("%+v ", f)
		}
	}
}

// CheckFrame checks that frame is the shift sequence of digits ds according
// to tr.
//
func CheckFrame(t *testing.T, tr *nixie.Transport, frame []bool, ds ...nixie.Digit) {
	t.Helper()
	want, err := tr.Frame(nixie.NewSnapshot(ds...))
	if err != nil {
		Trace(t, err)
		t.Fatal(err)
	}
	if len(frame) != len(want) {
		t.Fatalf("frame length %d, expected %d", len(frame), len(want))
	}
	for i := range want {
		if frame[i] != want[i] {
			t.Fatalf("bit %d of frame for %s: got %v, expected %v", i, nixie.FormatDigits(ds), frame[i], want[i])
		}
	}
}
