// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package nixie

import (
	"context"
	"log"
	"time"

	"github.com/pkg/errors"
)

// State is the state of a refresh Loop.
//
type State int

// Loop states.
const (
	Startup State = iota
	Idle
	Regenerating
	Transferring
	Waiting
	Stopped
)

var stateNames = [...]string{
	Startup:      "Startup",
	Idle:         "Idle",
	Regenerating: "Regenerating",
	Transferring: "Transferring",
	Waiting:      "Waiting",
	Stopped:      "Stopped",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "State(?)"
	}
	return stateNames[s]
}

// Loop is the refresh cycle: regenerate the buffer, transfer a snapshot, wait,
// and start over.
//
// The stop signal (cancellation of the context passed to Run) is only looked
// at in the Idle and Waiting states, so the display is never left with a half
// shifted frame. When it stops, the loop blanks the tubes exactly once.
//
type Loop struct {
	buf   *Buffer
	tr    *Transport
	clk   Clock
	delay time.Duration
	blank bool
	max   int
	log   *log.Logger

	state  State
	cycles int

	// OnState, if not nil, is called on every state change.
	OnState func(State)
}

// NewLoop returns a new refresh loop. It takes exclusive ownership of buf and
// tr. A nil clk means SystemClock.
//
func NewLoop(buf *Buffer, tr *Transport, clk Clock, cfg *Config) (*Loop, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if buf.Len() != tr.Digits() {
		return nil, errors.Wrapf(ErrConfig, "buffer has %d digits, transport %d", buf.Len(), tr.Digits())
	}
	if clk == nil {
		clk = SystemClock
	}
	return &Loop{
		buf:   buf,
		tr:    tr,
		clk:   clk,
		delay: cfg.LongDelay,
		blank: cfg.BlankOnStart,
		max:   cfg.MaxCycles,
		log:   cfg.Logger,
	}, nil
}

// State returns the current state.
//
func (l *Loop) State() State { return l.state }

// Cycles returns the number of completed refresh cycles.
//
func (l *Loop) Cycles() int { return l.cycles }

func (l *Loop) enter(s State) {
	l.state = s
	if l.OnState != nil {
		l.OnState(s)
	}
}

// Run runs the refresh loop until ctx is canceled, the cycle limit is reached
// or an error occurs. In every case the tubes are blanked before Run returns.
//
// Run returns nil when stopped by ctx or the cycle limit. A source value out
// of range or a transfer that failed all its retries halts the loop and is
// returned.
//
func (l *Loop) Run(ctx context.Context) error {
	l.enter(Startup)
	if l.blank {
		if err := l.tr.Blank(); err != nil {
			l.enter(Stopped)
			return errors.Wrap(err, "startup")
		}
	}
	for {
		l.enter(Idle)
		if ctx.Err() != nil || l.max > 0 && l.cycles >= l.max {
			return l.shutdown(nil)
		}

		l.enter(Regenerating)
		if err := l.buf.Regenerate(); err != nil {
			return l.shutdown(err)
		}

		l.enter(Transferring)
		snap := l.buf.Snapshot()
		if err := l.tr.Transfer(snap); err != nil {
			return l.shutdown(err)
		}
		l.log.Printf("cycle %d: %s", l.cycles, snap)

		l.enter(Waiting)
		select {
		case <-ctx.Done():
		case <-l.clk.After(l.delay):
		}
		l.cycles++
	}
}

func (l *Loop) shutdown(cause error) error {
	if cause != nil {
		l.log.Printf("halting: %v", cause)
	}
	l.buf.Clear()
	err := l.tr.Blank()
	l.enter(Stopped)
	switch {
	case cause != nil:
		return cause
	case err != nil:
		return errors.Wrap(err, "shutdown")
	}
	return nil
}
