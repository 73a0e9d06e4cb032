package nixie_test

import (
	"testing"
	"time"

	"github.com/db47h/nixie"
	"github.com/db47h/nixie/nixietest"
	"github.com/pkg/errors"
)

type level struct {
	pin   string
	level bool
}

type probe struct {
	name string
	log  *[]level
	err  error
}

func (p *probe) Out(l bool) error {
	if p.err != nil {
		return p.err
	}
	*p.log = append(*p.log, level{p.name, l})
	return nil
}

func TestLines(t *testing.T) {
	var log []level
	clk := new(nixietest.Clock)
	data, clock, latch := &probe{"data", &log, nil}, &probe{"clock", &log, nil}, &probe{"latch", &log, nil}
	l := nixie.NewLines(data, clock, latch, clk, 100*time.Microsecond)

	if err := l.Idle(); err != nil {
		t.Fatal(err)
	}
	if err := l.SetData(true); err != nil {
		t.Fatal(err)
	}
	if err := l.PulseClock(); err != nil {
		t.Fatal(err)
	}
	if err := l.PulseLatch(); err != nil {
		t.Fatal(err)
	}

	want := []level{
		{"clock", false}, {"latch", false}, {"data", false},
		{"data", true},
		{"clock", true}, {"clock", false},
		{"latch", true}, {"latch", false},
	}
	if len(log) != len(want) {
		t.Fatalf("expected %v, got %v", want, log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("transition %d: expected %v, got %v", i, want[i], log[i])
		}
	}
	if len(clk.Slept) != 4 {
		t.Fatalf("expected 4 pulse delays, got %d", len(clk.Slept))
	}
	for _, d := range clk.Slept {
		if d != 100*time.Microsecond {
			t.Fatalf("expected 100µs pulse delays, got %v", d)
		}
	}
}

func TestLines_transfer(t *testing.T) {
	var log []level
	clk := new(nixietest.Clock)
	cfg := bcdConfig(2)
	l := nixie.NewLines(&probe{"data", &log, nil}, &probe{"clock", &log, nil}, &probe{"latch", &log, nil}, clk, cfg.ShortDelay)
	tr := newTransport(t, cfg, l)
	if err := tr.Transfer(nixie.NewSnapshot(1, 2)); err != nil {
		t.Fatal(err)
	}
	// every pulse sleeps twice
	if n, want := len(clk.Slept), 2*(cfg.FrameBits()+1); n != want {
		t.Fatalf("expected %d sleeps, got %d", want, n)
	}
	if last := log[len(log)-1]; last != (level{"latch", false}) {
		t.Fatalf("latch should be the last line to move and rest low, got %v", last)
	}
}

func TestLines_error(t *testing.T) {
	var log []level
	errPin := errors.New("pin write failed")
	l := nixie.NewLines(&probe{"data", &log, nil}, &probe{"clock", &log, errPin}, &probe{"latch", &log, nil}, new(nixietest.Clock), 0)
	if err := l.PulseClock(); err != errPin {
		t.Fatalf("expected pin error, got %v", err)
	}
	if err := l.Idle(); errors.Cause(err) != errPin {
		t.Fatalf("expected pin error, got %v", err)
	}
}

// edgePin is a pin that remembers its level and reports rising edges, like
// the clock and latch inputs of a real shift register.
type edgePin struct {
	level  bool
	onSet  func(level bool)
	onRise func()
	fail   func(level bool) error
}

func (p *edgePin) Out(l bool) error {
	if p.fail != nil {
		if err := p.fail(l); err != nil {
			return err
		}
	}
	rise := l && !p.level
	p.level = l
	if p.onSet != nil {
		p.onSet(l)
	}
	if rise && p.onRise != nil {
		p.onRise()
	}
	return nil
}

func TestLines_retry_after_stuck_clock(t *testing.T) {
	cfg := bcdConfig(4)
	cfg.Retries = 1
	n := cfg.FrameBits()
	reg, out := make([]bool, n), make([]bool, n)
	var data bool
	falls := 0

	dataPin := &edgePin{onSet: func(l bool) { data = l }}
	clockPin := &edgePin{
		onRise: func() {
			copy(reg[1:], reg[:n-1])
			reg[0] = data
		},
		// the second clock pulse cannot bring the line back low
		fail: func(l bool) error {
			if !l {
				falls++
				if falls == 2 {
					return errLine
				}
			}
			return nil
		},
	}
	latchPin := &edgePin{onRise: func() { copy(out, reg) }}
	tr := newTransport(t, cfg, nixie.NewLines(dataPin, clockPin, latchPin, new(nixietest.Clock), 0))

	if err := tr.Transfer(nixie.NewSnapshot(1, 2, 3, 4)); err != nil {
		nixietest.Trace(t, err)
		t.Fatal(err)
	}
	if clockPin.level || latchPin.level {
		t.Fatal("clock and latch should rest low after a transfer")
	}
	ds, err := tr.Decode(out)
	if err != nil {
		t.Fatalf("garbage latched after retry: %v", err)
	}
	if s := nixie.FormatDigits(ds); s != "1234" {
		t.Fatalf("expected 1234 after retry, got %s", s)
	}
}
