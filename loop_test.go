package nixie_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/db47h/nixie"
	"github.com/db47h/nixie/nixietest"
	"github.com/pkg/errors"
)

type loopFixture struct {
	cfg   *nixie.Config
	src   *nixietest.Sequence
	rec   *nixietest.Recorder
	clk   *nixietest.Clock
	tr    *nixie.Transport
	loop  *nixie.Loop
	trace []nixie.State
}

func newLoop(t *testing.T, cfg *nixie.Config, values ...int) *loopFixture {
	t.Helper()
	f := &loopFixture{
		cfg: cfg,
		src: &nixietest.Sequence{Values: values},
		rec: &nixietest.Recorder{Stages: cfg.FrameBits()},
		clk: new(nixietest.Clock),
	}
	f.tr = newTransport(t, cfg, f.rec)
	var err error
	f.loop, err = nixie.NewLoop(nixie.NewBuffer(cfg.Digits, f.src), f.tr, f.clk, cfg)
	if err != nil {
		t.Fatal(err)
	}
	f.loop.OnState = func(s nixie.State) { f.trace = append(f.trace, s) }
	return f
}

func (f *loopFixture) count(s nixie.State) int {
	n := 0
	for _, x := range f.trace {
		if x == s {
			n++
		}
	}
	return n
}

func (f *loopFixture) tubes(t *testing.T) string {
	t.Helper()
	ds, err := f.tr.Decode(f.rec.Outputs())
	if err != nil {
		t.Fatal(err)
	}
	return nixie.FormatDigits(ds)
}

func TestLoop_cycle(t *testing.T) {
	cfg := bcdConfig(4)
	cfg.MaxCycles = 1
	cfg.BlankOnStart = false
	f := newLoop(t, cfg, 3, 0, 9, 5)

	var shown string
	f.clk.OnAfter = func(time.Duration) { shown = f.tubes(t) }

	if err := f.loop.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if shown != "3095" {
		t.Fatalf("expected 3095 on the tubes while waiting, got %s", shown)
	}
	frames := f.rec.Frames()
	if len(frames) != 2 {
		t.Fatalf("expected 2 transfers (cycle and shutdown blank), got %d", len(frames))
	}
	nixietest.CheckFrame(t, f.tr, frames[0], 3, 0, 9, 5)
	nixietest.CheckFrame(t, f.tr, frames[1], nixie.Blank, nixie.Blank, nixie.Blank, nixie.Blank)

	want := []nixie.State{nixie.Startup, nixie.Idle, nixie.Regenerating, nixie.Transferring, nixie.Waiting, nixie.Idle, nixie.Stopped}
	if len(f.trace) != len(want) {
		t.Fatalf("expected states %v, got %v", want, f.trace)
	}
	for i := range want {
		if f.trace[i] != want[i] {
			t.Fatalf("expected states %v, got %v", want, f.trace)
		}
	}
	if len(f.clk.Waited) != 1 || f.clk.Waited[0] != cfg.LongDelay {
		t.Fatalf("expected a single %v wait, got %v", cfg.LongDelay, f.clk.Waited)
	}
}

func TestLoop_startup_blank(t *testing.T) {
	cfg := bcdConfig(3)
	cfg.MaxCycles = 2
	f := newLoop(t, cfg, 1, 2, 3, 4, 5, 6)

	if err := f.loop.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	frames := f.rec.Frames()
	if len(frames) != 4 {
		t.Fatalf("expected 4 transfers, got %d", len(frames))
	}
	nixietest.CheckFrame(t, f.tr, frames[0], nixie.Blank, nixie.Blank, nixie.Blank)
	nixietest.CheckFrame(t, f.tr, frames[1], 1, 2, 3)
	nixietest.CheckFrame(t, f.tr, frames[2], 4, 5, 6)
	nixietest.CheckFrame(t, f.tr, frames[3], nixie.Blank, nixie.Blank, nixie.Blank)
	if f.loop.Cycles() != 2 {
		t.Fatalf("expected 2 cycles, got %d", f.loop.Cycles())
	}
	if f.loop.State() != nixie.Stopped {
		t.Fatalf("expected state Stopped, got %v", f.loop.State())
	}
}

func TestLoop_stop_while_waiting(t *testing.T) {
	cfg := bcdConfig(4)
	cfg.BlankOnStart = false
	f := newLoop(t, cfg, 3, 0, 9, 5, 1, 1, 1, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var transfers, regens int
	f.clk.OnAfter = func(time.Duration) {
		if f.loop.State() != nixie.Waiting {
			t.Errorf("wait requested in state %v", f.loop.State())
		}
		cancel()
		transfers = f.count(nixie.Transferring)
		regens = f.count(nixie.Regenerating)
	}

	if err := f.loop.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if n := f.count(nixie.Transferring); n != transfers {
		t.Fatalf("transfer after stop: %d before, %d after", transfers, n)
	}
	if n := f.count(nixie.Regenerating); n != regens {
		t.Fatalf("regenerate after stop: %d before, %d after", regens, n)
	}
	if f.src.Calls != 4 {
		t.Fatalf("expected 4 digits drawn, got %d", f.src.Calls)
	}
	// one cycle transfer, then exactly one blank
	frames := f.rec.Frames()
	if len(frames) != 2 {
		t.Fatalf("expected 2 transfers, got %d", len(frames))
	}
	nixietest.CheckFrame(t, f.tr, frames[1], nixie.Blank, nixie.Blank, nixie.Blank, nixie.Blank)
	if s := f.tubes(t); s != "____" {
		t.Fatalf("expected blank tubes after stop, got %s", s)
	}
	if f.loop.State() != nixie.Stopped {
		t.Fatalf("expected state Stopped, got %v", f.loop.State())
	}
}

func TestLoop_stopped_before_start(t *testing.T) {
	cfg := bcdConfig(2)
	f := newLoop(t, cfg, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := f.loop.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if f.src.Calls != 0 {
		t.Fatalf("expected no digit drawn, got %d", f.src.Calls)
	}
	// startup blank and shutdown blank
	if n := f.rec.Count(nixietest.PulseLatch); n != 2 {
		t.Fatalf("expected 2 latch pulses, got %d", n)
	}
}

func TestLoop_invalid_digit_halts(t *testing.T) {
	cfg := bcdConfig(4)
	cfg.BlankOnStart = false
	f := newLoop(t, cfg, 1, 2, 3, 4, 5, 6, 10, 8)

	err := f.loop.Run(context.Background())
	if errors.Cause(err) != nixie.ErrInvalidDigitValue {
		t.Fatalf("expected ErrInvalidDigitValue, got %v", err)
	}
	frames := f.rec.Frames()
	if len(frames) != 2 {
		t.Fatalf("expected 2 transfers, got %d", len(frames))
	}
	nixietest.CheckFrame(t, f.tr, frames[0], 1, 2, 3, 4)
	nixietest.CheckFrame(t, f.tr, frames[1], nixie.Blank, nixie.Blank, nixie.Blank, nixie.Blank)
	if f.loop.Cycles() != 1 {
		t.Fatalf("expected 1 completed cycle, got %d", f.loop.Cycles())
	}
}

func TestLoop_transfer_failure_halts(t *testing.T) {
	cfg := bcdConfig(2)
	cfg.BlankOnStart = false
	cfg.Retries = 0
	f := newLoop(t, cfg, 4, 2)
	fail := true
	f.rec.Fail = func(call int, op nixietest.Op) error {
		if fail && op == nixietest.PulseLatch {
			fail = false
			return errLine
		}
		return nil
	}

	err := f.loop.Run(context.Background())
	if errors.Cause(err) != errLine {
		t.Fatalf("expected the line error, got %v", err)
	}
	if s := f.tubes(t); s != "__" {
		t.Fatalf("expected blank tubes after halt, got %s", s)
	}
}

func TestNewLoop_size_mismatch(t *testing.T) {
	cfg := bcdConfig(4)
	tr := newTransport(t, cfg, new(nixietest.Recorder))
	_, err := nixie.NewLoop(nixie.NewBuffer(3, &nixietest.Sequence{Values: []int{0}}), tr, nil, cfg)
	if errors.Cause(err) != nixie.ErrConfig {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	for i, mod := range []func(*nixie.Config){
		func(c *nixie.Config) { c.Digits = 0 },
		func(c *nixie.Config) { c.Order = 3 },
		func(c *nixie.Config) { c.ShortDelay = -1 },
		func(c *nixie.Config) { c.Retries = -1 },
		func(c *nixie.Config) { c.MaxCycles = -1 },
	} {
		cfg := nixie.DefaultConfig()
		mod(cfg)
		if err := cfg.Validate(); errors.Cause(err) != nixie.ErrConfig {
			t.Errorf("case %d: expected ErrConfig, got %v", i, err)
		}
	}
	cfg := &nixie.Config{Digits: 2}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Encoding != nixie.OneHot || cfg.Logger == nil {
		t.Fatal("Validate did not fill in defaults")
	}
}

func TestLoop_startup_blank_failure(t *testing.T) {
	cfg := bcdConfig(2)
	cfg.Retries = 0
	f := newLoop(t, cfg, 7)
	f.rec.Fail = func(call int, op nixietest.Op) error { return errLine }

	err := f.loop.Run(context.Background())
	if errors.Cause(err) != errLine {
		t.Fatalf("expected the line error, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "startup: ") {
		t.Fatalf("expected a startup error, got %v", err)
	}
	if f.src.Calls != 0 {
		t.Fatalf("expected no digit drawn, got %d", f.src.Calls)
	}
	if f.loop.State() != nixie.Stopped {
		t.Fatalf("expected state Stopped, got %v", f.loop.State())
	}
}

func TestLoop_shutdown_blank_failure(t *testing.T) {
	cfg := bcdConfig(2)
	cfg.Retries = 0
	cfg.BlankOnStart = false
	cfg.MaxCycles = 1
	f := newLoop(t, cfg, 4, 2)
	latches := 0
	f.rec.Fail = func(call int, op nixietest.Op) error {
		if op == nixietest.PulseLatch {
			latches++
			if latches == 2 {
				return errLine
			}
		}
		return nil
	}

	err := f.loop.Run(context.Background())
	if errors.Cause(err) != errLine {
		t.Fatalf("expected the line error, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "shutdown: ") {
		t.Fatalf("expected a shutdown error, got %v", err)
	}
	if f.loop.Cycles() != 1 {
		t.Fatalf("expected 1 completed cycle, got %d", f.loop.Cycles())
	}
	// the cycle frame stays latched since the blank never made it
	if s := f.tubes(t); s != "42" {
		t.Fatalf("expected 42 left on the tubes, got %s", s)
	}
	if f.loop.State() != nixie.Stopped {
		t.Fatalf("expected state Stopped, got %v", f.loop.State())
	}
}
