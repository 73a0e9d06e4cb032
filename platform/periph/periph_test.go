package periph_test

import (
	"testing"

	"github.com/db47h/nixie"
	"github.com/db47h/nixie/nixietest"
	"github.com/db47h/nixie/platform/periph"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func TestNew(t *testing.T) {
	data := &gpiotest.Pin{N: "GPIO17", Num: 17, L: gpio.High}
	clock := &gpiotest.Pin{N: "GPIO27", Num: 27, L: gpio.High}
	latch := &gpiotest.Pin{N: "GPIO22", Num: 22, L: gpio.High}
	clk := new(nixietest.Clock)

	l, err := periph.New(data, clock, latch, clk, 0)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range []*gpiotest.Pin{data, clock, latch} {
		if p.L != gpio.Low {
			t.Fatalf("%s: expected idle level Low, got %v", p, p.L)
		}
	}

	var lines nixie.LineDriver = l
	if err = lines.SetData(true); err != nil {
		t.Fatal(err)
	}
	if data.L != gpio.High {
		t.Fatalf("expected data High, got %v", data.L)
	}
	if err = lines.PulseClock(); err != nil {
		t.Fatal(err)
	}
	if err = lines.PulseLatch(); err != nil {
		t.Fatal(err)
	}
	if clock.L != gpio.Low || latch.L != gpio.Low {
		t.Fatalf("pulsed lines should rest Low, got clock %v, latch %v", clock.L, latch.L)
	}
	if len(clk.Slept) != 4 {
		t.Fatalf("expected 4 pulse delays, got %d", len(clk.Slept))
	}
}
