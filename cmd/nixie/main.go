// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command nixie refreshes a row of Nixie tubes driven by daisy-chained shift
// register chips.
//
// By default it runs against a simulated board and shows the tubes in the
// terminal. Use -b to drive real hardware:
//
//	nixie -b gpiocdev -pins 17,27,22 -e bcd -n 6 -m clock -layout 150405
//
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/db47h/nixie"
	"github.com/db47h/nixie/platform/gpiocdev"
	"github.com/db47h/nixie/platform/periph"
	"github.com/db47h/nixie/platform/rpio"
	"github.com/db47h/nixie/sim"
	"github.com/pkg/errors"
	"github.com/pkg/profile"
)

var (
	digits   = flag.Int("n", 4, "number of `tubes`")
	encName  = flag.String("e", "onehot", "digit `encoding`: onehot, bcd or custom")
	table    = flag.String("table", "", "custom encoding: 11 comma separated `codes` for digits 0 to 9 and blank")
	width    = flag.Uint("width", 4, "custom encoding: `bits` per digit")
	order    = flag.String("order", "msb", "bit `order` within a digit: msb or lsb")
	pulse    = flag.Duration("pulse", 100*time.Microsecond, "clock and latch pulse `width`")
	delay    = flag.Duration("delay", 5*time.Second, "`delay` between refresh cycles")
	retries  = flag.Int("retries", 2, "transfer `retries` on line errors")
	cycles   = flag.Int("cycles", 0, "stop after `n` refresh cycles (0 = run until interrupted)")
	noBlank  = flag.Bool("noblank", false, "do not blank the tubes on startup")
	backend  = flag.String("b", "sim", "line `backend`: sim, periph, gpiocdev or rpio")
	pins     = flag.String("pins", "", "data, clock and latch `pins`, comma separated (default GPIO17,GPIO27,GPIO22)")
	gpioChip = flag.String("chip", "gpiochip0", "gpiocdev: GPIO character device `name`")
	chipSize = flag.Int("stages", 8, "sim: `outputs` per driver chip")
	noView   = flag.Bool("g", false, "sim: run without the terminal view")
	mode     = flag.String("m", "random", "digit source `mode`: random or clock")
	layout   = flag.String("layout", "1504", "clock mode: time `layout`")
	seed     = flag.Int64("seed", 0, "random mode: `seed` (0 = current time)")
	prof     = flag.String("profile", "", "write a cpu or mem `profile` to the current directory")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	log.SetFlags(0)
	log.SetPrefix("nixie: ")

	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	switch *prof {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		return errors.Errorf("unknown profile %q", *prof)
	}

	cfg, err := config()
	if err != nil {
		return err
	}
	src, err := source()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		lines   nixie.LineDriver
		onLatch func(tr *nixie.Transport, outputs []bool)
	)
	switch *backend {
	case "sim":
		b, err := sim.NewBoard(cfg.FrameBits(), *chipSize)
		if err != nil {
			return err
		}
		defer b.Close()
		lines = b
		if !*noView {
			v, err := newView(cfg.Digits, fmt.Sprintf("%d tubes, %s, %s first", cfg.Digits, cfg.Encoding.Name(), cfg.Order), stop)
			if err != nil {
				return errors.Wrap(err, "terminal view")
			}
			defer restoreLog(v, log.Writer())
			log.SetOutput(v)
			cfg.Logger.SetOutput(v)
			onLatch = func(tr *nixie.Transport, outputs []bool) {
				ds, err := tr.Decode(outputs)
				if err != nil {
					log.Print(err)
					return
				}
				v.Show(ds)
			}
		}
	case "periph":
		p, err := pinNames("GPIO17", "GPIO27", "GPIO22")
		if err != nil {
			return err
		}
		if lines, err = periph.Open(p[0], p[1], p[2], cfg.ShortDelay); err != nil {
			return err
		}
	case "gpiocdev":
		p, err := pinNumbers(17, 27, 22)
		if err != nil {
			return err
		}
		d, err := gpiocdev.Open(*gpioChip, p[0], p[1], p[2], cfg.ShortDelay)
		if err != nil {
			return err
		}
		defer d.Close()
		lines = d
	case "rpio":
		p, err := pinNumbers(17, 27, 22)
		if err != nil {
			return err
		}
		d, err := rpio.Open(p[0], p[1], p[2], cfg.ShortDelay)
		if err != nil {
			return err
		}
		defer d.Close()
		lines = d
	default:
		return errors.Errorf("unknown backend %q", *backend)
	}

	tr, err := nixie.NewTransport(lines, cfg)
	if err != nil {
		return err
	}
	if b, ok := lines.(*sim.Board); ok && onLatch != nil {
		b.OnLatch = func(outputs []bool) { onLatch(tr, outputs) }
	}
	loop, err := nixie.NewLoop(nixie.NewBuffer(cfg.Digits, src), tr, nixie.SystemClock, cfg)
	if err != nil {
		return err
	}
	return loop.Run(ctx)
}

// restoreLog closes the view and sends log output back to w.
//
func restoreLog(v *view, w io.Writer) {
	v.Close()
	log.SetOutput(w)
}

func config() (*nixie.Config, error) {
	cfg := nixie.DefaultConfig()
	cfg.Digits = *digits
	cfg.ShortDelay = *pulse
	cfg.LongDelay = *delay
	cfg.Retries = *retries
	cfg.MaxCycles = *cycles
	cfg.BlankOnStart = !*noBlank
	cfg.Logger = log.New(os.Stderr, "nixie: ", log.LstdFlags)

	var err error
	if cfg.Order, err = nixie.ParseBitOrder(*order); err != nil {
		return nil, err
	}
	if *encName == "custom" {
		cfg.Encoding, err = nixie.ParseEncoding("custom", *width, *table)
	} else {
		cfg.Encoding, err = nixie.EncodingByName(*encName)
	}
	if err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func source() (nixie.Source, error) {
	switch *mode {
	case "random":
		s := *seed
		if s == 0 {
			s = time.Now().UnixNano()
		}
		return nixie.RandSource(rand.New(rand.NewSource(s))), nil
	case "clock":
		return &nixie.TimeSource{Layout: *layout}, nil
	}
	return nil, errors.Errorf("unknown mode %q", *mode)
}

func pinNames(defaults ...string) ([]string, error) {
	if *pins == "" {
		return defaults, nil
	}
	p := strings.Split(*pins, ",")
	if len(p) != 3 {
		return nil, errors.Errorf("expected 3 pins, got %q", *pins)
	}
	for i := range p {
		p[i] = strings.TrimSpace(p[i])
	}
	return p, nil
}

func pinNumbers(defaults ...int) ([]int, error) {
	if *pins == "" {
		return defaults, nil
	}
	p, err := pinNames()
	if err != nil {
		return nil, err
	}
	n := make([]int, len(p))
	for i, s := range p {
		v, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(s), "GPIO"))
		if err != nil {
			return nil, errors.Wrapf(err, "pin %q", s)
		}
		n[i] = v
	}
	return n, nil
}
