// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"context"
	"strings"

	"github.com/db47h/nixie"
	"github.com/gdamore/tcell"
	runewidth "github.com/mattn/go-runewidth"
)

const (
	tubeWidth  = 5
	tubeHeight = 5
	tubeGap    = 1
)

// view shows the latched outputs of a simulated board as a row of tubes on
// the local terminal. Digits and log lines are passed to the draw goroutine
// through channels; Show and Write never block.
//
type view struct {
	screen tcell.Screen
	title  string
	cancel context.CancelFunc

	tubes    []nixie.Digit
	status   string
	digitsCh chan []nixie.Digit
	statusCh chan string
	resizeCh chan struct{}
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// newView takes over the terminal. Ctrl-C, Esc or q call cancel.
//
func newView(n int, title string, cancel context.CancelFunc) (*view, error) {
	tcell.SetEncodingFallback(tcell.EncodingFallbackASCII)
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err = screen.Init(); err != nil {
		return nil, err
	}
	tubes := make([]nixie.Digit, n)
	for i := range tubes {
		tubes[i] = nixie.Blank
	}
	v := &view{
		screen:   screen,
		title:    title,
		cancel:   cancel,
		tubes:    tubes,
		digitsCh: make(chan []nixie.Digit, 16),
		statusCh: make(chan string, 16),
		resizeCh: make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go v.pollLoop()
	go v.drawLoop()
	return v, nil
}

// Close restores the terminal.
//
func (v *view) Close() error {
	select {
	case <-v.doneCh:
		return nil
	default:
	}
	close(v.stopCh)
	<-v.doneCh
	return nil
}

// Show displays ds, ordered from the first to the last tube.
//
func (v *view) Show(ds []nixie.Digit) {
	select {
	case v.digitsCh <- ds:
	default:
	}
}

// Write shows the last line of p in the status bar. It lets the view stand in
// for the log output while the terminal is taken over.
//
func (v *view) Write(p []byte) (int, error) {
	s := strings.TrimRight(string(p), "\n")
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	select {
	case v.statusCh <- s:
	default:
	}
	return len(p), nil
}

// tcell puts the terminal in raw mode, so Ctrl-C arrives here as a key event
// instead of SIGINT.
func (v *view) pollLoop() {
	for {
		ev := v.screen.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			switch {
			case ev.Key() == tcell.KeyCtrlC, ev.Key() == tcell.KeyEscape,
				ev.Key() == tcell.KeyRune && (ev.Rune() == 'q' || ev.Rune() == 'Q'):
				v.cancel()
			}
		case *tcell.EventResize:
			select {
			case v.resizeCh <- struct{}{}:
			default:
			}
		}
	}
}

func (v *view) drawLoop() {
	defer close(v.doneCh)
	defer v.screen.Fini()

	v.draw()
	for {
		select {
		case <-v.stopCh:
			return
		case <-v.resizeCh:
			v.screen.Sync()
		case ds := <-v.digitsCh:
			v.tubes = ds
		case s := <-v.statusCh:
			v.status = s
		}
		v.draw()
	}
}

func (v *view) draw() {
	v.screen.Clear()
	width, height := v.screen.Size()

	base := tcell.StyleDefault
	glass := base.Foreground(tcell.ColorGray)
	glow := base.Foreground(tcell.ColorOrange).Bold(true)

	total := len(v.tubes)*(tubeWidth+tubeGap) - tubeGap
	x0 := (width - total) / 2
	if x0 < 0 {
		x0 = 0
	}
	y0 := (height - tubeHeight) / 2
	if y0 < 2 {
		y0 = 2
	}
	v.drawText(x0, y0-2, base, v.title)

	for i, d := range v.tubes {
		x := x0 + i*(tubeWidth+tubeGap)
		v.drawTube(x, y0, glass, glow, d)
	}

	bar := base.Background(tcell.ColorLightGray).Foreground(tcell.ColorBlack)
	for col := 0; col < width; col++ {
		v.screen.SetContent(col, height-1, ' ', nil, bar)
	}
	v.drawText(1, height-1, bar, v.status)
	help := "q: quit"
	v.drawText(width-runewidth.StringWidth(help)-1, height-1, bar, help)

	v.screen.Show()
}

// drawTube draws a tube outline with the digit lit at its center.
//
func (v *view) drawTube(x, y int, glass, glow tcell.Style, d nixie.Digit) {
	s := v.screen
	right, bottom := x+tubeWidth-1, y+tubeHeight-1
	s.SetContent(x, y, '╭', nil, glass)
	s.SetContent(right, y, '╮', nil, glass)
	s.SetContent(x, bottom, '└', nil, glass)
	s.SetContent(right, bottom, '┘', nil, glass)
	for col := x + 1; col < right; col++ {
		s.SetContent(col, y, '─', nil, glass)
		s.SetContent(col, bottom, '─', nil, glass)
	}
	for row := y + 1; row < bottom; row++ {
		s.SetContent(x, row, '│', nil, glass)
		s.SetContent(right, row, '│', nil, glass)
	}
	r := ' '
	if d != nixie.Blank && d.Valid() {
		r = '0' + rune(d)
	}
	s.SetContent(x+tubeWidth/2, y+tubeHeight/2, r, nil, glow)
}

func (v *view) drawText(x, y int, style tcell.Style, text string) {
	for _, r := range text {
		v.screen.SetContent(x, y, r, nil, style)
		x += runewidth.RuneWidth(r)
	}
}
