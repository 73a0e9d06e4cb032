// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package nixie

import (
	"github.com/pkg/errors"
)

// A Source produces digit values for Buffer.Regenerate. NextDigit should
// return a value in [0,9]. Anything else is rejected.
//
type Source interface {
	NextDigit() int
}

// A FrameSource is a Source that wants to know when a new buffer fill
// starts. BeginFrame is called once per Regenerate, before the n calls to
// NextDigit for positions 0 to n-1.
//
type FrameSource interface {
	Source
	BeginFrame(n int)
}

// SourceFunc adapts a plain function to the Source interface.
//
type SourceFunc func() int

// NextDigit returns f().
//
func (f SourceFunc) NextDigit() int { return f() }

// A Snapshot is an immutable copy of the digits in a Buffer.
//
type Snapshot struct {
	ds []Digit
}

// NewSnapshot returns a snapshot of a copy of ds.
//
func NewSnapshot(ds ...Digit) Snapshot {
	return Snapshot{ds: append([]Digit(nil), ds...)}
}

// BlankSnapshot returns a snapshot of n blank digits.
//
func BlankSnapshot(n int) Snapshot {
	ds := make([]Digit, n)
	for i := range ds {
		ds[i] = Blank
	}
	return Snapshot{ds: ds}
}

// Len returns the number of digits in the snapshot.
//
func (s Snapshot) Len() int { return len(s.ds) }

// At returns the digit at position i.
//
func (s Snapshot) At(i int) Digit { return s.ds[i] }

// Digits returns a copy of the digits in the snapshot.
//
func (s Snapshot) Digits() []Digit { return append([]Digit(nil), s.ds...) }

func (s Snapshot) String() string { return FormatDigits(s.ds) }

// Buffer holds the digits currently meant for display, one per tube. Its
// length never changes. A Buffer is not safe for concurrent use; the Loop
// that owns it never regenerates while a snapshot is being transferred.
//
type Buffer struct {
	ds  []Digit
	tmp []Digit
	src Source
}

// NewBuffer returns a buffer of n blank digits fed by src.
//
func NewBuffer(n int, src Source) *Buffer {
	b := &Buffer{
		ds:  make([]Digit, n),
		tmp: make([]Digit, n),
		src: src,
	}
	b.Clear()
	return b
}

// Len returns the number of digits in the buffer.
//
func (b *Buffer) Len() int { return len(b.ds) }

// Regenerate fills every position with a new digit from the source.
// Position i gets the i-th value drawn. If the source returns a value outside
// [0,9], Regenerate returns an error whose cause is ErrInvalidDigitValue and
// leaves the buffer unchanged.
//
func (b *Buffer) Regenerate() error {
	if fs, ok := b.src.(FrameSource); ok {
		fs.BeginFrame(len(b.tmp))
	}
	for i := range b.tmp {
		v := b.src.NextDigit()
		if v < 0 || v > 9 {
			return errors.Wrapf(ErrInvalidDigitValue, "position %d: source returned %d", i, v)
		}
		b.tmp[i] = Digit(v)
	}
	b.ds, b.tmp = b.tmp, b.ds
	return nil
}

// Clear blanks every position.
//
func (b *Buffer) Clear() {
	for i := range b.ds {
		b.ds[i] = Blank
	}
}

// Snapshot returns a copy of the current digits.
//
func (b *Buffer) Snapshot() Snapshot {
	return NewSnapshot(b.ds...)
}
