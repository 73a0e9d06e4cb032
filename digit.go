// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package nixie

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// A Digit is the value shown by a single tube: 0 to 9, or Blank.
//
type Digit int8

// Blank is the digit value of a tube that is turned off.
//
const Blank Digit = -1

// Valid returns true if d is a decimal digit or Blank.
//
func (d Digit) Valid() bool {
	return d == Blank || d >= 0 && d <= 9
}

func (d Digit) String() string {
	switch {
	case d == Blank:
		return "_"
	case d.Valid():
		return string('0' + rune(d))
	}
	return "Digit(" + strconv.Itoa(int(d)) + ")"
}

// FormatDigits formats ds as a string, one character per tube.
//
func FormatDigits(ds []Digit) string {
	var b strings.Builder
	for _, d := range ds {
		b.WriteString(d.String())
	}
	return b.String()
}

// maxWidth is the widest code an Encoding can hold.
const maxWidth = 32

// An Encoding maps digits to the bit pattern expected by the driver chip for
// a single tube. Codes are Width bits wide. Bit 0 of a code is the lsb.
//
// Encodings are immutable once created and safe for concurrent use.
//
type Encoding struct {
	name  string
	width uint
	codes [10]uint32
	blank uint32
}

// Built-in encodings.
var (
	// OneHot uses one output per cathode: bit n lights digit n. Blank turns
	// all cathodes off. This is the layout of the Ogi Lumen driver board.
	OneHot = mustEncoding("onehot", 10,
		[10]uint32{1 << 0, 1 << 1, 1 << 2, 1 << 3, 1 << 4, 1 << 5, 1 << 6, 1 << 7, 1 << 8, 1 << 9}, 0)

	// BCD feeds a 74141 or K155ID1 decoder. These turn all cathodes off on
	// codes above 9, so blank is 0xF.
	BCD = mustEncoding("bcd", 4,
		[10]uint32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, 0xF)
)

func mustEncoding(name string, width uint, codes [10]uint32, blank uint32) *Encoding {
	e, err := NewEncoding(name, width, codes, blank)
	if err != nil {
		panic(err)
	}
	return e
}

// NewEncoding returns a new encoding. Each code, including the blank code,
// must fit in width bits and be distinct from all others.
//
func NewEncoding(name string, width uint, codes [10]uint32, blank uint32) (*Encoding, error) {
	if width == 0 || width > maxWidth {
		return nil, errors.Errorf("encoding %s: invalid width %d", name, width)
	}
	var limit uint64 = 1 << width
	seen := make(map[uint32]Digit, len(codes)+1)
	seen[blank] = Blank
	if uint64(blank) >= limit {
		return nil, errors.Errorf("encoding %s: blank code %#x does not fit in %d bits", name, blank, width)
	}
	for d, c := range codes {
		if uint64(c) >= limit {
			return nil, errors.Errorf("encoding %s: code %#x for digit %d does not fit in %d bits", name, c, d, width)
		}
		if o, ok := seen[c]; ok {
			return nil, errors.Errorf("encoding %s: digits %v and %d share code %#x", name, o, d, c)
		}
		seen[c] = Digit(d)
	}
	return &Encoding{name: name, width: width, codes: codes, blank: blank}, nil
}

// ParseEncoding parses a custom encoding table. The table is a comma
// separated list of 11 codes: the codes for digits 0 to 9 followed by the
// blank code. Codes use Go integer literal syntax (0x1F, 0b101, 17).
//
//	// BCD with reversed bits, blank on 0xF
//	e, err := ParseEncoding("rbcd", 4, "0,8,4,0xc,2,0xa,6,0xe,1,9,0xf")
//
func ParseEncoding(name string, width uint, table string) (*Encoding, error) {
	fields := strings.Split(table, ",")
	if len(fields) != 11 {
		return nil, errors.Errorf("encoding %s: expected 11 codes, got %d", name, len(fields))
	}
	var v [11]uint32
	for i, f := range fields {
		n, err := strconv.ParseUint(strings.TrimSpace(f), 0, maxWidth)
		if err != nil {
			return nil, errors.Wrapf(err, "encoding %s: code #%d", name, i)
		}
		v[i] = uint32(n)
	}
	var codes [10]uint32
	copy(codes[:], v[:10])
	return NewEncoding(name, width, codes, v[10])
}

// EncodingByName returns the built-in encoding with the given name.
//
func EncodingByName(name string) (*Encoding, error) {
	switch strings.ToLower(name) {
	case OneHot.name:
		return OneHot, nil
	case BCD.name:
		return BCD, nil
	}
	return nil, errors.Errorf("unknown encoding %q", name)
}

// Name returns the encoding name.
//
func (e *Encoding) Name() string { return e.name }

// Width returns the number of bits per digit.
//
func (e *Encoding) Width() uint { return e.width }

// Code returns the code for digit d.
//
func (e *Encoding) Code(d Digit) (uint32, error) {
	switch {
	case d == Blank:
		return e.blank, nil
	case d.Valid():
		return e.codes[d], nil
	}
	return 0, errors.Wrapf(ErrInvalidDigitValue, "encode %d", int(d))
}

// Digit returns the digit for the given code. It returns false if the code
// is not part of the table.
//
func (e *Encoding) Digit(code uint32) (Digit, bool) {
	if code == e.blank {
		return Blank, true
	}
	for d, c := range e.codes {
		if c == code {
			return Digit(d), true
		}
	}
	return Blank, false
}
