package nixie_test

import (
	"testing"

	"github.com/db47h/nixie"
	"github.com/pkg/errors"
)

func TestEncoding_roundtrip(t *testing.T) {
	for _, e := range []*nixie.Encoding{nixie.OneHot, nixie.BCD} {
		for d := nixie.Blank; d <= 9; d++ {
			c, err := e.Code(d)
			if err != nil {
				t.Fatalf("%s: Code(%v): %v", e.Name(), d, err)
			}
			if c >= 1<<e.Width() {
				t.Fatalf("%s: code %#x for %v does not fit in %d bits", e.Name(), c, d, e.Width())
			}
			got, ok := e.Digit(c)
			if !ok || got != d {
				t.Fatalf("%s: Digit(%#x) = %v, %v; expected %v", e.Name(), c, got, ok, d)
			}
		}
	}
}

func TestEncoding_invalid_digit(t *testing.T) {
	for _, d := range []nixie.Digit{10, -2, 127} {
		_, err := nixie.BCD.Code(d)
		if errors.Cause(err) != nixie.ErrInvalidDigitValue {
			t.Errorf("Code(%d): expected ErrInvalidDigitValue, got %v", d, err)
		}
	}
	if _, ok := nixie.BCD.Digit(0xA); ok {
		t.Error("Digit(0xA) should not decode in BCD")
	}
}

func TestNewEncoding_errors(t *testing.T) {
	seq := [10]uint32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	wide := seq
	wide[8] = 16
	data := []struct {
		name  string
		width uint
		codes [10]uint32
		blank uint32
		err   string
	}{
		{"zero", 0, seq, 15, "encoding zero: invalid width 0"},
		{"wide", 33, seq, 15, "encoding wide: invalid width 33"},
		{"blank", 4, seq, 16, "encoding blank: blank code 0x10 does not fit in 4 bits"},
		{"code", 4, wide, 15, "encoding code: code 0x10 for digit 8 does not fit in 4 bits"},
		{"dup", 4, seq, 9, "encoding dup: digits _ and 9 share code 0x9"},
	}
	for _, d := range data {
		_, err := nixie.NewEncoding(d.name, d.width, d.codes, d.blank)
		if err == nil {
			t.Errorf("%s: expected an error", d.name)
			continue
		}
		if err.Error() != d.err {
			t.Errorf("%s: expected error %q, got %q", d.name, d.err, err.Error())
		}
	}
}

func TestParseEncoding(t *testing.T) {
	e, err := nixie.ParseEncoding("rbcd", 4, "0,8,4,0xc,2,0xa,6,0xe,1,9,0xf")
	if err != nil {
		t.Fatal(err)
	}
	if c, _ := e.Code(3); c != 0xc {
		t.Fatalf("expected code 0xc for 3, got %#x", c)
	}
	if c, _ := e.Code(nixie.Blank); c != 0xf {
		t.Fatalf("expected blank code 0xf, got %#x", c)
	}
	for _, s := range []string{"1,2,3", "0,1,2,3,4,5,6,7,8,9,x", "0,1,2,3,4,5,6,7,8,9,9"} {
		if _, err := nixie.ParseEncoding("bad", 4, s); err == nil {
			t.Errorf("%q: expected an error", s)
		}
	}
}

func TestEncodingByName(t *testing.T) {
	for name, want := range map[string]*nixie.Encoding{"onehot": nixie.OneHot, "BCD": nixie.BCD} {
		e, err := nixie.EncodingByName(name)
		if err != nil || e != want {
			t.Errorf("EncodingByName(%q) = %v, %v", name, e, err)
		}
	}
	if _, err := nixie.EncodingByName("gray"); err == nil {
		t.Error("expected an error for an unknown encoding")
	}
}

func TestDigit_String(t *testing.T) {
	ds := []nixie.Digit{0, 9, nixie.Blank, 4}
	if s := nixie.FormatDigits(ds); s != "09_4" {
		t.Fatalf("expected 09_4, got %s", s)
	}
	if s := nixie.Digit(12).String(); s != "Digit(12)" {
		t.Fatalf("expected Digit(12), got %s", s)
	}
}
