// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package nixie

import (
	"math/rand"
	"time"
)

// RandSource returns a Source of uniformly distributed digits.
//
func RandSource(r *rand.Rand) Source {
	return SourceFunc(func() int { return r.Intn(10) })
}

// TimeSource shows the time of day. Each frame formats Now() with Layout and
// feeds its decimal digits to positions 0 to n-1, right aligned: extra
// leading positions get 0 and extra leading digits are dropped. Non-digit
// characters in the formatted time are skipped.
//
//	// HH MM SS on six tubes
//	src := &TimeSource{Layout: "150405"}
//
type TimeSource struct {
	Layout string
	// Now defaults to time.Now.
	Now func() time.Time

	ds []int
	i  int
}

// BeginFrame implements FrameSource.
//
func (s *TimeSource) BeginFrame(n int) {
	now := s.Now
	if now == nil {
		now = time.Now
	}
	var ds []int
	for _, r := range now().Format(s.Layout) {
		if r >= '0' && r <= '9' {
			ds = append(ds, int(r-'0'))
		}
	}
	if len(ds) > n {
		ds = ds[len(ds)-n:]
	}
	s.ds = append(s.ds[:0], make([]int, n-len(ds))...)
	s.ds = append(s.ds, ds...)
	s.i = 0
}

// NextDigit implements Source.
//
func (s *TimeSource) NextDigit() int {
	if s.i >= len(s.ds) {
		return 0
	}
	d := s.ds[s.i]
	s.i++
	return d
}
