// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package nixie

import "github.com/pkg/errors"

// Errors returned by this package are wrapped with context. Use errors.Cause
// from github.com/pkg/errors to compare them against these values.
var (
	// ErrInvalidDigitValue is returned when a Source produces a value outside
	// [0,9] or when a snapshot holds a value that is neither a digit nor Blank.
	ErrInvalidDigitValue = errors.New("invalid digit value")

	// ErrSnapshotLength is returned by Transport when a snapshot does not
	// hold exactly one digit per tube.
	ErrSnapshotLength = errors.New("snapshot length does not match digit count")

	// ErrConfig is returned by Config.Validate.
	ErrConfig = errors.New("invalid configuration")
)
