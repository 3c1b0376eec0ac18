// Copyright 2019 Ross Light
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package datefmt formats calendar dates using pattern templates such as
// "dd/MM/yyyy" or "MMMM d, yyyy". The pattern language is the one used by
// java.time.format.DateTimeFormatter, with month and weekday names in US
// English and weeks starting on Sunday.
//
// # Pattern letters
//
//	G   era                     AD; Anno Domini; A
//	u   year                    2004; 04
//	y   year-of-era             2004; 04
//	Y   week-based-year         1996; 96
//	D   day-of-year             189
//	M/L month-of-year           7; 07; Jul; July; J
//	d   day-of-month            10
//	Q/q quarter-of-year         3; 03; Q3; 3rd quarter
//	E   day-of-week             Tue; Tuesday; T
//	e/c localized day-of-week   2; 02; Tue; Tuesday; T
//	w   week-of-week-based-year 27
//	W   week-of-month           4
//	F   aligned week of month   3
//	g   modified julian day     2451334
//	p   pad next                1
//	'   escape for text
//	''  single quote
//	[   optional section start
//	]   optional section end
//
// Time-of-day and zone letters (a, h, K, k, H, m, s, S, A, n, N, B, V, v, z,
// O, X, x, Z) are accepted by Compile but a date has no such fields, so
// formatting fails unless they sit inside an optional section.
package datefmt

import (
	"bytes"
	"fmt"
	"time"
)

// ISODate is the time package layout for an ISO-8601 calendar date.
const ISODate = "2006-01-02"

// Layout is a compiled date pattern. A Layout is immutable and safe to use
// from multiple goroutines.
type Layout struct {
	pattern string
	root    *composite
}

// Compile parses a date pattern. Errors are of type *FormatError.
func Compile(pattern string) (*Layout, error) {
	root, err := parse(pattern)
	if err != nil {
		return nil, err
	}
	return &Layout{pattern: pattern, root: root}, nil
}

// MustCompile is like Compile but panics if the pattern is invalid.
func MustCompile(pattern string) *Layout {
	l, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return l
}

// String returns the pattern the layout was compiled from.
func (l *Layout) String() string {
	return l.pattern
}

// Format renders the calendar date of t (in t's location). Errors are of type
// *FormatError.
func (l *Layout) Format(t time.Time) (string, error) {
	buf := new(bytes.Buffer)
	if err := l.root.print(buf, newDate(t)); err != nil {
		return "", &FormatError{Pattern: l.pattern, Offset: -1, Msg: err.Error()}
	}
	return buf.String(), nil
}

// Format compiles pattern and formats t with it.
func Format(t time.Time, pattern string) (string, error) {
	l, err := Compile(pattern)
	if err != nil {
		return "", err
	}
	return l.Format(t)
}

// FormatError reports a pattern that cannot be compiled or that cannot
// format a calendar date.
type FormatError struct {
	Pattern string
	// Offset is the byte offset of the offending pattern character or -1 if
	// the failure was not tied to a position.
	Offset int
	Msg    string
}

func (e *FormatError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("date pattern %q: %s", e.Pattern, e.Msg)
	}
	return fmt.Sprintf("date pattern %q: offset %d: %s", e.Pattern, e.Offset, e.Msg)
}
