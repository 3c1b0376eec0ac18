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

package datefmt

import (
	"unicode/utf8"
)

type lexer struct {
	input string
	pos   int
}

func (l *lexer) eof() bool {
	return l.pos >= len(l.input)
}

// run consumes the run of identical letters starting at the current position.
func (l *lexer) run() (c byte, n int) {
	c = l.input[l.pos]
	start := l.pos
	for l.pos < len(l.input) && l.input[l.pos] == c {
		l.pos++
	}
	return c, l.pos - start
}

// quoted consumes a quoted literal. The current position must be at the
// opening quote.
func (l *lexer) quoted() (string, bool) {
	l.pos++
	var lit []byte
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if c != '\'' {
			lit = append(lit, c)
			l.pos++
			continue
		}
		if l.pos+1 < len(l.input) && l.input[l.pos+1] == '\'' {
			lit = append(lit, '\'')
			l.pos += 2
			continue
		}
		l.pos++
		if len(lit) == 0 {
			// '' outside of a literal is a single quote.
			return "'", true
		}
		return string(lit), true
	}
	return "", false
}

func parse(pattern string) (*composite, error) {
	l := &lexer{input: pattern}
	root := new(composite)
	active := root
	var parents []*composite
	padWidth := 0
	add := func(e element) {
		if padWidth > 0 {
			e = &padded{width: padWidth, elem: e}
			padWidth = 0
		}
		active.elems = append(active.elems, e)
	}
	errorf := func(offset int, msg string) error {
		return &FormatError{Pattern: pattern, Offset: offset, Msg: msg}
	}
	for !l.eof() {
		start := l.pos
		switch c := l.input[l.pos]; {
		case isLetter(c):
			c, n := l.run()
			if c == 'p' {
				if l.eof() || !isLetter(l.input[l.pos]) {
					return nil, errorf(start, "pad letter 'p' must be followed by a pattern letter")
				}
				padWidth = n
				start = l.pos
				c, n = l.run()
			}
			e, msg := letter(c, n)
			if msg != "" {
				return nil, errorf(start, msg)
			}
			add(e)
		case c == '\'':
			lit, ok := l.quoted()
			if !ok {
				return nil, errorf(start, "pattern ends with an incomplete string literal")
			}
			add(literal(lit))
		case c == '[':
			l.pos++
			section := &composite{optional: true}
			add(section)
			parents = append(parents, active)
			active = section
		case c == ']':
			if len(parents) == 0 {
				return nil, errorf(start, "']' without previous '['")
			}
			l.pos++
			active = parents[len(parents)-1]
			parents = parents[:len(parents)-1]
		case c == '{' || c == '}' || c == '#':
			return nil, errorf(start, "pattern includes reserved character '"+string(c)+"'")
		default:
			_, size := utf8.DecodeRuneInString(l.input[l.pos:])
			add(literal(l.input[l.pos : l.pos+size]))
			l.pos += size
		}
	}
	return root, nil
}

// letter builds the element for a run of n identical pattern letters. It
// returns a non-empty message if the run is not valid.
func letter(c byte, n int) (element, string) {
	tooMany := "too many pattern letters: " + string(c)
	switch c {
	case 'G':
		if style, ok := textStyleFor(n, 1, 2, 3); ok {
			return &text{f: fieldEra, style: style}, ""
		}
		return nil, tooMany
	case 'u', 'y', 'Y':
		f := fieldYear
		if c == 'y' {
			f = fieldYearOfEra
		} else if c == 'Y' {
			f = fieldWeekBasedYear
		}
		switch {
		case n == 2:
			return reduced{f: f}, ""
		case n < 4:
			return &number{f: f, minWidth: n, maxWidth: 19, sign: signNormal}, ""
		default:
			return &number{f: f, minWidth: n, maxWidth: 19, sign: signExceedsPad}, ""
		}
	case 'M', 'L', 'Q', 'q':
		f := fieldMonth
		if c == 'Q' || c == 'q' {
			f = fieldQuarter
		}
		switch n {
		case 1:
			return &number{f: f, minWidth: 1, maxWidth: 19, sign: signNormal}, ""
		case 2:
			return &number{f: f, minWidth: 2, maxWidth: 2, sign: signNotNegative}, ""
		}
		if style, ok := textStyleFor(n); ok {
			return &text{f: f, style: style}, ""
		}
		return nil, tooMany
	case 'E':
		if style, ok := textStyleFor(n, 1, 2); ok {
			return &text{f: fieldDayOfWeek, style: style}, ""
		}
		return nil, tooMany
	case 'e', 'c':
		switch {
		case n == 1:
			return &number{f: fieldLocalDayOfWeek, minWidth: 1, maxWidth: 2, sign: signNotNegative}, ""
		case n == 2 && c == 'e':
			return &number{f: fieldLocalDayOfWeek, minWidth: 2, maxWidth: 2, sign: signNotNegative}, ""
		case n == 2:
			return nil, `invalid pattern "cc"`
		}
		if style, ok := textStyleFor(n); ok {
			return &text{f: fieldDayOfWeek, style: style}, ""
		}
		return nil, tooMany
	case 'd':
		switch n {
		case 1:
			return &number{f: fieldDayOfMonth, minWidth: 1, maxWidth: 19, sign: signNormal}, ""
		case 2:
			return &number{f: fieldDayOfMonth, minWidth: 2, maxWidth: 2, sign: signNotNegative}, ""
		}
		return nil, tooMany
	case 'D':
		switch n {
		case 1:
			return &number{f: fieldDayOfYear, minWidth: 1, maxWidth: 19, sign: signNormal}, ""
		case 2, 3:
			return &number{f: fieldDayOfYear, minWidth: n, maxWidth: 3, sign: signNotNegative}, ""
		}
		return nil, tooMany
	case 'w', 'W':
		f := fieldWeekOfWeekBasedYear
		maxCount := 2
		if c == 'W' {
			f = fieldWeekOfMonth
			maxCount = 1
		}
		if n > maxCount {
			return nil, tooMany
		}
		return &number{f: f, minWidth: n, maxWidth: 2, sign: signNotNegative}, ""
	case 'F':
		if n == 1 {
			return &number{f: fieldAlignedWeekOfMonth, minWidth: 1, maxWidth: 19, sign: signNormal}, ""
		}
		return &number{f: fieldAlignedWeekOfMonth, minWidth: n, maxWidth: n, sign: signNotNegative}, ""
	case 'g':
		return &number{f: fieldModifiedJulianDay, minWidth: n, maxWidth: 19, sign: signNormal}, ""

	// Time of day.
	case 'a':
		if n > 1 {
			return nil, tooMany
		}
		return unsupported("AmPmOfDay"), ""
	case 'h', 'H', 'k', 'K', 'm', 's':
		if n > 2 {
			return nil, tooMany
		}
		return unsupported(timeFieldNames[c]), ""
	case 'S', 'n':
		return unsupported("NanoOfSecond"), ""
	case 'A':
		return unsupported("MilliOfDay"), ""
	case 'N':
		return unsupported("NanoOfDay"), ""
	case 'B':
		if n != 1 && n != 4 && n != 5 {
			return nil, "wrong number of pattern letters: B"
		}
		return unsupported("DayPeriod"), ""

	// Zones and offsets.
	case 'z':
		if n > 4 {
			return nil, tooMany
		}
		return unsupported("ZoneId"), ""
	case 'V':
		if n != 2 {
			return nil, "pattern letter count must be 2: V"
		}
		return unsupported("ZoneId"), ""
	case 'v':
		if n != 1 && n != 4 {
			return nil, "wrong number of pattern letters: v"
		}
		return unsupported("ZoneId"), ""
	case 'O':
		if n != 1 && n != 4 {
			return nil, "pattern letter count must be 1 or 4: O"
		}
		return unsupported("OffsetSeconds"), ""
	case 'X', 'x', 'Z':
		if n > 5 {
			return nil, tooMany
		}
		return unsupported("OffsetSeconds"), ""
	default:
		return nil, "unknown pattern letter: " + string(c)
	}
}

var timeFieldNames = map[byte]string{
	'h': "ClockHourOfAmPm",
	'H': "HourOfDay",
	'k': "ClockHourOfDay",
	'K': "HourOfAmPm",
	'm': "MinuteOfHour",
	's': "SecondOfMinute",
}

// textStyleFor maps a letter count to a text style. Counts 4 and 5 are
// always full and narrow; shortCounts lists the counts that mean short.
func textStyleFor(n int, shortCounts ...int) (textStyle, bool) {
	switch n {
	case 3:
		return textShort, true
	case 4:
		return textFull, true
	case 5:
		return textNarrow, true
	}
	for _, sc := range shortCounts {
		if n == sc {
			return textShort, true
		}
	}
	return 0, false
}

func isLetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}
