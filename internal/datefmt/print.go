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
	"bytes"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/xerrors"
)

type element interface {
	print(buf *bytes.Buffer, d *date) error
}

// composite is a sequence of elements. An optional composite prints nothing
// when one of its elements asks for a field the date does not have.
type composite struct {
	elems    []element
	optional bool
}

func (c *composite) print(buf *bytes.Buffer, d *date) error {
	mark := buf.Len()
	for _, e := range c.elems {
		if err := e.print(buf, d); err != nil {
			var ue unsupportedFieldError
			if c.optional && xerrors.As(err, &ue) {
				buf.Truncate(mark)
				return nil
			}
			return err
		}
	}
	return nil
}

type literal string

func (lit literal) print(buf *bytes.Buffer, d *date) error {
	buf.WriteString(string(lit))
	return nil
}

type signStyle int8

const (
	signNormal signStyle = iota
	signNotNegative
	signExceedsPad
)

type number struct {
	f        field
	minWidth int
	maxWidth int
	sign     signStyle
}

func (n *number) print(buf *bytes.Buffer, d *date) error {
	v := d.get(n.f)
	abs := uint64(v)
	if v < 0 {
		abs = uint64(-v)
	}
	s := strconv.FormatUint(abs, 10)
	if len(s) > n.maxWidth {
		return xerrors.Errorf("field %v cannot be printed as the value %d exceeds the maximum print width of %d", n.f, v, n.maxWidth)
	}
	switch {
	case v < 0 && n.sign == signNotNegative:
		return xerrors.Errorf("field %v cannot be printed as the value %d cannot be negative", n.f, v)
	case v < 0:
		buf.WriteByte('-')
	case n.sign == signExceedsPad && n.minWidth < 19 && abs >= pow10(n.minWidth):
		buf.WriteByte('+')
	}
	for i := len(s); i < n.minWidth; i++ {
		buf.WriteByte('0')
	}
	buf.WriteString(s)
	return nil
}

func pow10(n int) uint64 {
	p := uint64(1)
	for i := 0; i < n; i++ {
		p *= 10
	}
	return p
}

// reduced prints the last two digits of a year.
type reduced struct {
	f field
}

func (r reduced) print(buf *bytes.Buffer, d *date) error {
	v := d.get(r.f)
	if v < 0 {
		v = -v
	}
	v %= 100
	if v < 10 {
		buf.WriteByte('0')
	}
	buf.WriteString(strconv.FormatInt(v, 10))
	return nil
}

type textStyle int8

const (
	textShort textStyle = iota
	textFull
	textNarrow
)

type text struct {
	f     field
	style textStyle
}

func (t *text) print(buf *bytes.Buffer, d *date) error {
	var full, short string
	switch t.f {
	case fieldEra:
		if d.get(fieldEra) == 1 {
			full, short = "Anno Domini", "AD"
		} else {
			full, short = "Before Christ", "BC"
		}
	case fieldMonth:
		full = d.month.String()
		short = full[:3]
	case fieldDayOfWeek:
		full = d.t.Weekday().String()
		short = full[:3]
	case fieldQuarter:
		q := d.get(fieldQuarter)
		full = quarterNames[q-1]
		short = "Q" + strconv.FormatInt(q, 10)
		if t.style == textNarrow {
			buf.WriteString(strconv.FormatInt(q, 10))
			return nil
		}
	default:
		return xerrors.Errorf("field %v has no text form", t.f)
	}
	switch t.style {
	case textFull:
		buf.WriteString(full)
	case textNarrow:
		buf.WriteString(short[:1])
	default:
		buf.WriteString(short)
	}
	return nil
}

var quarterNames = [4]string{"1st quarter", "2nd quarter", "3rd quarter", "4th quarter"}

// padded left-pads the output of an element with spaces.
type padded struct {
	width int
	elem  element
}

func (p *padded) print(buf *bytes.Buffer, d *date) error {
	start := buf.Len()
	if err := p.elem.print(buf, d); err != nil {
		return err
	}
	n := utf8.RuneCount(buf.Bytes()[start:])
	if n > p.width {
		return xerrors.Errorf("cannot print as output of %d characters exceeds pad width of %d", n, p.width)
	}
	if n == p.width {
		return nil
	}
	out := string(buf.Bytes()[start:])
	buf.Truncate(start)
	buf.WriteString(strings.Repeat(" ", p.width-n))
	buf.WriteString(out)
	return nil
}

// unsupported is a time-of-day or zone field, which a date never has.
type unsupported string

func (u unsupported) print(buf *bytes.Buffer, d *date) error {
	return unsupportedFieldError{name: string(u)}
}

type unsupportedFieldError struct {
	name string
}

func (e unsupportedFieldError) Error() string {
	return "unsupported field: " + e.name
}
