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

package gqlang

import (
	"fmt"
	"strings"

	"golang.org/x/xerrors"
)

type lexer struct {
	input string
	pos   Pos
}

func lex(input string) []token {
	l := &lexer{input: input}
	var tokens []token
	for {
		tok := l.next()
		if tok.source == "" {
			// EOF
			break
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

func (l *lexer) next() token {
	l.skipIgnored()
	start := l.pos
	if len(l.input) == 0 {
		return token{start: start}
	}
	c := l.input[0]
	if kind := punctuatorKind(c); kind != unknown {
		return token{
			kind:   kind,
			source: l.consume(1),
			start:  start,
		}
	}
	switch {
	case strings.HasPrefix(l.input, "..."):
		return token{
			kind:   ellipsis,
			source: l.consume(3),
			start:  start,
		}
	case isNameChar(c):
		n := 1
		for ; n < len(l.input); n++ {
			if c := l.input[n]; !isNameChar(c) && !isDigit(c) {
				break
			}
		}
		return token{
			kind:   name,
			source: l.consume(n),
			start:  start,
		}
	case c == '"':
		if strings.HasPrefix(l.input, `"""`) {
			return l.blockString()
		}
		return l.simpleString()
	case c == '-' || isDigit(c):
		return l.number()
	default:
		return token{
			kind:   unknown,
			source: l.consume(1),
			start:  start,
		}
	}
}

// punctuatorKind returns the kind of the single-byte punctuator c
// or unknown if c does not begin a punctuator on its own.
// https://spec.graphql.org/October2021/#Punctuator
func punctuatorKind(c byte) tokenKind {
	switch c {
	case '!':
		return nonNull
	case '$':
		return dollar
	case '(':
		return lparen
	case ')':
		return rparen
	case ':':
		return colon
	case '=':
		return equals
	case '@':
		return atSign
	case '[':
		return lbracket
	case ']':
		return rbracket
	case '{':
		return lbrace
	case '}':
		return rbrace
	default:
		return unknown
	}
}

// simpleString parses a quoted string.
// https://spec.graphql.org/October2021/#sec-String-Value
func (l *lexer) simpleString() token {
	start := l.pos
	for n := 1; n < len(l.input); n++ {
		switch l.input[n] {
		case '\\':
			n++
		case '\n', '\r':
			// Stop at end of line.
			return token{
				kind:   stringValue,
				source: l.consume(n),
				start:  start,
			}
		case '"':
			return token{
				kind:   stringValue,
				source: l.consume(n + 1),
				start:  start,
			}
		}
	}
	// Unexpected EOF.
	return token{
		kind:   stringValue,
		source: l.consume(len(l.input)),
		start:  start,
	}
}

// blockString parses a triple-quoted string.
// https://spec.graphql.org/October2021/#sec-String-Value
func (l *lexer) blockString() token {
	const marker = `"""`
	start := l.pos
	for i := len(marker); ; {
		j := strings.Index(l.input[i:], marker)
		if j == -1 {
			// Unexpected EOF.
			return token{
				kind:   stringValue,
				source: l.consume(len(l.input)),
				start:  start,
			}
		}
		if l.input[i+j-1] != '\\' {
			return token{
				kind:   stringValue,
				source: l.consume(i + j + len(marker)),
				start:  start,
			}
		}
		// Move past escape.
		i += j + len(marker)
	}
}

// validateStringToken reports malformed string literals: missing closing
// quotes, invalid escapes, and raw control characters.
func validateStringToken(input string, tok token) []error {
	src := tok.source
	if strings.HasPrefix(src, `"""`) {
		if len(src) < 6 || !strings.HasSuffix(src, `"""`) {
			return []error{&posError{
				input: input,
				pos:   tok.end(),
				err:   xerrors.New("unterminated block string"),
			}}
		}
		return nil
	}
	var errs []error
	if len(src) < 2 || !strings.HasSuffix(src, `"`) || strings.HasSuffix(src, `\"`) && !strings.HasSuffix(src, `\\"`) {
		errs = append(errs, &posError{
			input: input,
			pos:   tok.end(),
			err:   xerrors.New("unterminated string"),
		})
	}
	for i := 1; i < len(src)-1; i++ {
		c := src[i]
		if c < 0x20 && c != '\t' {
			errs = append(errs, &posError{
				input: input,
				pos:   tok.start + Pos(i),
				err:   xerrors.Errorf("invalid character %q in string", c),
			})
			continue
		}
		if c != '\\' {
			continue
		}
		i++
		switch src[i] {
		case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
		case 'u':
			if i+5 > len(src) || !isHex(src[i+1:i+5]) {
				errs = append(errs, &posError{
					input: input,
					pos:   tok.start + Pos(i-1),
					err:   xerrors.New("invalid unicode escape in string"),
				})
				continue
			}
			i += 4
		default:
			errs = append(errs, &posError{
				input: input,
				pos:   tok.start + Pos(i-1),
				err:   xerrors.Errorf("invalid escape sequence %q in string", src[i-1:i+1]),
			})
		}
	}
	return errs
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isDigit(c) && !('a' <= c && c <= 'f') && !('A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}

// number parses either an integer or a floating-point literal (both start with an integer).
// https://spec.graphql.org/October2021/#sec-Int-Value
// https://spec.graphql.org/October2021/#sec-Float-Value
func (l *lexer) number() token {
	start := l.pos
	n := 0

	// IntegerPart
	if l.input[0] == '-' {
		n++
	}
	if n >= len(l.input) || !isDigit(l.input[n]) {
		return token{
			kind:   unknown,
			source: l.consume(n),
			start:  start,
		}
	}
	n++
	if l.input[n-1] != '0' {
		for n < len(l.input) && isDigit(l.input[n]) {
			n++
		}
	}

	// ( FractionalPart ( ExponentPart ) ? | ExponentPart ) ?
	if n+1 >= len(l.input) {
		return token{
			kind:   intValue,
			source: l.consume(n),
			start:  start,
		}
	}
	switch l.input[n] {
	case '.':
		if !isDigit(l.input[n+1]) {
			return token{
				kind:   intValue,
				source: l.consume(n),
				start:  start,
			}
		}
		n += 2
		for n < len(l.input) && isDigit(l.input[n]) {
			n++
		}
		if n < len(l.input) && (l.input[n] == 'e' || l.input[n] == 'E') {
			if expEnd := l.scanExponentPart(n); expEnd != -1 {
				n = expEnd
			}
		}
		return token{
			kind:   floatValue,
			source: l.consume(n),
			start:  start,
		}
	case 'e', 'E':
		expEnd := l.scanExponentPart(n)
		if expEnd == -1 {
			return token{
				kind:   intValue,
				source: l.consume(n),
				start:  start,
			}
		}
		return token{
			kind:   floatValue,
			source: l.consume(expEnd),
			start:  start,
		}
	default:
		return token{
			kind:   intValue,
			source: l.consume(n),
			start:  start,
		}
	}
}

func (l *lexer) scanExponentPart(start int) int {
	n := 1 // skip past 'e'
	if start+n >= len(l.input) {
		return -1
	}
	if c := l.input[start+n]; c == '+' || c == '-' {
		n++
		if start+n >= len(l.input) {
			return -1
		}
	}
	if !isDigit(l.input[start+n]) {
		return -1
	}
	n++
	for start+n < len(l.input) && isDigit(l.input[start+n]) {
		n++
	}
	return start + n
}

// skipIgnored skips any ignored tokens.
// https://spec.graphql.org/October2021/#sec-Source-Text.Ignored-Tokens
func (l *lexer) skipIgnored() {
	for len(l.input) > 0 {
		switch l.input[0] {
		case ' ', '\t', '\r', '\n', ',':
			l.consume(1)
		case bom[0]:
			if !strings.HasPrefix(l.input, bom) {
				return
			}
			l.consume(len(bom))
		case '#':
			i := strings.IndexAny(l.input, "\n\r")
			if i == -1 {
				l.consume(len(l.input))
				return
			}
			l.consume(i + 1)
		default:
			return
		}
	}
}

func (l *lexer) consume(n int) string {
	s := l.input[:n]
	l.input = l.input[n:]
	l.pos += Pos(n)
	return s
}

type token struct {
	kind   tokenKind
	source string
	start  Pos
}

func (tok token) String() string {
	if tok.kind == unknown {
		return "<unknown>"
	}
	return tok.source
}

func (tok token) end() Pos {
	return tok.start + Pos(len(tok.source))
}

// A Pos is a 0-based byte offset in a GraphQL document.
type Pos int

// ToPosition converts a byte position into a line and column number.
func (pos Pos) ToPosition(input string) Position {
	line, col := 1, 1
	for i := 0; i < int(pos) && i < len(input); i++ {
		switch input[i] {
		case bom[0]:
			if !strings.HasPrefix(input[i:], bom) {
				col++
				continue
			}
			i += len(bom) - 1
		case '\r':
			if strings.HasPrefix(input[i:], "\r\n") {
				continue
			}
			line++
			col = 1
		case '\n':
			line++
			col = 1
		case '\t':
			const tabWidth = 8
			col++
			for (col-1)%tabWidth != 0 {
				col++
			}
		default:
			col++
		}
	}
	return Position{line, col}
}

// A Position is a line/column pair. Both are 1-based.
// The column is byte-based.
type Position struct {
	Line   int
	Column int
}

// String returns p in the form "line:col".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

type tokenKind int

const (
	unknown tokenKind = iota

	// Punctuators
	nonNull  // '!'
	dollar   // '$'
	lparen   // '('
	rparen   // ')'
	ellipsis // '...'
	colon    // ':'
	equals   // '='
	atSign   // '@'
	lbracket // '['
	rbracket // ']'
	lbrace   // '{'
	rbrace   // '}'

	name
	intValue
	floatValue
	stringValue
)

var punctuatorStrings = map[tokenKind]string{
	nonNull:  "!",
	dollar:   "$",
	lparen:   "(",
	rparen:   ")",
	ellipsis: "...",
	colon:    ":",
	equals:   "=",
	atSign:   "@",
	lbracket: "[",
	rbracket: "]",
	lbrace:   "{",
	rbrace:   "}",
}

func (kind tokenKind) String() string {
	if s, ok := punctuatorStrings[kind]; ok {
		return fmt.Sprintf("'%s'", s)
	}
	switch kind {
	case unknown:
		return "unknown"
	case name:
		return "name"
	case intValue:
		return "intValue"
	case floatValue:
		return "floatValue"
	case stringValue:
		return "stringValue"
	default:
		return fmt.Sprintf("tokenKind(%d)", int(kind))
	}
}

// isNameChar reports whether c could occur at any position in a name.
// https://spec.graphql.org/October2021/#Name
func isNameChar(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || c == '_'
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

const bom = "\ufeff"
