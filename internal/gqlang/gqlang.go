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

// Package gqlang provides a parser for the GraphQL language.
package gqlang

import (
	"fmt"
	"strconv"
	"strings"
)

// Document is a parsed GraphQL source.
// https://spec.graphql.org/October2021/#sec-Language.Document
type Document struct {
	Definitions []*Definition
}

// FindOperation returns the operation with the given name. If name is empty
// and the document contains exactly one operation, then that operation is
// returned. FindOperation returns nil if no operation matches.
func (doc *Document) FindOperation(name string) *Operation {
	var found *Operation
	for _, defn := range doc.Definitions {
		op := defn.Operation
		if op == nil {
			continue
		}
		if name != "" {
			if op.Name.String() == name {
				return op
			}
			continue
		}
		if found != nil {
			return nil
		}
		found = op
	}
	return found
}

// Definition is a top-level GraphQL construct like an operation, a fragment, or
// a type. Only one of its fields will be set.
// https://spec.graphql.org/October2021/#sec-Language.Document
type Definition struct {
	Operation *Operation
	Fragment  *FragmentDefinition
	Type      *TypeDefinition
}

// Start returns the position of the definition's first token.
func (defn *Definition) Start() Pos {
	switch {
	case defn.Operation != nil:
		return defn.Operation.Start
	case defn.Fragment != nil:
		return defn.Fragment.Keyword
	case defn.Type != nil:
		return defn.Type.Start()
	default:
		panic("unknown definition")
	}
}

// Operation is a query, a mutation, or a subscription.
// https://spec.graphql.org/October2021/#sec-Language.Operations
type Operation struct {
	Start               Pos
	Type                OperationType
	Name                *Name
	VariableDefinitions *VariableDefinitions
	Directives          Directives
	SelectionSet        *SelectionSet
}

func (op *Operation) asDefinition() *Definition {
	if op == nil {
		return nil
	}
	return &Definition{Operation: op}
}

// OperationType is one of query, mutation, or subscription.
type OperationType int

// Types of operation.
const (
	Query OperationType = iota
	Mutation
	Subscription
)

// String returns the keyword that corresponds to the operation type.
func (typ OperationType) String() string {
	switch typ {
	case Query:
		return "query"
	case Mutation:
		return "mutation"
	case Subscription:
		return "subscription"
	default:
		return fmt.Sprintf("OperationType(%d)", int(typ))
	}
}

// SelectionSet is the set of information an operation requests.
// https://spec.graphql.org/October2021/#SelectionSet
type SelectionSet struct {
	LBrace Pos
	Sel    []*Selection
	RBrace Pos
}

// A Selection is either a field or a fragment. Only one of its fields will
// be set.
// https://spec.graphql.org/October2021/#sec-Selection-Sets
type Selection struct {
	Field          *Field
	FragmentSpread *FragmentSpread
	InlineFragment *InlineFragment
}

// Directives returns the directives attached to the selection.
func (sel *Selection) Directives() Directives {
	switch {
	case sel.Field != nil:
		return sel.Field.Directives
	case sel.FragmentSpread != nil:
		return sel.FragmentSpread.Directives
	case sel.InlineFragment != nil:
		return sel.InlineFragment.Directives
	default:
		return nil
	}
}

// A Field is a discrete piece of information available to request within a
// selection set.
// https://spec.graphql.org/October2021/#sec-Language.Fields
type Field struct {
	Alias        *Name
	Name         *Name
	Arguments    *Arguments
	Directives   Directives
	SelectionSet *SelectionSet
}

func (f *Field) asSelection() *Selection {
	if f == nil {
		return nil
	}
	return &Selection{Field: f}
}

// Key returns the field's response key: the alias if present, the name
// otherwise.
func (f *Field) Key() *Name {
	if f.Alias != nil {
		return f.Alias
	}
	return f.Name
}

// Start returns the position of the field's first token.
func (f *Field) Start() Pos {
	return f.Key().Start
}

// End returns the byte offset after the end of the field.
func (f *Field) End() Pos {
	if f.SelectionSet != nil {
		return f.SelectionSet.RBrace + 1
	}
	if n := len(f.Directives); n > 0 {
		return f.Directives[n-1].End()
	}
	if f.Arguments != nil {
		return f.Arguments.RParen + 1
	}
	return f.Name.End()
}

// FragmentSpread inserts the named fragment's selections.
// https://spec.graphql.org/October2021/#FragmentSpread
type FragmentSpread struct {
	Ellipsis   Pos
	Name       *Name
	Directives Directives
}

func (spread *FragmentSpread) asSelection() *Selection {
	if spread == nil {
		return nil
	}
	return &Selection{FragmentSpread: spread}
}

// InlineFragment is an anonymous fragment inside a selection set.
// https://spec.graphql.org/October2021/#InlineFragment
type InlineFragment struct {
	Ellipsis     Pos
	Type         *TypeCondition
	Directives   Directives
	SelectionSet *SelectionSet
}

func (frag *InlineFragment) asSelection() *Selection {
	if frag == nil {
		return nil
	}
	return &Selection{InlineFragment: frag}
}

// FragmentDefinition is a named, reusable selection set.
// https://spec.graphql.org/October2021/#FragmentDefinition
type FragmentDefinition struct {
	Keyword      Pos
	Name         *Name
	Type         *TypeCondition
	Directives   Directives
	SelectionSet *SelectionSet
}

func (defn *FragmentDefinition) asDefinition() *Definition {
	if defn == nil {
		return nil
	}
	return &Definition{Fragment: defn}
}

// TypeCondition restricts a fragment to a type.
// https://spec.graphql.org/October2021/#TypeCondition
type TypeCondition struct {
	On   Pos
	Name *Name
}

// Directives is a list of directives attached to a construct.
// https://spec.graphql.org/October2021/#sec-Language.Directives
type Directives []*Directive

// ByName returns the first directive with the given name or nil if none
// is present.
func (ds Directives) ByName(name string) *Directive {
	for _, d := range ds {
		if d.Name.Value == name {
			return d
		}
	}
	return nil
}

// Directive is a single annotation such as @skip(if: true).
type Directive struct {
	At        Pos
	Name      *Name
	Arguments *Arguments
}

// End returns the byte offset after the end of the directive.
func (d *Directive) End() Pos {
	if d.Arguments != nil {
		return d.Arguments.RParen + 1
	}
	return d.Name.End()
}

// Arguments is a set of named arguments on a field.
// https://spec.graphql.org/October2021/#sec-Language.Arguments
type Arguments struct {
	LParen Pos
	Args   []*Argument
	RParen Pos
}

// ByName returns the first argument with the given name or nil if not found.
// ByName returns nil if args is nil.
func (args *Arguments) ByName(name string) *Argument {
	if args == nil {
		return nil
	}
	for _, arg := range args.Args {
		if arg.Name.Value == name {
			return arg
		}
	}
	return nil
}

// IdenticalTo reports whether two argument lists name the same arguments
// with the same values, regardless of order.
func (args *Arguments) IdenticalTo(other *Arguments) bool {
	var n, m int
	if args != nil {
		n = len(args.Args)
	}
	if other != nil {
		m = len(other.Args)
	}
	if n != m {
		return false
	}
	if n == 0 {
		return true
	}
	for _, arg := range args.Args {
		match := other.ByName(arg.Name.Value)
		if match == nil || match.Value.String() != arg.Value.String() {
			return false
		}
	}
	return true
}

// Argument is a single element in Arguments.
// https://spec.graphql.org/October2021/#sec-Language.Arguments
type Argument struct {
	Name  *Name
	Colon Pos
	Value *InputValue
}

// An InputValue is a literal or a variable reference. Only one of its fields
// will be set.
// https://spec.graphql.org/October2021/#sec-Input-Values
type InputValue struct {
	Null        *Name
	Scalar      *ScalarValue
	VariableRef *Variable
	List        *ListValue
	InputObject *InputObjectValue
}

// Start returns the position of the value's first token.
func (ival *InputValue) Start() Pos {
	switch {
	case ival.Null != nil:
		return ival.Null.Start
	case ival.Scalar != nil:
		return ival.Scalar.Start
	case ival.VariableRef != nil:
		return ival.VariableRef.Dollar
	case ival.List != nil:
		return ival.List.LBracket
	case ival.InputObject != nil:
		return ival.InputObject.LBrace
	default:
		panic("unknown input value")
	}
}

// String returns the value formatted as GraphQL source.
func (ival *InputValue) String() string {
	switch {
	case ival == nil:
		return ""
	case ival.Null != nil:
		return "null"
	case ival.Scalar != nil:
		return ival.Scalar.Raw
	case ival.VariableRef != nil:
		return ival.VariableRef.String()
	case ival.List != nil:
		sb := new(strings.Builder)
		sb.WriteByte('[')
		for i, v := range ival.List.Values {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(v.String())
		}
		sb.WriteByte(']')
		return sb.String()
	case ival.InputObject != nil:
		sb := new(strings.Builder)
		sb.WriteByte('{')
		for i, f := range ival.InputObject.Fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(f.Name.Value)
			sb.WriteString(": ")
			sb.WriteString(f.Value.String())
		}
		sb.WriteByte('}')
		return sb.String()
	default:
		return "<invalid>"
	}
}

// ListValue is a bracketed list literal.
// https://spec.graphql.org/October2021/#sec-List-Value
type ListValue struct {
	LBracket Pos
	Values   []*InputValue
	RBracket Pos
}

// InputObjectValue is a braced input object literal.
// https://spec.graphql.org/October2021/#sec-Input-Object-Values
type InputObjectValue struct {
	LBrace Pos
	Fields []*InputObjectField
	RBrace Pos
}

// InputObjectField is a single name/value pair in an InputObjectValue.
type InputObjectField struct {
	Name  *Name
	Colon Pos
	Value *InputValue
}

// ScalarValue is a primitive literal like a string or integer.
type ScalarValue struct {
	Start Pos
	Type  ScalarType
	Raw   string
}

// String returns sval.Raw.
func (sval *ScalarValue) String() string {
	return sval.Raw
}

// Value converts the raw scalar into a string.
func (sval *ScalarValue) Value() string {
	return unquote(sval.Raw)
}

func unquote(raw string) string {
	switch {
	case strings.HasPrefix(raw, `"""`):
		return unquoteBlockString(raw)
	case strings.HasPrefix(raw, `"`):
		return unquoteString(raw)
	default:
		return raw
	}
}

func unquoteString(raw string) string {
	raw = strings.TrimPrefix(raw, `"`)
	raw = strings.TrimSuffix(raw, `"`)
	sb := new(strings.Builder)
	sb.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++ // skip past backslash
		switch raw[i] {
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'u':
			if i+5 > len(raw) {
				sb.WriteRune('�')
				i = len(raw)
				continue
			}
			codePoint, err := strconv.ParseUint(raw[i+1:i+5], 16, 16)
			i += 4
			if err != nil {
				sb.WriteRune('�') // Unicode replacement character
				continue
			}
			sb.WriteRune(rune(codePoint))
		default:
			sb.WriteByte(raw[i])
		}
	}
	return sb.String()
}

func unquoteBlockString(raw string) string {
	raw = strings.TrimPrefix(raw, `"""`)
	raw = strings.TrimSuffix(raw, `"""`)
	raw = strings.ReplaceAll(raw, `\"""`, `"""`)
	lines := splitLines(raw)
	if len(lines) == 0 {
		return ""
	}

	// Eliminate common indentation.
	commonIndent := -1
	for _, line := range lines[1:] {
		indent := countLeadingWhitespace(line)
		if indent < len(line) && (commonIndent == -1 || indent < commonIndent) {
			commonIndent = indent
		}
	}
	if commonIndent != -1 {
		for i := 1; i < len(lines); i++ {
			if commonIndent < len(lines[i]) {
				lines[i] = lines[i][commonIndent:]
			} else {
				lines[i] = ""
			}
		}
	}

	// Strip leading and trailing blank lines.
	for len(lines) > 0 && countLeadingWhitespace(lines[0]) == len(lines[0]) {
		lines = lines[1:]
	}
	for len(lines) > 0 && countLeadingWhitespace(lines[len(lines)-1]) == len(lines[len(lines)-1]) {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

func splitLines(s string) []string {
	lineStart := 0
	var lines []string
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\r':
			lines = append(lines, s[lineStart:i])
			if i+1 < len(s) && s[i+1] == '\n' {
				// CRLF, advance.
				i++
			}
			lineStart = i + 1
		case '\n':
			lines = append(lines, s[lineStart:i])
			lineStart = i + 1
		}
	}
	if lineStart < len(s) {
		lines = append(lines, s[lineStart:])
	}
	return lines
}

func countLeadingWhitespace(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] != ' ' && s[i] != '\t' {
			return i
		}
	}
	return len(s)
}

// ScalarType indicates the type of a ScalarValue.
type ScalarType int

// Scalar types.
const (
	StringScalar ScalarType = iota
	BooleanScalar
	EnumScalar
	IntScalar
	FloatScalar
)

// A Variable is an input to a GraphQL operation.
// https://spec.graphql.org/October2021/#Variable
type Variable struct {
	Dollar Pos
	Name   *Name
}

// String returns the variable in the form "$foo".
func (v *Variable) String() string {
	if v == nil {
		return ""
	}
	return "$" + v.Name.String()
}

// DefaultValue specifies the default value of an input.
// https://spec.graphql.org/October2021/#DefaultValue
type DefaultValue struct {
	Eq    Pos
	Value *InputValue
}

// VariableDefinitions is the set of variables an operation defines.
// https://spec.graphql.org/October2021/#Variable
type VariableDefinitions struct {
	LParen Pos
	Defs   []*VariableDefinition
	RParen Pos
}

// VariableDefinition is an element of VariableDefinitions.
// https://spec.graphql.org/October2021/#Variable
type VariableDefinition struct {
	Var     *Variable
	Colon   Pos
	Type    *TypeRef
	Default *DefaultValue
}

// A Name is an identifier.
// https://spec.graphql.org/October2021/#sec-Names
type Name struct {
	Value string
	Start Pos
}

// End returns the position of the byte after the last character of the name.
func (n *Name) End() Pos {
	return n.Start + Pos(len(n.Value))
}

// String returns the name or the empty string if the name is nil.
func (n *Name) String() string {
	if n == nil {
		return ""
	}
	return n.Value
}

// A TypeRef is a named type, a list type, or a non-null type.
// https://spec.graphql.org/October2021/#Type
type TypeRef struct {
	Named   *Name
	List    *ListType
	NonNull *NonNullType
}

// Start returns the position of the type reference's first token.
func (ref *TypeRef) Start() Pos {
	switch {
	case ref.Named != nil:
		return ref.Named.Start
	case ref.List != nil:
		return ref.List.LBracket
	case ref.NonNull != nil && ref.NonNull.Named != nil:
		return ref.NonNull.Named.Start
	case ref.NonNull != nil && ref.NonNull.List != nil:
		return ref.NonNull.List.LBracket
	default:
		panic("unrecognized type reference form")
	}
}

// String returns the type reference as it would appear in source,
// like "[Int!]".
func (ref *TypeRef) String() string {
	switch {
	case ref == nil:
		return "<nil>"
	case ref.Named != nil:
		return ref.Named.Value
	case ref.List != nil:
		return "[" + ref.List.Type.String() + "]"
	case ref.NonNull != nil && ref.NonNull.Named != nil:
		return ref.NonNull.Named.Value + "!"
	case ref.NonNull != nil && ref.NonNull.List != nil:
		return "[" + ref.NonNull.List.Type.String() + "]!"
	default:
		return "<invalid>"
	}
}

// ListType declares a homogenous sequence of another type.
// https://spec.graphql.org/October2021/#ListType
type ListType struct {
	LBracket Pos
	Type     *TypeRef
	RBracket Pos
}

// NonNullType declares a named or list type that cannot be null.
// https://spec.graphql.org/October2021/#Type
type NonNullType struct {
	Named *Name
	List  *ListType
	Pos   Pos
}

// A Description is a string that documents a type system definition.
// https://spec.graphql.org/October2021/#Description
type Description struct {
	Start Pos
	Raw   string
}

// Value returns the description's text or the empty string if d is nil.
func (d *Description) Value() string {
	if d == nil {
		return ""
	}
	return unquote(d.Raw)
}

// TypeDefinition holds a type definition.
// https://spec.graphql.org/October2021/#TypeDefinition
type TypeDefinition struct {
	// One of the following must be non-nil:

	Scalar      *ScalarTypeDefinition
	Object      *ObjectTypeDefinition
	Enum        *EnumTypeDefinition
	InputObject *InputObjectTypeDefinition
}

// Start returns the position of the type definition's first token.
func (defn *TypeDefinition) Start() Pos {
	if d := defn.Description(); d != nil {
		return d.Start
	}
	switch {
	case defn.Scalar != nil:
		return defn.Scalar.Keyword
	case defn.Object != nil:
		return defn.Object.Keyword
	case defn.Enum != nil:
		return defn.Enum.Keyword
	case defn.InputObject != nil:
		return defn.InputObject.Keyword
	default:
		panic("unknown type definition")
	}
}

// Description returns the type definition's description or nil if it does not
// have one.
func (defn *TypeDefinition) Description() *Description {
	switch {
	case defn == nil:
		return nil
	case defn.Scalar != nil:
		return defn.Scalar.Description
	case defn.Object != nil:
		return defn.Object.Description
	case defn.Enum != nil:
		return defn.Enum.Description
	case defn.InputObject != nil:
		return defn.InputObject.Description
	default:
		return nil
	}
}

// Name returns the type definition's name.
func (defn *TypeDefinition) Name() *Name {
	switch {
	case defn == nil:
		return nil
	case defn.Scalar != nil:
		return defn.Scalar.Name
	case defn.Object != nil:
		return defn.Object.Name
	case defn.Enum != nil:
		return defn.Enum.Name
	case defn.InputObject != nil:
		return defn.InputObject.Name
	default:
		return nil
	}
}

func (defn *TypeDefinition) asDefinition() *Definition {
	return &Definition{Type: defn}
}

// ScalarTypeDefinition names a scalar type.
// https://spec.graphql.org/October2021/#ScalarTypeDefinition
type ScalarTypeDefinition struct {
	Description *Description
	Keyword     Pos
	Name        *Name
}

func (defn *ScalarTypeDefinition) asTypeDefinition() *TypeDefinition {
	if defn == nil {
		return nil
	}
	return &TypeDefinition{Scalar: defn}
}

// ObjectTypeDefinition names an output object type.
// https://spec.graphql.org/October2021/#ObjectTypeDefinition
type ObjectTypeDefinition struct {
	Description *Description
	Keyword     Pos
	Name        *Name
	Fields      *FieldsDefinition
}

func (defn *ObjectTypeDefinition) asTypeDefinition() *TypeDefinition {
	if defn == nil {
		return nil
	}
	return &TypeDefinition{Object: defn}
}

// FieldsDefinition is the list of fields in an ObjectTypeDefinition.
// https://spec.graphql.org/October2021/#FieldsDefinition
type FieldsDefinition struct {
	LBrace Pos
	Defs   []*FieldDefinition
	RBrace Pos
}

// FieldDefinition specifies a single field in an ObjectTypeDefinition.
// https://spec.graphql.org/October2021/#FieldsDefinition
type FieldDefinition struct {
	Description *Description
	Name        *Name
	Args        *ArgumentsDefinition
	Colon       Pos
	Type        *TypeRef
	Directives  Directives
}

// ArgumentsDefinition specifies the arguments for a FieldDefinition.
// https://spec.graphql.org/October2021/#ArgumentsDefinition
type ArgumentsDefinition struct {
	LParen Pos
	Args   []*InputValueDefinition
	RParen Pos
}

// EnumTypeDefinition names an enumerated type.
// https://spec.graphql.org/October2021/#EnumTypeDefinition
type EnumTypeDefinition struct {
	Description *Description
	Keyword     Pos
	Name        *Name
	Values      *EnumValuesDefinition
}

func (defn *EnumTypeDefinition) asTypeDefinition() *TypeDefinition {
	if defn == nil {
		return nil
	}
	return &TypeDefinition{Enum: defn}
}

// EnumValuesDefinition is the list of values in an EnumTypeDefinition.
// https://spec.graphql.org/October2021/#EnumValuesDefinition
type EnumValuesDefinition struct {
	LBrace Pos
	Values []*EnumValueDefinition
	RBrace Pos
}

// EnumValueDefinition is a single symbol in an EnumValuesDefinition.
// https://spec.graphql.org/October2021/#EnumValueDefinition
type EnumValueDefinition struct {
	Description *Description
	Value       *Name
	Directives  Directives
}

// InputObjectTypeDefinition names an input object type.
// https://spec.graphql.org/October2021/#InputObjectTypeDefinition
type InputObjectTypeDefinition struct {
	Description *Description
	Keyword     Pos
	Name        *Name
	Fields      *InputFieldsDefinition
}

func (defn *InputObjectTypeDefinition) asTypeDefinition() *TypeDefinition {
	if defn == nil {
		return nil
	}
	return &TypeDefinition{InputObject: defn}
}

// InputFieldsDefinition is the list of fields in an InputObjectTypeDefinition.
// https://spec.graphql.org/October2021/#InputFieldsDefinition
type InputFieldsDefinition struct {
	LBrace Pos
	Defs   []*InputValueDefinition
	RBrace Pos
}

// InputValueDefinition specifies an argument in a FieldDefinition or a field
// in an InputObjectTypeDefinition.
// https://spec.graphql.org/October2021/#InputValueDefinition
type InputValueDefinition struct {
	Description *Description
	Name        *Name
	Colon       Pos
	Type        *TypeRef
	Default     *DefaultValue
}
