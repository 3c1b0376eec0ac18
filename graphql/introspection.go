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

package graphql

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"sync"
)

// Predefined introspection field names.
const (
	typeByNameFieldName = "__type"
	schemaFieldName     = "__schema"
	typeNameFieldName   = "__typename"
)

// schemaType returns the built-in __Schema type.
func schemaType() *gqlType {
	return introspectionSchema().types["__Schema"]
}

// typeType returns the built-in __Type type.
func typeType() *gqlType {
	return introspectionSchema().types["__Type"]
}

func typeNameField() *objectTypeField {
	return &objectTypeField{
		name: typeNameFieldName,
		typ:  stringType.toNonNullable(),
	}
}

func typeByNameField() *objectTypeField {
	return &objectTypeField{
		name: typeByNameFieldName,
		typ:  typeType(),
		args: []inputValueDefinition{
			{
				name:         "name",
				defaultValue: Value{typ: stringType.toNonNullable()},
			},
		},
	}
}

func schemaField() *objectTypeField {
	return &objectTypeField{
		name: schemaFieldName,
		typ:  schemaType().toNonNullable(),
	}
}

// schemaObject is a representation of __Schema.
type schemaObject struct {
	Types            []*gqlType
	QueryType        *gqlType
	MutationType     *gqlType
	SubscriptionType *gqlType
	Directives       []*directiveDefinition
}

// introspectSchema implements the "__schema" field at the root of a query.
func (schema *Schema) introspectSchema(ctx context.Context, field *SelectedField) (Value, []error) {
	s := &schemaObject{
		Types:        make([]*gqlType, 0, len(schema.typeOrder)),
		QueryType:    schema.query,
		MutationType: schema.mutation,
		Directives:   builtinDirectives,
	}
	for _, name := range schema.typeOrder {
		s.Types = append(s.Types, schema.types[name])
	}
	return schema.fieldValueFromGo(ctx, reflect.ValueOf(s), field)
}

// introspectType implements the "__type" field at the root of a query.
func (schema *Schema) introspectType(ctx context.Context, field *SelectedField) (Value, []error) {
	typ := schema.types[field.Arg("name").Scalar()]
	if typ == nil {
		// Not found; return null.
		return Value{typ: field.typ()}, nil
	}
	return schema.fieldValueFromGo(ctx, reflect.ValueOf(typ), field)
}

// Kind returns the __TypeKind of the type.
func (typ *gqlType) Kind() string {
	switch {
	case typ.nonNull:
		return "NON_NULL"
	case typ.isList():
		return "LIST"
	case typ.isScalar():
		return "SCALAR"
	case typ.isEnum():
		return "ENUM"
	case typ.isObject():
		return "OBJECT"
	case typ.isInputObject():
		return "INPUT_OBJECT"
	default:
		panic("unknown type kind")
	}
}

// Name returns the name of a named type or nil for wrapping types.
func (typ *gqlType) Name() *string {
	if typ.nonNull || typ.isList() {
		return nil
	}
	name := typ.String()
	return &name
}

func (typ *gqlType) Description() *string {
	if typ.nonNull || typ.isList() {
		return nil
	}
	return optionalString(typ.description)
}

func (typ *gqlType) Fields(args map[string]Value) []*objectTypeField {
	if typ.nonNull || !typ.isObject() {
		return nil
	}
	includeDeprecated := args["includeDeprecated"].Boolean()
	fields := make([]*objectTypeField, 0, len(typ.obj.fields))
	for _, f := range typ.obj.fields {
		if !f.deprecated || includeDeprecated {
			fields = append(fields, f)
		}
	}
	return fields
}

// Interfaces always returns an empty list for objects, since interfaces
// cannot be declared.
func (typ *gqlType) Interfaces() []*gqlType {
	if typ.nonNull || !typ.isObject() {
		return nil
	}
	return []*gqlType{}
}

func (typ *gqlType) PossibleTypes() []*gqlType {
	return nil
}

func (typ *gqlType) EnumValues(args map[string]Value) []enumValue {
	if typ.nonNull || !typ.isEnum() {
		return nil
	}
	includeDeprecated := args["includeDeprecated"].Boolean()
	values := make([]enumValue, 0, len(typ.enum.values))
	for _, v := range typ.enum.values {
		if !v.deprecated || includeDeprecated {
			values = append(values, v)
		}
	}
	return values
}

func (typ *gqlType) InputFields() []inputValueDefinition {
	if typ.nonNull || !typ.isInputObject() {
		return nil
	}
	return append([]inputValueDefinition{}, typ.input.fields...)
}

func (typ *gqlType) OfType() *gqlType {
	switch {
	case typ.nonNull:
		return typ.toNullable()
	case typ.isList():
		return typ.listElem
	default:
		return nil
	}
}

func (f *objectTypeField) Name() string {
	return f.name
}

func (f *objectTypeField) Description() *string {
	return optionalString(f.description)
}

func (f *objectTypeField) Args() []inputValueDefinition {
	return append([]inputValueDefinition{}, f.args...)
}

func (f *objectTypeField) Type() *gqlType {
	return f.typ
}

func (f *objectTypeField) IsDeprecated() bool {
	return f.deprecated
}

func (f *objectTypeField) DeprecationReason() *string {
	if !f.deprecated {
		return nil
	}
	return &f.deprecationReason
}

func (v enumValue) Name() string {
	return v.name
}

func (v enumValue) Description() *string {
	return optionalString(v.description)
}

func (v enumValue) IsDeprecated() bool {
	return v.deprecated
}

func (v enumValue) DeprecationReason() *string {
	if !v.deprecated {
		return nil
	}
	return &v.deprecationReason
}

func (ivd inputValueDefinition) Name() string {
	return ivd.name
}

func (ivd inputValueDefinition) Description() *string {
	return optionalString(ivd.description)
}

func (ivd inputValueDefinition) Type() *gqlType {
	return ivd.typ()
}

// DefaultValue returns the default formatted as a GraphQL literal or nil if
// the input value has no default.
func (ivd inputValueDefinition) DefaultValue() *string {
	if ivd.defaultValue.IsNull() {
		return nil
	}
	sb := new(strings.Builder)
	writeLiteral(sb, ivd.defaultValue)
	s := sb.String()
	return &s
}

// writeLiteral formats v in GraphQL input syntax.
func writeLiteral(sb *strings.Builder, v Value) {
	switch val := v.val.(type) {
	case nil:
		sb.WriteString("null")
	case string:
		if t := v.typ.toNullable(); t == stringType || t == idType {
			quoted, _ := json.Marshal(val)
			sb.Write(quoted)
		} else {
			sb.WriteString(val)
		}
	case []Value:
		sb.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeLiteral(sb, elem)
		}
		sb.WriteByte(']')
	case map[string]Value:
		sb.WriteByte('{')
		first := true
		for _, defn := range v.typ.toNullable().input.fields {
			fv, ok := val[defn.name]
			if !ok {
				continue
			}
			if !first {
				sb.WriteString(", ")
			}
			first = false
			sb.WriteString(defn.name)
			sb.WriteString(": ")
			writeLiteral(sb, fv)
		}
		sb.WriteByte('}')
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Predefined directive names.
const (
	skipDirectiveName       = "skip"
	includeDirectiveName    = "include"
	deprecatedDirectiveName = "deprecated"
)

// directiveDefinition is a representation of __Directive.
type directiveDefinition struct {
	Name        string
	Description string
	Locations   []string
	Args        []inputValueDefinition
}

// builtinDirectives are the only directives a document may use.
var builtinDirectives = []*directiveDefinition{
	{
		Name:        skipDirectiveName,
		Description: "Directs the executor to skip this field or fragment when the `if` argument is true.",
		Locations:   []string{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
		Args: []inputValueDefinition{{
			name:         "if",
			description:  "Skipped when true.",
			defaultValue: Value{typ: booleanType.toNonNullable()},
		}},
	},
	{
		Name:        includeDirectiveName,
		Description: "Directs the executor to include this field or fragment only when the `if` argument is true.",
		Locations:   []string{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
		Args: []inputValueDefinition{{
			name:         "if",
			description:  "Included when true.",
			defaultValue: Value{typ: booleanType.toNonNullable()},
		}},
	},
	{
		Name:        deprecatedDirectiveName,
		Description: "Marks an element of a GraphQL schema as no longer supported.",
		Locations:   []string{"FIELD_DEFINITION", "ENUM_VALUE"},
		Args: []inputValueDefinition{{
			name:         "reason",
			description:  "Explains why this element was deprecated.",
			defaultValue: Value{typ: stringType, val: defaultDeprecationReason},
		}},
	},
}

func findDirective(name string) *directiveDefinition {
	for _, d := range builtinDirectives {
		if d.Name == name {
			return d
		}
	}
	return nil
}

var introspect struct {
	sync.Once
	schema *Schema
	err    error
}

func introspectionSchema() *Schema {
	// https://spec.graphql.org/October2021/#sec-Schema-Introspection
	introspect.Once.Do(func() {
		introspect.schema, introspect.err = parseSchema(`
type __Schema {
  types: [__Type!]!
  queryType: __Type!
  mutationType: __Type
  subscriptionType: __Type
  directives: [__Directive!]!
}

type __Type {
  kind: __TypeKind!
  name: String
  description: String

  # OBJECT and INTERFACE only
  fields(includeDeprecated: Boolean = false): [__Field!]

  # OBJECT only
  interfaces: [__Type!]

  # INTERFACE and UNION only
  possibleTypes: [__Type!]

  # ENUM only
  enumValues(includeDeprecated: Boolean = false): [__EnumValue!]

  # INPUT_OBJECT only
  inputFields: [__InputValue!]

  # NON_NULL and LIST only
  ofType: __Type
}

type __Field {
  name: String!
  description: String
  args: [__InputValue!]!
  type: __Type!
  isDeprecated: Boolean!
  deprecationReason: String
}

type __InputValue {
  name: String!
  description: String
  type: __Type!
  defaultValue: String
}

type __EnumValue {
  name: String!
  description: String
  isDeprecated: Boolean!
  deprecationReason: String
}

enum __TypeKind {
  SCALAR
  OBJECT
  INTERFACE
  UNION
  ENUM
  INPUT_OBJECT
  LIST
  NON_NULL
}

type __Directive {
  name: String!
  description: String
  locations: [__DirectiveLocation!]!
  args: [__InputValue!]!
}

enum __DirectiveLocation {
  QUERY
  MUTATION
  SUBSCRIPTION
  FIELD
  FRAGMENT_DEFINITION
  FRAGMENT_SPREAD
  INLINE_FRAGMENT
  SCHEMA
  SCALAR
  OBJECT
  FIELD_DEFINITION
  ARGUMENT_DEFINITION
  INTERFACE
  UNION
  ENUM
  ENUM_VALUE
  INPUT_OBJECT
  INPUT_FIELD_DEFINITION
}
		`, true)
	})
	if introspect.err != nil {
		panic(introspect.err)
	}
	return introspect.schema
}
