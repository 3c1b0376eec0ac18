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
	"fmt"
	"sort"
	"strings"

	"golang.org/x/xerrors"
	"zombiezen.com/go/relativity/internal/gqlang"
)

// Schema is a parsed set of type definitions with resolvers attached.
// It is safe to use from multiple goroutines.
type Schema struct {
	name      string
	query     *gqlType
	mutation  *gqlType
	types     map[string]*gqlType
	typeOrder []string
	bindings  Bindings
}

// FieldCoordinate names a field on an object type.
type FieldCoordinate struct {
	Type  string
	Field string
}

// String returns the coordinate in the form "Type.field".
func (c FieldCoordinate) String() string {
	return c.Type + "." + c.Field
}

// Bindings maps field coordinates to the functions that resolve them.
type Bindings map[FieldCoordinate]ResolveFunc

func (b Bindings) coordinates() []FieldCoordinate {
	coords := make([]FieldCoordinate, 0, len(b))
	for c := range b {
		coords = append(coords, c)
	}
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].Type != coords[j].Type {
			return coords[i].Type < coords[j].Type
		}
		return coords[i].Field < coords[j].Field
	})
	return coords
}

// SchemaError is returned by LoadSchema when a schema document cannot be
// turned into an executable schema.
type SchemaError struct {
	// Source is the name of the schema document.
	Source string
	Err    error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("load schema %s: %v", e.Source, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// LoadSchema parses a GraphQL schema document and attaches the resolvers in
// bindings. The name is used in error messages. Every binding must name a
// field declared on an object type in the document. The bindings map must not
// be modified after LoadSchema returns.
func LoadSchema(name, source string, bindings Bindings) (*Schema, error) {
	schema, err := parseSchema(source, false)
	if err != nil {
		return nil, &SchemaError{Source: name, Err: err}
	}
	if err := schema.checkBindings(bindings); err != nil {
		return nil, &SchemaError{Source: name, Err: err}
	}
	schema.name = name
	schema.bindings = bindings
	return schema, nil
}

// ParseSchema parses a GraphQL document containing type definitions.
// The returned schema has no bindings.
func ParseSchema(source string) (*Schema, error) {
	return parseSchema(source, false)
}

// Name returns the name the schema was loaded with.
func (schema *Schema) Name() string {
	return schema.name
}

// IsBound reports whether the field at the given coordinate has a resolver.
func (schema *Schema) IsBound(c FieldCoordinate) bool {
	return schema.bindings[c] != nil
}

func (schema *Schema) checkBindings(bindings Bindings) error {
	for _, c := range bindings.coordinates() {
		if bindings[c] == nil {
			return xerrors.Errorf("bind %v: nil resolver", c)
		}
		typ := schema.types[c.Type]
		if typ == nil || strings.HasPrefix(c.Type, reservedPrefix) {
			return xerrors.Errorf("bind %v: undefined type %s", c, c.Type)
		}
		if !typ.isObject() {
			return xerrors.Errorf("bind %v: %s is not an object type", c, c.Type)
		}
		if strings.HasPrefix(c.Field, reservedPrefix) || typ.obj.field(c.Field) == nil {
			return xerrors.Errorf("bind %v: type %s has no field %q", c, c.Type, c.Field)
		}
	}
	return nil
}

func parseSchema(source string, internal bool) (*Schema, error) {
	doc, errs := gqlang.Parse(source)
	if len(errs) > 0 {
		msgBuilder := new(strings.Builder)
		msgBuilder.WriteString("parse schema:")
		for _, err := range errs {
			msgBuilder.WriteByte('\n')
			if p, ok := gqlang.ErrorPosition(err); ok {
				msgBuilder.WriteString(p.String())
				msgBuilder.WriteString(": ")
			}
			msgBuilder.WriteString(err.Error())
		}
		return nil, xerrors.New(msgBuilder.String())
	}
	for _, defn := range doc.Definitions {
		switch {
		case defn.Operation != nil:
			return nil, xerrors.Errorf("parse schema: %v: operations not allowed", defn.Operation.Start.ToPosition(source))
		case defn.Fragment != nil:
			return nil, xerrors.Errorf("parse schema: %v: fragments not allowed", defn.Fragment.Keyword.ToPosition(source))
		}
	}
	typeMap, typeOrder, err := buildTypeMap(source, internal, doc)
	if err != nil {
		return nil, xerrors.Errorf("parse schema: %v", err)
	}
	if !internal {
		// Introspection types are queryable by name and in fragments.
		intro := introspectionSchema()
		for _, name := range intro.typeOrder {
			if strings.HasPrefix(name, reservedPrefix) {
				typeMap[name] = intro.types[name]
				typeOrder = append(typeOrder, name)
			}
		}
	}
	schema := &Schema{
		query:     typeMap["Query"],
		mutation:  typeMap["Mutation"],
		types:     typeMap,
		typeOrder: typeOrder,
	}
	if !internal {
		if schema.query == nil {
			return nil, xerrors.New("parse schema: could not find Query type")
		}
		if !schema.query.isObject() {
			return nil, xerrors.Errorf("parse schema: query type %v must be an object", schema.query)
		}
		if schema.mutation != nil && !schema.mutation.isObject() {
			return nil, xerrors.Errorf("parse schema: mutation type %v must be an object", schema.mutation)
		}
		if typeMap["Subscription"] != nil {
			return nil, xerrors.New("parse schema: subscriptions not supported")
		}
	}
	return schema, nil
}

const reservedPrefix = "__"

func buildTypeMap(source string, internal bool, doc *gqlang.Document) (map[string]*gqlType, []string, error) {
	typeMap := make(map[string]*gqlType)
	var typeOrder []string
	builtins := []*gqlType{
		booleanType,
		floatType,
		intType,
		stringType,
		idType,
	}
	for _, b := range builtins {
		typeMap[b.String()] = b
		typeOrder = append(typeOrder, b.String())
	}
	// First pass: fill out lookup table.
	for _, defn := range doc.Definitions {
		t := defn.Type
		if t == nil {
			continue
		}
		name := t.Name()
		if !internal && strings.HasPrefix(name.Value, reservedPrefix) {
			return nil, nil, xerrors.Errorf("%v: use of reserved name %q", name.Start.ToPosition(source), name.Value)
		}
		if typeMap[name.Value] != nil {
			return nil, nil, xerrors.Errorf("%v: multiple types with name %q", name.Start.ToPosition(source), name.Value)
		}

		switch {
		case t.Scalar != nil:
			typeMap[name.Value] = newScalarType(name.Value, t.Scalar.Description.Value())
		case t.Enum != nil:
			info := &enumType{name: name.Value}
			for _, v := range t.Enum.Values.Values {
				sym := v.Value.Value
				if !internal && strings.HasPrefix(sym, reservedPrefix) {
					return nil, nil, xerrors.Errorf("%v: use of reserved name %q", v.Value.Start.ToPosition(source), sym)
				}
				if info.has(sym) {
					return nil, nil, xerrors.Errorf("%v: multiple enum values with name %q", v.Value.Start.ToPosition(source), sym)
				}
				deprecated, reason, err := deprecation(source, v.Directives)
				if err != nil {
					return nil, nil, xerrors.Errorf("enum value %s.%s: %w", name.Value, sym, err)
				}
				info.values = append(info.values, enumValue{
					name:              sym,
					description:       v.Description.Value(),
					deprecated:        deprecated,
					deprecationReason: reason,
				})
			}
			typeMap[name.Value] = newEnumType(info, t.Enum.Description.Value())
		case t.Object != nil:
			typeMap[name.Value] = newObjectType(&objectType{
				name: name.Value,
			}, t.Object.Description.Value())
		case t.InputObject != nil:
			typeMap[name.Value] = newInputObjectType(&inputObjectType{
				name: name.Value,
			}, t.InputObject.Description.Value())
		}
		typeOrder = append(typeOrder, name.Value)
	}
	// Second pass: fill in object definitions.
	for _, defn := range doc.Definitions {
		if defn.Type == nil {
			continue
		}
		switch {
		case defn.Type.Object != nil:
			if err := fillObjectTypeFields(source, internal, typeMap, defn.Type.Object); err != nil {
				return nil, nil, err
			}
		case defn.Type.InputObject != nil:
			if err := fillInputObjectTypeFields(source, internal, typeMap, defn.Type.InputObject); err != nil {
				return nil, nil, err
			}
		}
	}
	// Third pass: default values. Input objects may reference each other, so
	// defaults can only be checked once every input object has its fields.
	for _, defn := range doc.Definitions {
		if defn.Type == nil {
			continue
		}
		switch {
		case defn.Type.Object != nil:
			if err := fillArgumentDefaults(source, typeMap, defn.Type.Object); err != nil {
				return nil, nil, err
			}
		case defn.Type.InputObject != nil:
			if err := fillInputObjectDefaults(source, typeMap, defn.Type.InputObject); err != nil {
				return nil, nil, err
			}
		}
	}
	return typeMap, typeOrder, nil
}

func fillObjectTypeFields(source string, internal bool, typeMap map[string]*gqlType, obj *gqlang.ObjectTypeDefinition) error {
	info := typeMap[obj.Name.Value].obj
	for _, fieldDefn := range obj.Fields.Defs {
		fieldName := fieldDefn.Name.Value
		if !internal && strings.HasPrefix(fieldName, reservedPrefix) {
			return xerrors.Errorf("%v: use of reserved name %q", fieldDefn.Name.Start.ToPosition(source), fieldName)
		}
		if info.field(fieldName) != nil {
			return xerrors.Errorf("%v: multiple fields named %q in %s", fieldDefn.Name.Start.ToPosition(source), fieldName, obj.Name)
		}
		typ := resolveTypeRef(typeMap, fieldDefn.Type)
		if typ == nil {
			return xerrors.Errorf("%v: undefined type %v", fieldDefn.Type.Start().ToPosition(source), fieldDefn.Type)
		}
		if !typ.isOutputType() {
			return xerrors.Errorf("%v: %v is not an output type", fieldDefn.Type.Start().ToPosition(source), fieldDefn.Type)
		}
		deprecated, reason, err := deprecation(source, fieldDefn.Directives)
		if err != nil {
			return xerrors.Errorf("field %s.%s: %w", obj.Name, fieldName, err)
		}
		f := &objectTypeField{
			name:              fieldName,
			description:       fieldDefn.Description.Value(),
			typ:               typ,
			deprecated:        deprecated,
			deprecationReason: reason,
		}
		if fieldDefn.Args != nil {
			for _, arg := range fieldDefn.Args.Args {
				argName := arg.Name.Value
				if !internal && strings.HasPrefix(argName, reservedPrefix) {
					return xerrors.Errorf("%v: use of reserved name %q", arg.Name.Start.ToPosition(source), argName)
				}
				if f.args.byName(argName) != nil {
					return xerrors.Errorf("%v: multiple arguments named %q for field %s.%s", arg.Name.Start.ToPosition(source), argName, obj.Name, fieldName)
				}
				typ := resolveTypeRef(typeMap, arg.Type)
				if typ == nil {
					return xerrors.Errorf("%v: undefined type %v", arg.Type.Start().ToPosition(source), arg.Type)
				}
				if !typ.isInputType() {
					return xerrors.Errorf("%v: %v is not an input type", arg.Type.Start().ToPosition(source), arg.Type)
				}
				f.args = append(f.args, inputValueDefinition{
					name:         argName,
					description:  arg.Description.Value(),
					defaultValue: Value{typ: typ},
				})
			}
		}
		info.fields = append(info.fields, f)
	}
	return nil
}

func fillInputObjectTypeFields(source string, internal bool, typeMap map[string]*gqlType, obj *gqlang.InputObjectTypeDefinition) error {
	info := typeMap[obj.Name.Value].input
	for _, fieldDefn := range obj.Fields.Defs {
		fieldName := fieldDefn.Name.Value
		if !internal && strings.HasPrefix(fieldName, reservedPrefix) {
			return xerrors.Errorf("%v: use of reserved name %q", fieldDefn.Name.Start.ToPosition(source), fieldName)
		}
		if info.fields.byName(fieldName) != nil {
			return xerrors.Errorf("%v: multiple fields named %q in %s", fieldDefn.Name.Start.ToPosition(source), fieldName, obj.Name)
		}
		typ := resolveTypeRef(typeMap, fieldDefn.Type)
		if typ == nil {
			return xerrors.Errorf("%v: undefined type %v", fieldDefn.Type.Start().ToPosition(source), fieldDefn.Type)
		}
		if !typ.isInputType() {
			return xerrors.Errorf("%v: %v is not an input type", fieldDefn.Type.Start().ToPosition(source), fieldDefn.Type)
		}
		info.fields = append(info.fields, inputValueDefinition{
			name:         fieldName,
			description:  fieldDefn.Description.Value(),
			defaultValue: Value{typ: typ},
		})
	}
	return nil
}

// fillArgumentDefaults relies on fillObjectTypeFields having added one
// objectTypeField per field definition, in order.
func fillArgumentDefaults(source string, typeMap map[string]*gqlType, obj *gqlang.ObjectTypeDefinition) error {
	info := typeMap[obj.Name.Value].obj
	for i, fieldDefn := range obj.Fields.Defs {
		if fieldDefn.Args == nil {
			continue
		}
		f := info.fields[i]
		for j, arg := range fieldDefn.Args.Args {
			if arg.Default == nil {
				continue
			}
			typ := f.args[j].typ()
			if errs := validateConstantValue(source, typ, arg.Default.Value); len(errs) > 0 {
				return xerrors.Errorf("argument %s.%s(%s) default: %w", obj.Name, f.name, arg.Name.Value, errs[0])
			}
			f.args[j].defaultValue = coerceConstantInputValue(typ, arg.Default.Value)
		}
	}
	return nil
}

func fillInputObjectDefaults(source string, typeMap map[string]*gqlType, obj *gqlang.InputObjectTypeDefinition) error {
	info := typeMap[obj.Name.Value].input
	for i, fieldDefn := range obj.Fields.Defs {
		if fieldDefn.Default == nil {
			continue
		}
		typ := info.fields[i].typ()
		if errs := validateConstantValue(source, typ, fieldDefn.Default.Value); len(errs) > 0 {
			return xerrors.Errorf("input field %s.%s default: %w", obj.Name, fieldDefn.Name.Value, errs[0])
		}
		info.fields[i].defaultValue = coerceConstantInputValue(typ, fieldDefn.Default.Value)
	}
	return nil
}

// deprecation reads the @deprecated directive from a field or enum value
// definition. No other directives are permitted in a schema.
func deprecation(source string, directives gqlang.Directives) (deprecated bool, reason string, _ error) {
	for _, d := range directives {
		if d.Name.Value != deprecatedDirectiveName {
			return false, "", xerrors.Errorf("%v: unknown directive @%s", d.At.ToPosition(source), d.Name.Value)
		}
	}
	if len(directives) > 1 {
		return false, "", xerrors.Errorf("%v: @%s used more than once", directives[1].At.ToPosition(source), deprecatedDirectiveName)
	}
	d := directives.ByName(deprecatedDirectiveName)
	if d == nil {
		return false, "", nil
	}
	if d.Arguments != nil {
		for _, arg := range d.Arguments.Args {
			if arg.Name.Value != "reason" {
				return false, "", xerrors.Errorf("%v: unknown argument %s for @%s", arg.Name.Start.ToPosition(source), arg.Name.Value, deprecatedDirectiveName)
			}
		}
	}
	arg := d.Arguments.ByName("reason")
	if arg == nil || arg.Value.Null != nil {
		return true, defaultDeprecationReason, nil
	}
	if arg.Value.Scalar == nil || arg.Value.Scalar.Type != gqlang.StringScalar {
		return false, "", xerrors.Errorf("%v: @%s reason must be a string", arg.Value.Start().ToPosition(source), deprecatedDirectiveName)
	}
	return true, arg.Value.Scalar.Value(), nil
}

const defaultDeprecationReason = "No longer supported"

func resolveTypeRef(typeMap map[string]*gqlType, ref *gqlang.TypeRef) *gqlType {
	switch {
	case ref.Named != nil:
		return typeMap[ref.Named.Value]
	case ref.List != nil:
		elem := resolveTypeRef(typeMap, ref.List.Type)
		if elem == nil {
			return nil
		}
		return listOf(elem)
	case ref.NonNull != nil && ref.NonNull.Named != nil:
		base := typeMap[ref.NonNull.Named.Value]
		if base == nil {
			return nil
		}
		return base.toNonNullable()
	case ref.NonNull != nil && ref.NonNull.List != nil:
		elem := resolveTypeRef(typeMap, ref.NonNull.List.Type)
		if elem == nil {
			return nil
		}
		return listOf(elem).toNonNullable()
	default:
		panic("unrecognized type reference form")
	}
}

func (schema *Schema) operationType(opType gqlang.OperationType) *gqlType {
	switch opType {
	case gqlang.Query:
		return schema.query
	case gqlang.Mutation:
		return schema.mutation
	case gqlang.Subscription:
		return nil
	default:
		panic("unknown operation type")
	}
}
