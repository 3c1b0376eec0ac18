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

import "sync"

// gqlType represents a GraphQL type.
//
// Types can be compared for equality using ==. Types with the same name from
// different schemas are never equal.
type gqlType struct {
	scalar      string
	enum        *enumType
	listElem    *gqlType
	obj         *objectType
	input       *inputObjectType
	nonNull     bool
	description string

	// nullVariant is the same type with the nonNull flag flipped.
	// This is to ensure that either version of the type has a consistent address.
	nullVariant *gqlType

	listInit sync.Once
	listOf_  *gqlType
}

type objectType struct {
	name   string
	fields []*objectTypeField
}

// field returns the field with the given name or nil if the object has no
// such field.
func (obj *objectType) field(name string) *objectTypeField {
	for _, f := range obj.fields {
		if f.name == name {
			return f
		}
	}
	return nil
}

type objectTypeField struct {
	name        string
	description string
	typ         *gqlType
	args        inputValueDefinitionList

	deprecated        bool
	deprecationReason string
}

type enumType struct {
	name   string
	values []enumValue
}

func (e *enumType) has(sym string) bool {
	for _, v := range e.values {
		if v.name == sym {
			return true
		}
	}
	return false
}

type enumValue struct {
	name        string
	description string

	deprecated        bool
	deprecationReason string
}

type inputObjectType struct {
	name   string
	fields inputValueDefinitionList
}

type inputValueDefinitionList []inputValueDefinition

func (list inputValueDefinitionList) byName(name string) *inputValueDefinition {
	for i := range list {
		if list[i].name == name {
			return &list[i]
		}
	}
	return nil
}

type inputValueDefinition struct {
	name        string
	description string

	// defaultValue.typ will always be set. Most of the time, defaultValue
	// is valid value of the type. However, if the type is non-nullable and
	// does not have a default, the value will be typed null.
	//
	// This is the only way to distinguish not having a default from having a
	// null default, but it's the only situation in which not having a default is
	// relevant in the GraphQL specification.
	defaultValue Value
}

func (ivd inputValueDefinition) typ() *gqlType {
	return ivd.defaultValue.typ
}

// Predefined types.
var (
	intType     = newScalarType("Int", "The Int scalar type represents a signed 32-bit numeric non-fractional value.")
	floatType   = newScalarType("Float", "The Float scalar type represents signed double-precision fractional values.")
	stringType  = newScalarType("String", "The String scalar type represents textual data as UTF-8 character sequences.")
	booleanType = newScalarType("Boolean", "The Boolean scalar type represents true or false.")
	idType      = newScalarType("ID", "The ID scalar type represents a unique identifier.")
)

func newScalarType(name, description string) *gqlType {
	nullable := &gqlType{scalar: name, description: description}
	nonNullable := &gqlType{scalar: name, description: description, nonNull: true}
	nullable.nullVariant = nonNullable
	nonNullable.nullVariant = nullable
	return nullable
}

func newEnumType(info *enumType, description string) *gqlType {
	nullable := &gqlType{enum: info, description: description}
	nonNullable := &gqlType{enum: info, description: description, nonNull: true}
	nullable.nullVariant = nonNullable
	nonNullable.nullVariant = nullable
	return nullable
}

func newObjectType(info *objectType, description string) *gqlType {
	nullable := &gqlType{obj: info, description: description}
	nonNullable := &gqlType{obj: info, description: description, nonNull: true}
	nullable.nullVariant = nonNullable
	nonNullable.nullVariant = nullable
	return nullable
}

func newInputObjectType(info *inputObjectType, description string) *gqlType {
	nullable := &gqlType{input: info, description: description}
	nonNullable := &gqlType{input: info, description: description, nonNull: true}
	nullable.nullVariant = nonNullable
	nonNullable.nullVariant = nullable
	return nullable
}

func listOf(elem *gqlType) *gqlType {
	elem.listInit.Do(func() {
		nullable := &gqlType{listElem: elem}
		nonNullable := &gqlType{listElem: elem, nonNull: true}
		nullable.nullVariant = nonNullable
		nonNullable.nullVariant = nullable
		elem.listOf_ = nullable
	})
	return elem.listOf_
}

// String returns the type reference string.
func (typ *gqlType) String() string {
	if typ == nil {
		return "<nil>"
	}
	suffix := ""
	if typ.nonNull {
		suffix = "!"
	}
	switch {
	case typ.isScalar():
		return typ.scalar + suffix
	case typ.isEnum():
		return typ.enum.name + suffix
	case typ.isList():
		return "[" + typ.listElem.String() + "]" + suffix
	case typ.isObject():
		return typ.obj.name + suffix
	case typ.isInputObject():
		return typ.input.name + suffix
	default:
		return "<invalid type>"
	}
}

// isNullable reports whether the type permits null.
func (typ *gqlType) isNullable() bool {
	return !typ.nonNull
}

func (typ *gqlType) toNullable() *gqlType {
	if typ.isNullable() {
		return typ
	}
	return typ.nullVariant
}

func (typ *gqlType) toNonNullable() *gqlType {
	if !typ.isNullable() {
		return typ
	}
	return typ.nullVariant
}

func (typ *gqlType) isScalar() bool {
	return typ.scalar != ""
}

func (typ *gqlType) isEnum() bool {
	return typ.enum != nil
}

func (typ *gqlType) isList() bool {
	return typ.listElem != nil
}

func (typ *gqlType) isObject() bool {
	return typ.obj != nil
}

func (typ *gqlType) isInputObject() bool {
	return typ.input != nil
}

// isInputType reports whether typ can be used as an input.
// See https://spec.graphql.org/October2021/#IsInputType()
func (typ *gqlType) isInputType() bool {
	for typ.isList() {
		typ = typ.listElem
	}
	return typ.isScalar() || typ.isEnum() || typ.isInputObject()
}

// isOutputType reports whether typ can be used as an output.
// See https://spec.graphql.org/October2021/#IsOutputType()
func (typ *gqlType) isOutputType() bool {
	for typ.isList() {
		typ = typ.listElem
	}
	return typ.isScalar() || typ.isEnum() || typ.isObject()
}

func (typ *gqlType) selectionSetType() *gqlType {
	for typ.isList() {
		typ = typ.listElem
	}
	if !typ.isObject() {
		return nil
	}
	return typ
}

// possibleTypes returns the set of object types that a value of typ could
// have at runtime.
func (typ *gqlType) possibleTypes() map[*gqlType]struct{} {
	if !typ.isObject() {
		return nil
	}
	return map[*gqlType]struct{}{typ.toNullable(): {}}
}

// areTypesCompatible reports if a value variableType can be passed to a usage
// expecting locationType. See https://spec.graphql.org/October2021/#AreTypesCompatible()
func areTypesCompatible(locationType, variableType *gqlType) bool {
	for {
		switch {
		case !locationType.isNullable():
			if variableType.isNullable() {
				return false
			}
			locationType = locationType.toNullable()
			variableType = variableType.toNullable()
		case !variableType.isNullable():
			variableType = variableType.toNullable()
		case locationType.isList():
			if !variableType.isList() {
				return false
			}
			locationType = locationType.listElem
			variableType = variableType.listElem
		case variableType.isList():
			return false
		default:
			return locationType == variableType
		}
	}
}
