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
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"zombiezen.com/go/relativity/internal/gqlang"
)

// A SelectionSet is a collection of object fields that a client is requesting
// for the server to return. The zero value or nil is an empty set.
type SelectionSet struct {
	fields []*SelectedField
}

// selectionSetScope holds the request-wide state needed to build selection
// sets.
type selectionSetScope struct {
	source    string
	fragments map[string]*gqlang.FragmentDefinition
	variables map[string]Value
}

func newSelectionSetScope(source string, doc *gqlang.Document, variables map[string]Value) *selectionSetScope {
	scope := &selectionSetScope{
		source:    source,
		fragments: make(map[string]*gqlang.FragmentDefinition),
		variables: variables,
	}
	for _, defn := range doc.Definitions {
		if defn.Fragment != nil {
			scope.fragments[defn.Fragment.Name.Value] = defn.Fragment
		}
	}
	return scope
}

// newSelectionSet returns a new selection set from the request's AST.
// Fields with the same response key across sets are merged into one.
// It assumes that the AST has been validated.
func newSelectionSet(scope *selectionSetScope, typ *gqlType, sets []*gqlang.SelectionSet) (*SelectionSet, []error) {
	var groups []fieldGroup
	for _, set := range sets {
		if set != nil {
			groups = scope.collectFields(groups, typ, set, make(map[string]struct{}))
		}
	}
	set := new(SelectionSet)
	var errs []error
	for _, g := range groups {
		first := g.fields[0]
		name := first.Name.Value
		// Validation determines whether this is a valid reference to the
		// reserved fields.
		var defn *objectTypeField
		switch name {
		case typeNameFieldName:
			defn = typeNameField()
		case schemaFieldName:
			defn = schemaField()
		case typeByNameFieldName:
			defn = typeByNameField()
		default:
			defn = typ.obj.field(name)
		}
		field := &SelectedField{
			parent: typ.obj.name,
			name:   name,
			key:    g.key,
			loc:    astPositionToLocation(first.Start().ToPosition(scope.source)),
			defn:   defn,
		}
		set.fields = append(set.fields, field)

		if fieldSelType := defn.typ.selectionSetType(); fieldSelType != nil {
			subSets := make([]*gqlang.SelectionSet, 0, len(g.fields))
			for _, f := range g.fields {
				subSets = append(subSets, f.SelectionSet)
			}
			var subErrs []error
			field.sub, subErrs = newSelectionSet(scope, fieldSelType, subSets)
			for _, err := range subErrs {
				errs = append(errs, wrapFieldError(field.key, field.loc, err))
			}
		}
		var argErrs []error
		field.args, argErrs = coerceArgumentValues(scope.source, scope.variables, defn.args, first.Arguments)
		for _, err := range argErrs {
			errs = append(errs, wrapFieldError(field.key, field.loc, err))
		}
	}
	return set, errs
}

// fieldGroup is the list of fields in a request that share a response key.
type fieldGroup struct {
	key    string
	fields []*gqlang.Field
}

// collectFields flattens fragments in set and appends its fields to groups.
// See https://spec.graphql.org/October2021/#CollectFields()
func (scope *selectionSetScope) collectFields(groups []fieldGroup, typ *gqlType, set *gqlang.SelectionSet, visited map[string]struct{}) []fieldGroup {
	for _, sel := range set.Sel {
		if !scope.shouldInclude(sel.Directives()) {
			continue
		}
		switch {
		case sel.Field != nil:
			key := sel.Field.Key().Value
			found := false
			for i := range groups {
				if groups[i].key == key {
					groups[i].fields = append(groups[i].fields, sel.Field)
					found = true
					break
				}
			}
			if !found {
				groups = append(groups, fieldGroup{key: key, fields: []*gqlang.Field{sel.Field}})
			}
		case sel.FragmentSpread != nil:
			name := sel.FragmentSpread.Name.Value
			if _, seen := visited[name]; seen {
				continue
			}
			visited[name] = struct{}{}
			frag := scope.fragments[name]
			if frag == nil || frag.Type.Name.Value != typ.obj.name {
				continue
			}
			groups = scope.collectFields(groups, typ, frag.SelectionSet, visited)
		case sel.InlineFragment != nil:
			if cond := sel.InlineFragment.Type; cond != nil && cond.Name.Value != typ.obj.name {
				continue
			}
			groups = scope.collectFields(groups, typ, sel.InlineFragment.SelectionSet, visited)
		}
	}
	return groups
}

// shouldInclude evaluates the @skip and @include directives.
func (scope *selectionSetScope) shouldInclude(directives gqlang.Directives) bool {
	if d := directives.ByName(skipDirectiveName); d != nil && scope.directiveCondition(d) {
		return false
	}
	if d := directives.ByName(includeDirectiveName); d != nil && !scope.directiveCondition(d) {
		return false
	}
	return true
}

func (scope *selectionSetScope) directiveCondition(d *gqlang.Directive) bool {
	arg := d.Arguments.ByName("if")
	if arg == nil {
		return false
	}
	v, errs := coerceInputValue(scope.source, scope.variables, booleanType.toNonNullable(), arg.Value)
	return len(errs) == 0 && v.Boolean()
}

// Has reports whether the selection set includes the field with the given name.
func (sel *SelectionSet) Has(name string) bool {
	if sel == nil {
		return false
	}
	for _, f := range sel.fields {
		if f.name == name {
			return true
		}
	}
	return false
}

// FieldsWithName returns the fields in the selection set with the given name.
// There may be multiple in the case of a field alias.
func (sel *SelectionSet) FieldsWithName(name string) []*SelectedField {
	if sel == nil {
		return nil
	}
	var fields []*SelectedField
	for _, f := range sel.fields {
		if f.name == name {
			fields = append(fields, f)
		}
	}
	return fields
}

// SelectedField is a field in a selection set.
type SelectedField struct {
	// key is the response object key to be used. Usually the same as name.
	key string
	// name is the object field name.
	name string
	// parent is the name of the object type that declares the field.
	parent string

	loc  Location
	defn *objectTypeField
	args map[string]Value
	sub  *SelectionSet
}

func (f *SelectedField) typ() *gqlType {
	return f.defn.typ
}

// Name returns the declared name of the field.
func (f *SelectedField) Name() string {
	return f.name
}

// Key returns the field's key in the response: its alias if one was given,
// its name otherwise.
func (f *SelectedField) Key() string {
	return f.key
}

// Coordinate returns the object type and field name being resolved.
func (f *SelectedField) Coordinate() FieldCoordinate {
	return FieldCoordinate{Type: f.parent, Field: f.name}
}

// Arg returns the argument with the given name or a null Value if the argument
// doesn't exist. Omitted arguments have their default value.
func (f *SelectedField) Arg(name string) Value {
	return f.args[name]
}

// SelectionSet returns the field's selection set or nil if the field doesn't
// have one.
func (f *SelectedField) SelectionSet() *SelectionSet {
	return f.sub
}

// SelectedAliases returns the fields requested directly beneath f, mapping
// each response key to the declared field name in the order the keys first
// appear in the request.
//
// The keys are bare response keys: the alias if the client gave one, the
// field name otherwise. They are not qualified by the path of enclosing
// types, because only the immediate selection level is walked and nested
// selection sets are never inspected.
//
// Fragment spreads and inline fragments are flattened, and selections
// excluded by @skip or @include are left out. Introspection fields like
// __typename are omitted.
//
// SelectedAliases returns nil unless f's type, ignoring non-null, is an
// object type.
func (f *SelectedField) SelectedAliases() *orderedmap.OrderedMap[string, string] {
	if !f.typ().toNullable().isObject() {
		return nil
	}
	aliases := orderedmap.New[string, string]()
	for _, sub := range f.sub.fieldsOrNil() {
		if strings.HasPrefix(sub.name, reservedPrefix) {
			continue
		}
		aliases.Set(sub.key, sub.name)
	}
	return aliases
}

func (sel *SelectionSet) fieldsOrNil() []*SelectedField {
	if sel == nil {
		return nil
	}
	return sel.fields
}
