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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestValueFromGo(t *testing.T) {
	schema, err := ParseSchema(`
		type Query {
			foo: String
			bar: String
			names: [String!]
		}
	`)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name         string
		goValue      reflect.Value
		goValueFunc  func(e errorfer) reflect.Value
		typ          *gqlType
		selectionSet *SelectionSet
		want         valueExpectations
	}{
		{
			name:    "String/Empty",
			goValue: reflect.ValueOf(""),
			typ:     stringType,
			want:    valueExpectations{scalar: ""},
		},
		{
			name:    "String/Nonempty",
			goValue: reflect.ValueOf("foo"),
			typ:     stringType,
			want:    valueExpectations{scalar: "foo"},
		},
		{
			name:    "String/Null",
			goValue: reflect.ValueOf(new(*string)).Elem(),
			typ:     stringType,
			want:    valueExpectations{null: true},
		},
		{
			name:    "Boolean/True",
			goValue: reflect.ValueOf(true),
			typ:     booleanType,
			want:    valueExpectations{scalar: "true"},
		},
		{
			name:    "Boolean/False",
			goValue: reflect.ValueOf(false),
			typ:     booleanType,
			want:    valueExpectations{scalar: "false"},
		},
		{
			name:    "Integer/Int32/Negative",
			goValue: reflect.ValueOf(int32(-123)),
			typ:     intType,
			want:    valueExpectations{scalar: "-123"},
		},
		{
			name:    "Integer/Int/Positive",
			goValue: reflect.ValueOf(int(123)),
			typ:     intType,
			want:    valueExpectations{scalar: "123"},
		},
		{
			name:    "Integer/Int/Null",
			goValue: reflect.ValueOf(new(*int)).Elem(),
			typ:     intType,
			want:    valueExpectations{null: true},
		},
		{
			name:    "List",
			goValue: reflect.ValueOf([]string{"a", "b"}),
			typ:     listOf(stringType.toNonNullable()),
			want: valueExpectations{list: []valueExpectations{
				{scalar: "a"},
				{scalar: "b"},
			}},
		},
		{
			name:    "List/NilSlice",
			goValue: reflect.ValueOf([]string(nil)),
			typ:     listOf(stringType.toNonNullable()),
			want:    valueExpectations{null: true},
		},
		{
			name: "Object/StructFields",
			goValue: reflect.ValueOf(&valueQueryStructFields{
				Foo: "xyzzy",
				Bar: "baz",
			}),
			typ:          schema.query,
			selectionSet: selectFields(schema.query, "foo", "foo", "bar", "bar"),
			want: valueExpectations{object: []fieldExpectations{
				{key: "foo", value: valueExpectations{scalar: "xyzzy"}},
				{key: "bar", value: valueExpectations{scalar: "baz"}},
			}},
		},
		{
			name: "Object/PartialStructFields",
			goValue: reflect.ValueOf(&valueQueryStructFields{
				Foo: "xyzzy",
				Bar: "baz",
			}),
			typ:          schema.query,
			selectionSet: selectFields(schema.query, "bar", "bar"),
			want: valueExpectations{object: []fieldExpectations{
				{key: "bar", value: valueExpectations{scalar: "baz"}},
			}},
		},
		{
			name:         "Object/Map",
			goValue:      reflect.ValueOf(map[string]interface{}{"foo": "xyzzy", "names": []string{"x"}}),
			typ:          schema.query,
			selectionSet: selectFields(schema.query, "foo", "foo", "bar", "bar", "names", "names"),
			want: valueExpectations{object: []fieldExpectations{
				{key: "foo", value: valueExpectations{scalar: "xyzzy"}},
				{key: "bar", value: valueExpectations{null: true}},
				{key: "names", value: valueExpectations{list: []valueExpectations{
					{scalar: "x"},
				}}},
			}},
		},
		{
			name:         "Object/Method/NoArgs",
			goValue:      reflect.ValueOf(new(valueQueryMethodNoArgs)),
			typ:          schema.query,
			selectionSet: selectFields(schema.query, "foo", "foo"),
			want: valueExpectations{object: []fieldExpectations{
				{key: "foo", value: valueExpectations{scalar: "xyzzy"}},
			}},
		},
		{
			name: "Object/Method/ContextOnly",
			goValueFunc: func(e errorfer) reflect.Value {
				return reflect.ValueOf(&valueQueryMethodContextOnly{e: e})
			},
			typ:          schema.query,
			selectionSet: selectFields(schema.query, "foo", "foo"),
			want: valueExpectations{object: []fieldExpectations{
				{key: "foo", value: valueExpectations{scalar: "xyzzy"}},
			}},
		},
		{
			name: "Object/Method/ArgsOnly",
			goValueFunc: func(e errorfer) reflect.Value {
				return reflect.ValueOf(&valueQueryMethodArgsOnly{e: e})
			},
			typ:          schema.query,
			selectionSet: selectFields(schema.query, "foo", "foo"),
			want: valueExpectations{object: []fieldExpectations{
				{key: "foo", value: valueExpectations{scalar: "xyzzy"}},
			}},
		},
		{
			name: "Object/Alias",
			goValue: reflect.ValueOf(&valueQueryStructFields{
				Foo: "xyzzy",
				Bar: "BORK",
			}),
			typ:          schema.query,
			selectionSet: selectFields(schema.query, "magic", "foo", "bar", "foo"),
			want: valueExpectations{object: []fieldExpectations{
				{key: "magic", value: valueExpectations{scalar: "xyzzy"}},
				{key: "bar", value: valueExpectations{scalar: "xyzzy"}},
			}},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			goValue := test.goValue
			if test.goValueFunc != nil {
				goValue = test.goValueFunc(t)
			}
			got, errs := schema.valueFromGo(context.Background(), goValue, test.typ, test.selectionSet)
			if len(errs) > 0 {
				t.Fatalf("errors: %v", errs)
			}
			test.want.check(t, got)
		})
	}
}

func TestValueFromGoErrors(t *testing.T) {
	schema, err := ParseSchema(`
		type Query {
			id: String!
			tags: [String!]
		}
	`)
	if err != nil {
		t.Fatal(err)
	}
	t.Run("NonNullField", func(t *testing.T) {
		got, errs := schema.valueFromGo(context.Background(),
			reflect.ValueOf(map[string]interface{}{}),
			schema.query,
			selectFields(schema.query, "id", "id"))
		if len(errs) != 1 {
			t.Fatalf("errors = %v; want 1 error", errs)
		}
		if !got.IsNull() {
			t.Errorf("value = %v; want null", got.GoValue())
		}
	})
	t.Run("NonNullElement", func(t *testing.T) {
		got, errs := schema.valueFromGo(context.Background(),
			reflect.ValueOf([]*string{nil}),
			listOf(stringType.toNonNullable()),
			nil)
		if len(errs) != 1 {
			t.Fatalf("errors = %v; want 1 error", errs)
		}
		if _, ok := errs[0].(*listElementError); !ok {
			t.Errorf("errors[0] = %#v; want *listElementError", errs[0])
		}
		if !got.IsNull() {
			t.Errorf("value = %v; want null", got.GoValue())
		}
	})
}

func TestValueMarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{name: "Null", value: Value{typ: stringType}, want: `null`},
		{name: "String", value: Value{typ: stringType, val: "1905"}, want: `"1905"`},
		{name: "Int", value: Value{typ: intType, val: "1905"}, want: `1905`},
		{name: "Boolean", value: Value{typ: booleanType.toNonNullable(), val: "true"}, want: `true`},
		{
			name: "List",
			value: Value{typ: listOf(intType), val: []Value{
				{typ: intType, val: "1"},
				{typ: intType},
			}},
			want: `[1,null]`,
		},
		{
			name: "Object",
			value: Value{typ: stringType, val: []Field{
				{Key: "b", Value: Value{typ: stringType, val: "x"}},
				{Key: "a", Value: Value{typ: booleanType, val: "false"}},
			}},
			want: `{"b":"x","a":false}`,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := json.Marshal(test.value)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != test.want {
				t.Errorf("json.Marshal(...) = %s; want %s", got, test.want)
			}
		})
	}
}

func TestInputUnmarshalJSON(t *testing.T) {
	tests := []struct {
		data string
		want interface{}
	}{
		{data: `null`, want: nil},
		{data: `"yyyy"`, want: "yyyy"},
		{data: `42`, want: "42"},
		{data: `true`, want: "true"},
		{data: `[]`, want: []interface{}{}},
		{data: `["a", null]`, want: []interface{}{"a", nil}},
		{data: `{"pattern": "MMMM d"}`, want: map[string]interface{}{"pattern": "MMMM d"}},
	}
	for _, test := range tests {
		var in Input
		if err := json.Unmarshal([]byte(test.data), &in); err != nil {
			t.Errorf("json.Unmarshal(%q, &in): %v", test.data, err)
			continue
		}
		if diff := cmp.Diff(test.want, in.GoValue()); diff != "" {
			t.Errorf("json.Unmarshal(%q, &in) (-want +got):\n%s", test.data, diff)
		}
	}
}

// selectFields builds a selection set on typ from alternating key and field
// name arguments.
func selectFields(typ *gqlType, keysAndNames ...string) *SelectionSet {
	set := new(SelectionSet)
	for i := 0; i < len(keysAndNames); i += 2 {
		name := keysAndNames[i+1]
		set.fields = append(set.fields, &SelectedField{
			key:    keysAndNames[i],
			name:   name,
			parent: typ.obj.name,
			loc:    Location{1, 1},
			defn:   typ.obj.field(name),
			args:   map[string]Value{},
		})
	}
	return set
}

type valueQueryStructFields struct {
	Foo string
	Bar string
}

type valueQueryMethodNoArgs struct{}

func (valueQueryMethodNoArgs) Foo() string {
	return "xyzzy"
}

type valueQueryMethodContextOnly struct {
	e errorfer
}

func (q *valueQueryMethodContextOnly) Foo(ctx context.Context) string {
	if ctx == nil {
		q.e.Errorf("Foo received nil Context")
	}
	return "xyzzy"
}

type valueQueryMethodArgsOnly struct {
	e errorfer
}

func (q *valueQueryMethodArgsOnly) Foo(args map[string]Value) string {
	if len(args) > 0 {
		q.e.Errorf("Foo received non-empty args: %v", args)
	}
	return "xyzzy"
}

type valueExpectations struct {
	null   bool
	scalar string
	list   []valueExpectations
	object []fieldExpectations
}

type fieldExpectations struct {
	key   string
	value valueExpectations
}

func (expect *valueExpectations) check(e errorfer, v Value) {
	if gotNull := v.IsNull(); gotNull != expect.null {
		e.Errorf("v.IsNull() = %t; want %t", gotNull, expect.null)
	}
	if gotScalar := v.Scalar(); gotScalar != expect.scalar {
		e.Errorf("v.Scalar() = %q; want %q", gotScalar, expect.scalar)
	}
	if len(expect.list) > 0 {
		if v.IsNull() {
			return
		}
		if v.Len() != len(expect.list) {
			e.Errorf("v.Len() = %d; want %d", v.Len(), len(expect.list))
			return
		}
		for i := range expect.list {
			expect.list[i].check(e, v.At(i))
		}
	}
	if len(expect.object) > 0 {
		if v.IsNull() {
			return
		}
		if v.NumFields() != len(expect.object) {
			var gotKeys, wantKeys []string
			for i := 0; i < v.NumFields(); i++ {
				gotKeys = append(gotKeys, v.Field(i).Key)
			}
			for _, f := range expect.object {
				wantKeys = append(wantKeys, f.key)
			}
			diff := cmp.Diff(wantKeys, gotKeys,
				cmpopts.SortSlices(func(a, b string) bool { return a < b }))
			e.Errorf("v fields (-want +got):\n%s", diff)
			return
		}
		for i, wantField := range expect.object {
			gotField := v.Field(i)
			if gotField.Key != wantField.key {
				e.Errorf("fields[%d].key = %q; want %q", i, gotField.Key, wantField.key)
			}
			wantField.value.check(e, gotField.Value)
		}
	}
}

type errorfer interface {
	Errorf(format string, arguments ...interface{})
}
