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
	"strings"
	"testing"

	"golang.org/x/xerrors"
)

func TestLoadSchema(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantErr bool
	}{
		{
			name:    "Empty",
			source:  "",
			wantErr: true,
		},
		{
			name:    "EmptyQuery",
			source:  "type Query {}",
			wantErr: true,
		},
		{
			name:    "SingleStringField",
			source:  "type Query { foo: String }",
			wantErr: false,
		},
		{
			name:    "ScalarType",
			source:  "type Query { foo: Bar }\nscalar Bar",
			wantErr: false,
		},
		{
			name:    "ForwardReference",
			source:  "type Query { foo: Foo! }\ntype Foo { bar: [Bar!] }\ntype Bar { baz: Int }",
			wantErr: false,
		},
		{
			name:    "EnumArgument",
			source:  "type Query { foo(unit: Unit = METER): Float }\nenum Unit { METER FOOT }",
			wantErr: false,
		},
		{
			name:    "InputObjectArgument",
			source:  "type Query { foo(in: Range): Int }\ninput Range { lo: Int = 0, hi: Int! }",
			wantErr: false,
		},
		{
			name:    "Mutation",
			source:  "type Query { foo: String }\ntype Mutation { setFoo(foo: String!): String }",
			wantErr: false,
		},
		{
			name:    "DuplicateTypeName",
			source:  "type Query { foo: String }\nscalar Bar\nscalar Bar",
			wantErr: true,
		},
		{
			name:    "UnknownType",
			source:  "type Query { foo: Bar }",
			wantErr: true,
		},
		{
			name:    "UnknownArgumentType",
			source:  "type Query { foo(bar: Bar): String }",
			wantErr: true,
		},
		{
			name:    "OperationsNotAllowed",
			source:  "type Query { foo: String }\nquery { foo }",
			wantErr: true,
		},
		{
			name:    "SyntaxError",
			source:  "type Query { foo: String",
			wantErr: true,
		},
		{
			name:    "NoQuery",
			source:  "type Foo { bar: String }",
			wantErr: true,
		},
		{
			name:    "BuiltinConflict",
			source:  "type Query { foo: String }\nscalar String",
			wantErr: true,
		},
		{
			name:    "Interface",
			source:  "type Query { foo: Named }\ninterface Named { name: String }",
			wantErr: true,
		},
		{
			name:    "Union",
			source:  "type Query { foo: Thing }\nunion Thing = Query",
			wantErr: true,
		},
		{
			name:    "Descriptions",
			source:  "\"The root.\"\ntype Query {\n\"\"\"\nA field.\n\"\"\"\nfoo: String\n}",
			wantErr: false,
		},
		{
			name:    "Deprecated",
			source:  "type Query { foo: String @deprecated bar: String @deprecated(reason: \"Use foo.\") }\nenum Unit { METER FOOT @deprecated }",
			wantErr: false,
		},
		{
			name:    "DeprecatedTwice",
			source:  "type Query { foo: String @deprecated @deprecated }",
			wantErr: true,
		},
		{
			name:    "DeprecatedReasonNotString",
			source:  "type Query { foo: String @deprecated(reason: 42) }",
			wantErr: true,
		},
		{
			name:    "UnknownSchemaDirective",
			source:  "type Query { foo: String @external }",
			wantErr: true,
		},
		{
			name:    "ReservedTypeName",
			source:  "type Query { foo: String }\ntype __Foo { bar: String }",
			wantErr: true,
		},
		{
			name:    "ReservedFieldName",
			source:  "type Query { __foo: String }",
			wantErr: true,
		},
		{
			name:    "BadArgumentDefault",
			source:  "type Query { foo(n: Int = \"seven\"): String }",
			wantErr: true,
		},
		{
			name:    "OutputTypeAsArgument",
			source:  "type Query { foo(q: Query): String }",
			wantErr: true,
		},
		{
			name:    "Subscription",
			source:  "type Query { foo: String }\ntype Subscription { foo: String }",
			wantErr: true,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			schema, err := LoadSchema(test.name+".graphqls", test.source, nil)
			if err != nil {
				if !test.wantErr {
					t.Fatal("Error:", err)
				}
				var schemaErr *SchemaError
				if !xerrors.As(err, &schemaErr) {
					t.Errorf("LoadSchema(...) error = %v (%T); want *SchemaError", err, err)
				} else if schemaErr.Source != test.name+".graphqls" {
					t.Errorf("SchemaError.Source = %q; want %q", schemaErr.Source, test.name+".graphqls")
				}
				return
			}
			if test.wantErr {
				t.Error("LoadSchema did not return an error")
			}
			if got, want := schema.Name(), test.name+".graphqls"; got != want {
				t.Errorf("schema.Name() = %q; want %q", got, want)
			}
		})
	}
}

func TestLoadSchemaBindings(t *testing.T) {
	const source = `
		type Query {
			user: User
		}

		type User {
			name: String
		}

		enum Color { RED }
	`
	noop := func(ctx context.Context, source interface{}, field *SelectedField) (interface{}, error) {
		return nil, nil
	}
	tests := []struct {
		name      string
		bindings  Bindings
		errSubstr string
	}{
		{
			name:     "None",
			bindings: nil,
		},
		{
			name: "Valid",
			bindings: Bindings{
				{Type: "Query", Field: "user"}: noop,
				{Type: "User", Field: "name"}:  noop,
			},
		},
		{
			name: "MissingType",
			bindings: Bindings{
				{Type: "Account", Field: "name"}: noop,
			},
			errSubstr: "Account.name",
		},
		{
			name: "MissingField",
			bindings: Bindings{
				{Type: "User", Field: "email"}: noop,
			},
			errSubstr: "User.email",
		},
		{
			name: "NotObject",
			bindings: Bindings{
				{Type: "Color", Field: "RED"}: noop,
			},
			errSubstr: "Color.RED",
		},
		{
			name: "IntrospectionField",
			bindings: Bindings{
				{Type: "Query", Field: "__typename"}: noop,
			},
			errSubstr: "Query.__typename",
		},
		{
			name: "IntrospectionType",
			bindings: Bindings{
				{Type: "__Type", Field: "name"}: noop,
			},
			errSubstr: "__Type.name",
		},
		{
			name: "NilResolver",
			bindings: Bindings{
				{Type: "Query", Field: "user"}: nil,
			},
			errSubstr: "nil resolver",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			schema, err := LoadSchema("bindings.graphqls", source, test.bindings)
			if test.errSubstr == "" {
				if err != nil {
					t.Fatal(err)
				}
				for c := range test.bindings {
					if !schema.IsBound(c) {
						t.Errorf("schema.IsBound(%v) = false; want true", c)
					}
				}
				return
			}
			if err == nil {
				t.Fatal("LoadSchema did not return an error")
			}
			var schemaErr *SchemaError
			if !xerrors.As(err, &schemaErr) {
				t.Errorf("LoadSchema(...) error = %v (%T); want *SchemaError", err, err)
			}
			if !strings.Contains(err.Error(), test.errSubstr) {
				t.Errorf("LoadSchema(...) error = %q; want to contain %q", err, test.errSubstr)
			}
		})
	}
}

func TestFieldCoordinateString(t *testing.T) {
	c := FieldCoordinate{Type: "Relativity", Field: "specialDate"}
	if got, want := c.String(), "Relativity.specialDate"; got != want {
		t.Errorf("String() = %q; want %q", got, want)
	}
}
