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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestIntrospection(t *testing.T) {
	type object = map[string]interface{}
	type list = []interface{}
	tests := []struct {
		name        string
		schema      string
		hasMutation bool
		request     Request
		want        interface{}
	}{
		{
			// https://spec.graphql.org/October2021/#example-1891c
			name: "Type/User",
			schema: `
				type Query {
					foo: String
				}

				type User {
					id: String
					name: String
					birthday: Date
				}

				scalar Date
			`,
			request: Request{Query: `{
				__type(name: "User") {
					name
					fields {
						name
						type {
							name
						}
					}
				}
			}`},
			want: object{
				"__type": object{
					"name": "User",
					"fields": list{
						object{"name": "id", "type": object{"name": "String"}},
						object{"name": "name", "type": object{"name": "String"}},
						object{"name": "birthday", "type": object{"name": "Date"}},
					},
				},
			},
		},
		{
			name: "Type/AllFields",
			schema: `
				"""
				The root query type.
				"""
				type Query {
					"""
					A very important field
					that I read from.
					"""
					foo: String
				}
			`,
			request: Request{
				Query: `{
					__type(name: "Query") {
						kind
						name
						description
						fields {
							name
							description
							args {
								name
							}
							type {
								kind
								name
							}
							isDeprecated
							deprecationReason
						}
					}
				}`,
			},
			want: object{
				"__type": object{
					"kind":        "OBJECT",
					"name":        "Query",
					"description": "The root query type.",
					"fields": list{
						object{
							"name":        "foo",
							"description": "A very important field\nthat I read from.",
							"args":        list{},
							"type": object{
								"kind": "SCALAR",
								"name": "String",
							},
							"isDeprecated":      "false",
							"deprecationReason": nil,
						},
					},
				},
			},
		},
		{
			name: "Type/Unknown",
			schema: `
				type Query {
					foo: String
				}
			`,
			request: Request{Query: `{ __type(name: "Bar") { name } }`},
			want:    object{"__type": nil},
		},
		{
			name: "Type/Wrapping",
			schema: `
				type Query {
					names: [String!]!
				}
			`,
			request: Request{Query: `{
				__type(name: "Query") {
					fields {
						type {
							kind
							name
							ofType {
								kind
								ofType {
									kind
									ofType {
										kind
										name
									}
								}
							}
						}
					}
				}
			}`},
			want: object{
				"__type": object{
					"fields": list{
						object{
							"type": object{
								"kind": "NON_NULL",
								"name": nil,
								"ofType": object{
									"kind": "LIST",
									"ofType": object{
										"kind": "NON_NULL",
										"ofType": object{
											"kind": "SCALAR",
											"name": "String",
										},
									},
								},
							},
						},
					},
				},
			},
		},
		{
			name: "Type/Deprecated",
			schema: `
				type Query {
					current: String
					legacy: String @deprecated(reason: "Use current.")
					ancient: String @deprecated
				}
			`,
			request: Request{Query: `{
				visible: __type(name: "Query") {
					fields {
						name
					}
				}
				all: __type(name: "Query") {
					fields(includeDeprecated: true) {
						name
						isDeprecated
						deprecationReason
					}
				}
			}`},
			want: object{
				"visible": object{
					"fields": list{
						object{"name": "current"},
					},
				},
				"all": object{
					"fields": list{
						object{"name": "current", "isDeprecated": "false", "deprecationReason": nil},
						object{"name": "legacy", "isDeprecated": "true", "deprecationReason": "Use current."},
						object{"name": "ancient", "isDeprecated": "true", "deprecationReason": "No longer supported"},
					},
				},
			},
		},
		{
			name: "Type/Enum",
			schema: `
				type Query {
					color: Color
				}

				"""
				A primary color.
				"""
				enum Color {
					RED
					GREEN @deprecated(reason: "Not a pigment.")
					BLUE
				}
			`,
			request: Request{Query: `{
				__type(name: "Color") {
					kind
					description
					fields { name }
					enumValues {
						name
					}
					all: enumValues(includeDeprecated: true) {
						name
						isDeprecated
						deprecationReason
					}
				}
			}`},
			want: object{
				"__type": object{
					"kind":        "ENUM",
					"description": "A primary color.",
					"fields":      nil,
					"enumValues": list{
						object{"name": "RED"},
						object{"name": "BLUE"},
					},
					"all": list{
						object{"name": "RED", "isDeprecated": "false", "deprecationReason": nil},
						object{"name": "GREEN", "isDeprecated": "true", "deprecationReason": "Not a pigment."},
						object{"name": "BLUE", "isDeprecated": "false", "deprecationReason": nil},
					},
				},
			},
		},
		{
			name: "Type/InputObject",
			schema: `
				type Query {
					search(filter: Filter): String
				}

				enum Order { ASC, DESC }

				input Filter {
					text: String = "a \"b\""
					limit: Int = 10
					order: Order = DESC
					tags: [String!]
				}
			`,
			request: Request{Query: `{
				__type(name: "Filter") {
					kind
					inputFields {
						name
						defaultValue
					}
				}
			}`},
			want: object{
				"__type": object{
					"kind": "INPUT_OBJECT",
					"inputFields": list{
						object{"name": "text", "defaultValue": `"a \"b\""`},
						object{"name": "limit", "defaultValue": "10"},
						object{"name": "order", "defaultValue": "DESC"},
						object{"name": "tags", "defaultValue": nil},
					},
				},
			},
		},
		{
			name: "Type/Arguments",
			schema: `
				type Query {
					greet(name: String = "World", times: Int!): String
				}
			`,
			request: Request{Query: `{
				__type(name: "Query") {
					fields {
						name
						args {
							name
							defaultValue
							type {
								kind
							}
						}
					}
				}
			}`},
			want: object{
				"__type": object{
					"fields": list{
						object{
							"name": "greet",
							"args": list{
								object{"name": "name", "defaultValue": `"World"`, "type": object{"kind": "SCALAR"}},
								object{"name": "times", "defaultValue": nil, "type": object{"kind": "NON_NULL"}},
							},
						},
					},
				},
			},
		},
		{
			name: "Schema/QueryAndMutation",
			schema: `
				type Query {
					foo: String
				}

				type Mutation {
					foo: String
				}

				scalar Foo
			`,
			hasMutation: true,
			request: Request{
				Query: `{
					__schema {
						queryType {
							name
						}
						mutationType {
							name
						}
						subscriptionType {
							name
						}
						types {
							name
						}
					}
				}`,
			},
			want: object{
				"__schema": object{
					"queryType":        object{"name": "Query"},
					"mutationType":     object{"name": "Mutation"},
					"subscriptionType": nil,
					"types": list{
						object{"name": "Boolean"},
						object{"name": "Float"},
						object{"name": "Int"},
						object{"name": "String"},
						object{"name": "ID"},
						object{"name": "Query"},
						object{"name": "Mutation"},
						object{"name": "Foo"},
						object{"name": "__Schema"},
						object{"name": "__Type"},
						object{"name": "__Field"},
						object{"name": "__InputValue"},
						object{"name": "__EnumValue"},
						object{"name": "__TypeKind"},
						object{"name": "__Directive"},
						object{"name": "__DirectiveLocation"},
					},
				},
			},
		},
		{
			name: "Schema/Directives",
			schema: `
				type Query {
					foo: String
				}
			`,
			request: Request{Query: `{
				__schema {
					directives {
						name
						locations
						args {
							name
							defaultValue
						}
					}
				}
			}`},
			want: object{
				"__schema": object{
					"directives": list{
						object{
							"name":      "skip",
							"locations": list{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
							"args":      list{object{"name": "if", "defaultValue": nil}},
						},
						object{
							"name":      "include",
							"locations": list{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
							"args":      list{object{"name": "if", "defaultValue": nil}},
						},
						object{
							"name":      "deprecated",
							"locations": list{"FIELD_DEFINITION", "ENUM_VALUE"},
							"args":      list{object{"name": "reason", "defaultValue": `"No longer supported"`}},
						},
					},
				},
			},
		},
		{
			name: "Typename",
			schema: `
				type Query {
					myObject: MyType!
				}

				type MyType {
					bar: String
				}
			`,
			request: Request{
				Query: `{
					__typename
					myObject { __typename }
				}`,
			},
			want: object{
				"__typename": "Query",
				"myObject":   object{"__typename": "MyType"},
			},
		},
		{
			name: "FragmentOnIntrospectionType",
			schema: `
				type Query {
					foo: String
				}
			`,
			request: Request{
				Query: `{
					__type(name: "Query") { ...typeName }
				}

				fragment typeName on __Type { name }`,
			},
			want: object{
				"__type": object{"name": "Query"},
			},
		},
	}

	ctx := context.Background()
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			schema, err := ParseSchema(test.schema)
			if err != nil {
				t.Fatal(err)
			}
			query := &introspectionQuery{
				Foo: "foo",
				MyObject: &introspectionMyType{
					Bar: "bar",
				},
			}
			opts := &ServerOptions{Query: query}
			if test.hasMutation {
				opts.Mutation = query
			}
			srv, err := NewServer(schema, opts)
			if err != nil {
				t.Fatal(err)
			}
			defer srv.Close()
			resp := srv.Execute(ctx, test.request)
			for _, e := range resp.Errors {
				t.Errorf("Error: %s", e.Message)
			}
			if diff := cmp.Diff(test.want, resp.Data.GoValue()); diff != "" {
				t.Errorf("data (-want +got):\n%s", diff)
			}
		})
	}
}

type introspectionQuery struct {
	Foo      string
	MyObject *introspectionMyType
}

type introspectionMyType struct {
	Bar string
}
