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

/*
Package graphql provides a GraphQL execution engine. A schema is loaded from
the schema definition language and behavior is attached to it with a table of
bindings. During execution, the server transforms requests into resolver
calls, Go method calls, and struct field accesses. This package follows the
specification laid out at https://spec.graphql.org/October2021/

For the common case where you are serving GraphQL over HTTP, see the graphqlhttp
package in this module.

# Bindings

A schema document only describes types. Behavior is attached with a Bindings
table that maps a field coordinate (an object type name and a field name) to a
ResolveFunc:

	bindings := graphql.Bindings{
		{Type: "Query", Field: "greeting"}: func(ctx context.Context, source interface{}, field *graphql.SelectedField) (interface{}, error) {
			return "Hello, World!", nil
		},
	}

LoadSchema rejects bindings that do not name a field of an object type in the
schema. A binding always takes precedence over the parent value. Arguments are
available through SelectedField.Arg and may be read into Go values with
Value.Convert.

# Field resolution

Fields without a binding are read from the parent value. A map with string keys
yields the entry whose key is the field name, or null if there is none. A
struct yields the exported field whose name is the field name with its first
letter capitalized, as long as the field takes no arguments. Otherwise, a
method with that name is called. Field methods must have the following
signature (with square brackets indicating optional elements):

	func (foo *Foo) Bar([ctx context.Context,] [args map[string]graphql.Value,] [sel *graphql.SelectionSet]) (ResultType[, error])

The ctx parameter will have a Context deriving from the one passed to Execute.
The args parameter will be a map filled with the arguments passed to the field.
The sel parameter is only passed to fields that return an object or list of
objects type and permits the method to peek into what fields will be evaluated
on its return value.

# Scalars

Go values will be converted to scalars in the result by trying the following
in order:

	1) Call a method named IsGraphQLNull if present. If it returns true, then
	convert to null.

	2) Use the encoding.TextMarshaler or fmt.Stringer interface if present.

	3) Examine the Go type and GraphQL types and attempt coercion.

# Aliases

A client may rename a field in its response with an alias. A resolver that
wants to know how its result will be consumed can call
SelectedField.SelectedAliases to see the response keys requested directly
beneath it, in request order.
*/
package graphql
