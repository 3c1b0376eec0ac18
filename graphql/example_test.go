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

package graphql_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"zombiezen.com/go/relativity/graphql"
)

const greeterSchema = `
	type Query {
		genericGreeting: String!
		greet(subject: String!): String!
	}
`

// greeterBindings attaches behavior to the fields of greeterSchema.
var greeterBindings = graphql.Bindings{
	{Type: "Query", Field: "genericGreeting"}: func(ctx context.Context, source interface{}, field *graphql.SelectedField) (interface{}, error) {
		return "Hiya!", nil
	},
	{Type: "Query", Field: "greet"}: func(ctx context.Context, source interface{}, field *graphql.SelectedField) (interface{}, error) {
		// Arguments have been validated and coerced by the time the resolver
		// is called, so subject is always present.
		return fmt.Sprintf("Hello, %s!", field.Arg("subject").Scalar()), nil
	},
}

func Example() {
	// Load the GraphQL schema to establish type information. The schema is
	// usually a string constant in your Go server or embedded from a file.
	schema, err := graphql.LoadSchema("greeter.graphqls", greeterSchema, greeterBindings)
	if err != nil {
		log.Fatal(err)
	}

	// A *graphql.Server executes requests against a schema.
	server, err := graphql.NewServer(schema, nil)
	if err != nil {
		log.Fatal(err)
	}
	defer server.Close()

	response := server.Execute(context.Background(), graphql.Request{
		Query: `
			query($subject: String!) {
				genericGreeting
				greet(subject: $subject)
			}
		`,
		Variables: map[string]graphql.Input{
			"subject": graphql.ScalarInput("World"),
		},
	})
	if len(response.Errors) > 0 {
		log.Fatal(response.Errors)
	}
	fmt.Println(response.ValueFor("genericGreeting").Scalar())
	fmt.Println(response.ValueFor("greet").Scalar())
	// Output:
	// Hiya!
	// Hello, World!
}

// Query is a GraphQL object read from the server without bindings.
type Query struct {
	// GenericGreeting is a no-arguments field that is read directly.
	GenericGreeting string
}

// Greet is a field that takes arguments.
func (q *Query) Greet(args map[string]graphql.Value) (string, error) {
	var subject string
	if err := args["subject"].Convert(&subject); err != nil {
		return "", err
	}
	return fmt.Sprintf("Hello, %s!", subject), nil
}

func Example_structRoot() {
	schema, err := graphql.ParseSchema(greeterSchema)
	if err != nil {
		log.Fatal(err)
	}

	// Unbound fields are read from the root value's fields and methods.
	server, err := graphql.NewServer(schema, &graphql.ServerOptions{
		Query: &Query{GenericGreeting: "Hiya!"},
	})
	if err != nil {
		log.Fatal(err)
	}
	defer server.Close()

	response := server.Execute(context.Background(), graphql.Request{
		Query: `{ genericGreeting greet(subject: "Go") }`,
	})
	if len(response.Errors) > 0 {
		log.Fatal(response.Errors)
	}
	fmt.Println(response.ValueFor("genericGreeting").Scalar())
	fmt.Println(response.ValueFor("greet").Scalar())
	// Output:
	// Hiya!
	// Hello, Go!
}

// GraphQL requests and response can be converted to JSON using the
// standard encoding/json package.
func Example_json() {
	server := newServer()
	defer server.Close()

	// Use json.Unmarshal to parse a GraphQL request from JSON.
	var request graphql.Request
	err := json.Unmarshal([]byte(`{
		"query": "{ hello: genericGreeting }"
	}`), &request)
	if err != nil {
		log.Fatal(err)
	}

	// Use json.Marshal to serialize a GraphQL server response to JSON.
	// We use json.MarshalIndent here for easier display.
	response := server.Execute(context.Background(), request)
	responseJSON, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(string(responseJSON))
	// Output:
	// {
	//   "data": {
	//     "hello": "Hiya!"
	//   }
	// }
}

func ExampleSelectedField_SelectedAliases() {
	schema, err := graphql.LoadSchema("aliases.graphqls", `
		type Query {
			relativity: Relativity
		}

		type Relativity {
			author: String
			specialDate: String
		}
	`, graphql.Bindings{
		{Type: "Query", Field: "relativity"}: func(ctx context.Context, source interface{}, field *graphql.SelectedField) (interface{}, error) {
			aliases := field.SelectedAliases()
			for pair := aliases.Oldest(); pair != nil; pair = pair.Next() {
				fmt.Printf("%s -> %s\n", pair.Key, pair.Value)
			}
			return map[string]interface{}{"author": "Albert Einstein"}, nil
		},
	})
	if err != nil {
		log.Fatal(err)
	}
	server, err := graphql.NewServer(schema, nil)
	if err != nil {
		log.Fatal(err)
	}
	defer server.Close()
	response := server.Execute(context.Background(), graphql.Request{
		Query: `{ relativity { sd: specialDate who: author author } }`,
	})
	if len(response.Errors) > 0 {
		log.Fatal(response.Errors)
	}
	// Output:
	// sd -> specialDate
	// who -> author
	// author -> author
}

func newServer() *graphql.Server {
	schema, err := graphql.LoadSchema("greeter.graphqls", greeterSchema, greeterBindings)
	if err != nil {
		panic(err)
	}
	server, err := graphql.NewServer(schema, nil)
	if err != nil {
		panic(err)
	}
	return server
}
