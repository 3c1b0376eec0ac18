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

package graphqlhttp_test

import (
	"context"
	"log"
	"net/http"

	"zombiezen.com/go/relativity/graphql"
	"zombiezen.com/go/relativity/graphqlhttp"
)

func Example() {
	// Set up the server.
	schema, err := graphql.LoadSchema("greeting.graphqls", `
		type Query {
			greeting: String!
		}
	`, graphql.Bindings{
		{Type: "Query", Field: "greeting"}: func(ctx context.Context, source interface{}, field *graphql.SelectedField) (interface{}, error) {
			return "Hello, World!", nil
		},
	})
	if err != nil {
		log.Fatal(err)
	}
	server, err := graphql.NewServer(schema, &graphql.ServerOptions{CacheSize: 1 << 20})
	if err != nil {
		log.Fatal(err)
	}
	defer server.Close()

	// Serve over HTTP using NewHandler.
	http.Handle("/graphql", graphqlhttp.NewHandler(server))
	log.Fatal(http.ListenAndServe(":8080", nil))
}
