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
	"testing"
)

const benchSchema = `
	type Query {
		myString: String
		bound(pattern: String): String
	}
`

type benchQuery struct {
	MyString NullString
}

func newBenchServer(b *testing.B, cacheSize int64) *Server {
	b.Helper()
	schema, err := LoadSchema("bench.graphqls", benchSchema, Bindings{
		{Type: "Query", Field: "bound"}: func(ctx context.Context, source interface{}, field *SelectedField) (interface{}, error) {
			var pattern NullString
			if err := field.Arg("pattern").Convert(&pattern); err != nil {
				return nil, err
			}
			return pattern, nil
		},
	})
	if err != nil {
		b.Fatal(err)
	}
	server, err := NewServer(schema, &ServerOptions{
		Query:     &benchQuery{MyString: NullString{Valid: true, S: "Hello, World!"}},
		CacheSize: cacheSize,
	})
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(server.Close)
	return server
}

func BenchmarkExecute(b *testing.B) {
	ctx := context.Background()
	b.Run("Simple", func(b *testing.B) {
		server := newBenchServer(b, 0)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			resp := server.Execute(ctx, Request{
				Query: "{ myString }",
			})
			if len(resp.Errors) > 0 {
				b.Fatal(resp.Errors)
			}
		}
	})
	b.Run("Bound", func(b *testing.B) {
		server := newBenchServer(b, 0)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			resp := server.Execute(ctx, Request{
				Query: `{ a: bound(pattern: "yyyy") b: bound(pattern: null) }`,
			})
			if len(resp.Errors) > 0 {
				b.Fatal(resp.Errors)
			}
		}
	})
	b.Run("Cached", func(b *testing.B) {
		server := newBenchServer(b, 1<<20)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			resp := server.Execute(ctx, Request{
				Query: "{ myString }",
			})
			if len(resp.Errors) > 0 {
				b.Fatal(resp.Errors)
			}
		}
	})
	b.Run("ValidatedQuery", func(b *testing.B) {
		server := newBenchServer(b, 0)
		query, errs := server.Schema().Validate("{ myString }")
		if len(errs) > 0 {
			b.Fatal(errs)
		}
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			resp := server.Execute(ctx, Request{
				ValidatedQuery: query,
			})
			if len(resp.Errors) > 0 {
				b.Fatal(resp.Errors)
			}
		}
	})
}

func BenchmarkValidate(b *testing.B) {
	schema, err := ParseSchema(benchSchema)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, errs := schema.Validate("{ myString }")
		if len(errs) > 0 {
			b.Fatal(errs)
		}
	}
}

func BenchmarkUnmarshalRequestJSON(b *testing.B) {
	const source = `{"query": "query Foo($p: String) { bound(pattern: $p) }", "operationName": "Foo", "variables": {"p": "MMMM d"}}`
	data := []byte(source)
	b.SetBytes(int64(len(source)))
	b.ResetTimer()
	var req Request
	for i := 0; i < b.N; i++ {
		if err := json.Unmarshal(data, &req); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMarshalResponseJSON(b *testing.B) {
	resp := newBenchServer(b, 0).Execute(context.Background(), Request{
		Query: `{ myString bound(pattern: "MMMM d") }`,
	})
	if len(resp.Errors) > 0 {
		b.Fatal(resp.Errors)
	}
	b.ResetTimer()
	data, err := json.Marshal(resp)
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(data)))
	for i := 0; i < b.N-1; i++ {
		_, err := json.Marshal(resp)
		if err != nil {
			b.Fatal(err)
		}
	}
}
