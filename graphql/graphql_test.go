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
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"golang.org/x/xerrors"
)

const testSchema = `
	type Query {
		user: User!
		maybeUser: User
		echo(s: String, n: Int = 7): String
		fail: String
		boom: String
		count: Int
	}

	type User {
		name: String!
		nickname: String
	}

	type Mutation {
		rename(name: String!): User
	}
`

type testUser struct {
	Name     string
	Nickname string
}

func newTestServer(t *testing.T, opts *ServerOptions) *Server {
	t.Helper()
	schema, err := LoadSchema("test.graphqls", testSchema, Bindings{
		{Type: "Query", Field: "user"}: func(ctx context.Context, source interface{}, field *SelectedField) (interface{}, error) {
			return testUser{Name: "Jane Doe", Nickname: "JD"}, nil
		},
		{Type: "Query", Field: "maybeUser"}: func(ctx context.Context, source interface{}, field *SelectedField) (interface{}, error) {
			return map[string]interface{}{"nickname": "nameless"}, nil
		},
		{Type: "Query", Field: "echo"}: func(ctx context.Context, source interface{}, field *SelectedField) (interface{}, error) {
			var s NullString
			if err := field.Arg("s").Convert(&s); err != nil {
				return nil, err
			}
			if !s.Valid {
				return "<none>", nil
			}
			return s.S, nil
		},
		{Type: "Query", Field: "fail"}: func(ctx context.Context, source interface{}, field *SelectedField) (interface{}, error) {
			return nil, xerrors.New("bad field")
		},
		{Type: "Query", Field: "boom"}: func(ctx context.Context, source interface{}, field *SelectedField) (interface{}, error) {
			panic("boom")
		},
		{Type: "Mutation", Field: "rename"}: func(ctx context.Context, source interface{}, field *SelectedField) (interface{}, error) {
			return map[string]interface{}{"name": field.Arg("name").Scalar()}, nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	srv, err := NewServer(schema, opts)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(srv.Close)
	return srv
}

func TestExecute(t *testing.T) {
	tests := []struct {
		name     string
		request  Request
		want     interface{}
		wantErrs []*ResponseError
		errsOnly bool
	}{
		{
			name:    "Object",
			request: Request{Query: `{ user { name nickname } }`},
			want: map[string]interface{}{
				"user": map[string]interface{}{
					"name":     "Jane Doe",
					"nickname": "JD",
				},
			},
		},
		{
			name:    "Alias",
			request: Request{Query: `{ u: user { n: name } other: user { name } }`},
			want: map[string]interface{}{
				"u":     map[string]interface{}{"n": "Jane Doe"},
				"other": map[string]interface{}{"name": "Jane Doe"},
			},
		},
		{
			name:    "Argument",
			request: Request{Query: `{ a: echo(s: "hi") b: echo }`},
			want: map[string]interface{}{
				"a": "hi",
				"b": "<none>",
			},
		},
		{
			name:    "NullLiteral",
			request: Request{Query: `{ echo(s: null) }`},
			want:    map[string]interface{}{"echo": "<none>"},
		},
		{
			name: "Variables",
			request: Request{
				Query:     `query($s: String) { echo(s: $s) }`,
				Variables: map[string]Input{"s": ScalarInput("from var")},
			},
			want: map[string]interface{}{"echo": "from var"},
		},
		{
			name: "NullVariable",
			request: Request{
				Query:     `query($s: String = "default") { echo(s: $s) }`,
				Variables: map[string]Input{"s": {}},
			},
			want: map[string]interface{}{"echo": "<none>"},
		},
		{
			name: "OperationName",
			request: Request{
				Query:         `query A { a: echo(s: "A") } query B { b: echo(s: "B") }`,
				OperationName: "B",
			},
			want: map[string]interface{}{"b": "B"},
		},
		{
			name:    "UnboundFieldWithoutParent",
			request: Request{Query: `{ count }`},
			want:    map[string]interface{}{"count": nil},
		},
		{
			name:    "Mutation",
			request: Request{Query: `mutation { rename(name: "Alice") { name } }`},
			want: map[string]interface{}{
				"rename": map[string]interface{}{"name": "Alice"},
			},
		},
		{
			name:    "Typename",
			request: Request{Query: `{ __typename user { __typename } }`},
			want: map[string]interface{}{
				"__typename": "Query",
				"user":       map[string]interface{}{"__typename": "User"},
			},
		},
		{
			name: "Fragments",
			request: Request{Query: `
				{ ...EchoFragment ... on Query { other: echo(s: "inline") } }
				fragment EchoFragment on Query { echo(s: "spread") }
			`},
			want: map[string]interface{}{
				"echo":  "spread",
				"other": "inline",
			},
		},
		{
			name: "SkipAndInclude",
			request: Request{
				Query: `query($no: Boolean!) {
					a: echo(s: "a") @skip(if: true)
					b: echo(s: "b") @include(if: $no)
					c: echo(s: "c") @include(if: true) @skip(if: $no)
				}`,
				Variables: map[string]Input{"no": ScalarInput("false")},
			},
			want: map[string]interface{}{"c": "c"},
		},
		{
			name:    "ResolverError",
			request: Request{Query: `{ fail echo(s: "ok") }`},
			want: map[string]interface{}{
				"fail": nil,
				"echo": "ok",
			},
			wantErrs: []*ResponseError{{
				Message:   "field fail: bad field",
				Locations: []Location{{Line: 1, Column: 3}},
				Path:      []PathSegment{{Field: "fail"}},
			}},
		},
		{
			name:    "ResolverPanic",
			request: Request{Query: `{ boom echo(s: "ok") }`},
			want: map[string]interface{}{
				"boom": nil,
				"echo": "ok",
			},
			wantErrs: []*ResponseError{{
				Message:   "field boom: server error: resolver for Query.boom panicked",
				Locations: []Location{{Line: 1, Column: 3}},
				Path:      []PathSegment{{Field: "boom"}},
			}},
		},
		{
			name:    "NullPropagation",
			request: Request{Query: `{ maybeUser { name } }`},
			want: map[string]interface{}{
				"maybeUser": nil,
			},
			wantErrs: []*ResponseError{{
				Message:   "field maybeUser: field name: cannot convert nil to String!",
				Locations: []Location{{Line: 1, Column: 15}},
				Path:      []PathSegment{{Field: "maybeUser"}, {Field: "name"}},
			}},
		},
		{
			name:     "SyntaxError",
			request:  Request{Query: `{ user {`},
			errsOnly: true,
		},
		{
			name:     "UnknownField",
			request:  Request{Query: `{ user { email } }`},
			errsOnly: true,
		},
		{
			name:     "MissingRequiredArgument",
			request:  Request{Query: `mutation { rename { name } }`},
			errsOnly: true,
		},
		{
			name:     "UnknownDirective",
			request:  Request{Query: `{ echo @shout }`},
			errsOnly: true,
		},
		{
			name:     "DirectiveOnOperation",
			request:  Request{Query: `query @skip(if: true) { echo }`},
			errsOnly: true,
		},
		{
			name: "NonNullVariableMissing",
			request: Request{
				Query: `query($no: Boolean!) { echo @skip(if: $no) }`,
			},
			errsOnly: true,
		},
		{
			name:     "Empty",
			request:  Request{Query: ``},
			errsOnly: true,
		},
	}
	for _, cacheSize := range []int64{0, 1 << 20} {
		srv := newTestServer(t, &ServerOptions{CacheSize: cacheSize})
		for _, test := range tests {
			t.Run(fmt.Sprintf("%s/Cache%d", test.name, cacheSize), func(t *testing.T) {
				// Run twice so that cached queries are exercised.
				for i := 0; i < 2; i++ {
					resp := srv.Execute(context.Background(), test.request)
					if test.errsOnly {
						if len(resp.Errors) == 0 {
							t.Errorf("Execute(...) returned no errors; data = %v", resp.Data.GoValue())
						}
						if !resp.Data.IsNull() {
							t.Errorf("Execute(...).Data = %v; want null", resp.Data.GoValue())
						}
						for _, e := range resp.Errors {
							if len(e.Locations) == 0 && test.request.Query != "" {
								t.Errorf("error %q has no location", e.Message)
							}
						}
						continue
					}
					if diff := cmp.Diff(test.wantErrs, resp.Errors, cmpopts.EquateEmpty()); diff != "" {
						t.Errorf("Execute(...).Errors (-want +got):\n%s", diff)
					}
					if diff := cmp.Diff(test.want, resp.Data.GoValue()); diff != "" {
						t.Errorf("Execute(...).Data (-want +got):\n%s", diff)
					}
				}
			})
		}
	}
}

func TestExecuteStructRoot(t *testing.T) {
	schema, err := ParseSchema(`
		type Query {
			user: User!
			greeting(name: String = "World"): String!
			names: [String!]!
		}

		type User {
			name: String!
		}`)
	if err != nil {
		t.Fatal(err)
	}
	srv, err := NewServer(schema, &ServerOptions{Query: structQuery{}})
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Close()
	ctx := context.Background()
	resp := srv.Execute(ctx, Request{
		Query: `{ user { name } greeting other: greeting(name: "Gopher") names }`,
	})
	if len(resp.Errors) > 0 {
		t.Fatal(resp.Errors)
	}
	got := resp.Data.GoValue()
	want := map[string]interface{}{
		"user": map[string]interface{}{
			"name": "Jane Doe",
		},
		"greeting": "Hello, World!",
		"other":    "Hello, Gopher!",
		"names":    []interface{}{"Alice", "Bob"},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Execute result (-want +got):\n%s", diff)
	}
}

type structQuery struct{}

func (structQuery) User(ctx context.Context, args map[string]Value, sel *SelectionSet) (testUser, error) {
	return testUser{Name: "Jane Doe"}, nil
}

func (structQuery) Greeting(args map[string]Value) string {
	return "Hello, " + args["name"].Scalar() + "!"
}

func (structQuery) Names() []string {
	return []string{"Alice", "Bob"}
}

func TestExecuteValidatedQuery(t *testing.T) {
	srv := newTestServer(t, nil)
	query, errs := srv.Schema().Validate(`query($s: String) { echo(s: $s) }`)
	if len(errs) > 0 {
		t.Fatal(errs)
	}
	if got := query.TypeOf(""); got != QueryOperation {
		t.Errorf("query.TypeOf(\"\") = %v; want %v", got, QueryOperation)
	}
	for _, s := range []string{"first", "second"} {
		resp := srv.Execute(context.Background(), Request{
			ValidatedQuery: query,
			Variables:      map[string]Input{"s": ScalarInput(s)},
		})
		if len(resp.Errors) > 0 {
			t.Fatal(resp.Errors)
		}
		if got := resp.ValueFor("echo").Scalar(); got != s {
			t.Errorf("echo = %q; want %q", got, s)
		}
	}

	other := newTestServer(t, nil)
	resp := other.Execute(context.Background(), Request{ValidatedQuery: query})
	if len(resp.Errors) == 0 {
		t.Error("Executing a query validated by another schema did not return an error")
	}
}

func TestNewServer(t *testing.T) {
	if _, err := NewServer(nil, nil); err == nil {
		t.Error("NewServer(nil, nil) did not return an error")
	}
	schema, err := ParseSchema(`type Query { foo: String }`)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewServer(schema, &ServerOptions{Mutation: structQuery{}}); err == nil {
		t.Error("NewServer with a mutation root but no Mutation type did not return an error")
	}
}

func TestSelectedFieldAccessors(t *testing.T) {
	type call struct {
		Coordinate FieldCoordinate
		Name       string
		Key        string
		Source     interface{}
		S          interface{}
		N          interface{}
	}
	var calls []call
	record := func(ctx context.Context, source interface{}, field *SelectedField) (interface{}, error) {
		calls = append(calls, call{
			Coordinate: field.Coordinate(),
			Name:       field.Name(),
			Key:        field.Key(),
			Source:     source,
			S:          field.Arg("s").GoValue(),
			N:          field.Arg("n").GoValue(),
		})
		return "x", nil
	}
	schema, err := LoadSchema("field.graphqls", testSchema, Bindings{
		{Type: "Query", Field: "echo"}: record,
		{Type: "Query", Field: "user"}: func(ctx context.Context, source interface{}, field *SelectedField) (interface{}, error) {
			return map[string]interface{}{"name": "Jane Doe"}, nil
		},
		{Type: "User", Field: "nickname"}: record,
	})
	if err != nil {
		t.Fatal(err)
	}
	srv, err := NewServer(schema, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Close()
	resp := srv.Execute(context.Background(), Request{
		Query: `{ e: echo(s: "hi") user { nick: nickname } }`,
	})
	if len(resp.Errors) > 0 {
		t.Fatal(resp.Errors)
	}
	want := []call{
		{
			Coordinate: FieldCoordinate{Type: "Query", Field: "echo"},
			Name:       "echo",
			Key:        "e",
			Source:     map[string]interface{}{},
			S:          "hi",
			N:          "7",
		},
		{
			Coordinate: FieldCoordinate{Type: "User", Field: "nickname"},
			Name:       "nickname",
			Key:        "nick",
			Source:     map[string]interface{}{"name": "Jane Doe"},
		},
	}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Errorf("resolver calls (-want +got):\n%s", diff)
	}
}

func TestRequestIsQuery(t *testing.T) {
	tests := []struct {
		request Request
		want    bool
	}{
		{Request{Query: `{ user { name } }`}, true},
		{Request{Query: `query { user { name } }`}, true},
		{Request{Query: `mutation { rename(name: "x") { name } }`}, false},
		{Request{Query: `query A { echo } mutation B { rename(name: "x") { name } }`, OperationName: "A"}, true},
		{Request{Query: `query A { echo } mutation B { rename(name: "x") { name } }`, OperationName: "B"}, false},
		{Request{Query: `query A { echo } mutation B { rename(name: "x") { name } }`}, true},
		{Request{Query: `{`}, true},
	}
	for _, test := range tests {
		if got := test.request.IsQuery(); got != test.want {
			t.Errorf("Request{Query: %q, OperationName: %q}.IsQuery() = %t; want %t",
				test.request.Query, test.request.OperationName, got, test.want)
		}
	}
}

func TestResponseJSON(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := srv.Execute(context.Background(), Request{Query: `{ fail echo(s: "ok") }`})
	got, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	const want = `{"errors":[{"message":"field fail: bad field","locations":[{"line":1,"column":3}],"path":["fail"]}],"data":{"fail":null,"echo":"ok"}}`
	if string(got) != want {
		t.Errorf("json.Marshal(resp) = %s; want %s", got, want)
	}

	var decoded struct {
		Errors []*ResponseError `json:"errors"`
	}
	if err := json.Unmarshal(got, &decoded); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(resp.Errors, decoded.Errors); diff != "" {
		t.Errorf("errors after round trip (-want +got):\n%s", diff)
	}
}

func TestPathSegmentJSON(t *testing.T) {
	path := []PathSegment{{Field: "users"}, {ListIndex: 2}, {Field: "name"}}
	got, err := json.Marshal(path)
	if err != nil {
		t.Fatal(err)
	}
	const want = `["users",2,"name"]`
	if string(got) != want {
		t.Errorf("json.Marshal(path) = %s; want %s", got, want)
	}
	var decoded []PathSegment
	if err := json.Unmarshal(got, &decoded); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(path, decoded); diff != "" {
		t.Errorf("path after round trip (-want +got):\n%s", diff)
	}
}

func TestResponseValueFor(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := srv.Execute(context.Background(), Request{Query: `{ user { name } }`})
	if len(resp.Errors) > 0 {
		t.Fatal(resp.Errors)
	}
	if got := resp.ValueFor("user", "name").Scalar(); got != "Jane Doe" {
		t.Errorf(`ValueFor("user", "name") = %q; want "Jane Doe"`, got)
	}
	if got := resp.ValueFor("missing"); !got.IsNull() {
		t.Errorf(`ValueFor("missing") = %v; want null`, got.GoValue())
	}
	if got := resp.ValueFor("missing", "name"); !got.IsNull() {
		t.Errorf(`ValueFor("missing", "name") = %v; want null`, got.GoValue())
	}
}
