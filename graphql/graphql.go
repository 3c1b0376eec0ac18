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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/golang/glog"
	"go.opencensus.io/trace"
	"golang.org/x/xerrors"
	"zombiezen.com/go/relativity/internal/gqlang"
	"zombiezen.com/go/relativity/internal/metrics"
)

// ResolveFunc computes the value of a single field. source is the value of
// the enclosing object, or the root value for top-level fields. A non-nil
// error becomes a field error in the response: the field is set to null and
// its siblings still resolve.
type ResolveFunc func(ctx context.Context, source interface{}, field *SelectedField) (interface{}, error)

// Server manages execution of GraphQL operations.
type Server struct {
	schema   *Schema
	query    reflect.Value
	mutation reflect.Value
	cache    *ristretto.Cache[string, *ValidatedQuery]
}

// ServerOptions holds optional parameters for NewServer.
type ServerOptions struct {
	// Query is the root value for query operations. It must follow the rules
	// laid out in Field Resolution in the package documentation. If nil, an
	// empty map is used, so every top-level field must be bound.
	Query interface{}
	// Mutation is the root value for mutation operations. It is only
	// permitted if the schema has a Mutation type. If nil, an empty map is
	// used.
	Mutation interface{}

	// CacheSize is the maximum total length in bytes of query text whose
	// validated form is kept for reuse. Zero disables the cache.
	CacheSize int64
}

// NewServer returns a new server that executes operations against the given
// schema. opts may be nil.
func NewServer(schema *Schema, opts *ServerOptions) (*Server, error) {
	if schema == nil {
		return nil, xerrors.New("new server: nil schema")
	}
	if opts == nil {
		opts = new(ServerOptions)
	}
	if opts.Mutation != nil && schema.mutation == nil {
		return nil, xerrors.New("new server: mutation object given, but no mutation type")
	}
	srv := &Server{
		schema:   schema,
		query:    rootValue(opts.Query),
		mutation: rootValue(opts.Mutation),
	}
	if opts.CacheSize > 0 {
		cache, err := ristretto.NewCache(&ristretto.Config[string, *ValidatedQuery]{
			// Roughly ten counters per entry, assuming queries average 250 bytes.
			NumCounters: max(opts.CacheSize/25, 1000),
			MaxCost:     opts.CacheSize,
			BufferItems: 64,
		})
		if err != nil {
			return nil, xerrors.Errorf("new server: %w", err)
		}
		srv.cache = cache
	}
	return srv, nil
}

func rootValue(v interface{}) reflect.Value {
	if v == nil {
		return reflect.ValueOf(map[string]interface{}{})
	}
	return reflect.ValueOf(v)
}

// Schema returns the schema passed to NewServer. It is safe to call from
// multiple goroutines.
func (srv *Server) Schema() *Schema {
	return srv.schema
}

// Close releases the server's cache. Execute must not be called after Close.
func (srv *Server) Close() {
	if srv.cache != nil {
		srv.cache.Close()
	}
}

// Execute runs a single GraphQL operation. It is safe to call Execute from
// multiple goroutines.
func (srv *Server) Execute(ctx context.Context, req Request) Response {
	ctx, span := trace.StartSpan(ctx, "graphql.Execute")
	defer span.End()
	start := time.Now()

	resp := srv.execute(ctx, req)
	if len(resp.Errors) > 0 {
		span.SetStatus(trace.Status{Code: trace.StatusCodeUnknown, Message: resp.Errors[0].Message})
	}
	metrics.RecordQuery(ctx, len(resp.Errors) == 0, time.Since(start))
	if glog.V(2) {
		glog.Infof("Executed operation %q in %v with %d error(s)", req.OperationName, time.Since(start), len(resp.Errors))
	}
	return resp
}

func (srv *Server) execute(ctx context.Context, req Request) Response {
	query := req.ValidatedQuery
	if query == nil {
		var errs []*ResponseError
		query, errs = srv.validate(ctx, req.Query)
		if len(errs) > 0 {
			return Response{Errors: errs}
		}
	} else if query.schema != srv.schema {
		return Response{
			Errors: []*ResponseError{
				{Message: "query validated with a schema different from the server"},
			},
		}
	}
	return srv.executeValidated(ctx, query, req.OperationName, req.Variables)
}

// validate validates a query, consulting the cache first.
func (srv *Server) validate(ctx context.Context, source string) (*ValidatedQuery, []*ResponseError) {
	if srv.cache != nil {
		if query, ok := srv.cache.Get(source); ok {
			metrics.RecordCacheHit(ctx)
			return query, nil
		}
	}
	query, errs := srv.schema.Validate(source)
	if len(errs) > 0 {
		return nil, errs
	}
	if srv.cache != nil {
		srv.cache.Set(source, query, int64(len(source)))
	}
	return query, nil
}

func (srv *Server) executeValidated(ctx context.Context, query *ValidatedQuery, operationName string, vars map[string]Input) Response {
	op := query.doc.FindOperation(operationName)
	if op == nil {
		if operationName == "" {
			return Response{
				Errors: []*ResponseError{
					{Message: "multiple operations; must specify operation name"},
				},
			}
		}
		return Response{
			Errors: []*ResponseError{
				{Message: fmt.Sprintf("no such operation %q", operationName)},
			},
		}
	}
	varValues, errs := coerceVariableValues(query.source, srv.schema.types, vars, op.VariableDefinitions)
	if len(errs) > 0 {
		resp := Response{}
		for _, err := range errs {
			resp.Errors = append(resp.Errors, toResponseError(err))
		}
		return resp
	}
	scope := newSelectionSetScope(query.source, query.doc, varValues)
	data, errs := srv.resolve(ctx, scope, op)
	resp := Response{
		Data: data,
	}
	for _, err := range errs {
		resp.Errors = append(resp.Errors, toResponseError(err))
	}
	return resp
}

func (srv *Server) resolve(ctx context.Context, scope *selectionSetScope, op *gqlang.Operation) (Value, []error) {
	gt, root, err := srv.operationFor(op.Type)
	if err != nil {
		return Value{}, []error{&ResponseError{
			Message: err.Error(),
			Locations: []Location{
				astPositionToLocation(op.Start.ToPosition(scope.source)),
			},
		}}
	}
	sel, errs := newSelectionSet(scope, gt, []*gqlang.SelectionSet{op.SelectionSet})
	if len(errs) > 0 {
		return Value{}, errs
	}
	return srv.schema.valueFromGo(ctx, root, gt, sel)
}

func (srv *Server) operationFor(opType gqlang.OperationType) (*gqlType, reflect.Value, error) {
	switch opType {
	case gqlang.Query:
		return srv.schema.query, srv.query, nil
	case gqlang.Mutation:
		if srv.schema.mutation == nil {
			return nil, reflect.Value{}, xerrors.New("unsupported operation type")
		}
		return srv.schema.mutation, srv.mutation, nil
	default:
		return nil, reflect.Value{}, xerrors.New("unsupported operation type")
	}
}

// Validate parses and type-checks a query against the schema. The returned
// query may be executed any number of times by servers using this schema.
func (schema *Schema) Validate(query string) (*ValidatedQuery, []*ResponseError) {
	doc, errs := gqlang.Parse(query)
	switch {
	case len(errs) > 0:
	case len(doc.Definitions) == 0:
		errs = []error{xerrors.New("empty document")}
	default:
		errs = schema.validateRequest(query, doc)
	}
	if len(errs) > 0 {
		respErrs := make([]*ResponseError, 0, len(errs))
		for _, err := range errs {
			respErrs = append(respErrs, toResponseError(err))
		}
		return nil, respErrs
	}
	return &ValidatedQuery{
		schema: schema,
		source: query,
		doc:    doc,
	}, nil
}

// ValidatedQuery is a query that has been parsed and type-checked.
type ValidatedQuery struct {
	schema *Schema
	source string
	doc    *gqlang.Document
}

// TypeOf returns the type of the operation with the given name or zero if no
// such operation exists. If the operation name is empty and there is only one
// operation in the query, then TypeOf returns the type of that operation.
func (query *ValidatedQuery) TypeOf(operationName string) OperationType {
	op := query.doc.FindOperation(operationName)
	if op == nil {
		return 0
	}
	return operationTypeFromAST(op.Type)
}

// OperationType represents the keywords used to declare operations.
type OperationType int

// Types of operations.
const (
	QueryOperation OperationType = 1 + iota
	MutationOperation
	SubscriptionOperation
)

func operationTypeFromAST(typ gqlang.OperationType) OperationType {
	switch typ {
	case gqlang.Query:
		return QueryOperation
	case gqlang.Mutation:
		return MutationOperation
	case gqlang.Subscription:
		return SubscriptionOperation
	default:
		panic("unknown operation type")
	}
}

// String returns the keyword corresponding to the operation type.
func (typ OperationType) String() string {
	switch typ {
	case QueryOperation:
		return "query"
	case MutationOperation:
		return "mutation"
	case SubscriptionOperation:
		return "subscription"
	default:
		return fmt.Sprintf("OperationType(%d)", int(typ))
	}
}

// Request holds the inputs for a GraphQL execution.
type Request struct {
	// Query is the GraphQL document text.
	Query string `json:"query"`
	// If ValidatedQuery is not nil, then it will be used instead of the Query field.
	ValidatedQuery *ValidatedQuery `json:"-"`
	// If OperationName is not empty, then the operation with the given name will
	// be executed. Otherwise, the query must only include a single operation.
	OperationName string `json:"operationName,omitempty"`
	// Variables specifies the values of the operation's variables.
	Variables map[string]Input `json:"variables,omitempty"`
}

// IsQuery reports whether the request selects a query operation. Requests
// that fail to parse or name no matching operation are reported as queries
// so that execution can report the problem.
func (req Request) IsQuery() bool {
	if req.ValidatedQuery != nil {
		typ := req.ValidatedQuery.TypeOf(req.OperationName)
		return typ == 0 || typ == QueryOperation
	}
	doc, errs := gqlang.Parse(req.Query)
	if len(errs) > 0 {
		return true
	}
	op := doc.FindOperation(req.OperationName)
	return op == nil || op.Type == gqlang.Query
}

// Response holds the output of a GraphQL operation.
type Response struct {
	Data   Value            `json:"data"`
	Errors []*ResponseError `json:"errors,omitempty"`
}

// ValueFor returns the value at the given path of object keys in the
// response data. It returns a null Value if there is none.
func (resp Response) ValueFor(path ...string) Value {
	v := resp.Data
	for _, key := range path {
		v = v.ValueFor(key)
	}
	return v
}

// MarshalJSON converts the response to JSON format.
func (resp Response) MarshalJSON() ([]byte, error) {
	var buf []byte
	buf = append(buf, '{')
	if len(resp.Errors) > 0 {
		buf = append(buf, `"errors":`...)
		errorsData, err := json.Marshal(resp.Errors)
		if err != nil {
			return buf, xerrors.Errorf("marshal response: %w", err)
		}
		buf = append(buf, errorsData...)
		if !resp.Data.IsNull() {
			buf = append(buf, ',')
		}
	}
	if !resp.Data.IsNull() {
		buf = append(buf, `"data":`...)
		data, err := json.Marshal(resp.Data)
		if err != nil {
			return buf, xerrors.Errorf("marshal response: %w", err)
		}
		buf = append(buf, data...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// ResponseError describes an error that occurred during the processing of a
// GraphQL operation.
type ResponseError struct {
	Message   string        `json:"message"`
	Locations []Location    `json:"locations,omitempty"`
	Path      []PathSegment `json:"path,omitempty"`
}

// Error returns e.Message.
func (e *ResponseError) Error() string {
	return e.Message
}

func toResponseError(e error) *ResponseError {
	re, ok := e.(*ResponseError)
	if ok {
		// e is a *ResponseError.
		return re
	}
	// Build a new response error.
	re = &ResponseError{
		Message: e.Error(),
	}
	unknownChain := e
	for ; e != nil; e = xerrors.Unwrap(e) {
		switch e := e.(type) {
		case *ResponseError:
			re.Locations = append(re.Locations, e.Locations...)
			re.Path = append(re.Path, e.Path...)
			unknownChain = nil // leaf
		case *fieldError:
			re.Path = append(re.Path, PathSegment{Field: e.key})
			re.Locations = append(re.Locations, e.locs...)
			unknownChain = e.Unwrap()
		case *listElementError:
			re.Path = append(re.Path, PathSegment{ListIndex: e.idx})
			unknownChain = e.Unwrap()
		}
	}
	if pos, ok := gqlang.ErrorPosition(unknownChain); ok {
		re.Locations = []Location{astPositionToLocation(pos)}
	}
	return re
}

func hasLocation(e error) bool {
	var re *ResponseError
	if xerrors.As(e, &re) && len(re.Locations) > 0 {
		return true
	}
	var fe *fieldError
	if xerrors.As(e, &fe) {
		return true
	}
	_, ok := gqlang.ErrorPos(e)
	return ok
}

type fieldError struct {
	key  string
	locs []Location
	err  error
}

func wrapFieldError(key string, loc Location, err error) error {
	if key == "" {
		panic("empty key")
	}
	if loc.Line < 1 || loc.Column < 1 {
		panic("invalid location")
	}
	var locs []Location
	if !hasLocation(err) {
		locs = []Location{loc}
	}
	return &fieldError{
		key:  key,
		locs: locs,
		err:  err,
	}
}

func (e *fieldError) Error() string {
	return fmt.Sprintf("field %s: %v", e.key, e.err)
}

func (e *fieldError) Unwrap() error {
	return e.err
}

type listElementError struct {
	idx int
	err error
}

func (e *listElementError) Error() string {
	return fmt.Sprintf("list[%d]: %v", e.idx, e.err)
}

func (e *listElementError) Unwrap() error {
	return e.err
}

// Location identifies a position in a GraphQL document. Line and column
// are 1-based.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func astPositionToLocation(pos gqlang.Position) Location {
	return Location{
		Line:   pos.Line,
		Column: pos.Column,
	}
}

// String returns the location in the form "line:col".
func (loc Location) String() string {
	return fmt.Sprintf("%d:%d", loc.Line, loc.Column)
}

// PathSegment identifies a field or array index in an output object.
type PathSegment struct {
	Field     string
	ListIndex int
}

// String returns the segment's index or field name as a string.
func (seg PathSegment) String() string {
	if seg.Field == "" {
		return strconv.Itoa(seg.ListIndex)
	}
	return seg.Field
}

// MarshalJSON converts the segment to a JSON integer or a JSON string.
func (seg PathSegment) MarshalJSON() ([]byte, error) {
	if seg.Field == "" {
		return strconv.AppendInt(nil, int64(seg.ListIndex), 10), nil
	}
	return json.Marshal(seg.Field)
}

// UnmarshalJSON converts JSON strings into field segments and JSON numbers into
// list index segments.
func (seg *PathSegment) UnmarshalJSON(data []byte) error {
	if !bytes.HasPrefix(data, []byte(`"`)) {
		i, err := json.Number(string(data)).Int64()
		if err != nil {
			return err
		}
		seg.ListIndex = int(i)
		return nil
	}
	return json.Unmarshal(data, &seg.Field)
}
