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

// Package graphqlhttp provides functions for serving GraphQL over HTTP as
// described in https://graphql.org/learn/serving-over-http/.
package graphqlhttp

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/golang/glog"
	jsoniter "github.com/json-iterator/go"
	"go.opencensus.io/trace"
	"golang.org/x/xerrors"
	"zombiezen.com/go/relativity/graphql"
)

// jsonAPI encodes response bodies and decodes request bodies.
var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// MaxRequestSize is the largest request body, after decompression, that
// Parse accepts.
const MaxRequestSize = 1 << 20

// Handler serves GraphQL HTTP requests by executing them on its server.
type Handler struct {
	server *graphql.Server
}

// NewHandler returns a new handler that sends requests to the given server.
func NewHandler(server *graphql.Server) *Handler {
	return &Handler{server: server}
}

// ServeHTTP executes a GraphQL request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, span := trace.StartSpan(r.Context(), "graphqlhttp.ServeHTTP")
	defer span.End()
	gqlRequest, err := Parse(r)
	if err != nil {
		code := StatusCode(err)
		if code == http.StatusMethodNotAllowed {
			w.Header().Set("Allow", "GET, HEAD, POST")
		}
		span.SetStatus(trace.Status{Code: trace.StatusCodeInvalidArgument, Message: err.Error()})
		http.Error(w, err.Error(), code)
		return
	}
	gqlResponse := h.execute(ctx, gqlRequest)
	WriteResponse(w, r, gqlResponse)
}

// execute runs the request, converting a panic into an error response.
func (h *Handler) execute(ctx context.Context, req graphql.Request) (resp graphql.Response) {
	defer func() {
		if p := recover(); p != nil {
			glog.Errorf("panic while executing GraphQL request: %v\n%s", p, debug.Stack())
			resp = graphql.Response{
				Errors: []*graphql.ResponseError{{Message: "internal server error"}},
			}
		}
	}()
	return h.server.Execute(ctx, req)
}

// Parse parses a GraphQL HTTP request. If an error is returned, StatusCode
// will return the proper HTTP status code to use.
//
// Request methods may be GET, HEAD, or POST. If the method is not one of these,
// then an error is returned that will make StatusCode return
// http.StatusMethodNotAllowed. GET and HEAD requests may only contain queries.
// POST bodies may be gzip-compressed.
func Parse(r *http.Request) (graphql.Request, error) {
	request := graphql.Request{
		Query: r.URL.Query().Get("query"),
	}
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		params := r.URL.Query()
		if err := parseParams(&request, params); err != nil {
			return graphql.Request{}, err
		}
		if !request.IsQuery() {
			return graphql.Request{}, &httpError{
				msg:  "parse graphql request: GET requests must be queries",
				code: http.StatusBadRequest,
			}
		}
	case http.MethodPost:
		rawContentType := r.Header.Get("Content-Type")
		contentType, _, err := mime.ParseMediaType(rawContentType)
		if err != nil {
			return graphql.Request{}, &httpError{
				msg:  "parse graphql request: invalid content type: " + rawContentType,
				code: http.StatusUnsupportedMediaType,
			}
		}
		if contentType != "application/json" &&
			contentType != "application/x-www-form-urlencoded" &&
			contentType != "application/graphql" {
			return graphql.Request{}, &httpError{
				msg:  "parse graphql request: unrecognized content type: " + contentType,
				code: http.StatusUnsupportedMediaType,
			}
		}
		data, err := readBody(r)
		if err != nil {
			return graphql.Request{}, err
		}
		switch contentType {
		case "application/json":
			if err := jsonAPI.Unmarshal(data, &request); err != nil {
				return graphql.Request{}, &httpError{
					msg:   "parse graphql request: ",
					code:  http.StatusBadRequest,
					cause: err,
				}
			}
		case "application/x-www-form-urlencoded":
			params, err := url.ParseQuery(string(data))
			if err != nil {
				return graphql.Request{}, &httpError{
					msg:   "parse graphql request: ",
					code:  http.StatusBadRequest,
					cause: err,
				}
			}
			if err := parseParams(&request, params); err != nil {
				return graphql.Request{}, err
			}
		case "application/graphql":
			if len(data) > 0 {
				request.Query = string(data)
			}
		}
	default:
		return graphql.Request{}, &httpError{
			msg:  fmt.Sprintf("parse graphql request: method %s not allowed", r.Method),
			code: http.StatusMethodNotAllowed,
		}
	}
	return request, nil
}

// parseParams fills in request from URL-encoded parameters.
func parseParams(request *graphql.Request, params url.Values) error {
	if q := params.Get("query"); q != "" {
		request.Query = q
	}
	if v := params.Get("variables"); v != "" {
		if err := jsonAPI.Unmarshal([]byte(v), &request.Variables); err != nil {
			return &httpError{
				msg:   "parse graphql request: variables: ",
				code:  http.StatusBadRequest,
				cause: err,
			}
		}
	}
	request.OperationName = params.Get("operationName")
	return nil
}

func readBody(r *http.Request) ([]byte, error) {
	body := io.Reader(r.Body)
	switch enc := strings.ToLower(r.Header.Get("Content-Encoding")); enc {
	case "", "identity":
	case "gzip":
		zr, err := gzip.NewReader(r.Body)
		if err != nil {
			return nil, &httpError{
				msg:   "parse graphql request: ",
				code:  http.StatusBadRequest,
				cause: err,
			}
		}
		defer zr.Close()
		body = zr
	default:
		return nil, &httpError{
			msg:  "parse graphql request: unsupported content encoding: " + enc,
			code: http.StatusUnsupportedMediaType,
		}
	}
	data, err := io.ReadAll(io.LimitReader(body, MaxRequestSize+1))
	if err != nil {
		return nil, &httpError{
			msg:   "parse graphql request: ",
			code:  http.StatusBadRequest,
			cause: err,
		}
	}
	if len(data) > MaxRequestSize {
		return nil, &httpError{
			msg:  fmt.Sprintf("parse graphql request: body larger than %d bytes", MaxRequestSize),
			code: http.StatusRequestEntityTooLarge,
		}
	}
	return data, nil
}

type httpError struct {
	msg   string
	code  int
	cause error
}

func (e *httpError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return e.msg + e.cause.Error()
}

func (e *httpError) Unwrap() error {
	return e.cause
}

// StatusCode returns the HTTP status code an error indicates.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var e *httpError
	if !xerrors.As(err, &e) {
		return http.StatusInternalServerError
	}
	return e.code
}

// WriteResponse writes a GraphQL result as an HTTP response. The body is
// gzip-compressed if r accepts it.
func WriteResponse(w http.ResponseWriter, r *http.Request, response graphql.Response) {
	payload, err := jsonAPI.Marshal(response)
	if err != nil {
		glog.Errorf("Marshal GraphQL response: %v", err)
		http.Error(w, "GraphQL marshal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Add("Vary", "Accept-Encoding")
	if acceptsGzip(r) {
		if compressed, err := gzipBytes(payload); err == nil {
			payload = compressed
			w.Header().Set("Content-Encoding", "gzip")
		}
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
	if _, err := w.Write(payload); err != nil {
		if glog.V(2) {
			glog.Infof("Write GraphQL response: %v", err)
		}
	}
}

func gzipBytes(data []byte) ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := gzip.NewWriter(buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func acceptsGzip(r *http.Request) bool {
	if r == nil {
		return false
	}
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		coding, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(coding), "gzip") {
			continue
		}
		params = strings.ReplaceAll(params, " ", "")
		return params != "q=0" && params != "q=0.0" && params != "q=0.00" && params != "q=0.000"
	}
	return false
}
