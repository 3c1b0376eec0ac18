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

// Package relativity provides the relativity GraphQL schema and its resolvers.
package relativity

import (
	"context"
	_ "embed"
	"time"

	"github.com/golang/glog"
	"zombiezen.com/go/relativity/graphql"
	"zombiezen.com/go/relativity/internal/datefmt"
)

// SchemaName is the name of the bundled schema document.
const SchemaName = "schema.graphqls"

//go:embed schema.graphqls
var schemaSource string

// Author is the value of Relativity.author.
const Author = "Albert Einstein"

var (
	// SpecialDate is the publication date of the special theory of relativity.
	SpecialDate = time.Date(1905, time.September, 26, 0, 0, 0, 0, time.UTC)
	// GeneralDate is the presentation date of the general theory of relativity.
	GeneralDate = time.Date(1915, time.November, 25, 0, 0, 0, 0, time.UTC)
)

// Source returns the bundled schema document.
func Source() string {
	return schemaSource
}

// Bindings returns the resolvers for the bundled schema. Each call returns a
// new table.
func Bindings() graphql.Bindings {
	return graphql.Bindings{
		{Type: "Query", Field: "relativity"}:       resolveRelativity,
		{Type: "Relativity", Field: "specialDate"}: dateResolver(SpecialDate),
		{Type: "Relativity", Field: "generalDate"}: dateResolver(GeneralDate),
	}
}

// LoadSchema loads the bundled schema with its resolvers.
func LoadSchema() (*graphql.Schema, error) {
	return graphql.LoadSchema(SchemaName, schemaSource, Bindings())
}

func resolveRelativity(ctx context.Context, source interface{}, field *graphql.SelectedField) (interface{}, error) {
	if glog.V(2) {
		if aliases := field.SelectedAliases(); aliases != nil {
			for pair := aliases.Oldest(); pair != nil; pair = pair.Next() {
				glog.Infof("%s selects %s as %q", field.Key(), pair.Value, pair.Key)
			}
		}
	}
	return map[string]interface{}{
		"author": Author,
	}, nil
}

func dateResolver(date time.Time) graphql.ResolveFunc {
	return func(ctx context.Context, source interface{}, field *graphql.SelectedField) (interface{}, error) {
		// An omitted pattern and an explicit null both leave pattern invalid.
		var pattern graphql.NullString
		if err := field.Arg("pattern").Convert(&pattern); err != nil {
			return nil, err
		}
		if !pattern.Valid {
			return date.Format(datefmt.ISODate), nil
		}
		return datefmt.Format(date, pattern.S)
	}
}
