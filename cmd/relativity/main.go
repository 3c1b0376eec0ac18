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

// Command relativity serves the relativity GraphQL API over HTTP.
package main

import (
	"context"
	goflag "flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"go.opencensus.io/plugin/ochttp"
	"go.opencensus.io/trace"
	"go.opencensus.io/zpages"
	"golang.org/x/xerrors"
	"zombiezen.com/go/relativity/graphql"
	"zombiezen.com/go/relativity/graphqlhttp"
	"zombiezen.com/go/relativity/internal/metrics"
	"zombiezen.com/go/relativity/relativity"
)

func main() {
	// glog reads its flags from the Go flag set.
	if err := goflag.CommandLine.Parse(nil); err != nil {
		glog.Exitf("%v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cmd, err := newRootCmd(ctx)
	if err != nil {
		stop()
		glog.Exitf("%v", err)
	}
	err = cmd.Execute()
	stop()
	glog.Flush()
	if err != nil {
		glog.Exitf("Error: %v", err)
	}
}

func newRootCmd(ctx context.Context) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:           "relativity",
		Short:         "Serve the relativity GraphQL API",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := cmd.Flags()
	registerFlags(flags)
	flags.AddGoFlagSet(goflag.CommandLine)
	conf, err := newConf(flags)
	if err != nil {
		return nil, err
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(conf)
		if err != nil {
			return err
		}
		return run(ctx, cfg)
	}
	return cmd, nil
}

// run loads the schema and serves until ctx is done.
func run(ctx context.Context, cfg *Config) error {
	schema, err := relativity.LoadSchema()
	if err != nil {
		return err
	}
	glog.Infof("Loaded schema %s", schema.Name())
	server, err := graphql.NewServer(schema, &graphql.ServerOptions{CacheSize: cfg.CacheSize})
	if err != nil {
		return err
	}
	defer server.Close()

	trace.ApplyConfig(trace.Config{
		DefaultSampler:             trace.ProbabilitySampler(cfg.Trace),
		MaxAnnotationEventsPerSpan: 256,
	})
	handler, err := newHandler(server)
	if err != nil {
		return err
	}
	httpServer := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return xerrors.Errorf("listen: %w", err)
	}
	glog.Infof("Bringing up GraphQL HTTP API at http://%s/graphql", ln.Addr())

	errc := make(chan error, 1)
	go func() {
		errc <- httpServer.Serve(ln)
	}()
	select {
	case err := <-errc:
		return xerrors.Errorf("GraphQL server failed: %w", err)
	case <-ctx.Done():
	}
	glog.Infof("Shutting down; waiting up to %v for in-flight requests", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return xerrors.Errorf("shutdown: %w", err)
	}
	return nil
}

// newHandler returns the routes served by the command.
func newHandler(server *graphql.Server) (http.Handler, error) {
	if err := metrics.Register(); err != nil {
		return nil, err
	}
	pe, err := metrics.NewExporter("relativity")
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/graphql", graphqlhttp.NewHandler(server))
	mux.Handle("/debug/prometheus_metrics", pe)
	zpages.Handle(mux, "/z")
	return &ochttp.Handler{Handler: mux}, nil
}
