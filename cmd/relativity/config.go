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

package main

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/xerrors"
)

const envPrefix = "RELATIVITY"

// Config is the server's configuration after flags, environment variables,
// and the configuration file have been merged.
type Config struct {
	Addr            string        `validate:"required,hostname_port"`
	CacheSize       int64         `validate:"gte=0"`
	Trace           float64       `validate:"gte=0,lte=1"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
}

func registerFlags(flags *pflag.FlagSet) {
	flags.String("addr", ":8080", "Address to serve HTTP on")
	flags.Int64("cache_size", 16<<20,
		"Total bytes of query text whose parsed form is cached. 0 disables the cache.")
	flags.Float64("trace", 1.0, "The ratio of queries to trace.")
	flags.Duration("shutdown_timeout", 10*time.Second,
		"How long to wait for in-flight requests when shutting down.")
	flags.String("config", "",
		"Configuration file. Takes precedence over default values, but is "+
			"overridden to values set with environment variables and flags.")
}

// newConf returns a viper instance that reads the given flags and
// RELATIVITY_-prefixed environment variables.
func newConf(flags *pflag.FlagSet) (*viper.Viper, error) {
	conf := viper.New()
	if err := conf.BindPFlags(flags); err != nil {
		return nil, xerrors.Errorf("bind flags: %w", err)
	}
	conf.SetEnvPrefix(envPrefix)
	conf.AutomaticEnv()
	return conf, nil
}

var validate = validator.New()

// loadConfig reads the configuration file named by the "config" key, if any,
// and returns the validated configuration.
func loadConfig(conf *viper.Viper) (*Config, error) {
	if path := conf.GetString("config"); path != "" {
		conf.SetConfigFile(path)
		if err := conf.ReadInConfig(); err != nil {
			return nil, xerrors.Errorf("reading config: %w", err)
		}
	}
	cfg := &Config{
		Addr:            conf.GetString("addr"),
		CacheSize:       conf.GetInt64("cache_size"),
		Trace:           conf.GetFloat64("trace"),
		ShutdownTimeout: conf.GetDuration("shutdown_timeout"),
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, xerrors.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
