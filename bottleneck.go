/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package bottleneck

import (
	"github.com/gtechsltn/Bottleneck/config"
	"github.com/gtechsltn/Bottleneck/database"
	"github.com/gtechsltn/Bottleneck/internal/export"
	"github.com/gtechsltn/Bottleneck/internal/generator"
	"github.com/gtechsltn/Bottleneck/internal/retry"
)

// Bottleneck bundles the store, the cycle and its scheduler built from one configuration.
type Bottleneck struct {
	datasource database.IDataSource
	Runner     *Runner
	Executor   *Executor
}

// NewBottleneck connects to the configured store and wires a runner and an executor around it.
func NewBottleneck(cfg *config.Configuration, opts ...ExecutorOption) (*Bottleneck, error) {
	ds, err := database.NewDataSource(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithDataSource(ds, cfg, opts...), nil
}

// NewWithDataSource wires an existing data source.
func NewWithDataSource(ds database.IDataSource, cfg *config.Configuration, opts ...ExecutorOption) *Bottleneck {
	sinks := []export.Sink{
		export.NewCSVSink(cfg.Export.CSVPath),
		export.NewJSONSink(cfg.Export.JSONPath),
	}
	runner := NewRunner(ds, generator.New(), cfg.Worker, sinks)

	opts = append([]ExecutorOption{WithRetryPolicy(RetryPolicy(cfg.Worker))}, opts...)
	return &Bottleneck{
		datasource: ds,
		Runner:     runner,
		Executor:   NewExecutor(runner, cfg.Worker.Interval, opts...),
	}
}

// RetryPolicy builds the cycle retry policy from the worker settings.
func RetryPolicy(cfg config.WorkerConfig) retry.Policy {
	policy := retry.DefaultPolicy()
	if cfg.MaxRetries != nil && *cfg.MaxRetries >= 0 {
		policy.MaxRetries = uint64(*cfg.MaxRetries)
	}
	if cfg.RetryDelay > 0 {
		policy.Delay = cfg.RetryDelay
	}
	return policy
}

// Close stops the executor, if it was started, and releases the store.
func (b *Bottleneck) Close() error {
	b.Executor.Stop()
	return b.datasource.Close()
}
