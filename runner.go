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
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/gtechsltn/Bottleneck/config"
	"github.com/gtechsltn/Bottleneck/database"
	"github.com/gtechsltn/Bottleneck/internal/export"
	"github.com/gtechsltn/Bottleneck/model"
)

const tracerName = "bottleneck"

// Synthesizer produces the fresh records inserted by each cycle.
type Synthesizer interface {
	Generate(n int) model.Batch
}

// Runner executes one read, synthesize, insert, update and export cycle.
type Runner struct {
	datasource database.IDataSource
	generator  Synthesizer
	handler    RecordHandler
	sinks      []export.Sink

	readLimit  int
	batchSize  int
	nameSuffix string
	verbose    bool
}

type RunnerOption func(*Runner)

// WithRecordHandler replaces the pass-through handler applied to every record read.
func WithRecordHandler(h RecordHandler) RunnerOption {
	return func(r *Runner) {
		if h != nil {
			r.handler = h
		}
	}
}

func NewRunner(ds database.IDataSource, gen Synthesizer, cfg config.WorkerConfig, sinks []export.Sink, opts ...RunnerOption) *Runner {
	r := &Runner{
		datasource: ds,
		generator:  gen,
		handler:    PassThrough{},
		sinks:      sinks,
		readLimit:  cfg.ReadLimit,
		batchSize:  cfg.BatchSize,
		nameSuffix: cfg.NameSuffix,
		verbose:    cfg.VerboseTiming,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunOnce performs a single cycle without retrying. Store failures abort the cycle and are
// returned as is; handler and export failures are logged and leave the cycle successful.
func (r *Runner) RunOnce(ctx context.Context) (outcome model.CycleOutcome, err error) {
	outcome.StartedAt = time.Now().UTC()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "Running cycle")
	defer func() {
		outcome.Duration = time.Since(outcome.StartedAt)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var active model.Batch
	err = r.step(ctx, "read", func(ctx context.Context) error {
		var err error
		active, err = r.datasource.GetActiveUsers(ctx, r.readLimit)
		return err
	})
	if err != nil {
		return outcome, err
	}
	outcome.RowsRead = len(active)

	_ = r.step(ctx, "handle", func(ctx context.Context) error {
		outcome.RowsHandled = r.handle(ctx, active)
		return nil
	})

	var synthesized model.Batch
	_ = r.step(ctx, "synthesize", func(context.Context) error {
		synthesized = r.generator.Generate(r.batchSize)
		return nil
	})

	err = r.step(ctx, "insert", func(ctx context.Context) error {
		var err error
		outcome.RowsInserted, err = r.datasource.BulkInsert(ctx, synthesized)
		return err
	})
	if err != nil {
		return outcome, err
	}

	derived := synthesized.WithNameSuffix(r.nameSuffix)

	err = r.step(ctx, "update", func(ctx context.Context) error {
		var err error
		outcome.RowsUpdated, err = r.datasource.BulkUpdate(ctx, derived)
		return err
	})
	if err != nil {
		return outcome, err
	}
	if outcome.RowsUpdated != int64(len(derived)) {
		logrus.WithFields(logrus.Fields{
			"expected": len(derived),
			"updated":  outcome.RowsUpdated,
		}).Warn("bulk update touched fewer rows than the batch holds")
	}

	_ = r.step(ctx, "export", func(ctx context.Context) error {
		outcome.RowsExported, outcome.ExportErr = r.export(ctx, derived)
		return nil
	})

	span.SetAttributes(
		attribute.Int("rows_read", outcome.RowsRead),
		attribute.Int64("rows_inserted", outcome.RowsInserted),
		attribute.Int64("rows_updated", outcome.RowsUpdated),
	)
	return outcome, nil
}

// handle feeds every record to the handler and returns how many it accepted.
func (r *Runner) handle(ctx context.Context, batch model.Batch) int {
	handled := 0
	for _, rec := range batch {
		if err := r.handler.Handle(ctx, rec); err != nil {
			logrus.WithError(err).WithField("user_id", rec.ID.String()).Warn("record handler failed, skipping record")
			continue
		}
		handled++
	}
	return handled
}

// export writes derived to every sink in order. One sink failing never stops the next.
// It returns the rows of the batch once any sink has written it, and the first failure.
func (r *Runner) export(ctx context.Context, derived model.Batch) (int, error) {
	var (
		exported int
		firstErr error
	)
	for _, sink := range r.sinks {
		n, err := sink.Export(ctx, derived)
		if err != nil {
			logrus.WithError(err).WithField("sink", sink.Name()).Error("export failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if n > exported {
			exported = n
		}
	}
	return exported, firstErr
}

func (r *Runner) step(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	if r.verbose {
		logrus.WithFields(logrus.Fields{
			"step":       name,
			"elapsed_ms": time.Since(start).Milliseconds(),
		}).Info("cycle step finished")
	}
	return err
}
