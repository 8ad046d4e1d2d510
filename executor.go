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
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gtechsltn/Bottleneck/internal/retry"
	"github.com/gtechsltn/Bottleneck/model"
)

// State is the executor's re-entrancy cell.
type State int32

const (
	StateIdle State = iota
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

var ErrAlreadyStarted = errors.New("executor already started")

// CycleRunner is a single cycle the executor schedules.
type CycleRunner interface {
	RunOnce(ctx context.Context) (model.CycleOutcome, error)
}

// Executor fires a cycle immediately and then on every interval, never running two at once.
// Ticks that land while a cycle is in flight are dropped rather than queued.
type Executor struct {
	runner    CycleRunner
	interval  time.Duration
	policy    retry.Policy
	onOutcome func(model.CycleOutcome)

	state   atomic.Int32
	skipped atomic.Int64

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	loopWg  sync.WaitGroup
	cycleWg sync.WaitGroup
}

type ExecutorOption func(*Executor)

// WithRetryPolicy overrides the default transient-failure retry policy.
func WithRetryPolicy(p retry.Policy) ExecutorOption {
	return func(e *Executor) {
		e.policy = p
	}
}

// OnOutcome registers a hook called with the terminal outcome of every cycle.
func OnOutcome(fn func(model.CycleOutcome)) ExecutorOption {
	return func(e *Executor) {
		e.onOutcome = fn
	}
}

func NewExecutor(runner CycleRunner, interval time.Duration, opts ...ExecutorOption) *Executor {
	e := &Executor{
		runner:   runner,
		interval: interval,
		policy:   retry.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start launches the scheduling loop. Cycles run on a context that keeps ctx's values
// but not its cancellation; cancelling ctx only stops new cycles from being scheduled.
func (e *Executor) Start(ctx context.Context) error {
	if e.interval <= 0 {
		return fmt.Errorf("invalid interval %s", e.interval)
	}

	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return ErrAlreadyStarted
	}
	e.started = true
	e.stopCh = make(chan struct{})
	stopCh := e.stopCh
	e.mu.Unlock()

	e.loopWg.Add(1)
	go func() {
		defer e.loopWg.Done()
		e.run(ctx, stopCh)
	}()

	logrus.WithField("interval", e.interval.String()).Info("executor started")
	return nil
}

// Stop ends scheduling and waits for an in-flight cycle to reach its terminal state.
func (e *Executor) Stop() {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	e.started = false
	close(e.stopCh)
	e.mu.Unlock()

	e.loopWg.Wait()
	e.cycleWg.Wait()
	logrus.Info("executor stopped")
}

// IsRunning reports whether a cycle is currently in flight.
func (e *Executor) IsRunning() bool {
	return e.State() == StateRunning
}

func (e *Executor) State() State {
	return State(e.state.Load())
}

// SkippedTicks counts ticks dropped because a cycle was still running.
func (e *Executor) SkippedTicks() int64 {
	return e.skipped.Load()
}

func (e *Executor) run(ctx context.Context, stopCh <-chan struct{}) {
	cycleCtx := context.WithoutCancel(ctx)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.tick(cycleCtx)
	for {
		select {
		case <-ctx.Done():
			logrus.Info("executor context cancelled")
			return
		case <-stopCh:
			return
		case <-ticker.C:
			// a tick racing Stop or cancellation must not start a cycle
			select {
			case <-stopCh:
				return
			case <-ctx.Done():
				logrus.Info("executor context cancelled")
				return
			default:
			}
			e.tick(cycleCtx)
		}
	}
}

// tick claims the Idle to Running transition or drops itself. The claim happens before
// any goroutine is spawned so two ticks can never both see Idle.
func (e *Executor) tick(ctx context.Context) {
	if !e.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		e.skipped.Add(1)
		logrus.Debug("cycle still running, tick dropped")
		return
	}

	e.cycleWg.Add(1)
	go e.cycle(ctx)
}

func (e *Executor) cycle(ctx context.Context) {
	cycleID := model.GenerateUUIDWithSuffix("cyc")
	started := time.Now()
	var outcome model.CycleOutcome

	defer e.cycleWg.Done()
	defer e.state.Store(int32(StateIdle))
	defer func() {
		if rec := recover(); rec != nil {
			outcome.Succeeded = false
			outcome.Err = fmt.Errorf("unhandled cycle fault: %v", rec)
			logrus.WithFields(logrus.Fields{
				"cycle_id": cycleID,
				"panic":    rec,
			}).Error("unhandled cycle fault")
		}
		outcome.CycleID = cycleID
		outcome.Duration = time.Since(started)
		e.report(outcome)
	}()

	logrus.WithField("cycle_id", cycleID).Info("cycle start")

	res, attempts, err := retry.Execute(ctx, e.policy, e.runner.RunOnce)
	outcome = res
	outcome.Attempts = attempts
	outcome.Err = err
	outcome.Succeeded = err == nil
}

func (e *Executor) report(outcome model.CycleOutcome) {
	entry := logrus.WithFields(outcome.Fields())
	if outcome.Succeeded {
		entry.Info("cycle end")
	} else {
		entry.Error("cycle end")
	}

	if e.onOutcome == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			logrus.WithField("panic", rec).Error("outcome hook panicked")
		}
	}()
	e.onOutcome(outcome)
}
