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

package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gtechsltn/Bottleneck/internal/storeerror"
	"github.com/gtechsltn/Bottleneck/model"
	"github.com/sirupsen/logrus"
)

const (
	DefaultMaxRetries = 3
	DefaultDelay      = 2 * time.Second
)

// Policy retries an operation a bounded number of times with a fixed delay.
// Only errors accepted by Classifier are retried.
type Policy struct {
	MaxRetries uint64
	Delay      time.Duration
	Classifier func(error) bool
	Notify     func(model.RetryDecision)

	timer backoff.Timer
}

// DefaultPolicy retries transient store failures three times, two seconds apart.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: DefaultMaxRetries,
		Delay:      DefaultDelay,
		Classifier: storeerror.IsRetryable,
	}
}

// Execute runs op until it succeeds, fails with a non-retryable error or runs out of retries.
// It returns the value of the last attempt, the number of attempts made and the last error as op returned it.
func Execute[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, int, error) {
	classifier := p.Classifier
	if classifier == nil {
		classifier = storeerror.IsRetryable
	}

	var (
		last     T
		attempts int
	)

	operation := func() error {
		attempts++
		res, err := op(ctx)
		last = res
		if err == nil {
			return nil
		}
		if !classifier(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, delay time.Duration) {
		p.emit(model.RetryDecision{
			AttemptNumber:          attempts,
			DelayBeforeNextAttempt: delay,
			TriggeringError:        err,
		})
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Delay), p.MaxRetries), ctx)
	err := backoff.RetryNotifyWithTimer(operation, b, notify, p.timer)
	return last, attempts, err
}

// emit reports a retry. A misbehaving hook must not break the retry loop.
func (p Policy) emit(decision model.RetryDecision) {
	defer func() {
		if rec := recover(); rec != nil {
			logrus.WithField("panic", rec).Error("retry notify hook panicked")
		}
	}()

	logrus.WithFields(logrus.Fields{
		"attempt": decision.AttemptNumber,
		"delay":   decision.DelayBeforeNextAttempt.String(),
		"error":   decision.TriggeringError,
	}).Warn("retrying after transient failure")

	if p.Notify != nil {
		p.Notify(decision)
	}
}
