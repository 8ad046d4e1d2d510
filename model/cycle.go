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

package model

import (
	"time"

	"github.com/sirupsen/logrus"
)

// CycleOutcome summarises one cycle. It is only ever logged or handed to observers.
type CycleOutcome struct {
	CycleID      string `json:"cycle_id"`
	Succeeded    bool   `json:"succeeded"`
	Attempts     int    `json:"attempts"`
	Err          error  `json:"-"`
	ExportErr    error  `json:"-"`
	RowsRead     int    `json:"rows_read"`
	RowsHandled  int    `json:"rows_handled"`
	RowsInserted int64  `json:"rows_inserted"`
	RowsUpdated  int64  `json:"rows_updated"`
	// RowsExported counts the derived batch once, however many sinks wrote it.
	// It stays 0 when every sink failed.
	RowsExported int           `json:"rows_exported"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
}

// Fields renders the outcome as logrus fields.
func (o CycleOutcome) Fields() logrus.Fields {
	fields := logrus.Fields{
		"cycle_id":      o.CycleID,
		"succeeded":     o.Succeeded,
		"attempts":      o.Attempts,
		"rows_read":     o.RowsRead,
		"rows_handled":  o.RowsHandled,
		"rows_inserted": o.RowsInserted,
		"rows_updated":  o.RowsUpdated,
		"rows_exported": o.RowsExported,
		"duration":      o.Duration.String(),
	}
	if o.Err != nil {
		fields["error"] = o.Err.Error()
	}
	if o.ExportErr != nil {
		fields["export_error"] = o.ExportErr.Error()
	}
	return fields
}

// RetryDecision describes one scheduled retry.
type RetryDecision struct {
	AttemptNumber          int
	DelayBeforeNextAttempt time.Duration
	TriggeringError        error
}
