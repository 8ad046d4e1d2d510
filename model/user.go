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

	"github.com/google/uuid"
)

// UserRecord is a single row of the users table.
type UserRecord struct {
	ID        uuid.UUID `json:"Id"`
	Name      string    `json:"Name"`
	Email     string    `json:"Email"`
	CreatedAt time.Time `json:"CreatedDate"`
	IsActive  bool      `json:"IsActive"`
}

// Batch is an ordered group of users moved through one cycle stage.
type Batch []UserRecord

// IDs returns the primary keys of the batch in order.
func (b Batch) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(b))
	for _, rec := range b {
		ids = append(ids, rec.ID)
	}
	return ids
}

// WithNameSuffix returns a copy of the batch where every name carries the suffix.
// The receiver is left untouched so the caller holds both views.
func (b Batch) WithNameSuffix(suffix string) Batch {
	derived := make(Batch, len(b))
	for i, rec := range b {
		rec.Name += suffix
		derived[i] = rec
	}
	return derived
}
