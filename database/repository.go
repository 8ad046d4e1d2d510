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

package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/gtechsltn/Bottleneck/model"
)

// IDataSource defines the interface for data source operations, grouping related functionalities.
type IDataSource interface {
	user          // Interface for user reads
	BulkExchanger // Interface for set-based writes
	Close() error
}

// user defines methods for reading users.
type user interface {
	GetActiveUsers(ctx context.Context, limit int) (model.Batch, error)      // Most recently created active users first
	GetUsersByIDs(ctx context.Context, ids []uuid.UUID) (model.Batch, error) // Users matching the given primary keys
}

// BulkExchanger moves whole batches in and out of the users table without row-by-row round trips.
// Both methods are atomic: on error nothing from the batch is persisted.
type BulkExchanger interface {
	BulkInsert(ctx context.Context, batch model.Batch) (int64, error) // Inserts id, name, email, created_date, is_active
	BulkUpdate(ctx context.Context, batch model.Batch) (int64, error) // Overwrites name, email, is_active keyed by id
}
