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
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/gtechsltn/Bottleneck/internal/storeerror"
	"github.com/gtechsltn/Bottleneck/model"
)

// GetActiveUsers returns up to limit active users, most recently created first.
func (d *Datasource) GetActiveUsers(ctx context.Context, limit int) (model.Batch, error) {
	ctx, span := otel.Tracer("bottleneck.database").Start(ctx, "Fetching active users")
	defer span.End()
	span.SetAttributes(attribute.Int("limit", limit))

	ctx, cancel := withCommandTimeout(ctx, d.timeout)
	defer cancel()

	rows, err := d.Conn.QueryContext(ctx, d.dialect.selectActiveSQL(), true, limit)
	if err != nil {
		span.RecordError(err)
		return nil, storeerror.Wrap("failed to retrieve active users", err)
	}
	defer rows.Close()

	users, err := scanUsers(rows)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("rows", len(users)))
	return users, nil
}

// GetUsersByIDs returns the users whose id is in ids. Order is not guaranteed.
func (d *Datasource) GetUsersByIDs(ctx context.Context, ids []uuid.UUID) (model.Batch, error) {
	if len(ids) == 0 {
		return model.Batch{}, nil
	}

	ctx, cancel := withCommandTimeout(ctx, d.timeout)
	defer cancel()

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id.String()
	}

	rows, err := d.Conn.QueryContext(ctx, d.dialect.selectByIDsSQL(len(ids)), args...)
	if err != nil {
		return nil, storeerror.Wrap("failed to retrieve users by id", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

func scanUsers(rows *sql.Rows) (model.Batch, error) {
	users := model.Batch{}
	for rows.Next() {
		var rec model.UserRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Email, &rec.CreatedAt, &rec.IsActive); err != nil {
			return nil, storeerror.Wrap("failed to scan user row", errors.WithStack(err))
		}
		rec.CreatedAt = rec.CreatedAt.UTC()
		users = append(users, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, storeerror.Wrap("error occurred while iterating over users", err)
	}
	return users, nil
}
