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
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/gtechsltn/Bottleneck/internal/storeerror"
	"github.com/gtechsltn/Bottleneck/model"
)

const bulkUpdateFunctionSQL = `SELECT bulk_update_users($1::jsonb)`

// CopyExchanger uses PostgreSQL native primitives: COPY FROM STDIN for inserts and
// a single bulk_update_users(jsonb) call, expanded server-side through user_update_type, for updates.
type CopyExchanger struct {
	db      *sql.DB
	timeout time.Duration
}

func NewCopyExchanger(db *sql.DB, timeout time.Duration) *CopyExchanger {
	return &CopyExchanger{db: db, timeout: timeout}
}

// userUpdate mirrors the user_update_type composite; keys must match its attribute names.
type userUpdate struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

// BulkInsert streams the whole batch through one COPY inside one transaction.
func (e *CopyExchanger) BulkInsert(ctx context.Context, batch model.Batch) (int64, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	ctx, span := otel.Tracer("bottleneck.database").Start(ctx, "Copying users into store")
	defer span.End()
	span.SetAttributes(attribute.Int("rows", len(batch)))

	ctx, cancel := withCommandTimeout(ctx, e.timeout)
	defer cancel()

	conn, err := e.db.Conn(ctx)
	if err != nil {
		return 0, storeerror.Wrap("failed to acquire connection", err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, storeerror.Wrap("failed to begin bulk insert", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(usersTable, insertColumns...))
	if err != nil {
		return 0, storeerror.Wrap("failed to prepare copy", err)
	}

	for _, rec := range batch {
		if _, err := stmt.ExecContext(ctx, rec.ID.String(), rec.Name, rec.Email, rec.CreatedAt, rec.IsActive); err != nil {
			_ = stmt.Close()
			span.RecordError(err)
			return 0, storeerror.Wrap("bulk insert failed", errors.Wrapf(err, "copy row %s", rec.ID))
		}
	}

	// An argument-less Exec flushes the COPY buffer and reports the server's row count.
	res, err := stmt.ExecContext(ctx)
	if err != nil {
		_ = stmt.Close()
		span.RecordError(err)
		return 0, storeerror.Wrap("bulk insert failed", errors.Wrap(err, "flush copy"))
	}
	if err := stmt.Close(); err != nil {
		return 0, storeerror.Wrap("bulk insert failed", errors.Wrap(err, "close copy"))
	}

	copied, err := res.RowsAffected()
	if err != nil {
		return 0, storeerror.Wrap("bulk insert failed", err)
	}
	if copied != int64(len(batch)) {
		return 0, storeerror.New(storeerror.KindConstraint,
			fmt.Sprintf("copy count mismatch: expected %d, got %d", len(batch), copied), nil)
	}

	if err := tx.Commit(); err != nil {
		return 0, storeerror.Wrap("failed to commit bulk insert", err)
	}
	return copied, nil
}

// BulkUpdate ships the batch as one structured parameter; the join and update happen server-side.
func (e *CopyExchanger) BulkUpdate(ctx context.Context, batch model.Batch) (int64, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	ctx, span := otel.Tracer("bottleneck.database").Start(ctx, "Bulk updating users")
	defer span.End()
	span.SetAttributes(attribute.Int("rows", len(batch)))

	payload, err := json.Marshal(toUserUpdates(batch))
	if err != nil {
		return 0, storeerror.New(storeerror.KindUnclassified, "failed to encode update batch", err)
	}

	ctx, cancel := withCommandTimeout(ctx, e.timeout)
	defer cancel()

	conn, err := e.db.Conn(ctx)
	if err != nil {
		return 0, storeerror.Wrap("failed to acquire connection", err)
	}
	defer conn.Close()

	var updated int64
	err = conn.QueryRowContext(ctx, bulkUpdateFunctionSQL, string(payload)).Scan(&updated)
	if err != nil {
		span.RecordError(err)
		return 0, storeerror.Wrap("bulk update failed", err)
	}
	return updated, nil
}

func toUserUpdates(batch model.Batch) []userUpdate {
	updates := make([]userUpdate, len(batch))
	for i, rec := range batch {
		updates[i] = userUpdate{
			ID:       rec.ID.String(),
			Name:     rec.Name,
			Email:    rec.Email,
			IsActive: rec.IsActive,
		}
	}
	return updates
}
