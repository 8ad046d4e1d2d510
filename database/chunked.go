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
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/gtechsltn/Bottleneck/internal/storeerror"
	"github.com/gtechsltn/Bottleneck/model"
)

// ChunkedExchanger is the portable fallback: multi-row statements of at most chunkSize rows,
// all chunks of one call sharing a single transaction.
type ChunkedExchanger struct {
	db        *sql.DB
	dialect   Dialect
	chunkSize int
	timeout   time.Duration
}

func NewChunkedExchanger(db *sql.DB, dialect Dialect, chunkSize int, timeout time.Duration) *ChunkedExchanger {
	limit := dialect.MaxRowsPerStatement(len(insertColumns))
	if chunkSize <= 0 || chunkSize > limit {
		logrus.Warnf("chunk size %d out of range for %s, using %d", chunkSize, dialect.Name, limit)
		chunkSize = limit
	}
	return &ChunkedExchanger{db: db, dialect: dialect, chunkSize: chunkSize, timeout: timeout}
}

func (e *ChunkedExchanger) BulkInsert(ctx context.Context, batch model.Batch) (int64, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	ctx, span := otel.Tracer("bottleneck.database").Start(ctx, "Inserting user chunks")
	defer span.End()
	span.SetAttributes(attribute.Int("rows", len(batch)), attribute.Int("chunk_size", e.chunkSize))

	inserted, err := e.inTx(ctx, batch, e.dialect.insertSQL, insertArgs, true)
	if err != nil {
		span.RecordError(err)
		return 0, storeerror.Wrap("bulk insert failed", err)
	}
	return inserted, nil
}

func (e *ChunkedExchanger) BulkUpdate(ctx context.Context, batch model.Batch) (int64, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	ctx, span := otel.Tracer("bottleneck.database").Start(ctx, "Updating user chunks")
	defer span.End()
	span.SetAttributes(attribute.Int("rows", len(batch)), attribute.Int("chunk_size", e.chunkSize))

	updated, err := e.inTx(ctx, batch, e.dialect.updateSQL, updateArgs, false)
	if err != nil {
		span.RecordError(err)
		return 0, storeerror.Wrap("bulk update failed", err)
	}
	return updated, nil
}

// inTx runs one statement per chunk on a dedicated connection and commits only if every chunk succeeded.
// With exact set, a chunk that touches fewer rows than it carries aborts the whole transaction.
func (e *ChunkedExchanger) inTx(
	ctx context.Context,
	batch model.Batch,
	render func(rows int) string,
	args func(chunk model.Batch) []interface{},
	exact bool,
) (int64, error) {
	ctx, cancel := withCommandTimeout(ctx, e.timeout)
	defer cancel()

	conn, err := e.db.Conn(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "acquire connection")
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var total int64
	for start := 0; start < len(batch); start += e.chunkSize {
		end := start + e.chunkSize
		if end > len(batch) {
			end = len(batch)
		}
		chunk := batch[start:end]

		res, err := tx.ExecContext(ctx, render(len(chunk)), args(chunk)...)
		if err != nil {
			return 0, errors.Wrapf(err, "chunk %d-%d", start, end)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, errors.Wrapf(err, "rows affected for chunk %d-%d", start, end)
		}
		if exact && affected != int64(len(chunk)) {
			return 0, storeerror.New(storeerror.KindConstraint,
				fmt.Sprintf("row count mismatch in chunk %d-%d: expected %d, got %d", start, end, len(chunk), affected), nil)
		}
		total += affected
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit")
	}
	return total, nil
}

func insertArgs(chunk model.Batch) []interface{} {
	args := make([]interface{}, 0, len(chunk)*len(insertColumns))
	for _, rec := range chunk {
		args = append(args, rec.ID.String(), rec.Name, rec.Email, rec.CreatedAt, rec.IsActive)
	}
	return args
}

func updateArgs(chunk model.Batch) []interface{} {
	args := make([]interface{}, 0, len(chunk)*len(updateColumns))
	for _, rec := range chunk {
		args = append(args, rec.ID.String(), rec.Name, rec.Email, rec.IsActive)
	}
	return args
}
