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

package storeerror

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

type Kind string

const (
	KindTransientStore Kind = "TRANSIENT_STORE"
	KindConstraint     Kind = "CONSTRAINT"
	KindSerialization  Kind = "SERIALIZATION"
	KindUnclassified   Kind = "UNCLASSIFIED"
)

type StoreError struct {
	Kind    Kind
	Message string
	Details error
}

func (e StoreError) Error() string {
	if e.Details == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Details)
}

func (e StoreError) Unwrap() error {
	return e.Details
}

func New(kind Kind, message string, details error) StoreError {
	logrus.WithField("kind", kind).Debug(message)
	return StoreError{
		Kind:    kind,
		Message: message,
		Details: details,
	}
}

// Wrap classifies err and attaches message to it. A nil err stays nil.
func Wrap(message string, err error) error {
	if err == nil {
		return nil
	}
	return New(Classify(err), message, err)
}

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	return Classify(err) == KindTransientStore
}

// Classify maps err onto the taxonomy. The first StoreError found in the chain wins.
func Classify(err error) Kind {
	if err == nil {
		return KindUnclassified
	}

	var storeErr StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, mysql.ErrInvalidConn) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return KindTransientStore
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return classifyPostgres(pqErr)
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return classifyMySQL(mysqlErr)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return classifySQLite(sqliteErr)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransientStore
	}

	return KindUnclassified
}

func classifyPostgres(err *pq.Error) Kind {
	switch err.Code.Class() {
	case "08", "53": // connection exception, insufficient resources
		return KindTransientStore
	case "22", "23": // data exception, integrity constraint violation
		return KindConstraint
	}

	switch err.Code.Name() {
	case "query_canceled", "admin_shutdown", "crash_shutdown", "cannot_connect_now",
		"serialization_failure", "deadlock_detected", "lock_not_available":
		return KindTransientStore
	case "raise_exception":
		return KindConstraint
	}
	return KindUnclassified
}

func classifyMySQL(err *mysql.MySQLError) Kind {
	switch err.Number {
	case 1040, 1053, 1205, 1213: // too many connections, shutdown, lock wait timeout, deadlock
		return KindTransientStore
	case 1048, 1062, 1364, 1406, 1451, 1452: // null, duplicate, no default, too long, foreign keys
		return KindConstraint
	}
	return KindUnclassified
}

func classifySQLite(err sqlite3.Error) Kind {
	switch err.Code {
	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		return KindTransientStore
	case sqlite3.ErrConstraint, sqlite3.ErrMismatch, sqlite3.ErrTooBig:
		return KindConstraint
	}
	return KindUnclassified
}
