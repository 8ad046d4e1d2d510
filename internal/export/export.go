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

// Package export writes a cycle's derived batch to local files.
package export

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/gtechsltn/Bottleneck/internal/storeerror"
	"github.com/gtechsltn/Bottleneck/model"
)

// Sink receives the derived batch at the end of every successful persistence step.
type Sink interface {
	Name() string
	Export(ctx context.Context, batch model.Batch) (int, error)
}

// replaceFile hands write a temp file next to path and renames it over path once write succeeds,
// so readers only ever see a complete export.
func replaceFile(ctx context.Context, path string, write func(f *os.File) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return serializationError(path, errors.Wrap(err, "create export directory"))
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return serializationError(path, errors.Wrap(err, "create temp file"))
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return serializationError(path, err)
	}
	if err := tmp.Close(); err != nil {
		return serializationError(path, errors.Wrap(err, "close temp file"))
	}
	if err := os.Rename(tmpName, path); err != nil {
		return serializationError(path, errors.Wrap(err, "replace export file"))
	}
	return nil
}

func serializationError(path string, err error) error {
	return storeerror.New(storeerror.KindSerialization, "failed to export "+path, err)
}
