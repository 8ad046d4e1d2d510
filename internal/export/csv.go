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

package export

import (
	"context"
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/gtechsltn/Bottleneck/model"
)

var csvHeader = []string{"Id", "Name", "Email", "CreatedDate", "IsActive"}

type CSVSink struct {
	path string
}

func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

func (s *CSVSink) Name() string {
	return "csv"
}

// Export overwrites the target with a header line and one row per record.
func (s *CSVSink) Export(ctx context.Context, batch model.Batch) (int, error) {
	err := replaceFile(ctx, s.path, func(f *os.File) error {
		w := csv.NewWriter(f)
		if err := w.Write(csvHeader); err != nil {
			return errors.Wrap(err, "write header")
		}
		for _, rec := range batch {
			row := []string{
				rec.ID.String(),
				rec.Name,
				rec.Email,
				rec.CreatedAt.UTC().Format(time.RFC3339Nano),
				strconv.FormatBool(rec.IsActive),
			}
			if err := w.Write(row); err != nil {
				return errors.Wrapf(err, "write row %s", rec.ID)
			}
		}
		w.Flush()
		return errors.Wrap(w.Error(), "flush csv")
	})
	if err != nil {
		return 0, err
	}
	return len(batch), nil
}
