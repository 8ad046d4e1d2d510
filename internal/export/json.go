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
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/gtechsltn/Bottleneck/model"
)

type JSONSink struct {
	path string
}

func NewJSONSink(path string) *JSONSink {
	return &JSONSink{path: path}
}

func (s *JSONSink) Name() string {
	return "json"
}

// Export overwrites the target with an indented array of records.
func (s *JSONSink) Export(ctx context.Context, batch model.Batch) (int, error) {
	if batch == nil {
		batch = model.Batch{}
	}
	err := replaceFile(ctx, s.path, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(batch), "encode users")
	})
	if err != nil {
		return 0, err
	}
	return len(batch), nil
}
