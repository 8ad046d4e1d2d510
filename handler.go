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

package bottleneck

import (
	"context"

	"github.com/gtechsltn/Bottleneck/model"
)

// RecordHandler processes one user read at the start of a cycle.
type RecordHandler interface {
	Handle(ctx context.Context, rec model.UserRecord) error
}

// HandlerFunc adapts a plain function to RecordHandler.
type HandlerFunc func(ctx context.Context, rec model.UserRecord) error

func (f HandlerFunc) Handle(ctx context.Context, rec model.UserRecord) error {
	return f(ctx, rec)
}

// PassThrough accepts every record without side effects.
type PassThrough struct{}

func (PassThrough) Handle(context.Context, model.UserRecord) error {
	return nil
}
